package ports

import (
	"context"
	"time"

	"github.com/groundtruth/walkroute/internal/core/domain"
)

// RouteFetcher computes a walking route between two endpoints.
type RouteFetcher interface {
	// FetchRoute returns *domain.NoRouteError when the engine reports that
	// no path exists between otherwise valid endpoints.
	FetchRoute(ctx context.Context, start, end domain.GeoPoint) (*domain.RouteResult, error)
}

// Geocoder resolves free-text place queries and reverse-geocodes points.
type Geocoder interface {
	// Search returns domain.ErrPlaceNotFound when the query matches nothing.
	Search(ctx context.Context, query string) (*domain.Place, error)
	// Reverse returns domain.ErrNoPlaceName when the point has no display name.
	Reverse(ctx context.Context, point domain.GeoPoint) (string, error)
}

// HazardIntake accepts hazard photo submissions.
type HazardIntake interface {
	Submit(ctx context.Context, image *domain.HazardImage, meta domain.HazardMetadata) (*domain.HazardReceipt, error)
}

// Locator obtains a device position fix. Implementations return
// *domain.GeoError on failure so callers can map it to a user message.
type Locator interface {
	Locate(ctx context.Context) (domain.DeviceLocation, error)
}

// CacheService provides key/value caching for geocode lookups.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher emits domain events for downstream consumers.
type EventPublisher interface {
	PublishHazardReceipt(ctx context.Context, receipt *domain.HazardReceipt) error
	PublishRoutePlanned(ctx context.Context, start, end domain.GeoPoint, route *domain.RouteResult) error
}
