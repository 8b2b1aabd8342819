package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/groundtruth/walkroute/internal/core/domain"
	"github.com/groundtruth/walkroute/internal/core/ports"
)

const fixTimeout = 8 * time.Second

// StartEndpoint is the slice of the planner the geolocation flow touches.
type StartEndpoint interface {
	StartCoordinate() (domain.GeoPoint, bool)
	DefaultStart(point domain.GeoPoint)
	SetStartLabelIfAt(point domain.GeoPoint, label string) bool
}

// GeoSnapshot is a consistent copy of the geolocation state.
type GeoSnapshot struct {
	Status   domain.GeoStatus
	Location *domain.DeviceLocation
	Error    string
}

// GeolocationService drives the device-location status machine and, the
// first time a fix lands while the start endpoint is empty, defaults the
// start from it.
type GeolocationService struct {
	locator  ports.Locator
	geocoder ports.Geocoder
	planner  StartEndpoint

	mu                sync.Mutex
	status            domain.GeoStatus
	location          *domain.DeviceLocation
	errMsg            string
	hasDefaultedStart bool
}

func NewGeolocationService(locator ports.Locator, geocoder ports.Geocoder, planner StartEndpoint) *GeolocationService {
	return &GeolocationService{
		locator:  locator,
		geocoder: geocoder,
		planner:  planner,
		status:   domain.GeoIdle,
	}
}

// Snapshot returns the current geolocation state.
func (g *GeolocationService) Snapshot() GeoSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := GeoSnapshot{Status: g.status, Error: g.errMsg}
	if g.location != nil {
		loc := *g.location
		snap.Location = &loc
	}
	return snap
}

// Current returns the latest fix when one is ready.
func (g *GeolocationService) Current() (domain.DeviceLocation, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != domain.GeoReady || g.location == nil {
		return domain.DeviceLocation{}, false
	}
	return *g.location, true
}

// Refresh requests a fresh device fix. On the first successful fix with no
// start endpoint set, the start defaults to the fix and a reverse-geocode
// lookup resolves its label. Defaulting happens at most once per session
// even if the user later clears the start.
func (g *GeolocationService) Refresh(ctx context.Context) {
	if g.locator == nil {
		g.mu.Lock()
		g.status = domain.GeoUnavailable
		g.errMsg = "Geolocation is not supported by this browser."
		g.location = nil
		g.mu.Unlock()
		return
	}

	g.mu.Lock()
	g.status = domain.GeoLocating
	g.errMsg = ""
	g.mu.Unlock()

	fixCtx, cancel := context.WithTimeout(ctx, fixTimeout)
	defer cancel()
	loc, err := g.locator.Locate(fixCtx)

	g.mu.Lock()
	if err != nil {
		g.status = domain.GeoUnavailable
		g.errMsg = geoErrorMessage(err)
		g.location = nil
		g.mu.Unlock()
		return
	}
	g.status = domain.GeoReady
	g.location = &loc

	shouldDefault := false
	if !g.hasDefaultedStart {
		if _, set := g.planner.StartCoordinate(); !set {
			shouldDefault = true
			g.hasDefaultedStart = true
		}
	}
	g.mu.Unlock()

	if shouldDefault {
		g.planner.DefaultStart(loc.Coordinate)
		g.resolveStartLabel(ctx, loc.Coordinate)
	}
}

func geoErrorMessage(err error) string {
	var geoErr *domain.GeoError
	if errors.As(err, &geoErr) {
		return geoErr.UserMessage()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Location request timed out."
	}
	return "Unable to retrieve location."
}

// resolveStartLabel reverse-geocodes a defaulted start. The label applies
// only when the start is still at the fix; otherwise a later edit has won
// and the result is dropped.
func (g *GeolocationService) resolveStartLabel(ctx context.Context, point domain.GeoPoint) {
	label, err := g.geocoder.Reverse(ctx, point)
	if err != nil {
		if errors.Is(err, domain.ErrNoPlaceName) {
			label = "No location name found."
		} else {
			slog.Warn("reverse geocode for default start failed", "error", err)
			return
		}
	}
	if !g.planner.SetStartLabelIfAt(point, label) {
		slog.Debug("discarding stale start label", "label", label)
	}
}
