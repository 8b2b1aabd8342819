package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/groundtruth/walkroute/internal/core/domain"
	"github.com/groundtruth/walkroute/internal/core/ports"
)

// Slot identifies which endpoint an operation targets.
type Slot int

const (
	SlotStart Slot = iota
	SlotEnd
)

func (s Slot) String() string {
	if s == SlotEnd {
		return "end"
	}
	return "start"
}

// EndpointSlot is one endpoint of the planned route. The text fields mirror
// the coordinate when it was produced by a click, a search, or a successful
// parse; after a failed parse they keep the raw user input while the
// coordinate stays nil.
type EndpointSlot struct {
	Coordinate *domain.GeoPoint
	LatText    string
	LonText    string
	PlaceText  string
	Searching  bool
}

// PlanPhase is the route workflow state. Route and Message never coexist:
// ready carries a route, no_route and error carry a message.
type PlanPhase string

const (
	PhaseIdle     PlanPhase = "idle"
	PhaseFetching PlanPhase = "fetching"
	PhaseReady    PlanPhase = "ready"
	PhaseNoRoute  PlanPhase = "no_route"
	PhaseError    PlanPhase = "error"
)

// PlanStatus is the tagged route-workflow outcome.
type PlanStatus struct {
	Phase   PlanPhase
	Route   *domain.RouteResult
	Message string
}

// PlanSnapshot is a consistent copy of the planner's state.
type PlanSnapshot struct {
	Start  EndpointSlot
	End    EndpointSlot
	Status PlanStatus
}

const geocodeCacheTTL = 24 * time.Hour

// PlannerService owns endpoint selection and the route workflow. Inputs
// from the map, the text fields, place search and geolocation all converge
// here; concurrent async completions apply last-write-wins under the mutex.
type PlannerService struct {
	geocoder ports.Geocoder
	routes   ports.RouteFetcher
	cache    ports.CacheService
	events   ports.EventPublisher

	mu     sync.Mutex
	start  EndpointSlot
	end    EndpointSlot
	status PlanStatus
}

func NewPlannerService(geocoder ports.Geocoder, routes ports.RouteFetcher, cache ports.CacheService, events ports.EventPublisher) *PlannerService {
	return &PlannerService{
		geocoder: geocoder,
		routes:   routes,
		cache:    cache,
		events:   events,
		status:   PlanStatus{Phase: PhaseIdle},
	}
}

func (p *PlannerService) slot(s Slot) *EndpointSlot {
	if s == SlotEnd {
		return &p.end
	}
	return &p.start
}

// clearRouteLocked discards any displayed route or route message. Caller
// holds p.mu.
func (p *PlannerService) clearRouteLocked() {
	p.status = PlanStatus{Phase: PhaseIdle}
}

// SetFromMapClick assigns the clicked point by coordinate presence: an
// empty start takes it first, then an empty end; with both set the click
// starts over, becoming the new start and clearing the end. Presence is
// what matters, not click history, so a geolocation-defaulted start or a
// coordinate nulled by invalid text both steer the next click correctly.
func (p *PlannerService) SetFromMapClick(point domain.GeoPoint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.start.Coordinate == nil:
		p.start = endpointAt(point)
	case p.end.Coordinate == nil:
		p.end = endpointAt(point)
	default:
		p.start = endpointAt(point)
		p.end = EndpointSlot{}
	}
	p.clearRouteLocked()
}

func endpointAt(point domain.GeoPoint) EndpointSlot {
	return EndpointSlot{
		Coordinate: &domain.GeoPoint{Lat: point.Lat, Lon: point.Lon},
		LatText:    domain.FormatCoord(point.Lat),
		LonText:    domain.FormatCoord(point.Lon),
	}
}

// SetFromTextEntry records edited coordinate text. Raw text is always kept
// so the user can keep typing; the coordinate updates only when both axes
// parse and are in range, and otherwise becomes unset.
func (p *PlannerService) SetFromTextEntry(s Slot, latText, lonText string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot := p.slot(s)
	slot.LatText = latText
	slot.LonText = lonText
	slot.PlaceText = ""

	lat, okLat := domain.ParseCoord(latText)
	lon, okLon := domain.ParseCoord(lonText)
	if okLat && okLon && domain.ValidLat(lat) && domain.ValidLon(lon) {
		slot.Coordinate = &domain.GeoPoint{Lat: lat, Lon: lon}
	} else {
		slot.Coordinate = nil
	}
	p.clearRouteLocked()
}

// SearchPlace resolves a free-text place query for one endpoint. The
// mutex is released during the lookup; a click or second search landing in
// between simply gets overwritten by whichever completion applies last.
// Returns a user-facing error message, or "" on success.
func (p *PlannerService) SearchPlace(ctx context.Context, s Slot, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "Please enter a place name."
	}

	p.mu.Lock()
	p.slot(s).Searching = true
	p.mu.Unlock()

	place, err := p.lookupPlace(ctx, query)

	p.mu.Lock()
	defer p.mu.Unlock()
	slot := p.slot(s)
	slot.Searching = false

	if err != nil {
		if errors.Is(err, domain.ErrPlaceNotFound) {
			return "No matching place found."
		}
		return err.Error()
	}
	if !place.Coordinate.Valid() {
		return "Geocoder returned out-of-range coordinates."
	}

	slot.Coordinate = &domain.GeoPoint{Lat: place.Coordinate.Lat, Lon: place.Coordinate.Lon}
	slot.LatText = domain.FormatCoord(place.Coordinate.Lat)
	slot.LonText = domain.FormatCoord(place.Coordinate.Lon)
	slot.PlaceText = place.Label
	p.clearRouteLocked()
	return ""
}

func (p *PlannerService) lookupPlace(ctx context.Context, query string) (*domain.Place, error) {
	key := "geocode:search:" + strings.ToLower(query)
	if p.cache != nil {
		if raw, err := p.cache.Get(ctx, key); err == nil && len(raw) > 0 {
			var cached domain.Place
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	place, err := p.geocoder.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		if raw, err := json.Marshal(place); err == nil {
			if err := p.cache.Set(ctx, key, raw, geocodeCacheTTL); err != nil {
				slog.Warn("geocode cache set failed", "error", err)
			}
		}
	}
	return place, nil
}

// ClearAll resets both endpoints and any route.
func (p *PlannerService) ClearAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = EndpointSlot{}
	p.end = EndpointSlot{}
	p.clearRouteLocked()
}

// StartCoordinate returns the current start coordinate, if one is set.
func (p *PlannerService) StartCoordinate() (domain.GeoPoint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.Coordinate == nil {
		return domain.GeoPoint{}, false
	}
	return *p.start.Coordinate, true
}

// DefaultStart fills the start endpoint from a device fix. The placeholder
// label stands in until a reverse-geocode lookup resolves. The displayed
// route survives; only explicit edits clear it.
func (p *PlannerService) DefaultStart(point domain.GeoPoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = endpointAt(point)
	p.start.PlaceText = "Current location"
}

// SetStartLabelIfAt applies a resolved place label only when the start is
// still at the fix it was resolved for. A click or search that moved the
// start in the meantime wins, and the stale label is dropped.
func (p *PlannerService) SetStartLabelIfAt(point domain.GeoPoint, label string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.Coordinate == nil || !domain.SameLocation(*p.start.Coordinate, point, domain.CoordEpsilon) {
		return false
	}
	p.start.PlaceText = label
	return true
}

// Snapshot returns a consistent copy of both endpoints and the route status.
func (p *PlannerService) Snapshot() PlanSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlanSnapshot{
		Start:  copySlot(p.start),
		End:    copySlot(p.end),
		Status: p.status,
	}
}

func copySlot(s EndpointSlot) EndpointSlot {
	if s.Coordinate != nil {
		c := *s.Coordinate
		s.Coordinate = &c
	}
	return s
}
