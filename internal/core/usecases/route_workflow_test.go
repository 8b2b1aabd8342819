package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/groundtruth/walkroute/internal/core/domain"
	"github.com/groundtruth/walkroute/internal/core/usecases"
)

func TestRequestRoute_MissingEndpoints(t *testing.T) {
	p := newPlanner()
	p.RequestRoute(context.Background())
	snap := p.Snapshot()
	if snap.Status.Phase != usecases.PhaseError {
		t.Fatalf("phase = %q", snap.Status.Phase)
	}
	if snap.Status.Message != "Please set both a start and end location." {
		t.Errorf("message = %q", snap.Status.Message)
	}

	p.SetFromMapClick(domain.GeoPoint{Lat: 1, Lon: 1})
	p.RequestRoute(context.Background())
	if snap := p.Snapshot(); snap.Status.Message != "Please set both a start and end location." {
		t.Errorf("message = %q", snap.Status.Message)
	}
}

func TestRequestRoute_Success(t *testing.T) {
	var gotStart, gotEnd domain.GeoPoint
	fetcher := &mockRouteFetcher{
		fetchFn: func(ctx context.Context, start, end domain.GeoPoint) (*domain.RouteResult, error) {
			gotStart, gotEnd = start, end
			return &domain.RouteResult{DistanceMeters: 1234, DurationSeconds: 900}, nil
		},
	}
	events := &mockPublisher{}
	p := usecases.NewPlannerService(&mockGeocoder{}, fetcher, nil, events)
	p.SetFromMapClick(domain.GeoPoint{Lat: 43.263, Lon: -2.935})
	p.SetFromMapClick(domain.GeoPoint{Lat: 43.27, Lon: -2.94})

	p.RequestRoute(context.Background())

	snap := p.Snapshot()
	if snap.Status.Phase != usecases.PhaseReady {
		t.Fatalf("phase = %q message = %q", snap.Status.Phase, snap.Status.Message)
	}
	if snap.Status.Route == nil || snap.Status.Route.DistanceMeters != 1234 {
		t.Errorf("route = %+v", snap.Status.Route)
	}
	if snap.Status.Message != "" {
		t.Errorf("success must not carry a message, got %q", snap.Status.Message)
	}
	if gotStart.Lat != 43.263 || gotEnd.Lat != 43.27 {
		t.Errorf("fetch endpoints = %+v, %+v", gotStart, gotEnd)
	}
	if events.routes != 1 {
		t.Errorf("route planned events = %d", events.routes)
	}
}

func TestRequestRoute_NoRouteWithDetail(t *testing.T) {
	fetcher := &mockRouteFetcher{
		fetchFn: func(ctx context.Context, start, end domain.GeoPoint) (*domain.RouteResult, error) {
			return nil, &domain.NoRouteError{Message: "no path"}
		},
	}
	p := usecases.NewPlannerService(&mockGeocoder{}, fetcher, nil, nil)
	p.SetFromMapClick(domain.GeoPoint{Lat: 1, Lon: 1})
	p.SetFromMapClick(domain.GeoPoint{Lat: 2, Lon: 2})

	p.RequestRoute(context.Background())

	snap := p.Snapshot()
	if snap.Status.Phase != usecases.PhaseNoRoute {
		t.Fatalf("phase = %q", snap.Status.Phase)
	}
	if snap.Status.Message != "No route found: no path" {
		t.Errorf("message = %q", snap.Status.Message)
	}
	if snap.Status.Route != nil {
		t.Error("no_route must not carry a route")
	}
}

func TestRequestRoute_NoRouteWithoutDetail(t *testing.T) {
	fetcher := &mockRouteFetcher{
		fetchFn: func(ctx context.Context, start, end domain.GeoPoint) (*domain.RouteResult, error) {
			return nil, &domain.NoRouteError{}
		},
	}
	p := usecases.NewPlannerService(&mockGeocoder{}, fetcher, nil, nil)
	p.SetFromMapClick(domain.GeoPoint{Lat: 1, Lon: 1})
	p.SetFromMapClick(domain.GeoPoint{Lat: 2, Lon: 2})

	p.RequestRoute(context.Background())

	if snap := p.Snapshot(); snap.Status.Message != "No route found." {
		t.Errorf("message = %q", snap.Status.Message)
	}
}

func TestRequestRoute_TransportError(t *testing.T) {
	fetcher := &mockRouteFetcher{
		fetchFn: func(ctx context.Context, start, end domain.GeoPoint) (*domain.RouteResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	events := &mockPublisher{}
	p := usecases.NewPlannerService(&mockGeocoder{}, fetcher, nil, events)
	p.SetFromMapClick(domain.GeoPoint{Lat: 1, Lon: 1})
	p.SetFromMapClick(domain.GeoPoint{Lat: 2, Lon: 2})

	p.RequestRoute(context.Background())

	snap := p.Snapshot()
	if snap.Status.Phase != usecases.PhaseError {
		t.Fatalf("phase = %q", snap.Status.Phase)
	}
	if snap.Status.Message != "connection refused" {
		t.Errorf("message = %q", snap.Status.Message)
	}
	if events.routes != 0 {
		t.Error("failed fetch must not publish an event")
	}
}

func TestRequestRoute_OutOfRangeEndpoint(t *testing.T) {
	p := newPlanner()
	// map clicks can land outside the valid range when the map wraps
	p.SetFromMapClick(domain.GeoPoint{Lat: 95, Lon: 0})
	p.SetFromMapClick(domain.GeoPoint{Lat: 2, Lon: 2})

	p.RequestRoute(context.Background())

	if snap := p.Snapshot(); snap.Status.Message != "Coordinates are out of range." {
		t.Errorf("message = %q", snap.Status.Message)
	}
}
