package usecases

import (
	"context"
	"errors"
	"log/slog"

	"github.com/groundtruth/walkroute/internal/core/domain"
)

// RequestRoute runs the route workflow for the current endpoints. The
// preconditions are checked under the lock, the fetch runs outside it, and
// the outcome is applied on return. A concurrent edit between unlock and
// relock is resolved last-write-wins, exactly like every other async
// completion here.
func (p *PlannerService) RequestRoute(ctx context.Context) {
	p.mu.Lock()
	p.clearRouteLocked()

	if p.start.Coordinate == nil || p.end.Coordinate == nil {
		p.status = PlanStatus{Phase: PhaseError, Message: "Please set both a start and end location."}
		p.mu.Unlock()
		return
	}
	start := *p.start.Coordinate
	end := *p.end.Coordinate
	if !start.Valid() || !end.Valid() {
		p.status = PlanStatus{Phase: PhaseError, Message: "Coordinates are out of range."}
		p.mu.Unlock()
		return
	}
	p.status = PlanStatus{Phase: PhaseFetching}
	p.mu.Unlock()

	route, err := p.routes.FetchRoute(ctx, start, end)

	if err == nil && p.events != nil {
		if pubErr := p.events.PublishRoutePlanned(ctx, start, end, route); pubErr != nil {
			slog.Warn("route planned event publish failed", "error", pubErr)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		var noRoute *domain.NoRouteError
		if errors.As(err, &noRoute) {
			msg := "No route found."
			if noRoute.Message != "" {
				msg = "No route found: " + noRoute.Message
			}
			p.status = PlanStatus{Phase: PhaseNoRoute, Message: msg}
			return
		}
		msg := err.Error()
		if msg == "" {
			msg = "Routing failed. Please try again."
		}
		p.status = PlanStatus{Phase: PhaseError, Message: msg}
		return
	}
	p.status = PlanStatus{Phase: PhaseReady, Route: route}
}
