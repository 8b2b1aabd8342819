package http

import (
	"context"
	"sync"
	"time"

	"github.com/groundtruth/walkroute/internal/core/domain"
)

// maxFixAge is how long a reported device fix stays fresh enough to serve
// a Locate call without a round trip to the browser.
const maxFixAge = 60 * time.Second

type locateResult struct {
	loc domain.DeviceLocation
	err error
}

// DeviceGateway implements ports.Locator for a browser-backed session.
// Locate serves a recent fix straight from memory; otherwise it asks the
// browser for one over the websocket and waits for ReportFix/ReportError.
type DeviceGateway struct {
	mu        sync.Mutex
	lastFix   *domain.DeviceLocation
	lastFixAt time.Time
	waiters   []chan locateResult
	requester func()
}

func NewDeviceGateway() *DeviceGateway {
	return &DeviceGateway{}
}

// BindRequester installs the callback that asks the connected browser for
// a position. Replaced on every websocket (re)connect.
func (g *DeviceGateway) BindRequester(fn func()) {
	g.mu.Lock()
	g.requester = fn
	g.mu.Unlock()
}

// Locate returns a fresh device fix, requesting one from the browser when
// the cached fix is stale or missing.
func (g *DeviceGateway) Locate(ctx context.Context) (domain.DeviceLocation, error) {
	g.mu.Lock()
	if g.lastFix != nil && time.Since(g.lastFixAt) < maxFixAge {
		loc := *g.lastFix
		g.mu.Unlock()
		return loc, nil
	}

	if g.requester == nil {
		g.mu.Unlock()
		return domain.DeviceLocation{}, &domain.GeoError{
			Kind:    domain.GeoErrUnsupported,
			Message: "",
		}
	}

	ch := make(chan locateResult, 1)
	g.waiters = append(g.waiters, ch)
	request := g.requester
	g.mu.Unlock()

	request()

	select {
	case res := <-ch:
		return res.loc, res.err
	case <-ctx.Done():
		g.dropWaiter(ch)
		return domain.DeviceLocation{}, &domain.GeoError{Kind: domain.GeoErrTimeout}
	}
}

func (g *DeviceGateway) dropWaiter(ch chan locateResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, w := range g.waiters {
		if w == ch {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			return
		}
	}
}

// ReportFix records a position reported by the browser and resolves any
// pending Locate calls.
func (g *DeviceGateway) ReportFix(loc domain.DeviceLocation) {
	g.mu.Lock()
	g.lastFix = &loc
	g.lastFixAt = time.Now()
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()

	for _, ch := range waiters {
		ch <- locateResult{loc: loc}
	}
}

// ReportError resolves pending Locate calls with a classified failure.
// Code follows the W3C Geolocation convention: 1 permission denied,
// 2 position unavailable, 3 timeout.
func (g *DeviceGateway) ReportError(code int, message string) {
	kind := domain.GeoErrOther
	switch code {
	case 1:
		kind = domain.GeoErrPermissionDenied
	case 2:
		kind = domain.GeoErrPositionUnavailable
	case 3:
		kind = domain.GeoErrTimeout
	}
	err := &domain.GeoError{Kind: kind, Message: message}

	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()

	for _, ch := range waiters {
		ch <- locateResult{err: err}
	}
}
