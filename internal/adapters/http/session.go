package http

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/groundtruth/walkroute/internal/core/ports"
	"github.com/groundtruth/walkroute/internal/core/usecases"
	"github.com/groundtruth/walkroute/internal/pkg/metrics"
)

// Session holds one browser's planning state: the three controllers plus
// the device gateway feeding position fixes from that browser.
type Session struct {
	ID      string
	Planner *usecases.PlannerService
	Geo     *usecases.GeolocationService
	Hazards *usecases.HazardService
	Device  *DeviceGateway

	mu       sync.Mutex
	watchers map[chan []byte]struct{}
	lastSeen time.Time
}

// Watch registers a channel that receives state pushes until Unwatch.
func (s *Session) Watch() chan []byte {
	ch := make(chan []byte, 8)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Session) Unwatch(ch chan []byte) {
	s.mu.Lock()
	delete(s.watchers, ch)
	s.mu.Unlock()
}

// broadcast fans a state payload out to all watchers. Slow watchers drop
// frames rather than block the sender.
func (s *Session) broadcast(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionDeps are the collaborators wired into each new session.
type SessionDeps struct {
	Geocoder ports.Geocoder
	Routes   ports.RouteFetcher
	Intake   ports.HazardIntake
	Cache    ports.CacheService
	Events   ports.EventPublisher
}

// SessionManager creates, looks up, and expires sessions.
type SessionManager struct {
	deps SessionDeps
	ttl  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(deps SessionDeps, ttl time.Duration) *SessionManager {
	return &SessionManager{
		deps:     deps,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Create builds a session with freshly wired controllers.
func (m *SessionManager) Create() *Session {
	planner := usecases.NewPlannerService(m.deps.Geocoder, m.deps.Routes, m.deps.Cache, m.deps.Events)
	device := NewDeviceGateway()
	geo := usecases.NewGeolocationService(device, m.deps.Geocoder, planner)
	hazards := usecases.NewHazardService(m.deps.Intake, geo, m.deps.Events)

	s := &Session{
		ID:       uuid.NewString(),
		Planner:  planner,
		Geo:      geo,
		Hazards:  hazards,
		Device:   device,
		watchers: make(map[chan []byte]struct{}),
		lastSeen: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()
	return s
}

// Get returns a session by id and refreshes its idle timer.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Sweep evicts sessions idle past the TTL until ctx is cancelled.
func (m *SessionManager) Sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-m.ttl)
			m.mu.Lock()
			for id, s := range m.sessions {
				if s.idleSince().Before(cutoff) {
					delete(m.sessions, id)
					slog.Debug("session expired", "session_id", id)
				}
			}
			metrics.ActiveSessions.Set(float64(len(m.sessions)))
			m.mu.Unlock()
		}
	}
}
