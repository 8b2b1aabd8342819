package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/groundtruth/walkroute/internal/core/domain"
	"github.com/groundtruth/walkroute/internal/pkg/metrics"
)

// wsClientMessage is sent from the browser: position fixes and fix errors.
type wsClientMessage struct {
	Type     string  `json:"type"` // "position" | "position_error"
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy"`
	Code     int     `json:"code"`
	Message  string  `json:"message"`
}

// WebSocketHandler attaches a browser to its session: state pushes flow
// down, position fixes flow up, and locate requests are sent when the
// server needs a fresh fix.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sessionID, _ := c.Locals("session").(string)
		s, ok := deps.Sessions.Get(sessionID)
		if !ok {
			_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"session not found"}`))
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		slog.Debug("ws client connected", "session_id", s.ID)

		var mu sync.Mutex
		write := func(data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// The browser answers locate requests with a position message.
		s.Device.BindRequester(func() {
			_ = write([]byte(`{"type":"locate"}`))
		})
		defer s.Device.BindRequester(nil)

		states := s.Watch()
		defer s.Unwatch(states)

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case payload := <-states:
					if write(payload) != nil {
						return
					}
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Initial state push, then an automatic location request the first
		// time this session sees a browser.
		pushState(s)
		if s.Geo.Snapshot().Status == domain.GeoIdle {
			go func() {
				s.Geo.Refresh(context.Background())
				pushState(s)
			}()
		}

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsClientMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = write([]byte(`{"error":"invalid JSON"}`))
				continue
			}

			switch m.Type {
			case "position":
				s.Device.ReportFix(domain.DeviceLocation{
					Coordinate:     domain.GeoPoint{Lat: m.Lat, Lon: m.Lon},
					AccuracyMeters: m.Accuracy,
				})
			case "position_error":
				s.Device.ReportError(m.Code, m.Message)
			default:
				_ = write([]byte(`{"error":"unknown message type"}`))
			}
		}

		close(done)
		slog.Debug("ws client disconnected", "session_id", s.ID)
	}
}
