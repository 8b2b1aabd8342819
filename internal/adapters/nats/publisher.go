package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/groundtruth/walkroute/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "WALKROUTE_EVENTS",
		Subjects:  []string{"walkroute.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishHazardReceipt emits an accepted hazard submission.
func (p *Publisher) PublishHazardReceipt(ctx context.Context, receipt *domain.HazardReceipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("walkroute.hazard.submitted", data)
	return err
}

type routePlannedEvent struct {
	Start           domain.GeoPoint `json:"start"`
	End             domain.GeoPoint `json:"end"`
	DistanceMeters  float64         `json:"distanceMeters"`
	DurationSeconds float64         `json:"durationSeconds"`
	PlannedAt       time.Time       `json:"plannedAt"`
}

// PublishRoutePlanned emits a successfully planned route.
func (p *Publisher) PublishRoutePlanned(ctx context.Context, start, end domain.GeoPoint, route *domain.RouteResult) error {
	event := routePlannedEvent{
		Start:     start,
		End:       end,
		PlannedAt: time.Now().UTC(),
	}
	if route != nil {
		event.DistanceMeters = route.DistanceMeters
		event.DurationSeconds = route.DurationSeconds
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("walkroute.route.planned", data)
	return err
}

// Connected reports whether the underlying connection is currently up.
func (p *Publisher) Connected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
