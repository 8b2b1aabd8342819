package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/groundtruth/walkroute/internal/core/domain"
	"github.com/groundtruth/walkroute/internal/pkg/metrics"
)

var tracer = otel.Tracer("walkroute/adapters/routing")

// Client calls the routing engine over HTTP.
type Client struct {
	baseURL string
	hc      *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// FetchRoute requests a walking route. An engine 422 means no path exists
// and is returned as *domain.NoRouteError; everything else non-2xx becomes
// a plain error carrying the engine's message when one can be extracted.
func (c *Client) FetchRoute(ctx context.Context, start, end domain.GeoPoint) (*domain.RouteResult, error) {
	ctx, span := tracer.Start(ctx, "routing.FetchRoute")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("route.start_lat", start.Lat),
		attribute.Float64("route.start_lon", start.Lon),
		attribute.Float64("route.end_lat", end.Lat),
		attribute.Float64("route.end_lon", end.Lon),
	)

	q := url.Values{}
	q.Set("startLat", formatAxis(start.Lat))
	q.Set("startLon", formatAxis(start.Lon))
	q.Set("endLat", formatAxis(end.Lat))
	q.Set("endLon", formatAxis(end.Lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/routing/route?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build route request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.hc.Do(req)
	metrics.CollaboratorDuration.WithLabelValues("routing").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.CollaboratorRequests.WithLabelValues("routing", "transport_error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.CollaboratorRequests.WithLabelValues("routing", "ok").Inc()
		var route domain.RouteResult
		if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
			return nil, fmt.Errorf("decode route response: %w", err)
		}
		return &route, nil
	}

	msg := readErrorMessage(resp)
	if resp.StatusCode == http.StatusUnprocessableEntity {
		metrics.CollaboratorRequests.WithLabelValues("routing", "no_route").Inc()
		span.SetStatus(codes.Error, "no route")
		return nil, &domain.NoRouteError{Message: msg}
	}

	metrics.CollaboratorRequests.WithLabelValues("routing", "error").Inc()
	span.SetStatus(codes.Error, msg)
	if msg == "" {
		msg = "Routing failed. Please try again."
	}
	return nil, errors.New(msg)
}

// formatAxis renders a coordinate at full precision for query strings.
func formatAxis(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// readErrorMessage extracts the most useful message from an error response:
// a JSON "message" field, then the whole JSON document, then the raw body,
// then the HTTP status text.
func readErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return http.StatusText(resp.StatusCode)
	}

	var doc map[string]any
	if json.Unmarshal(body, &doc) == nil {
		if m, ok := doc["message"].(string); ok && m != "" {
			return m
		}
		if compact, err := json.Marshal(doc); err == nil {
			return string(compact)
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
