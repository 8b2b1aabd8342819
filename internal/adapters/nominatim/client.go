package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/groundtruth/walkroute/internal/core/domain"
	"github.com/groundtruth/walkroute/internal/pkg/metrics"
)

var tracer = otel.Tracer("walkroute/adapters/nominatim")

// Client talks to a Nominatim-compatible geocoder. Public Nominatim
// requires an identifying User-Agent, so one is always sent.
type Client struct {
	baseURL   string
	userAgent string
	hc        *http.Client
}

func New(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		hc:        &http.Client{Timeout: timeout},
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search resolves a free-text query to its best match.
func (c *Client) Search(ctx context.Context, query string) (*domain.Place, error) {
	ctx, span := tracer.Start(ctx, "nominatim.Search")
	defer span.End()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("q", query)
	q.Set("limit", "1")
	q.Set("addressdetails", "0")

	var results []searchResult
	if err := c.get(ctx, "/search", q, "Place search failed.", &results); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrPlaceNotFound
	}

	lat, okLat := parseAxis(results[0].Lat)
	lon, okLon := parseAxis(results[0].Lon)
	if !okLat || !okLon {
		return nil, errors.New("Invalid coordinates from geocoder.")
	}

	label := results[0].DisplayName
	if label == "" {
		label = query
	}
	return &domain.Place{Coordinate: domain.GeoPoint{Lat: lat, Lon: lon}, Label: label}, nil
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
}

// Reverse resolves a point to its display name.
func (c *Client) Reverse(ctx context.Context, point domain.GeoPoint) (string, error) {
	ctx, span := tracer.Start(ctx, "nominatim.Reverse")
	defer span.End()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(point.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(point.Lon, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "0")

	var result reverseResult
	if err := c.get(ctx, "/reverse", q, "Reverse geocoding failed.", &result); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if result.DisplayName == "" {
		return "", domain.ErrNoPlaceName
	}
	return result.DisplayName, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, failMsg string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.hc.Do(req)
	metrics.CollaboratorDuration.WithLabelValues("geocoder").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.CollaboratorRequests.WithLabelValues("geocoder", "transport_error").Inc()
		return fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.CollaboratorRequests.WithLabelValues("geocoder", "error").Inc()
		return errors.New(failMsg)
	}
	metrics.CollaboratorRequests.WithLabelValues("geocoder", "ok").Inc()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode geocode response: %w", err)
	}
	return nil
}

// parseAxis parses Nominatim's stringly-typed coordinates.
func parseAxis(s string) (float64, bool) {
	return domain.ParseCoord(s)
}
