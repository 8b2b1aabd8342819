package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/groundtruth/walkroute/internal/core/domain"
)

// --- Mock collaborators ---

type mockGeocoder struct {
	searchFn  func(ctx context.Context, query string) (*domain.Place, error)
	reverseFn func(ctx context.Context, point domain.GeoPoint) (string, error)
}

func (m *mockGeocoder) Search(ctx context.Context, query string) (*domain.Place, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, domain.ErrPlaceNotFound
}

func (m *mockGeocoder) Reverse(ctx context.Context, point domain.GeoPoint) (string, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, point)
	}
	return "", domain.ErrNoPlaceName
}

type mockRouteFetcher struct {
	fetchFn func(ctx context.Context, start, end domain.GeoPoint) (*domain.RouteResult, error)
}

func (m *mockRouteFetcher) FetchRoute(ctx context.Context, start, end domain.GeoPoint) (*domain.RouteResult, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, start, end)
	}
	return &domain.RouteResult{DistanceMeters: 1000, DurationSeconds: 720}, nil
}

type mockIntake struct {
	submitFn func(ctx context.Context, image *domain.HazardImage, meta domain.HazardMetadata) (*domain.HazardReceipt, error)
}

func (m *mockIntake) Submit(ctx context.Context, image *domain.HazardImage, meta domain.HazardMetadata) (*domain.HazardReceipt, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, image, meta)
	}
	return &domain.HazardReceipt{ID: "h-1", Status: "PENDING"}, nil
}

func testApp() (*fiber.App, *Dependencies) {
	manager := NewSessionManager(SessionDeps{
		Geocoder: &mockGeocoder{},
		Routes:   &mockRouteFetcher{},
		Intake:   &mockIntake{},
	}, time.Hour)
	deps := &Dependencies{Sessions: manager}

	app := fiber.New()
	SetupRoutes(app, deps)
	return app, deps
}

func postJSON(t *testing.T, app *fiber.App, path string, body string) (int, StateView) {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var view StateView
	_ = json.NewDecoder(resp.Body).Decode(&view)
	return resp.StatusCode, view
}

func TestCreateSession(t *testing.T) {
	app, _ := testApp()

	req := httptest.NewRequest("POST", "/v1/sessions", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var view StateView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.SessionID == "" {
		t.Error("expected a session id")
	}
	if view.Plan.Phase != "idle" {
		t.Errorf("phase = %q", view.Plan.Phase)
	}
	if view.Location.Status != "idle" {
		t.Errorf("location status = %q", view.Location.Status)
	}
}

func TestUnknownSession(t *testing.T) {
	app, _ := testApp()

	status, _ := postJSON(t, app, "/v1/sessions/nope/clear", `{}`)
	if status != 404 {
		t.Errorf("status = %d", status)
	}
}

func TestMapClick(t *testing.T) {
	app, deps := testApp()
	s := deps.Sessions.Create()

	status, view := postJSON(t, app,
		fmt.Sprintf("/v1/sessions/%s/map-click", s.ID),
		`{"lat": 43.263, "lon": -2.935}`)

	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	if view.Start.Lat == nil || *view.Start.Lat != 43.263 {
		t.Errorf("start = %+v", view.Start)
	}
	if view.Start.LatText != "43.263000" {
		t.Errorf("lat text = %q", view.Start.LatText)
	}
}

func TestMapClickMissingFields(t *testing.T) {
	app, deps := testApp()
	s := deps.Sessions.Create()

	status, _ := postJSON(t, app,
		fmt.Sprintf("/v1/sessions/%s/map-click", s.ID),
		`{"lat": 43.263}`)
	if status != 400 {
		t.Errorf("status = %d", status)
	}
}

func TestTextEntryInvalidKeepsText(t *testing.T) {
	app, deps := testApp()
	s := deps.Sessions.Create()

	status, view := postJSON(t, app,
		fmt.Sprintf("/v1/sessions/%s/endpoints/start/text", s.ID),
		`{"latText": "91", "lonText": "0"}`)

	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	if view.Start.Lat != nil {
		t.Error("out-of-range latitude should not produce a coordinate")
	}
	if view.Start.LatText != "91" {
		t.Errorf("lat text = %q", view.Start.LatText)
	}
}

func TestPlaceSearchEmptyQuery(t *testing.T) {
	app, deps := testApp()
	s := deps.Sessions.Create()

	req := httptest.NewRequest("POST",
		fmt.Sprintf("/v1/sessions/%s/endpoints/end/search", s.ID),
		bytes.NewBufferString(`{"query": "  "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out placeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Message != "Please enter a place name." {
		t.Errorf("message = %q", out.Message)
	}
}

func TestRequestRouteFlow(t *testing.T) {
	app, deps := testApp()
	s := deps.Sessions.Create()

	postJSON(t, app, fmt.Sprintf("/v1/sessions/%s/map-click", s.ID), `{"lat": 43.263, "lon": -2.935}`)
	postJSON(t, app, fmt.Sprintf("/v1/sessions/%s/map-click", s.ID), `{"lat": 43.27, "lon": -2.94}`)

	status, view := postJSON(t, app, fmt.Sprintf("/v1/sessions/%s/route", s.ID), `{}`)
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	if view.Plan.Phase != "ready" {
		t.Fatalf("phase = %q message = %q", view.Plan.Phase, view.Plan.Message)
	}
	if view.Plan.Route == nil || view.Plan.Route.DistanceKm != "1.00" {
		t.Errorf("route = %+v", view.Plan.Route)
	}
	if view.Plan.Route.CrowFliesMeters <= 0 {
		t.Error("crow-flies distance should be positive")
	}
}

func TestRequestRouteWithoutEndpoints(t *testing.T) {
	app, deps := testApp()
	s := deps.Sessions.Create()

	_, view := postJSON(t, app, fmt.Sprintf("/v1/sessions/%s/route", s.ID), `{}`)
	if view.Plan.Phase != "error" {
		t.Fatalf("phase = %q", view.Plan.Phase)
	}
	if view.Plan.Message != "Please set both a start and end location." {
		t.Errorf("message = %q", view.Plan.Message)
	}
}

func TestReportPositionThenRefresh(t *testing.T) {
	app, deps := testApp()
	s := deps.Sessions.Create()

	status, _ := postJSON(t, app,
		fmt.Sprintf("/v1/sessions/%s/location/report", s.ID),
		`{"lat": 43.263, "lon": -2.935, "accuracy": 15}`)
	if status != 202 {
		t.Fatalf("report status = %d", status)
	}

	// The reported fix is fresh, so refresh resolves without a browser round trip.
	status, view := postJSON(t, app,
		fmt.Sprintf("/v1/sessions/%s/location/refresh", s.ID), `{}`)
	if status != 200 {
		t.Fatalf("refresh status = %d", status)
	}
	if view.Location.Status != "ready" {
		t.Fatalf("location status = %q error = %q", view.Location.Status, view.Location.Error)
	}
	// The mock reverse geocoder has no name for the fix.
	if view.Start.PlaceText != "No location name found." {
		t.Errorf("defaulted start place = %q", view.Start.PlaceText)
	}
}

func TestReportPositionRejectsOutOfRange(t *testing.T) {
	app, deps := testApp()
	s := deps.Sessions.Create()

	status, _ := postJSON(t, app,
		fmt.Sprintf("/v1/sessions/%s/location/report", s.ID),
		`{"lat": 95, "lon": 0}`)
	if status != 400 {
		t.Errorf("status = %d", status)
	}
}

func TestRefreshWithoutBrowserIsUnavailable(t *testing.T) {
	app, deps := testApp()
	s := deps.Sessions.Create()

	_, view := postJSON(t, app,
		fmt.Sprintf("/v1/sessions/%s/location/refresh", s.ID), `{}`)
	if view.Location.Status != "unavailable" {
		t.Fatalf("status = %q", view.Location.Status)
	}
	if view.Location.Error != "Geolocation is not supported by this browser." {
		t.Errorf("error = %q", view.Location.Error)
	}
}

func TestHazardImageAndSubmit(t *testing.T) {
	app, deps := testApp()
	s := deps.Sessions.Create()

	// Make the location ready first.
	s.Device.ReportFix(domain.DeviceLocation{Coordinate: domain.GeoPoint{Lat: 43.263, Lon: -2.935}})
	s.Geo.Refresh(context.Background())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "pothole.jpg")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("fake-jpeg"))
	mw.Close()

	req := httptest.NewRequest("POST", fmt.Sprintf("/v1/sessions/%s/hazard/image", s.ID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("image status = %d", resp.StatusCode)
	}

	// CreateFormFile sends application/octet-stream, which the policy rejects.
	_, view := postJSON(t, app, fmt.Sprintf("/v1/sessions/%s/hazard/submit", s.ID), `{}`)
	if view.Hazard.Outcome != "failed" {
		t.Fatalf("outcome = %q", view.Hazard.Outcome)
	}
	if view.Hazard.Message != "Image type must be JPEG, PNG, or WEBP." {
		t.Errorf("message = %q", view.Hazard.Message)
	}

	// Stage a proper JPEG directly and submit again.
	s.Hazards.SelectImage(&domain.HazardImage{Filename: "ok.jpg", ContentType: "image/jpeg", Data: []byte("x")})
	_, view = postJSON(t, app, fmt.Sprintf("/v1/sessions/%s/hazard/submit", s.ID), `{}`)
	if view.Hazard.Outcome != "accepted" {
		t.Fatalf("outcome = %q message = %q", view.Hazard.Outcome, view.Hazard.Message)
	}
	if view.Hazard.ReceiptID != "h-1" {
		t.Errorf("receipt id = %q", view.Hazard.ReceiptID)
	}
}
