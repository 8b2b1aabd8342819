package http

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/groundtruth/walkroute/internal/core/domain"
	"github.com/groundtruth/walkroute/internal/core/usecases"
	"github.com/groundtruth/walkroute/internal/pkg/geospatial"
)

// StateView is the full session state pushed to the browser after every
// command and over the websocket.
type StateView struct {
	SessionID string       `json:"sessionId"`
	Start     EndpointView `json:"start"`
	End       EndpointView `json:"end"`
	Plan      PlanView     `json:"plan"`
	Location  GeoView      `json:"location"`
	Hazard    HazardView   `json:"hazard"`
}

type EndpointView struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	LatText   string   `json:"latText"`
	LonText   string   `json:"lonText"`
	PlaceText string   `json:"placeText"`
	Searching bool     `json:"searching"`
}

type PlanView struct {
	Phase         string     `json:"phase"`
	Message       string     `json:"message,omitempty"`
	Route         *RouteView `json:"route,omitempty"`
	RouteDisabled bool       `json:"routeDisabled"`
}

type RouteView struct {
	DistanceMeters  float64             `json:"distanceMeters"`
	DistanceKm      string              `json:"distanceKm"`
	DurationMinutes string              `json:"durationMinutes"`
	CrowFliesMeters float64             `json:"crowFliesMeters"`
	PathNodePreview []int64             `json:"pathNodePreview"`
	PathEdgePreview []int64             `json:"pathEdgePreview"`
	Polyline        string              `json:"polyline"`
	Geometry        domain.RouteGeoJSON `json:"geometry"`
}

type GeoView struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Error  string `json:"error,omitempty"`
}

type HazardView struct {
	SelectedFile   string `json:"selectedFile"`
	SelectedSize   int64  `json:"selectedSize"`
	Uploading      bool   `json:"uploading"`
	Outcome        string `json:"outcome"`
	Message        string `json:"message,omitempty"`
	ReceiptID      string `json:"receiptId,omitempty"`
	ReceiptStatus  string `json:"receiptStatus,omitempty"`
	InputsDisabled bool   `json:"inputsDisabled"`
	SubmitDisabled bool   `json:"submitDisabled"`
}

// buildStateView projects the three controller snapshots into one payload.
func buildStateView(s *Session) StateView {
	plan := s.Planner.Snapshot()
	geo := s.Geo.Snapshot()
	hazard := s.Hazards.Snapshot()

	return StateView{
		SessionID: s.ID,
		Start:     endpointView(plan.Start),
		End:       endpointView(plan.End),
		Plan:      planView(plan),
		Location:  geoView(geo),
		Hazard:    hazardView(hazard, geo),
	}
}

func endpointView(slot usecases.EndpointSlot) EndpointView {
	v := EndpointView{
		LatText:   slot.LatText,
		LonText:   slot.LonText,
		PlaceText: slot.PlaceText,
		Searching: slot.Searching,
	}
	if slot.Coordinate != nil {
		lat, lon := slot.Coordinate.Lat, slot.Coordinate.Lon
		v.Lat, v.Lon = &lat, &lon
	}
	return v
}

func planView(snap usecases.PlanSnapshot) PlanView {
	v := PlanView{
		Phase:   string(snap.Status.Phase),
		Message: snap.Status.Message,
		RouteDisabled: snap.Start.Coordinate == nil || snap.End.Coordinate == nil ||
			snap.Status.Phase == usecases.PhaseFetching,
	}
	if snap.Status.Route != nil {
		v.Route = routeView(snap, snap.Status.Route)
	}
	return v
}

func routeView(snap usecases.PlanSnapshot, route *domain.RouteResult) *RouteView {
	v := &RouteView{
		DistanceMeters:  route.DistanceMeters,
		DistanceKm:      route.DistanceKm(),
		DurationMinutes: route.DurationMinutes(),
		PathNodePreview: route.NodeIDPreview(),
		PathEdgePreview: route.EdgeIDPreview(),
		Polyline:        encodePolyline(route.RouteGeoJSON.Geometry),
		Geometry:        route.RouteGeoJSON,
	}
	if snap.Start.Coordinate != nil && snap.End.Coordinate != nil {
		v.CrowFliesMeters = geospatial.Haversine(
			snap.Start.Coordinate.Lat, snap.Start.Coordinate.Lon,
			snap.End.Coordinate.Lat, snap.End.Coordinate.Lon,
		)
	}
	return v
}

// encodePolyline converts the GeoJSON (lon, lat) pairs into an encoded
// polyline, which wants (lat, lon).
func encodePolyline(line domain.LineString) string {
	if len(line.Coordinates) == 0 {
		return ""
	}
	coords := make([][]float64, 0, len(line.Coordinates))
	for _, pair := range line.Coordinates {
		if len(pair) < 2 {
			continue
		}
		coords = append(coords, []float64{pair[1], pair[0]})
	}
	return string(polyline.EncodeCoords(coords))
}

func geoView(snap usecases.GeoSnapshot) GeoView {
	v := GeoView{Status: string(snap.Status), Error: snap.Error}
	switch snap.Status {
	case domain.GeoReady:
		if snap.Location != nil {
			v.Label = fmt.Sprintf("Location: %.6f, %.6f (accuracy ~ %d m)",
				snap.Location.Coordinate.Lat,
				snap.Location.Coordinate.Lon,
				int(snap.Location.AccuracyMeters+0.5))
		}
	case domain.GeoLocating:
		v.Label = "Location: Locating..."
	case domain.GeoUnavailable:
		v.Label = "Location unavailable: " + snap.Error
	default:
		v.Label = "Location: Not requested"
	}
	return v
}

func hazardView(snap usecases.HazardSnapshot, geo usecases.GeoSnapshot) HazardView {
	v := HazardView{
		SelectedFile:   snap.SelectedFile,
		SelectedSize:   snap.SelectedSize,
		Uploading:      snap.Uploading,
		Outcome:        string(snap.Outcome.Kind),
		Message:        snap.Outcome.Message,
		InputsDisabled: snap.Uploading,
		SubmitDisabled: snap.Uploading || geo.Status != domain.GeoReady || snap.SelectedFile == "",
	}
	if snap.Outcome.Receipt != nil {
		v.ReceiptID = snap.Outcome.Receipt.ID
		v.ReceiptStatus = snap.Outcome.Receipt.Status
	}
	return v
}
