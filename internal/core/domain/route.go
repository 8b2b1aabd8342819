package domain

import "strconv"

// LineString is a GeoJSON LineString geometry. Coordinates are (lon, lat)
// pairs in path order, as the routing engine emits them.
type LineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// RouteGeoJSON is the GeoJSON feature wrapping a route's geometry.
type RouteGeoJSON struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   LineString     `json:"geometry"`
}

// RouteResult is a computed walking route. Immutable once received; each
// successful request replaces it wholesale.
type RouteResult struct {
	DistanceMeters  float64      `json:"distanceMeters"`
	DurationSeconds float64      `json:"durationSeconds"`
	PathNodeIDs     []int64      `json:"pathNodeIds"`
	PathEdgeIDs     []int64      `json:"pathEdgeIds"`
	RouteGeoJSON    RouteGeoJSON `json:"routeGeojson"`
}

// DistanceKm returns the distance in kilometers, formatted to 2 decimals.
func (r *RouteResult) DistanceKm() string {
	return strconv.FormatFloat(r.DistanceMeters/1000, 'f', 2, 64)
}

// DurationMinutes returns the duration in minutes, formatted to 1 decimal.
func (r *RouteResult) DurationMinutes() string {
	return strconv.FormatFloat(r.DurationSeconds/60, 'f', 1, 64)
}

// NodeIDPreview returns at most the first 10 node ids for diagnostic display.
func (r *RouteResult) NodeIDPreview() []int64 { return idPreview(r.PathNodeIDs) }

// EdgeIDPreview returns at most the first 10 edge ids for diagnostic display.
func (r *RouteResult) EdgeIDPreview() []int64 { return idPreview(r.PathEdgeIDs) }

func idPreview(ids []int64) []int64 {
	if len(ids) > 10 {
		return ids[:10]
	}
	return ids
}

// NoRouteError reports that the routing engine explicitly found no path
// between two well-formed endpoints, distinct from a transport failure.
type NoRouteError struct {
	Message string
}

func (e *NoRouteError) Error() string {
	if e.Message == "" {
		return "no route found"
	}
	return e.Message
}
