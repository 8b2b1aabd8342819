package domain

import (
	"math"
	"strconv"
	"strings"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CoordEpsilon is the tolerance used when comparing coordinates. Float
// equality is never exact after a round trip through formatted text, so
// guards compare within this epsilon instead.
const CoordEpsilon = 1e-6

// ValidLat reports whether v is a usable latitude.
func ValidLat(v float64) bool { return v >= -90 && v <= 90 }

// ValidLon reports whether v is a usable longitude.
func ValidLon(v float64) bool { return v >= -180 && v <= 180 }

// Valid reports whether both axes are finite and in range.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return ValidLat(p.Lat) && ValidLon(p.Lon)
}

// FormatCoord renders one coordinate axis with fixed 6-decimal precision,
// the canonical text form round-tripped into editable fields.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ParseCoord parses user-entered coordinate text. It returns false for
// anything unparsable or non-finite ("NaN" and "Inf" parse but are rejected).
func ParseCoord(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// SameLocation reports whether two points are within eps on both axes.
func SameLocation(a, b GeoPoint, eps float64) bool {
	return math.Abs(a.Lat-b.Lat) < eps && math.Abs(a.Lon-b.Lon) < eps
}
