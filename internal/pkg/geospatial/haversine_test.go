package geospatial

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	// Bilbao Abando to Plaza Moyua, roughly 350 m
	d := Haversine(43.2609, -2.9269, 43.2627, -2.9305)
	if d < 300 || d > 400 {
		t.Errorf("distance = %.1f m, expected ~350 m", d)
	}

	if d := Haversine(43.26, -2.93, 43.26, -2.93); math.Abs(d) > 1e-9 {
		t.Errorf("zero distance, got %v", d)
	}
}
