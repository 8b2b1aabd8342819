package domain

import (
	"math"
	"testing"
)

func TestFormatParseRoundTrip(t *testing.T) {
	values := []float64{0, 48.858844, -33.868819, 90, -90, 180, -180, 0.0000004}
	for _, v := range values {
		got, ok := ParseCoord(FormatCoord(v))
		if !ok {
			t.Fatalf("ParseCoord(%q) rejected", FormatCoord(v))
		}
		if math.Abs(got-v) >= CoordEpsilon {
			t.Errorf("round trip of %v drifted to %v", v, got)
		}
	}
}

func TestParseCoordRejectsNonFinite(t *testing.T) {
	for _, s := range []string{"abc", "", "NaN", "Inf", "-Inf", "1.2.3"} {
		if _, ok := ParseCoord(s); ok {
			t.Errorf("ParseCoord(%q) accepted", s)
		}
	}
}

func TestParseCoordTrimsSpace(t *testing.T) {
	v, ok := ParseCoord("  48.8588  ")
	if !ok || v != 48.8588 {
		t.Errorf("got %v, %v", v, ok)
	}
}

func TestValidRanges(t *testing.T) {
	cases := []struct {
		p    GeoPoint
		want bool
	}{
		{GeoPoint{0, 0}, true},
		{GeoPoint{90, 180}, true},
		{GeoPoint{-90, -180}, true},
		{GeoPoint{90.000001, 0}, false},
		{GeoPoint{0, -180.000001}, false},
		{GeoPoint{math.NaN(), 0}, false},
		{GeoPoint{0, math.Inf(1)}, false},
	}
	for _, c := range cases {
		if got := c.p.Valid(); got != c.want {
			t.Errorf("Valid(%+v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestSameLocation(t *testing.T) {
	a := GeoPoint{48.858844, 2.294351}
	if !SameLocation(a, GeoPoint{48.8588441, 2.2943511}, CoordEpsilon) {
		t.Error("points within epsilon should match")
	}
	if SameLocation(a, GeoPoint{48.85885, 2.294351}, CoordEpsilon) {
		t.Error("points beyond epsilon should not match")
	}
}
