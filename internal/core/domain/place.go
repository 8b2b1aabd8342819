package domain

import "errors"

// Place is a resolved place-search result.
type Place struct {
	Coordinate GeoPoint `json:"coordinate"`
	Label      string   `json:"label"`
}

// ErrPlaceNotFound means the geocoder returned no candidates for a query.
var ErrPlaceNotFound = errors.New("no matching place found")

// ErrNoPlaceName means a reverse lookup resolved to a point with no display name.
var ErrNoPlaceName = errors.New("no location name found")
