package domain

// GeoStatus is the device-geolocation lifecycle state.
type GeoStatus string

const (
	GeoIdle        GeoStatus = "idle"
	GeoLocating    GeoStatus = "locating"
	GeoReady       GeoStatus = "ready"
	GeoUnavailable GeoStatus = "unavailable"
)

// DeviceLocation is a single device position fix.
type DeviceLocation struct {
	Coordinate     GeoPoint `json:"coordinate"`
	AccuracyMeters float64  `json:"accuracy_meters"`
}

// GeoErrorKind classifies why a device fix failed.
type GeoErrorKind int

const (
	GeoErrOther GeoErrorKind = iota
	GeoErrPermissionDenied
	GeoErrPositionUnavailable
	GeoErrTimeout
	GeoErrUnsupported
)

// GeoError is a failed device fix. Kind maps onto the fixed user-facing
// messages; Message carries the platform's raw description, if any.
type GeoError struct {
	Kind    GeoErrorKind
	Message string
}

func (e *GeoError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.UserMessage()
}

// UserMessage maps the failure onto the fixed strings shown in the UI.
func (e *GeoError) UserMessage() string {
	switch e.Kind {
	case GeoErrPermissionDenied:
		return "Permission denied for location."
	case GeoErrPositionUnavailable:
		return "Location information is unavailable."
	case GeoErrTimeout:
		return "Location request timed out."
	case GeoErrUnsupported:
		return "Geolocation is not supported by this browser."
	}
	if e.Message != "" {
		return e.Message
	}
	return "Unable to retrieve location."
}
