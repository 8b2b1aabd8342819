package http

import (
	"encoding/json"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/groundtruth/walkroute/internal/core/domain"
	"github.com/groundtruth/walkroute/internal/core/usecases"
)

var validate = validator.New()

// pushState broadcasts the session state to websocket watchers.
func pushState(s *Session) {
	view := buildStateView(s)
	if payload, err := json.Marshal(view); err == nil {
		s.broadcast(payload)
	}
}

// parseSlot maps the :slot path parameter onto an endpoint slot.
func parseSlot(c *fiber.Ctx) (usecases.Slot, bool) {
	switch c.Params("slot") {
	case "start":
		return usecases.SlotStart, true
	case "end":
		return usecases.SlotEnd, true
	}
	return 0, false
}

// CreateSessionHandler starts a new planning session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := deps.Sessions.Create()
		return c.Status(fiber.StatusCreated).JSON(buildStateView(s))
	}
}

// GetStateHandler returns the full session state.
func GetStateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}
		return c.JSON(buildStateView(s))
	}
}

type mapClickRequest struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lon *float64 `json:"lon" validate:"required"`
}

// MapClickHandler applies one click of the start/end/reset cycle.
func MapClickHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}

		var req mapClickRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if err := validate.Struct(&req); err != nil {
			return errBadRequest(c, "lat and lon are required")
		}

		s.Planner.SetFromMapClick(domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon})
		pushState(s)
		return c.JSON(buildStateView(s))
	}
}

type textEntryRequest struct {
	LatText string `json:"latText"`
	LonText string `json:"lonText"`
}

// TextEntryHandler records edited coordinate text for one endpoint.
func TextEntryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}
		slot, ok := parseSlot(c)
		if !ok {
			return errBadRequest(c, "slot must be start or end")
		}

		var req textEntryRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		s.Planner.SetFromTextEntry(slot, req.LatText, req.LonText)
		pushState(s)
		return c.JSON(buildStateView(s))
	}
}

type placeSearchRequest struct {
	Query string `json:"query"`
}

type placeSearchResponse struct {
	Message string    `json:"message,omitempty"`
	State   StateView `json:"state"`
}

// PlaceSearchHandler resolves a free-text place for one endpoint. Empty
// and failed queries come back with a message; the planner decides which.
func PlaceSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}
		slot, ok := parseSlot(c)
		if !ok {
			return errBadRequest(c, "slot must be start or end")
		}

		var req placeSearchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		msg := s.Planner.SearchPlace(c.UserContext(), slot, req.Query)
		pushState(s)
		return c.JSON(placeSearchResponse{Message: msg, State: buildStateView(s)})
	}
}

// RequestRouteHandler runs the route workflow for the session's endpoints.
func RequestRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}

		s.Planner.RequestRoute(c.UserContext())
		pushState(s)
		return c.JSON(buildStateView(s))
	}
}

// ClearHandler resets both endpoints and any displayed route.
func ClearHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}

		s.Planner.ClearAll()
		pushState(s)
		return c.JSON(buildStateView(s))
	}
}

// RefreshLocationHandler requests a fresh device fix and waits for it.
func RefreshLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}

		s.Geo.Refresh(c.UserContext())
		pushState(s)
		return c.JSON(buildStateView(s))
	}
}

type positionReportRequest struct {
	Lat      *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon      *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	Accuracy float64  `json:"accuracy" validate:"gte=0"`
}

// ReportPositionHandler accepts a device fix pushed by the browser.
func ReportPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}

		var req positionReportRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if err := validate.Struct(&req); err != nil {
			return errBadRequest(c, "lat and lon must be valid coordinates")
		}

		s.Device.ReportFix(domain.DeviceLocation{
			Coordinate:     domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon},
			AccuracyMeters: req.Accuracy,
		})
		return c.SendStatus(fiber.StatusAccepted)
	}
}

type positionErrorRequest struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ReportPositionErrorHandler accepts a failed device fix from the browser.
func ReportPositionErrorHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}

		var req positionErrorRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		s.Device.ReportError(req.Code, req.Message)
		return c.SendStatus(fiber.StatusAccepted)
	}
}

// SelectImageHandler stages a hazard image from a multipart form.
func SelectImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}

		header, err := c.FormFile("image")
		if err != nil {
			return errBadRequest(c, "image file is required")
		}
		file, err := header.Open()
		if err != nil {
			return errInternal(c, "failed to open uploaded file")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return errInternal(c, "failed to read uploaded file")
		}

		s.Hazards.SelectImage(&domain.HazardImage{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		pushState(s)
		return c.JSON(buildStateView(s))
	}
}

// SubmitHazardHandler runs the hazard submission workflow.
func SubmitHazardHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("id"))
		if !ok {
			return errNotFound(c, "session not found")
		}

		s.Hazards.Submit(c.UserContext())
		pushState(s)
		return c.JSON(buildStateView(s))
	}
}
