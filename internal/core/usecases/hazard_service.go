package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/groundtruth/walkroute/internal/core/domain"
	"github.com/groundtruth/walkroute/internal/core/ports"
)

// MaxImageBytes caps hazard photo uploads.
const MaxImageBytes = 10 << 20

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// LocationSource supplies the device fix a hazard report is pinned to.
type LocationSource interface {
	Current() (domain.DeviceLocation, bool)
}

// SubmitOutcomeKind tags the result of the last submit attempt.
type SubmitOutcomeKind string

const (
	SubmitNone     SubmitOutcomeKind = "none"
	SubmitAccepted SubmitOutcomeKind = "accepted"
	SubmitFailed   SubmitOutcomeKind = "failed"
)

// SubmitOutcome is the tagged submit result. Receipt and Message never
// coexist.
type SubmitOutcome struct {
	Kind    SubmitOutcomeKind
	Receipt *domain.HazardReceipt
	Message string
}

// HazardSnapshot is a consistent copy of the hazard workflow state.
type HazardSnapshot struct {
	SelectedFile string
	SelectedSize int64
	Uploading    bool
	Outcome      SubmitOutcome
}

// HazardService runs the hazard photo submission workflow: local policy
// checks, then a multipart upload through the intake port.
type HazardService struct {
	intake   ports.HazardIntake
	location LocationSource
	events   ports.EventPublisher
	now      func() time.Time

	mu        sync.Mutex
	selected  *domain.HazardImage
	uploading bool
	outcome   SubmitOutcome
}

func NewHazardService(intake ports.HazardIntake, location LocationSource, events ports.EventPublisher) *HazardService {
	return &HazardService{
		intake:   intake,
		location: location,
		events:   events,
		now:      time.Now,
		outcome:  SubmitOutcome{Kind: SubmitNone},
	}
}

// SelectImage stages an image for upload and resets any previous outcome.
func (h *HazardService) SelectImage(img *domain.HazardImage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selected = img
	h.outcome = SubmitOutcome{Kind: SubmitNone}
}

// Submit validates the staged image against the upload policy and submits
// it pinned to the current device fix. The checks run in a fixed order so
// the user always sees the most fundamental problem first.
func (h *HazardService) Submit(ctx context.Context) {
	h.mu.Lock()

	loc, ok := h.location.Current()
	if !ok {
		h.outcome = SubmitOutcome{Kind: SubmitFailed, Message: "Location is unavailable. Please refresh location and try again."}
		h.mu.Unlock()
		return
	}
	if h.selected == nil {
		h.outcome = SubmitOutcome{Kind: SubmitFailed, Message: "Please select an image to upload."}
		h.mu.Unlock()
		return
	}
	if _, allowed := allowedImageTypes[h.selected.ContentType]; !allowed {
		h.outcome = SubmitOutcome{Kind: SubmitFailed, Message: "Image type must be JPEG, PNG, or WEBP."}
		h.mu.Unlock()
		return
	}
	if h.selected.Size() > MaxImageBytes {
		h.outcome = SubmitOutcome{Kind: SubmitFailed, Message: "Image must be 10MB or smaller."}
		h.mu.Unlock()
		return
	}

	img := h.selected
	meta := domain.HazardMetadata{
		Lat:        loc.Coordinate.Lat,
		Lon:        loc.Coordinate.Lon,
		Type:       domain.DefaultHazardKind,
		CapturedAt: h.now().UTC(),
	}
	h.uploading = true
	h.outcome = SubmitOutcome{Kind: SubmitNone}
	h.mu.Unlock()

	receipt, err := h.intake.Submit(ctx, img, meta)

	if err == nil && h.events != nil {
		if pubErr := h.events.PublishHazardReceipt(ctx, receipt); pubErr != nil {
			slog.Warn("hazard receipt event publish failed", "error", pubErr)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.uploading = false
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "Upload failed."
		}
		h.outcome = SubmitOutcome{Kind: SubmitFailed, Message: msg}
		return
	}
	h.selected = nil
	h.outcome = SubmitOutcome{Kind: SubmitAccepted, Receipt: receipt}
}

// Snapshot returns the current hazard workflow state.
func (h *HazardService) Snapshot() HazardSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	snap := HazardSnapshot{Uploading: h.uploading, Outcome: h.outcome}
	if h.selected != nil {
		snap.SelectedFile = h.selected.Filename
		snap.SelectedSize = h.selected.Size()
	}
	return snap
}
