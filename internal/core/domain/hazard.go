package domain

import "time"

// HazardKind labels the kind of reported hazard.
type HazardKind string

const (
	HazardPothole      HazardKind = "POTHOLE"
	HazardBlocked      HazardKind = "BLOCKED"
	HazardConstruction HazardKind = "CONSTRUCTION"
	HazardOther        HazardKind = "OTHER"
)

// DefaultHazardKind is used for quick photo reports; reviewers reclassify.
const DefaultHazardKind = HazardPothole

// HazardImage is a selected image awaiting upload.
type HazardImage struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the payload size in bytes.
func (img *HazardImage) Size() int64 { return int64(len(img.Data)) }

// HazardMetadata accompanies the image in a submission.
type HazardMetadata struct {
	Lat         float64    `json:"lat"`
	Lon         float64    `json:"lon"`
	Type        HazardKind `json:"type"`
	Description string     `json:"description,omitempty"`
	CapturedAt  time.Time  `json:"capturedAt"`
}

// HazardReceipt is the intake service's acknowledgement of a submission.
type HazardReceipt struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	Type      HazardKind `json:"type"`
	CreatedAt time.Time  `json:"createdAt"`
}
