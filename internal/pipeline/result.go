package pipeline

import (
	"image"
	"time"

	"github.com/MeKo-Tech/notescan/internal/barcode"
	"github.com/MeKo-Tech/notescan/internal/exposure"
	"github.com/MeKo-Tech/notescan/internal/utils"
)

// Result is the per-frame detection record handed to the consumer.
type Result struct {
	SessionID string    `json:"session_id" yaml:"session_id"`
	Seq       uint64    `json:"seq" yaml:"seq"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Corners are in screen space (processing space when no screen is set).
	Corners []utils.Point `json:"corners" yaml:"corners"`
	// ProcessedCorners are in full-resolution rotated frame space; capture
	// hands them to the enhancer.
	ProcessedCorners []utils.Point `json:"processed_corners,omitempty" yaml:"processed_corners,omitempty"`
	Confidence       float64       `json:"confidence" yaml:"confidence"`
	Score            float64       `json:"score,omitempty" yaml:"score,omitempty"`
	Corrected        bool          `json:"corrected,omitempty" yaml:"corrected,omitempty"`
	Stable           bool          `json:"stable" yaml:"stable"`

	Brightness   float64 `json:"brightness" yaml:"brightness"`
	BlurVariance float64 `json:"blur_variance" yaml:"blur_variance"`
	Blurry       bool    `json:"blurry" yaml:"blurry"`
	BlurInfo     string  `json:"blur_info,omitempty" yaml:"blur_info,omitempty"`

	SeekerInfo  string               `json:"seeker_info" yaml:"seeker_info"`
	Seeker      exposure.State       `json:"seeker" yaml:"seeker"`
	Calibration exposure.Calibration `json:"calibration" yaml:"calibration"`

	QRInfo   string          `json:"qr_info" yaml:"qr_info"`
	QRSide   barcode.Side    `json:"qr_side,omitempty" yaml:"qr_side,omitempty"`
	QRBounds *barcode.Bounds `json:"qr_bounds,omitempty" yaml:"qr_bounds,omitempty"`

	FrameWidth  int `json:"frame_width" yaml:"frame_width"`
	FrameHeight int `json:"frame_height" yaml:"frame_height"`

	Error      string      `json:"error,omitempty" yaml:"error,omitempty"`
	DebugImage image.Image `json:"-" yaml:"-"`
}

// HasDocument reports whether the result carries a stable outline.
func (r Result) HasDocument() bool { return len(r.Corners) == 4 }

// errorResult is emitted when a frame fails.
func errorResult(sessionID string, f Frame, err error) Result {
	return Result{
		SessionID:   sessionID,
		Seq:         f.Seq,
		Timestamp:   time.Now(),
		Corners:     []utils.Point{},
		SeekerInfo:  "ERROR",
		QRInfo:      "QR:ERROR",
		Seeker:      exposure.State{Direction: exposure.Up},
		Calibration: exposure.DefaultCalibration(),
		FrameWidth:  f.Width,
		FrameHeight: f.Height,
		Error:       err.Error(),
	}
}
