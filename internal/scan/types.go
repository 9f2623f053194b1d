package scan

import (
	"fmt"
	"image"
	"time"

	"github.com/MeKo-Tech/notescan/internal/barcode"
	"github.com/MeKo-Tech/notescan/internal/utils"
)

// Light is the coarse brightness class of a scanned page.
type Light int

const (
	Night Light = iota
	Normal
	Day
)

func (l Light) String() string {
	switch l {
	case Day:
		return "day"
	case Normal:
		return "normal"
	default:
		return "night"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Light) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText accepts "day", "normal" and "night".
func (l *Light) UnmarshalText(b []byte) error {
	switch string(b) {
	case "day":
		*l = Day
	case "normal":
		*l = Normal
	case "night":
		*l = Night
	default:
		return fmt.Errorf("unknown light class %q", b)
	}
	return nil
}

// Request is one capture: the photo, the last stable corners in
// full-resolution rotated frame space, and optional QR metadata.
type Request struct {
	// Photo holds encoded bytes. Ignored when Image is set.
	Photo []byte
	Image image.Image

	Corners  []utils.Point
	QRSide   barcode.Side
	QRBounds *barcode.Bounds

	// Frame dimensions in native (landscape) orientation; zero means default.
	FrameWidth  int
	FrameHeight int
}

// qrPositioned reports whether the QR offset can be derived from its
// bounds: both the bounds and the frame they were measured in are known.
func (r Request) qrPositioned() bool {
	return r.QRBounds != nil && r.FrameWidth > 0 && r.FrameHeight > 0
}

// Result is the outcome of a scan. On failure only ID, Success, Error and
// Duration are set.
type Result struct {
	ID              string        `json:"id" yaml:"id"`
	Success         bool          `json:"success" yaml:"success"`
	Image           *image.NRGBA  `json:"-" yaml:"-"`
	Width           int           `json:"width,omitempty" yaml:"width,omitempty"`
	Height          int           `json:"height,omitempty" yaml:"height,omitempty"`
	Light           Light         `json:"light" yaml:"light"`
	Brightness      int           `json:"brightness" yaml:"brightness"`
	Boost           int           `json:"boost" yaml:"boost"`
	SelectedIcons   []int         `json:"selected_icons" yaml:"selected_icons"`
	IconNames       []string      `json:"icon_names" yaml:"icon_names"`
	DarkPixelRatios []float64     `json:"dark_pixel_ratios" yaml:"dark_pixel_ratios"`
	Error           string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration        time.Duration `json:"duration" yaml:"duration"`
}
