package barcode

import (
	"context"
	"errors"
	"image"
	"math"
)

// ErrNotFound is returned by backends when the image holds no readable symbol.
var ErrNotFound = errors.New("barcode: not found")

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatQR
	FormatDataMatrix
	FormatAztec
	FormatCode128
	FormatEAN13
)

func (f Format) String() string {
	switch f {
	case FormatQR:
		return "qr"
	case FormatDataMatrix:
		return "datamatrix"
	case FormatAztec:
		return "aztec"
	case FormatCode128:
		return "code128"
	case FormatEAN13:
		return "ean13"
	default:
		return "unknown"
	}
}

// Options controls backend decoding behavior.
type Options struct {
	// Formats constrains the symbologies to try, in order. Empty means QR only.
	Formats []Format
	// TryHarder enables the slower exhaustive search.
	TryHarder bool
	// ROI optionally restricts decoding to a sub-rectangle of the image.
	ROI image.Rectangle
}

// Result represents a decoded barcode in the coordinates of the decoded image.
type Result struct {
	Format Format
	Value  string
	Points []image.Point
	BBox   image.Rectangle
}

// Backend is a pluggable barcode decoder.
type Backend interface {
	Decode(ctx context.Context, img image.Image, opts Options) ([]Result, error)
}

// Bounds is the axis-aligned box of a detected code.
type Bounds struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Value  string  `json:"value,omitempty" yaml:"value,omitempty"`
}

// Center returns the middle of the box.
func (b Bounds) Center() (float64, float64) {
	return b.Left + b.Width/2, b.Top + b.Height/2
}

// Scale multiplies every coordinate by s.
func (b Bounds) Scale(s float64) Bounds {
	return Bounds{Left: b.Left * s, Top: b.Top * s, Width: b.Width * s, Height: b.Height * s, Value: b.Value}
}

// Right returns the x coordinate of the right edge.
func (b Bounds) Right() float64 { return b.Left + b.Width }

func boundsFromRect(r image.Rectangle, value string) Bounds {
	return Bounds{
		Left:   float64(r.Min.X),
		Top:    float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
		Value:  value,
	}
}

func rectFromPoints(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := math.MinInt, math.MinInt
	for _, p := range pts {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
