package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"
	"time"
)

// PixelFormat is the memory layout of Frame.Data.
type PixelFormat int

const (
	FormatRGBA PixelFormat = iota
	FormatRGB24
	FormatBGR24
	FormatGray8
)

// BytesPerPixel returns the pixel size of f.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA:
		return 4
	case FormatRGB24, FormatBGR24:
		return 3
	default:
		return 1
	}
}

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA:
		return "rgba"
	case FormatRGB24:
		return "rgb24"
	case FormatBGR24:
		return "bgr24"
	default:
		return "gray8"
	}
}

// ParsePixelFormat parses the names produced by String.
func ParsePixelFormat(s string) (PixelFormat, error) {
	switch strings.ToLower(s) {
	case "rgba", "":
		return FormatRGBA, nil
	case "rgb24", "rgb":
		return FormatRGB24, nil
	case "bgr24", "bgr":
		return FormatBGR24, nil
	case "gray8", "gray":
		return FormatGray8, nil
	}
	return 0, fmt.Errorf("unknown pixel format %q", s)
}

// ErrBadFrame is returned for frames whose buffer does not match their size.
var ErrBadFrame = errors.New("pipeline: malformed frame")

// Frame is one camera frame in its native (landscape) orientation.
type Frame struct {
	Seq       uint64
	Width     int
	Height    int
	Format    PixelFormat
	Data      []byte
	Timestamp time.Time
}

// FrameFromImage wraps img as an RGBA frame.
func FrameFromImage(img image.Image, seq uint64) Frame {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return Frame{
		Seq:       seq,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Format:    FormatRGBA,
		Data:      rgba.Pix,
		Timestamp: time.Now(),
	}
}

// Validate checks dimensions against the buffer size.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrBadFrame, f.Width, f.Height)
	}
	if want := f.Width * f.Height * f.Format.BytesPerPixel(); len(f.Data) < want {
		return fmt.Errorf("%w: %s buffer has %d bytes, need %d", ErrBadFrame, f.Format, len(f.Data), want)
	}
	return nil
}

// Image exposes the frame as an image.Image. RGBA and Gray8 frames share the
// buffer; packed 3-byte formats are converted.
func (f Frame) Image() (image.Image, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, f.Width, f.Height)
	switch f.Format {
	case FormatRGBA:
		return &image.RGBA{Pix: f.Data, Stride: 4 * f.Width, Rect: rect}, nil
	case FormatGray8:
		return &image.Gray{Pix: f.Data, Stride: f.Width, Rect: rect}, nil
	}
	out := image.NewNRGBA(rect)
	ri, bi := 0, 2
	if f.Format == FormatBGR24 {
		ri, bi = 2, 0
	}
	for i, j := 0, 0; i < f.Width*f.Height; i, j = i+1, j+3 {
		p := out.Pix[i*4 : i*4+4]
		p[0], p[1], p[2], p[3] = f.Data[j+ri], f.Data[j+1], f.Data[j+bi], 255
	}
	return out, nil
}
