package imgproc

import (
	"image"

	"github.com/MeKo-Tech/notescan/internal/mempool"
)

// Gray is an 8-bit single channel image with a tight row stride.
type Gray struct {
	W, H int
	Pix  []uint8
}

// NewGray allocates a zeroed pooled buffer.
func NewGray(w, h int) *Gray {
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	return &Gray{W: w, H: h, Pix: mempool.GetUint8Zeroed(w * h)}
}

// Release hands the pixel buffer back to the pool. Safe to call twice.
func (g *Gray) Release() {
	if g == nil || g.Pix == nil {
		return
	}
	mempool.PutUint8(g.Pix)
	g.Pix = nil
}

// At returns the pixel at (x, y) without bounds checks beyond the slice's own.
func (g *Gray) At(x, y int) uint8 { return g.Pix[y*g.W+x] }

// Set writes the pixel at (x, y).
func (g *Gray) Set(x, y int, v uint8) { g.Pix[y*g.W+x] = v }

// Area returns W*H.
func (g *Gray) Area() int { return g.W * g.H }

// Clone returns a pooled copy.
func (g *Gray) Clone() *Gray {
	out := NewGray(g.W, g.H)
	copy(out.Pix, g.Pix)
	return out
}

// SubRect copies the rectangle r (clamped to the image) into a new buffer.
func (g *Gray) SubRect(r image.Rectangle) *Gray {
	r = r.Intersect(image.Rect(0, 0, g.W, g.H))
	out := NewGray(r.Dx(), r.Dy())
	for y := 0; y < r.Dy(); y++ {
		copy(out.Pix[y*out.W:(y+1)*out.W], g.Pix[(r.Min.Y+y)*g.W+r.Min.X:])
	}
	return out
}

// ToImage converts to a standard library image, copying the pixels.
func (g *Gray) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.W, g.H))
	copy(img.Pix, g.Pix)
	return img
}

// GrayFromPix wraps caller-owned pixels. The result must not be released.
func GrayFromPix(w, h int, pix []uint8) *Gray { return &Gray{W: w, H: h, Pix: pix} }

// luma uses the fixed-point BT.601 weights common to camera pipelines.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*4899 + uint32(g)*9617 + uint32(b)*1868 + 8192) >> 14)
}

// FromImage converts any image to grayscale. Fast paths cover the pixel
// layouts produced by decoders and by imaging.
func FromImage(img image.Image) *Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := NewGray(w, h)
	switch src := img.(type) {
	case *image.NRGBA:
		for y := range h {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := range w {
				out.Pix[y*w+x] = luma(row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.RGBA:
		for y := range h {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := range w {
				out.Pix[y*w+x] = luma(row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.Gray:
		for y := range h {
			copy(out.Pix[y*w:(y+1)*w], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	default:
		for y := range h {
			for x := range w {
				r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				out.Pix[y*w+x] = luma(uint8(r>>8), uint8(g>>8), uint8(bb>>8))
			}
		}
	}
	return out
}

func clampU8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// reflect101 maps an out-of-range coordinate into [0, n) mirroring without
// repeating the edge pixel.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
