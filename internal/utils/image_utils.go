package utils

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// ToNRGBA returns img as a zero-origin *image.NRGBA, copying only when needed.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// ToRGBA converts img into a drawable zero-origin *image.RGBA.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// CropImageRect crops an image to the given rectangle.
func CropImageRect(img image.Image, rect image.Rectangle) *image.NRGBA {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return imaging.New(0, 0, color.Transparent)
	}
	return imaging.Crop(img, rect)
}

// RotateClockwise rotates the image 90 degrees clockwise.
func RotateClockwise(img image.Image) *image.NRGBA { return imaging.Rotate270(img) }

// FitWithin downscales img so that its larger side is at most maxDim.
// Images already within bounds are returned as NRGBA without resampling.
func FitWithin(img image.Image, maxDim int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return ToNRGBA(img)
	}
	scale := float64(maxDim) / float64(max(w, h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	return imaging.Resize(img, nw, nh, imaging.Linear)
}

// DrawRect draws an axis-aligned rectangle outline into dst.
func DrawRect(dst draw.Image, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := range thickness {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, rect.Min.Y+t, col)
			dst.Set(x, rect.Max.Y-1-t, col)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(rect.Min.X+t, y, col)
			dst.Set(rect.Max.X-1-t, y, col)
		}
	}
}

// DrawPolygon draws connected line segments and closes the polygon.
func DrawPolygon(dst draw.Image, pts []Point, col color.Color, thickness int) {
	if len(pts) < 2 {
		return
	}
	ip := make([]image.Point, len(pts))
	for i, p := range pts {
		ip[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	for i := range ip {
		drawLine(dst, ip[i], ip[(i+1)%len(ip)], col, thickness)
	}
}

// FillCircle paints a filled disc of radius r centred on c.
func FillCircle(dst draw.Image, c Point, r int, col color.Color) {
	cx, cy := int(math.Round(c.X)), int(math.Round(c.Y))
	b := dst.Bounds()
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(b) {
				dst.Set(x, y, col)
			}
		}
	}
}

// drawLine draws a line between two points using a simple Bresenham variant.
func drawLine(dst draw.Image, a, b image.Point, col color.Color, thickness int) {
	x0, y0 := a.X, a.Y
	x1, y1 := b.X, b.Y
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		drawThickPoint(dst, x0, y0, col, thickness)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawThickPoint(dst draw.Image, x, y int, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	r := (thickness - 1) / 2
	b := dst.Bounds()
	for yy := y - r; yy <= y+r; yy++ {
		for xx := x - r; xx <= x+r; xx++ {
			if image.Pt(xx, yy).In(b) {
				dst.Set(xx, yy, col)
			}
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
