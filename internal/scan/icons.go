package scan

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/MeKo-Tech/notescan/internal/barcode"
	"github.com/MeKo-Tech/notescan/internal/imgproc"
	"github.com/MeKo-Tech/notescan/internal/utils"
)

// StripLayout is the icon row of a page: the whole band and its segments.
// Rectangles may extend past the page on very small inputs; classification
// clips them.
type StripLayout struct {
	Strip    image.Rectangle
	Segments []image.Rectangle
}

// Layout places the icon strip at the bottom of a w x h page. The strip is
// centred and then nudged away from the QR code side; hasBounds reports
// whether the QR position is known beyond its side.
func (c IconConfig) Layout(w, h int, side barcode.Side, hasBounds bool) StripLayout {
	stripH := max(c.MinStripHeight, int(math.Round(float64(h)*c.StripHeightRatio)))
	stripW := int(math.Floor(float64(w) * c.StripWidthRatio))
	left := (w - stripW) / 2
	switch {
	case side == barcode.SideLeft:
		left += c.QRLeftShift
	case hasBounds:
		left -= int(math.Round(float64(w)*c.QRRightShiftRatio)) + c.QRRightShift
	default:
		left -= c.NoBoundsRightShift
	}
	top := h - stripH
	return StripLayout{
		Strip:    image.Rect(left, top, left+stripW, h),
		Segments: splitSegments(image.Rect(left, top, left+stripW, h), c.Segments),
	}
}

// splitSegments cuts r into n equal columns; the last absorbs the remainder.
func splitSegments(r image.Rectangle, n int) []image.Rectangle {
	n = max(n, 1)
	segW := r.Dx() / n
	out := make([]image.Rectangle, n)
	for i := range out {
		x0 := r.Min.X + i*segW
		x1 := x0 + segW
		if i == n-1 {
			x1 = r.Max.X
		}
		out[i] = image.Rect(x0, r.Min.Y, x1, r.Max.Y)
	}
	return out
}

// Classify scores every segment of layout on img. A segment is selected when
// its share of dark pixels reaches SelectRatio.
func (c IconConfig) Classify(img image.Image, layout StripLayout) (selected []int, ratios []float64) {
	gray := imgproc.FromImage(img)
	defer gray.Release()

	b := img.Bounds()
	ratios = make([]float64, len(layout.Segments))
	selected = []int{}
	for i, seg := range layout.Segments {
		r := seg.Sub(b.Min).Intersect(image.Rect(0, 0, gray.W, gray.H))
		if r.Empty() {
			continue
		}
		ratios[i] = c.darkRatio(gray.SubRect(r))
		if ratios[i] >= c.SelectRatio {
			selected = append(selected, i)
		}
	}
	return selected, ratios
}

func (c IconConfig) darkRatio(seg *imgproc.Gray) float64 {
	defer seg.Release()
	dark := imgproc.Threshold(seg, c.DarkThreshold, 255, imgproc.ThreshBinaryInv)
	defer dark.Release()
	if dark.Area() == 0 {
		return 0
	}
	return float64(imgproc.CountNonZero(dark)) / float64(dark.Area())
}

// ClassifyStrip treats the whole of strip as the icon row.
func (c IconConfig) ClassifyStrip(strip image.Image) ([]int, []float64) {
	b := strip.Bounds()
	return c.Classify(strip, StripLayout{Strip: b, Segments: splitSegments(b, c.Segments)})
}

var stripFrameColor = color.NRGBA{R: 255, A: 255}

// drawStripFrame outlines segments 1..n-1 and their dividers. Slot 0 is
// unnamed and stays unframed.
func drawStripFrame(dst draw.Image, layout StripLayout) {
	if len(layout.Segments) < 2 {
		return
	}
	first := layout.Segments[1]
	outer := image.Rect(first.Min.X, layout.Strip.Min.Y, layout.Strip.Max.X, layout.Strip.Max.Y)
	utils.DrawRect(dst, outer, stripFrameColor, 6)
	src := image.NewUniform(stripFrameColor)
	for _, seg := range layout.Segments[2:] {
		line := image.Rect(seg.Min.X-1, outer.Min.Y, seg.Min.X+2, outer.Max.Y).Intersect(dst.Bounds())
		draw.Draw(dst, line, src, image.Point{}, draw.Src)
	}
}
