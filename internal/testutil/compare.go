package testutil

import (
	"image"
	"math"
)

// MeanAbsDiff returns the mean absolute per-channel difference of two images
// on a 0..255 scale, or +Inf when their sizes differ.
func MeanAbsDiff(a, b image.Image) float64 {
	ba, bb := a.Bounds(), b.Bounds()
	if ba.Size() != bb.Size() {
		return math.Inf(1)
	}
	var sum float64
	for y := range ba.Dy() {
		for x := range ba.Dx() {
			r1, g1, b1, _ := a.At(ba.Min.X+x, ba.Min.Y+y).RGBA()
			r2, g2, b2, _ := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			sum += math.Abs(float64(r1)-float64(r2)) +
				math.Abs(float64(g1)-float64(g2)) +
				math.Abs(float64(b1)-float64(b2))
		}
	}
	n := float64(ba.Dx() * ba.Dy() * 3)
	return sum / n / 257
}
