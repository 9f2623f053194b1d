package imgproc

import "math"

// ThresholdType selects the comparison used by Threshold.
type ThresholdType int

const (
	// ThreshBinary sets pixels above the threshold to maxVal, others to 0.
	ThreshBinary ThresholdType = iota
	// ThreshBinaryInv sets pixels above the threshold to 0, others to maxVal.
	ThreshBinaryInv
)

// ConvertScaleAbs computes saturate(|src*alpha + beta|) with round-half-even.
func ConvertScaleAbs(src *Gray, alpha, beta float64) *Gray {
	var lut [256]uint8
	for i := range lut {
		lut[i] = scaleAbs(float64(i), alpha, beta)
	}
	out := NewGray(src.W, src.H)
	for i, v := range src.Pix[:src.Area()] {
		out.Pix[i] = lut[v]
	}
	return out
}

func scaleAbs(v, alpha, beta float64) uint8 {
	return clampU8(math.RoundToEven(math.Abs(v*alpha + beta)))
}

// Threshold applies a global threshold.
func Threshold(src *Gray, thresh, maxVal uint8, typ ThresholdType) *Gray {
	out := NewGray(src.W, src.H)
	for i, v := range src.Pix[:src.Area()] {
		above := v > thresh
		if above == (typ == ThreshBinary) {
			out.Pix[i] = maxVal
		}
	}
	return out
}

// Or combines masks of identical size with a bitwise OR.
func Or(a, b *Gray) *Gray {
	out := NewGray(a.W, a.H)
	n := min(a.Area(), b.Area())
	for i := range n {
		out.Pix[i] = a.Pix[i] | b.Pix[i]
	}
	return out
}

// AdaptiveThresholdMean marks pixels brighter than the mean of their
// block x block neighbourhood minus c. Borders replicate the edge pixel.
func AdaptiveThresholdMean(src *Gray, maxVal uint8, block int, c float64, typ ThresholdType) *Gray {
	if block < 3 {
		block = 3
	}
	if block%2 == 0 {
		block++
	}
	w, h := src.W, src.H
	half := block / 2
	out := NewGray(w, h)
	if w == 0 || h == 0 {
		return out
	}

	// Horizontal box sums, then vertical, over int32 scratch.
	tmp := make([]int32, w*h)
	for y := range h {
		row := src.Pix[y*w : (y+1)*w]
		var s int32
		for k := -half; k <= half; k++ {
			s += int32(row[clampIndex(k, w)])
		}
		tmp[y*w] = s
		for x := 1; x < w; x++ {
			s += int32(row[clampIndex(x+half, w)]) - int32(row[clampIndex(x-half-1, w)])
			tmp[y*w+x] = s
		}
	}
	area := float64(block * block)
	for x := range w {
		var s int32
		for k := -half; k <= half; k++ {
			s += tmp[clampIndex(k, h)*w+x]
		}
		for y := range h {
			if y > 0 {
				s += tmp[clampIndex(y+half, h)*w+x] - tmp[clampIndex(y-half-1, h)*w+x]
			}
			mean := math.RoundToEven(float64(s) / area)
			above := float64(src.Pix[y*w+x]) > mean-c
			if above == (typ == ThreshBinary) {
				out.Pix[y*w+x] = maxVal
			}
		}
	}
	return out
}
