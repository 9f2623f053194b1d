package imgproc

import "math"

// Mean returns the average pixel value.
func Mean(g *Gray) float64 {
	if g.Area() == 0 {
		return 0
	}
	var sum uint64
	for _, v := range g.Pix[:g.Area()] {
		sum += uint64(v)
	}
	return float64(sum) / float64(g.Area())
}

// MinMax returns the smallest and largest pixel values.
func MinMax(g *Gray) (lo, hi uint8) {
	if g.Area() == 0 {
		return 0, 0
	}
	lo, hi = 255, 0
	for _, v := range g.Pix[:g.Area()] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// LaplacianVariance returns the variance of the 4-neighbour Laplacian, a
// standard focus measure: sharp frames have strong second derivatives.
func LaplacianVariance(g *Gray) float64 {
	w, h := g.W, g.H
	if w == 0 || h == 0 {
		return 0
	}
	var sum, sumSq float64
	for y := range h {
		up := reflect101(y-1, h) * w
		down := reflect101(y+1, h) * w
		row := y * w
		for x := range w {
			left := reflect101(x-1, w)
			right := reflect101(x+1, w)
			lap := float64(g.Pix[up+x]) + float64(g.Pix[down+x]) +
				float64(g.Pix[row+left]) + float64(g.Pix[row+right]) -
				4*float64(g.Pix[row+x])
			sum += lap
			sumSq += lap * lap
		}
	}
	n := float64(w * h)
	mean := sum / n
	return math.Max(0, sumSq/n-mean*mean)
}

// CountNonZero counts pixels different from zero.
func CountNonZero(g *Gray) int {
	n := 0
	for _, v := range g.Pix[:g.Area()] {
		if v != 0 {
			n++
		}
	}
	return n
}
