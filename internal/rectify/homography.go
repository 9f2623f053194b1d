package rectify

import (
	"errors"
	"math"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

// ErrSingular is returned when four point pairs do not define a homography.
var ErrSingular = errors.New("rectify: singular homography")

// Homography is a row-major 3x3 projective transform with H[8] == 1.
type Homography [9]float64

// ComputeHomography returns H mapping p[i] onto q[i].
func ComputeHomography(p, q [4]utils.Point) (Homography, error) {
	// Unknowns h00..h21 with h22 = 1; two equations per correspondence:
	//   x' (h20 X + h21 Y + 1) = h00 X + h01 Y + h02
	//   y' (h20 X + h21 Y + 1) = h10 X + h11 Y + h12
	var a [8][9]float64
	for i := range 4 {
		X, Y := p[i].X, p[i].Y
		x, y := q[i].X, q[i].Y
		a[2*i] = [9]float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x, x}
		a[2*i+1] = [9]float64{0, 0, 0, X, Y, 1, -X * y, -Y * y, y}
	}
	h, ok := gaussJordan(&a)
	if !ok {
		return Homography{}, ErrSingular
	}
	return Homography{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, nil
}

// gaussJordan solves the augmented 8x9 system with partial pivoting.
func gaussJordan(a *[8][9]float64) ([8]float64, bool) {
	for col := range 8 {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return [8]float64{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		div := a[col][col]
		for c := col; c < 9; c++ {
			a[col][c] /= div
		}
		for r := range 8 {
			if r == col || a[r][col] == 0 {
				continue
			}
			f := a[r][col]
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}
	var x [8]float64
	for i := range 8 {
		x[i] = a[i][8]
	}
	return x, true
}

// Apply maps (x, y) through H. Points sent to infinity map far outside any image.
func (h Homography) Apply(x, y float64) (float64, float64) {
	den := h[6]*x + h[7]*y + h[8]
	if den == 0 {
		return -1e9, -1e9
	}
	return (h[0]*x + h[1]*y + h[2]) / den, (h[3]*x + h[4]*y + h[5]) / den
}
