package utils

import "math"

// ApproxPolygon simplifies a closed contour with the Douglas-Peucker
// algorithm. The curve is split at the vertex farthest from the first
// point so that both halves are simplified as open polylines and the
// closing edge is never lost.
func ApproxPolygon(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}

	far, farDist := 0, -1.0
	for i := 1; i < n; i++ {
		if d := Distance(pts[0], pts[i]); d > farDist {
			far, farDist = i, d
		}
	}

	// Closed sequence 0..far..n-1,0
	seq := make([]Point, 0, n+1)
	seq = append(seq, pts...)
	seq = append(seq, pts[0])

	keep := make([]bool, len(seq))
	keep[0], keep[far] = true, true
	dpSimplify(seq, 0, far, epsilon, keep)
	dpSimplify(seq, far, len(seq)-1, epsilon, keep)

	out := make([]Point, 0, 8)
	for i := 0; i < len(seq)-1; i++ {
		if keep[i] {
			out = append(out, seq[i])
		}
	}
	return removeCollinear(out, epsilon)
}

// removeCollinear drops vertices whose distance to the chord of their
// neighbours is within epsilon, which can survive the split heuristic when
// the first contour point lies mid-edge.
func removeCollinear(pts []Point, eps float64) []Point {
	changed := true
	for changed && len(pts) > 3 {
		changed = false
		for i := range pts {
			prev := pts[(i+len(pts)-1)%len(pts)]
			next := pts[(i+1)%len(pts)]
			if perpendicularDistance(pts[i], prev, next) <= eps {
				pts = append(pts[:i:i], pts[i+1:]...)
				changed = true
				break
			}
		}
	}
	return pts
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a := pts[start]
	b := pts[end]
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		dpSimplify(pts, start, index, eps, keep)
		keep[index] = true
		dpSimplify(pts, index, end, eps, keep)
	}
}

func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	return num / math.Hypot(vx, vy)
}

// PolygonArea returns the absolute shoelace area of a closed polygon.
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	s := 0.0
	for i := range pts {
		j := (i + 1) % len(pts)
		s += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(s) / 2
}

// Perimeter returns the length of a closed polygon.
func Perimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	l := 0.0
	for i := range pts {
		l += Distance(pts[i], pts[(i+1)%len(pts)])
	}
	return l
}
