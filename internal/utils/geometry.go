package utils

import "math"

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Area returns the box area.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// BoundingBox returns the axis-aligned bounding box for a set of points.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Point) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// Centroid returns the arithmetic mean of the points.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(pts))
	return Point{X: c.X / n, Y: c.Y / n}
}

// ScalePoints returns a scaled copy of points.
func ScalePoints(pts []Point, sx, sy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// OrderCorners arranges four points as top-left, top-right, bottom-right,
// bottom-left. TL has the smallest x+y, BR the largest; TR has the largest
// x-y among the rest. Ties prefer the upper point, so the result depends
// only on the point values and never on input order. Inputs that are not
// exactly four points are returned as a copy.
func OrderCorners(pts []Point) []Point {
	out := append([]Point(nil), pts...)
	if len(pts) != 4 {
		return out
	}
	rest := append([]Point(nil), pts...)
	take := func(better func(a, b Point) bool) Point {
		best := 0
		for i := 1; i < len(rest); i++ {
			if better(rest[i], rest[best]) {
				best = i
			}
		}
		p := rest[best]
		rest = append(rest[:best], rest[best+1:]...)
		return p
	}

	tl := take(func(a, b Point) bool {
		sa, sb := a.X+a.Y, b.X+b.Y
		return sa < sb || (sa == sb && a.Y < b.Y)
	})
	br := take(func(a, b Point) bool {
		sa, sb := a.X+a.Y, b.X+b.Y
		return sa > sb || (sa == sb && a.Y > b.Y)
	})
	tr := take(func(a, b Point) bool {
		da, db := a.X-a.Y, b.X-b.Y
		return da > db || (da == db && a.Y < b.Y)
	})

	out[0], out[1], out[2], out[3] = tl, tr, br, rest[0]
	return out
}

// QuadSides returns the top, right, bottom and left side lengths of an
// ordered quadrilateral.
func QuadSides(c []Point) (top, right, bottom, left float64) {
	if len(c) != 4 {
		return 0, 0, 0, 0
	}
	return Distance(c[0], c[1]), Distance(c[1], c[2]), Distance(c[2], c[3]), Distance(c[3], c[0])
}

// QuadSize returns the average width and height of an ordered quadrilateral.
func QuadSize(c []Point) (width, height float64) {
	top, right, bottom, left := QuadSides(c)
	return (top + bottom) / 2, (left + right) / 2
}
