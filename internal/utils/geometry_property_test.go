package utils

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genPoint() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(-500, 500),
		gen.Float64Range(-500, 500),
	).Map(func(vals []interface{}) Point {
		return Point{X: vals[0].(float64), Y: vals[1].(float64)}
	})
}

// TestOrderCorners_Idempotent verifies ordering an ordered set is a no-op.
func TestOrderCorners_Idempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("OrderCorners(OrderCorners(p)) == OrderCorners(p)", prop.ForAll(
		func(pts []Point) bool {
			once := OrderCorners(pts)
			twice := OrderCorners(once)
			for i := range once {
				if once[i] != twice[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(4, genPoint()),
	))

	properties.TestingRun(t)
}

// TestOrderCorners_PermutationInvariant verifies input order does not matter.
func TestOrderCorners_PermutationInvariant(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("any rotation of the input gives the same order", prop.ForAll(
		func(pts []Point, shift int) bool {
			rotated := make([]Point, 4)
			for i := range pts {
				rotated[i] = pts[(i+shift)%4]
			}
			a, b := OrderCorners(pts), OrderCorners(rotated)
			for i := range a {
				if a[i] != b[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(4, genPoint()),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

// TestOrderCorners_ExtremaRoles verifies TL/BR carry the sum extrema.
func TestOrderCorners_ExtremaRoles(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("TL has min x+y and BR has max x+y", prop.ForAll(
		func(pts []Point) bool {
			o := OrderCorners(pts)
			for _, p := range pts {
				if p.X+p.Y < o[0].X+o[0].Y || p.X+p.Y > o[2].X+o[2].Y {
					return false
				}
			}
			return o[1].X-o[1].Y >= o[3].X-o[3].Y
		},
		gen.SliceOfN(4, genPoint()),
	))

	properties.TestingRun(t)
}
