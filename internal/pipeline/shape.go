package pipeline

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

// ShapeReport is the display-side verdict on an outline.
type ShapeReport struct {
	Good            bool    `json:"good" yaml:"good"`
	Message         string  `json:"message" yaml:"message"`
	HorizontalRatio float64 `json:"horizontal_ratio" yaml:"horizontal_ratio"`
	VerticalRatio   float64 `json:"vertical_ratio" yaml:"vertical_ratio"`
	Aspect          float64 `json:"aspect" yaml:"aspect"`
}

// CheckShape reports whether ordered screen corners look like an upright
// rectangle: opposite sides within 1.5x of each other and a mean
// horizontal/vertical side ratio above 1.3.
func CheckShape(c []utils.Point) ShapeReport {
	if len(c) != 4 {
		return ShapeReport{Message: "Shape:⚠️ need 4 corners"}
	}
	top, right, bottom, left := utils.QuadSides(c)
	r := ShapeReport{
		HorizontalRatio: math.Max(top, bottom) / math.Min(top, bottom),
		VerticalRatio:   math.Max(left, right) / math.Min(left, right),
		Aspect:          ((top + bottom) / 2) / ((left + right) / 2),
	}
	sidesGood := r.HorizontalRatio < 1.5 && r.VerticalRatio < 1.5
	switch {
	case sidesGood && r.Aspect > 1.3:
		r.Good = true
		r.Message = fmt.Sprintf("Shape:✓ upright rectangle (%.2f)", r.Aspect)
	case sidesGood:
		r.Message = fmt.Sprintf("Shape:⚠️ rectangle but bad angle (%.2f)", r.Aspect)
	default:
		r.Message = fmt.Sprintf("Shape:⚠️ not rectangle (H:%.1f, V:%.1f)", r.HorizontalRatio, r.VerticalRatio)
	}
	return r
}
