package rectify

import (
	"math"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

// Verdict describes what Validate did with a quadrilateral.
type Verdict int

const (
	// Invalid means the input was degenerate and carries no document.
	Invalid Verdict = iota
	// Accepted means the corners passed through unchanged.
	Accepted
	// Corrected means the corners were replaced by a synthetic rectangle.
	Corrected
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Corrected:
		return "corrected"
	default:
		return "invalid"
	}
}

// Measurement holds the geometry Validate derives from a quad.
type Measurement struct {
	Width, Height   float64
	Aspect          float64
	AspectDiff      float64
	HorizontalRatio float64
	VerticalRatio   float64
}

// Validator checks candidate quads against the expected document shape.
type Validator struct {
	cfg Config
}

// NewValidator returns a validator; an invalid config falls back to defaults.
func NewValidator(cfg Config) *Validator {
	if cfg.Validate() != nil {
		cfg = DefaultConfig()
	}
	return &Validator{cfg: cfg}
}

// Measure computes side averages, aspect and skew ratios of an ordered quad.
func (v *Validator) Measure(c []utils.Point) Measurement {
	top, right, bottom, left := utils.QuadSides(c)
	m := Measurement{
		Width:  (top + bottom) / 2,
		Height: (left + right) / 2,
	}
	if m.Width > 0 {
		m.Aspect = m.Height / m.Width
		m.AspectDiff = math.Abs(m.Aspect - v.cfg.TargetAspect)
	}
	m.HorizontalRatio = sideRatio(top, bottom)
	m.VerticalRatio = sideRatio(left, right)
	return m
}

func sideRatio(a, b float64) float64 {
	lo, hi := min(a, b), max(a, b)
	if lo == 0 {
		return math.Inf(1)
	}
	return hi / lo
}

// Validate re-orders corners and either passes them through or replaces them
// with an axis-aligned rectangle of the target aspect. Only degenerate input
// (wrong count or a side average below MinSide) is Invalid.
func (v *Validator) Validate(corners []utils.Point) ([]utils.Point, Verdict) {
	if len(corners) != 4 {
		return nil, Invalid
	}
	ordered := utils.OrderCorners(corners)
	m := v.Measure(ordered)
	if m.Width < v.cfg.MinSide || m.Height < v.cfg.MinSide {
		return nil, Invalid
	}
	if m.AspectDiff > v.cfg.MaxAspectDiff ||
		m.HorizontalRatio > v.cfg.MaxSideRatio || m.VerticalRatio > v.cfg.MaxSideRatio {
		return v.CorrectToRectangle(ordered, m), Corrected
	}
	return ordered, Accepted
}

// CorrectToRectangle builds a rectangle centred on the quad's centroid. When the
// measured aspect is taller than the target the height binds, otherwise the width.
func (v *Validator) CorrectToRectangle(c []utils.Point, m Measurement) []utils.Point {
	w, h := m.Width, m.Height
	if h/w > v.cfg.TargetAspect {
		w = h / v.cfg.TargetAspect
	} else {
		h = w * v.cfg.TargetAspect
	}
	ctr := utils.Centroid(c)
	hw, hh := w/2, h/2
	return []utils.Point{
		{X: ctr.X - hw, Y: ctr.Y - hh},
		{X: ctr.X + hw, Y: ctr.Y - hh},
		{X: ctr.X + hw, Y: ctr.Y + hh},
		{X: ctr.X - hw, Y: ctr.Y + hh},
	}
}
