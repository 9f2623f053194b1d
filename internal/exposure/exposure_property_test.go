package exposure

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSeeker_OffsetBounded verifies the sweep never leaves [-max, max].
func TestSeeker_OffsetBounded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("offset stays within bounds for any input sequence", prop.ForAll(
		func(inputs []bool) bool {
			s := NewSeeker(DefaultSeekerConfig())
			for _, found := range inputs {
				s.Update(found)
				if o := s.State().Offset; o > 100 || o < -100 {
					return false
				}
				g := s.Gain()
				if g.Alpha < 0.7-1e-9 || g.Alpha > 1.8+1e-9 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

// TestCalibrator_ThresholdsOrdered verifies dark never exceeds bright.
func TestCalibrator_ThresholdsOrdered(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("dark <= bright", prop.ForAll(
		func(samples []float64) bool {
			c := NewCalibrator(DefaultCalibratorConfig())
			for _, s := range samples {
				cal := c.Observe(s)
				if cal.DarkThreshold > cal.BrightThreshold {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 255)),
	))

	properties.TestingRun(t)
}
