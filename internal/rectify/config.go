package rectify

import (
	"errors"
	"fmt"
)

// Config holds the perspective validation and unwarp parameters.
type Config struct {
	// TargetAspect is the expected height/width ratio of the document.
	TargetAspect float64 `json:"target_aspect" yaml:"target_aspect"`
	// MaxAspectDiff is the tolerated absolute deviation from TargetAspect.
	MaxAspectDiff float64 `json:"max_aspect_diff" yaml:"max_aspect_diff"`
	// MaxSideRatio bounds the longer/shorter ratio of opposite sides.
	MaxSideRatio float64 `json:"max_side_ratio" yaml:"max_side_ratio"`
	// MinSide is the smallest average width/height considered non-degenerate.
	MinSide float64 `json:"min_side" yaml:"min_side"`
	// Workers bounds the goroutines used by Unwarp (0 = GOMAXPROCS).
	Workers int `json:"workers" yaml:"workers"`
	// DebugDir, when set, receives overlay PNGs of every unwarp.
	DebugDir string `json:"debug_dir" yaml:"debug_dir"`
}

// DefaultConfig returns the notebook defaults: a 5:3 portrait cover.
func DefaultConfig() Config {
	return Config{
		TargetAspect:  5.0 / 3.0,
		MaxAspectDiff: 1.5,
		MaxSideRatio:  5.0,
		MinSide:       1,
	}
}

// Validate checks the configuration for impossible values.
func (c Config) Validate() error {
	var errs []error
	if c.TargetAspect <= 0 {
		errs = append(errs, fmt.Errorf("target aspect must be positive, got %f", c.TargetAspect))
	}
	if c.MaxAspectDiff < 0 {
		errs = append(errs, errors.New("max aspect diff must be non-negative"))
	}
	if c.MaxSideRatio < 1 {
		errs = append(errs, fmt.Errorf("max side ratio must be >= 1, got %f", c.MaxSideRatio))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers must be non-negative"))
	}
	return errors.Join(errs...)
}
