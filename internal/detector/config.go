package detector

import (
	"errors"
	"fmt"
)

// Config holds the contour search parameters.
type Config struct {
	// Candidate filters, as fractions of the processed frame.
	MinAreaRatio      float64 `json:"min_area_ratio" yaml:"min_area_ratio"`
	MaxAreaRatio      float64 `json:"max_area_ratio" yaml:"max_area_ratio"`
	MarginRatio       float64 `json:"margin_ratio" yaml:"margin_ratio"`
	MaxPortraitAspect float64 `json:"max_portrait_aspect" yaml:"max_portrait_aspect"`

	// Polygon approximation tolerances as multiples of the perimeter,
	// tried in order until a 4-vertex fit appears.
	Epsilons []float64 `json:"epsilons" yaml:"epsilons"`

	// Mask construction.
	BinaryThreshold uint8   `json:"binary_threshold" yaml:"binary_threshold"`
	MorphKernel     int     `json:"morph_kernel" yaml:"morph_kernel"`
	BlurKernel      int     `json:"blur_kernel" yaml:"blur_kernel"`
	CannyLow        float64 `json:"canny_low" yaml:"canny_low"`
	CannyHigh       float64 `json:"canny_high" yaml:"canny_high"`
	AdaptiveBlock   int     `json:"adaptive_block" yaml:"adaptive_block"`
	AdaptiveC       float64 `json:"adaptive_c" yaml:"adaptive_c"`
	UseAdaptiveMask bool    `json:"use_adaptive_mask" yaml:"use_adaptive_mask"`

	// Frame analysis.
	BlurThreshold float64 `json:"blur_threshold" yaml:"blur_threshold"`

	Scoring ScoreConfig `json:"scoring" yaml:"scoring"`
}

// ScoreConfig holds the candidate score bonuses.
type ScoreConfig struct {
	AspectGood     float64 `json:"aspect_good" yaml:"aspect_good"`
	AspectOK       float64 `json:"aspect_ok" yaml:"aspect_ok"`
	SolidityHigh   float64 `json:"solidity_high" yaml:"solidity_high"`
	SolidityMedium float64 `json:"solidity_medium" yaml:"solidity_medium"`
	SolidityLow    float64 `json:"solidity_low" yaml:"solidity_low"`
	SizeLarge      float64 `json:"size_large" yaml:"size_large"`
	SizeMedium     float64 `json:"size_medium" yaml:"size_medium"`
	LargeDimRatio  float64 `json:"large_dim_ratio" yaml:"large_dim_ratio"`
	MediumDimRatio float64 `json:"medium_dim_ratio" yaml:"medium_dim_ratio"`
}

// DefaultConfig returns the tuned defaults for notebook covers.
func DefaultConfig() Config {
	return Config{
		MinAreaRatio:      0.1,
		MaxAreaRatio:      0.95,
		MarginRatio:       0.05,
		MaxPortraitAspect: 0.9,
		Epsilons:          []float64{0.005, 0.01, 0.02, 0.05},
		BinaryThreshold:   100,
		MorphKernel:       5,
		BlurKernel:        5,
		CannyLow:          50,
		CannyHigh:         150,
		AdaptiveBlock:     25,
		AdaptiveC:         10,
		BlurThreshold:     20,
		Scoring:           DefaultScoreConfig(),
	}
}

// DefaultScoreConfig returns the score bonuses.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		AspectGood:     30,
		AspectOK:       15,
		SolidityHigh:   25,
		SolidityMedium: 15,
		SolidityLow:    5,
		SizeLarge:      20,
		SizeMedium:     10,
		LargeDimRatio:  0.08,
		MediumDimRatio: 0.04,
	}
}

// Validate checks the configuration for impossible values.
func (c Config) Validate() error {
	var errs []error
	if c.MinAreaRatio < 0 || c.MaxAreaRatio > 1 || c.MinAreaRatio >= c.MaxAreaRatio {
		errs = append(errs, fmt.Errorf("area ratios must satisfy 0 <= min < max <= 1, got %.3f..%.3f",
			c.MinAreaRatio, c.MaxAreaRatio))
	}
	if c.MarginRatio < 0 || c.MarginRatio >= 0.5 {
		errs = append(errs, fmt.Errorf("margin ratio must be in [0, 0.5), got %.3f", c.MarginRatio))
	}
	if len(c.Epsilons) == 0 {
		errs = append(errs, errors.New("at least one epsilon is required"))
	}
	for _, e := range c.Epsilons {
		if e <= 0 {
			errs = append(errs, fmt.Errorf("epsilon must be positive, got %f", e))
		}
	}
	if c.MorphKernel < 1 || c.BlurKernel < 1 {
		errs = append(errs, errors.New("kernel sizes must be >= 1"))
	}
	if c.CannyLow < 0 || c.CannyHigh < c.CannyLow {
		errs = append(errs, fmt.Errorf("canny thresholds must satisfy 0 <= low <= high, got %.0f/%.0f",
			c.CannyLow, c.CannyHigh))
	}
	return errors.Join(errs...)
}
