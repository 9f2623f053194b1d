// Package exposure tracks scene brightness and searches exposure settings
// for the live detector. Both types are owned by one camera session and are
// not safe for concurrent use.
package exposure

import "math"

// CalibratorConfig controls the brightness calibrator.
type CalibratorConfig struct {
	WarmupFrames     int     `json:"warmup_frames" yaml:"warmup_frames"`
	HistorySize      int     `json:"history_size" yaml:"history_size"`
	NarrowRange      float64 `json:"narrow_range" yaml:"narrow_range"`
	DarkOffset       float64 `json:"dark_offset" yaml:"dark_offset"`
	NormalOffset     float64 `json:"normal_offset" yaml:"normal_offset"`
	DarkSceneAverage float64 `json:"dark_scene_average" yaml:"dark_scene_average"`
	LowPercentile    float64 `json:"low_percentile" yaml:"low_percentile"`
	HighPercentile   float64 `json:"high_percentile" yaml:"high_percentile"`
}

// DefaultCalibratorConfig returns the tuned defaults.
func DefaultCalibratorConfig() CalibratorConfig {
	return CalibratorConfig{
		WarmupFrames:     5,
		HistorySize:      50,
		NarrowRange:      30,
		DarkOffset:       35,
		NormalOffset:     25,
		DarkSceneAverage: 50,
		LowPercentile:    0.2,
		HighPercentile:   0.8,
	}
}

// Calibration is a snapshot of the calibrator's output.
type Calibration struct {
	DarkThreshold   float64 `json:"dark_threshold" yaml:"dark_threshold"`
	BrightThreshold float64 `json:"bright_threshold" yaml:"bright_threshold"`
	FrameCount      int     `json:"frame_count" yaml:"frame_count"`
	Range           float64 `json:"range" yaml:"range"`
	Average         float64 `json:"average" yaml:"average"`
}

// DefaultCalibration is reported when a frame fails before calibration.
func DefaultCalibration() Calibration {
	return Calibration{DarkThreshold: 80, BrightThreshold: 160}
}

// Calibrator keeps a rolling view of frame brightness and derives the
// dark/bright classification thresholds from it.
type Calibrator struct {
	cfg        CalibratorConfig
	minSeen    float64
	maxSeen    float64
	frameCount int
	history    []float64
}

// NewCalibrator creates a calibrator with empty history.
func NewCalibrator(cfg CalibratorConfig) *Calibrator {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultCalibratorConfig().HistorySize
	}
	return &Calibrator{
		cfg:     cfg,
		minSeen: math.Inf(1),
		maxSeen: math.Inf(-1),
		history: make([]float64, 0, cfg.HistorySize),
	}
}

// Observe records one frame's mean brightness and returns the thresholds.
func (c *Calibrator) Observe(brightness float64) Calibration {
	c.frameCount++
	c.minSeen = math.Min(c.minSeen, brightness)
	c.maxSeen = math.Max(c.maxSeen, brightness)
	if len(c.history) == c.cfg.HistorySize {
		copy(c.history, c.history[1:])
		c.history = c.history[:len(c.history)-1]
	}
	c.history = append(c.history, brightness)

	avg := 0.0
	for _, v := range c.history {
		avg += v
	}
	avg /= float64(len(c.history))
	rng := c.maxSeen - c.minSeen

	cal := Calibration{FrameCount: c.frameCount, Range: rng, Average: avg}
	switch {
	case c.frameCount <= c.cfg.WarmupFrames:
		cal.DarkThreshold, cal.BrightThreshold = deviceDefaults(brightness)
	case rng < c.cfg.NarrowRange:
		offset := c.cfg.NormalOffset
		if avg < c.cfg.DarkSceneAverage {
			offset = c.cfg.DarkOffset
		}
		cal.DarkThreshold = math.Max(c.minSeen, avg-offset)
		cal.BrightThreshold = math.Min(c.maxSeen, avg+offset)
	default:
		cal.DarkThreshold = c.minSeen + rng*c.cfg.LowPercentile
		cal.BrightThreshold = c.minSeen + rng*c.cfg.HighPercentile
	}
	return cal
}

// FrameCount reports how many frames have been observed.
func (c *Calibrator) FrameCount() int { return c.frameCount }

// deviceDefaults picks thresholds by coarse brightness bucket while the
// history is too short to trust.
func deviceDefaults(b float64) (dark, bright float64) {
	switch {
	case b < 30:
		return 15, 120
	case b > 50:
		return 60, 150
	default:
		return 40, 140
	}
}
