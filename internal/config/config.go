// Package config loads the notescan configuration from files, environment
// variables and flags, and converts it into the per-package configs.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MeKo-Tech/notescan/internal/barcode"
	"github.com/MeKo-Tech/notescan/internal/detector"
	"github.com/MeKo-Tech/notescan/internal/exposure"
	"github.com/MeKo-Tech/notescan/internal/pipeline"
	"github.com/MeKo-Tech/notescan/internal/rectify"
	"github.com/MeKo-Tech/notescan/internal/scan"
)

// Config is the complete notescan configuration.
type Config struct {
	// Global settings
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Detector  DetectorConfig  `mapstructure:"detector" yaml:"detector" json:"detector"`
	Exposure  ExposureConfig  `mapstructure:"exposure" yaml:"exposure" json:"exposure"`
	Stability StabilityConfig `mapstructure:"stability" yaml:"stability" json:"stability"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Scan      ScanConfig      `mapstructure:"scan" yaml:"scan" json:"scan"`
	Barcode   BarcodeConfig   `mapstructure:"barcode" yaml:"barcode" json:"barcode"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output" json:"output"`
}

// DetectorConfig contains the contour search settings.
type DetectorConfig struct {
	MinAreaRatio      float64 `mapstructure:"min_area_ratio" yaml:"min_area_ratio" json:"min_area_ratio"`
	MaxAreaRatio      float64 `mapstructure:"max_area_ratio" yaml:"max_area_ratio" json:"max_area_ratio"`
	MarginRatio       float64 `mapstructure:"margin_ratio" yaml:"margin_ratio" json:"margin_ratio"`
	MaxPortraitAspect float64 `mapstructure:"max_portrait_aspect" yaml:"max_portrait_aspect" json:"max_portrait_aspect"`
	BinaryThreshold   int     `mapstructure:"binary_threshold" yaml:"binary_threshold" json:"binary_threshold"`
	MorphKernel       int     `mapstructure:"morph_kernel" yaml:"morph_kernel" json:"morph_kernel"`
	CannyLow          float64 `mapstructure:"canny_low" yaml:"canny_low" json:"canny_low"`
	CannyHigh         float64 `mapstructure:"canny_high" yaml:"canny_high" json:"canny_high"`
	UseAdaptiveMask   bool    `mapstructure:"use_adaptive_mask" yaml:"use_adaptive_mask" json:"use_adaptive_mask"`
	BlurThreshold     float64 `mapstructure:"blur_threshold" yaml:"blur_threshold" json:"blur_threshold"`
}

// ExposureConfig contains the calibrator and seeker settings.
type ExposureConfig struct {
	WarmupFrames    int `mapstructure:"warmup_frames" yaml:"warmup_frames" json:"warmup_frames"`
	HistorySize     int `mapstructure:"history_size" yaml:"history_size" json:"history_size"`
	MaxOffset       int `mapstructure:"max_offset" yaml:"max_offset" json:"max_offset"`
	Step            int `mapstructure:"step" yaml:"step" json:"step"`
	ChangeInterval  int `mapstructure:"change_interval" yaml:"change_interval" json:"change_interval"`
	ReactivateAfter int `mapstructure:"reactivate_after" yaml:"reactivate_after" json:"reactivate_after"`
}

// StabilityConfig contains the detection hysteresis.
type StabilityConfig struct {
	DetectAfter int `mapstructure:"detect_after" yaml:"detect_after" json:"detect_after"`
	LoseAfter   int `mapstructure:"lose_after" yaml:"lose_after" json:"lose_after"`
}

// PipelineConfig contains the per-frame pipeline and controller settings.
type PipelineConfig struct {
	MaxProcessDimension int     `mapstructure:"max_process_dimension" yaml:"max_process_dimension" json:"max_process_dimension"`
	ScreenWidth         float64 `mapstructure:"screen_width" yaml:"screen_width" json:"screen_width"`
	ScreenHeight        float64 `mapstructure:"screen_height" yaml:"screen_height" json:"screen_height"`
	Debug               bool    `mapstructure:"debug" yaml:"debug" json:"debug"`
	DebugImageInterval  int     `mapstructure:"debug_image_interval" yaml:"debug_image_interval" json:"debug_image_interval"`
	SkipInterval        int     `mapstructure:"skip_interval" yaml:"skip_interval" json:"skip_interval"`
	ResultBuffer        int     `mapstructure:"result_buffer" yaml:"result_buffer" json:"result_buffer"`
	TargetAspect        float64 `mapstructure:"target_aspect" yaml:"target_aspect" json:"target_aspect"`
	MaxAspectDiff       float64 `mapstructure:"max_aspect_diff" yaml:"max_aspect_diff" json:"max_aspect_diff"`
	MaxSideRatio        float64 `mapstructure:"max_side_ratio" yaml:"max_side_ratio" json:"max_side_ratio"`
}

// ScanConfig contains the post-capture enhancer settings.
type ScanConfig struct {
	DefaultFrameWidth  int     `mapstructure:"default_frame_width" yaml:"default_frame_width" json:"default_frame_width"`
	DefaultFrameHeight int     `mapstructure:"default_frame_height" yaml:"default_frame_height" json:"default_frame_height"`
	RotateLandscape    bool    `mapstructure:"rotate_landscape" yaml:"rotate_landscape" json:"rotate_landscape"`
	CropRatio          float64 `mapstructure:"crop_ratio" yaml:"crop_ratio" json:"crop_ratio"`
	BorderRatio        float64 `mapstructure:"border_ratio" yaml:"border_ratio" json:"border_ratio"`
	BottomCropRatio    float64 `mapstructure:"bottom_crop_ratio" yaml:"bottom_crop_ratio" json:"bottom_crop_ratio"`
	DebugStrip         bool    `mapstructure:"debug_strip" yaml:"debug_strip" json:"debug_strip"`
	DebugDir           string  `mapstructure:"debug_dir" yaml:"debug_dir" json:"debug_dir"`
	Language           string  `mapstructure:"language" yaml:"language" json:"language"`
	Workers            int     `mapstructure:"workers" yaml:"workers" json:"workers"`

	// Icon strip
	DarkThreshold      int     `mapstructure:"dark_threshold" yaml:"dark_threshold" json:"dark_threshold"`
	SelectRatio        float64 `mapstructure:"select_ratio" yaml:"select_ratio" json:"select_ratio"`
	QRLeftShift        int     `mapstructure:"qr_left_shift" yaml:"qr_left_shift" json:"qr_left_shift"`
	QRRightShiftRatio  float64 `mapstructure:"qr_right_shift_ratio" yaml:"qr_right_shift_ratio" json:"qr_right_shift_ratio"`
	QRRightShift       int     `mapstructure:"qr_right_shift" yaml:"qr_right_shift" json:"qr_right_shift"`
	NoBoundsRightShift int     `mapstructure:"no_bounds_right_shift" yaml:"no_bounds_right_shift" json:"no_bounds_right_shift"`
}

// BarcodeConfig contains the QR correlator and tracker settings.
type BarcodeConfig struct {
	Enabled            bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	MaxDimension       int           `mapstructure:"max_dimension" yaml:"max_dimension" json:"max_dimension"`
	TryHarder          bool          `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`
	TrackerDetectAfter int           `mapstructure:"tracker_detect_after" yaml:"tracker_detect_after" json:"tracker_detect_after"`
	TrackerClearAfter  int           `mapstructure:"tracker_clear_after" yaml:"tracker_clear_after" json:"tracker_clear_after"`
	TrackerPersist     time.Duration `mapstructure:"tracker_persist" yaml:"tracker_persist" json:"tracker_persist"`
}

// OutputConfig contains result formatting settings.
type OutputConfig struct {
	Format  string `mapstructure:"format" yaml:"format" json:"format"`
	Quality int    `mapstructure:"quality" yaml:"quality" json:"quality"`
}

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
	outputFormats = []string{"json", "yaml", "text"}
)

// DefaultConfig mirrors the package defaults.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	cal := exposure.DefaultCalibratorConfig()
	seek := exposure.DefaultSeekerConfig()
	stab := pipeline.DefaultStabilityConfig()
	pipe := pipeline.DefaultConfig()
	rect := rectify.DefaultConfig()
	sc := scan.DefaultConfig()
	bc := barcode.DefaultConfig()
	tr := barcode.DefaultTrackerConfig()

	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Detector: DetectorConfig{
			MinAreaRatio:      det.MinAreaRatio,
			MaxAreaRatio:      det.MaxAreaRatio,
			MarginRatio:       det.MarginRatio,
			MaxPortraitAspect: det.MaxPortraitAspect,
			BinaryThreshold:   int(det.BinaryThreshold),
			MorphKernel:       det.MorphKernel,
			CannyLow:          det.CannyLow,
			CannyHigh:         det.CannyHigh,
			UseAdaptiveMask:   det.UseAdaptiveMask,
			BlurThreshold:     det.BlurThreshold,
		},
		Exposure: ExposureConfig{
			WarmupFrames:    cal.WarmupFrames,
			HistorySize:     cal.HistorySize,
			MaxOffset:       seek.MaxOffset,
			Step:            seek.Step,
			ChangeInterval:  seek.ChangeInterval,
			ReactivateAfter: seek.ReactivateAfter,
		},
		Stability: StabilityConfig{DetectAfter: stab.DetectAfter, LoseAfter: stab.LoseAfter},
		Pipeline: PipelineConfig{
			MaxProcessDimension: pipe.MaxProcessDimension,
			DebugImageInterval:  pipe.DebugImageInterval,
			SkipInterval:        pipe.SkipInterval,
			ResultBuffer:        pipe.ResultBuffer,
			TargetAspect:        rect.TargetAspect,
			MaxAspectDiff:       rect.MaxAspectDiff,
			MaxSideRatio:        rect.MaxSideRatio,
		},
		Scan: ScanConfig{
			DefaultFrameWidth:  sc.DefaultFrameWidth,
			DefaultFrameHeight: sc.DefaultFrameHeight,
			RotateLandscape:    sc.RotateLandscape,
			CropRatio:          sc.CropRatio,
			BorderRatio:        sc.BorderRatio,
			BottomCropRatio:    sc.BottomCropRatio,
			Language:           sc.Language,
			DarkThreshold:      int(sc.Icons.DarkThreshold),
			SelectRatio:        sc.Icons.SelectRatio,
			QRLeftShift:        sc.Icons.QRLeftShift,
			QRRightShiftRatio:  sc.Icons.QRRightShiftRatio,
			QRRightShift:       sc.Icons.QRRightShift,
			NoBoundsRightShift: sc.Icons.NoBoundsRightShift,
		},
		Barcode: BarcodeConfig{
			Enabled:            bc.Enabled,
			MaxDimension:       bc.MaxDimension,
			TryHarder:          bc.TryHarder,
			TrackerDetectAfter: tr.DetectAfter,
			TrackerClearAfter:  tr.ClearAfter,
			TrackerPersist:     tr.Persist,
		},
		Output: OutputConfig{Format: "json", Quality: 92},
	}
}

// Validate checks the global settings and every derived package config.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(logLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log level %q (want one of %v)", c.LogLevel, logLevels))
	}
	if !slices.Contains(logFormats, c.LogFormat) {
		errs = append(errs, fmt.Errorf("invalid log format %q (want one of %v)", c.LogFormat, logFormats))
	}
	if !slices.Contains(outputFormats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("invalid output format %q (want one of %v)", c.Output.Format, outputFormats))
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		errs = append(errs, fmt.Errorf("output quality must be in 1..100, got %d", c.Output.Quality))
	}
	for name, v := range map[string]int{"detector binary threshold": c.Detector.BinaryThreshold, "scan dark threshold": c.Scan.DarkThreshold} {
		if v < 0 || v > 255 {
			errs = append(errs, fmt.Errorf("%s must be in 0..255, got %d", name, v))
		}
	}
	if err := c.ToPipelineConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pipeline: %w", err))
	}
	if err := c.ToScanConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scan: %w", err))
	}
	return errors.Join(errs...)
}

// ToDetectorConfig overlays the configured values on the detector defaults.
func (c *Config) ToDetectorConfig() detector.Config {
	d := detector.DefaultConfig()
	d.MinAreaRatio = c.Detector.MinAreaRatio
	d.MaxAreaRatio = c.Detector.MaxAreaRatio
	d.MarginRatio = c.Detector.MarginRatio
	d.MaxPortraitAspect = c.Detector.MaxPortraitAspect
	d.BinaryThreshold = clampByte(c.Detector.BinaryThreshold)
	d.MorphKernel = c.Detector.MorphKernel
	d.CannyLow = c.Detector.CannyLow
	d.CannyHigh = c.Detector.CannyHigh
	d.UseAdaptiveMask = c.Detector.UseAdaptiveMask
	d.BlurThreshold = c.Detector.BlurThreshold
	return d
}

// ToPipelineConfig builds the session/controller configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	p := pipeline.DefaultConfig()
	p.MaxProcessDimension = c.Pipeline.MaxProcessDimension
	p.Screen = pipeline.Screen{Width: c.Pipeline.ScreenWidth, Height: c.Pipeline.ScreenHeight}
	p.Debug = c.Pipeline.Debug
	p.DebugImageInterval = c.Pipeline.DebugImageInterval
	p.SkipInterval = c.Pipeline.SkipInterval
	p.ResultBuffer = c.Pipeline.ResultBuffer
	p.Detector = c.ToDetectorConfig()

	p.Calibrator.WarmupFrames = c.Exposure.WarmupFrames
	p.Calibrator.HistorySize = c.Exposure.HistorySize
	p.Seeker.MaxOffset = c.Exposure.MaxOffset
	p.Seeker.Step = c.Exposure.Step
	p.Seeker.ChangeInterval = c.Exposure.ChangeInterval
	p.Seeker.ReactivateAfter = c.Exposure.ReactivateAfter

	p.Stability = pipeline.StabilityConfig{DetectAfter: c.Stability.DetectAfter, LoseAfter: c.Stability.LoseAfter}

	p.Rectify.TargetAspect = c.Pipeline.TargetAspect
	p.Rectify.MaxAspectDiff = c.Pipeline.MaxAspectDiff
	p.Rectify.MaxSideRatio = c.Pipeline.MaxSideRatio

	p.Barcode = barcode.Config{
		Enabled:      c.Barcode.Enabled,
		MaxDimension: c.Barcode.MaxDimension,
		TryHarder:    c.Barcode.TryHarder,
	}
	p.Tracker = c.ToTrackerConfig()
	return p
}

// ToTrackerConfig builds the QR anti-jitter tracker configuration.
func (c *Config) ToTrackerConfig() barcode.TrackerConfig {
	return barcode.TrackerConfig{
		DetectAfter: c.Barcode.TrackerDetectAfter,
		ClearAfter:  c.Barcode.TrackerClearAfter,
		Persist:     c.Barcode.TrackerPersist,
	}
}

// ToScanConfig builds the enhancer configuration.
func (c *Config) ToScanConfig() scan.Config {
	s := scan.DefaultConfig()
	s.DefaultFrameWidth = c.Scan.DefaultFrameWidth
	s.DefaultFrameHeight = c.Scan.DefaultFrameHeight
	s.RotateLandscape = c.Scan.RotateLandscape
	s.CropRatio = c.Scan.CropRatio
	s.BorderRatio = c.Scan.BorderRatio
	s.BottomCropRatio = c.Scan.BottomCropRatio
	s.DebugStrip = c.Scan.DebugStrip
	s.DebugDir = c.Scan.DebugDir
	s.Language = c.Scan.Language
	s.Workers = c.Scan.Workers
	s.Icons.DarkThreshold = clampByte(c.Scan.DarkThreshold)
	s.Icons.SelectRatio = c.Scan.SelectRatio
	s.Icons.QRLeftShift = c.Scan.QRLeftShift
	s.Icons.QRRightShiftRatio = c.Scan.QRRightShiftRatio
	s.Icons.QRRightShift = c.Scan.QRRightShift
	s.Icons.NoBoundsRightShift = c.Scan.NoBoundsRightShift
	return s
}

func clampByte(v int) uint8 {
	return uint8(min(max(v, 0), 255))
}
