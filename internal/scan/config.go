package scan

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/notescan/internal/rectify"
)

// EnhanceConfig tunes the three-layer compositing.
type EnhanceConfig struct {
	// Brightness estimate and exposure boost.
	BoostTarget   float64 `json:"boost_target" yaml:"boost_target"`
	BoostExponent float64 `json:"boost_exponent" yaml:"boost_exponent"`
	BoostFactor   float64 `json:"boost_factor" yaml:"boost_factor"`
	MaxBoost      float64 `json:"max_boost" yaml:"max_boost"`

	// Black ink layer.
	BlackThreshold        uint8 `json:"black_threshold" yaml:"black_threshold"`
	BlackCloseKernel      int   `json:"black_close_kernel" yaml:"black_close_kernel"`
	BlackDilateKernel     int   `json:"black_dilate_kernel" yaml:"black_dilate_kernel"`
	BlackDilateIterations int   `json:"black_dilate_iterations" yaml:"black_dilate_iterations"`

	// Colour layer.
	ColorSaturationThreshold uint8   `json:"color_saturation_threshold" yaml:"color_saturation_threshold"`
	ColorSaturationBoost     float64 `json:"color_saturation_boost" yaml:"color_saturation_boost"`

	// Main path feeding the white layer.
	Contrast        float64 `json:"contrast" yaml:"contrast"`
	SharpenSigma    float64 `json:"sharpen_sigma" yaml:"sharpen_sigma"`
	SharpenAmount   float64 `json:"sharpen_amount" yaml:"sharpen_amount"`
	SaturationBoost float64 `json:"saturation_boost" yaml:"saturation_boost"`
	FinalContrast   float64 `json:"final_contrast" yaml:"final_contrast"`
	FinalBoostShare float64 `json:"final_boost_share" yaml:"final_boost_share"`
	WhiteThreshold  uint8   `json:"white_threshold" yaml:"white_threshold"`

	// Contrast bump applied to the composite.
	ScanContrast   float64 `json:"scan_contrast" yaml:"scan_contrast"`
	ScanBrightness float64 `json:"scan_brightness" yaml:"scan_brightness"`
}

// DefaultEnhanceConfig returns the tuned compositing constants.
func DefaultEnhanceConfig() EnhanceConfig {
	return EnhanceConfig{
		BoostTarget:              230,
		BoostExponent:            1.2,
		BoostFactor:              0.2,
		MaxBoost:                 80,
		BlackThreshold:           130,
		BlackCloseKernel:         11,
		BlackDilateKernel:        13,
		BlackDilateIterations:    5,
		ColorSaturationThreshold: 40,
		ColorSaturationBoost:     2.0,
		Contrast:                 1.2,
		SharpenSigma:             1.0,
		SharpenAmount:            1.8,
		SaturationBoost:          1.5,
		FinalContrast:            1.08,
		FinalBoostShare:          0.5,
		WhiteThreshold:           200,
		ScanContrast:             1.3,
		ScanBrightness:           5,
	}
}

// IconConfig describes where the icon strip sits and how segments are scored.
type IconConfig struct {
	Segments         int     `json:"segments" yaml:"segments"`
	StripHeightRatio float64 `json:"strip_height_ratio" yaml:"strip_height_ratio"`
	MinStripHeight   int     `json:"min_strip_height" yaml:"min_strip_height"`
	StripWidthRatio  float64 `json:"strip_width_ratio" yaml:"strip_width_ratio"`
	DarkThreshold    uint8   `json:"dark_threshold" yaml:"dark_threshold"`
	SelectRatio      float64 `json:"select_ratio" yaml:"select_ratio"`

	// Horizontal strip offsets relative to the centred position.
	QRLeftShift        int     `json:"qr_left_shift" yaml:"qr_left_shift"`
	QRRightShiftRatio  float64 `json:"qr_right_shift_ratio" yaml:"qr_right_shift_ratio"`
	QRRightShift       int     `json:"qr_right_shift" yaml:"qr_right_shift"`
	NoBoundsRightShift int     `json:"no_bounds_right_shift" yaml:"no_bounds_right_shift"`
}

// DefaultIconConfig returns the layout of the printed notebook cover.
func DefaultIconConfig() IconConfig {
	return IconConfig{
		Segments:           8,
		StripHeightRatio:   0.06,
		MinStripHeight:     40,
		StripWidthRatio:    0.75,
		DarkThreshold:      100,
		SelectRatio:        0.005,
		QRLeftShift:        10,
		QRRightShiftRatio:  0.04,
		QRRightShift:       10,
		NoBoundsRightShift: 50,
	}
}

// Config controls a Scanner.
type Config struct {
	// Frame size assumed when the request does not carry one.
	DefaultFrameWidth  int `json:"default_frame_width" yaml:"default_frame_width"`
	DefaultFrameHeight int `json:"default_frame_height" yaml:"default_frame_height"`
	// RotateLandscape turns landscape photos clockwise into portrait.
	RotateLandscape bool `json:"rotate_landscape" yaml:"rotate_landscape"`

	CropRatio       float64       `json:"crop_ratio" yaml:"crop_ratio"`
	BorderRatio     float64       `json:"border_ratio" yaml:"border_ratio"`
	BottomCropRatio float64       `json:"bottom_crop_ratio" yaml:"bottom_crop_ratio"`
	DebugStrip      bool          `json:"debug_strip" yaml:"debug_strip"`
	Language        string        `json:"language" yaml:"language"`
	Workers         int           `json:"workers" yaml:"workers"`
	DebugDir        string        `json:"debug_dir" yaml:"debug_dir"`
	Enhance         EnhanceConfig `json:"enhance" yaml:"enhance"`
	Icons           IconConfig    `json:"icons" yaml:"icons"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultFrameWidth:  1280,
		DefaultFrameHeight: 720,
		RotateLandscape:    true,
		CropRatio:          0.01,
		BorderRatio:        0.015,
		BottomCropRatio:    0.08,
		Language:           "en",
		Enhance:            DefaultEnhanceConfig(),
		Icons:              DefaultIconConfig(),
	}
}

// Validate checks the configuration for impossible values.
func (c Config) Validate() error {
	var errs []error
	if c.DefaultFrameWidth <= 0 || c.DefaultFrameHeight <= 0 {
		errs = append(errs, fmt.Errorf("default frame size must be positive, got %dx%d", c.DefaultFrameWidth, c.DefaultFrameHeight))
	}
	for name, v := range map[string]float64{"crop ratio": c.CropRatio, "border ratio": c.BorderRatio, "bottom crop ratio": c.BottomCropRatio} {
		if v < 0 || v >= 0.5 {
			errs = append(errs, fmt.Errorf("%s must be in [0, 0.5), got %f", name, v))
		}
	}
	if c.Icons.Segments < 1 {
		errs = append(errs, errors.New("icon segments must be >= 1"))
	}
	if c.Icons.StripWidthRatio <= 0 || c.Icons.StripWidthRatio > 1 {
		errs = append(errs, fmt.Errorf("icon strip width ratio must be in (0, 1], got %f", c.Icons.StripWidthRatio))
	}
	if c.Enhance.BlackCloseKernel < 1 || c.Enhance.BlackDilateKernel < 1 {
		errs = append(errs, errors.New("black layer kernels must be >= 1"))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers must be non-negative"))
	}
	return errors.Join(errs...)
}

func (c Config) rectifyConfig() rectify.Config {
	rc := rectify.DefaultConfig()
	rc.Workers = c.Workers
	rc.DebugDir = c.DebugDir
	return rc
}
