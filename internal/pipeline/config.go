package pipeline

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/notescan/internal/barcode"
	"github.com/MeKo-Tech/notescan/internal/detector"
	"github.com/MeKo-Tech/notescan/internal/exposure"
	"github.com/MeKo-Tech/notescan/internal/rectify"
)

// Config holds configuration for a detection session and its controller.
type Config struct {
	// MaxProcessDimension bounds the larger frame side before rotation.
	MaxProcessDimension int
	// Screen is the view the corners are mapped into.
	Screen Screen
	// Debug enables the periodic debug image.
	Debug              bool
	DebugImageInterval int

	Detector   detector.Config
	Calibrator exposure.CalibratorConfig
	Seeker     exposure.SeekerConfig
	Stability  StabilityConfig
	Rectify    rectify.Config
	Barcode    barcode.Config
	Tracker    barcode.TrackerConfig

	// Controller settings.
	SkipInterval int // process every Nth offered frame
	ResultBuffer int // capacity of the drop-oldest result channel
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MaxProcessDimension: 1080,
		DebugImageInterval:  6,
		Detector:            detector.DefaultConfig(),
		Calibrator:          exposure.DefaultCalibratorConfig(),
		Seeker:              exposure.DefaultSeekerConfig(),
		Stability:           DefaultStabilityConfig(),
		Rectify:             rectify.DefaultConfig(),
		Barcode:             barcode.DefaultConfig(),
		Tracker:             barcode.DefaultTrackerConfig(),
		SkipInterval:        1,
		ResultBuffer:        8,
	}
}

// Validate checks the session settings and every component config.
func (c Config) Validate() error {
	var errs []error
	if c.MaxProcessDimension < 64 {
		errs = append(errs, fmt.Errorf("max process dimension must be >= 64, got %d", c.MaxProcessDimension))
	}
	if c.SkipInterval < 1 {
		errs = append(errs, fmt.Errorf("skip interval must be >= 1, got %d", c.SkipInterval))
	}
	if c.ResultBuffer < 1 {
		errs = append(errs, fmt.Errorf("result buffer must be >= 1, got %d", c.ResultBuffer))
	}
	if c.Debug && c.DebugImageInterval < 1 {
		errs = append(errs, errors.New("debug image interval must be >= 1"))
	}
	if err := c.Detector.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("detector: %w", err))
	}
	if err := c.Rectify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rectify: %w", err))
	}
	return errors.Join(errs...)
}

// Builder constructs a Session or Controller with fluent configuration.
type Builder struct {
	cfg     Config
	backend barcode.Backend
	id      string
}

// NewBuilder creates a new builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithScreen sets the view size corners are mapped into.
func (b *Builder) WithScreen(w, h float64) *Builder {
	b.cfg.Screen = Screen{Width: w, Height: h}
	return b
}

// WithMaxProcessDimension sets the downscale bound.
func (b *Builder) WithMaxProcessDimension(n int) *Builder {
	if n > 0 {
		b.cfg.MaxProcessDimension = n
	}
	return b
}

// WithDebug toggles the debug image.
func (b *Builder) WithDebug(enabled bool) *Builder {
	b.cfg.Debug = enabled
	return b
}

// WithSkipInterval makes the controller process every nth frame.
func (b *Builder) WithSkipInterval(n int) *Builder {
	if n > 0 {
		b.cfg.SkipInterval = n
	}
	return b
}

// WithResultBuffer sets the result channel capacity.
func (b *Builder) WithResultBuffer(n int) *Builder {
	if n > 0 {
		b.cfg.ResultBuffer = n
	}
	return b
}

// WithStability overrides the hysteresis thresholds.
func (b *Builder) WithStability(detectAfter, loseAfter int) *Builder {
	if detectAfter > 0 {
		b.cfg.Stability.DetectAfter = detectAfter
	}
	if loseAfter > 0 {
		b.cfg.Stability.LoseAfter = loseAfter
	}
	return b
}

// WithBarcode enables or disables the QR correlator.
func (b *Builder) WithBarcode(enabled bool) *Builder {
	b.cfg.Barcode.Enabled = enabled
	return b
}

// WithBarcodeBackend replaces the default gozxing decoder.
func (b *Builder) WithBarcodeBackend(backend barcode.Backend) *Builder {
	b.backend = backend
	return b
}

// WithSessionID fixes the session ID instead of generating one.
func (b *Builder) WithSessionID(id string) *Builder {
	b.id = id
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Build creates a Session.
func (b *Builder) Build() (*Session, error) {
	return newSession(b.cfg, b.backend, b.id)
}

// BuildController creates a Controller around a new Session. scanner may be
// nil when capture is not used.
func (b *Builder) BuildController(scanner Scanner) (*Controller, error) {
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	return NewController(s, scanner), nil
}
