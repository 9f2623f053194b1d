package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

const (
	infoMissing = "QR:✗"
	infoError   = "QR:ERROR"
)

// Config controls the QR correlator.
type Config struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// MaxDimension downscales frames before decoding (0 keeps native size).
	MaxDimension int  `json:"max_dimension" yaml:"max_dimension"`
	TryHarder    bool `json:"try_harder" yaml:"try_harder"`
}

// DefaultConfig decodes at native resolution with the fast search.
func DefaultConfig() Config {
	return Config{Enabled: true}
}

// Observation is the per-frame QR annotation.
type Observation struct {
	Found  bool
	Side   Side
	Bounds *Bounds
	Info   string
}

// Correlator decodes a code in the landscape frame and derives its side.
type Correlator struct {
	backend Backend
	cfg     Config
}

// NewCorrelator returns a correlator using backend, or the gozxing backend when nil.
func NewCorrelator(cfg Config, backend Backend) *Correlator {
	if backend == nil {
		backend = NewBackend()
	}
	return &Correlator{backend: backend, cfg: cfg}
}

// Locate decodes frame and returns the observation. Decoder failures other
// than "not found" come back as an error together with an ERROR observation.
func (c *Correlator) Locate(ctx context.Context, frame image.Image) (Observation, error) {
	if !c.cfg.Enabled {
		return Observation{Info: infoMissing}, nil
	}
	img, scale := frame, 1.0
	b := frame.Bounds()
	if c.cfg.MaxDimension > 0 && max(b.Dx(), b.Dy()) > c.cfg.MaxDimension {
		img = utils.FitWithin(frame, c.cfg.MaxDimension)
		scale = float64(b.Dx()) / float64(img.Bounds().Dx())
	}

	results, err := c.backend.Decode(ctx, img, Options{Formats: []Format{FormatQR}, TryHarder: c.cfg.TryHarder})
	if errors.Is(err, ErrNotFound) || (err == nil && len(results) == 0) {
		return Observation{Info: infoMissing}, nil
	}
	if err != nil {
		slog.Debug("qr decode failed", "error", err)
		return Observation{Info: infoError}, fmt.Errorf("qr correlator: %w", err)
	}

	r := results[0]
	bounds := boundsFromRect(r.BBox.Sub(img.Bounds().Min), NormalizeValue(r.Value)).Scale(scale)
	cx, cy := bounds.Center()
	side := SideFor(cy, float64(b.Dy()))
	return Observation{
		Found:  true,
		Side:   side,
		Bounds: &bounds,
		Info: fmt.Sprintf("QR:✓ %s @%d,%d %q", strings.ToUpper(side.String()),
			int(math.Round(cx)), int(math.Round(cy)), bounds.Value),
	}, nil
}
