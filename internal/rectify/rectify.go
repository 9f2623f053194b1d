// Package rectify validates document quadrilaterals and maps them onto
// axis-aligned rectangles.
package rectify

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

// Rectifier bundles validation and unwarping with shared configuration.
type Rectifier struct {
	*Validator
	cfg Config
}

// New returns a Rectifier for cfg.
func New(cfg Config) (*Rectifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rectify config: %w", err)
	}
	return &Rectifier{Validator: NewValidator(cfg), cfg: cfg}, nil
}

// Unwarp maps quad onto a rectangle sized from its average side lengths.
func (r *Rectifier) Unwarp(src image.Image, quad []utils.Point) (*image.NRGBA, error) {
	if len(quad) != 4 {
		return nil, &utils.ImageProcessingError{Operation: "unwarp", Err: fmt.Errorf("need 4 corners, got %d", len(quad))}
	}
	ordered := utils.OrderCorners(quad)
	w, h := OutputSize(ordered)
	out, err := Unwarp(src, ordered, w, h, r.cfg.Workers)
	if err != nil {
		return nil, err
	}
	dumpOverlay(r.cfg.DebugDir, src, ordered, out)
	return out, nil
}
