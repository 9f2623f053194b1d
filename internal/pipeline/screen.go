package pipeline

import "github.com/MeKo-Tech/notescan/internal/utils"

// Screen is the size of the view the preview is rendered into.
type Screen struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// IsZero reports whether no screen was configured.
func (s Screen) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

// MapPointToScreen maps p from a frameW x frameH image onto screen using an
// aspect-fill (cover) fit: the image is scaled until it covers the screen and
// the overflow is cropped equally on both sides. A zero screen is identity.
func MapPointToScreen(p utils.Point, frameW, frameH float64, screen Screen) utils.Point {
	if screen.IsZero() || frameW <= 0 || frameH <= 0 {
		return p
	}
	var scale, offX, offY float64
	if frameW/frameH > screen.Width/screen.Height {
		scale = screen.Height / frameH
		offX = (frameW*scale - screen.Width) / 2
	} else {
		scale = screen.Width / frameW
		offY = (frameH*scale - screen.Height) / 2
	}
	return utils.Point{X: p.X*scale - offX, Y: p.Y*scale - offY}
}

// MapToScreen maps every point of pts.
func MapToScreen(pts []utils.Point, frameW, frameH float64, screen Screen) []utils.Point {
	out := make([]utils.Point, len(pts))
	for i, p := range pts {
		out[i] = MapPointToScreen(p, frameW, frameH, screen)
	}
	return out
}
