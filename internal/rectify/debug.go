package rectify

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

var (
	overlayQuad   = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	overlayCorner = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

// Overlay returns a copy of src with quad outlined and its corners marked.
func Overlay(src image.Image, quad []utils.Point) *image.NRGBA {
	out := imaging.Clone(src)
	thick := max(2, min(out.Bounds().Dx(), out.Bounds().Dy())/200)
	utils.DrawPolygon(out, quad, overlayQuad, thick)
	for _, p := range quad {
		utils.FillCircle(out, p, thick*3, overlayCorner)
	}
	return out
}

// dumpOverlay writes the source overlay and the warped output into dir.
// Failures are logged and otherwise ignored.
func dumpOverlay(dir string, src image.Image, quad []utils.Point, warped image.Image) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("rectify debug dir", "dir", dir, "error", err)
		return
	}
	stamp := time.Now().Format("20060102-150405.000")
	files := map[string]image.Image{
		fmt.Sprintf("unwarp-%s-src.png", stamp): Overlay(src, quad),
		fmt.Sprintf("unwarp-%s-out.png", stamp): warped,
	}
	for name, img := range files {
		path := filepath.Join(dir, name)
		if err := utils.SaveImage(path, img, 0); err != nil {
			slog.Warn("rectify debug dump", "path", path, "error", err)
		}
	}
}
