package pipeline

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/notescan/internal/imgproc"
	"github.com/MeKo-Tech/notescan/internal/utils"
)

var (
	outlineColor = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	cornerColor  = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor    = color.RGBA{R: 255, G: 238, B: 140, A: 255}
	textShadow   = color.RGBA{A: 200}
)

// renderDebug draws the mask with the candidate outline, its corners and the
// given text lines. The result does not reference the mask buffer.
func renderDebug(mask *imgproc.Gray, corners []utils.Point, text ...string) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, mask.W, mask.H))
	draw.Draw(out, out.Bounds(), mask.ToImage(), image.Point{}, draw.Src)

	if len(corners) == 4 {
		thick := max(2, min(mask.W, mask.H)/160)
		utils.DrawPolygon(out, corners, outlineColor, thick)
		for _, p := range corners {
			utils.FillCircle(out, p, thick*2, cornerColor)
		}
	}

	face := basicfont.Face7x13
	lineH := face.Metrics().Height.Ceil()
	y := lineH + 4
	for _, block := range text {
		for _, line := range strings.Split(block, "\n") {
			if line == "" {
				continue
			}
			w := font.MeasureString(face, line).Ceil()
			draw.Draw(out, image.Rect(2, y-lineH+2, 8+w, y+4), image.NewUniform(textShadow), image.Point{}, draw.Over)
			d := &font.Drawer{Dst: out, Src: image.NewUniform(textColor), Face: face, Dot: fixed.P(5, y)}
			d.DrawString(line)
			y += lineH + 2
		}
	}
	return out
}
