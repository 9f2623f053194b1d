package testutil

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

var (
	// Background is the dark desk behind the notebook.
	Background = color.NRGBA{R: 35, G: 32, B: 30, A: 255}
	// Paper is the notebook cover.
	Paper = color.NRGBA{R: 225, G: 222, B: 215, A: 255}
	// Ink is used for labels and marks.
	Ink = color.NRGBA{R: 10, G: 10, B: 10, A: 255}
)

// SceneConfig describes a synthetic notebook photographed from above.
type SceneConfig struct {
	// Width and Height are the portrait (display) dimensions.
	Width, Height int
	// Document is the cover rectangle in portrait coordinates.
	Document   image.Rectangle
	Background color.Color
	Paper      color.Color
	// Label is drawn near the top of the cover when non-empty.
	Label string
}

// DefaultScene returns a 360x640 portrait view with a 5:3 cover in the middle.
func DefaultScene() SceneConfig {
	return SceneConfig{
		Width:      360,
		Height:     640,
		Document:   image.Rect(80, 120, 280, 453),
		Background: Background,
		Paper:      Paper,
	}
}

// Portrait renders the scene in display orientation.
func (c SceneConfig) Portrait() *image.NRGBA {
	img := Flat(c.Width, c.Height, c.Background)
	draw.Draw(img, c.Document, &image.Uniform{C: c.Paper}, image.Point{}, draw.Src)
	if c.Label != "" {
		d := &font.Drawer{Dst: img, Src: &image.Uniform{C: Ink}, Face: basicfont.Face7x13}
		w := font.MeasureString(basicfont.Face7x13, c.Label).Ceil()
		d.Dot = fixed.P(c.Document.Min.X+(c.Document.Dx()-w)/2, c.Document.Min.Y+20)
		d.DrawString(c.Label)
	}
	return img
}

// Landscape renders the scene as the camera delivers it: rotated a quarter
// turn counter-clockwise, so rotating it clockwise restores Portrait.
func (c SceneConfig) Landscape() *image.NRGBA {
	return imaging.Rotate90(c.Portrait())
}

// Corners returns the cover corners in portrait coordinates (TL, TR, BR, BL).
func (c SceneConfig) Corners() []utils.Point {
	r := c.Document
	return []utils.Point{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X - 1), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X - 1), Y: float64(r.Max.Y - 1)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y - 1)},
	}
}

// Flat returns a w x h image filled with c.
func Flat(w, h int, c color.Color) *image.NRGBA {
	return imaging.New(w, h, c)
}

// Gray returns a w x h image of uniform gray level v.
func Gray(w, h int, v uint8) *image.NRGBA {
	return Flat(w, h, color.NRGBA{R: v, G: v, B: v, A: 255})
}

// Fill paints r of img with c.
func Fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}
