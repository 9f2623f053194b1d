package testutil

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScene_LandscapeRoundTrip(t *testing.T) {
	sc := DefaultScene()
	land := sc.Landscape()
	assert.Equal(t, sc.Height, land.Bounds().Dx())
	assert.Equal(t, sc.Width, land.Bounds().Dy())

	p := sc.Portrait()
	// Portrait (x, y) lands at landscape (y, W-1-x).
	for _, pt := range []image.Point{{0, 0}, {100, 200}, {359, 639}} {
		assert.Equal(t, p.NRGBAAt(pt.X, pt.Y), land.NRGBAAt(pt.Y, sc.Width-1-pt.X), "point %v", pt)
	}
}

func TestScene_CornersMatchDocument(t *testing.T) {
	sc := DefaultScene()
	c := sc.Corners()
	require.Len(t, c, 4)
	p := sc.Portrait()
	for _, pt := range c {
		assert.Equal(t, Paper, p.NRGBAAt(int(pt.X), int(pt.Y)))
	}
	assert.Equal(t, Background, p.NRGBAAt(int(c[0].X)-1, int(c[0].Y)))
}

func TestRenderQR(t *testing.T) {
	img := RenderQR(t, "notescan", 120)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
	// Quiet zone is white.
	assert.Equal(t, uint8(255), img.NRGBAAt(0, 0).R)
}

func TestMeanAbsDiff(t *testing.T) {
	a := Gray(10, 10, 100)
	b := Gray(10, 10, 110)
	assert.InDelta(t, 0, MeanAbsDiff(a, a), 1e-9)
	assert.InDelta(t, 10, MeanAbsDiff(a, b), 1e-6)
	assert.True(t, MeanAbsDiff(a, Gray(5, 5, 0)) > 1e9)
}

func TestWriteImage(t *testing.T) {
	dir := t.TempDir()
	path := WriteImage(t, dir, "flat.png", Gray(4, 4, 7))
	assert.True(t, FileExists(path))
}
