package rectify

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

func TestComputeHomography_ScaleAndShift(t *testing.T) {
	src := [4]utils.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	dst := [4]utils.Point{{X: 10, Y: 20}, {X: 30, Y: 20}, {X: 30, Y: 60}, {X: 10, Y: 60}}
	h, err := ComputeHomography(src, dst)
	require.NoError(t, err)

	x, y := h.Apply(0.5, 0.5)
	assert.InDelta(t, 20, x, 1e-9)
	assert.InDelta(t, 40, y, 1e-9)
	assert.InDelta(t, 1, h[8], 1e-12)
}

func TestComputeHomography_Projective(t *testing.T) {
	src := [4]utils.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	dst := [4]utils.Point{{X: 20, Y: 0}, {X: 80, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}
	h, err := ComputeHomography(src, dst)
	require.NoError(t, err)
	for i := range src {
		x, y := h.Apply(src[i].X, src[i].Y)
		assert.InDelta(t, dst[i].X, x, 1e-6)
		assert.InDelta(t, dst[i].Y, y, 1e-6)
	}
}

func TestComputeHomography_Singular(t *testing.T) {
	src := [4]utils.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	dst := [4]utils.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	_, err := ComputeHomography(src, dst)
	assert.True(t, errors.Is(err, ErrSingular))
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 3), G: uint8(y * 2), B: 77, A: 255})
		}
	}
	return img
}

func TestUnwarp_FullFrameIsIdentity(t *testing.T) {
	src := gradient(60, 90)
	quad := []utils.Point{{X: 0, Y: 0}, {X: 60, Y: 0}, {X: 60, Y: 90}, {X: 0, Y: 90}}
	out, err := Unwarp(src, quad, 60, 90, 3)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 60, 90), out.Bounds())
	assert.Equal(t, src.Pix, out.Pix)
}

func TestUnwarp_SubRectangle(t *testing.T) {
	src := gradient(80, 100)
	quad := []utils.Point{{X: 10, Y: 20}, {X: 50, Y: 20}, {X: 50, Y: 80}, {X: 10, Y: 80}}
	out, err := Unwarp(src, quad, 40, 60, 0)
	require.NoError(t, err)
	for _, p := range []image.Point{{0, 0}, {39, 0}, {17, 33}, {39, 59}} {
		assert.Equal(t, src.NRGBAAt(p.X+10, p.Y+20), out.NRGBAAt(p.X, p.Y), "pixel %v", p)
	}
}

func TestUnwarp_OutsideSourceIsBlack(t *testing.T) {
	src := gradient(20, 20)
	quad := []utils.Point{{X: -20, Y: -20}, {X: 20, Y: -20}, {X: 20, Y: 20}, {X: -20, Y: 20}}
	out, err := Unwarp(src, quad, 40, 40, 2)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(5, 5))
	assert.Equal(t, src.NRGBAAt(5, 5), out.NRGBAAt(25, 25))
}

func TestUnwarp_Errors(t *testing.T) {
	src := gradient(10, 10)
	var ipe *utils.ImageProcessingError

	_, err := Unwarp(src, []utils.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, 10, 10, 1)
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "unwarp", ipe.Operation)

	_, err = Unwarp(src, []utils.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}, 0, 10, 1)
	require.ErrorAs(t, err, &ipe)

	_, err = Unwarp(src, []utils.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}}, 10, 10, 1)
	require.ErrorIs(t, err, ErrSingular)
}

func TestRectifier_UnwarpSizesFromSides(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DebugDir = dir
	r, err := New(cfg)
	require.NoError(t, err)

	src := gradient(120, 160)
	out, err := r.Unwarp(src, []utils.Point{{X: 100, Y: 130}, {X: 10, Y: 10}, {X: 10, Y: 130}, {X: 100, Y: 10}})
	require.NoError(t, err)
	assert.Equal(t, 90, out.Bounds().Dx())
	assert.Equal(t, 120, out.Bounds().Dy())
	assert.Equal(t, src.NRGBAAt(10, 10), out.NRGBAAt(0, 0))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, ".png", filepath.Ext(e.Name()))
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestOverlay_DoesNotMutateSource(t *testing.T) {
	src := gradient(50, 50)
	before := append([]uint8(nil), src.Pix...)
	out := Overlay(src, []utils.Point{{X: 5, Y: 5}, {X: 45, Y: 5}, {X: 45, Y: 45}, {X: 5, Y: 45}})
	assert.Equal(t, before, src.Pix)
	assert.NotEqual(t, src.Pix, out.Pix)
}
