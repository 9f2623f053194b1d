package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/notescan/internal/scan"
	"github.com/MeKo-Tech/notescan/internal/testutil"
	"github.com/MeKo-Tech/notescan/internal/utils"
)

// writePhoto stores the portrait scene and returns its path and corner flag.
// The frame size is the photo size in landscape order, so no rescale applies.
func writePhoto(t *testing.T, dir string) (string, []string) {
	t.Helper()
	sc := testutil.DefaultScene()
	path := testutil.WriteImage(t, dir, "photo.png", sc.Portrait())
	return path, []string{
		"--corners", formatPoints(sc.Corners()),
		"--frame-size", fmt.Sprintf("%dx%d", sc.Height, sc.Width),
	}
}

func TestScanCommand(t *testing.T) {
	dir := isolate(t)
	photo, flags := writePhoto(t, dir)
	outPNG := filepath.Join(dir, "out", "scan.png")
	outPDF := filepath.Join(dir, "scan.pdf")

	args := append([]string{"scan", photo, "--out", outPNG, "--pdf", outPDF}, flags...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, true, report["success"])
	assert.NotEmpty(t, report["id"])
	assert.Equal(t, outPNG, report["output"])
	assert.Len(t, report["dark_pixel_ratios"], 8)

	img, err := utils.LoadImage(outPNG)
	require.NoError(t, err)
	assert.InDelta(t, report["width"], float64(img.Bounds().Dx()), 0)
	assert.Less(t, img.Bounds().Dx(), 200)

	pages, err := scan.PageCount(outPDF)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestScanCommandTextAndYAML(t *testing.T) {
	dir := isolate(t)
	photo, flags := writePhoto(t, dir)

	out, _, err := execute(t, append([]string{"scan", photo, "--format", "text"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "photo.png:")
	assert.Contains(t, out, "light")

	out, _, err = execute(t, append([]string{"scan", photo, "--format", "yaml", "--lang", "hu"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "success: true")
	assert.Contains(t, out, "light: ")
}

func TestScanCommandFailureExitsNonZero(t *testing.T) {
	dir := isolate(t)
	photo, _ := writePhoto(t, dir)

	out, _, err := execute(t, "scan", photo, "--corners", "0,0;10,0;10,10")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errFailed))

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, false, report["success"])
	assert.Contains(t, report["error"], "exactly 4 corners required")
}

func TestScanCommandArgumentErrors(t *testing.T) {
	dir := isolate(t)
	photo, flags := writePhoto(t, dir)

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"missing corners", []string{"scan", photo}, `required flag(s) "corners"`},
		{"missing photo", append([]string{"scan", "nope.png"}, flags...), "photo not found"},
		{"bad corners", []string{"scan", photo, "--corners", "1;2"}, "--corners"},
		{"bad side", append([]string{"scan", photo, "--qr-side", "up"}, flags...), "--qr-side"},
		{"bad bounds", append([]string{"scan", photo, "--qr-bounds", "1,2"}, flags...), "--qr-bounds"},
		{"bad frame size", []string{"scan", photo, "--corners", "0,0;1,0;1,1;0,1", "--frame-size", "big"}, "--frame-size"},
		{"bad format", append([]string{"scan", photo, "--format", "csv"}, flags...), "invalid output format"},
		{"no args", []string{"scan"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBuildScanRequest(t *testing.T) {
	dir := isolate(t)
	photo, _ := writePhoto(t, dir)

	req, err := buildScanRequest(photo, "0,0;10,0;10,20;0,20", "1280x720", "left", "5,6,7,8")
	require.NoError(t, err)
	assert.Len(t, req.Corners, 4)
	assert.Equal(t, 1280, req.FrameWidth)
	assert.Equal(t, 720, req.FrameHeight)
	assert.Equal(t, "left", req.QRSide.String())
	require.NotNil(t, req.QRBounds)
	assert.InDelta(t, 7.0, req.QRBounds.Width, 1e-9)
	assert.NotEmpty(t, req.Photo)
}
