package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
)

// RenderQR encodes value as a size x size QR code with its quiet zone.
func RenderQR(t testing.TB, value string, size int) *image.NRGBA {
	t.Helper()

	bm, err := qrcode.NewQRCodeWriter().Encode(value, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	require.NoError(t, err, "failed to encode qr %q", value)

	img := image.NewNRGBA(image.Rect(0, 0, bm.GetWidth(), bm.GetHeight()))
	for y := range bm.GetHeight() {
		for x := range bm.GetWidth() {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if bm.Get(x, y) {
				c = color.NRGBA{A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// Paste draws src onto dst with its top-left corner at at.
func Paste(dst draw.Image, src image.Image, at image.Point) {
	r := image.Rectangle{Min: at, Max: at.Add(src.Bounds().Size())}
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
}
