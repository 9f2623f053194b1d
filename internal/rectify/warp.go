package rectify

import (
	"fmt"
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

// Unwarp maps the quadrilateral quad (TL, TR, BR, BL) of src onto a dstW x dstH
// rectangle whose corners are (0,0), (dstW,0), (dstW,dstH), (0,dstH). Each
// destination pixel is sampled bilinearly through the inverse transform;
// samples falling outside src are black.
func Unwarp(src image.Image, quad []utils.Point, dstW, dstH, workers int) (*image.NRGBA, error) {
	if len(quad) != 4 {
		return nil, &utils.ImageProcessingError{Operation: "unwarp", Err: fmt.Errorf("need 4 corners, got %d", len(quad))}
	}
	if dstW < 1 || dstH < 1 {
		return nil, &utils.ImageProcessingError{Operation: "unwarp", Err: fmt.Errorf("degenerate output %dx%d", dstW, dstH)}
	}
	w, h := float64(dstW), float64(dstH)
	H, err := ComputeHomography(
		[4]utils.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}},
		[4]utils.Point{quad[0], quad[1], quad[2], quad[3]},
	)
	if err != nil {
		return nil, &utils.ImageProcessingError{Operation: "unwarp", Err: err}
	}

	in := utils.ToNRGBA(src)
	out := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, dstH)
	band := (dstH + workers - 1) / workers

	var wg sync.WaitGroup
	for y0 := 0; y0 < dstH; y0 += band {
		y1 := min(y0+band, dstH)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			for y := y0; y < y1; y++ {
				row := out.Pix[y*out.Stride:]
				for x := range dstW {
					sx, sy := H.Apply(float64(x), float64(y))
					bilinear(in, sx, sy, row[x*4:x*4+4])
				}
			}
		}(y0, y1)
	}
	wg.Wait()
	return out, nil
}

// bilinear writes the interpolated pixel at (x, y) into dst (RGBA order).
func bilinear(src *image.NRGBA, x, y float64, dst []uint8) {
	const eps = 1e-6
	b := src.Rect
	if !(x >= -eps && y >= -eps && x <= float64(b.Dx()-1)+eps && y <= float64(b.Dy()-1)+eps) {
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, 255
		return
	}
	x = min(max(x, 0), float64(b.Dx()-1))
	y = min(max(y, 0), float64(b.Dy()-1))
	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, b.Dx()-1), min(y0+1, b.Dy()-1)
	fx, fy := x-float64(x0), y-float64(y0)
	p00 := src.Pix[y0*src.Stride+x0*4:]
	p10 := src.Pix[y0*src.Stride+x1*4:]
	p01 := src.Pix[y1*src.Stride+x0*4:]
	p11 := src.Pix[y1*src.Stride+x1*4:]
	for c := range 4 {
		top := float64(p00[c]) + (float64(p10[c])-float64(p00[c]))*fx
		bot := float64(p01[c]) + (float64(p11[c])-float64(p01[c]))*fx
		dst[c] = uint8(top + (bot-top)*fy + 0.5)
	}
}

// OutputSize returns the rectangle size for an ordered quad: the average of
// the top and bottom sides by the average of the left and right sides.
func OutputSize(quad []utils.Point) (int, int) {
	w, h := utils.QuadSize(quad)
	return int(math.Round(w)), int(math.Round(h))
}
