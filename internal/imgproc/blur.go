package imgproc

import (
	"math"

	"github.com/MeKo-Tech/notescan/internal/mempool"
)

// small fixed kernels used when no sigma is given, matching the binomial
// coefficients camera SDKs ship for these sizes.
var fixedGaussian = map[int][]float32{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// GaussianKernel returns a normalised 1D kernel. A non-positive ksize is
// derived from sigma; a non-positive sigma is derived from ksize.
func GaussianKernel(ksize int, sigma float64) []float32 {
	if ksize <= 0 {
		ksize = int(math.Round(sigma*6+1)) | 1
	}
	if ksize%2 == 0 {
		ksize++
	}
	if sigma <= 0 {
		if k, ok := fixedGaussian[ksize]; ok {
			return k
		}
		sigma = 0.3*(float64(ksize-1)*0.5-1) + 0.8
	}
	k := make([]float32, ksize)
	half := ksize / 2
	var sum float64
	vals := make([]float64, ksize)
	for i := range ksize {
		d := float64(i - half)
		vals[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += vals[i]
	}
	for i := range k {
		k[i] = float32(vals[i] / sum)
	}
	return k
}

// GaussianBlur smooths a gray image with a separable Gaussian.
func GaussianBlur(src *Gray, ksize int, sigma float64) *Gray {
	out := NewGray(src.W, src.H)
	convolvePlane(src.Pix, out.Pix, src.W, src.H, src.W, 1, 0, GaussianKernel(ksize, sigma))
	return out
}

// convolvePlane runs a separable convolution over one channel of an
// interleaved buffer with reflect-101 borders.
func convolvePlane(src, dst []uint8, w, h, stride, step, off int, k []float32) {
	if w == 0 || h == 0 {
		return
	}
	half := len(k) / 2
	tmp := mempool.GetFloat32(w * h)
	defer mempool.PutFloat32(tmp)

	for y := range h {
		row := src[y*stride:]
		for x := range w {
			var acc float32
			for i, kv := range k {
				xx := reflect101(x+i-half, w)
				acc += kv * float32(row[xx*step+off])
			}
			tmp[y*w+x] = acc
		}
	}
	for y := range h {
		for x := range w {
			var acc float32
			for i, kv := range k {
				yy := reflect101(y+i-half, h)
				acc += kv * tmp[yy*w+x]
			}
			dst[y*stride+x*step+off] = clampU8(math.RoundToEven(float64(acc)))
		}
	}
}
