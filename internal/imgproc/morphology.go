package imgproc

// Kernel is a rectangular structuring element anchored at its centre.
type Kernel struct {
	W, H int
}

// RectKernel returns a square structuring element of the given size.
func RectKernel(size int) Kernel { return Kernel{W: size, H: size} }

// MorphologicalOp represents the type of morphological operation to perform.
type MorphologicalOp int

const (
	MorphDilate MorphologicalOp = iota
	MorphErode
	MorphOpen  // Erode then Dilate - removes small noise
	MorphClose // Dilate then Erode - fills gaps
)

// Morphology applies op iterations times. Pixels outside the image never
// contribute, so dilation does not grow from the border and erosion does not
// eat into it.
func Morphology(src *Gray, op MorphologicalOp, k Kernel, iterations int) *Gray {
	out := src.Clone()
	if iterations < 1 {
		iterations = 1
	}
	for range iterations {
		var next *Gray
		switch op {
		case MorphDilate:
			next = rankFilter(out, k, true)
		case MorphErode:
			next = rankFilter(out, k, false)
		case MorphOpen:
			e := rankFilter(out, k, false)
			next = rankFilter(e, k, true)
			e.Release()
		case MorphClose:
			d := rankFilter(out, k, true)
			next = rankFilter(d, k, false)
			d.Release()
		default:
			return out
		}
		out.Release()
		out = next
	}
	return out
}

// Dilate expands bright regions.
func Dilate(src *Gray, k Kernel, iterations int) *Gray {
	return Morphology(src, MorphDilate, k, iterations)
}

// Erode shrinks bright regions.
func Erode(src *Gray, k Kernel, iterations int) *Gray {
	return Morphology(src, MorphErode, k, iterations)
}

// Close fills small gaps between bright regions.
func Close(src *Gray, k Kernel) *Gray { return Morphology(src, MorphClose, k, 1) }

// rankFilter computes a rectangular max (dilate) or min (erode) as two 1D
// passes, which is exact for rectangular kernels.
func rankFilter(src *Gray, k Kernel, takeMax bool) *Gray {
	w, h := src.W, src.H
	tmp := NewGray(w, h)
	defer tmp.Release()
	out := NewGray(w, h)
	if k.W <= 1 && k.H <= 1 {
		copy(out.Pix, src.Pix)
		return out
	}
	pick := func(a, b uint8) uint8 {
		if takeMax {
			return max(a, b)
		}
		return min(a, b)
	}
	hx, hy := k.W/2, k.H/2

	for y := range h {
		row := src.Pix[y*w : (y+1)*w]
		for x := range w {
			v := row[x]
			for kx := max(0, x-hx); kx <= min(w-1, x+(k.W-1-hx)); kx++ {
				v = pick(v, row[kx])
			}
			tmp.Pix[y*w+x] = v
		}
	}
	for y := range h {
		for x := range w {
			v := tmp.Pix[y*w+x]
			for ky := max(0, y-hy); ky <= min(h-1, y+(k.H-1-hy)); ky++ {
				v = pick(v, tmp.Pix[ky*w+x])
			}
			out.Pix[y*w+x] = v
		}
	}
	return out
}
