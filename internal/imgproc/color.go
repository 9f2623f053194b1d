package imgproc

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Colour stages operate on zero-origin *image.NRGBA with tight stride, the
// layout produced by imaging and utils.ToNRGBA. Alpha is carried through.

func newNRGBALike(src *image.NRGBA) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()))
}

// ConvertScaleAbsNRGBA applies saturate(|v*alpha + beta|) to each colour channel.
func ConvertScaleAbsNRGBA(src *image.NRGBA, alpha, beta float64) *image.NRGBA {
	var lut [256]uint8
	for i := range lut {
		lut[i] = scaleAbs(float64(i), alpha, beta)
	}
	out := newNRGBALike(src)
	for i := 0; i+3 < len(src.Pix) && i+3 < len(out.Pix); i += 4 {
		out.Pix[i] = lut[src.Pix[i]]
		out.Pix[i+1] = lut[src.Pix[i+1]]
		out.Pix[i+2] = lut[src.Pix[i+2]]
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

// hsvSaturation returns the HSV saturation scaled to 0..255.
func hsvSaturation(r, g, b uint8) uint8 {
	v := max(r, g, b)
	if v == 0 {
		return 0
	}
	m := min(r, g, b)
	return uint8(math.Round(255 * float64(v-m) / float64(v)))
}

// SaturationMask marks pixels whose HSV saturation exceeds thresh.
func SaturationMask(src *image.NRGBA, thresh uint8) *Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := NewGray(w, h)
	for i := range w * h {
		p := src.Pix[i*4 : i*4+3]
		if hsvSaturation(p[0], p[1], p[2]) > thresh {
			out.Pix[i] = 255
		}
	}
	return out
}

// ScaleSaturation multiplies HSV saturation by factor, keeping hue and value.
func ScaleSaturation(src *image.NRGBA, factor float64) *image.NRGBA {
	out := newNRGBALike(src)
	for i := 0; i+3 < len(src.Pix); i += 4 {
		r, g, b := scaleSat(src.Pix[i], src.Pix[i+1], src.Pix[i+2], factor)
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, b, src.Pix[i+3]
	}
	return out
}

func scaleSat(r, g, b uint8, factor float64) (uint8, uint8, uint8) {
	v := float64(max(r, g, b))
	if v == 0 {
		return r, g, b
	}
	m := float64(min(r, g, b))
	s := (v - m) / v
	ns := math.Min(1, s*factor)
	if s == 0 {
		return r, g, b
	}
	// Every channel keeps its relative position between min and max; only
	// the distance from the value channel changes.
	nm := v * (1 - ns)
	ratio := (v - nm) / (v - m)
	conv := func(c uint8) uint8 {
		return clampU8(math.Round(v - (v-float64(c))*ratio))
	}
	return conv(r), conv(g), conv(b)
}

// Sharpen is an unsharp mask: (1+amount)*src - amount*Blur(src, sigma).
func Sharpen(src *image.NRGBA, sigma, amount float64) *image.NRGBA {
	if src.Rect.Min != (image.Point{}) || src.Stride != 4*src.Rect.Dx() {
		src = imaging.Clone(src)
	}
	blur := imaging.Blur(src, sigma)
	out := newNRGBALike(src)
	for i := 0; i+3 < len(src.Pix); i += 4 {
		for c := range 3 {
			v := (1+amount)*float64(src.Pix[i+c]) - amount*float64(blur.Pix[i+c])
			out.Pix[i+c] = clampU8(math.RoundToEven(v))
		}
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

// GrayNRGBA converts a colour image into a Gray buffer.
func GrayNRGBA(src *image.NRGBA) *Gray { return FromImage(src) }

// MaskedCopy keeps src where mask is set and zeroes the rest.
func MaskedCopy(src *image.NRGBA, mask *Gray) *image.NRGBA {
	out := newNRGBALike(src)
	for i := range min(mask.Area(), len(src.Pix)/4) {
		if mask.Pix[i] == 0 {
			out.Pix[i*4+3] = 255
			continue
		}
		copy(out.Pix[i*4:i*4+4], src.Pix[i*4:i*4+4])
	}
	return out
}

// SolidNRGBA returns an opaque image filled with the gray level v.
func SolidNRGBA(w, h int, v uint8) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(out.Pix); i += 4 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = v, v, v, 255
	}
	return out
}

// AddSaturate sums the colour channels of the given images with clipping at
// 255. All layers must share the first layer's size.
func AddSaturate(layers ...*image.NRGBA) *image.NRGBA {
	if len(layers) == 0 {
		return image.NewNRGBA(image.Rectangle{})
	}
	out := newNRGBALike(layers[0])
	for i := 0; i+3 < len(out.Pix); i += 4 {
		var r, g, b int
		for _, l := range layers {
			if i+3 >= len(l.Pix) {
				continue
			}
			r += int(l.Pix[i])
			g += int(l.Pix[i+1])
			b += int(l.Pix[i+2])
		}
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = uint8(min(r, 255)), uint8(min(g, 255)), uint8(min(b, 255)), 255
	}
	return out
}
