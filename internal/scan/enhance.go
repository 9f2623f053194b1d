package scan

import (
	"image"
	"math"

	"github.com/MeKo-Tech/notescan/internal/imgproc"
	"github.com/MeKo-Tech/notescan/internal/mempool"
)

type enhanced struct {
	img        *image.NRGBA
	brightness int
	boost      int
	light      Light
}

// EstimateBrightness returns a robust page brightness from the gray range.
// Wide ranges are weighted toward the bright end so dark ink does not pull
// the estimate down.
func EstimateBrightness(gray *imgproc.Gray) int {
	lo, hi := imgproc.MinMax(gray)
	mn, mx := float64(lo), float64(hi)
	var avg float64
	switch r := mx - mn; {
	case r > 150:
		avg = 0.2*mn + 0.8*mx
	case r > 100:
		avg = 0.3*mn + 0.7*mx
	default:
		avg = (mn + mx) / 2
	}
	return int(math.Round(avg))
}

// Boost is the additive exposure correction for a page of the given brightness.
func (c EnhanceConfig) Boost(brightness int) int {
	d := math.Max(0, c.BoostTarget-float64(brightness))
	b := math.Pow(d, c.BoostExponent) * c.BoostFactor
	return int(math.Round(math.Min(math.Max(b, 0), c.MaxBoost)))
}

// ClassifyLight buckets a brightness estimate.
func ClassifyLight(brightness int) Light {
	switch {
	case brightness > 150:
		return Day
	case brightness > 80:
		return Normal
	default:
		return Night
	}
}

// enhance composites the black ink, white paper and colour layers of an
// unwarped page. Gray intermediates are registered with arena.
func (c EnhanceConfig) enhance(src *image.NRGBA, arena *mempool.Arena) enhanced {
	keep := func(g *imgproc.Gray) *imgproc.Gray {
		arena.Add(g)
		return g
	}

	gray := keep(imgproc.GrayNRGBA(src))
	brightness := EstimateBrightness(gray)
	boost := c.Boost(brightness)

	black := keep(imgproc.Threshold(gray, c.BlackThreshold, 255, imgproc.ThreshBinaryInv))
	black = keep(imgproc.Close(black, imgproc.RectKernel(c.BlackCloseKernel)))
	black = keep(imgproc.Dilate(black, imgproc.RectKernel(c.BlackDilateKernel), c.BlackDilateIterations))

	colorMask := keep(imgproc.SaturationMask(src, c.ColorSaturationThreshold))
	colorLayer := imgproc.ScaleSaturation(imgproc.MaskedCopy(src, colorMask), c.ColorSaturationBoost)

	main := imgproc.ConvertScaleAbsNRGBA(src, c.Contrast, float64(boost))
	main = imgproc.Sharpen(main, c.SharpenSigma, c.SharpenAmount)
	main = imgproc.ScaleSaturation(main, c.SaturationBoost)
	main = imgproc.ConvertScaleAbsNRGBA(main, c.FinalContrast, math.Round(float64(boost)*c.FinalBoostShare))
	white := keep(imgproc.Threshold(keep(imgproc.GrayNRGBA(main)), c.WhiteThreshold, 255, imgproc.ThreshBinary))

	w, h := src.Rect.Dx(), src.Rect.Dy()
	// Ink is painted as pure black, so the black layer adds nothing to the sum.
	blackLayer := imgproc.MaskedCopy(imgproc.SolidNRGBA(w, h, 0), black)
	whiteLayer := imgproc.MaskedCopy(imgproc.SolidNRGBA(w, h, 255), white)

	combined := imgproc.AddSaturate(blackLayer, whiteLayer, colorLayer)
	combined = imgproc.ConvertScaleAbsNRGBA(combined, c.ScanContrast, c.ScanBrightness)

	return enhanced{img: combined, brightness: brightness, boost: boost, light: ClassifyLight(brightness)}
}
