// Package detector finds the notebook cover in a processed camera frame.
//
// The search is classical: the gain-adjusted grayscale frame is turned into
// a mask (closed global threshold OR Canny edges), external contours are
// filtered by size, position and portrait shape, approximated as polygons,
// and the best-scoring quadrilateral wins.
package detector

import (
	"image"
	"log/slog"

	"github.com/MeKo-Tech/notescan/internal/imgproc"
	"github.com/MeKo-Tech/notescan/internal/mempool"
	"github.com/MeKo-Tech/notescan/internal/utils"
)

// Candidate is the best quadrilateral found in one frame.
type Candidate struct {
	Corners  []utils.Point   `json:"corners"`
	Area     float64         `json:"area"`
	Score    float64         `json:"score"`
	Bounds   image.Rectangle `json:"bounds"`
	Epsilon  float64         `json:"epsilon"`
	Aspect   float64         `json:"aspect"`
	Solidity float64         `json:"solidity"`
}

// Detection is the outcome of one contour search.
type Detection struct {
	Candidate Candidate
	Found     bool
	Contours  int // external contours examined
	Mask      *imgproc.Gray
}

// FrameStats carries the per-frame measurements taken before the search.
type FrameStats struct {
	Brightness   float64 `json:"brightness"`
	BlurVariance float64 `json:"blur_variance"`
	Blurry       bool    `json:"blurry"`
}

// Detector runs the contour search. The structuring element is built once
// and reused for every frame. A Detector holds no per-frame state and may be
// shared between goroutines.
type Detector struct {
	cfg         Config
	closeKernel imgproc.Kernel
}

// New creates a detector after validating cfg.
func New(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("Initializing contour detector",
		"min_area_ratio", cfg.MinAreaRatio,
		"max_area_ratio", cfg.MaxAreaRatio,
		"epsilons", cfg.Epsilons,
		"adaptive_mask", cfg.UseAdaptiveMask)
	return &Detector{cfg: cfg, closeKernel: imgproc.RectKernel(cfg.MorphKernel)}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.cfg }

// Analyze measures brightness and sharpness of the grayscale frame. The blur
// flag is informational and never gates detection.
func (d *Detector) Analyze(gray *imgproc.Gray) FrameStats {
	v := imgproc.LaplacianVariance(gray)
	return FrameStats{
		Brightness:   imgproc.Mean(gray),
		BlurVariance: v,
		Blurry:       v < d.cfg.BlurThreshold,
	}
}

// BuildMask turns the gain-adjusted frame into the contour mask. All
// intermediate buffers and the mask itself are registered with arena.
func (d *Detector) BuildMask(enhanced *imgproc.Gray, arena *mempool.Arena) *imgproc.Gray {
	keep := func(g *imgproc.Gray) *imgproc.Gray {
		arena.Add(g)
		return g
	}
	binary := keep(imgproc.Threshold(enhanced, d.cfg.BinaryThreshold, 255, imgproc.ThreshBinary))
	closed := keep(imgproc.Close(binary, d.closeKernel))
	blurred := keep(imgproc.GaussianBlur(enhanced, d.cfg.BlurKernel, 0))
	edges := keep(imgproc.Canny(blurred, d.cfg.CannyLow, d.cfg.CannyHigh))
	mask := keep(imgproc.Or(closed, edges))
	if d.cfg.UseAdaptiveMask {
		local := keep(imgproc.AdaptiveThresholdMean(enhanced, 255, d.cfg.AdaptiveBlock, d.cfg.AdaptiveC,
			imgproc.ThreshBinaryInv))
		mask = keep(imgproc.Or(mask, local))
	}
	return mask
}

// Detect builds the mask and searches it for the best quadrilateral.
func (d *Detector) Detect(enhanced *imgproc.Gray, arena *mempool.Arena) Detection {
	mask := d.BuildMask(enhanced, arena)
	det := d.FindCandidate(mask)
	det.Mask = mask
	return det
}

// FindCandidate scores every external contour of mask and returns the best
// 4-vertex approximation.
func (d *Detector) FindCandidate(mask *imgproc.Gray) Detection {
	w, h := mask.W, mask.H
	imgArea := float64(w * h)
	minArea := imgArea * d.cfg.MinAreaRatio
	maxArea := imgArea * d.cfg.MaxAreaRatio
	marginW := int(float64(w) * d.cfg.MarginRatio)
	marginH := int(float64(h) * d.cfg.MarginRatio)

	contours := imgproc.FindExternalContours(mask)
	det := Detection{Contours: len(contours)}
	for _, c := range contours {
		area := c.Area()
		if area <= minArea || area >= maxArea {
			continue
		}
		b := c.Bounds
		if b.Min.X <= marginW || b.Min.Y <= marginH || b.Max.X >= w-marginW || b.Max.Y >= h-marginH {
			continue
		}
		aspect := float64(b.Dx()) / float64(b.Dy())
		if aspect >= d.cfg.MaxPortraitAspect {
			continue
		}
		solidity := area / float64(b.Dx()*b.Dy())
		perimeter := c.Perimeter()

		for _, eps := range d.cfg.Epsilons {
			approx := utils.ApproxPolygon(c.Points, eps*perimeter)
			if len(approx) != 4 {
				continue
			}
			score := d.score(area, imgArea, aspect, solidity, b, w, h)
			if score > det.Candidate.Score {
				det.Candidate = Candidate{
					Corners:  approx,
					Area:     area,
					Score:    score,
					Bounds:   b,
					Epsilon:  eps,
					Aspect:   aspect,
					Solidity: solidity,
				}
				det.Found = true
			}
			break
		}
	}
	return det
}

func (d *Detector) score(area, imgArea, aspect, solidity float64, b image.Rectangle, w, h int) float64 {
	s := d.cfg.Scoring
	score := area / imgArea * 100

	switch {
	case aspect > 0.2 && aspect < 8.0:
		score += s.AspectGood
	case aspect > 0.1 && aspect < 15.0:
		score += s.AspectOK
	}

	switch {
	case solidity > 0.3:
		score += s.SolidityHigh
	case solidity > 0.2:
		score += s.SolidityMedium
	case solidity > 0.1:
		score += s.SolidityLow
	}

	minDim := float64(min(b.Dx(), b.Dy()))
	switch {
	case minDim > float64(w)*s.LargeDimRatio && minDim > float64(h)*s.LargeDimRatio:
		score += s.SizeLarge
	case minDim > float64(w)*s.MediumDimRatio && minDim > float64(h)*s.MediumDimRatio:
		score += s.SizeMedium
	}
	return score
}
