// Package scan turns a captured photo and the last stable document corners
// into an enhanced page image and reads the marked icons from its icon row.
package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/MeKo-Tech/notescan/internal/mempool"
	"github.com/MeKo-Tech/notescan/internal/rectify"
	"github.com/MeKo-Tech/notescan/internal/utils"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Scanner runs the post-capture pipeline. A Scanner holds no per-scan state
// and may be reused; callers serialize scans against frame processing.
type Scanner struct {
	cfg       Config
	rectifier *rectify.Rectifier
}

// New creates a Scanner.
func New(cfg Config) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scan config: %w", err)
	}
	r, err := rectify.New(cfg.rectifyConfig())
	if err != nil {
		return nil, err
	}
	return &Scanner{cfg: cfg, rectifier: r}, nil
}

// Config returns the scanner configuration.
func (s *Scanner) Config() Config { return s.cfg }

// Scan processes req. Errors never escape: a failed scan yields
// Result{Success: false} with the message set.
func (s *Scanner) Scan(ctx context.Context, req Request) (res Result) {
	start := time.Now()
	res.ID = uuid.NewString()

	arena := mempool.NewArena()
	defer func() {
		if r := recover(); r != nil {
			res = failure(res.ID, stageErr("panic", fmt.Errorf("%v", r)))
		}
		arena.Release()
		res.Duration = time.Since(start)
	}()

	out, err := s.scan(ctx, req, arena)
	if err != nil {
		slog.Warn("scan failed", "id", res.ID, "error", err)
		return failure(res.ID, err)
	}
	out.ID = res.ID
	slog.Debug("scan finished", "id", out.ID, "size", fmt.Sprintf("%dx%d", out.Width, out.Height),
		"light", out.Light, "icons", out.SelectedIcons)
	return out
}

func failure(id string, err error) Result {
	return Result{ID: id, Error: err.Error()}
}

func (s *Scanner) scan(ctx context.Context, req Request, arena *mempool.Arena) (Result, error) {
	if len(req.Corners) != 4 {
		return Result{}, stageErr("input", fmt.Errorf("%w, got %d", ErrCornerCount, len(req.Corners)))
	}
	photo, err := s.photo(req)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, stageErr("input", err)
	}

	corners := s.photoCorners(req, photo.Bounds())
	w, h := rectify.OutputSize(corners)
	if w < 2 || h < 2 {
		return Result{}, stageErr("unwarp", fmt.Errorf("%w: %dx%d", ErrDegenerate, w, h))
	}
	warped, err := s.rectifier.Unwarp(photo, corners)
	if err != nil {
		return Result{}, stageErr("unwarp", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, stageErr("unwarp", err)
	}

	enh := s.cfg.Enhance.enhance(warped, arena)

	// Unwarp edges carry interpolation artefacts.
	cropped := cropBorder(enh.img, s.cfg.CropRatio, s.cfg.CropRatio, s.cfg.CropRatio, s.cfg.CropRatio)
	cw, ch := cropped.Rect.Dx(), cropped.Rect.Dy()

	layout := s.cfg.Icons.Layout(cw, ch, req.QRSide, req.qrPositioned())
	selected, ratios := s.cfg.Icons.Classify(cropped, layout)

	if s.cfg.DebugStrip {
		drawStripFrame(cropped, layout)
	}
	final := cropBorder(cropped, s.cfg.BorderRatio, s.cfg.BorderRatio,
		math.Max(s.cfg.BottomCropRatio, s.cfg.BorderRatio), s.cfg.BorderRatio)

	return Result{
		Success:         true,
		Image:           final,
		Width:           final.Rect.Dx(),
		Height:          final.Rect.Dy(),
		Light:           enh.light,
		Brightness:      enh.brightness,
		Boost:           enh.boost,
		SelectedIcons:   selected,
		IconNames:       IconNames(selected, s.cfg.Language),
		DarkPixelRatios: ratios,
	}, nil
}

// photo decodes the request image and turns landscape shots upright.
func (s *Scanner) photo(req Request) (image.Image, error) {
	img := req.Image
	if img == nil {
		if len(req.Photo) == 0 {
			return nil, stageErr("decode", fmt.Errorf("%w: empty photo", ErrDecode))
		}
		var err error
		img, _, err = utils.DecodeImage(req.Photo)
		if err != nil {
			return nil, stageErr("decode", errors.Join(ErrDecode, err))
		}
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, stageErr("decode", fmt.Errorf("%w: empty image", ErrDecode))
	}
	if s.cfg.RotateLandscape && b.Dx() > b.Dy() {
		return utils.RotateClockwise(img), nil
	}
	return img, nil
}

// photoCorners rescales corners from the rotated frame (frameH x frameW) to
// the upright photo and orders them.
func (s *Scanner) photoCorners(req Request, photo image.Rectangle) []utils.Point {
	frameW, frameH := req.FrameWidth, req.FrameHeight
	if frameW <= 0 || frameH <= 0 {
		frameW, frameH = s.cfg.DefaultFrameWidth, s.cfg.DefaultFrameHeight
	}
	sx := float64(photo.Dx()) / float64(frameH)
	sy := float64(photo.Dy()) / float64(frameW)
	pts := utils.ScalePoints(req.Corners, sx, sy)
	for i := range pts {
		pts[i].X += float64(photo.Min.X)
		pts[i].Y += float64(photo.Min.Y)
	}
	return utils.OrderCorners(pts)
}

// cropBorder trims the given fractions of width/height from each side.
func cropBorder(img *image.NRGBA, top, right, bottom, left float64) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	x0 := int(math.Round(float64(w) * left))
	x1 := w - int(math.Round(float64(w)*right))
	y0 := int(math.Round(float64(h) * top))
	y1 := h - int(math.Round(float64(h)*bottom))
	if x1 <= x0 || y1 <= y0 {
		return img
	}
	return imaging.Crop(img, image.Rect(x0, y0, x1, y1).Add(img.Rect.Min))
}
