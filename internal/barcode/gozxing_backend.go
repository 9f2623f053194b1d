package barcode

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// NewBackend returns the default gozxing-backed decoder.
func NewBackend() Backend { return &gozxingBackend{} }

type gozxingBackend struct{}

func (b *gozxingBackend) Decode(ctx context.Context, img image.Image, opts Options) ([]Result, error) {
	var offset image.Point
	if !opts.ROI.Empty() {
		if roi, ok := subImage(img, opts.ROI); ok {
			img = roi
			offset = roi.Bounds().Min
		}
	}
	// gozxing assumes zero-origin images.
	if img.Bounds().Min != (image.Point{}) {
		offset = img.Bounds().Min
		img = rebase(img)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("barcode bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	formats := opts.Formats
	if len(formats) == 0 {
		formats = []Format{FormatQR}
	}
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reader := readerFor(f)
		if reader == nil {
			continue
		}
		r, err := reader.Decode(bmp, hints)
		if err != nil {
			// Not-found, checksum and format failures all mean "no symbol".
			continue
		}
		points := make([]image.Point, 0, len(r.GetResultPoints()))
		for _, p := range r.GetResultPoints() {
			points = append(points, image.Pt(int(p.GetX())+offset.X, int(p.GetY())+offset.Y))
		}
		return []Result{{
			Format: mapFormatFromZXing(r.GetBarcodeFormat()),
			Value:  r.GetText(),
			Points: points,
			BBox:   rectFromPoints(points),
		}}, nil
	}
	return nil, ErrNotFound
}

func readerFor(f Format) gozxing.Reader {
	switch f {
	case FormatQR:
		return qrcode.NewQRCodeReader()
	case FormatDataMatrix:
		return datamatrix.NewDataMatrixReader()
	case FormatAztec:
		return aztec.NewAztecReader()
	case FormatCode128:
		return oned.NewCode128Reader()
	case FormatEAN13:
		return oned.NewEAN13Reader()
	default:
		return nil
	}
}

func mapFormatFromZXing(bf gozxing.BarcodeFormat) Format {
	switch bf {
	case gozxing.BarcodeFormat_QR_CODE:
		return FormatQR
	case gozxing.BarcodeFormat_DATA_MATRIX:
		return FormatDataMatrix
	case gozxing.BarcodeFormat_AZTEC:
		return FormatAztec
	case gozxing.BarcodeFormat_CODE_128:
		return FormatCode128
	case gozxing.BarcodeFormat_EAN_13:
		return FormatEAN13
	default:
		return FormatUnknown
	}
}

// subImage returns the part of img inside r, if any.
func subImage(img image.Image, r image.Rectangle) (image.Image, bool) {
	rb := r.Intersect(img.Bounds())
	if rb.Empty() {
		return nil, false
	}
	type subImager interface{ SubImage(r image.Rectangle) image.Image }
	if s, ok := img.(subImager); ok {
		return s.SubImage(rb), true
	}
	dst := image.NewRGBA(rb)
	draw.Draw(dst, rb, img, rb.Min, draw.Src)
	return dst, true
}

func rebase(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
