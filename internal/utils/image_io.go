package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// DecodeImage decodes an encoded photo held in memory.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: errors.New("empty image data")}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: err}
	}
	return img, format, nil
}

// LoadImage opens and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	if path == "" {
		return nil, &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		return nil, &ImageProcessingError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-provided image path is expected
	if err != nil {
		return nil, &ImageProcessingError{Operation: "load", Err: err}
	}
	img, _, err := DecodeImage(data)
	return img, err
}

// EncodeImage writes img as PNG, or JPEG when format is "jpeg"/"jpg".
func EncodeImage(w io.Writer, img image.Image, format string, quality int) error {
	var err error
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		if quality <= 0 || quality > 100 {
			quality = 92
		}
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "", "png":
		err = png.Encode(w, img)
	default:
		err = fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return &ImageProcessingError{Operation: "encode", Err: err}
	}
	return nil
}

// SaveImage encodes img to path, choosing the format from the extension.
func SaveImage(path string, img image.Image, quality int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return &ImageProcessingError{Operation: "save", Err: err}
		}
	}
	var buf bytes.Buffer
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if err := EncodeImage(&buf, img, format, quality); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	return nil
}
