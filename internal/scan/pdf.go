package scan

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/notescan/internal/utils"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// WritePDF stores img as a single-page PDF at path, replacing any existing file.
func WritePDF(path string, img image.Image) error {
	if img == nil {
		return errors.New("no image to export")
	}

	// pdfcpu imports from files, so stage the page as PNG first
	tempDir, err := os.MkdirTemp("", "notescan-pdf-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	page := filepath.Join(tempDir, "page.png")
	if err := utils.SaveImage(page, img, 0); err != nil {
		return fmt.Errorf("failed to stage page: %w", err)
	}

	// ImportImagesFile appends to an existing output
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	if err := api.ImportImagesFile([]string{page}, path, nil, nil); err != nil {
		return fmt.Errorf("failed to import scan into PDF: %w", err)
	}
	return nil
}

// PageCount reports the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF page count: %w", err)
	}
	return n, nil
}
