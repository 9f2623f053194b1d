// Package testutil renders synthetic camera frames, notebook covers and QR
// codes for tests across the module.
package testutil

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

// WriteImage encodes img to dir/name and returns the full path.
func WriteImage(t testing.TB, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, utils.SaveImage(path, img, 95), "failed to write %s", path)
	return path
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
