package support

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastOutput   string
	LastStderr   string
	LastError    error
	LastExitCode int
	LastDuration time.Duration

	// Test environment
	TempDir    string
	originalWd string
	savedEnv   map[string]*string

	// Vars are substituted into commands as {name}.
	Vars map[string]string
}

// NewTestContext creates a scenario context working in a fresh temp dir.
// The working directory and HOME point there so no user configuration
// leaks into the run.
func NewTestContext() (*TestContext, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "notescan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		return nil, fmt.Errorf("failed to enter temp directory: %w", err)
	}

	ctx := &TestContext{
		TempDir:    tempDir,
		originalWd: wd,
		savedEnv:   map[string]*string{},
		Vars:       map[string]string{"tmp": tempDir},
	}
	ctx.SetEnv("HOME", tempDir)
	ctx.SetEnv("XDG_CONFIG_HOME", filepath.Join(tempDir, "xdg"))
	return ctx, nil
}

// SetEnv sets a process environment variable until Cleanup.
func (testCtx *TestContext) SetEnv(name, value string) {
	if _, saved := testCtx.savedEnv[name]; !saved {
		if old, ok := os.LookupEnv(name); ok {
			testCtx.savedEnv[name] = &old
		} else {
			testCtx.savedEnv[name] = nil
		}
	}
	_ = os.Setenv(name, value)
}

// Cleanup restores the environment and removes the temp directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	for name, old := range testCtx.savedEnv {
		if old == nil {
			_ = os.Unsetenv(name)
		} else {
			_ = os.Setenv(name, *old)
		}
	}
	if err := os.Chdir(testCtx.originalWd); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}
	return errors.Join(errs...)
}

// Path resolves name inside the scenario temp dir.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// substitute replaces {name} placeholders with scenario variables.
func (testCtx *TestContext) substitute(s string) string {
	for k, v := range testCtx.Vars {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}
