package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrCornerCount is returned when a request does not carry exactly 4 corners.
	ErrCornerCount = errors.New("exactly 4 corners required")
	// ErrDegenerate is returned when the corners span no area.
	ErrDegenerate = errors.New("degenerate document dimensions")
	// ErrDecode is returned when the photo cannot be decoded.
	ErrDecode = errors.New("photo decode failed")
)

// Error records which enhancer stage failed.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	return &Error{Stage: stage, Err: err}
}
