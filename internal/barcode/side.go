package barcode

import (
	"fmt"
	"strings"
)

// Side is the edge of the portrait document that carries the QR code.
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return ""
	}
}

// MarshalText encodes the side as "left", "right" or an empty string.
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts the values produced by MarshalText.
func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSide parses "left", "right", "none" or "" case-insensitively.
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "left":
		return SideLeft, nil
	case "right":
		return SideRight, nil
	case "", "none":
		return SideNone, nil
	default:
		return SideNone, fmt.Errorf("unknown qr side %q", v)
	}
}

// SideFor classifies a code centred at centerY in a landscape frame of height
// frameHeight. The lower half of the landscape frame becomes the left side of
// the portrait document after a clockwise quarter turn.
func SideFor(centerY, frameHeight float64) Side {
	if centerY > frameHeight/2 {
		return SideLeft
	}
	return SideRight
}
