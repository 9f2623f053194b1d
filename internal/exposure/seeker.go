package exposure

import (
	"fmt"
	"strings"
)

// SeekerConfig controls the exposure sweep.
type SeekerConfig struct {
	MaxOffset          int `json:"max_offset" yaml:"max_offset"`
	Step               int `json:"step" yaml:"step"`
	ChangeInterval     int `json:"change_interval" yaml:"change_interval"`
	ReactivateAfter    int `json:"reactivate_after" yaml:"reactivate_after"`
	MidStepThreshold   int `json:"mid_step_threshold" yaml:"mid_step_threshold"`
	MidStep            int `json:"mid_step" yaml:"mid_step"`
	LargeStepThreshold int `json:"large_step_threshold" yaml:"large_step_threshold"`
	LargeStep          int `json:"large_step" yaml:"large_step"`
}

// DefaultSeekerConfig returns the tuned sweep parameters.
func DefaultSeekerConfig() SeekerConfig {
	return SeekerConfig{
		MaxOffset:          100,
		Step:               20,
		ChangeInterval:     1,
		ReactivateAfter:    15,
		MidStepThreshold:   60,
		MidStep:            30,
		LargeStepThreshold: 80,
		LargeStep:          40,
	}
}

// Direction is the sweep direction.
type Direction int

const (
	Up   Direction = 1
	Down Direction = -1
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// MarshalText renders the direction as "up" or "down".
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts the values produced by MarshalText.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDirection parses "up" or "down" case-insensitively.
func ParseDirection(v string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return Up, fmt.Errorf("unknown sweep direction %q", v)
	}
}

// Gain is the contrast (Alpha) and brightness (Beta) applied before the
// contour search.
type Gain struct {
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
}

// Seeker sweeps an exposure offset across frames until a document is
// stably found, then holds the gain that exposed it.
//
// States: scanning (Active) and frozen. Update(true) freezes, Update(false)
// advances the sweep while scanning or counts toward reactivation while
// frozen. Hold marks a frame with an unconfirmed candidate: the sweep pauses
// and the reactivation counter resets.
type Seeker struct {
	cfg SeekerConfig

	active     bool
	direction  Direction
	offset     int
	step       int
	frozen     bool
	frozenGain Gain

	frameCounter      int
	noDocumentCounter int
}

// NewSeeker returns a seeker in the initial scanning state.
func NewSeeker(cfg SeekerConfig) *Seeker {
	d := DefaultSeekerConfig()
	if cfg.MaxOffset <= 0 {
		cfg.MaxOffset = d.MaxOffset
	}
	if cfg.Step <= 0 {
		cfg.Step = d.Step
	}
	if cfg.ChangeInterval <= 0 {
		cfg.ChangeInterval = d.ChangeInterval
	}
	if cfg.ReactivateAfter <= 0 {
		cfg.ReactivateAfter = d.ReactivateAfter
	}
	s := &Seeker{cfg: cfg}
	s.Reset()
	return s
}

// Reset returns to scanning at offset 0, direction up.
func (s *Seeker) Reset() {
	s.active = true
	s.direction = Up
	s.offset = 0
	s.step = s.cfg.Step
	s.frozen = false
	s.frozenGain = Gain{}
	s.frameCounter = 0
	s.noDocumentCounter = 0
}

// GainFor maps a sweep offset to contrast/brightness. Positive offsets
// brighten strongly, negative offsets darken gently.
func (s *Seeker) GainFor(offset int) Gain {
	f := float64(abs(offset)) / float64(s.cfg.MaxOffset)
	switch {
	case offset > 0:
		return Gain{Alpha: 1 + 0.8*f, Beta: 40 * f}
	case offset < 0:
		return Gain{Alpha: 1 - 0.3*f, Beta: -30 * f}
	default:
		return Gain{Alpha: 1, Beta: 0}
	}
}

// Gain returns the gain to apply to the current frame.
func (s *Seeker) Gain() Gain {
	if s.frozen {
		return s.frozenGain
	}
	return s.GainFor(s.offset)
}

// Update feeds the seeker whether a document was confirmed this frame.
// It returns true when the call changed state (froze or reactivated).
func (s *Seeker) Update(found bool) bool {
	if s.frozen {
		if found {
			s.noDocumentCounter = 0
			return false
		}
		s.noDocumentCounter++
		if s.noDocumentCounter >= s.cfg.ReactivateAfter {
			s.Reset()
			return true
		}
		return false
	}
	if found {
		s.Freeze()
		return true
	}
	s.advance()
	return false
}

// Hold records an unconfirmed candidate: the sweep does not move.
func (s *Seeker) Hold() { s.noDocumentCounter = 0 }

// Freeze locks the gain of the current sweep position.
func (s *Seeker) Freeze() Gain {
	if !s.frozen {
		s.frozenGain = s.GainFor(s.offset)
		s.frozen = true
		s.active = false
		s.noDocumentCounter = 0
	}
	return s.frozenGain
}

func (s *Seeker) advance() {
	s.frameCounter++
	step := s.cfg.Step
	switch a := abs(s.offset); {
	case s.cfg.LargeStepThreshold > 0 && a >= s.cfg.LargeStepThreshold:
		step = s.cfg.LargeStep
	case s.cfg.MidStepThreshold > 0 && a >= s.cfg.MidStepThreshold:
		step = s.cfg.MidStep
	}
	s.step = step
	if s.frameCounter < s.cfg.ChangeInterval {
		return
	}
	s.frameCounter = 0
	s.offset += int(s.direction) * step
	if s.offset > s.cfg.MaxOffset {
		s.offset = s.cfg.MaxOffset
		s.direction = Down
	} else if s.offset < -s.cfg.MaxOffset {
		s.offset = -s.cfg.MaxOffset
		s.direction = Up
	}
}

// State is a read-only snapshot for results and logging.
type State struct {
	Active            bool      `json:"active" yaml:"active"`
	Frozen            bool      `json:"frozen" yaml:"frozen"`
	Offset            int       `json:"offset" yaml:"offset"`
	Direction         Direction `json:"direction" yaml:"direction"`
	Step              int       `json:"step" yaml:"step"`
	NoDocumentCounter int       `json:"no_document_counter" yaml:"no_document_counter"`
	Gain              Gain      `json:"gain" yaml:"gain"`
}

// State returns the current snapshot.
func (s *Seeker) State() State {
	return State{
		Active:            s.active,
		Frozen:            s.frozen,
		Offset:            s.offset,
		Direction:         s.direction,
		Step:              s.step,
		NoDocumentCounter: s.noDocumentCounter,
		Gain:              s.Gain(),
	}
}

// Info formats the state as the three-line overlay string.
func (s *Seeker) Info() string {
	g := s.Gain()
	return fmt.Sprintf("A:%.2f B:%3.0f\nS:%s O:%4d D:%s\nST:%2d NC:%2d/%d FROZEN:%s",
		g.Alpha, g.Beta, onOff(s.active), s.offset, s.direction,
		s.step, s.noDocumentCounter, s.cfg.ReactivateAfter, yesNo(s.frozen))
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
