package pipeline

// StabilityConfig holds the hysteresis thresholds.
type StabilityConfig struct {
	DetectAfter int `json:"detect_after" yaml:"detect_after"`
	LoseAfter   int `json:"lose_after" yaml:"lose_after"`
}

// DefaultStabilityConfig requires 5 positive frames to lock and 15 negative to release.
func DefaultStabilityConfig() StabilityConfig {
	return StabilityConfig{DetectAfter: 5, LoseAfter: 15}
}

// Transition reports a change of the stable flag.
type Transition int

const (
	NoTransition Transition = iota
	BecameStable
	LostStable
)

func (t Transition) String() string {
	switch t {
	case BecameStable:
		return "detected"
	case LostStable:
		return "lost"
	default:
		return ""
	}
}

// Stabilizer gates per-frame detections behind consecutive-frame counters.
type Stabilizer struct {
	cfg          StabilityConfig
	detections   int
	noDetections int
	stable       bool
}

// NewStabilizer returns an unstable aggregator.
func NewStabilizer(cfg StabilityConfig) *Stabilizer {
	d := DefaultStabilityConfig()
	if cfg.DetectAfter <= 0 {
		cfg.DetectAfter = d.DetectAfter
	}
	if cfg.LoseAfter <= 0 {
		cfg.LoseAfter = d.LoseAfter
	}
	return &Stabilizer{cfg: cfg}
}

// Observe records one frame and returns the transition it caused, if any.
func (s *Stabilizer) Observe(found bool) Transition {
	if found {
		s.detections++
		s.noDetections = 0
		if !s.stable && s.detections >= s.cfg.DetectAfter {
			s.stable = true
			return BecameStable
		}
		return NoTransition
	}
	s.detections = 0
	s.noDetections++
	if s.stable && s.noDetections >= s.cfg.LoseAfter {
		s.stable = false
		return LostStable
	}
	return NoTransition
}

// Stable reports whether a detection is currently held.
func (s *Stabilizer) Stable() bool { return s.stable }

// Counters returns the consecutive positive and negative frame counts.
func (s *Stabilizer) Counters() (detections, noDetections int) {
	return s.detections, s.noDetections
}

// Reset clears all counters.
func (s *Stabilizer) Reset() { *s = Stabilizer{cfg: s.cfg} }
