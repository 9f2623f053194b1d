package barcode

import "time"

// TrackerConfig holds the anti-jitter thresholds.
type TrackerConfig struct {
	DetectAfter int           `json:"detect_after" yaml:"detect_after"`
	ClearAfter  int           `json:"clear_after" yaml:"clear_after"`
	Persist     time.Duration `json:"persist" yaml:"persist"`
}

// DefaultTrackerConfig accepts after 3 hits and clears after 5 misses once 3s passed.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{DetectAfter: 3, ClearAfter: 5, Persist: 3 * time.Second}
}

// Tracker holds the last confirmed QR observation so a display does not
// flicker on single-frame decode misses.
type Tracker struct {
	cfg     TrackerConfig
	now     func() time.Time
	hits    int
	misses  int
	current Observation
	seenAt  time.Time
}

// NewTracker returns a tracker using the wall clock.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{cfg: cfg, now: time.Now, current: Observation{Info: infoMissing}}
}

// Observe feeds one frame's observation and returns the confirmed one.
func (t *Tracker) Observe(o Observation) Observation {
	if o.Found {
		t.hits++
		t.misses = 0
		if t.hits >= t.cfg.DetectAfter {
			t.current = o
			t.seenAt = t.now()
		}
		return t.current
	}

	t.hits = 0
	t.misses++
	persisted := t.seenAt.IsZero() || t.now().Sub(t.seenAt) >= t.cfg.Persist
	if t.misses >= t.cfg.ClearAfter && persisted {
		t.current = Observation{Info: o.Info}
		t.seenAt = time.Time{}
	}
	return t.current
}

// Current returns the confirmed observation without feeding a frame.
func (t *Tracker) Current() Observation { return t.current }
