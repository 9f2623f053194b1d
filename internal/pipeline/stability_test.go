package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStabilizer_FivePositivesLock(t *testing.T) {
	s := NewStabilizer(DefaultStabilityConfig())
	for i := range 4 {
		assert.Equal(t, NoTransition, s.Observe(true), "frame %d", i)
		assert.False(t, s.Stable())
	}
	assert.Equal(t, BecameStable, s.Observe(true))
	assert.True(t, s.Stable())
	assert.Equal(t, NoTransition, s.Observe(true), "already stable")
}

func TestStabilizer_SingleMissDoesNotLose(t *testing.T) {
	s := NewStabilizer(DefaultStabilityConfig())
	for range 4 {
		s.Observe(true)
	}
	assert.NotEqual(t, LostStable, s.Observe(false))
	assert.False(t, s.Stable())

	d, n := s.Counters()
	assert.Equal(t, 0, d)
	assert.Equal(t, 1, n)
}

func TestStabilizer_LoseAfterFifteenMisses(t *testing.T) {
	s := NewStabilizer(DefaultStabilityConfig())
	for range 5 {
		s.Observe(true)
	}
	for i := range 14 {
		assert.Equal(t, NoTransition, s.Observe(false), "miss %d", i+1)
		assert.True(t, s.Stable())
	}
	assert.Equal(t, LostStable, s.Observe(false))
	assert.False(t, s.Stable())
}

func TestStabilizer_HitResetsMissStreak(t *testing.T) {
	s := NewStabilizer(DefaultStabilityConfig())
	for range 5 {
		s.Observe(true)
	}
	for range 10 {
		s.Observe(false)
	}
	s.Observe(true)
	for range 14 {
		s.Observe(false)
	}
	assert.True(t, s.Stable())
}

func TestStabilizer_ResetAndDefaults(t *testing.T) {
	s := NewStabilizer(StabilityConfig{})
	for range 5 {
		s.Observe(true)
	}
	assert.True(t, s.Stable(), "zero config falls back to defaults")

	s.Reset()
	assert.False(t, s.Stable())
	d, n := s.Counters()
	assert.Zero(t, d)
	assert.Zero(t, n)
}

func TestTransition_String(t *testing.T) {
	assert.Equal(t, "detected", BecameStable.String())
	assert.Equal(t, "lost", LostStable.String())
	assert.Empty(t, NoTransition.String())
}
