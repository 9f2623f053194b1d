package exposure

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeker_SweepSequence(t *testing.T) {
	s := NewSeeker(DefaultSeekerConfig())
	want := []int{20, 40, 60, 90, 100, 60, 30, 10, -10, -30, -50, -70, -100, -100}
	for i, w := range want {
		s.Update(false)
		require.Equal(t, w, s.State().Offset, "frame %d", i+1)
	}
	assert.Equal(t, Up, s.State().Direction)
}

func TestSeeker_FirstFiveFramesIncrease(t *testing.T) {
	s := NewSeeker(DefaultSeekerConfig())
	prev := 0
	for range 5 {
		s.Update(false)
		cur := s.State().Offset
		assert.Greater(t, cur, prev)
		prev = cur
	}
	assert.Equal(t, Down, s.State().Direction, "reversal after crossing +100")
}

func TestSeeker_ChangeInterval(t *testing.T) {
	cfg := DefaultSeekerConfig()
	cfg.ChangeInterval = 3
	s := NewSeeker(cfg)
	s.Update(false)
	s.Update(false)
	assert.Zero(t, s.State().Offset)
	s.Update(false)
	assert.Equal(t, 20, s.State().Offset)
}

func TestSeeker_FreezeGain(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		alpha  float64
		beta   float64
	}{
		{"offset 0", 0, 1.0, 0},
		{"offset 40", 2, 1.32, 16},
		{"offset 100", 5, 1.8, 40},
		{"offset -10", 9, 0.97, -3},
		{"offset -100", 13, 0.7, -30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSeeker(DefaultSeekerConfig())
			for range tt.frames {
				s.Update(false)
			}
			changed := s.Update(true)
			assert.True(t, changed)
			st := s.State()
			assert.True(t, st.Frozen)
			assert.False(t, st.Active)
			assert.InDelta(t, tt.alpha, st.Gain.Alpha, 1e-9)
			assert.InDelta(t, tt.beta, st.Gain.Beta, 1e-9)
		})
	}
}

func TestSeeker_FrozenIgnoresSweepAndReactivates(t *testing.T) {
	s := NewSeeker(DefaultSeekerConfig())
	for range 5 {
		s.Update(false)
	}
	s.Update(true)
	frozen := s.Gain()

	for range 14 {
		assert.False(t, s.Update(false))
		assert.Equal(t, frozen, s.Gain())
		assert.Equal(t, 100, s.State().Offset)
	}
	s.Update(true)
	assert.Zero(t, s.State().NoDocumentCounter, "a confirmed frame restarts the timeout")

	for range 14 {
		s.Update(false)
	}
	assert.True(t, s.State().Frozen)
	assert.True(t, s.Update(false))

	st := s.State()
	assert.False(t, st.Frozen)
	assert.True(t, st.Active)
	assert.Zero(t, st.Offset)
	assert.Equal(t, Up, st.Direction)
	assert.Equal(t, 20, st.Step)
}

func TestSeeker_HoldPausesSweep(t *testing.T) {
	s := NewSeeker(DefaultSeekerConfig())
	s.Update(false)
	s.Hold()
	s.Hold()
	assert.Equal(t, 20, s.State().Offset)
}

func TestSeeker_Info(t *testing.T) {
	s := NewSeeker(DefaultSeekerConfig())
	s.Update(false)
	assert.Equal(t, "A:1.16 B:  8\nS:ON O:  20 D:up\nST:20 NC: 0/15 FROZEN:N", s.Info())

	s.Update(true)
	assert.Contains(t, s.Info(), "S:OFF")
	assert.Contains(t, s.Info(), "FROZEN:Y")
}

func TestState_JSONRoundTrip(t *testing.T) {
	s := NewSeeker(DefaultSeekerConfig())
	for range 6 {
		s.Update(false)
	}
	want := s.State()
	require.Equal(t, Down, want.Direction)

	b, err := json.Marshal(want)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"direction":"down"`)

	var got State
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, want, got)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" UP ")
	require.NoError(t, err)
	assert.Equal(t, Up, d)

	d, err = ParseDirection("down")
	require.NoError(t, err)
	assert.Equal(t, Down, d)

	var dir Direction
	err = json.Unmarshal([]byte(`"sideways"`), &dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sweep direction")
}
