package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/notescan/internal/utils"
)

func square(offset float64) []utils.Point {
	return []utils.Point{
		{X: offset, Y: offset}, {X: 100 + offset, Y: offset},
		{X: 100 + offset, Y: 100 + offset}, {X: offset, Y: 100 + offset},
	}
}

func TestSmoother_Blends(t *testing.T) {
	var s Smoother

	first, ok := s.Push(Result{Corners: square(0), Confidence: 0.5})
	require.True(t, ok)
	assert.Equal(t, square(0), first.Corners, "single result passes through")

	out, ok := s.Push(Result{Corners: square(10), ProcessedCorners: square(10), Confidence: 1})
	require.True(t, ok)
	assert.InDelta(t, 8, out.Corners[0].X, 1e-9)
	assert.InDelta(t, 108, out.Corners[2].Y, 1e-9)
	assert.InDelta(t, 0.9, out.Confidence, 1e-9)
	assert.Equal(t, square(10), out.ProcessedCorners, "processed corners need history on both sides")

	out, ok = s.Push(Result{Corners: square(20), ProcessedCorners: square(20), Confidence: 1})
	require.True(t, ok)
	assert.InDelta(t, 18, out.Corners[0].X, 1e-9, "only the last two count")
	assert.InDelta(t, 18, out.ProcessedCorners[0].X, 1e-9)
}

func TestSmoother_ResetsOnUnusable(t *testing.T) {
	var s Smoother
	s.Push(Result{Corners: square(0), Confidence: 0.5})

	_, ok := s.Push(Result{Corners: square(0), Confidence: 0.2})
	assert.False(t, ok, "confidence must exceed 0.2")

	_, ok = s.Push(Result{Corners: []utils.Point{}, Confidence: 1})
	assert.False(t, ok)

	out, ok := s.Push(Result{Corners: square(50), Confidence: 1})
	require.True(t, ok)
	assert.Equal(t, square(50), out.Corners, "history was cleared")
}
