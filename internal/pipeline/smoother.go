package pipeline

import "github.com/MeKo-Tech/notescan/internal/utils"

const smoothMinConfidence = 0.2

// smoothWeights apply oldest first.
var smoothWeights = [2]float64{0.2, 0.8}

// Smoother blends the corners of the last two usable results to steady the
// on-screen outline. It is meant for the consumer side of the result channel.
type Smoother struct {
	history []Result
}

// Push adds r and returns the result to display. The second value is false
// when r has no usable corners, which also clears the history.
func (s *Smoother) Push(r Result) (Result, bool) {
	if len(r.Corners) != 4 || r.Confidence <= smoothMinConfidence {
		s.history = s.history[:0]
		return Result{}, false
	}
	s.history = append(s.history, r)
	if len(s.history) > len(smoothWeights) {
		s.history = s.history[1:]
	}
	if len(s.history) < len(smoothWeights) {
		return r, true
	}

	prev, last := s.history[0], s.history[1]
	out := last
	out.Corners = blend(prev.Corners, last.Corners)
	if len(prev.ProcessedCorners) == 4 && len(last.ProcessedCorners) == 4 {
		out.ProcessedCorners = blend(prev.ProcessedCorners, last.ProcessedCorners)
	}
	out.Confidence = prev.Confidence*smoothWeights[0] + last.Confidence*smoothWeights[1]
	return out, true
}

// Reset drops the history.
func (s *Smoother) Reset() { s.history = s.history[:0] }

func blend(a, b []utils.Point) []utils.Point {
	out := make([]utils.Point, len(b))
	for i := range b {
		out[i] = utils.Point{
			X: a[i].X*smoothWeights[0] + b[i].X*smoothWeights[1],
			Y: a[i].Y*smoothWeights[0] + b[i].Y*smoothWeights[1],
		}
	}
	return out
}
