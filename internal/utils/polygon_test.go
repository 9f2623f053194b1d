package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproxPolygon(t *testing.T) {
	tests := []struct {
		name    string
		points  []Point
		epsilon float64
		wantLen int
	}{
		{"empty", nil, 1, 0},
		{"triangle untouched", []Point{{0, 0}, {10, 0}, {5, 10}}, 1, 3},
		{
			name: "rectangle with edge midpoints",
			points: []Point{
				{0, 0}, {5, 0}, {10, 0}, {10, 5}, {10, 10}, {5, 10}, {0, 10}, {0, 5},
			},
			epsilon: 0.5,
			wantLen: 4,
		},
		{
			name:    "start point in the middle of an edge",
			points:  []Point{{5, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
			epsilon: 0.5,
			wantLen: 4,
		},
		{
			name:    "noisy rectangle collapses at larger epsilon",
			points:  []Point{{0, 0}, {50, 1}, {100, 0}, {101, 50}, {100, 100}, {50, 99}, {0, 100}, {1, 50}},
			epsilon: 2,
			wantLen: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApproxPolygon(tt.points, tt.epsilon)
			require.Len(t, got, tt.wantLen)
		})
	}
}

func TestApproxPolygon_KeepsCorners(t *testing.T) {
	var contour []Point
	for x := 0; x < 40; x++ {
		contour = append(contour, Point{float64(x), 0})
	}
	for y := 0; y < 60; y++ {
		contour = append(contour, Point{40, float64(y)})
	}
	for x := 40; x > 0; x-- {
		contour = append(contour, Point{float64(x), 60})
	}
	for y := 60; y > 0; y-- {
		contour = append(contour, Point{0, float64(y)})
	}
	got := ApproxPolygon(contour, 0.02*Perimeter(contour))
	require.Len(t, got, 4)
	assert.ElementsMatch(t, []Point{{0, 0}, {40, 0}, {40, 60}, {0, 60}}, got)
}

func TestPolygonAreaAndPerimeter(t *testing.T) {
	sq := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.InDelta(t, 100.0, PolygonArea(sq), 1e-9)
	assert.InDelta(t, 40.0, Perimeter(sq), 1e-9)

	reversed := []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	assert.InDelta(t, 100.0, PolygonArea(reversed), 1e-9)

	assert.Zero(t, PolygonArea(sq[:2]))
	assert.Zero(t, Perimeter(sq[:1]))
}
