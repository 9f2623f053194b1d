package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered on a private registry per session so sessions
// never collide on the default registry.
type Metrics struct {
	Registry *prometheus.Registry

	framesAdmitted    prometheus.Counter
	framesSkipped     *prometheus.CounterVec
	resultsDropped    prometheus.Counter
	detections        *prometheus.CounterVec
	stableTransitions *prometheus.CounterVec
	seekerEvents      *prometheus.CounterVec
	frameErrors       prometheus.Counter
	frameDuration     prometheus.Histogram
	seekerOffset      prometheus.Gauge
}

// NewMetrics creates the collectors with a constant session label.
func NewMetrics(sessionID string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := prometheus.Labels{"session": sessionID}

	return &Metrics{
		Registry: reg,
		framesAdmitted: f.NewCounter(prometheus.CounterOpts{
			Name:        "notescan_frames_processed_total",
			Help:        "Frames run through the detection pipeline",
			ConstLabels: labels,
		}),
		framesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "notescan_frames_skipped_total",
			Help:        "Frames not processed",
			ConstLabels: labels,
		}, []string{"reason"}), // reason: interval, busy, capture
		resultsDropped: f.NewCounter(prometheus.CounterOpts{
			Name:        "notescan_results_dropped_total",
			Help:        "Results discarded because the consumer fell behind",
			ConstLabels: labels,
		}),
		detections: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "notescan_detections_total",
			Help:        "Per-frame candidate outcomes",
			ConstLabels: labels,
		}, []string{"verdict"}), // verdict: accepted, corrected, invalid, none
		stableTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "notescan_stable_transitions_total",
			Help:        "Stability gate transitions",
			ConstLabels: labels,
		}, []string{"transition"}),
		seekerEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "notescan_seeker_events_total",
			Help:        "Brightness seeker freezes and reactivations",
			ConstLabels: labels,
		}, []string{"event"}),
		frameErrors: f.NewCounter(prometheus.CounterOpts{
			Name:        "notescan_frame_errors_total",
			Help:        "Frames that failed and produced an error result",
			ConstLabels: labels,
		}),
		frameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:        "notescan_frame_duration_seconds",
			Help:        "Per-frame processing latency",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1},
			ConstLabels: labels,
		}),
		seekerOffset: f.NewGauge(prometheus.GaugeOpts{
			Name:        "notescan_seeker_offset",
			Help:        "Current exposure sweep offset",
			ConstLabels: labels,
		}),
	}
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
