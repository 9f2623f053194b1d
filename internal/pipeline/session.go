package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MeKo-Tech/notescan/internal/barcode"
	"github.com/MeKo-Tech/notescan/internal/detector"
	"github.com/MeKo-Tech/notescan/internal/exposure"
	"github.com/MeKo-Tech/notescan/internal/imgproc"
	"github.com/MeKo-Tech/notescan/internal/mempool"
	"github.com/MeKo-Tech/notescan/internal/rectify"
	"github.com/MeKo-Tech/notescan/internal/utils"
)

// confidenceAreaRatio normalizes the candidate area into a confidence.
const confidenceAreaRatio = 0.2

// Session owns the cross-frame state of one camera session. ProcessFrame
// calls are serialized.
type Session struct {
	id  string
	cfg Config

	detector   *detector.Detector
	validator  *rectify.Validator
	correlator *barcode.Correlator
	metrics    *Metrics

	mu         sync.Mutex
	calibrator *exposure.Calibrator
	seeker     *exposure.Seeker
	stabilizer *Stabilizer
	frames     uint64
	lastStable *Result
}

// NewSession creates a session with the default barcode backend.
func NewSession(cfg Config) (*Session, error) { return newSession(cfg, nil, "") }

func newSession(cfg Config, backend barcode.Backend, id string) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	det, err := detector.New(cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("init detector: %w", err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		id:         id,
		cfg:        cfg,
		detector:   det,
		validator:  rectify.NewValidator(cfg.Rectify),
		correlator: barcode.NewCorrelator(cfg.Barcode, backend),
		metrics:    NewMetrics(id),
		calibrator: exposure.NewCalibrator(cfg.Calibrator),
		seeker:     exposure.NewSeeker(cfg.Seeker),
		stabilizer: NewStabilizer(cfg.Stability),
	}
	slog.Debug("Session created", "session", id,
		"max_dim", cfg.MaxProcessDimension, "debug", cfg.Debug, "qr", cfg.Barcode.Enabled)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Metrics returns the session collectors.
func (s *Session) Metrics() *Metrics { return s.metrics }

// LastStable returns the most recent stable result, if any.
func (s *Session) LastStable() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastStable == nil {
		return Result{}, false
	}
	return *s.lastStable, true
}

// SeekerState returns a snapshot of the exposure seeker.
func (s *Session) SeekerState() exposure.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeker.State()
}

// ProcessFrame runs the detection pipeline on f. It returns false when the
// frame produced no result: a candidate was seen but the stability gate has
// not opened yet. Failures never escape; they become an error result. Every
// pooled buffer is released before returning.
func (s *Session) ProcessFrame(ctx context.Context, f Frame) (res Result, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	arena := mempool.NewArena()
	defer func() {
		arena.Release()
		s.metrics.frameDuration.Observe(time.Since(start).Seconds())
	}()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			slog.Warn("Frame processing panicked", "session", s.id, "frame", f.Seq, "error", err)
			s.metrics.frameErrors.Inc()
			res, ok = errorResult(s.id, f, err), true
		}
	}()

	s.metrics.framesAdmitted.Inc()
	s.frames++

	res, ok, err := s.process(ctx, f, arena)
	if err != nil {
		slog.Debug("Frame failed", "session", s.id, "frame", f.Seq, "error", err)
		s.metrics.frameErrors.Inc()
		return errorResult(s.id, f, err), true
	}
	s.metrics.seekerOffset.Set(float64(s.seeker.State().Offset))
	return res, ok
}

func (s *Session) process(ctx context.Context, f Frame, arena *mempool.Arena) (Result, bool, error) {
	img, err := f.Image()
	if err != nil {
		return Result{}, false, err
	}

	qr, qrErr := s.correlator.Locate(ctx, img)
	if qrErr != nil {
		slog.Debug("QR decode failed", "session", s.id, "frame", f.Seq, "error", qrErr)
	}

	rotated := utils.RotateClockwise(utils.FitWithin(img, s.cfg.MaxProcessDimension))
	rotW, rotH := rotated.Bounds().Dx(), rotated.Bounds().Dy()

	gray := imgproc.FromImage(rotated)
	arena.Add(gray)
	stats := s.detector.Analyze(gray)
	calib := s.calibrator.Observe(stats.Brightness)

	gain := s.seeker.Gain()
	enhanced := imgproc.ConvertScaleAbs(gray, gain.Alpha, gain.Beta)
	arena.Add(enhanced)
	det := s.detector.Detect(enhanced, arena)

	var (
		corners []utils.Point
		verdict = rectify.Invalid
	)
	if det.Found {
		corners, verdict = s.validator.Validate(det.Candidate.Corners)
	}
	found := verdict != rectify.Invalid
	s.metrics.detections.WithLabelValues(verdictLabel(det.Found, verdict)).Inc()

	if tr := s.stabilizer.Observe(found); tr != NoTransition {
		s.metrics.stableTransitions.WithLabelValues(tr.String()).Inc()
		slog.Debug("Stability changed", "session", s.id, "frame", f.Seq, "transition", tr)
	}
	stable := s.stabilizer.Stable()
	switch {
	case found && stable:
		if s.seeker.Update(true) {
			s.metrics.seekerEvents.WithLabelValues("freeze").Inc()
		}
	case found:
		s.seeker.Hold()
	default:
		if s.seeker.Update(false) {
			s.metrics.seekerEvents.WithLabelValues("reactivate").Inc()
		}
	}

	if found && !stable {
		return Result{}, false, nil
	}

	res := Result{
		SessionID:    s.id,
		Seq:          f.Seq,
		Timestamp:    f.Timestamp,
		Corners:      []utils.Point{},
		Brightness:   stats.Brightness,
		BlurVariance: stats.BlurVariance,
		Blurry:       stats.Blurry,
		BlurInfo:     blurInfo(stats),
		SeekerInfo:   s.seeker.Info(),
		Seeker:       s.seeker.State(),
		Calibration:  calib,
		QRInfo:       qr.Info,
		QRSide:       qr.Side,
		QRBounds:     qr.Bounds,
		FrameWidth:   f.Width,
		FrameHeight:  f.Height,
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now()
	}

	if found {
		res.Corners = MapToScreen(corners, float64(rotW), float64(rotH), s.cfg.Screen)
		res.ProcessedCorners = utils.ScalePoints(corners,
			float64(f.Height)/float64(rotW), float64(f.Width)/float64(rotH))
		res.Confidence = math.Min(det.Candidate.Area/(confidenceAreaRatio*float64(rotW*rotH)), 1)
		res.Score = det.Candidate.Score
		res.Corrected = verdict == rectify.Corrected
		res.Stable = true
		snapshot := res
		s.lastStable = &snapshot
	}

	if s.cfg.Debug && s.frames%uint64(s.cfg.DebugImageInterval) == 0 && det.Mask != nil {
		res.DebugImage = renderDebug(det.Mask, corners, res.SeekerInfo, res.BlurInfo, res.QRInfo)
	}
	return res, true, nil
}

func blurInfo(st detector.FrameStats) string {
	if st.Blurry {
		return fmt.Sprintf("Blur:⚠️ %.1f", st.BlurVariance)
	}
	return fmt.Sprintf("Blur:✓ %.1f", st.BlurVariance)
}

func verdictLabel(found bool, v rectify.Verdict) string {
	if !found {
		return "none"
	}
	return v.String()
}
