package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MeKo-Tech/notescan/internal/scan"
)

var (
	// ErrCapturing is returned when a capture is already in flight.
	ErrCapturing = errors.New("capture already in progress")
	// ErrNoScanner is returned by Capture on a controller built without one.
	ErrNoScanner = errors.New("controller has no scanner")
	// ErrNoStableDocument is returned when capture has no stable corners to use.
	ErrNoStableDocument = errors.New("no stable document detected")
	// ErrClosed is returned when frames are offered after Close.
	ErrClosed = errors.New("controller closed")
)

// Scanner is the post-capture enhancer the controller hands captures to.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) scan.Result
}

// Controller feeds frames to a Session on a single worker goroutine.
// Frames are admitted every SkipInterval offers and dropped while the
// worker is busy or a capture is running; nothing is queued. Results are
// published to a bounded channel that drops its oldest entry when the
// consumer falls behind, and to an optional callback.
type Controller struct {
	session *Session
	scanner Scanner

	frames  chan Frame
	results chan Result

	onResult func(Result)

	// work serializes frame processing and capture.
	work      sync.Mutex
	capturing atomic.Bool
	offered   atomic.Uint64

	closeMu sync.RWMutex
	closed  bool
}

// NewController wraps s. scanner may be nil when capture is not used.
func NewController(s *Session, scanner Scanner) *Controller {
	return &Controller{
		session: s,
		scanner: scanner,
		frames:  make(chan Frame, 1),
		results: make(chan Result, s.cfg.ResultBuffer),
	}
}

// Session returns the wrapped session.
func (c *Controller) Session() *Session { return c.session }

// OnResult registers a callback invoked on the worker goroutine for every
// result before it is published to the channel. Set it before Run.
func (c *Controller) OnResult(fn func(Result)) { c.onResult = fn }

// Results returns the result channel. It is closed when Run returns.
func (c *Controller) Results() <-chan Result { return c.results }

// Capturing reports whether a capture is in flight.
func (c *Controller) Capturing() bool { return c.capturing.Load() }

// admit applies the skip interval and the capture flag.
func (c *Controller) admit() bool {
	n := c.offered.Add(1)
	m := c.session.metrics
	if (n-1)%uint64(c.session.cfg.SkipInterval) != 0 {
		m.framesSkipped.WithLabelValues("interval").Inc()
		return false
	}
	if c.capturing.Load() {
		m.framesSkipped.WithLabelValues("capture").Inc()
		return false
	}
	return true
}

// Offer hands f to the worker without blocking. It reports whether the
// frame was accepted.
func (c *Controller) Offer(f Frame) bool {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed || !c.admit() {
		return false
	}
	select {
	case c.frames <- f:
		return true
	default:
		c.session.metrics.framesSkipped.WithLabelValues("busy").Inc()
		return false
	}
}

// OfferWait is Offer for recorded input: it waits for the worker instead of
// dropping the frame when busy. Skip interval and capture still apply.
func (c *Controller) OfferWait(ctx context.Context, f Frame) (bool, error) {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed {
		return false, ErrClosed
	}
	if !c.admit() {
		return false, nil
	}
	select {
	case c.frames <- f:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Close stops frame intake. Run drains the pending frame and returns.
func (c *Controller) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.frames)
	}
}

// Run processes admitted frames until ctx is done or Close is called. It
// must be called once; the result channel is closed on return.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.results)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-c.frames:
			if !ok {
				return nil
			}
			c.handle(ctx, f)
		}
	}
}

func (c *Controller) handle(ctx context.Context, f Frame) {
	// A capture may have started after the frame was admitted.
	if c.capturing.Load() {
		c.session.metrics.framesSkipped.WithLabelValues("capture").Inc()
		return
	}
	c.work.Lock()
	res, ok := c.session.ProcessFrame(ctx, f)
	c.work.Unlock()
	if ok {
		c.publish(res)
	}
}

// publish never blocks: when the channel is full the oldest result is
// discarded to make room.
func (c *Controller) publish(res Result) {
	if c.onResult != nil {
		c.onResult(res)
	}
	for {
		select {
		case c.results <- res:
			return
		default:
		}
		select {
		case <-c.results:
			c.session.metrics.resultsDropped.Inc()
		default:
		}
	}
}

// Capture runs the enhancer on req. Frame processing is suspended for the
// duration; a second concurrent Capture fails with ErrCapturing.
func (c *Controller) Capture(ctx context.Context, req scan.Request) (scan.Result, error) {
	if c.scanner == nil {
		return scan.Result{}, ErrNoScanner
	}
	if !c.capturing.CompareAndSwap(false, true) {
		return scan.Result{}, ErrCapturing
	}
	defer c.capturing.Store(false)

	c.work.Lock()
	defer c.work.Unlock()

	slog.Debug("Capture started", "session", c.session.id, "corners", len(req.Corners))
	res := c.scanner.Scan(ctx, req)
	slog.Info("Capture finished", "session", c.session.id, "scan", res.ID, "success", res.Success)
	return res, nil
}

// CaptureStable captures photo using the corners and QR metadata of the
// last stable result.
func (c *Controller) CaptureStable(ctx context.Context, photo []byte) (scan.Result, error) {
	last, ok := c.session.LastStable()
	if !ok {
		return scan.Result{}, ErrNoStableDocument
	}
	req := ScanRequest(last)
	req.Photo = photo
	return c.Capture(ctx, req)
}

// ScanRequest builds the enhancer input from a stable result. The photo is
// left for the caller to fill in.
func ScanRequest(r Result) scan.Request {
	return scan.Request{
		Corners:     r.ProcessedCorners,
		QRSide:      r.QRSide,
		QRBounds:    r.QRBounds,
		FrameWidth:  r.FrameWidth,
		FrameHeight: r.FrameHeight,
	}
}
