package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives replay progress.
type ProgressCallback interface {
	OnStart(total int)
	OnProgress(current, total int)
	OnComplete()
	OnError(current int, err error)
}

// NoOpProgressCallback ignores all progress.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)         {}
func (NoOpProgressCallback) OnProgress(int, int) {}
func (NoOpProgressCallback) OnComplete()         {}
func (NoOpProgressCallback) OnError(int, error)  {}

// ConsoleProgressCallback draws a single-line bar, throttled to interval.
type ConsoleProgressCallback struct {
	mu         sync.Mutex
	w          io.Writer
	prefix     string
	width      int
	interval   time.Duration
	started    time.Time
	lastUpdate time.Time
}

// NewConsoleProgressCallback writes to w, or stderr when w is nil.
func NewConsoleProgressCallback(w io.Writer, prefix string) *ConsoleProgressCallback {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleProgressCallback{w: w, prefix: prefix, width: 40, interval: 100 * time.Millisecond}
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = time.Now()
	c.lastUpdate = time.Time{}
	_, _ = fmt.Fprintf(c.w, "%s0/%d frames\n", c.prefix, total)
}

func (c *ConsoleProgressCallback) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if total <= 0 || (now.Sub(c.lastUpdate) < c.interval && current < total) {
		return
	}
	c.lastUpdate = now
	filled := min(c.width, c.width*current/total)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)
	line := fmt.Sprintf("\r%s[%s] %d/%d", c.prefix, bar, current, total)
	if el := now.Sub(c.started).Seconds(); el > 0 && current > 0 {
		line += fmt.Sprintf(" %.1f fps", float64(current)/el)
	}
	_, _ = fmt.Fprint(c.w, line)
}

func (c *ConsoleProgressCallback) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "\n%sdone in %v\n", c.prefix, time.Since(c.started).Round(time.Millisecond))
}

func (c *ConsoleProgressCallback) OnError(current int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "\n%sframe %d: %v\n", c.prefix, current, err)
}

// LogProgressCallback logs every interval frames through slog.
type LogProgressCallback struct {
	logger   *slog.Logger
	interval int
	last     int
	started  time.Time
}

// NewLogProgressCallback logs through logger, or slog.Default when nil.
func NewLogProgressCallback(logger *slog.Logger, interval int) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, interval: max(interval, 1)}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.started = time.Now()
	l.last = 0
	l.logger.Info("Replay started", "frames", total)
}

func (l *LogProgressCallback) OnProgress(current, total int) {
	if current-l.last < l.interval && current != total {
		return
	}
	l.last = current
	l.logger.Info("Replay progress", "current", current, "total", total,
		"elapsed", time.Since(l.started).Round(time.Millisecond))
}

func (l *LogProgressCallback) OnComplete() {
	l.logger.Info("Replay completed", "elapsed", time.Since(l.started).Round(time.Millisecond))
}

func (l *LogProgressCallback) OnError(current int, err error) {
	l.logger.Warn("Replay frame failed", "frame", current, "error", err)
}

// FrameSource loads the i-th recorded frame.
type FrameSource func(i int) (Frame, error)

// ReplayStats summarizes a replay run.
type ReplayStats struct {
	Frames     int      `json:"frames"`
	Admitted   int      `json:"admitted"`
	LoadErrors int      `json:"load_errors"`
	Memory     MemStats `json:"memory"`
}

// Replay offers total recorded frames in order, waiting for the worker
// between frames so none are dropped as busy. Frames that fail to load are
// reported and skipped. Run must be active on another goroutine.
func (c *Controller) Replay(ctx context.Context, total int, load FrameSource, progress ProgressCallback) (ReplayStats, error) {
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	stats := ReplayStats{Frames: total}
	progress.OnStart(total)
	for i := range total {
		f, err := load(i)
		if err != nil {
			stats.LoadErrors++
			progress.OnError(i, err)
			continue
		}
		ok, err := c.OfferWait(ctx, f)
		if err != nil {
			stats.Memory = GetMemStats()
			return stats, err
		}
		if ok {
			stats.Admitted++
		}
		progress.OnProgress(i+1, total)
	}
	progress.OnComplete()
	stats.Memory = GetMemStats()
	return stats, nil
}
