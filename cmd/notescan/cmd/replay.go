package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/MeKo-Tech/notescan/internal/barcode"
	"github.com/MeKo-Tech/notescan/internal/pipeline"
	"github.com/MeKo-Tech/notescan/internal/scan"
	"github.com/MeKo-Tech/notescan/internal/utils"
	"github.com/spf13/cobra"
)

// replayLine is one JSON line of replay output.
type replayLine struct {
	Frame    string         `json:"frame"`
	Result   pipeline.Result `json:"result"`
	Smoothed []utils.Point  `json:"smoothed,omitempty"`
	QR       *trackedQR     `json:"qr,omitempty"`
}

// trackedQR is the anti-jitter QR state after a result.
type trackedQR struct {
	Side   barcode.Side    `json:"side"`
	Bounds *barcode.Bounds `json:"bounds,omitempty"`
	Info   string          `json:"info"`
}

// captureLine reports a scan triggered by a stable transition.
type captureLine struct {
	Frame   string      `json:"frame"`
	Capture scan.Result `json:"capture"`
	Output  string      `json:"output,omitempty"`
}

func newReplayCmd(a *app) *cobra.Command {
	var (
		metricsFile string
		captureDir  string
		progress    bool
	)

	cmd := &cobra.Command{
		Use:   "replay DIR",
		Short: "Replay recorded frames through the concurrent controller",
		Long: `Feed the images in DIR, sorted by name, through the frame controller as a
recorded camera stream and print one JSON line per published result.

With --capture-dir, each transition to a stable document captures the
frame that produced it and writes the enhanced scan into the directory.

Examples:
  notescan replay ./frames
  notescan replay ./frames --skip 2 --metrics-file notescan.prom
  notescan replay ./frames --capture-dir ./scans`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := listFrames(args[0])
			if err != nil {
				return err
			}

			var scanner pipeline.Scanner
			if captureDir != "" {
				s, err := scan.New(a.cfg.ToScanConfig())
				if err != nil {
					return err
				}
				scanner = s
			}
			ctrl, err := pipeline.NewBuilder().WithConfig(a.cfg.ToPipelineConfig()).BuildController(scanner)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			runErr := make(chan error, 1)
			go func() { runErr <- ctrl.Run(ctx) }()

			out := &lineWriter{enc: json.NewEncoder(cmd.OutOrStdout())}
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				consume(cmd, a, ctrl, paths, captureDir, out)
			}()

			load := func(i int) (pipeline.Frame, error) {
				img, err := utils.LoadImage(paths[i])
				if err != nil {
					return pipeline.Frame{}, err
				}
				return pipeline.FrameFromImage(img, uint64(i+1)), nil
			}

			var cb pipeline.ProgressCallback = pipeline.NewLogProgressCallback(slog.Default(), 10)
			if progress {
				cb = pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "replay ")
			}
			stats, replayErr := ctrl.Replay(ctx, len(paths), load, cb)
			ctrl.Close()
			wg.Wait()
			if err := <-runErr; err != nil && replayErr == nil {
				replayErr = err
			}

			slog.Info("Replay finished",
				"session", ctrl.Session().ID(),
				"frames", stats.Frames,
				"admitted", stats.Admitted,
				"load_errors", stats.LoadErrors,
				"alloc_bytes", stats.Memory.AllocBytes,
				"pooled_buffers", stats.Memory.PooledBuffers)

			if metricsFile != "" {
				if err := ctrl.Session().Metrics().WriteTextfile(metricsFile); err != nil {
					return fmt.Errorf("writing metrics: %w", err)
				}
			}
			if replayErr != nil {
				return replayErr
			}
			return out.err
		},
	}

	f := cmd.Flags()
	f.Int("skip", 1, "process every Nth frame")
	f.StringVar(&metricsFile, "metrics-file", "", "write session metrics in Prometheus textfile format")
	f.StringVar(&captureDir, "capture-dir", "", "scan the frame of each stable transition into this directory")
	f.BoolVar(&progress, "progress", false, "show a progress bar on stderr")
	mustBind(a.v, "pipeline.skip_interval", f.Lookup("skip"))
	return cmd
}

// consume drains the result channel until Run closes it.
func consume(cmd *cobra.Command, a *app, ctrl *pipeline.Controller, paths []string, captureDir string, out *lineWriter) {
	var smoother pipeline.Smoother
	tracker := barcode.NewTracker(a.cfg.ToTrackerConfig())
	wasStable := false

	for res := range ctrl.Results() {
		line := replayLine{Frame: framePath(paths, res.Seq), Result: res}
		if sm, ok := smoother.Push(res); ok {
			line.Smoothed = sm.Corners
		}
		qr := tracker.Observe(barcode.Observation{
			Found:  res.QRBounds != nil,
			Side:   res.QRSide,
			Bounds: res.QRBounds,
			Info:   res.QRInfo,
		})
		if qr.Found {
			line.QR = &trackedQR{Side: qr.Side, Bounds: qr.Bounds, Info: qr.Info}
		}
		out.write(line)

		if captureDir != "" && res.Stable && !wasStable {
			out.write(captureFrame(cmd, a, ctrl, line.Frame, res.Seq, captureDir))
		}
		wasStable = res.Stable
	}
}

func captureFrame(cmd *cobra.Command, a *app, ctrl *pipeline.Controller, path string, seq uint64, dir string) captureLine {
	line := captureLine{Frame: path}
	photo, err := os.ReadFile(path) //nolint:gosec // G304: frame from the replay directory
	if err != nil {
		line.Capture = scan.Result{Error: err.Error()}
		return line
	}
	res, err := ctrl.CaptureStable(cmd.Context(), photo)
	if err != nil {
		line.Capture = scan.Result{Error: err.Error()}
		return line
	}
	line.Capture = res
	if res.Success {
		line.Output = filepath.Join(dir, fmt.Sprintf("scan-%06d.png", seq))
		if err := utils.SaveImage(line.Output, res.Image, a.cfg.Output.Quality); err != nil {
			slog.Warn("Saving capture failed", "path", line.Output, "error", err)
			line.Output = ""
		}
	}
	return line
}

func framePath(paths []string, seq uint64) string {
	if seq == 0 || seq > uint64(len(paths)) {
		return ""
	}
	return paths[seq-1]
}

// listFrames returns the supported images in dir sorted by name.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading frame directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !utils.IsSupportedImage(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	slices.Sort(paths)
	return paths, nil
}

// lineWriter writes JSON lines and keeps the first error.
type lineWriter struct {
	enc *json.Encoder
	err error
}

func (w *lineWriter) write(v any) {
	if w.err != nil {
		return
	}
	w.err = w.enc.Encode(v)
}
