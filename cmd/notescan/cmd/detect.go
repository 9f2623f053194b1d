package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/notescan/internal/pipeline"
	"github.com/MeKo-Tech/notescan/internal/utils"
	"github.com/spf13/cobra"
)

// detectReport is the outcome of running one image through a fresh session.
type detectReport struct {
	Image  string                `json:"image" yaml:"image"`
	Frames int                   `json:"frames" yaml:"frames"`
	Stable bool                  `json:"stable" yaml:"stable"`
	Result *pipeline.Result      `json:"result,omitempty" yaml:"result,omitempty"`
	Shape  *pipeline.ShapeReport `json:"shape,omitempty" yaml:"shape,omitempty"`
}

type detectReports []detectReport

func (rs detectReports) writeText(w io.Writer) error {
	for _, r := range rs {
		var err error
		switch {
		case r.Result == nil:
			_, err = fmt.Fprintf(w, "%s: candidate not yet stable after %d frames\n", r.Image, r.Frames)
		case r.Result.Error != "":
			_, err = fmt.Fprintf(w, "%s: error: %s\n", r.Image, r.Result.Error)
		case len(r.Result.Corners) == 0:
			_, err = fmt.Fprintf(w, "%s: no document (%s)\n", r.Image, r.Result.SeekerInfo)
		default:
			_, err = fmt.Fprintf(w, "%s: document %s confidence %.2f\n  corners %s\n  processed %s\n  %s\n",
				r.Image, stableLabel(r.Stable), r.Result.Confidence,
				formatPoints(r.Result.Corners), formatPoints(r.Result.ProcessedCorners), r.Result.QRInfo)
			if err == nil && r.Shape != nil {
				_, err = fmt.Fprintf(w, "  shape: %s\n", r.Shape.Message)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func stableLabel(stable bool) string {
	if stable {
		return "stable"
	}
	return "unstable"
}

func newDetectCmd(a *app) *cobra.Command {
	var (
		screen string
		repeat int
	)

	cmd := &cobra.Command{
		Use:   "detect IMAGE...",
		Short: "Detect the notebook cover in camera frames",
		Long: `Run each image through a fresh detection session. An image is a camera
frame in its native landscape orientation; it is fed --repeat times so the
stability gate can open.

Examples:
  notescan detect frame.png
  notescan detect a.png b.png --screen 390x844 --format yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := a.outputFormat(cmd)
			if err != nil {
				return err
			}
			sw, sh, err := parseSize(screen)
			if err != nil {
				return fmt.Errorf("--screen: %w", err)
			}
			if repeat <= 0 {
				repeat = a.cfg.Stability.DetectAfter
			}

			pcfg := a.cfg.ToPipelineConfig()
			if sw > 0 && sh > 0 {
				pcfg.Screen = pipeline.Screen{Width: float64(sw), Height: float64(sh)}
			}

			reports := make(detectReports, 0, len(args))
			for _, path := range args {
				r, err := detectImage(cmd, pcfg, path, repeat)
				if err != nil {
					return err
				}
				reports = append(reports, r)
			}
			return writeOutput(cmd.OutOrStdout(), format, reports)
		},
	}

	cmd.Flags().StringVar(&screen, "screen", "", "map corners into a WxH view (cover fit)")
	cmd.Flags().IntVar(&repeat, "repeat", 0, "frames fed per image (default: stability detect_after)")
	cmd.Flags().String("format", outputFormatJSON, "output format (json, yaml, text)")
	return cmd
}

func detectImage(cmd *cobra.Command, cfg pipeline.Config, path string, repeat int) (detectReport, error) {
	img, err := utils.LoadImage(path)
	if err != nil {
		return detectReport{}, err
	}
	session, err := pipeline.NewBuilder().WithConfig(cfg).Build()
	if err != nil {
		return detectReport{}, err
	}

	report := detectReport{Image: path, Frames: repeat}
	for i := range repeat {
		res, ok := session.ProcessFrame(cmd.Context(), pipeline.FrameFromImage(img, uint64(i+1)))
		if !ok {
			continue
		}
		r := res
		report.Result = &r
		report.Stable = res.Stable
	}

	if report.Result != nil && len(report.Result.Corners) == 4 {
		shape := pipeline.CheckShape(report.Result.Corners)
		report.Shape = &shape
	}
	slog.Debug("Detect finished", "image", path, "stable", report.Stable, "session", session.ID())
	return report, nil
}
