package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MeKo-Tech/notescan/internal/barcode"
	"github.com/MeKo-Tech/notescan/internal/scan"
	"github.com/MeKo-Tech/notescan/internal/utils"
	"github.com/spf13/cobra"
)

// scanReport is the printed outcome of one scan.
type scanReport struct {
	scan.Result `yaml:",inline"`

	Photo  string `json:"photo" yaml:"photo"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	PDF    string `json:"pdf,omitempty" yaml:"pdf,omitempty"`

	lang string
}

func (r scanReport) writeText(w io.Writer) error {
	if !r.Success {
		_, err := fmt.Fprintf(w, "%s: scan failed: %s\n", r.Photo, r.Error)
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %dx%d scan, light %s (brightness %d, boost %d) in %v\n",
		r.Photo, r.Width, r.Height, r.Light, r.Brightness, r.Boost, r.Duration)
	if len(r.SelectedIcons) == 0 {
		b.WriteString("  no icons selected\n")
	}
	for _, idx := range r.SelectedIcons {
		name := "unnamed"
		if names := scan.IconNames([]int{idx}, r.lang); len(names) == 1 {
			name = names[0]
		}
		ratio := 0.0
		if idx < len(r.DarkPixelRatios) {
			ratio = r.DarkPixelRatios[idx]
		}
		fmt.Fprintf(&b, "  icon %d %s (dark %.4f)\n", idx, name, ratio)
	}
	if r.Output != "" {
		fmt.Fprintf(&b, "  saved %s\n", r.Output)
	}
	if r.PDF != "" {
		fmt.Fprintf(&b, "  saved %s\n", r.PDF)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newScanCmd(a *app) *cobra.Command {
	var (
		corners   string
		frameSize string
		qrSide    string
		qrBounds  string
		outPath   string
		pdfPath   string
	)

	cmd := &cobra.Command{
		Use:   "scan PHOTO",
		Short: "Rectify and enhance a captured notebook photo",
		Long: `Unwarp the document outlined by --corners, enhance it and classify the
icon strip along its bottom edge.

Corners are given in the full-resolution frame rotated to portrait, which
is what "detect" reports as processed_corners. When the photo has a
different resolution the corners are rescaled using --frame-size, the
native (landscape) frame size.

Examples:
  notescan scan photo.jpg --corners "120,80;980,90;990,1700;110,1690"
  notescan scan photo.jpg --corners "..." --qr-side left --out scan.png --pdf scan.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := a.outputFormat(cmd)
			if err != nil {
				return err
			}
			req, err := buildScanRequest(args[0], corners, frameSize, qrSide, qrBounds)
			if err != nil {
				return err
			}

			scanner, err := scan.New(a.cfg.ToScanConfig())
			if err != nil {
				return err
			}

			res := scanner.Scan(cmd.Context(), req)
			report := scanReport{Result: res, Photo: args[0], lang: a.cfg.Scan.Language}
			if res.Success {
				if outPath != "" {
					if err := utils.SaveImage(outPath, res.Image, a.cfg.Output.Quality); err != nil {
						return err
					}
					report.Output = outPath
				}
				if pdfPath != "" {
					if err := scan.WritePDF(pdfPath, res.Image); err != nil {
						return err
					}
					report.PDF = pdfPath
				}
			}

			if err := writeOutput(cmd.OutOrStdout(), format, report); err != nil {
				return err
			}
			if !res.Success {
				slog.Error("Scan failed", "photo", args[0], "error", res.Error)
				return errFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&corners, "corners", "", `document corners "x,y;x,y;x,y;x,y"`)
	f.StringVar(&frameSize, "frame-size", "", "native frame size WxH the corners refer to (default from config)")
	f.StringVar(&qrSide, "qr-side", "", "document side carrying the QR code (left, right)")
	f.StringVar(&qrBounds, "qr-bounds", "", "QR bounds left,top,width,height in frame coordinates")
	f.StringVar(&outPath, "out", "", "write the enhanced scan to this PNG/JPEG file")
	f.StringVar(&pdfPath, "pdf", "", "write the enhanced scan as a single-page PDF")
	f.String("format", outputFormatJSON, "output format (json, yaml, text)")
	f.String("lang", "en", "icon name language (en, hu)")
	_ = cmd.MarkFlagRequired("corners")
	mustBind(a.v, "scan.language", f.Lookup("lang"))

	return cmd
}

func buildScanRequest(photoPath, corners, frameSize, qrSide, qrBounds string) (scan.Request, error) {
	pts, err := parsePoints(corners)
	if err != nil {
		return scan.Request{}, fmt.Errorf("--corners: %w", err)
	}
	w, h, err := parseSize(frameSize)
	if err != nil {
		return scan.Request{}, fmt.Errorf("--frame-size: %w", err)
	}
	side, err := barcode.ParseSide(qrSide)
	if err != nil {
		return scan.Request{}, fmt.Errorf("--qr-side: %w", err)
	}

	req := scan.Request{Corners: pts, QRSide: side, FrameWidth: w, FrameHeight: h}
	if qrBounds != "" {
		v, err := parseFloats(qrBounds, 4)
		if err != nil {
			return scan.Request{}, fmt.Errorf("--qr-bounds: %w", err)
		}
		req.QRBounds = &barcode.Bounds{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}
	}

	photo, err := os.ReadFile(photoPath) //nolint:gosec // G304: user supplied input path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return scan.Request{}, fmt.Errorf("photo not found: %s", photoPath)
		}
		return scan.Request{}, fmt.Errorf("reading photo: %w", err)
	}
	req.Photo = photo
	return req, nil
}
