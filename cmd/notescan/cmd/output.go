package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/notescan/internal/utils"
	"gopkg.in/yaml.v3"
)

const (
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
	outputFormatText = "text"
)

// textWriter is implemented by reports with a human-readable form.
type textWriter interface {
	writeText(w io.Writer) error
}

// writeOutput renders v in the requested format.
func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case outputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case outputFormatText:
		if tw, ok := v.(textWriter); ok {
			return tw.writeText(w)
		}
		_, err := fmt.Fprintf(w, "%+v\n", v)
		return err
	default:
		return fmt.Errorf("invalid output format: %s (must be one of: %s, %s, %s)",
			format, outputFormatJSON, outputFormatYAML, outputFormatText)
	}
}

// parsePoints parses "x,y;x,y;...".
func parsePoints(s string) ([]utils.Point, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var pts []utils.Point
	for _, pair := range strings.Split(s, ";") {
		vals, err := parseFloats(pair, 2)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", pair, err)
		}
		pts = append(pts, utils.Point{X: vals[0], Y: vals[1]})
	}
	return pts, nil
}

// parseFloats parses exactly n comma separated numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma separated values, got %d", n, len(parts))
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseSize parses "WxH". An empty string yields zeros.
func parseSize(s string) (int, int, error) {
	if s == "" {
		return 0, 0, nil
	}
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	wi, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if wi < 0 || hi < 0 {
		return 0, 0, fmt.Errorf("invalid size %q: negative dimension", s)
	}
	return wi, hi, nil
}

func formatPoints(pts []utils.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	return strings.Join(parts, ";")
}
