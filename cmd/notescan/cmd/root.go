package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/notescan/internal/config"
	"github.com/MeKo-Tech/notescan/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// errFailed marks an error whose details were already printed; Execute only
// sets the exit code for it.
var errFailed = errors.New("failed")

// app carries the state shared by the commands of one root instance.
type app struct {
	v       *viper.Viper
	loader  *config.Loader
	cfgFile string
	cfg     *config.Config
}

// NewRootCommand builds the command tree. Each call gets its own viper
// instance, so commands can be executed repeatedly in-process.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	a := &app{v: v, loader: config.NewLoaderWithViper(v)}

	root := &cobra.Command{
		Use:   "notescan",
		Short: "Notebook cover detection and scan enhancement",
		Long: `notescan finds a notebook cover in camera frames, tracks it until it is
stable, and turns a captured photo into a clean, enhanced scan with the
selected icons of the cover's icon strip.

Examples:
  notescan scan photo.jpg --corners "120,80;980,90;990,1700;110,1690"
  notescan detect frame.png --repeat 5 --format yaml
  notescan replay ./frames --skip 2 --metrics-file notescan.prom`,
		Version:       version.Info().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(); err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr(), a.cfg)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is search in ., $HOME, $HOME/.config/notescan, /etc/notescan)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	mustBind(v, "verbose", pf.Lookup("verbose"))
	mustBind(v, "log_level", pf.Lookup("log-level"))
	mustBind(v, "log_format", pf.Lookup("log-format"))

	root.AddCommand(
		newScanCmd(a),
		newDetectCmd(a),
		newReplayCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		}
		os.Exit(1)
	}
}

func (a *app) load() error {
	if a.cfg != nil {
		return nil
	}
	cfg, err := a.loader.LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg
	return nil
}

// outputFormat prefers the command's --format flag over the configured format.
func (a *app) outputFormat(cmd *cobra.Command) (string, error) {
	format := a.cfg.Output.Format
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		format = f.Value.String()
	}
	switch format {
	case outputFormatJSON, outputFormatYAML, outputFormatText:
		return format, nil
	}
	return "", fmt.Errorf("invalid output format: %s (must be one of: %s, %s, %s)",
		format, outputFormatJSON, outputFormatYAML, outputFormatText)
}

func setupLogging(w io.Writer, cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	// stdout carries results, so logs go to stderr.
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
