package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "notescan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "NOTESCAN"

	// DotEnvFile is read from the working directory before environment binding.
	DotEnvFile = ".env"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v      *viper.Viper
	dotenv []string
}

// NewLoader creates a loader on the global viper instance so cobra flag
// bindings made in the root command are visible.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper(), dotenv: []string{DotEnvFile}}
}

// NewLoaderWithViper creates a loader on an isolated viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v, dotenv: []string{DotEnvFile}}
}

// WithDotEnv replaces the dotenv files consulted before env binding.
// Missing files are ignored; pass nothing to disable dotenv loading.
func (l *Loader) WithDotEnv(files ...string) *Loader {
	l.dotenv = files
	return l
}

// Load loads configuration from the search paths, environment variables
// and defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	return l.load("", true)
}

// LoadWithoutValidation is Load without the validation step.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	return l.load("", false)
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	return l.load(configFile, true)
}

// LoadWithFileWithoutValidation loads a specific file without validation.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	return l.load(configFile, false)
}

func (l *Loader) load(configFile string, validate bool) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing file is fine when searching; defaults and env still apply.
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if validate {
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return &config, nil
}

// loadDotEnv exports the dotenv entries into the process environment.
// Variables already set win, matching godotenv.Load.
func (l *Loader) loadDotEnv() error {
	var present []string
	for _, f := range l.dotenv {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("error loading %v: %w", present, err)
	}
	slog.Debug("Loaded dotenv files", "files", present)
	return nil
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) any {
	return l.v.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// NOTESCAN_SCAN_CROP_RATIO -> scan.crop_ratio
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	// Global settings
	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("log_format", d.LogFormat)
	l.v.SetDefault("verbose", d.Verbose)

	// Detector
	l.v.SetDefault("detector.min_area_ratio", d.Detector.MinAreaRatio)
	l.v.SetDefault("detector.max_area_ratio", d.Detector.MaxAreaRatio)
	l.v.SetDefault("detector.margin_ratio", d.Detector.MarginRatio)
	l.v.SetDefault("detector.max_portrait_aspect", d.Detector.MaxPortraitAspect)
	l.v.SetDefault("detector.binary_threshold", d.Detector.BinaryThreshold)
	l.v.SetDefault("detector.morph_kernel", d.Detector.MorphKernel)
	l.v.SetDefault("detector.canny_low", d.Detector.CannyLow)
	l.v.SetDefault("detector.canny_high", d.Detector.CannyHigh)
	l.v.SetDefault("detector.use_adaptive_mask", d.Detector.UseAdaptiveMask)
	l.v.SetDefault("detector.blur_threshold", d.Detector.BlurThreshold)

	// Exposure
	l.v.SetDefault("exposure.warmup_frames", d.Exposure.WarmupFrames)
	l.v.SetDefault("exposure.history_size", d.Exposure.HistorySize)
	l.v.SetDefault("exposure.max_offset", d.Exposure.MaxOffset)
	l.v.SetDefault("exposure.step", d.Exposure.Step)
	l.v.SetDefault("exposure.change_interval", d.Exposure.ChangeInterval)
	l.v.SetDefault("exposure.reactivate_after", d.Exposure.ReactivateAfter)

	l.v.SetDefault("stability.detect_after", d.Stability.DetectAfter)
	l.v.SetDefault("stability.lose_after", d.Stability.LoseAfter)

	// Pipeline
	l.v.SetDefault("pipeline.max_process_dimension", d.Pipeline.MaxProcessDimension)
	l.v.SetDefault("pipeline.screen_width", d.Pipeline.ScreenWidth)
	l.v.SetDefault("pipeline.screen_height", d.Pipeline.ScreenHeight)
	l.v.SetDefault("pipeline.debug", d.Pipeline.Debug)
	l.v.SetDefault("pipeline.debug_image_interval", d.Pipeline.DebugImageInterval)
	l.v.SetDefault("pipeline.skip_interval", d.Pipeline.SkipInterval)
	l.v.SetDefault("pipeline.result_buffer", d.Pipeline.ResultBuffer)
	l.v.SetDefault("pipeline.target_aspect", d.Pipeline.TargetAspect)
	l.v.SetDefault("pipeline.max_aspect_diff", d.Pipeline.MaxAspectDiff)
	l.v.SetDefault("pipeline.max_side_ratio", d.Pipeline.MaxSideRatio)

	// Scan
	l.v.SetDefault("scan.default_frame_width", d.Scan.DefaultFrameWidth)
	l.v.SetDefault("scan.default_frame_height", d.Scan.DefaultFrameHeight)
	l.v.SetDefault("scan.rotate_landscape", d.Scan.RotateLandscape)
	l.v.SetDefault("scan.crop_ratio", d.Scan.CropRatio)
	l.v.SetDefault("scan.border_ratio", d.Scan.BorderRatio)
	l.v.SetDefault("scan.bottom_crop_ratio", d.Scan.BottomCropRatio)
	l.v.SetDefault("scan.debug_strip", d.Scan.DebugStrip)
	l.v.SetDefault("scan.debug_dir", d.Scan.DebugDir)
	l.v.SetDefault("scan.language", d.Scan.Language)
	l.v.SetDefault("scan.workers", d.Scan.Workers)
	l.v.SetDefault("scan.dark_threshold", d.Scan.DarkThreshold)
	l.v.SetDefault("scan.select_ratio", d.Scan.SelectRatio)
	l.v.SetDefault("scan.qr_left_shift", d.Scan.QRLeftShift)
	l.v.SetDefault("scan.qr_right_shift_ratio", d.Scan.QRRightShiftRatio)
	l.v.SetDefault("scan.qr_right_shift", d.Scan.QRRightShift)
	l.v.SetDefault("scan.no_bounds_right_shift", d.Scan.NoBoundsRightShift)

	// Barcode
	l.v.SetDefault("barcode.enabled", d.Barcode.Enabled)
	l.v.SetDefault("barcode.max_dimension", d.Barcode.MaxDimension)
	l.v.SetDefault("barcode.try_harder", d.Barcode.TryHarder)
	l.v.SetDefault("barcode.tracker_detect_after", d.Barcode.TrackerDetectAfter)
	l.v.SetDefault("barcode.tracker_clear_after", d.Barcode.TrackerClearAfter)
	l.v.SetDefault("barcode.tracker_persist", d.Barcode.TrackerPersist.String())

	// Output
	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.quality", d.Output.Quality)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile writes the defaults to filename (notescan.yaml
// when empty). It uses a private viper so flag bindings do not leak in.
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoaderWithViper(viper.New())
	loader.setDefaults()

	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}

	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the paths where configuration files are
// searched, in priority order.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	return append(paths, "/etc/"+ConfigFileName)
}

// PrintConfigInfo prints information about configuration loading for debugging.
func (l *Loader) PrintConfigInfo() {
	fmt.Printf("Configuration file used: %s\n", l.GetConfigFileUsed())
	fmt.Printf("Configuration search paths: %v\n", GetConfigSearchPaths())
	fmt.Printf("Environment prefix: %s\n", EnvPrefix)
}
