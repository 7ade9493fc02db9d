// Package config provides configuration loading and management for geovis.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// PresetPoint is one control point of a user-defined transfer function preset
type PresetPoint struct {
	X     float64 `yaml:"x"`
	Color string  `yaml:"color"`
	A     float64 `yaml:"a"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// SEGY decoding parameters
	Decoder struct {
		// DefaultSampleInterval replaces a non-positive header sample interval (microseconds)
		DefaultSampleInterval int `yaml:"defaultSampleInterval"`

		// DefaultSampleCount replaces a non-positive header sample count
		DefaultSampleCount int `yaml:"defaultSampleCount"`

		// StrictHeader rejects non-positive header fields instead of substituting defaults
		StrictHeader bool `yaml:"strictHeader"`

		// TextEncoding is the textual header encoding, "ebcdic" or "ascii"
		TextEncoding string `yaml:"textEncoding"`
	} `yaml:"decoder"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for volume assembly
		NumCores int `yaml:"numCores"`

		// Bandpass filters traces before display; 0/0 disables
		Bandpass struct {
			LowHz   float64 `yaml:"lowHz"`
			HighHz  float64 `yaml:"highHz"`
			TaperHz float64 `yaml:"taperHz"`
		} `yaml:"bandpass"`
	} `yaml:"processing"`

	// DEM surface parameters
	DEM struct {
		// TargetResolution is the largest grid dimension kept after decimation
		TargetResolution int `yaml:"targetResolution"`

		// VerticalExaggeration scales the normalized elevation
		VerticalExaggeration float64 `yaml:"verticalExaggeration"`

		// ClipLowPercentile and ClipHighPercentile clip elevations on load; 0/0 disables
		ClipLowPercentile  float64 `yaml:"clipLowPercentile"`
		ClipHighPercentile float64 `yaml:"clipHighPercentile"`

		// FillNoData krige-fills cells flagged by the sidecar nodata value
		FillNoData bool `yaml:"fillNoData"`
	} `yaml:"dem"`

	// Variable-density parameters
	Density struct {
		// TargetResolution is the largest grid dimension kept after decimation
		TargetResolution int `yaml:"targetResolution"`

		// ClipPercentile clips |amplitude| at this percentile; 0 uses the max-abs clip
		ClipPercentile float64 `yaml:"clipPercentile"`
	} `yaml:"density"`

	// Variable-area (wiggle) parameters
	Wiggle struct {
		// Scale is the visual trace width before dividing by the trace count
		Scale float64 `yaml:"scale"`

		// MaxPoints bounds the vertices kept per trace
		MaxPoints int `yaml:"maxPoints"`

		// MaxTraces bounds the trace window for wiggle display
		MaxTraces int `yaml:"maxTraces"`
	} `yaml:"wiggle"`

	// Volume parameters
	Volume struct {
		// Slices is the number of gathers stacked along z
		Slices int `yaml:"slices"`

		// Stride is the trace offset between consecutive slices
		Stride int `yaml:"stride"`

		// SampleDecim keeps every n-th sample
		SampleDecim int `yaml:"sampleDecim"`

		// ClipFactor multiplies max |amplitude| to get the symmetric clip; 0 disables
		ClipFactor float64 `yaml:"clipFactor"`

		// SliceUpsample inserts linearly interpolated slices between stacked gathers
		SliceUpsample int `yaml:"sliceUpsample"`
	} `yaml:"volume"`

	// Transfer function parameters
	Transfer struct {
		// Preset is the initial preset name
		Preset string `yaml:"preset"`

		// CustomPresets adds named presets to the built-in library
		CustomPresets map[string][]PresetPoint `yaml:"customPresets"`
	} `yaml:"transfer"`

	// Output parameters
	Output struct {
		// Dir is where exported descriptors are written
		Dir string `yaml:"dir"`

		// CompressVolume zlib-compresses raw volume exports
		CompressVolume bool `yaml:"compressVolume"`

		// Verbose controls the level of console output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Decoder.DefaultSampleInterval = 1000
	cfg.Decoder.DefaultSampleCount = 128
	cfg.Decoder.StrictHeader = false
	cfg.Decoder.TextEncoding = "ebcdic"

	cfg.Processing.NumCores = runtime.NumCPU()
	cfg.Processing.Bandpass.TaperHz = 5

	cfg.DEM.TargetResolution = 300
	cfg.DEM.VerticalExaggeration = 0.35
	cfg.DEM.FillNoData = true

	cfg.Density.TargetResolution = 300

	cfg.Wiggle.Scale = 0.7
	cfg.Wiggle.MaxPoints = 800
	cfg.Wiggle.MaxTraces = 100

	cfg.Volume.Slices = 32
	cfg.Volume.Stride = 20
	cfg.Volume.SampleDecim = 2
	cfg.Volume.ClipFactor = 0.99
	cfg.Volume.SliceUpsample = 1

	cfg.Transfer.Preset = "CoolToWarm"

	cfg.Output.Dir = "geovis_output"
	cfg.Output.CompressVolume = true
	cfg.Output.Verbose = true

	cfg.Logging.Level = "info"

	return cfg
}

// Validate checks values that would make a build meaningless
func (c *Config) Validate() error {
	if c.Decoder.DefaultSampleInterval <= 0 {
		return fmt.Errorf("decoder.defaultSampleInterval must be positive, got %d", c.Decoder.DefaultSampleInterval)
	}
	if c.Decoder.DefaultSampleCount <= 0 {
		return fmt.Errorf("decoder.defaultSampleCount must be positive, got %d", c.Decoder.DefaultSampleCount)
	}
	if c.Processing.NumCores <= 0 {
		return fmt.Errorf("processing.numCores must be positive, got %d", c.Processing.NumCores)
	}
	if bp := c.Processing.Bandpass; bp.LowHz < 0 || bp.HighHz < 0 || bp.TaperHz < 0 || (bp.HighHz > 0 && bp.HighHz <= bp.LowHz) {
		return fmt.Errorf("processing.bandpass needs 0 <= lowHz < highHz and a non-negative taper, got %g..%g taper %g", bp.LowHz, bp.HighHz, bp.TaperHz)
	}
	if c.Density.ClipPercentile < 0 || c.Density.ClipPercentile > 100 {
		return fmt.Errorf("density.clipPercentile must be within [0,100], got %g", c.Density.ClipPercentile)
	}
	if c.DEM.ClipLowPercentile > c.DEM.ClipHighPercentile {
		return fmt.Errorf("dem clip percentiles out of order: %g > %g", c.DEM.ClipLowPercentile, c.DEM.ClipHighPercentile)
	}
	if c.Volume.ClipFactor < 0 || c.Volume.ClipFactor > 1 {
		return fmt.Errorf("volume.clipFactor must be within [0,1], got %g", c.Volume.ClipFactor)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
