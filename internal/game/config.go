package game

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/samdwyer/battleclock/internal/dex"
	"github.com/samdwyer/battleclock/internal/gamedata"
)

// Environment variables that override the config file.
const (
	EnvAPIKey       = "GEMINI_API_KEY"
	EnvSeed         = "BATTLECLOCK_SEED"
	EnvTurnInterval = "BATTLECLOCK_TURN_INTERVAL"
	EnvStatusAddr   = "BATTLECLOCK_STATUS_ADDR"
	EnvAssetDir     = "BATTLECLOCK_ASSET_DIR"
	EnvLogFile      = "BATTLECLOCK_LOG_FILE"
)

// DexConfig configures the descriptive entry service.
type DexConfig struct {
	Endpoint   string        `yaml:"endpoint"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries uint          `yaml:"max_retries"`
	APIKey     string        `yaml:"-"`
}

// PaletteConfig holds hex colours for the renderer.
type PaletteConfig struct {
	Background string `yaml:"background"`
	Text       string `yaml:"text"`
	HPHigh     string `yaml:"hp_high"`
	HPLow      string `yaml:"hp_low"`
}

// Config holds game configuration options.
type Config struct {
	// Seed for random number generation. Used for reproducible battles.
	// A seed of 0 means a random seed will be generated.
	Seed int64 `yaml:"seed"`

	TurnInterval  time.Duration `yaml:"turn_interval"`
	FrameInterval time.Duration `yaml:"frame_interval"`

	AssetDir   string `yaml:"asset_dir"`
	RosterFile string `yaml:"roster_file"` // Empty uses the embedded roster

	LogFile      string `yaml:"log_file"`
	LogVerbosity int    `yaml:"log_verbosity"`

	StatusAddr string `yaml:"status_addr"` // Empty disables the status server

	Dex     DexConfig     `yaml:"dex"`
	Palette PaletteConfig `yaml:"palette"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		TurnInterval:  DefaultTurnInterval,
		FrameInterval: 33 * time.Millisecond,
		AssetDir:      "assets",
		LogFile:       "battleclock.log",
		Dex: DexConfig{
			Endpoint:   dex.DefaultEndpoint,
			Model:      dex.DefaultModel,
			Timeout:    dex.DefaultTimeout,
			MaxRetries: dex.DefaultMaxRetries,
		},
		Palette: PaletteConfig{
			Background: gamedata.DefaultBackground,
			Text:       gamedata.DefaultText,
			HPHigh:     gamedata.DefaultHPHigh,
			HPLow:      gamedata.DefaultHPLow,
		},
	}
}

// LoadConfig builds the configuration: defaults, then the YAML file at path
// if one is given, then the environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overlays values found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIKey); ok {
		c.Dex.APIKey = v
	}
	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSeed, v, err)
		}
		c.Seed = seed
	}
	if v, ok := lookup(EnvTurnInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTurnInterval, v, err)
		}
		c.TurnInterval = d
	}
	if v, ok := lookup(EnvStatusAddr); ok {
		c.StatusAddr = v
	}
	if v, ok := lookup(EnvAssetDir); ok && v != "" {
		c.AssetDir = v
	}
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		c.LogFile = v
	}
	return nil
}

// Validate checks values that would stall or break the loop.
func (c Config) Validate() error {
	var errs []error
	if c.TurnInterval <= 0 {
		errs = append(errs, fmt.Errorf("turn_interval must be positive, got %v", c.TurnInterval))
	}
	if c.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("frame_interval must be positive, got %v", c.FrameInterval))
	}
	if c.LogVerbosity < 0 {
		errs = append(errs, fmt.Errorf("log_verbosity must not be negative, got %d", c.LogVerbosity))
	}
	if _, err := c.BuildPalette(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BuildPalette parses the configured colours.
func (c Config) BuildPalette() (gamedata.Palette, error) {
	return gamedata.NewPalette(c.Palette.Background, c.Palette.Text, c.Palette.HPHigh, c.Palette.HPLow)
}

// DexClientConfig converts the dex section for the client.
func (c Config) DexClientConfig() dex.Config {
	return dex.Config{
		Endpoint:   c.Dex.Endpoint,
		Model:      c.Dex.Model,
		APIKey:     c.Dex.APIKey,
		Timeout:    c.Dex.Timeout,
		MaxRetries: c.Dex.MaxRetries,
	}
}
