// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Engine identifiers for the browser driver backends.
const (
	EngineChromedp   = "chromedp"
	EnginePlaywright = "playwright"
	EngineMock       = "mock"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Clicker ClickerConfig `mapstructure:"clicker" yaml:"clicker"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
	// Format selects "console" (colorized, human readable) or "json".
	Format      string `mapstructure:"format" yaml:"format"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`

	// LogFile enables an additional JSON file core with rotation.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`

	Colors ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls which driver backend is used and how the
// browser process is launched.
type BrowserConfig struct {
	// Engine is "chromedp", "playwright" or "mock".
	Engine   string `mapstructure:"engine" yaml:"engine"`
	Headless bool   `mapstructure:"headless" yaml:"headless"`
	// ExecutablePath points at a specific Chrome/Chromium binary.
	// Empty means the engine's own discovery is used.
	ExecutablePath string   `mapstructure:"executable_path" yaml:"executable_path"`
	Args           []string `mapstructure:"args" yaml:"args"`

	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// PostLoadWait is the quiet period applied after navigation before
	// the page is considered settled.
	PostLoadWait time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// ClickerConfig tunes the resilient click primitive.
type ClickerConfig struct {
	// Timeout is the per-attempt wait for the target to attach.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// MaxAttempts bounds the wait+click cycles per locator.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// SettleInterval is the pause between attach and click, letting
	// transient overlays and animations resolve.
	SettleInterval time.Duration `mapstructure:"settle_interval" yaml:"settle_interval"`
	// BackoffInterval is the fixed pause between failed attempts.
	BackoffInterval time.Duration `mapstructure:"backoff_interval" yaml:"backoff_interval"`
}

// ReportConfig controls where run reports are written.
type ReportConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// NewDefaultConfig returns a Config populated with sane defaults,
// matching what SetDefaults seeds into viper.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "limpet",
			MaxSize:     50,
			MaxBackups:  3,
			MaxAge:      14,
			Colors: ColorConfig{
				Debug: "cyan",
				Info:  "green",
				Warn:  "yellow",
				Error: "red",
				Fatal: "magenta",
			},
		},
		Browser: BrowserConfig{
			Engine:            EngineChromedp,
			Headless:          true,
			NavigationTimeout: 90 * time.Second,
			PostLoadWait:      500 * time.Millisecond,
		},
		Clicker: ClickerConfig{
			Timeout:         10 * time.Second,
			MaxAttempts:     3,
			SettleInterval:  250 * time.Millisecond,
			BackoffInterval: 500 * time.Millisecond,
		},
		Report: ReportConfig{
			Dir:    "reports",
			Pretty: true,
		},
	}
}

// SetDefaults registers every default value on the given viper
// instance so that config files and env vars only need to override
// what they care about.
func SetDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.service_name", d.Logger.ServiceName)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)
	v.SetDefault("logger.colors.debug", d.Logger.Colors.Debug)
	v.SetDefault("logger.colors.info", d.Logger.Colors.Info)
	v.SetDefault("logger.colors.warn", d.Logger.Colors.Warn)
	v.SetDefault("logger.colors.error", d.Logger.Colors.Error)
	v.SetDefault("logger.colors.fatal", d.Logger.Colors.Fatal)

	v.SetDefault("browser.engine", d.Browser.Engine)
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.navigation_timeout", d.Browser.NavigationTimeout)
	v.SetDefault("browser.post_load_wait", d.Browser.PostLoadWait)

	v.SetDefault("clicker.timeout", d.Clicker.Timeout)
	v.SetDefault("clicker.max_attempts", d.Clicker.MaxAttempts)
	v.SetDefault("clicker.settle_interval", d.Clicker.SettleInterval)
	v.SetDefault("clicker.backoff_interval", d.Clicker.BackoffInterval)

	v.SetDefault("report.dir", d.Report.Dir)
	v.SetDefault("report.pretty", d.Report.Pretty)
}

// Load unmarshals the viper state into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the rest of the
// application cannot work with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Browser.Engine) {
	case EngineChromedp, EnginePlaywright, EngineMock:
	default:
		return fmt.Errorf("unknown browser engine %q (supported: %s, %s, %s)",
			c.Browser.Engine, EngineChromedp, EnginePlaywright, EngineMock)
	}

	if c.Clicker.Timeout <= 0 {
		return fmt.Errorf("clicker.timeout must be positive, got %s", c.Clicker.Timeout)
	}
	if c.Clicker.MaxAttempts < 1 {
		return fmt.Errorf("clicker.max_attempts must be at least 1, got %d", c.Clicker.MaxAttempts)
	}
	if c.Clicker.SettleInterval < 0 || c.Clicker.BackoffInterval < 0 {
		return fmt.Errorf("clicker intervals must not be negative")
	}

	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown logger format %q (supported: console, json)", c.Logger.Format)
	}

	return nil
}
