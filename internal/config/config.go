// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides (VVPROBE_PROBE_SAMPLES, ...).
const EnvPrefix = "VVPROBE"

// Config holds the entire application configuration.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Device     DeviceConfig     `mapstructure:"device" yaml:"device"`
	Correction CorrectionConfig `mapstructure:"correction" yaml:"correction"`
	Probe      ProbeConfig      `mapstructure:"probe" yaml:"probe"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	DisableCache      bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors   bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// DeviceConfig describes the device emulated in the page.
type DeviceConfig struct {
	Width             int64   `mapstructure:"width" yaml:"width"`
	Height            int64   `mapstructure:"height" yaml:"height"`
	DeviceScaleFactor float64 `mapstructure:"device_scale_factor" yaml:"device_scale_factor"`
	Mobile            bool    `mapstructure:"mobile" yaml:"mobile"`
	Touch             bool    `mapstructure:"touch" yaml:"touch"`
	UserAgent         string  `mapstructure:"user_agent" yaml:"user_agent"`
}

// Enabled reports whether a device override should be applied at all.
func (d DeviceConfig) Enabled() bool {
	return d.Width > 0 && d.Height > 0
}

// Mobile engine selection modes.
const (
	MobileEngineAuto  = "auto"
	MobileEngineTrue  = "true"
	MobileEngineFalse = "false"
)

// CorrectionConfig selects the viewport corrections.
type CorrectionConfig struct {
	ClampOffsets     bool `mapstructure:"clamp_offsets" yaml:"clamp_offsets"`
	ResizeDimensions bool `mapstructure:"resize_dimensions" yaml:"resize_dimensions"`
	// MobileEngine is "auto" (user agent heuristic), "true" or "false".
	MobileEngine string `mapstructure:"mobile_engine" yaml:"mobile_engine"`
	// RespectCapability turns the corrections off on engines that do not
	// report overscroll through their scroll positions.
	RespectCapability bool `mapstructure:"respect_capability" yaml:"respect_capability"`
}

// MobileOverride returns the forced mobile engine value, if one is configured.
func (c CorrectionConfig) MobileOverride() (mobile bool, forced bool) {
	// A YAML boolean arrives here as "1" or "0" after weak decoding.
	switch strings.ToLower(c.MobileEngine) {
	case MobileEngineTrue, "1":
		return true, true
	case MobileEngineFalse, "0":
		return false, true
	default:
		return false, false
	}
}

// ProbeConfig controls how often the page is sampled.
type ProbeConfig struct {
	Samples      int           `mapstructure:"samples" yaml:"samples"`
	Interval     time.Duration `mapstructure:"interval" yaml:"interval"`
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
	// AutoTick is the fallback sampling period in watch mode. Zero disables it.
	AutoTick time.Duration `mapstructure:"auto_tick" yaml:"auto_tick"`
	// NotifyRate caps the samples per second triggered by scroll/resize events.
	// Zero means unlimited.
	NotifyRate float64 `mapstructure:"notify_rate" yaml:"notify_rate"`
	// LayoutProbe injects a fixed 100%x100% element to measure the layout viewport.
	LayoutProbe bool `mapstructure:"layout_probe" yaml:"layout_probe"`
	ApplyCSS    bool `mapstructure:"apply_css" yaml:"apply_css"`
}

// OutputConfig selects the report format and destination.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration parameter.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "vvprobe")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "60s")

	// -- Device -- (iPhone-sized portrait viewport)
	v.SetDefault("device.width", 390)
	v.SetDefault("device.height", 844)
	v.SetDefault("device.device_scale_factor", 3.0)
	v.SetDefault("device.mobile", true)
	v.SetDefault("device.touch", true)

	// -- Correction --
	v.SetDefault("correction.clamp_offsets", false)
	v.SetDefault("correction.resize_dimensions", false)
	v.SetDefault("correction.mobile_engine", MobileEngineAuto)
	v.SetDefault("correction.respect_capability", true)

	// -- Probe --
	v.SetDefault("probe.samples", 1)
	v.SetDefault("probe.interval", "500ms")
	v.SetDefault("probe.initial_delay", "100ms")
	v.SetDefault("probe.auto_tick", "0s")
	v.SetDefault("probe.notify_rate", 30.0)
	v.SetDefault("probe.layout_probe", true)
	v.SetDefault("probe.apply_css", false)

	// -- Output --
	v.SetDefault("output.format", "json")
	v.SetDefault("output.path", "-")
}

// BindEnvironment enables VVPROBE_* environment overrides on v.
func BindEnvironment(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Device.Validate(); err != nil {
		return fmt.Errorf("device configuration invalid: %w", err)
	}
	if err := c.Correction.Validate(); err != nil {
		return fmt.Errorf("correction configuration invalid: %w", err)
	}
	if err := c.Probe.Validate(); err != nil {
		return fmt.Errorf("probe configuration invalid: %w", err)
	}
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the device override.
func (d *DeviceConfig) Validate() error {
	if d.Width < 0 || d.Height < 0 {
		return fmt.Errorf("width and height must not be negative")
	}
	if d.Enabled() && d.DeviceScaleFactor < 0 {
		return fmt.Errorf("device_scale_factor must not be negative")
	}
	return nil
}

// Validate checks the correction settings.
func (c *CorrectionConfig) Validate() error {
	switch strings.ToLower(c.MobileEngine) {
	case MobileEngineAuto, MobileEngineTrue, MobileEngineFalse, "1", "0":
		return nil
	default:
		return fmt.Errorf("mobile_engine must be one of auto, true, false (got %q)", c.MobileEngine)
	}
}

// Validate checks the sampling settings.
func (p *ProbeConfig) Validate() error {
	if p.Samples <= 0 {
		return fmt.Errorf("samples must be a positive integer")
	}
	if p.Samples > 1 && p.Interval <= 0 {
		return fmt.Errorf("interval must be a positive duration when taking more than one sample")
	}
	if p.InitialDelay < 0 || p.AutoTick < 0 {
		return fmt.Errorf("initial_delay and auto_tick must not be negative")
	}
	if p.NotifyRate < 0 {
		return fmt.Errorf("notify_rate must not be negative (0 means unlimited)")
	}
	return nil
}
