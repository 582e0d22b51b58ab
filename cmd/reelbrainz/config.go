package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for reelbrainz.
//
// Precedence, lowest first: DefaultConfig, config file, REELBRAINZ_* environment
// variables, command-line flags. Validate runs once at the end so the rest of
// the code can assume a well-formed config.
type Config struct {
	// Actuation controller tuning
	Controller ControllerFileConfig `yaml:"controller"`

	// Detection sample source
	Sampler SamplerConfig `yaml:"sampler"`

	// Calibrated screen region (consumed by the sampling side only)
	Region RegionConfig `yaml:"region"`

	// Input injection backend
	Actuator ActuatorConfig `yaml:"actuator"`

	// Session stop controls
	Stop StopConfig `yaml:"stop"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ControllerFileConfig is the user-facing controller configuration.
//
// It maps 1:1 to ControllerConfig but uses YAML-friendly units (milliseconds
// as floats, since the default cooldown is below one millisecond resolution).
type ControllerFileConfig struct {
	Mode string `yaml:"mode"` // "hysteresis" or "pulse"

	Threshold  float64 `yaml:"threshold"`
	CooldownMS float64 `yaml:"cooldown_ms"`

	// Pulse mode only:
	MinHoldMS        float64 `yaml:"min_hold_ms"`
	MaxHoldMS        float64 `yaml:"max_hold_ms"`
	SaturationOffset float64 `yaml:"saturation_offset"`

	Button string `yaml:"button"`
}

type SamplerConfig struct {
	TraceFile string `yaml:"trace_file"`
	PollHz    int    `yaml:"poll_hz"`
	Loop      bool   `yaml:"loop"`
}

type RegionConfig struct {
	Region       `yaml:",inline"`
	VerifyBounds bool `yaml:"check_bounds"`
}

type ActuatorConfig struct {
	Backend string `yaml:"backend"` // "robotgo" or "dryrun"
}

type StopConfig struct {
	Hotkey  []string `yaml:"hotkey"`   // gohook key combo; empty disables
	Devices []string `yaml:"devices"`  // Linux evdev devices watched for KeyCode
	KeyCode int      `yaml:"key_code"` // evdev key code that stops the session
}

type MetricsConfig struct {
	Listen string `yaml:"listen"` // e.g. "127.0.0.1:9464"; empty disables
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

const (
	actuatorBackendRobotgo = "robotgo"
	actuatorBackendDryRun  = "dryrun"
)

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go.
func DefaultConfig() Config {
	return Config{
		Controller: ControllerFileConfig{
			Mode:             string(ControllerModeHysteresis),
			Threshold:        defaultThreshold,
			CooldownMS:       defaultCooldownMS,
			MinHoldMS:        defaultMinHoldMS,
			MaxHoldMS:        defaultMaxHoldMS,
			SaturationOffset: defaultSaturationOffset,
			Button:           defaultButton,
		},
		Sampler: SamplerConfig{
			PollHz: defaultPollHz,
		},
		Region: RegionConfig{
			VerifyBounds: true,
		},
		Actuator: ActuatorConfig{
			Backend: actuatorBackendRobotgo,
		},
		Stop: StopConfig{
			Hotkey:  append([]string(nil), defaultStopHotkey...),
			KeyCode: KEY_ESC,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of DefaultConfig.
// Unknown fields are rejected to catch typos.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace/comments are allowed after the document.
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// Overrides carries values set on the command line or in the environment.
// A nil field is left alone; a non-nil field is applied even if it holds the
// zero value.
type Overrides struct {
	ControllerMode   *string  `env:"REELBRAINZ_CONTROLLER_MODE"`
	Threshold        *float64 `env:"REELBRAINZ_THRESHOLD"`
	CooldownMS       *float64 `env:"REELBRAINZ_COOLDOWN_MS"`
	MinHoldMS        *float64 `env:"REELBRAINZ_MIN_HOLD_MS"`
	MaxHoldMS        *float64 `env:"REELBRAINZ_MAX_HOLD_MS"`
	SaturationOffset *float64 `env:"REELBRAINZ_SATURATION_OFFSET"`
	Button           *string  `env:"REELBRAINZ_BUTTON"`

	TraceFile *string `env:"REELBRAINZ_TRACE_FILE"`
	PollHz    *int    `env:"REELBRAINZ_POLL_HZ"`
	Loop      *bool   `env:"REELBRAINZ_LOOP"`

	ActuatorBackend *string `env:"REELBRAINZ_ACTUATOR"`

	MetricsListen *string `env:"REELBRAINZ_METRICS_LISTEN"`

	LogLevel *string `env:"REELBRAINZ_LOG_LEVEL"`
}

// parseEnvOverrides reads REELBRAINZ_* variables. Unset variables stay nil.
func parseEnvOverrides() (Overrides, error) {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return Overrides{}, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// Apply merges the overrides into cfg.
func (o Overrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}

	if o.ControllerMode != nil {
		cfg.Controller.Mode = *o.ControllerMode
	}
	if o.Threshold != nil {
		cfg.Controller.Threshold = *o.Threshold
	}
	if o.CooldownMS != nil {
		cfg.Controller.CooldownMS = *o.CooldownMS
	}
	if o.MinHoldMS != nil {
		cfg.Controller.MinHoldMS = *o.MinHoldMS
	}
	if o.MaxHoldMS != nil {
		cfg.Controller.MaxHoldMS = *o.MaxHoldMS
	}
	if o.SaturationOffset != nil {
		cfg.Controller.SaturationOffset = *o.SaturationOffset
	}
	if o.Button != nil {
		cfg.Controller.Button = *o.Button
	}

	if o.TraceFile != nil {
		cfg.Sampler.TraceFile = *o.TraceFile
	}
	if o.PollHz != nil {
		cfg.Sampler.PollHz = *o.PollHz
	}
	if o.Loop != nil {
		cfg.Sampler.Loop = *o.Loop
	}

	if o.ActuatorBackend != nil {
		cfg.Actuator.Backend = *o.ActuatorBackend
	}

	if o.MetricsListen != nil {
		cfg.Metrics.Listen = *o.MetricsListen
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// It is called after defaults, file, environment and flags are applied.
func (c *Config) Validate() error {
	// Controller
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"controller.threshold", c.Controller.Threshold},
		{"controller.cooldown_ms", c.Controller.CooldownMS},
		{"controller.min_hold_ms", c.Controller.MinHoldMS},
		{"controller.max_hold_ms", c.Controller.MaxHoldMS},
		{"controller.saturation_offset", c.Controller.SaturationOffset},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
	}

	mode := c.Controller.Mode
	if mode == "" {
		mode = string(ControllerModeHysteresis)
	}
	if mode != string(ControllerModeHysteresis) && mode != string(ControllerModePulse) {
		return fmt.Errorf("controller.mode must be %q or %q", ControllerModeHysteresis, ControllerModePulse)
	}
	if c.Controller.Threshold < 0 {
		return errors.New("controller.threshold must be >= 0")
	}
	if c.Controller.CooldownMS < 0 {
		return errors.New("controller.cooldown_ms must be >= 0")
	}
	if c.Controller.MinHoldMS < 0 {
		return errors.New("controller.min_hold_ms must be >= 0")
	}
	if c.Controller.MaxHoldMS < c.Controller.MinHoldMS {
		return errors.New("controller.max_hold_ms must be >= controller.min_hold_ms")
	}
	if c.Controller.MaxHoldMS > maxPulseHoldMS {
		return fmt.Errorf("controller.max_hold_ms must be <= %.0f", maxPulseHoldMS)
	}
	if c.Controller.SaturationOffset <= 0 {
		return errors.New("controller.saturation_offset must be > 0")
	}
	if _, err := parseButton(c.Controller.Button); err != nil {
		return fmt.Errorf("controller.button: %w", err)
	}

	// Sampler
	if c.Sampler.PollHz <= 0 || c.Sampler.PollHz > maxPollHz {
		return fmt.Errorf("sampler.poll_hz must be between 1 and %d", maxPollHz)
	}

	// Region: all zero means "not calibrated", which is allowed for trace replay.
	if c.Region.Region != (Region{}) {
		if err := c.Region.Region.Validate(); err != nil {
			return err
		}
	}

	// Actuator
	switch c.Actuator.Backend {
	case actuatorBackendRobotgo, actuatorBackendDryRun:
	default:
		return fmt.Errorf("actuator.backend must be %q or %q", actuatorBackendRobotgo, actuatorBackendDryRun)
	}

	// Stop
	for i, dev := range c.Stop.Devices {
		if dev == "" {
			return fmt.Errorf("stop.devices[%d] is empty", i)
		}
	}
	if len(c.Stop.Devices) > 0 && c.Stop.KeyCode <= 0 {
		return errors.New("stop.key_code must be > 0 when stop.devices is set")
	}

	// Logging
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// ToControllerConfig converts the file config into the controller's config.
func (c *Config) ToControllerConfig() ControllerConfig {
	mode := ControllerMode(c.Controller.Mode)
	if mode == "" {
		mode = ControllerModeHysteresis
	}
	return ControllerConfig{
		Mode:             mode,
		Threshold:        c.Controller.Threshold,
		Cooldown:         msToDuration(c.Controller.CooldownMS),
		MinHold:          msToDuration(c.Controller.MinHoldMS),
		MaxHold:          msToDuration(c.Controller.MaxHoldMS),
		SaturationOffset: c.Controller.SaturationOffset,
		Button:           Button(c.Controller.Button),
	}
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
