package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// StepperConfig holds the A4988 wiring (BCM pin numbers).
type StepperConfig struct {
	DirPin      int `yaml:"dir_pin"`
	StepPin     int `yaml:"step_pin"`
	EnablePin   int `yaml:"enable_pin"` // 0 = not used. Active LOW.
	MS1Pin      int `yaml:"ms1_pin"`
	MS2Pin      int `yaml:"ms2_pin"`
	MS3Pin      int `yaml:"ms3_pin"`
	StepsPerRev int `yaml:"steps_per_rev"`
	Microsteps  int `yaml:"microsteps"` // fine resolution used for partial steps
}

// MotionConfig holds the conversion and pulse timing parameters.
type MotionConfig struct {
	DegreesPerStep float64 `yaml:"degrees_per_step"`
	FastThreshold  int     `yaml:"fast_threshold"`  // full steps above this use the normal delay
	NormalDelayUs  int     `yaml:"normal_delay_us"` // half-period for long full-step runs
	LongDelayUs    int     `yaml:"long_delay_us"`   // half-period for short runs and partial steps
}

// NetworkConfig describes how the controller is reached.
type NetworkConfig struct {
	Hostname string `yaml:"hostname"` // mDNS instance name
	Port     int    `yaml:"port"`
	Service  string `yaml:"service"` // mDNS service type
	MDNS     bool   `yaml:"mdns"`    // register on the local network
}

// DefaultsConfig contains generic runtime parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // 0=off, 1=info, 2=live, 3=verbose, 4=trace
	MockGPIO   bool `yaml:"mock_gpio"`   // true=dev/test, false=real Raspberry Pi
}

// Config aggregates the controller configuration.
type Config struct {
	Stepper  StepperConfig  `yaml:"stepper"`
	Motion   MotionConfig   `yaml:"motion"`
	Network  NetworkConfig  `yaml:"network"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath accepts only .yaml files inside a configs/ directory.
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Ext(abs) != ".yaml" {
		return fmt.Errorf("config file must have .yaml extension: %s", path)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config file must be inside a configs/ directory: %s", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration with defaults applied.
func Load(path string) (*Config, error) {
	if err := ValidateConfigPath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration for the stock board wiring.
func Default() *Config {
	var cfg Config
	_ = cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() error {
	s := &c.Stepper
	if s.DirPin == 0 && s.StepPin == 0 {
		s.DirPin = 19
		s.StepPin = 18
		s.EnablePin = 4
		s.MS1Pin = 16
		s.MS2Pin = 17
		s.MS3Pin = 5
	}
	if s.DirPin <= 0 || s.StepPin <= 0 {
		return fmt.Errorf("stepper.dir_pin and stepper.step_pin must be > 0")
	}
	if s.DirPin == s.StepPin {
		return fmt.Errorf("stepper.dir_pin and stepper.step_pin must differ, both %d", s.DirPin)
	}
	if s.StepsPerRev <= 0 {
		s.StepsPerRev = 200
	}
	switch s.Microsteps {
	case 0:
		s.Microsteps = 16
	case 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("stepper.microsteps must be 1, 2, 4, 8 or 16, got %d", s.Microsteps)
	}

	m := &c.Motion
	if m.DegreesPerStep < 0 {
		return fmt.Errorf("motion.degrees_per_step must be > 0, got %.3f", m.DegreesPerStep)
	}
	if m.DegreesPerStep == 0 {
		m.DegreesPerStep = 360.0 / float64(s.StepsPerRev)
	}
	if m.FastThreshold <= 0 {
		m.FastThreshold = 50
	}
	if m.NormalDelayUs < 0 || m.LongDelayUs < 0 {
		return fmt.Errorf("motion delays must be >= 0")
	}
	if m.NormalDelayUs == 0 {
		m.NormalDelayUs = 1000
	}
	if m.LongDelayUs == 0 {
		m.LongDelayUs = 5000
	}

	n := &c.Network
	if n.Hostname == "" {
		n.Hostname = "magloopcontroller"
	}
	if n.Port == 0 {
		n.Port = 80
	}
	if n.Port < 0 || n.Port > 65535 {
		return fmt.Errorf("network.port must be 1-65535, got %d", n.Port)
	}
	if n.Service == "" {
		n.Service = "_http._tcp"
	}

	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be 0-4, got %d", c.Defaults.DebugLevel)
	}
	return nil
}

// NormalDelay returns the half-period for long full-step runs.
func (c *Config) NormalDelay() time.Duration {
	return time.Duration(c.Motion.NormalDelayUs) * time.Microsecond
}

// LongDelay returns the half-period for short runs and partial steps.
func (c *Config) LongDelay() time.Duration {
	return time.Duration(c.Motion.LongDelayUs) * time.Microsecond
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Network.Port)
}
