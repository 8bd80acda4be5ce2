package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zortness/mag-loop-controller/internal/discovery"
	"github.com/zortness/mag-loop-controller/internal/remote/hostcache"
	"github.com/zortness/mag-loop-controller/internal/remote/session"
)

const envPrefix = "MAGLOOP_REMOTE"

var (
	defaultHosts  = []string{"magloopcontroller20", "magloopcontroller40"}
	defaultAngles = []float64{3.6, 5.0, 7.2, 10.0, 15.0, 30.0, 45.0, 90.0, 180.0}
)

type buttonPins struct {
	A int `mapstructure:"a"`
	B int `mapstructure:"b"`
	C int `mapstructure:"c"`
}

type buttonsConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Mock      bool          `mapstructure:"mock"`
	ActiveLow bool          `mapstructure:"active-low"`
	Pins      buttonPins    `mapstructure:"pins"`
	Hold      time.Duration `mapstructure:"hold"`
	LongPress time.Duration `mapstructure:"long-press"`
	Poll      time.Duration `mapstructure:"poll"`
}

// remoteConfig holds the handheld remote's settings.
type remoteConfig struct {
	Hostname       string        `mapstructure:"hostname"`
	Hosts          []string      `mapstructure:"hosts"`
	Angles         []float64     `mapstructure:"angles"`
	AngleIndex     int           `mapstructure:"angle-index"`
	ControllerPort int           `mapstructure:"controller-port"`
	Service        string        `mapstructure:"service"`
	HostCacheTTL   time.Duration `mapstructure:"host-cache-ttl"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	ResolveTimeout time.Duration `mapstructure:"resolve-timeout"`
	Settle         time.Duration `mapstructure:"settle"`
	Interface      string        `mapstructure:"interface"`
	LinkTimeout    time.Duration `mapstructure:"link-timeout"`
	LinkRetry      time.Duration `mapstructure:"link-retry"`
	PollInterval   time.Duration `mapstructure:"poll-interval"`
	DebugLevel     int           `mapstructure:"debug-level"`
	LogFile        string        `mapstructure:"log-file"`
	Buttons        buttonsConfig `mapstructure:"buttons"`
}

func loadRemoteConfig(configPath string) (remoteConfig, error) {
	var cfg remoteConfig

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("hostname", "magloopremote")
	v.SetDefault("hosts", defaultHosts)
	v.SetDefault("angles", defaultAngles)
	v.SetDefault("angle-index", 4)
	v.SetDefault("controller-port", 80)
	v.SetDefault("service", discovery.DefaultService)
	v.SetDefault("host-cache-ttl", hostcache.DefaultTTL)
	v.SetDefault("request-timeout", 5*time.Second)
	v.SetDefault("resolve-timeout", 2*time.Second)
	v.SetDefault("settle", 250*time.Millisecond)
	v.SetDefault("interface", "")
	v.SetDefault("link-timeout", 10*time.Second)
	v.SetDefault("link-retry", session.DefaultRetry)
	v.SetDefault("poll-interval", 100*time.Millisecond)
	v.SetDefault("debug-level", 1)
	v.SetDefault("log-file", "magloop-remote.log")
	v.SetDefault("buttons.enabled", false)
	v.SetDefault("buttons.mock", false)
	v.SetDefault("buttons.active-low", true)
	v.SetDefault("buttons.pins.a", 23)
	v.SetDefault("buttons.pins.b", 24)
	v.SetDefault("buttons.pins.c", 25)
	v.SetDefault("buttons.hold", 100*time.Millisecond)
	v.SetDefault("buttons.long-press", time.Second)
	v.SetDefault("buttons.poll", 10*time.Millisecond)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("remote")
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "magloop"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c remoteConfig) validate() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("hosts must list at least one controller")
	}
	for i, h := range c.Hosts {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("hosts[%d] is empty", i)
		}
	}
	if len(c.Angles) == 0 {
		return fmt.Errorf("angles must list at least one preset")
	}
	for i, a := range c.Angles {
		if math.IsNaN(a) || math.IsInf(a, 0) || a <= 0 {
			return fmt.Errorf("angles[%d] must be a positive number, got %g", i, a)
		}
	}
	if c.AngleIndex < 0 || c.AngleIndex >= len(c.Angles) {
		return fmt.Errorf("angle-index must be 0-%d, got %d", len(c.Angles)-1, c.AngleIndex)
	}
	if c.ControllerPort <= 0 || c.ControllerPort > 65535 {
		return fmt.Errorf("controller-port must be 1-65535, got %d", c.ControllerPort)
	}
	if c.DebugLevel < 0 || c.DebugLevel > 4 {
		return fmt.Errorf("debug-level must be 0-4, got %d", c.DebugLevel)
	}
	if c.Buttons.Enabled {
		p := c.Buttons.Pins
		if p.A <= 0 || p.B <= 0 || p.C <= 0 {
			return fmt.Errorf("buttons.pins must all be > 0, got %+v", p)
		}
		if p.A == p.B || p.B == p.C || p.A == p.C {
			return fmt.Errorf("buttons.pins must differ, got %+v", p)
		}
	}
	return nil
}
