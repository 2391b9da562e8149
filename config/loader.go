package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized as overrides. Secrets (token, webhook URL)
// are expected to arrive this way rather than sitting in config.yml.
var envOverrides = []struct {
	name  string
	apply func(*AppConfig, string)
}{
	{"GTFS_STATIC_URL", func(c *AppConfig, v string) { c.GTFS.StaticURL = v }},
	{"CFF_ID", func(c *AppConfig, v string) { c.GTFS.AgencyID = v }},
	{"GTFS_RT_URL", func(c *AppConfig, v string) { c.GTFSRT.FeedURL = v }},
	{"GTFS_RT_ALERTS_URL", func(c *AppConfig, v string) { c.GTFSRT.AlertsURL = v }},
	{"TOKEN", func(c *AppConfig, v string) { c.GTFSRT.Token = v }},
	{"LINE_NAME", func(c *AppConfig, v string) { c.Line.Name = v }},
	{"STOP_ID", func(c *AppConfig, v string) { c.Line.StopID = v }},
	{"DISCORD_WEBHOOK_URL", func(c *AppConfig, v string) { c.Notify.WebhookURL = v }},
}

// Load reads, validates and defaults the application configuration.
// When path is empty, config.yml in the working directory is tried.
// Environment variables override file values, so a minimal deployment
// can run with no config file at all.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig

	paths := []string{path}
	if path == "" {
		paths = []string{"config.yml"}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil && path != "" {
		return cfg, err
	}
	if data != nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	for _, ov := range envOverrides {
		if v := os.Getenv(ov.name); v != "" {
			ov.apply(&cfg, v)
		}
	}

	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Watch.Interval); err != nil {
		return cfg, fmt.Errorf("invalid watch interval %q: %w", cfg.Watch.Interval, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.GTFSRT.TimeoutMS == 0 {
		cfg.GTFSRT.TimeoutMS = 10000
	}
	// Any nonzero delay notifies unless configured otherwise.
	if cfg.Notify.MinDelaySec == 0 {
		cfg.Notify.MinDelaySec = 1
	}
	if cfg.Notify.RatePerSec == 0 {
		cfg.Notify.RatePerSec = 1
	}
	if cfg.Watch.Interval == "" {
		cfg.Watch.Interval = "1m"
	}
}
