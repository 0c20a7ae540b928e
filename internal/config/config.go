package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/olddatasets/gold-spot-downloader/internal/merge"
	"github.com/olddatasets/gold-spot-downloader/internal/model"
)

// SourceConfig describes one data source. The list order in the config file is
// the explicit source priority for same-granularity conflicts, best first.
type SourceConfig struct {
	Name        string `yaml:"name"`
	Enabled     bool   `yaml:"enabled"`
	Granularity string `yaml:"granularity"`
	Series      string `yaml:"series"`      // provider-specific series variant, e.g. MeasuringWorth "london"
	APIKeyEnv   string `yaml:"api_key_env"` // env var holding the API key, if the source needs one
}

// Config holds all application configuration.
type Config struct {
	Sources       []SourceConfig `yaml:"sources"`
	PriorityOrder []string       `yaml:"priority_order"`
	Schedule      struct {
		DailyCron  string `yaml:"daily_cron"`
		WeeklyCron string `yaml:"weekly_cron"`
	} `yaml:"schedule"`
	Output struct {
		Dir       string `yaml:"dir"`
		SiteTitle string `yaml:"site_title"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("CRON_WEEKLY"); v != "" {
		cfg.Schedule.WeeklyCron = v
	}

	// Defaults
	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultSources()
	}
	if len(cfg.PriorityOrder) == 0 {
		cfg.PriorityOrder = []string{"daily", "monthly", "annual"}
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 0 6 * * *"
	}
	if cfg.Schedule.WeeklyCron == "" {
		cfg.Schedule.WeeklyCron = "0 0 4 * * 1"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "data"
	}
	if cfg.Output.SiteTitle == "" {
		cfg.Output.SiteTitle = "Gold Spot Price Historical Data"
	}

	return cfg, nil
}

// defaultSources mirrors the published dataset: MeasuringWorth annual series
// back to 1257, World Bank monthly from 1960, Yahoo daily from 2025.
func defaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "yahoo_finance", Enabled: true, Granularity: "daily"},
		{Name: "metalpriceapi", Enabled: false, Granularity: "daily", APIKeyEnv: "METALPRICE_API_KEY"},
		{Name: "fred", Enabled: false, Granularity: "daily", APIKeyEnv: "FRED_API_KEY"},
		{Name: "worldbank", Enabled: true, Granularity: "monthly"},
		{Name: "measuringworth_london", Enabled: true, Granularity: "annual", Series: "london"},
		{Name: "measuringworth_british", Enabled: true, Granularity: "annual", Series: "British"},
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Sources))
	enabled := 0
	for _, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("source with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source %q", s.Name)
		}
		seen[s.Name] = true
		switch model.Granularity(s.Granularity) {
		case model.GranularityAnnual, model.GranularityMonthly, model.GranularityDaily:
		default:
			return fmt.Errorf("source %q: unknown granularity %q", s.Name, s.Granularity)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("no sources enabled")
	}
	for _, tier := range c.PriorityOrder {
		switch model.Granularity(tier) {
		case model.GranularityAnnual, model.GranularityMonthly, model.GranularityDaily:
		default:
			return fmt.Errorf("priority_order: unknown tier %q", tier)
		}
	}
	return nil
}

// EnabledSources returns the enabled source configs in priority order.
func (c *Config) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// Policy builds the immutable merge policy from the configured tier order and
// the source list order.
func (c *Config) Policy() merge.Policy {
	tiers := make([]model.Granularity, len(c.PriorityOrder))
	for i, t := range c.PriorityOrder {
		tiers[i] = model.Granularity(t)
	}
	names := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		names[i] = s.Name
	}
	return merge.Policy{PriorityOrder: tiers, Sources: names}
}
