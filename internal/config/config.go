package config

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/recon/internal/match"
	"github.com/cleared-dev/recon/internal/merchant"
	"github.com/cleared-dev/recon/internal/reconcile"
	"github.com/cleared-dev/recon/internal/statement"
)

// FileName is the conventional name of the configuration file.
const FileName = "recon.yaml"

// Config represents the top-level recon.yaml configuration.
type Config struct {
	Matching  MatchingConfig  `yaml:"matching"`
	Anomaly   AnomalyConfig   `yaml:"anomaly"`
	Statement StatementConfig `yaml:"statement"`
	Merchants []MerchantRule  `yaml:"merchants,omitempty"`
	Log       LogConfig       `yaml:"log"`
}

// MatchingConfig holds the scoring thresholds and weights.
type MatchingConfig struct {
	ValueTolerance      float64       `yaml:"value_tolerance"`
	DateToleranceDays   int           `yaml:"date_tolerance_days"`
	MinScore            int           `yaml:"min_score"`
	HighConfidenceScore int           `yaml:"high_confidence_score"`
	Weights             WeightsConfig `yaml:"weights"`
}

// WeightsConfig splits the score between its three components.
type WeightsConfig struct {
	Value       float64 `yaml:"value"`
	Date        float64 `yaml:"date"`
	Description float64 `yaml:"description"`
}

// AnomalyConfig controls unusual-amount detection.
type AnomalyConfig struct {
	MinGroupSize  int     `yaml:"min_group_size"`
	ZThreshold    float64 `yaml:"z_threshold"`
	FallbackGroup string  `yaml:"fallback_group"`
}

// StatementConfig controls how statement files are read.
type StatementConfig struct {
	DueDay        int            `yaml:"due_day"`
	DefaultPreset string         `yaml:"default_preset"`
	Presets       []PresetConfig `yaml:"presets,omitempty"`
}

// PresetConfig is a user-defined statement layout.
type PresetConfig struct {
	Name               string `yaml:"name"`
	Delimiter          string `yaml:"delimiter"`
	DateColumn         int    `yaml:"date_column"`
	ValueColumn        int    `yaml:"value_column"`
	DescriptionColumns []int  `yaml:"description_columns"`
}

// MerchantRule adds an establishment pattern after the built-in ones.
type MerchantRule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a recon.yaml file from disk. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault reads path if it exists and returns the defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the stock matching rules.
func Default() *Config {
	m := match.DefaultConfig()
	a := reconcile.DefaultAnomalyConfig()
	return &Config{
		Matching: MatchingConfig{
			ValueTolerance:      m.ValueTolerance,
			DateToleranceDays:   m.DateToleranceDays,
			MinScore:            m.MinScore,
			HighConfidenceScore: m.HighConfidenceScore,
			Weights: WeightsConfig{
				Value:       m.Weights.Value,
				Date:        m.Weights.Date,
				Description: m.Weights.Description,
			},
		},
		Anomaly: AnomalyConfig{
			MinGroupSize:  a.MinGroupSize,
			ZThreshold:    a.ZThreshold,
			FallbackGroup: a.FallbackGroup,
		},
		Statement: StatementConfig{
			DueDay:        5,
			DefaultPreset: statement.AutoLayout,
		},
		Log: LogConfig{Level: "info"},
	}
}

// MatchConfig converts the matching section, validating it.
func (c *Config) MatchConfig() (match.Config, error) {
	m := match.Config{
		ValueTolerance:      c.Matching.ValueTolerance,
		DateToleranceDays:   c.Matching.DateToleranceDays,
		MinScore:            c.Matching.MinScore,
		HighConfidenceScore: c.Matching.HighConfidenceScore,
		Weights: match.Weights{
			Value:       c.Matching.Weights.Value,
			Date:        c.Matching.Weights.Date,
			Description: c.Matching.Weights.Description,
		},
	}
	if err := m.Validate(); err != nil {
		return match.Config{}, fmt.Errorf("matching: %w", err)
	}
	return m, nil
}

// AnomalySettings converts the anomaly section.
func (c *Config) AnomalySettings() reconcile.AnomalyConfig {
	return reconcile.AnomalyConfig{
		MinGroupSize:  c.Anomaly.MinGroupSize,
		ZThreshold:    c.Anomaly.ZThreshold,
		FallbackGroup: c.Anomaly.FallbackGroup,
	}
}

// Catalog returns the built-in merchant catalog extended with the configured rules.
func (c *Config) Catalog() (merchant.Catalog, error) {
	cat := merchant.DefaultCatalog()
	for _, r := range c.Merchants {
		next, err := cat.Add(r.Name, r.Pattern)
		if err != nil {
			return merchant.Catalog{}, fmt.Errorf("merchant %q: %w", r.Name, err)
		}
		cat = next
	}
	return cat, nil
}

// Registry returns the built-in statement presets plus the configured ones.
func (c *Config) Registry() (*statement.Registry, error) {
	reg := statement.DefaultRegistry()
	for _, p := range c.Statement.Presets {
		delim, size := utf8.DecodeRuneInString(p.Delimiter)
		if size == 0 || size != len(p.Delimiter) {
			return nil, fmt.Errorf("preset %q: delimiter must be a single character, got %q", p.Name, p.Delimiter)
		}
		l := statement.Layout{
			Name:               p.Name,
			Delimiter:          delim,
			DateColumn:         p.DateColumn,
			ValueColumn:        p.ValueColumn,
			DescriptionColumns: p.DescriptionColumns,
		}
		if err := reg.Register(l); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
	}
	return reg, nil
}
