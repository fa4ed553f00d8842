/*
Package config loads dashboard configuration from YAML.

PURPOSE:
  Turns declarative settings into the Go structs the engine runs on, so the
  reporting rules (threshold, depth, production teams) and the demo dataset
  change without code changes.

FILES:
  default.yaml: reporting rules and insight client settings (embedded)
  seed.yaml:    demo organizations and records (embedded, see seed.go)

  A file passed with -config is decoded on top of the embedded defaults;
  fields it omits keep their default value.

SCHEMA:
  reporting:
    executive_unit: EXE
    max_depth: 2
    overtime_threshold: 400
    attention_overrides: []
    production_teams: [PD_TEAM_1, PD_TEAM_2]
    exclude_production_teams: true
    report_order: [EXE, MS, GS, RD, QC, PD]
  insight:
    endpoint: https://generativelanguage.googleapis.com
    model: gemini-1.5-flash
    timeout: 30s

  The insight API key is never read from YAML; it comes from API_KEY.

USAGE:
  cfg, err := config.Load(path)   // "" loads the embedded defaults
  rules, err := cfg.Reporting.Rules()
*/
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/hr-dashboard/analytics"
)

//go:embed default.yaml
var defaultYAML []byte

// APIKeyEnv names the environment variable holding the insight API key.
const APIKeyEnv = "API_KEY"

// ErrInvalidConfig is returned for configuration that decodes but cannot be
// used.
var ErrInvalidConfig = errors.New("invalid configuration")

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// Config is the root of the configuration file.
type Config struct {
	Reporting Reporting `yaml:"reporting"`
	Insight   Insight   `yaml:"insight"`
}

// Reporting configures attribution and status derivation.
type Reporting struct {
	ExecutiveUnit          string   `yaml:"executive_unit"`
	MaxDepth               int      `yaml:"max_depth"`
	OvertimeThreshold      float64  `yaml:"overtime_threshold"`
	AttentionOverrides     []string `yaml:"attention_overrides"`
	ProductionTeams        []string `yaml:"production_teams"`
	ExcludeProductionTeams bool     `yaml:"exclude_production_teams"`
	ReportOrder            []string `yaml:"report_order"`
}

// Insight configures the text-generation client.
type Insight struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`

	// APIKey is filled from the environment by Load.
	APIKey string `yaml:"-"`
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns the embedded configuration.
func Default() (Config, error) {
	return ParseConfigYAML(defaultYAML)
}

// ParseConfigYAML decodes b over the embedded defaults and validates the
// result.
func ParseConfigYAML(b []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(defaultYAML, &c); err != nil {
		return Config{}, fmt.Errorf("embedded defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads the configuration at path, or the defaults when path is empty,
// and picks up the insight API key from the environment.
func Load(path string) (Config, error) {
	var (
		c   Config
		err error
	)
	if path == "" {
		c, err = Default()
	} else {
		var b []byte
		b, err = os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		c, err = ParseConfigYAML(b)
	}
	if err != nil {
		return Config{}, err
	}
	c.Insight.APIKey = os.Getenv(APIKeyEnv)
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Reporting.MaxDepth < 0 {
		return fmt.Errorf("%w: reporting.max_depth must be >= 0, got %d", ErrInvalidConfig, c.Reporting.MaxDepth)
	}
	if c.Reporting.OvertimeThreshold < 0 {
		return fmt.Errorf("%w: reporting.overtime_threshold must be >= 0", ErrInvalidConfig)
	}
	if c.Insight.Timeout <= 0 {
		return fmt.Errorf("%w: insight.timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// =============================================================================
// CONVERSION
// =============================================================================

// Rules converts the reporting block into analytics.Rules.
func (r Reporting) Rules() analytics.Rules {
	rules := analytics.DefaultRules()
	rules.ExecutiveUnitID = r.ExecutiveUnit
	rules.MaxDepth = r.MaxDepth
	rules.OvertimeThreshold = decimal.NewFromFloat(r.OvertimeThreshold)
	rules.AttentionOverrides = append([]string(nil), r.AttentionOverrides...)
	rules.ProductionTeams = append([]string(nil), r.ProductionTeams...)
	rules.ExcludeProductionTeams = r.ExcludeProductionTeams
	if len(r.ReportOrder) > 0 {
		rules.ReportOrder = append([]string(nil), r.ReportOrder...)
	}
	return rules
}
