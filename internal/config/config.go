// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Policy holds the product-tuned scoring knobs. The calibration of these
// values came out of manual tuning against score history, so they are
// configuration rather than literals in the pipeline.
//
// Zero values count as unset when merging with defaults: a knob cannot be
// explicitly configured to zero.
type Policy struct {
	DecayThresholdDays  int     `json:"decay_threshold_days,omitempty"` // days without evidence before decay kicks in
	DecayStep           float64 `json:"decay_step,omitempty"`           // per-run nudge toward the neutral target
	DampeningFactor     float64 `json:"dampening_factor,omitempty"`     // scale applied to the raw consensus delta
	MaxRawDelta         float64 `json:"max_raw_delta,omitempty"`        // clamp on the weighted delta before scaling
	MaxDailyDelta       float64 `json:"max_daily_delta,omitempty"`      // hard cap on daily score movement
	NeutralTarget       float64 `json:"neutral_target,omitempty"`       // score the index drifts toward under decay
	MinScore            float64 `json:"min_score,omitempty"`
	MaxScore            float64 `json:"max_score,omitempty"`
	StaleAfterHours     int     `json:"stale_after_hours,omitempty"` // external data older than this is flagged stale
	MinEvidenceItems    int     `json:"min_evidence_items,omitempty"`
	MinPopulatedPillars int     `json:"min_populated_pillars,omitempty"`
}

// DefaultPolicy returns the tuned policy values.
func DefaultPolicy() Policy {
	return Policy{
		DecayThresholdDays:  7,
		DecayStep:           0.1,
		DampeningFactor:     0.3,
		MaxRawDelta:         4,
		MaxDailyDelta:       1.2,
		NeutralTarget:       40,
		MinScore:            5,
		MaxScore:            95,
		StaleAfterHours:     48,
		MinEvidenceItems:    5,
		MinPopulatedPillars: 5,
	}
}

// StaleAfter returns the stale cutoff as a duration.
func (p Policy) StaleAfter() time.Duration {
	return time.Duration(p.StaleAfterHours) * time.Hour
}

// SourceConfig describes one external data source to fetch each day.
type SourceConfig struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Kind   string `json:"kind"`             // "benchmark", "agents", "series"
	Format string `json:"format,omitempty"` // for series: "json" or "csv"
	Track  string `json:"track,omitempty"`  // for benchmark: named track to extract
}

// Config represents the CLI configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or env vars.
type Config struct {
	DatabaseURL string `json:"database_url,omitempty"`

	// Provider API keys. Empty keys disable the provider.
	GeminiAPIKey    string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey    string `json:"openai_api_key,omitempty"`
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty"`

	// PrimaryProvider is preferred for narrative and note fields when
	// providers agree.
	PrimaryProvider string `json:"primary_provider,omitempty"`

	// ProviderWeights maps provider IDs to consensus weights. Weights are
	// renormalized over the providers that actually respond.
	ProviderWeights map[string]float64 `json:"provider_weights,omitempty"`

	Policy  Policy         `json:"policy,omitempty"`
	Sources []SourceConfig `json:"sources,omitempty"`

	UseBrowser bool `json:"use_browser,omitempty"` // headless browser for client-rendered leaderboards
	Verbose    bool `json:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Policy.DampeningFactor < 0 || c.Policy.DampeningFactor > 1 {
		return fmt.Errorf("config error: 'dampening_factor' must be in [0, 1]")
	}
	if c.Policy.DecayThresholdDays < 0 {
		return fmt.Errorf("config error: 'decay_threshold_days' must be non-negative")
	}
	if c.Policy.MaxScore != 0 && c.Policy.MinScore > c.Policy.MaxScore {
		return fmt.Errorf("config error: 'min_score' must not exceed 'max_score'")
	}
	for i, src := range c.Sources {
		if src.Key == "" || src.URL == "" {
			return fmt.Errorf("config error: sources[%d] needs both 'key' and 'url'", i)
		}
		switch src.Kind {
		case "benchmark", "agents", "series":
		default:
			return fmt.Errorf("config error: sources[%d] has unknown kind %q", i, src.Kind)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults. Used to apply config file values underneath CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.OpenAIAPIKey == "" {
		result.OpenAIAPIKey = defaults.OpenAIAPIKey
	}
	if result.AnthropicAPIKey == "" {
		result.AnthropicAPIKey = defaults.AnthropicAPIKey
	}
	if result.PrimaryProvider == "" {
		result.PrimaryProvider = defaults.PrimaryProvider
	}
	if result.ProviderWeights == nil {
		result.ProviderWeights = defaults.ProviderWeights
	}
	if len(result.Sources) == 0 {
		result.Sources = defaults.Sources
	}

	result.Policy = mergePolicy(result.Policy, defaults.Policy)

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// mergePolicy fills zero-valued policy fields from defaults.
func mergePolicy(p, defaults Policy) Policy {
	if p.DecayThresholdDays == 0 {
		p.DecayThresholdDays = defaults.DecayThresholdDays
	}
	if p.DecayStep == 0 {
		p.DecayStep = defaults.DecayStep
	}
	if p.DampeningFactor == 0 {
		p.DampeningFactor = defaults.DampeningFactor
	}
	if p.MaxRawDelta == 0 {
		p.MaxRawDelta = defaults.MaxRawDelta
	}
	if p.MaxDailyDelta == 0 {
		p.MaxDailyDelta = defaults.MaxDailyDelta
	}
	if p.NeutralTarget == 0 {
		p.NeutralTarget = defaults.NeutralTarget
	}
	if p.MinScore == 0 {
		p.MinScore = defaults.MinScore
	}
	if p.MaxScore == 0 {
		p.MaxScore = defaults.MaxScore
	}
	if p.StaleAfterHours == 0 {
		p.StaleAfterHours = defaults.StaleAfterHours
	}
	if p.MinEvidenceItems == 0 {
		p.MinEvidenceItems = defaults.MinEvidenceItems
	}
	if p.MinPopulatedPillars == 0 {
		p.MinPopulatedPillars = defaults.MinPopulatedPillars
	}
	return p
}

// DefaultWeights returns the fixed provider weight set used when the config
// does not override it.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		"openai":    0.4,
		"anthropic": 0.3,
		"gemini":    0.3,
	}
}
