// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Strategy selects the synthesizer/explainer implementations.
type Strategy string

const (
	// StrategyRules uses the deterministic keyword synthesizer and
	// template explainer. Needs no external services.
	StrategyRules Strategy = "rules"
	// StrategyGenerative delegates synthesis and explanation to the
	// text-generation backend.
	StrategyGenerative Strategy = "generative"
)

// Config is the resolved service configuration.
type Config struct {
	ProjectID      string
	Datasets       []string
	Strategy       Strategy
	AnthropicModel string
	MaxTokens      int64
}

const (
	defaultProjectID = "raymond-maini-iiot"
	defaultDatasets  = "cnc_dataset,dev_public"
	defaultModel     = "claude-3-5-haiku-20241022"
	defaultMaxTokens = 4096
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		ProjectID:      envOr("GOOGLE_CLOUD_PROJECT", defaultProjectID),
		Strategy:       Strategy(envOr("CHATBOT_STRATEGY", string(StrategyRules))),
		AnthropicModel: envOr("ANTHROPIC_MODEL", defaultModel),
		MaxTokens:      defaultMaxTokens,
	}

	for _, d := range strings.Split(envOr("BIGQUERY_DATASETS", defaultDatasets), ",") {
		if d = strings.TrimSpace(d); d != "" {
			cfg.Datasets = append(cfg.Datasets, d)
		}
	}
	if len(cfg.Datasets) == 0 {
		return Config{}, fmt.Errorf("no datasets configured (set BIGQUERY_DATASETS)")
	}

	switch cfg.Strategy {
	case StrategyRules:
	case StrategyGenerative:
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return Config{}, fmt.Errorf("generative strategy requires ANTHROPIC_API_KEY")
		}
	default:
		return Config{}, fmt.Errorf("unknown strategy %q (use %q or %q)", cfg.Strategy, StrategyRules, StrategyGenerative)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
