// Package config loads the conformance run configuration. Flags override
// file values; only keys actually present in the file are applied.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/inchori/raftify/internal/harness"
)

// RunConfig is everything a conformance run needs.
type RunConfig struct {
	SchemaPath string
	VectorsDir string
	Tier       harness.Tier
}

func DefaultRunConfig() RunConfig {
	return RunConfig{Tier: harness.TierAll}
}

type fileConfig struct {
	Schema  string `toml:"schema"`
	Vectors string `toml:"vectors"`
	Tier    string `toml:"tier"`
}

// LoadRunConfig reads a TOML run config from path.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return RunConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("schema") {
		cfg.SchemaPath = strings.TrimSpace(raw.Schema)
	}
	if meta.IsDefined("vectors") {
		cfg.VectorsDir = strings.TrimSpace(raw.Vectors)
	}
	if meta.IsDefined("tier") {
		tier, err := harness.ParseTier(strings.TrimSpace(raw.Tier))
		if err != nil {
			return RunConfig{}, fmt.Errorf("config %s: %w", path, err)
		}
		cfg.Tier = tier
	}

	if err := ValidateRunConfig(cfg); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

func ValidateRunConfig(cfg RunConfig) error {
	if strings.TrimSpace(cfg.SchemaPath) == "" {
		return fmt.Errorf("run config missing schema path")
	}
	if strings.TrimSpace(cfg.VectorsDir) == "" {
		return fmt.Errorf("run config missing vectors dir")
	}
	if cfg.Tier == 0 {
		return fmt.Errorf("run config missing tier")
	}
	return nil
}
