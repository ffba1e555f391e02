// Package config handles engine configuration loading and management.
package config

import (
	"github.com/avatarforge/autorig/pkg/rig"
)

// Config holds all engine settings.
type Config struct {
	Classifier ClassifierConfig          `yaml:"classifier"`
	Limits     LimitsConfig              `yaml:"limits"`
	Tiers      map[string]rig.TierBudget `yaml:"tiers"`
	Logging    LoggingConfig             `yaml:"logging"`
}

// ClassifierConfig holds external classifier service settings.
type ClassifierConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LimitsConfig holds tier-independent resource limits.
type LimitsConfig struct {
	// AbsoluteCeilingMB caps projected rig size regardless of tier.
	// Zero means the built-in default.
	AbsoluteCeilingMB int `yaml:"absolute_ceiling_mb"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values, including the
// standard subscription tiers.
func Default() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			Enabled:        false,
			TimeoutSeconds: 5,
		},
		Limits: LimitsConfig{
			AbsoluteCeilingMB: 100,
		},
		Tiers: map[string]rig.TierBudget{
			"free": {
				MaxBones:        24,
				MaxMorphTargets: 12,
				MaxFileSizeMB:   10,
			},
			"pro": {
				MaxBones:        65,
				MaxMorphTargets: 100,
				MaxFileSizeMB:   25,
			},
			"studio": {
				MaxBones:        120,
				MaxMorphTargets: 200,
				MaxFileSizeMB:   60,
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// CeilingBytes returns the absolute ceiling in bytes, or 0 when unset so
// the optimizer applies its built-in default.
func (c *Config) CeilingBytes() int64 {
	if c.Limits.AbsoluteCeilingMB <= 0 {
		return 0
	}
	return int64(c.Limits.AbsoluteCeilingMB) * 1024 * 1024
}
