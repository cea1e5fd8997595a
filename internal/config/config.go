// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Weather   WeatherConfig   `yaml:"weather" mapstructure:"weather"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ScoringConfig holds the 360° composite weights and the scoring constants
// that are deliberately configurable rather than hardcoded.
type ScoringConfig struct {
	// 360° composite weights (sum = 1.0).
	SeverityWeight    float64 `yaml:"severity_weight" mapstructure:"severity_weight"`
	ProbabilityWeight float64 `yaml:"probability_weight" mapstructure:"probability_weight"`
	ExposureWeight    float64 `yaml:"exposure_weight" mapstructure:"exposure_weight"`
	UrgencyWeight     float64 `yaml:"urgency_weight" mapstructure:"urgency_weight"`

	// Business interruption weights (sum = 1.0).
	BIImpactWeight     float64 `yaml:"bi_impact_weight" mapstructure:"bi_impact_weight"`
	BIExposureWeight   float64 `yaml:"bi_exposure_weight" mapstructure:"bi_exposure_weight"`
	BIDurationWeight   float64 `yaml:"bi_duration_weight" mapstructure:"bi_duration_weight"`
	BISoleSourceWeight float64 `yaml:"bi_sole_source_weight" mapstructure:"bi_sole_source_weight"`

	// Daily impact (EUR) that saturates the BI financial component at 100.
	BIImpactNormalization float64 `yaml:"bi_impact_normalization" mapstructure:"bi_impact_normalization"`

	// RegulatoryUrgency is a placeholder: the application date of a
	// regulation is not reliably extracted upstream, so urgency for
	// regulatory events is this constant until the date-extraction
	// collaborator supplies a real input.
	RegulatoryUrgency float64 `yaml:"regulatory_urgency" mapstructure:"regulatory_urgency"`
}

// WeatherConfig configures the forecast prefetch collaborator.
type WeatherConfig struct {
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	ForecastDays int     `yaml:"forecast_days" mapstructure:"forecast_days"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Concurrency  int     `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// BatchConfig bounds the per-entity projection fan-out.
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"` // 0 = NumCPU
}

// ServerConfig configures the analysis HTTP service.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// AnthropicConfig holds settings for the downstream report generator.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultScoringConfig returns the scoring constants the engine ships with.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		SeverityWeight:    0.30,
		ProbabilityWeight: 0.25,
		ExposureWeight:    0.25,
		UrgencyWeight:     0.20,

		BIImpactWeight:     0.4,
		BIExposureWeight:   0.3,
		BIDurationWeight:   0.2,
		BISoleSourceWeight: 0.1,

		BIImpactNormalization: 100_000,
		RegulatoryUrgency:     60,
	}
}

// ValidateScoring checks that a ScoringConfig is internally consistent.
func ValidateScoring(c ScoringConfig) error {
	var errs []string

	sum := c.SeverityWeight + c.ProbabilityWeight + c.ExposureWeight + c.UrgencyWeight
	if math.Abs(sum-1.0) > 0.01 {
		errs = append(errs, fmt.Sprintf("360 weights should sum to 1.0, got %.3f", sum))
	}

	biSum := c.BIImpactWeight + c.BIExposureWeight + c.BIDurationWeight + c.BISoleSourceWeight
	if math.Abs(biSum-1.0) > 0.01 {
		errs = append(errs, fmt.Sprintf("BI weights should sum to 1.0, got %.3f", biSum))
	}

	if c.BIImpactNormalization <= 0 {
		errs = append(errs, "bi_impact_normalization must be > 0")
	}
	if c.RegulatoryUrgency < 0 || c.RegulatoryUrgency > 100 {
		errs = append(errs, "regulatory_urgency must be between 0 and 100")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: scoring validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.workers", 0)
	v.SetDefault("weather.base_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("weather.forecast_days", 16)
	v.SetDefault("weather.rate_per_sec", 5)
	v.SetDefault("weather.concurrency", 4)
	v.SetDefault("weather.timeout_secs", 15)
	v.SetDefault("weather.max_retries", 3)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)

	def := DefaultScoringConfig()
	v.SetDefault("scoring.severity_weight", def.SeverityWeight)
	v.SetDefault("scoring.probability_weight", def.ProbabilityWeight)
	v.SetDefault("scoring.exposure_weight", def.ExposureWeight)
	v.SetDefault("scoring.urgency_weight", def.UrgencyWeight)
	v.SetDefault("scoring.bi_impact_weight", def.BIImpactWeight)
	v.SetDefault("scoring.bi_exposure_weight", def.BIExposureWeight)
	v.SetDefault("scoring.bi_duration_weight", def.BIDurationWeight)
	v.SetDefault("scoring.bi_sole_source_weight", def.BISoleSourceWeight)
	v.SetDefault("scoring.bi_impact_normalization", def.BIImpactNormalization)
	v.SetDefault("scoring.regulatory_urgency", def.RegulatoryUrgency)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := ValidateScoring(cfg.Scoring); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
