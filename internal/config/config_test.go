package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0, cfg.Batch.Workers)
	assert.Equal(t, 16, cfg.Weather.ForecastDays)
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.Weather.BaseURL)
	assert.InDelta(t, 0.30, cfg.Scoring.SeverityWeight, 0.001)
	assert.InDelta(t, 0.25, cfg.Scoring.ProbabilityWeight, 0.001)
	assert.InDelta(t, 0.25, cfg.Scoring.ExposureWeight, 0.001)
	assert.InDelta(t, 0.20, cfg.Scoring.UrgencyWeight, 0.001)
	assert.InDelta(t, 60, cfg.Scoring.RegulatoryUrgency, 0.001)
	assert.InDelta(t, 100_000, cfg.Scoring.BIImpactNormalization, 0.001)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  database_url: risk.db
log:
  level: debug
  format: console
batch:
  workers: 8
scoring:
  regulatory_urgency: 40
weather:
  forecast_days: 7
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.InDelta(t, 40, cfg.Scoring.RegulatoryUrgency, 0.001)
	assert.Equal(t, 7, cfg.Weather.ForecastDays)
	// Untouched sections keep their defaults.
	assert.InDelta(t, 0.30, cfg.Scoring.SeverityWeight, 0.001)
}

func TestLoad_RejectsBadScoring(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
scoring:
  severity_weight: 0.9
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "360 weights should sum to 1.0")
}

func TestValidateScoring(t *testing.T) {
	require.NoError(t, ValidateScoring(DefaultScoringConfig()))

	bad := DefaultScoringConfig()
	bad.BIImpactWeight = 0.9
	err := ValidateScoring(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BI weights")

	bad = DefaultScoringConfig()
	bad.RegulatoryUrgency = 150
	require.Error(t, ValidateScoring(bad))

	bad = DefaultScoringConfig()
	bad.BIImpactNormalization = 0
	require.Error(t, ValidateScoring(bad))
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level"})
	require.Error(t, err)
}
