package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Engine.DeclineThreshold)
	assert.Equal(t, 60, cfg.Engine.InactivityCeilingDays)
	assert.Equal(t, int64(50), cfg.Server.MaxUploadMB)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  decline_threshold: 15
  trend_months: 4
  currency: "SGD"
server:
  addr: ":9090"
  read_timeout: 45s
  notify_on_alert: true
notify:
  slack_webhook: "https://hooks.example.com/abc"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15.0, cfg.Engine.DeclineThreshold)
	assert.Equal(t, 4, cfg.Engine.TrendMonths)
	assert.Equal(t, "SGD", cfg.Engine.Currency)
	assert.Equal(t, 25.0, cfg.Engine.HighSeverityThreshold, "unset keys keep defaults")
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Server.NotifyOnAlert)
	assert.Equal(t, "https://hooks.example.com/abc", cfg.Notify.SlackWebhook)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9090\"\nengine:\n  trend_months: 4\n")
	t.Setenv("PULSE_ADDR", ":7070")
	t.Setenv("PULSE_TREND_MONTHS", "2")
	t.Setenv("PULSE_HIGH_RISK_CUTOFF", "80")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Engine.TrendMonths)
	assert.Equal(t, 80.0, cfg.Engine.HighRiskCutoff)
	assert.Equal(t, "test-key", cfg.Narrator.APIKey)
}

func TestInvalidEnvValue(t *testing.T) {
	t.Setenv("PULSE_DECLINE_THRESHOLD", "ten")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PULSE_DECLINE_THRESHOLD")
}

func TestInvalidThresholds(t *testing.T) {
	path := writeConfig(t, "engine:\n  high_risk_cutoff: 30\n  medium_risk_cutoff: 50\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "risk cutoffs")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "engine: [not, a, map"))
	assert.Error(t, err)
}
