package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 32, cfg.Server.MaxUploadMB)
	assert.InDelta(t, 5.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 10, cfg.Server.RateBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "vendor-kpi/1.0", cfg.Fetch.UserAgent)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.InDelta(t, 0.05, cfg.Scoring.InvoiceTolerance, 0.0001)
	assert.Equal(t, "nan", cfg.Scoring.ZeroRange)
	assert.Equal(t, "vendor_kpi_report.csv", cfg.Report.CSVName)
	assert.Equal(t, 1000, cfg.Report.ChartWidth)
	assert.Equal(t, 600, cfg.Report.ChartHeight)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
scoring:
  invoice_tolerance: 0.1
  zero_range: exclude
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.1, cfg.Scoring.InvoiceTolerance, 0.0001)
	assert.Equal(t, "exclude", cfg.Scoring.ZeroRange)
	// Defaults still apply for unset values
	assert.Equal(t, "vendor_kpi_report.csv", cfg.Report.CSVName)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
scoring:
  zero_range: exclude
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("VENDORKPI_LOG_LEVEL", "warn")
	t.Setenv("VENDORKPI_SCORING_ZERO_RANGE", "nan")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "nan", cfg.Scoring.ZeroRange)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Scoring: ScoringConfig{InvoiceTolerance: 0.05, ZeroRange: "nan"},
			Report:  ReportConfig{ChartWidth: 800, ChartHeight: 600},
			Batch:   BatchConfig{Concurrency: 2},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"negative tolerance", func(c *Config) { c.Scoring.InvoiceTolerance = -1 }, "invoice_tolerance"},
		{"unknown policy", func(c *Config) { c.Scoring.ZeroRange = "zero" }, "zero_range"},
		{"zero width", func(c *Config) { c.Report.ChartWidth = 0 }, "chart dimensions"},
		{"zero concurrency", func(c *Config) { c.Batch.Concurrency = 0 }, "batch.concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
