// Package config loads vendor-kpi settings from config.yaml and the environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the upload API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	RateLimit   float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// FetchConfig configures remote workbook downloads.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ScoringConfig configures KPI aggregation and composite scoring.
type ScoringConfig struct {
	// InvoiceTolerance is the fractional band around PO_Amount within which
	// an invoice counts as accurate.
	InvoiceTolerance float64 `yaml:"invoice_tolerance" mapstructure:"invoice_tolerance"`
	// ZeroRange selects how a constant scoring column is handled: "nan" or "exclude".
	ZeroRange string `yaml:"zero_range" mapstructure:"zero_range"`
}

// ReportConfig configures exports and chart rendering.
type ReportConfig struct {
	CSVName     string `yaml:"csv_name" mapstructure:"csv_name"`
	ChartWidth  int    `yaml:"chart_width" mapstructure:"chart_width"`
	ChartHeight int    `yaml:"chart_height" mapstructure:"chart_height"`
}

// BatchConfig configures multi-workbook scoring.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VENDORKPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("fetch.user_agent", "vendor-kpi/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_limit", 2.0)
	v.SetDefault("scoring.invoice_tolerance", 0.05)
	v.SetDefault("scoring.zero_range", "nan")
	v.SetDefault("report.csv_name", "vendor_kpi_report.csv")
	v.SetDefault("report.chart_width", 1000)
	v.SetDefault("report.chart_height", 600)
	v.SetDefault("batch.concurrency", 4)

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

	return &cfg, nil
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []string
	if c.Scoring.InvoiceTolerance < 0 {
		errs = append(errs, "scoring.invoice_tolerance must be >= 0")
	}
	if c.Scoring.ZeroRange != "nan" && c.Scoring.ZeroRange != "exclude" {
		errs = append(errs, "scoring.zero_range must be nan or exclude")
	}
	if c.Report.ChartWidth <= 0 || c.Report.ChartHeight <= 0 {
		errs = append(errs, "report chart dimensions must be positive")
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, "batch.concurrency must be >= 1")
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
