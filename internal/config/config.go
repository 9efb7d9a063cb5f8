// Package config handles configuration loading for FilingSense.
// It supports YAML config files, an optional .env file and environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seenimoa/filingsense/internal/analysis/sentiment"
)

// DefaultUserAgent is the placeholder SEC User-Agent. EDGAR asks for real
// contact details, so CheckCredentials flags it.
const DefaultUserAgent = "FilingSense/1.0 (contact@example.com)"

// Config represents the complete application configuration.
type Config struct {
	SEC      SECConfig      `mapstructure:"sec"      yaml:"sec"`
	Monitor  MonitorConfig  `mapstructure:"monitor"  yaml:"monitor"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Report   ReportConfig   `mapstructure:"report"   yaml:"report"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// SECConfig holds EDGAR client settings.
type SECConfig struct {
	UserAgent         string `mapstructure:"user_agent"          yaml:"user_agent"          validate:"required"`
	FeedCount         int    `mapstructure:"feed_count"          yaml:"feed_count"          validate:"gte=1,lte=100"`
	FeedOwner         string `mapstructure:"feed_owner"          yaml:"feed_owner"          validate:"oneof=include exclude only"`
	RequestsPerSecond int    `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gte=0,lte=10"`
	TimeoutSec        int    `mapstructure:"timeout_sec"         yaml:"timeout_sec"         validate:"gte=0"`
	MaxRetries        int    `mapstructure:"max_retries"         yaml:"max_retries"         validate:"gte=0"`
	BackoffSec        int    `mapstructure:"backoff_sec"         yaml:"backoff_sec"         validate:"gte=0"`
	BackoffCapSec     int    `mapstructure:"backoff_cap_sec"     yaml:"backoff_cap_sec"     validate:"gte=0"`
}

// MonitorConfig holds the latest-filings poll loop settings.
type MonitorConfig struct {
	PollIntervalSec  int      `mapstructure:"poll_interval_sec"  yaml:"poll_interval_sec"  validate:"gte=0"`
	Workers          int      `mapstructure:"workers"            yaml:"workers"            validate:"gte=0,lte=64"`
	Exchanges        []string `mapstructure:"exchanges"          yaml:"exchanges"`
	Forms            []string `mapstructure:"forms"              yaml:"forms"` // empty = every form
	SeenTTLSec       int      `mapstructure:"seen_ttl_sec"       yaml:"seen_ttl_sec"       validate:"gte=0"`
	TickerRefreshSec int      `mapstructure:"ticker_refresh_sec" yaml:"ticker_refresh_sec" validate:"gte=0"`
}

// AnalysisConfig optionally replaces the built-in lexicons.
type AnalysisConfig struct {
	Positive []sentiment.Entry `mapstructure:"positive" yaml:"positive"`
	Negative []sentiment.Entry `mapstructure:"negative" yaml:"negative"`
}

// ReportConfig selects how results are delivered.
type ReportConfig struct {
	Format     string `mapstructure:"format"      yaml:"format"      validate:"oneof=console json"`
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url" validate:"omitempty,http_url"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         validate:"gte=0,lte=65535"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  validate:"omitempty,oneof=trace debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=console text json"`
	Output string `mapstructure:"output" yaml:"output"` // "stderr", "stdout" or a file path
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.filingsense/config.yaml (home directory)
//  3. /etc/filingsense/config.yaml (system)
//
// A .env file in the working directory is loaded first if present.
// Environment variables override config file values.
// Format: FILINGSENSE_<SECTION>_<KEY>, e.g., FILINGSENSE_SEC_USER_AGENT
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".filingsense"))
	v.AddConfigPath("/etc/filingsense")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FILINGSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs without overriding variables that are
// already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// SEC defaults (EDGAR fair-access policy: 10 requests/second)
	v.SetDefault("sec.user_agent", DefaultUserAgent)
	v.SetDefault("sec.feed_count", 40)
	v.SetDefault("sec.feed_owner", "include")
	v.SetDefault("sec.requests_per_second", 10)
	v.SetDefault("sec.timeout_sec", 30)
	v.SetDefault("sec.max_retries", 3)
	v.SetDefault("sec.backoff_sec", 30)
	v.SetDefault("sec.backoff_cap_sec", 300)

	// Monitor defaults
	v.SetDefault("monitor.poll_interval_sec", 60)
	v.SetDefault("monitor.workers", 4)
	v.SetDefault("monitor.exchanges", []string{"NASDAQ", "NYSE", "ARCA", "AMEX"})
	v.SetDefault("monitor.forms", []string{})
	v.SetDefault("monitor.seen_ttl_sec", 86400) // 24 hours
	v.SetDefault("monitor.ticker_refresh_sec", 21600)

	// Report defaults
	v.SetDefault("report.format", "console")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

// overrideFromEnv honours SEC_USER_AGENT, the variable EDGAR tooling
// conventionally reads, when no prefixed override is set.
func overrideFromEnv(cfg *Config) {
	if ua := os.Getenv("FILINGSENSE_SEC_USER_AGENT"); ua != "" {
		cfg.SEC.UserAgent = ua
	} else if ua := os.Getenv("SEC_USER_AGENT"); ua != "" {
		cfg.SEC.UserAgent = ua
	}
	if url := os.Getenv("FILINGSENSE_REPORT_WEBHOOK_URL"); url != "" {
		cfg.Report.WebhookURL = url
	}
}

var validate = newValidator()

// newValidator reports fields by their config key rather than the Go name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("invalid config: %s", fieldMessage(fieldErrs[0]))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := sentiment.Lexicon(c.Analysis.Positive).Validate(); err != nil {
		return fmt.Errorf("analysis.positive: %w", err)
	}
	if err := sentiment.Lexicon(c.Analysis.Negative).Validate(); err != nil {
		return fmt.Errorf("analysis.negative: %w", err)
	}
	return nil
}

// fieldMessage renders e.g. "sec.feed_owner must be one of: include, exclude, only".
func fieldMessage(fe validator.FieldError) string {
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s, got %q", key, strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	case "http_url":
		return key + " must be an http(s) URL"
	default:
		return fmt.Sprintf("%s failed validation: %s", key, fe.Tag())
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
