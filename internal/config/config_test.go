package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func clearEnv(t *testing.T) {
	t.Helper()
	for _, e := range []string{"FILINGSENSE_SEC_USER_AGENT", "SEC_USER_AGENT", "FILINGSENSE_REPORT_WEBHOOK_URL"} {
		t.Setenv(e, "")
		os.Unsetenv(e)
	}
}

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// SEC defaults
	if cfg.SEC.UserAgent != DefaultUserAgent {
		t.Errorf("SEC.UserAgent: got %q, want %q", cfg.SEC.UserAgent, DefaultUserAgent)
	}
	if cfg.SEC.RequestsPerSecond != 10 {
		t.Errorf("SEC.RequestsPerSecond: got %d, want 10", cfg.SEC.RequestsPerSecond)
	}
	if cfg.SEC.FeedCount != 40 {
		t.Errorf("SEC.FeedCount: got %d, want 40", cfg.SEC.FeedCount)
	}
	if cfg.SEC.FeedOwner != "include" {
		t.Errorf("SEC.FeedOwner: got %q, want include", cfg.SEC.FeedOwner)
	}
	if cfg.SEC.MaxRetries != 3 || cfg.SEC.BackoffSec != 30 || cfg.SEC.BackoffCapSec != 300 {
		t.Errorf("SEC backoff: got retries=%d backoff=%d cap=%d", cfg.SEC.MaxRetries, cfg.SEC.BackoffSec, cfg.SEC.BackoffCapSec)
	}

	// Monitor defaults
	if cfg.Monitor.Workers != 4 {
		t.Errorf("Monitor.Workers: got %d, want 4", cfg.Monitor.Workers)
	}
	if len(cfg.Monitor.Exchanges) != 4 || cfg.Monitor.Exchanges[0] != "NASDAQ" {
		t.Errorf("Monitor.Exchanges: got %v", cfg.Monitor.Exchanges)
	}
	if len(cfg.Monitor.Forms) != 0 {
		t.Errorf("Monitor.Forms: got %v, want empty", cfg.Monitor.Forms)
	}

	// Report / API / Logging defaults
	if cfg.Report.Format != "console" {
		t.Errorf("Report.Format: got %q, want console", cfg.Report.Format)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want info", cfg.Logging.Level)
	}
	if cfg.Analysis.Positive != nil || cfg.Analysis.Negative != nil {
		t.Error("lexicon overrides should be empty by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
sec:
  user_agent: "Jane Analyst jane@fund.example.org"
  feed_count: 100
monitor:
  workers: 8
  exchanges: ["NYSE"]
  forms: ["4", "8-K"]
analysis:
  positive:
    - phrase: "buyback"
      weight: 2.5
report:
  format: "json"
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.SEC.UserAgent != "Jane Analyst jane@fund.example.org" {
		t.Errorf("SEC.UserAgent: got %q", cfg.SEC.UserAgent)
	}
	if cfg.SEC.FeedCount != 100 {
		t.Errorf("SEC.FeedCount: got %d, want 100", cfg.SEC.FeedCount)
	}
	if cfg.Monitor.Workers != 8 {
		t.Errorf("Monitor.Workers: got %d, want 8", cfg.Monitor.Workers)
	}
	if len(cfg.Monitor.Forms) != 2 || cfg.Monitor.Forms[1] != "8-K" {
		t.Errorf("Monitor.Forms: got %v", cfg.Monitor.Forms)
	}
	if len(cfg.Analysis.Positive) != 1 || cfg.Analysis.Positive[0].Phrase != "buyback" || cfg.Analysis.Positive[0].Weight != 2.5 {
		t.Errorf("Analysis.Positive: got %+v", cfg.Analysis.Positive)
	}
	if cfg.Report.Format != "json" {
		t.Errorf("Report.Format: got %q, want json", cfg.Report.Format)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	// Unset keys keep their defaults
	if cfg.SEC.RequestsPerSecond != 10 {
		t.Errorf("SEC.RequestsPerSecond: got %d, want default 10", cfg.SEC.RequestsPerSecond)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestLoadFromFileRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"report format": "report:\n  format: xml\n",
		"feed owner":    "sec:\n  feed_owner: sometimes\n",
		"lexicon":       "analysis:\n  negative:\n    - phrase: fraud\n      weight: -1\n",
		"webhook url":   "report:\n  webhook_url: not-a-url\n",
		"workers":       "monitor:\n  workers: -2\n",
		"log level":     "logging:\n  level: loud\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFromFile(path); err == nil {
				t.Errorf("expected validation error for %s", name)
			}
		})
	}
}

func TestValidateNamesConfigKeys(t *testing.T) {
	cfg := &Config{
		SEC:    SECConfig{UserAgent: DefaultUserAgent, FeedCount: 40, FeedOwner: "sometimes"},
		Report: ReportConfig{Format: "console"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	want := `invalid config: sec.feed_owner must be one of: include, exclude, only, got "sometimes"`
	if err.Error() != want {
		t.Errorf("Validate() = %q, want %q", err.Error(), want)
	}

	cfg.SEC.FeedOwner = "only"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on a valid config: %v", err)
	}
}

// ── environment ──

func TestDotEnvAndSECUserAgent(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("api:\n  port: 8081\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SEC_USER_AGENT=Dot Env dot@env.example.org\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SEC_USER_AGENT") })

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.SEC.UserAgent != "Dot Env dot@env.example.org" {
		t.Errorf("SEC.UserAgent from .env: got %q", cfg.SEC.UserAgent)
	}
}

func TestOverrideFromEnvPrefersPrefixed(t *testing.T) {
	t.Setenv("SEC_USER_AGENT", "plain")
	t.Setenv("FILINGSENSE_SEC_USER_AGENT", "prefixed")
	t.Setenv("FILINGSENSE_REPORT_WEBHOOK_URL", "https://hooks.example.org/abc")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.SEC.UserAgent != "prefixed" {
		t.Errorf("UserAgent: got %q, want prefixed", cfg.SEC.UserAgent)
	}
	if cfg.Report.WebhookURL != "https://hooks.example.org/abc" {
		t.Errorf("WebhookURL: got %q", cfg.Report.WebhookURL)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearEnv(t)
	cfg := &Config{SEC: SECConfig{UserAgent: "from-config"}}
	overrideFromEnv(cfg)

	if cfg.SEC.UserAgent != "from-config" {
		t.Errorf("UserAgent should stay as 'from-config' when env is unset, got %q", cfg.SEC.UserAgent)
	}
}

// ── credentials ──

func TestCheckCredentialsDefaults(t *testing.T) {
	clearEnv(t)
	cfg := &Config{SEC: SECConfig{UserAgent: DefaultUserAgent}}

	got := CheckCredentials(cfg)
	if len(got) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(got))
	}
	if got[0].Source != SourceDefault {
		t.Errorf("UA source: got %q, want default", got[0].Source)
	}
	if got[0].Warning == "" {
		t.Error("placeholder user agent should carry a warning")
	}
	if got[1].IsSet || got[1].Source != SourceNone {
		t.Errorf("webhook: got %+v, want unset", got[1])
	}
}

func TestCheckCredentialsConfigured(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEC_USER_AGENT", "Jane jane@fund.example.org")
	cfg := &Config{
		SEC:    SECConfig{UserAgent: "Jane jane@fund.example.org"},
		Report: ReportConfig{WebhookURL: "https://discord.com/api/webhooks/123/secret-token"},
	}

	got := CheckCredentials(cfg)
	if got[0].Source != SourceEnv || got[0].Warning != "" {
		t.Errorf("UA: got %+v", got[0])
	}
	if got[1].Source != SourceConfig {
		t.Errorf("webhook source: got %q, want config", got[1].Source)
	}
	if got[1].Display != "https://discord.com/***" {
		t.Errorf("webhook display: got %q", got[1].Display)
	}
}

func TestIsPlaceholderUserAgent(t *testing.T) {
	tests := map[string]bool{
		"":                                   true,
		DefaultUserAgent:                     true,
		"Acme name@example.com":              true,
		"Jane Analyst jane@fund.example.org": false,
	}
	for ua, want := range tests {
		if got := IsPlaceholderUserAgent(ua); got != want {
			t.Errorf("IsPlaceholderUserAgent(%q) = %v, want %v", ua, got, want)
		}
	}
}

func TestMaskURL(t *testing.T) {
	if got := maskURL(""); got != "" {
		t.Errorf("maskURL(empty) = %q", got)
	}
	if got := maskURL("not a url"); got != "***" {
		t.Errorf("maskURL(garbage) = %q, want ***", got)
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() returned empty string")
	}
}
