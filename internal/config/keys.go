package config

import (
	"net/url"
	"os"
	"strings"
)

// CredentialSource represents where a credential comes from.
type CredentialSource string

const (
	SourceEnv     CredentialSource = "env"
	SourceConfig  CredentialSource = "config"
	SourceDefault CredentialSource = "default"
	SourceNone    CredentialSource = "none"
)

// CredentialStatus describes one outbound identity or secret.
type CredentialStatus struct {
	Name    string           `json:"name"`
	Source  CredentialSource `json:"source"`
	IsSet   bool             `json:"is_set"`
	Display string           `json:"display,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

var placeholderContacts = []string{"contact@example.com", "name@example.com", "example.com"}

// CheckCredentials reports the SEC User-Agent and the webhook URL.
func CheckCredentials(cfg *Config) []CredentialStatus {
	ua := CredentialStatus{
		Name:    "SEC User-Agent",
		IsSet:   cfg.SEC.UserAgent != "",
		Display: cfg.SEC.UserAgent,
		Source:  source(cfg.SEC.UserAgent, "FILINGSENSE_SEC_USER_AGENT", "SEC_USER_AGENT"),
	}
	if cfg.SEC.UserAgent == DefaultUserAgent {
		ua.Source = SourceDefault
	}
	if IsPlaceholderUserAgent(cfg.SEC.UserAgent) {
		ua.Warning = "set sec.user_agent or SEC_USER_AGENT to a name and contact email"
	}

	hook := CredentialStatus{
		Name:    "Webhook URL",
		IsSet:   cfg.Report.WebhookURL != "",
		Source:  source(cfg.Report.WebhookURL, "FILINGSENSE_REPORT_WEBHOOK_URL"),
		Display: maskURL(cfg.Report.WebhookURL),
	}
	return []CredentialStatus{ua, hook}
}

// IsPlaceholderUserAgent reports whether ua lacks real contact details.
func IsPlaceholderUserAgent(ua string) bool {
	if strings.TrimSpace(ua) == "" {
		return true
	}
	lower := strings.ToLower(ua)
	for _, p := range placeholderContacts {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func source(value string, envVars ...string) CredentialSource {
	if value == "" {
		return SourceNone
	}
	for _, e := range envVars {
		if os.Getenv(e) == value {
			return SourceEnv
		}
	}
	return SourceConfig
}

// maskURL keeps scheme and host and hides the path, which for chat
// webhooks carries the token.
func maskURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Scheme + "://" + u.Host + "/***"
}
