package models

import "time"

// ProviderConfig describes one upstream completion API. Built once at startup
// from environment configuration and never mutated afterwards.
type ProviderConfig struct {
	Name       string        `json:"name"`
	BaseURL    string        `json:"base_url"`
	APIKey     string        `json:"api_key,omitempty"` // omitted from responses
	Models     []string      `json:"models"`            // candidate models, primary first
	Timeout    time.Duration `json:"-"`
	MaxRetries int           `json:"max_retries"`
	RetryDelay time.Duration `json:"-"`
	Priority   int           `json:"priority"` // higher = tried first
}

// HasCredential reports whether the provider can be called at all.
// A provider without a key stays registered but permanently unhealthy.
func (p ProviderConfig) HasCredential() bool {
	return p.APIKey != ""
}

// PrimaryModel returns the first configured model, or "" if none
func (p ProviderConfig) PrimaryModel() string {
	if len(p.Models) == 0 {
		return ""
	}
	return p.Models[0]
}
