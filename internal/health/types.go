package health

import (
	"context"
	"time"
)

// Status represents the cached health judgment for a provider+model entry
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusCooldown  Status = "cooldown"
	StatusUnknown   Status = "unknown"
)

// ProviderHealth tracks the health of a single provider+model combination
type ProviderHealth struct {
	ProviderName        string    `json:"provider"`
	ModelName           string    `json:"model"`
	Status              Status    `json:"status"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
	LastChecked         time.Time `json:"last_checked"`
	LastSuccessAt       time.Time `json:"last_success_at,omitempty"`
	CooldownUntil       time.Time `json:"cooldown_until,omitempty"`
	Priority            int       `json:"priority"` // higher = preferred
	Unavailable         bool      `json:"unavailable,omitempty"`
}

// Prober performs a live check against a provider for one model.
// implemented by the provider client; health state is only refreshed
// through probes or real completion attempts, never by the clock alone.
type Prober interface {
	Name() string
	Probe(ctx context.Context, model string) error
}
