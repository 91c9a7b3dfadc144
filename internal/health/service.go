package health

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const defaultFailureThreshold = 1

// Service is the lock-guarded health registry for all provider+model entries.
// Status is a cached judgment: it only changes when a completion attempt or an
// explicit probe reports a result, never on its own.
type Service struct {
	mu               sync.RWMutex
	entries          map[string]*ProviderHealth // key: "provider:model"
	failureThreshold int
}

// NewService creates a health registry. failureThreshold is how many
// consecutive failures flip an entry to unhealthy; <=0 uses the default of 1.
func NewService(failureThreshold int) *Service {
	if failureThreshold <= 0 {
		failureThreshold = defaultFailureThreshold
	}
	return &Service{
		entries:          make(map[string]*ProviderHealth),
		failureThreshold: failureThreshold,
	}
}

func entryKey(provider, model string) string {
	return fmt.Sprintf("%s:%s", provider, model)
}

// Register adds a provider+model entry in unknown state
func (s *Service) Register(provider, model string, priority int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey(provider, model)
	if _, exists := s.entries[key]; !exists {
		s.entries[key] = &ProviderHealth{
			ProviderName: provider,
			ModelName:    model,
			Status:       StatusUnknown,
			Priority:     priority,
		}
		slog.Info("health: registered provider", "provider", provider, "model", model, "priority", priority)
	}
}

// RegisterUnavailable adds an entry that can never become healthy, used for
// providers configured without a credential.
func (s *Service) RegisterUnavailable(provider, model string, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey(provider, model)
	s.entries[key] = &ProviderHealth{
		ProviderName: provider,
		ModelName:    model,
		Status:       StatusUnhealthy,
		LastError:    reason,
		Unavailable:  true,
	}
	slog.Warn("health: provider unavailable", "provider", provider, "model", model, "reason", reason)
}

// IsHealthy returns the cached judgment for a provider+model. Unknown entries
// count as healthy so freshly registered providers get tried. An expired
// cooldown also counts as healthy, making the entry eligible for a new attempt.
func (s *Service) IsHealthy(provider, model string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.entries[entryKey(provider, model)]
	if !exists {
		return true
	}

	switch h.Status {
	case StatusUnhealthy:
		return false
	case StatusCooldown:
		return time.Now().After(h.CooldownUntil)
	default:
		return true
	}
}

// RecordSuccess marks an entry healthy and resets its failure streak
func (s *Service) RecordSuccess(provider, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, exists := s.entries[entryKey(provider, model)]
	if !exists || h.Unavailable {
		return
	}

	wasDown := h.Status == StatusUnhealthy || h.Status == StatusCooldown
	h.Status = StatusHealthy
	h.ConsecutiveFailures = 0
	h.LastError = ""
	h.LastSuccessAt = time.Now()
	h.LastChecked = time.Now()
	h.CooldownUntil = time.Time{}

	if wasDown {
		slog.Info("health: provider recovered", "provider", provider, "model", model)
	}
}

// RecordFailure increments the failure streak and stores the error. Once the
// streak reaches the threshold the entry flips to unhealthy.
func (s *Service) RecordFailure(provider, model string, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, exists := s.entries[entryKey(provider, model)]
	if !exists {
		return
	}

	h.ConsecutiveFailures++
	h.LastError = errMsg
	h.LastChecked = time.Now()

	if h.ConsecutiveFailures >= s.failureThreshold {
		h.Status = StatusUnhealthy
		slog.Warn("health: provider marked unhealthy",
			"provider", provider, "model", model,
			"failures", h.ConsecutiveFailures, "error", truncate(errMsg, 200))
	} else {
		slog.Info("health: provider failure recorded",
			"provider", provider, "model", model,
			"failures", h.ConsecutiveFailures, "threshold", s.failureThreshold)
	}
}

// SetCooldown puts an entry into a timed cooldown, typically after a quota error
func (s *Service) SetCooldown(provider, model string, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, exists := s.entries[entryKey(provider, model)]
	if !exists || h.Unavailable {
		return
	}

	h.Status = StatusCooldown
	h.CooldownUntil = time.Now().Add(duration)
	h.LastChecked = time.Now()

	slog.Warn("health: provider in cooldown",
		"provider", provider, "model", model,
		"until", h.CooldownUntil.Format(time.RFC3339))
}

// CheckProvider performs a live probe and updates the entry from its outcome.
// Quota-style failures go to cooldown instead of a plain unhealthy mark.
func (s *Service) CheckProvider(ctx context.Context, prober Prober, model string) error {
	s.mu.RLock()
	entry, exists := s.entries[entryKey(prober.Name(), model)]
	unavailable := exists && entry.Unavailable
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("provider not registered: %s:%s", prober.Name(), model)
	}
	if unavailable {
		return fmt.Errorf("provider %s has no credential", prober.Name())
	}

	if err := prober.Probe(ctx, model); err != nil {
		if IsQuotaError(0, err.Error()) {
			s.SetCooldown(prober.Name(), model, ParseCooldownDuration(0, err.Error()))
		} else {
			s.RecordFailure(prober.Name(), model, err.Error())
		}
		return err
	}

	s.RecordSuccess(prober.Name(), model)
	return nil
}

// Snapshot returns copies of every entry, ordered by priority then name.
// Read-only: taking a snapshot never changes health state.
func (s *Service) Snapshot() []ProviderHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProviderHealth, 0, len(s.entries))
	for _, h := range s.entries {
		out = append(out, *h)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		if out[i].ProviderName != out[j].ProviderName {
			return out[i].ProviderName < out[j].ProviderName
		}
		return out[i].ModelName < out[j].ModelName
	})

	return out
}

// Get returns a copy of one entry, if registered
func (s *Service) Get(provider, model string) (ProviderHealth, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.entries[entryKey(provider, model)]
	if !exists {
		return ProviderHealth{}, false
	}
	return *h, true
}

// Summary returns aggregate counts by status for the monitoring endpoint
func (s *Service) Summary() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{"healthy": 0, "unhealthy": 0, "cooldown": 0, "unknown": 0}
	now := time.Now()

	for _, h := range s.entries {
		switch h.Status {
		case StatusHealthy:
			counts["healthy"]++
		case StatusUnhealthy:
			counts["unhealthy"]++
		case StatusCooldown:
			if now.After(h.CooldownUntil) {
				counts["unknown"]++
			} else {
				counts["cooldown"]++
			}
		default:
			counts["unknown"]++
		}
	}

	return counts
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
