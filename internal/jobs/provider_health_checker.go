package jobs

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/SampleBias/10x-prompt/internal/health"
)

// ProviderHealthChecker periodically re-probes every registered provider so
// an unhealthy entry can recover without waiting for live traffic. Probes are
// paced by a token bucket to stay clear of provider rate limits.
type ProviderHealthChecker struct {
	healthService *health.Service
	probers       map[string]health.Prober
	interval      time.Duration
	limiter       *rate.Limiter
	lastRun       time.Time
}

// NewProviderHealthChecker creates the health-check job. probers maps
// provider name to its callable client.
func NewProviderHealthChecker(healthService *health.Service, probers map[string]health.Prober, interval time.Duration) *ProviderHealthChecker {
	return &ProviderHealthChecker{
		healthService: healthService,
		probers:       probers,
		interval:      interval,
		limiter:       rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Run probes every provider+model entry that has a callable client
func (p *ProviderHealthChecker) Run(ctx context.Context) error {
	slog.Info("health-job: starting provider health checks")
	p.lastRun = time.Now()

	checked, healthy, failed := 0, 0, 0

	for _, entry := range p.healthService.Snapshot() {
		if entry.Unavailable {
			continue
		}
		prober, ok := p.probers[entry.ProviderName]
		if !ok {
			continue
		}

		if err := p.limiter.Wait(ctx); err != nil {
			slog.Info("health-job: cancelled")
			return err
		}

		checked++
		if err := p.healthService.CheckProvider(ctx, prober, entry.ModelName); err != nil {
			failed++
			slog.Warn("health-job: probe failed",
				"provider", entry.ProviderName, "model", entry.ModelName, "error", err)
		} else {
			healthy++
		}
	}

	slog.Info("health-job: complete", "checked", checked, "healthy", healthy, "failed", failed)
	return nil
}

// GetNextRunTime returns when the next health check should run
func (p *ProviderHealthChecker) GetNextRunTime() time.Time {
	if p.lastRun.IsZero() {
		// first run shortly after startup, once providers are registered
		return time.Now().Add(1 * time.Minute)
	}
	return p.lastRun.Add(p.interval)
}
