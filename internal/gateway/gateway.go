// Package gateway orchestrates prompt enhancement across the configured
// providers: pick the next healthy candidate, run the call through the retry
// executor, update the health registry after every attempt, and fall back to
// the next candidate on failure. A deterministic local rewrite sits at the
// bottom of the chain, so the caller always gets a result.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/SampleBias/10x-prompt/internal/health"
	"github.com/SampleBias/10x-prompt/internal/logging"
	"github.com/SampleBias/10x-prompt/internal/models"
	"github.com/SampleBias/10x-prompt/internal/providers"
	"github.com/SampleBias/10x-prompt/internal/retry"
	"github.com/SampleBias/10x-prompt/internal/sanitize"
	"github.com/SampleBias/10x-prompt/internal/services"
)

// ErrEmptyPrompt is returned for a missing or blank prompt; callers map it to 400
var ErrEmptyPrompt = errors.New("no prompt provided")

// ErrExhausted is the defensive terminal error. It is unreachable while the
// local rewrite exists, but kept so total failure is an explicit error rather
// than a panic.
var ErrExhausted = errors.New("all providers exhausted")

// Result is what a completed enhancement returns to the HTTP layer
type Result struct {
	EnhancedPrompt string
	Provider       string
	Model          string
	Elapsed        time.Duration
	TokenCount     int
}

// completer is the slice of the provider client the gateway needs
type completer interface {
	Name() string
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

type candidate struct {
	client completer
	cfg    models.ProviderConfig
	model  string
}

// Gateway walks the provider chain for each request. Provider order is static
// configuration; it is never re-ranked by latency or cost.
type Gateway struct {
	candidates []candidate
	probers    map[string]health.Prober
	health     *health.Service
	metrics    *services.Metrics
	results    *cache.Cache
}

// New builds the gateway and registers every provider+model pair with the
// health registry. Providers without a credential are registered as
// permanently unhealthy and never called.
func New(cfgs []models.ProviderConfig, healthSvc *health.Service, metrics *services.Metrics, cacheTTL time.Duration) *Gateway {
	ordered := make([]models.ProviderConfig, len(cfgs))
	copy(ordered, cfgs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	g := &Gateway{
		health:  healthSvc,
		metrics: metrics,
		probers: make(map[string]health.Prober),
	}
	if cacheTTL > 0 {
		g.results = cache.New(cacheTTL, 2*cacheTTL)
	}

	for _, cfg := range ordered {
		if !cfg.HasCredential() {
			for _, model := range cfg.Models {
				healthSvc.RegisterUnavailable(cfg.Name, model, "missing API key")
			}
			continue
		}

		client := providers.NewClient(cfg)
		g.probers[cfg.Name] = client
		for _, model := range cfg.Models {
			healthSvc.Register(cfg.Name, model, cfg.Priority)
			g.candidates = append(g.candidates, candidate{client: client, cfg: cfg, model: model})
		}
	}

	return g
}

// Probers exposes the callable provider clients for the periodic health job
func (g *Gateway) Probers() map[string]health.Prober {
	return g.probers
}

// Enhance runs one prompt through the provider chain and returns the
// sanitized enhancement. It fails only on bad input or context cancellation;
// provider failures escalate through the chain down to the local rewrite.
func (g *Gateway) Enhance(ctx context.Context, prompt string, category models.PromptType) (*Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	start := time.Now()
	logger := slog.With("prompt_type", string(category), "prompt_len", len(prompt))

	if g.metrics != nil {
		g.metrics.RecordRequest(string(category))
	}

	cacheKey := string(category) + "\x00" + prompt
	if g.results != nil {
		if hit, ok := g.results.Get(cacheKey); ok {
			cached := hit.(Result)
			cached.Elapsed = time.Since(start)
			logger.Info("enhance: served from result cache", "provider", cached.Provider)
			if g.metrics != nil {
				g.metrics.RecordCacheHit()
			}
			return &cached, nil
		}
	}

	instruction := models.InstructionFor(category)

	for _, cand := range g.candidates {
		attemptLog := logging.WithProvider(logger, cand.client.Name(), cand.model)

		if !g.health.IsHealthy(cand.client.Name(), cand.model) {
			attemptLog.Info("enhance: skipping unhealthy provider")
			continue
		}

		attemptLog.Info("enhance: trying provider")
		raw, err := retry.DoWithResult(ctx, cand.cfg.MaxRetries, cand.cfg.RetryDelay, func() (string, error) {
			return cand.client.Complete(ctx, cand.model, instruction, prompt)
		})

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.recordFailure(cand, err)
			attemptLog.Warn("enhance: provider failed, trying next", "error", err)
			continue
		}

		g.health.RecordSuccess(cand.client.Name(), cand.model)

		cleaned := sanitize.Clean(raw, category)
		if cleaned == "" {
			g.health.RecordFailure(cand.client.Name(), cand.model, "empty response after sanitization")
			attemptLog.Warn("enhance: response empty after sanitization, trying next")
			continue
		}

		result := Result{
			EnhancedPrompt: cleaned,
			Provider:       cand.client.Name(),
			Model:          cand.model,
			Elapsed:        time.Since(start),
			TokenCount:     estimateTokens(cleaned),
		}
		if g.results != nil {
			g.results.Set(cacheKey, result, cache.DefaultExpiration)
		}
		if g.metrics != nil {
			g.metrics.RecordLatency(result.Elapsed.Seconds())
		}
		attemptLog.Info("enhance: success",
			"elapsed", result.Elapsed, "response_len", len(cleaned))
		return &result, nil
	}

	// Every remote candidate was skipped or failed: deterministic rewrite.
	logger.Info("enhance: all remote providers exhausted, using local rewrite")
	if g.metrics != nil {
		g.metrics.RecordFallback()
	}

	text := localRewrite(prompt, category)
	if text == "" {
		// unreachable: localRewrite always returns content
		return nil, ErrExhausted
	}

	result := Result{
		EnhancedPrompt: text,
		Provider:       LocalProviderName,
		Model:          localModelName,
		Elapsed:        time.Since(start),
		TokenCount:     estimateTokens(text),
	}
	if g.metrics != nil {
		g.metrics.RecordLatency(result.Elapsed.Seconds())
	}
	return &result, nil
}

// recordFailure routes a provider error to the right health transition:
// quota errors get a timed cooldown, everything else a failure mark.
func (g *Gateway) recordFailure(cand candidate, err error) {
	if g.metrics != nil {
		g.metrics.RecordProviderError(cand.client.Name())
	}

	var pErr *providers.ProviderError
	if errors.As(err, &pErr) && health.IsQuotaError(pErr.StatusCode, pErr.Body) {
		cooldown := health.ParseCooldownDuration(pErr.StatusCode, pErr.Body)
		g.health.SetCooldown(cand.client.Name(), cand.model, cooldown)
		return
	}
	g.health.RecordFailure(cand.client.Name(), cand.model, err.Error())
}

// estimateTokens approximates token usage by word count
func estimateTokens(text string) int {
	return len(strings.Fields(text))
}
