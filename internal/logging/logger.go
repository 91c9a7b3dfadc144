package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithRequest returns a logger with request context fields attached.
// Use this for all logging within a single enhancement request.
func WithRequest(requestID, userID, promptType string) *slog.Logger {
	return slog.With(
		"request_id", requestID,
		"user_id", userID,
		"prompt_type", promptType,
	)
}

// WithProvider returns a logger scoped to a provider+model attempt.
func WithProvider(logger *slog.Logger, provider, model string) *slog.Logger {
	return logger.With(
		"provider", provider,
		"model", model,
	)
}
