package middleware

import (
	"log"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/SampleBias/10x-prompt/internal/models"
	"github.com/SampleBias/10x-prompt/internal/services"
	"github.com/SampleBias/10x-prompt/pkg/auth"
)

const sessionCookieName = "session_id"

// AuthMiddleware gates a route behind authentication. A Bearer token is
// checked first; without one, the session cookie is looked up in the session
// store. The enhance gateway itself never sees unauthenticated requests.
func AuthMiddleware(jwtAuth *auth.JWTAuth, sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip auth if JWT secret is not configured (development mode ONLY)
		environment := os.Getenv("ENVIRONMENT")

		if jwtAuth == nil {
			// Never allow auth bypass in production
			if environment == "production" {
				log.Fatal("❌ CRITICAL SECURITY ERROR: JWT auth not configured in production environment. Authentication is required.")
			}

			slog.Warn("auth skipped: JWT not configured (development mode)")
			c.Locals("user_id", "dev-user")
			c.Locals("user_email", "dev@localhost")
			return c.Next()
		}

		// 1. Bearer token
		if authHeader := c.Get("Authorization"); authHeader != "" {
			token, err := auth.ExtractToken(authHeader)
			if err == nil {
				user, err := jwtAuth.VerifyAccessToken(token)
				if err == nil {
					c.Locals("user_id", user.ID)
					c.Locals("user_email", user.Email)
					return c.Next()
				}
				slog.Warn("auth: token rejected", "error", err)
			}
		}

		// 2. Session cookie
		if sessions != nil {
			if sessionID := c.Cookies(sessionCookieName); sessionID != "" {
				session, err := sessions.Get(c.UserContext(), sessionID)
				if err == nil {
					c.Locals("user_id", session.UserID)
					c.Locals("user_email", session.Email)
					return c.Next()
				}
				slog.Warn("auth: session rejected", "error", err)
			}
		}

		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
			Error:     "Authentication required",
			ErrorType: "auth_error",
		})
	}
}
