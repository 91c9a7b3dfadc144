package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/SampleBias/10x-prompt/internal/models"
	"github.com/SampleBias/10x-prompt/internal/services"
	"github.com/SampleBias/10x-prompt/pkg/auth"
)

func protectedApp(jwtAuth *auth.JWTAuth, sessions *services.SessionService) *fiber.App {
	app := fiber.New()
	app.Get("/protected", AuthMiddleware(jwtAuth, sessions), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("user_id"),
			"email":   c.Locals("user_email"),
		})
	})
	return app
}

func TestAuthMiddleware_ValidBearerToken(t *testing.T) {
	jwtAuth, err := auth.NewJWTAuth("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err := jwtAuth.GenerateToken("user-1", "u@example.com", "user")
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	app := protectedApp(jwtAuth, nil)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var body map[string]string
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["user_id"] != "user-1" || body["email"] != "u@example.com" {
		t.Errorf("unexpected identity: %+v", body)
	}
}

func TestAuthMiddleware_InvalidTokenRejected(t *testing.T) {
	jwtAuth, _ := auth.NewJWTAuth("test-secret", time.Minute)

	app := protectedApp(jwtAuth, nil)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-valid-token")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var body models.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.ErrorType != "auth_error" {
		t.Errorf("expected error_type auth_error, got %q", body.ErrorType)
	}
}

func TestAuthMiddleware_NoCredentialsRejected(t *testing.T) {
	jwtAuth, _ := auth.NewJWTAuth("test-secret", time.Minute)

	app := protectedApp(jwtAuth, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthMiddleware_SessionCookie(t *testing.T) {
	jwtAuth, _ := auth.NewJWTAuth("test-secret", time.Minute)
	sessions := services.NewSessionService(nil, time.Hour)

	session, err := sessions.Create(context.Background(), "user-2", "s@example.com")
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}

	app := protectedApp(jwtAuth, sessions)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: session.ID})

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var body map[string]string
	json.Unmarshal(raw, &body)
	if body["user_id"] != "user-2" {
		t.Errorf("expected session identity, got %+v", body)
	}
}

func TestAuthMiddleware_UnknownSessionRejected(t *testing.T) {
	jwtAuth, _ := auth.NewJWTAuth("test-secret", time.Minute)
	sessions := services.NewSessionService(nil, time.Hour)

	app := protectedApp(jwtAuth, sessions)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "no-such-session"})

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthMiddleware_DevBypassWithoutJWT(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	app := protectedApp(nil, nil)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 in development bypass, got %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var body map[string]string
	json.Unmarshal(raw, &body)
	if body["user_id"] != "dev-user" {
		t.Errorf("expected dev identity, got %+v", body)
	}
}
