package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/SampleBias/10x-prompt/internal/gateway"
	"github.com/SampleBias/10x-prompt/internal/logging"
	"github.com/SampleBias/10x-prompt/internal/models"
)

// Enhancer is the gateway capability the handler depends on
type Enhancer interface {
	Enhance(ctx context.Context, prompt string, category models.PromptType) (*gateway.Result, error)
}

// EnhanceHandler handles prompt enhancement requests
type EnhanceHandler struct {
	gateway Enhancer
}

// NewEnhanceHandler creates a new enhance handler
func NewEnhanceHandler(gw Enhancer) *EnhanceHandler {
	return &EnhanceHandler{gateway: gw}
}

// Handle processes POST /api/enhance
func (h *EnhanceHandler) Handle(c *fiber.Ctx) error {
	var req models.EnhanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:     "Invalid request body",
			Details:   err.Error(),
			ErrorType: "input_error",
		})
	}

	category := models.ParsePromptType(req.Type)
	requestID, _ := c.Locals("requestid").(string)
	userID, _ := c.Locals("user_id").(string)
	reqLog := logging.WithRequest(requestID, userID, string(category))

	if strings.TrimSpace(req.Prompt) == "" {
		reqLog.Warn("enhance: empty prompt received")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:     "No prompt provided",
			ErrorType: "input_error",
		})
	}

	result, err := h.gateway.Enhance(c.UserContext(), req.Prompt, category)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrEmptyPrompt):
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
				Error:     "No prompt provided",
				ErrorType: "input_error",
			})
		case errors.Is(err, gateway.ErrExhausted):
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error:     "No provider available",
				Details:   err.Error(),
				ErrorType: "provider_error",
			})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// client went away mid-request; the status code is moot
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error:     "Request cancelled",
				ErrorType: "provider_error",
			})
		default:
			reqLog.Error("enhance: unexpected failure", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
				Error:     "An unexpected error occurred",
				Details:   err.Error(),
				ErrorType: "internal_error",
			})
		}
	}

	return c.JSON(models.EnhanceResponse{
		EnhancedPrompt: result.EnhancedPrompt,
		OriginalPrompt: req.Prompt,
		PromptType:     string(category),
		Metadata: models.EnhanceMetadata{
			Provider:   result.Provider,
			Model:      result.Model,
			TimeTaken:  result.Elapsed.Seconds(),
			TokenCount: result.TokenCount,
		},
	})
}
