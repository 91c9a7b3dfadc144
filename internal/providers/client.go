// Package providers wraps each upstream completion API behind a uniform
// client. Groq and DeepSeek both expose OpenAI-compatible chat completion
// endpoints, so one adapter covers both; response extraction is normalized
// here so callers never branch on provider response shape.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SampleBias/10x-prompt/internal/models"
)

// ErrorKind classifies a provider failure
type ErrorKind string

const (
	KindNetwork   ErrorKind = "network"
	KindHTTP      ErrorKind = "http_error"
	KindMalformed ErrorKind = "malformed_response"
)

// ProviderError carries the status code and raw body for diagnostics
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int    // 0 when no HTTP response was received
	Body       string // raw response body, truncated for logging by callers
	Err        error
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("%s: API error %d: %s", e.Provider, e.StatusCode, e.Body)
	case KindMalformed:
		return fmt.Sprintf("%s: malformed response: %s", e.Provider, e.Body)
	default:
		return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Fixed generation settings, shared by every provider call
const (
	completionTemperature = 0.7
	completionMaxTokens   = 2000
)

// Client calls one provider's chat completion endpoint. It performs no
// retries; bounded retry is the caller's responsibility.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client from a provider config
func NewClient(cfg models.ProviderConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		name:       cfg.Name,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier used in health keys and metrics labels
func (c *Client) Name() string { return c.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request and returns the raw response
// text. Failures come back as *ProviderError with whatever status code and
// body were available.
func (c *Client) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	body, err := c.post(ctx, chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &ProviderError{Provider: c.name, Kind: KindMalformed, Body: truncate(string(body), 500), Err: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &ProviderError{Provider: c.name, Kind: KindMalformed, Body: "response has no choices"}
	}

	content := parsed.Choices[0].Message.Content
	if content == "" {
		return "", &ProviderError{Provider: c.name, Kind: KindMalformed, Body: "response content is empty"}
	}

	return content, nil
}

// Probe issues a minimal one-token completion to refresh health state
func (c *Client) Probe(ctx context.Context, model string) error {
	_, err := c.post(ctx, chatRequest{
		Model:     model,
		Messages:  []chatMessage{{Role: "user", Content: "hi"}},
		MaxTokens: 1,
	})
	return err
}

func (c *Client) post(ctx context.Context, reqBody chatRequest) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Kind: KindNetwork, Err: err}
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Kind: KindNetwork, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// timeouts and connection errors land here and are treated alike
		return nil, &ProviderError{Provider: c.name, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Kind: KindNetwork, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   c.name,
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 500),
		}
	}

	return body, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
