package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const chatCompletionsEndpoint = "/chat/completions"

// Provider failure classifications. Handlers map these to coarse statuses;
// provider-internal detail is never surfaced past this package.
var (
	ErrProviderQuotaExceeded = errors.New("provider quota exceeded")
	ErrProviderRateLimited   = errors.New("provider rate limited")
	ErrProvider              = errors.New("provider request failed")
)

// RecommendationProvider is the narrow contract to the external
// recommendation service: one prompt in, free text out.
type RecommendationProvider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ProviderConfig carries the request parameters sent with every call.
type ProviderConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type openAIClient struct {
	cfg    ProviderConfig
	client *http.Client
	logger zerolog.Logger
}

// NewOpenAIClient creates a chat-completions client. Every call is bounded
// by the configured timeout; an expired call surfaces as ErrProvider.
func NewOpenAIClient(cfg ProviderConfig, logger zerolog.Logger) RecommendationProvider {
	return &openAIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("service", "OpenAIClient").Logger(),
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type providerErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *openAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	bodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+chatCompletionsEndpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return "", fmt.Errorf("creating completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("Provider request failed")
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response body: %v", ErrProvider, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp providerErrorResponse
		_ = json.Unmarshal(body, &errResp)
		c.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("error_code", errResp.Error.Code).
			Str("error_type", errResp.Error.Type).
			Msg("Provider returned error")

		switch errResp.Error.Code {
		case "insufficient_quota":
			return "", ErrProviderQuotaExceeded
		case "rate_limit_exceeded":
			return "", ErrProviderRateLimited
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", ErrProviderRateLimited
		}
		return "", fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrProvider, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrProvider)
	}
	return completion.Choices[0].Message.Content, nil
}
