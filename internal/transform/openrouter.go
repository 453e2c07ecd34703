// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jaden/paper-pipeline/internal/httputil"
	"github.com/jaden/paper-pipeline/pkg/types"
)

// Default client settings. The base URL points at OpenRouter's
// OpenAI-compatible endpoint; any compatible endpoint works.
const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 120 * time.Second
)

// OpenRouterClient calls an OpenAI-compatible /chat/completions endpoint
// with a single user-role message per request.
type OpenRouterClient struct {
	baseURL    string
	apiKey     string
	referer    string
	title      string
	maxRetries int
	client     *http.Client
}

// NewOpenRouterClient builds a completion client from cfg. The API key is
// required; everything else has defaults.
func NewOpenRouterClient(cfg types.AIConfig) (*OpenRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &OpenRouterClient{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		referer:    cfg.Referer,
		title:      cfg.Title,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// chatRequest is the /chat/completions request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatMessage is one message in the completion conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the /chat/completions response body.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends prompt as a single-turn request and returns the completion
// text verbatim. Transient failures (network errors, 429/5xx statuses,
// malformed responses) are reported as TransientError so the stage driver
// can retry them; other failures are permanent.
func (c *OpenRouterClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.maxRetries)
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("calling completion API: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := fmt.Errorf("completion API returned %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", &TransientError{Err: apiErr}
		}
		return "", apiErr
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", &TransientError{Err: fmt.Errorf("decoding completion response: %w", err)}
	}
	if cResp.Error != nil {
		return "", &TransientError{Err: fmt.Errorf("completion API error: %s", cResp.Error.Message)}
	}
	if len(cResp.Choices) == 0 {
		return "", &TransientError{Err: fmt.Errorf("completion API returned no choices")}
	}

	return cResp.Choices[0].Message.Content, nil
}
