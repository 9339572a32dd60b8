// Package genai wraps the Gemini SDK behind the single call the plan
// pipeline needs.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "google.golang.org/genai"

	commonhttp "yoga-guide/internal/common/http"
	"yoga-guide/internal/common/logger"
)

var (
	// ErrMissingAPIKey is returned before any request when no key is configured.
	ErrMissingAPIKey = errors.New("genai: missing API key")
	// ErrEmptyResponse means the service answered without any candidate text.
	ErrEmptyResponse = errors.New("genai: empty response")
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Model      string
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("genai: model %s: %d %s: %s", e.Model, e.StatusCode, e.Status, e.Message)
}

type Config struct {
	BaseURL         string
	APIKey          string
	MaxOutputTokens int
	Temperature     float64
}

type Client struct {
	cfg    Config
	sdk    *sdk.Client
	logger logger.Logger
}

// NewClient builds the SDK client when a key is configured. Without a key the
// client is still usable: HasAPIKey reports false and every call fails fast.
func NewClient(ctx context.Context, cfg Config, httpClient *commonhttp.Client, log logger.Logger) (*Client, error) {
	c := &Client{cfg: cfg, logger: log}
	if !c.HasAPIKey() {
		return c, nil
	}

	cc := &sdk.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: sdk.BackendGeminiAPI,
	}
	if httpClient != nil {
		cc.HTTPClient = httpClient.StandardClient()
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = sdk.HTTPOptions{BaseURL: strings.TrimRight(cfg.BaseURL, "/") + "/"}
	}

	client, err := sdk.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("genai: create client: %w", err)
	}
	c.sdk = client
	return c, nil
}

// HasAPIKey reports whether a credential is configured.
func (c *Client) HasAPIKey() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

func (c *Client) generationConfig() *sdk.GenerateContentConfig {
	if c.cfg.MaxOutputTokens <= 0 && c.cfg.Temperature <= 0 {
		return nil
	}
	gc := &sdk.GenerateContentConfig{MaxOutputTokens: int32(c.cfg.MaxOutputTokens)}
	if c.cfg.Temperature > 0 {
		gc.Temperature = sdk.Ptr(float32(c.cfg.Temperature))
	}
	return gc
}

// GenerateContent sends prompt to modelID and returns the concatenated text
// of the first candidate.
func (c *Client) GenerateContent(ctx context.Context, modelID, prompt string) (string, error) {
	if !c.HasAPIKey() || c.sdk == nil {
		return "", ErrMissingAPIKey
	}

	resp, err := c.sdk.Models.GenerateContent(ctx, modelID, sdk.Text(prompt), c.generationConfig())
	if err != nil {
		return "", c.wrapError(ctx, modelID, err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	if candidate.Content != nil {
		for _, p := range candidate.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			sb.WriteString(p.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: finish reason %s", ErrEmptyResponse, candidate.FinishReason)
	}

	fields := map[string]interface{}{
		"model":        modelID,
		"finishReason": string(candidate.FinishReason),
		"chars":        len(text),
	}
	if resp.UsageMetadata != nil {
		fields["totalTokens"] = resp.UsageMetadata.TotalTokenCount
	}
	c.logger.Debug("generation received", fields)

	return text, nil
}

func (c *Client) wrapError(ctx context.Context, modelID string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("genai: model %s: %w", modelID, ctxErr)
	}

	var apiErr sdk.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Model: modelID, StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
	}
	return fmt.Errorf("genai: model %s: %w", modelID, err)
}
