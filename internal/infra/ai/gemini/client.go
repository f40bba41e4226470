package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/bryanwahyu/automaton-compliance/internal/domain/ai"
)

const (
	defaultModel        = "gemini-2.5-flash"
	defaultMaxTokens    = 1024
	defaultTemperature  = 0.2
	defaultSystemPrompt = "You are a compliance analysis expert."
)

type Options struct {
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
	BaseURL      string
}

// Client implements ai.Oracle on the Gemini API.
type Client struct {
	client *genai.Client
	opts   Options
}

func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}

	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{client: client, opts: opts}, nil
}

var _ ai.Oracle = (*Client)(nil)

func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.opts.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.opts.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(c.opts.Temperature),
		MaxOutputTokens:   int32(c.opts.MaxTokens),
	})
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}

func isQuotaError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED"
	}
	return false
}
