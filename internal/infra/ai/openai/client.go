package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/automaton-compliance/internal/domain/ai"
)

const (
	defaultModel        = "gpt-4o"
	defaultMaxTokens    = 1024
	defaultTemperature  = 0.2
	defaultSystemPrompt = "You are a compliance analysis expert."
)

// Options tunes the chat completion request.
type Options struct {
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
	// BaseURL overrides the API endpoint (proxies, tests).
	BaseURL string
}

// Client implements ai.Oracle on the OpenAI chat completion API.
type Client struct {
	*openai.Client
	opts Options
}

func NewClient(apiKey string, opts Options) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
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
	return &Client{Client: openai.NewClientWithConfig(cfg), opts: opts}
}

var _ ai.Oracle = (*Client)(nil)

// Invoke sends prompt as the user message and returns the first choice.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.opts.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// Reasoning models (o1/o3/o4/gpt-5*) pakai MaxCompletionTokens dan tidak terima temperature
	if isReasoningModel(c.opts.Model) {
		req.MaxCompletionTokens = c.opts.MaxTokens
	} else {
		req.MaxTokens = c.opts.MaxTokens
		req.Temperature = c.opts.Temperature
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ai.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.Code == "insufficient_quota"
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
