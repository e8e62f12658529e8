// Package llm adapts the external language model to a one-method completion
// interface and classifies its failures so callers can tell "fix your
// credentials" from "retry later" from "unknown upstream problem".
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Failure classes for model calls. Nothing in this package retries; each
// failure is surfaced once, already classified.
var (
	ErrAuthentication = errors.New("llm: authentication failed")
	ErrRateLimited    = errors.New("llm: rate limited")
	ErrUpstream       = errors.New("llm: upstream failure")
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second
)

// Client completes prompts against the OpenAI chat API.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a completion client. model defaults to gpt-4o-mini and
// timeout to 60s when zero-valued. baseURL overrides the API endpoint
// (used by tests and compatible gateways); pass "" for the default.
func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

// Complete sends the prompt as a single user message and returns the model's
// reply. The call runs under an explicit timeout; expiry is reported as an
// upstream failure.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps an API failure onto the package's error classes, preserving
// the original message.
func classify(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrAuthentication, err)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
}
