package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	agentshifterrors "github.com/mpelletier/agentshift/pkg/errors"
)

const (
	defaultEndpoint   = "https://api.openai.com/v1/chat/completions"
	defaultMaxRetries = 3
	retryBaseDelay    = 500 * time.Millisecond
)

// ClientOptions configures an OpenAI-compatible chat client.
type ClientOptions struct {
	// Endpoint is the chat-completions URL. Any OpenAI-compatible server
	// works; empty selects the OpenAI default.
	Endpoint string
	// Model is the model identifier sent with every request.
	Model string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// Temperature is passed through verbatim.
	Temperature float64
	// HTTPClient overrides the HTTP client, mainly for tests.
	HTTPClient *http.Client
	// MaxRetries bounds retry attempts on 429 and 5xx responses.
	MaxRetries int
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	opts ClientOptions
	http *http.Client
}

var _ Provider = (*Client)(nil)

// NewClient builds a Client from options, applying defaults.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Model == "" {
		return nil, agentshifterrors.NewValidationError("model", "model identifier is required", nil)
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	return &Client{opts: opts, http: httpClient}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends one chat completion request and returns the first choice.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (Response, error) {
	payload := chatRequest{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, agentshifterrors.NewProviderError(c.opts.Model, err)
	}

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, retryable, err := c.send(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return Response{}, agentshifterrors.NewProviderError(c.opts.Model, lastErr)
}

func (c *Client) send(ctx context.Context, body []byte) (Response, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		// Network failures are worth one more try; context errors are not.
		return Response{}, ctx.Err() == nil, err
	}
	defer httpResp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, true, err
	}

	if httpResp.StatusCode != http.StatusOK {
		retryable := httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500
		return Response{}, retryable, fmt.Errorf("status %d: %s", httpResp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Response{}, false, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return Response{}, false, fmt.Errorf("api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return Response{}, false, fmt.Errorf("response contained no choices")
	}

	return Response{
		Text:         parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, false, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
