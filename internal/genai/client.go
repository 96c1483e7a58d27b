// Package genai is the HTTP client for the generation backend
// (OpenAI-compatible chat completions API).
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"interview-agent/internal/common/config"
	"interview-agent/internal/common/logger"
)

var (
	ErrBackendUnavailable = errors.New("GENAI_BACKEND_UNAVAILABLE")
	ErrBackendTimeout     = errors.New("GENAI_BACKEND_TIMEOUT")
	ErrMalformedResponse  = errors.New("GENAI_MALFORMED_RESPONSE")
)

type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int

	// Blocking calls carry a client timeout; the streaming client relies
	// on the request context only.
	client       *http.Client
	streamClient *http.Client

	logger logger.Logger
}

func NewClient(cfg config.GenAIConfig, log logger.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		maxRetries:   cfg.MaxRetries,
		client:       &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Millisecond},
		streamClient: &http.Client{},
		logger:       log.With(map[string]interface{}{"component": "genai"}),
	}
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	StreamOptions  *streamOptions  `json:"stream_options,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Tools          []toolSpec      `json:"tools,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateObject makes one blocking JSON-mode call and decodes the model
// output into out. Used for structured decodes with a small output budget.
func (c *Client) GenerateObject(ctx context.Context, model, system string, messages []ChatMessage, maxTokens int, out interface{}) error {
	body := completionRequest{
		Model:          model,
		Messages:       withSystem(system, messages),
		MaxTokens:      maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var resp completionResponse
	if err := c.doJSON(ctx, body, &resp); err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("%w: empty choices", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// Complete makes one blocking plain-text call, e.g. title generation.
func (c *Client) Complete(ctx context.Context, model, system, prompt string, maxTokens int) (string, error) {
	body := completionRequest{
		Model:     model,
		Messages:  withSystem(system, []ChatMessage{{Role: "user", Content: prompt}}),
		MaxTokens: maxTokens,
	}

	var resp completionResponse
	if err := c.doJSON(ctx, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrMalformedResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// doJSON posts a completion request with retries and exponential backoff.
func (c *Client) doJSON(ctx context.Context, body completionRequest, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ErrBackendTimeout
			}
		}

		resp, err := c.post(ctx, c.client, payload, false)
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrBackendTimeout
		}
		if err != nil {
			lastErr = err
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return ErrBackendTimeout
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, lastErr)
}

func (c *Client) post(ctx context.Context, client *http.Client, payload []byte, stream bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

func withSystem(system string, messages []ChatMessage) []ChatMessage {
	if system == "" {
		return messages
	}
	out := make([]ChatMessage, 0, len(messages)+1)
	out = append(out, ChatMessage{Role: "system", Content: system})
	return append(out, messages...)
}
