package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alantheprice/ori/pkg/configuration"
	"github.com/alantheprice/ori/pkg/prompts"
	"github.com/alantheprice/ori/pkg/utils"
)

const OpenRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterClient implements Client over the OpenAI-compatible OpenRouter API.
type OpenRouterClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	conv       *conversation
	backoff    *utils.RateLimitBackoff
	logger     *utils.Logger

	mu     sync.Mutex
	status func(string)
}

type chatRequest struct {
	Model    string            `json:"model"`
	Messages []prompts.Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message prompts.Message `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code     any    `json:"code"`
	Message  string `json:"message"`
	Metadata struct {
		Raw string `json:"raw"`
	} `json:"metadata"`
}

func (e *apiError) Error() string {
	msg := "API error"
	if e.Code != nil {
		msg += fmt.Sprintf(" (code %v)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Metadata.Raw != "" {
		msg += " (details: " + e.Metadata.Raw + ")"
	}
	return msg
}

// NewOpenRouterClient creates a client for model authenticated by apiKey.
func NewOpenRouterClient(apiKey, model string, opts ...Option) (*OpenRouterClient, error) {
	if apiKey == "" {
		return nil, configuration.ErrNoAPIKey
	}
	o := options{
		httpClient: &http.Client{Timeout: 300 * time.Second},
		endpoint:   OpenRouterEndpoint,
		backoff:    utils.NewRateLimitBackoff(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &OpenRouterClient{
		httpClient: o.httpClient,
		endpoint:   o.endpoint,
		apiKey:     apiKey,
		model:      model,
		conv:       newConversation(),
		backoff:    o.backoff,
		logger:     o.logger,
	}
	c.backoff.SetOutputFunc(c.report)
	return c, nil
}

func (c *OpenRouterClient) Model() string { return c.model }

// history returns the conversation so far, system prompt first.
func (c *OpenRouterClient) history() []prompts.Message { return c.conv.messages() }

// SetStatusFunc routes retry notices to fn while a query is in flight.
func (c *OpenRouterClient) SetStatusFunc(fn func(string)) {
	c.mu.Lock()
	c.status = fn
	c.mu.Unlock()
}

func (c *OpenRouterClient) report(msg string) {
	c.logf("%s", msg)
	c.mu.Lock()
	fn := c.status
	c.mu.Unlock()
	if fn != nil {
		fn(msg + "...")
	}
}

// SendQuery sends prompt with the conversation so far, retrying rate-limited
// requests with backoff.
func (c *OpenRouterClient) SendQuery(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.model, Messages: c.conv.with(prompt)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		reply, resp, err := c.post(ctx, body)
		if err == nil {
			c.conv.commit(prompt, reply)
			return reply, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !c.backoff.IsRateLimitError(err, resp) || !c.backoff.ShouldRetry(attempt) {
			return "", err
		}
		delay := c.backoff.CalculateBackoffDelay(resp, attempt)
		c.logf("openrouter attempt %d rate limited, waiting %v", attempt+1, delay)
		if err := c.backoff.Wait(ctx, delay, "OpenRouter"); err != nil {
			return "", err
		}
	}
}

func (c *OpenRouterClient) post(ctx context.Context, body []byte) (string, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/alantheprice/ori")
	req.Header.Set("X-Title", "Ori Terminal Assistant")
	req.Header.Set("User-Agent", "OriAssistant/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to connect to OpenRouter API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", resp, fmt.Errorf("OpenRouter returned status %d: %s", resp.StatusCode, utils.Truncate(strings.TrimSpace(string(data)), 200))
		}
		return "", resp, fmt.Errorf("failed to parse API response: %w", err)
	}
	if parsed.Error != nil {
		return "", resp, parsed.Error
	}
	if resp.StatusCode != http.StatusOK {
		return "", resp, fmt.Errorf("OpenRouter returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", resp, errors.New("unexpected API response format: no choices")
	}
	return parsed.Choices[0].Message.Content, resp, nil
}

func (c *OpenRouterClient) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Logf(format, args...)
	}
}
