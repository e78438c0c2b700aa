// Package model talks to the language model behind the assistant. Clients
// keep the conversation history, opened by the system prompt, across queries.
package model

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/alantheprice/ori/pkg/configuration"
	"github.com/alantheprice/ori/pkg/prompts"
	"github.com/alantheprice/ori/pkg/utils"
)

// Client sends one user prompt and returns the assistant's reply.
type Client interface {
	SendQuery(ctx context.Context, prompt string) (string, error)
	Model() string
}

type options struct {
	httpClient *http.Client
	endpoint   string
	backoff    *utils.RateLimitBackoff
	logger     *utils.Logger
}

type Option func(*options)

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithEndpoint overrides the OpenRouter chat completions URL.
func WithEndpoint(url string) Option {
	return func(o *options) { o.endpoint = url }
}

func WithBackoff(b *utils.RateLimitBackoff) Option {
	return func(o *options) { o.backoff = b }
}

func WithLogger(logger *utils.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New returns the client for cfg.Provider. apiKey is only used by OpenRouter.
func New(cfg *configuration.Config, apiKey string, opts ...Option) (Client, error) {
	switch cfg.Provider {
	case configuration.ProviderOpenRouter, "":
		return NewOpenRouterClient(apiKey, cfg.Model, opts...)
	case configuration.ProviderOllama:
		model := cfg.Model
		if model == configuration.DefaultModel {
			model = configuration.DefaultOllamaModel
		}
		return NewOllamaClient(model, opts...)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// conversation is the history shared by every query of one client.
type conversation struct {
	mu      sync.Mutex
	history []prompts.Message
}

func newConversation() *conversation {
	return &conversation{history: prompts.NewConversation()}
}

// with returns a copy of the history followed by prompt as a user message.
func (c *conversation) with(prompt string) []prompts.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]prompts.Message, len(c.history), len(c.history)+1)
	copy(msgs, c.history)
	return append(msgs, prompts.Message{Role: "user", Content: prompt})
}

// commit records a completed exchange. Failed queries are not recorded.
func (c *conversation) commit(prompt, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history,
		prompts.Message{Role: "user", Content: prompt},
		prompts.Message{Role: "assistant", Content: reply})
}

func (c *conversation) messages() []prompts.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]prompts.Message(nil), c.history...)
}
