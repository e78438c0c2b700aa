package model

import (
	"context"
	"fmt"
	"strings"

	ollama "github.com/ollama/ollama/api"

	"github.com/alantheprice/ori/pkg/prompts"
	"github.com/alantheprice/ori/pkg/utils"
)

// OllamaClient implements Client against a local Ollama server. OLLAMA_HOST
// selects the server.
type OllamaClient struct {
	client *ollama.Client
	model  string
	conv   *conversation
	logger *utils.Logger
}

func NewOllamaClient(model string, opts ...Option) (*OllamaClient, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	client, err := ollama.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("could not create ollama client: %w", err)
	}
	return &OllamaClient{client: client, model: model, conv: newConversation(), logger: o.logger}, nil
}

func (c *OllamaClient) Model() string { return c.model }

func (c *OllamaClient) history() []prompts.Message { return c.conv.messages() }

func (c *OllamaClient) SendQuery(ctx context.Context, prompt string) (string, error) {
	history := c.conv.with(prompt)
	messages := make([]ollama.Message, len(history))
	for i, msg := range history {
		messages[i] = ollama.Message{Role: msg.Role, Content: msg.Content}
	}

	stream := false
	req := &ollama.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": 0.1,
		},
	}

	var reply strings.Builder
	respFunc := func(res ollama.ChatResponse) error {
		reply.WriteString(res.Message.Content)
		return nil
	}
	if c.logger != nil {
		c.logger.Logf("ollama chat: model %s, %d messages", c.model, len(messages))
	}
	if err := c.client.Chat(ctx, req, respFunc); err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}

	c.conv.commit(prompt, reply.String())
	return reply.String(), nil
}
