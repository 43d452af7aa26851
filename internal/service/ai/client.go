// Package ai wraps the external generation endpoint behind a single
// synchronous call: system prompt, prior turns in order, then the new user
// turn, submitted as one non-streaming completion request.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/avetisov/assistant-desk/internal/config"
	"github.com/avetisov/assistant-desk/internal/model/conv"
)

// GenerationError reports a failed model call: transport failure, timeout,
// or a response missing the expected reply content.
type GenerationError struct {
	Cause string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("generation failed: %s", e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Client generates assistant replies through an eino chat model.
type Client struct {
	chatModel model.ChatModel
	maxTurns  int
}

// NewClient builds the chat model from configuration.
func NewClient(ctx context.Context, cfg config.LLMConfig) (*Client, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewClientWithModel(chatModel, cfg.MaxHistoryTurns), nil
}

// NewClientWithModel wraps an existing chat model. maxTurns caps how many
// prior history turns are kept in the prompt; values below 1 disable the cap.
func NewClientWithModel(chatModel model.ChatModel, maxTurns int) *Client {
	return &Client{chatModel: chatModel, maxTurns: maxTurns}
}

// Generate submits one completion request and returns the reply text.
// history must already be in ascending turn order.
func (c *Client) Generate(ctx context.Context, systemPrompt string, history []conv.Message, userText string) (string, error) {
	messages := c.buildPrompt(systemPrompt, history, userText)

	response, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", &GenerationError{Cause: "model call failed", Err: err}
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", &GenerationError{Cause: "model returned no reply content"}
	}

	return response.Content, nil
}

// buildPrompt assembles system prompt (when non-empty), the most recent
// history turns up to the cap, and the new user turn, preserving order.
func (c *Client) buildPrompt(systemPrompt string, history []conv.Message, userText string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+2)

	if systemPrompt != "" {
		messages = append(messages, schema.SystemMessage(systemPrompt))
	}

	startIdx := 0
	if c.maxTurns > 0 && len(history) > c.maxTurns {
		startIdx = len(history) - c.maxTurns
	}

	for _, msg := range history[startIdx:] {
		switch msg.Role {
		case conv.RoleUser:
			messages = append(messages, schema.UserMessage(msg.Text))
		case conv.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(msg.Text, nil))
		}
	}

	return append(messages, schema.UserMessage(userText))
}
