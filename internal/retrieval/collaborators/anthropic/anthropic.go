// Package anthropic adapts github.com/anthropics/anthropic-sdk-go to
// collaborators.Provider, giving the query rewriter (C3) a second LLM
// backend behind the same interface as the OpenAI adapter — concrete
// evidence of the "rewriter polymorphism" design note (spec.md §9):
// the capability is generate(prompt) -> text regardless of which provider
// backs it, selected by config rather than by type.
package anthropic

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type Client struct {
	sdk       sdk.Client
	model     string
	maxTokens int64
}

func New(apiKey, model string) *Client {
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &Client{
		sdk:       sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 1024,
	}
}

// Generate implements collaborators.Provider.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := c.sdk.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}
	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}
