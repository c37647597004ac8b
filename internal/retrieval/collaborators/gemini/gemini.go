// Package gemini adapts google.golang.org/genai to collaborators.Provider,
// giving the query rewriter (C3) and category predictor (C14) a third LLM
// backend behind the same interface as the OpenAI and Anthropic adapters.
// Grounded on the teacher's internal/llm/google client: same SDK, the same
// single-candidate text-extraction shape, trimmed to the text-only
// generate(prompt) -> text capability this engine needs.
package gemini

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

type Client struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// Generate implements collaborators.Provider.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}}}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
