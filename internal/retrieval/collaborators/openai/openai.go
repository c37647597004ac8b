// Package openai adapts github.com/openai/openai-go/v2 to the core's
// collaborators.Provider (for C3's LLM rewrite path) and
// collaborators.CrossEncoder (for C13), trimmed from the teacher's
// internal/llm/openai.Client down to the single prompt-in/text-out and
// pairwise-score shapes the retrieval core needs.
package openai

import (
	"context"
	"fmt"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/Nithin8919/policyretrieval/internal/retrieval/collaborators"
)

// Client is a thin Provider + CrossEncoder adapter over the Chat Completions
// API.
type Client struct {
	sdk   sdk.Client
	model string
}

func New(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{sdk: sdk.NewClient(opts...), model: model}
}

// Generate implements collaborators.Provider for the query rewriter's LLM
// path: one prompt in, one completion out.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.sdk.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(c.model),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai generate: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Rerank implements collaborators.CrossEncoder by asking the model to score
// each candidate's relevance to the query on a 0-1 scale via a single
// structured prompt, then sorting. This is a pragmatic stand-in for a
// dedicated cross-encoder model — no such endpoint exists in the OpenAI
// Chat Completions API, so pairwise scoring is approximated with a single
// batched relevance-scoring call instead of one call per candidate.
func (c *Client) Rerank(ctx context.Context, query string, candidates []collaborators.CrossEncoderCandidate, topK int, mode string) ([]collaborators.CrossEncoderCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	prompt := buildRerankPrompt(query, candidates, mode)
	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	scores := parseScores(text, len(candidates))
	out := make([]collaborators.CrossEncoderCandidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		if i < len(scores) {
			out[i].Score = scores[i]
		}
	}
	sortByScoreDesc(out)
	if topK > 0 && topK < len(out) {
		out = out[:topK]
	}
	return out, nil
}

func buildRerankPrompt(query string, candidates []collaborators.CrossEncoderCandidate, mode string) string {
	p := fmt.Sprintf("Query (%s mode): %s\nScore each passage's relevance from 0.0 to 1.0, one score per line, same order as given.\n", mode, query)
	for i, c := range candidates {
		p += fmt.Sprintf("%d) %s\n", i+1, c.Content)
	}
	return p
}

func sortByScoreDesc(c []collaborators.CrossEncoderCandidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].Score > c[j-1].Score; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}
