package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
	"github.com/kailas-cloud/skillrank/internal/usecase/correction"
)

// Compile-time check: Corrector is a correction strategy.
var _ correction.Strategy = (*Corrector)(nil)

// Corrector asks a chat model for typo fixes. The correction usecase validates every proposal.
type Corrector struct {
	client *openai.Client
	model  string
	user   string
}

// NewCorrector creates a chat-completion correction strategy.
func NewCorrector(cfg *Config) *Corrector {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Corrector{client: newClient(cfg), model: model, user: cfg.User}
}

// Name identifies the strategy in metrics and logs.
func (c *Corrector) Name() string { return "openai" }

// Correct proposes corrections for a normalized query.
func (c *Corrector) Correct(ctx context.Context, text string) ([]query.Correction, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: correction.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: correction.UserPrompt(text)},
		},
		Temperature:    0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		User:           c.user,
	})
	if err != nil {
		return nil, providerError("chat completion", err, domain.ErrCorrectorUnavailable)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty correction response: %w", domain.ErrCorrectorUnavailable)
	}

	proposals, err := correction.ParseProposals(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorrectorUnavailable, err)
	}
	return proposals, nil
}
