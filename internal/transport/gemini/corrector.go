// Package gemini adapts the Google GenAI API as a typo correction strategy.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
	"github.com/kailas-cloud/skillrank/internal/usecase/correction"
)

const defaultModel = "gemini-2.5-flash"

var _ correction.Strategy = (*Corrector)(nil)

// contentGenerator is the slice of genai.Models the corrector uses.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Corrector asks Gemini for typo fixes.
type Corrector struct {
	models    contentGenerator
	modelName string
}

// NewCorrector creates a Corrector configured for the Gemini API backend.
func NewCorrector(ctx context.Context, apiKey, model string) (*Corrector, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newCorrector(client.Models, model), nil
}

func newCorrector(models contentGenerator, model string) *Corrector {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Corrector{models: models, modelName: model}
}

// Name identifies the strategy in metrics and logs.
func (c *Corrector) Name() string { return "gemini" }

// Model returns the configured model name.
func (c *Corrector) Model() string { return c.modelName }

// Correct proposes corrections for a normalized query.
func (c *Corrector) Correct(ctx context.Context, text string) ([]query.Correction, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(correction.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "application/json",
	}

	resp, err := c.models.GenerateContent(ctx, c.modelName, genai.Text(correction.UserPrompt(text)), config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w: %w", domain.ErrCorrectorUnavailable, err)
	}

	output := responseText(resp)
	if output == "" {
		return nil, fmt.Errorf("gemini api returned empty response: %w", domain.ErrCorrectorUnavailable)
	}

	proposals, err := correction.ParseProposals(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorrectorUnavailable, err)
	}
	return proposals, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}
