// Package ai wraps the Gemini client behind a narrow text-in/text-out
// interface so prompt construction and response validation can be tested
// with canned responses.
package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for all calls.
const DefaultModel = "gemini-2.5-flash"

// Media is an optional binary attachment for a generation call.
type Media struct {
	MIMEType string
	Data     []byte
}

// Generator is the single seam to the generative model: a prompt, an
// optional media part, free text back. Implementations must not interpret
// the response.
type Generator interface {
	Generate(ctx context.Context, prompt string, media *Media) (string, error)
}

// GeminiGenerator is the production Generator backed by the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator using the given API key.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("NewGeminiGenerator: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create genai client: %w", err)
	}

	return &GeminiGenerator{client: client, model: DefaultModel}, nil
}

// Generate sends the prompt (plus optional inline media) to the model and
// returns the raw response text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, media *Media) (string, error) {
	parts := []*genai.Part{{Text: prompt}}
	if media != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: media.MIMEType,
				Data:     media.Data,
			},
		})
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Generate: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Generate: empty response from model")
	}
	return text, nil
}
