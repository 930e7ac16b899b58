package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/finance-bot/internal/ai"
)

type mockGenerator struct {
	response string
	err      error
	prompts  []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, media *ai.Media) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Intent
	}{
		{name: "register", response: "register", want: Register},
		{name: "query", response: "query", want: Query},
		{name: "uppercase", response: "REGISTER", want: Register},
		{name: "quoted", response: `"query"`, want: Query},
		{name: "whitespace", response: "  register \n", want: Register},
		{name: "chatty response defaults to query", response: "I think it is register", want: Query},
		{name: "garbage defaults to query", response: "banana", want: Query},
		{name: "empty defaults to query", response: "", want: Query},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(&mockGenerator{response: tt.response}, zerolog.Nop())
			assert.Equal(t, tt.want, c.Classify(context.Background(), "Gaste 20k"))
		})
	}
}

func TestClassify_GeneratorErrorDefaultsToQuery(t *testing.T) {
	c := NewClassifier(&mockGenerator{err: errors.New("timeout")}, zerolog.Nop())
	assert.Equal(t, Query, c.Classify(context.Background(), "¿Cuánto gasté?"))
}

func TestClassify_PromptContainsMessage(t *testing.T) {
	gen := &mockGenerator{response: "query"}
	c := NewClassifier(gen, zerolog.Nop())

	c.Classify(context.Background(), "¿Cuánto gasté en comida este mes?")

	assert.Contains(t, gen.prompts[0], "¿Cuánto gasté en comida este mes?")
}
