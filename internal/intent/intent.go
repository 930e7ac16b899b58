// Package intent labels free text as a transaction registration or a
// read-only data question.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/ai"
)

// Intent is the routing label for a user message.
type Intent string

const (
	// Register means the user wants to record a new transaction.
	Register Intent = "register"
	// Query means the user is asking about existing data. It is also the
	// default for anything ambiguous: a misrouted query cannot mutate data,
	// a misrouted registration can.
	Query Intent = "query"
)

// Classifier labels messages with a single lightweight model call.
type Classifier struct {
	gen ai.Generator
	log zerolog.Logger
}

// NewClassifier creates an intent classifier.
func NewClassifier(gen ai.Generator, log zerolog.Logger) *Classifier {
	return &Classifier{gen: gen, log: log}
}

// Classify always returns one of the two labels. Malformed model output and
// call failures both default to Query.
func (c *Classifier) Classify(ctx context.Context, text string) Intent {
	raw, err := c.gen.Generate(ctx, buildPrompt(text), nil)
	if err != nil {
		c.log.Warn().Err(err).Msg("Intent classification failed, defaulting to query")
		return Query
	}

	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, `"'`)

	switch Intent(label) {
	case Register:
		return Register
	case Query:
		return Query
	default:
		c.log.Warn().Str("label", label).Msg("Unclear intent label, defaulting to query")
		return Query
	}
}

func buildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Eres un clasificador de intenciones para un bot financiero.\n")
	b.WriteString("Determina si el usuario quiere REGISTRAR una transacción o CONSULTAR su información.\n\n")
	b.WriteString(fmt.Sprintf("MENSAJE DEL USUARIO: %q\n\n", text))
	b.WriteString("INSTRUCCIONES:\n")
	b.WriteString("- Registrar un gasto o ingreso (ej: \"Gaste 20k\", \"Recibí 1 palo\"): responde \"register\".\n")
	b.WriteString("- Consultar información (ej: \"¿Cuánto gasté en comida?\", \"Muéstrame mis gastos\"): responde \"query\".\n")
	b.WriteString("- Si es ambiguo, responde \"query\".\n\n")
	b.WriteString("Responde SOLO con una palabra, sin comillas: register o query.")
	return b.String()
}
