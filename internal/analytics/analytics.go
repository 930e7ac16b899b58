// Package analytics answers natural-language financial questions by
// generating a restricted read-only SQL query, validating it, executing it,
// and narrating the results. Three independent checkpoints (keyword
// pre-filter, marker check on the generated SQL, marker re-check on the
// results) guard the destructive path; each one alone is bypassable by an
// adversarial model response, together they are not.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-bot/internal/ai"
	"github.com/dvloznov/finance-bot/internal/dates"
	"github.com/dvloznov/finance-bot/internal/money"
)

// Executor runs one validated SELECT in a fresh read-only session and
// returns the rows as ordered column→value maps.
type Executor interface {
	QueryRows(ctx context.Context, query string) ([]map[string]any, error)
}

// Service is the safe-query pipeline.
type Service struct {
	gen  ai.Generator
	exec Executor
	log  zerolog.Logger
	now  func() time.Time
}

// NewService creates an analytics service.
func NewService(gen ai.Generator, exec Executor, log zerolog.Logger) *Service {
	return &Service{gen: gen, exec: exec, log: log, now: dates.NowUTC}
}

// AnswerQuestion runs the full pipeline for one question. Refusal
// conditions return (RefusalMessage, nil); safety and execution failures
// return typed errors for the router to convert into fixed user-facing
// strings.
func (s *Service) AnswerQuestion(ctx context.Context, question string, userID int64) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", &UnsafeQueryError{Reason: "question is empty"}
	}

	// 1. Destructive-intent pre-filter: refuse before spending a model call.
	if HasDestructiveIntent(question) {
		s.log.Warn().Int64("user_id", userID).Str("question", question).
			Msg("Destructive intent detected in question")
		return RefusalMessage, nil
	}

	// 2. Generate the SQL.
	query, err := s.generateSQL(ctx, question, userID)
	if err != nil {
		return "", err
	}

	// The model refuses by emitting the marker instead of a query.
	if strings.Contains(strings.ToUpper(query), refusalMarker) {
		s.log.Warn().Int64("user_id", userID).Str("question", question).
			Msg("SQL generation refused the question")
		return RefusalMessage, nil
	}

	// 3. Static safety validation; nothing unvalidated ever executes.
	if err := ValidateSQL(query); err != nil {
		s.log.Warn().Err(err).Str("query", truncate(query, 200)).
			Msg("Generated SQL failed safety validation")
		return "", err
	}

	// 4. Best-effort scoping check: detective, not preventive.
	if !strings.Contains(query, strconv.FormatInt(userID, 10)) &&
		!strings.Contains(strings.ToLower(query), "user_id") {
		s.log.Warn().Int64("user_id", userID).Str("query", truncate(query, 200)).
			Msg("Generated SQL might not filter by user_id")
	}

	// 5. Execute.
	rows, err := s.exec.QueryRows(ctx, query)
	if err != nil {
		s.log.Error().Err(err).Str("query", truncate(query, 200)).Msg("SQL execution failed")
		return "", &QueryExecutionError{Err: err}
	}

	// 6. Re-check the results for an echoed refusal marker.
	if containsRefusalMarker(rows) {
		s.log.Warn().Int64("user_id", userID).Msg("Refusal marker found in query results")
		return RefusalMessage, nil
	}

	// 7-8. Narrate the results, with a deterministic fallback.
	answer := s.interpretResults(ctx, question, rows)

	s.log.Info().Int64("user_id", userID).Str("question", truncate(question, 50)).
		Int("rows", len(rows)).Msg("Question answered")

	return answer, nil
}

func (s *Service) generateSQL(ctx context.Context, question string, userID int64) (string, error) {
	today := dates.Today(s.now())

	raw, err := s.gen.Generate(ctx, buildSQLPrompt(question, userID, today.String()), nil)
	if err != nil {
		return "", &QueryExecutionError{Err: fmt.Errorf("generateSQL: %w", err)}
	}

	query := ai.CleanSQL(raw)
	s.log.Debug().Str("query", truncate(query, 300)).Msg("Generated SQL")
	return query, nil
}

// interpretResults asks the model to narrate the result set. If that call
// fails the answer is synthesized from the rows instead; interpretation
// failure is never surfaced to the user.
func (s *Service) interpretResults(ctx context.Context, question string, rows []map[string]any) string {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fallbackAnswer(rows)
	}

	answer, err := s.gen.Generate(ctx, buildInterpretPrompt(question, string(payload)), nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("Result interpretation failed, using fallback")
		return fallbackAnswer(rows)
	}
	return strings.TrimSpace(answer)
}

// fallbackAnswer builds a minimal deterministic response from the raw
// result set.
func fallbackAnswer(rows []map[string]any) string {
	if len(rows) == 0 {
		return "No encontré información para tu pregunta. 😅"
	}

	first := rows[0]
	if len(first) == 1 {
		for _, v := range first {
			if money.IsNumeric(v) {
				return "El resultado es: " + money.FormatAny(v)
			}
			return fmt.Sprintf("El resultado es: %v", v)
		}
	}
	return fmt.Sprintf("Encontré %d resultado(s). Usa /dashboard para ver más detalles.", len(rows))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
