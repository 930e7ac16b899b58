package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-bot/internal/ai"
)

// scriptedGenerator returns responses in order: first call is SQL
// generation, second is interpretation.
type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (m *scriptedGenerator) Generate(ctx context.Context, prompt string, media *ai.Media) (string, error) {
	i := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

type mockExecutor struct {
	rows    []map[string]any
	err     error
	calls   int
	queries []string
}

func (m *mockExecutor) QueryRows(ctx context.Context, query string) ([]map[string]any, error) {
	m.calls++
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func newTestService(gen ai.Generator, exec Executor) *Service {
	return NewService(gen, exec, zerolog.Nop())
}

func TestAnswerQuestion_DestructivePreFilter(t *testing.T) {
	tests := []string{
		"Borra todas mis transacciones",
		"elimina mis gastos de ayer",
		"DELETE from transactions",
		"puedes actualizar el monto de ayer?",
		"quiero limpiar mi historial",
	}

	for _, question := range tests {
		t.Run(question, func(t *testing.T) {
			gen := &scriptedGenerator{}
			exec := &mockExecutor{}

			answer, err := newTestService(gen, exec).AnswerQuestion(context.Background(), question, 42)

			require.NoError(t, err)
			assert.Equal(t, RefusalMessage, answer)
			assert.Zero(t, gen.calls, "pre-filter must refuse before any model call")
			assert.Zero(t, exec.calls)
		})
	}
}

func TestAnswerQuestion_MarkerInGeneratedSQL(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"SELECT 'ACTION_NOT_ALLOWED'"}}
	exec := &mockExecutor{}

	answer, err := newTestService(gen, exec).AnswerQuestion(context.Background(),
		"¿puedes hacer algo raro con mis datos?", 42)

	require.NoError(t, err)
	assert.Equal(t, RefusalMessage, answer)
	assert.Zero(t, exec.calls, "marker SQL must never execute")
}

func TestAnswerQuestion_UnsafeSQLNeverExecutes(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{name: "not a select", sql: "WITH x AS (SELECT 1) SELECT * FROM x"},
		{name: "semicolon", sql: "SELECT 1; SELECT 2"},
		{name: "ddl keyword", sql: "SELECT * FROM transactions WHERE id IN (SELECT id FROM t) UNION SELECT * FROM pg_tables"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{responses: []string{tt.sql}}
			exec := &mockExecutor{}

			_, err := newTestService(gen, exec).AnswerQuestion(context.Background(),
				"¿Cuánto gasté este mes?", 42)

			var unsafeErr *UnsafeQueryError
			require.ErrorAs(t, err, &unsafeErr)
			assert.Zero(t, exec.calls, "unsafe SQL must be rejected before any database call")
		})
	}
}

func TestAnswerQuestion_HappyPath(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"```sql\nSELECT SUM(t.amount) AS total FROM transactions t WHERE t.user_id = 42;\n```",
		"💰 Este mes gastaste $350.000,00 en comida.",
	}}
	exec := &mockExecutor{rows: []map[string]any{{"total": 350000.0}}}

	answer, err := newTestService(gen, exec).AnswerQuestion(context.Background(),
		"¿Cuánto gasté en comida este mes?", 42)

	require.NoError(t, err)
	assert.Equal(t, "💰 Este mes gastaste $350.000,00 en comida.", answer)
	require.Equal(t, 1, exec.calls)
	// Fences and the trailing semicolon must be stripped before execution.
	assert.Equal(t, "SELECT SUM(t.amount) AS total FROM transactions t WHERE t.user_id = 42",
		exec.queries[0])
	// Interpretation prompt carries the question and the serialized rows.
	require.Equal(t, 2, gen.calls)
	assert.Contains(t, gen.prompts[1], "¿Cuánto gasté en comida este mes?")
	assert.Contains(t, gen.prompts[1], "350000")
}

func TestAnswerQuestion_MarkerInResults(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"SELECT description FROM transactions WHERE user_id = 42",
	}}
	exec := &mockExecutor{rows: []map[string]any{{"description": "action_not_allowed"}}}

	answer, err := newTestService(gen, exec).AnswerQuestion(context.Background(),
		"muéstrame mis descripciones", 42)

	require.NoError(t, err)
	assert.Equal(t, RefusalMessage, answer)
	assert.Equal(t, 1, gen.calls, "no interpretation call after a result-level refusal")
}

func TestAnswerQuestion_ExecutionError(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"SELECT SUM(amount) FROM transactions WHERE user_id = 42",
	}}
	exec := &mockExecutor{err: errors.New("connection refused")}

	_, err := newTestService(gen, exec).AnswerQuestion(context.Background(),
		"¿Cuánto gasté?", 42)

	var execErr *QueryExecutionError
	assert.ErrorAs(t, err, &execErr)
}

func TestAnswerQuestion_InterpretationFallback(t *testing.T) {
	t.Run("single numeric cell formatted as currency", func(t *testing.T) {
		gen := &scriptedGenerator{
			responses: []string{"SELECT SUM(amount) AS total FROM transactions WHERE user_id = 42", ""},
			errs:      []error{nil, errors.New("model unavailable")},
		}
		exec := &mockExecutor{rows: []map[string]any{{"total": 1500.5}}}

		answer, err := newTestService(gen, exec).AnswerQuestion(context.Background(),
			"¿Cuánto gasté?", 42)

		require.NoError(t, err)
		assert.Equal(t, "El resultado es: $1.500,50", answer)
	})

	t.Run("single decimal cell formatted as currency", func(t *testing.T) {
		// Postgres numeric columns reach the fallback as decimals.
		gen := &scriptedGenerator{
			responses: []string{"SELECT SUM(amount) AS total FROM transactions WHERE user_id = 42", ""},
			errs:      []error{nil, errors.New("model unavailable")},
		}
		exec := &mockExecutor{rows: []map[string]any{{"total": decimal.RequireFromString("350000.00")}}}

		answer, err := newTestService(gen, exec).AnswerQuestion(context.Background(),
			"¿Cuánto gasté?", 42)

		require.NoError(t, err)
		assert.Equal(t, "El resultado es: $350.000,00", answer)
	})

	t.Run("multi-row fallback reports count", func(t *testing.T) {
		gen := &scriptedGenerator{
			responses: []string{"SELECT id, amount FROM transactions WHERE user_id = 42", ""},
			errs:      []error{nil, errors.New("model unavailable")},
		}
		exec := &mockExecutor{rows: []map[string]any{
			{"id": int64(1), "amount": 100.0},
			{"id": int64(2), "amount": 200.0},
		}}

		answer, err := newTestService(gen, exec).AnswerQuestion(context.Background(),
			"muéstrame mis gastos", 42)

		require.NoError(t, err)
		assert.Contains(t, answer, "2 resultado(s)")
	})

	t.Run("empty result set", func(t *testing.T) {
		gen := &scriptedGenerator{
			responses: []string{"SELECT amount FROM transactions WHERE user_id = 42", ""},
			errs:      []error{nil, errors.New("model unavailable")},
		}
		exec := &mockExecutor{}

		answer, err := newTestService(gen, exec).AnswerQuestion(context.Background(),
			"¿gastos de 1999?", 42)

		require.NoError(t, err)
		assert.Contains(t, answer, "No encontré")
	})
}

func TestAnswerQuestion_SQLPromptContents(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"SELECT COUNT(*) FROM transactions WHERE user_id = 42",
		"Tienes 3 transacciones 📊",
	}}
	exec := &mockExecutor{rows: []map[string]any{{"count": int64(3)}}}

	_, err := newTestService(gen, exec).AnswerQuestion(context.Background(),
		"¿Cuántas transacciones tengo?", 42)

	require.NoError(t, err)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "user_id = 42")
	assert.Contains(t, prompt, "transactions")
	assert.Contains(t, prompt, "America/Bogota")
}

func TestAnswerQuestion_EmptyQuestion(t *testing.T) {
	gen := &scriptedGenerator{}
	exec := &mockExecutor{}

	_, err := newTestService(gen, exec).AnswerQuestion(context.Background(), "   ", 42)

	var unsafeErr *UnsafeQueryError
	require.ErrorAs(t, err, &unsafeErr)
	assert.Zero(t, gen.calls)
	assert.Zero(t, exec.calls)
}

func TestValidateSQL(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{name: "simple select", query: "SELECT 1", wantErr: false},
		{name: "lowercase select", query: "select sum(amount) from transactions where user_id = 1", wantErr: false},
		{name: "leading whitespace", query: "   SELECT 1", wantErr: false},
		{name: "delete", query: "DELETE FROM transactions", wantErr: true},
		{name: "delete hidden in select", query: "SELECT 1 WHERE EXISTS (DELETE FROM transactions)", wantErr: true},
		{name: "insert", query: "INSERT INTO transactions VALUES (1)", wantErr: true},
		{name: "update keyword anywhere", query: "SELECT * FROM transactions -- UPDATE later", wantErr: true},
		{name: "drop", query: "DROP TABLE transactions", wantErr: true},
		{name: "semicolon", query: "SELECT 1; DROP TABLE transactions", wantErr: true},
		{name: "trailing semicolon alone", query: "SELECT 1;", wantErr: true},
		{name: "pg system function", query: "SELECT PG_SLEEP(10)", wantErr: true},
		{name: "empty", query: "", wantErr: true},
		{name: "with cte is rejected", query: "WITH t AS (SELECT 1) SELECT * FROM t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSQL(tt.query)
			if tt.wantErr {
				var unsafeErr *UnsafeQueryError
				require.ErrorAs(t, err, &unsafeErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHasDestructiveIntent(t *testing.T) {
	assert.True(t, HasDestructiveIntent("Borra todas mis transacciones"))
	assert.True(t, HasDestructiveIntent("quiero ELIMINAR un gasto"))
	assert.True(t, HasDestructiveIntent("update my data"))
	assert.False(t, HasDestructiveIntent("¿Cuánto gasté en comida este mes?"))
	assert.False(t, HasDestructiveIntent("muéstrame mis ingresos"))
}

func TestRefusalMessageIsFixed(t *testing.T) {
	// The same string answers all three checkpoints; it must not leak
	// internal detail.
	assert.False(t, strings.Contains(RefusalMessage, "SQL"))
	assert.False(t, strings.Contains(RefusalMessage, refusalMarker))
}
