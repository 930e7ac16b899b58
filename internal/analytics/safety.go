package analytics

import (
	"fmt"
	"strings"
)

// RefusalMessage is the single fixed answer for any detected attempt to
// mutate data through the natural-language interface, regardless of which
// checkpoint caught it.
const RefusalMessage = "⛔ Lo siento, soy un analista de datos y solo puedo leer y consultar tu información. " +
	"Para borrar o modificar datos, usa los comandos manuales o el menú."

// refusalMarker is the literal the SQL-generation prompt instructs the model
// to emit instead of a query when it detects destructive intent.
const refusalMarker = "ACTION_NOT_ALLOWED"

// destructiveKeywords is the pre-filter list, in the languages the user base
// writes in. Substring match, case-insensitive.
var destructiveKeywords = []string{
	"borrar", "eliminar", "delete", "drop",
	"cambiar", "actualizar", "update", "modificar",
	"limpiar", "vaciar", "truncate", "clear",
	"remover", "quitar", "remove",
}

// sqlDenylist are statement keywords that must never appear in a generated
// query. Anything here means mutation, DDL or administration.
var sqlDenylist = []string{
	"DROP", "DELETE", "INSERT", "UPDATE", "TRUNCATE",
	"ALTER", "CREATE", "GRANT", "REVOKE", "EXEC", "EXECUTE",
	"MERGE", "COPY", "CALL", "COMMIT", "ROLLBACK",
}

// systemPrefixes are function-name prefixes that reach engine internals.
var systemPrefixes = []string{"PG_"}

// HasDestructiveIntent reports whether the raw question asks for a mutation.
// This runs before any model call is made.
func HasDestructiveIntent(question string) bool {
	lower := strings.ToLower(question)
	for _, keyword := range destructiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// UnsafeQueryError means a generated query failed static safety validation.
// The query was never executed.
type UnsafeQueryError struct {
	Reason string
}

func (e *UnsafeQueryError) Error() string {
	return "analytics: unsafe query: " + e.Reason
}

// QueryExecutionError means a validated query failed at the database.
type QueryExecutionError struct {
	Err error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("analytics: query execution failed: %v", e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// ValidateSQL applies the static safety rules: single SELECT statement, no
// denylisted keywords, no statement separator, no system function prefixes.
// A nil return is the only way a query reaches the executor.
func ValidateSQL(query string) error {
	upper := strings.ToUpper(strings.TrimSpace(query))

	if !strings.HasPrefix(upper, "SELECT") {
		return &UnsafeQueryError{Reason: "query must be a SELECT statement"}
	}

	for _, keyword := range sqlDenylist {
		if strings.Contains(upper, keyword) {
			return &UnsafeQueryError{Reason: fmt.Sprintf("keyword %s is not allowed", keyword)}
		}
	}

	if strings.Contains(query, ";") {
		return &UnsafeQueryError{Reason: "stacked statements are not allowed"}
	}

	for _, prefix := range systemPrefixes {
		if strings.Contains(upper, prefix) {
			return &UnsafeQueryError{Reason: "system functions are not allowed"}
		}
	}

	return nil
}

// containsRefusalMarker reports whether any value in the result set echoes
// the refusal marker, e.g. a projected literal column.
func containsRefusalMarker(rows []map[string]any) bool {
	for _, row := range rows {
		for _, v := range row {
			if strings.EqualFold(strings.TrimSpace(fmt.Sprint(v)), refusalMarker) {
				return true
			}
		}
	}
	return false
}
