package ai

import "strings"

// CleanJSON strips markdown code fences and surrounding junk from a model
// response that is expected to contain a single JSON object.
func CleanJSON(raw string) string {
	s := stripFences(raw)

	// If there's still junk around the JSON object, keep only from the
	// first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

// CleanSQL strips markdown code fences and trailing semicolons from a model
// response that is expected to contain a single SQL statement.
func CleanSQL(raw string) string {
	s := stripFences(raw)
	return strings.TrimSpace(strings.TrimRight(s, "; \t\n"))
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` / ```sql ... ``` / ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			// Single-line weirdness; just return as-is.
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
