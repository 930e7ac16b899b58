package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare json",
			input: `{"amount": 20000}`,
			want:  `{"amount": 20000}`,
		},
		{
			name:  "json fence",
			input: "```json\n{\"amount\": 20000}\n```",
			want:  `{"amount": 20000}`,
		},
		{
			name:  "plain fence",
			input: "```\n{\"amount\": 20000}\n```",
			want:  `{"amount": 20000}`,
		},
		{
			name:  "chatter around the object",
			input: "Sure! Here is the result:\n{\"amount\": 20000}\nHope that helps.",
			want:  `{"amount": 20000}`,
		},
		{
			name:  "fence with chatter",
			input: "Here you go:\n```json\n{\"type\": \"expense\"}\n```",
			want:  `{"type": "expense"}`,
		},
		{
			name:  "whitespace only trimmed",
			input: "  \n {\"a\":1} \n ",
			want:  `{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.input))
		})
	}
}

func TestCleanSQL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare select",
			input: "SELECT SUM(amount) FROM transactions WHERE user_id = 1",
			want:  "SELECT SUM(amount) FROM transactions WHERE user_id = 1",
		},
		{
			name:  "sql fence",
			input: "```sql\nSELECT 1\n```",
			want:  "SELECT 1",
		},
		{
			name:  "trailing semicolon removed",
			input: "SELECT 1;",
			want:  "SELECT 1",
		},
		{
			name:  "fence plus semicolon",
			input: "```sql\nSELECT COUNT(*) FROM transactions;\n```",
			want:  "SELECT COUNT(*) FROM transactions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSQL(tt.input))
		})
	}
}
