// internal/workers/ai-conversation/record-query-result/models.go
package recordqueryresult

import (
	"intent-engine/internal/engine/resolver"
	"intent-engine/internal/models"
)

// Input is the resolve-question output plus whatever the data handler returned.
type Input struct {
	UserID   string                  `json:"userId"`
	Question string                  `json:"question"`
	Query    *resolver.ResolvedQuery `json:"resolvedQuery"`
	Result   *models.HandlerResult   `json:"result"`
}

type Output struct {
	Recorded bool   `json:"contextRecorded"`
	Intent   string `json:"intent"`
	RowCount int    `json:"rowCount"`
}

const inputSchema = `{
	"type": "object",
	"required": ["userId", "question", "resolvedQuery"],
	"properties": {
		"userId":   {"type": "string", "minLength": 1},
		"question": {"type": "string", "minLength": 1},
		"resolvedQuery": {
			"type": "object",
			"required": ["intent", "outcome"],
			"properties": {
				"intent":  {"type": "string"},
				"outcome": {"type": "string"}
			}
		},
		"result": {
			"type": ["object", "null"],
			"properties": {
				"rows":    {"type": ["array", "null"], "items": {"type": "object"}},
				"columns": {"type": ["array", "null"], "items": {"type": "string"}}
			}
		}
	}
}`
