// internal/workers/ai-conversation/resolve-question/models.go
package resolvequestion

import (
	"intent-engine/internal/engine/resolver"
	"intent-engine/internal/models"
)

type Input struct {
	Question string `json:"question"`
	UserID   string `json:"userId"`
}

// Output drives the process gateway: needsDispatch routes to the data handler,
// anything else already carries its answer in result.
type Output struct {
	Intent        string                  `json:"intent"`
	Outcome       string                  `json:"outcome"`
	Tier          string                  `json:"tier"`
	NeedsDispatch bool                    `json:"needsDispatch"`
	RowCount      int                     `json:"rowCount"`
	Truncated     bool                    `json:"truncated,omitempty"`
	Query         *resolver.ResolvedQuery `json:"resolvedQuery"`
	Result        *models.HandlerResult   `json:"result,omitempty"`
}

const inputSchema = `{
	"type": "object",
	"required": ["question", "userId"],
	"properties": {
		"question": {"type": "string", "minLength": 1},
		"userId":   {"type": "string", "minLength": 1}
	}
}`
