package classifier

import (
	"fmt"
	"strings"

	"intent-engine/internal/models"
)

const systemInstruction = `You classify questions about purchasing, sales and stock data.
Answer with a single JSON object and nothing else.`

// BuildPrompt renders the text sent to the classifier.
func BuildPrompt(req Request) string {
	var b strings.Builder

	switch req.Scope {
	case ScopeFilters:
		fmt.Fprintf(&b, "The question was already classified as %q.\n", req.Intent)
		b.WriteString("Return only these keys when they apply: filter, sort, top, columns.\n")
	default:
		b.WriteString("Return these keys when they apply: intent")
		for _, f := range models.AllFields {
			b.WriteString(", ")
			b.WriteString(string(f))
		}
		b.WriteString(", filter, sort, top, columns.\n")

		intents := make([]string, 0, len(models.ScoredIntents))
		for _, i := range models.ScoredIntents {
			intents = append(intents, string(i))
		}
		fmt.Fprintf(&b, "intent must be one of: %s, unknown.\n", strings.Join(intents, ", "))
	}

	b.WriteString(`filter is a list of {"field", "op", "value"} with op in eq, empty, not_empty, gt, lt, contains.` + "\n")
	b.WriteString(`sort is {"field", "direction"} with direction asc or desc. top is an integer.` + "\n")
	b.WriteString("Omit keys you cannot fill.\n")

	if s := strings.TrimSpace(req.Summary); s != "" {
		b.WriteString("\nConversation so far:\n")
		b.WriteString(s)
		b.WriteString("\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(req.Question)
	b.WriteString("\n")
	return b.String()
}
