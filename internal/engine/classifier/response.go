package classifier

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"intent-engine/internal/common/validation"
	"intent-engine/internal/models"
)

// responseSchema accepts any object whose known keys are well typed. Unknown keys
// pass through and are ignored.
var responseSchema = validation.MustCompile("classifier-response", `{
  "type": "object",
  "properties": {
    "intent": {"type": ["string", "null"]},
    "filter": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["field", "op"],
        "properties": {
          "field": {"type": "string", "minLength": 1},
          "op": {"enum": ["eq", "empty", "not_empty", "gt", "lt", "contains"]},
          "value": {"type": ["string", "number", "null"]}
        }
      }
    },
    "sort": {
      "type": ["object", "null"],
      "properties": {
        "field": {"type": "string"},
        "direction": {"enum": ["asc", "desc", "ASC", "DESC"]}
      }
    },
    "top": {"type": ["integer", "null"], "minimum": 0},
    "columns": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`)

// ParseResponse reads a classifier answer. Markdown fences and prose around the
// JSON object are tolerated.
func ParseResponse(raw string) (*Result, error) {
	doc, ok := extractObject(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformed)
	}
	if err := responseSchema.ValidateBytes([]byte(doc)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	parsed := gjson.Parse(doc)
	res := &Result{}

	if v := parsed.Get("intent"); v.Type == gjson.String && v.Str != "" {
		res.Intent = models.ParseIntent(strings.ToLower(strings.TrimSpace(v.Str)))
	}

	for _, f := range models.AllFields {
		v := parsed.Get(string(f))
		switch v.Type {
		case gjson.String:
			res.Params.Set(f, v.Str)
		case gjson.Number:
			res.Params.Set(f, v.Raw)
		}
	}

	parsed.Get("filter").ForEach(func(_, c gjson.Result) bool {
		clause := models.Clause{Field: c.Get("field").String(), Op: models.Op(c.Get("op").String())}
		switch clause.Op {
		case models.OpGreater, models.OpLess:
			clause.Value = c.Get("value").Float()
		case models.OpEquals, models.OpContains:
			clause.Value = c.Get("value").String()
		}
		res.Filters.Add(clause)
		return true
	})

	if s := parsed.Get("sort"); s.IsObject() && s.Get("field").String() != "" {
		res.Filters.SortField = s.Get("field").String()
		res.Filters.SortDesc = strings.EqualFold(s.Get("direction").String(), "desc")
	}
	if top := parsed.Get("top"); top.Exists() {
		res.Filters.TopN = int(top.Int())
	}
	parsed.Get("columns").ForEach(func(_, c gjson.Result) bool {
		if c.Str != "" {
			res.Columns = append(res.Columns, c.Str)
		}
		return true
	})

	return res, nil
}

func extractObject(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	s = s[start : end+1]
	if !gjson.Valid(s) {
		return "", false
	}
	return s, true
}
