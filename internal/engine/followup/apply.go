package followup

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"intent-engine/internal/engine/normalize"
	"intent-engine/internal/models"
)

// ApplyFilters returns the rows that satisfy every clause, sorted and truncated
// as requested. rows is never modified; the result is a new slice sharing the
// row maps. No match yields an empty, non-nil slice.
func ApplyFilters(rows []models.Row, f models.FilterRequest) []models.Row {
	out := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if matchesAll(row, f.Clauses) {
			out = append(out, row)
		}
	}

	if f.SortField != "" {
		field, desc := f.SortField, f.SortDesc
		sort.SliceStable(out, func(i, j int) bool {
			a, aok := present(out[i], field)
			b, bok := present(out[j], field)
			switch {
			case !aok || !bok:
				// rows lacking the field go last in either direction
				return aok && !bok
			case desc:
				return compareValues(a, b) > 0
			default:
				return compareValues(a, b) < 0
			}
		})
	}

	if f.TopN > 0 && len(out) > f.TopN {
		out = out[:f.TopN]
	}
	return out
}

func matchesAll(row models.Row, clauses []models.Clause) bool {
	for _, c := range clauses {
		if !matches(row, c) {
			return false
		}
	}
	return true
}

func matches(row models.Row, c models.Clause) bool {
	v, ok := present(row, c.Field)
	switch c.Op {
	case models.OpEmpty:
		return !ok
	case models.OpNotEmpty:
		return ok
	}
	if !ok {
		return false
	}

	switch c.Op {
	case models.OpEquals:
		return strings.EqualFold(strings.TrimSpace(fmt.Sprint(v)), strings.TrimSpace(fmt.Sprint(c.Value)))
	case models.OpContains:
		return strings.Contains(normalize.Normalize(fmt.Sprint(v)), normalize.Normalize(fmt.Sprint(c.Value)))
	case models.OpGreater, models.OpLess:
		lhs, lok := toFloat(v)
		rhs, rok := toFloat(c.Value)
		if !lok || !rok {
			return false
		}
		if c.Op == models.OpGreater {
			return lhs > rhs
		}
		return lhs < rhs
	}
	return false
}

// present returns the field value when it is set and not blank.
func present(row models.Row, field string) (any, bool) {
	v, ok := row[field]
	if !ok || v == nil {
		return nil, false
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, false
		}
	case time.Time:
		if t.IsZero() {
			return nil, false
		}
	}
	return v, true
}

// compareValues orders numerically when both sides parse as numbers, else
// lexically on the normalized string form.
func compareValues(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(normalize.Normalize(fmt.Sprint(a)), normalize.Normalize(fmt.Sprint(b)))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case time.Time:
		return float64(n.Unix()), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
		return ParseNumber(n)
	}
	return 0, false
}
