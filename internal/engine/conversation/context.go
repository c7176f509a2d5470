// Package conversation keeps per-user conversational state: the last resolved
// intent and params, the last result snapshot and a short turn history.
package conversation

import (
	"fmt"
	"sort"
	"time"

	"intent-engine/internal/models"
)

// View modes carried from one turn to the next.
const (
	ViewSummary = "summary"
	ViewDetail  = "detail"
)

// Context is the serializable state of one user's conversation. Its methods are
// pure; Session adds locking and the clock.
type Context struct {
	UserID       string                `json:"userId"`
	Intent       models.Intent         `json:"intent,omitempty"`
	Params       models.Params         `json:"params"`
	LastResult   *models.HandlerResult `json:"lastResult,omitempty"`
	LastQuestion string                `json:"lastQuestion,omitempty"`
	ViewMode     string                `json:"viewMode,omitempty"`
	ExtraColumns []string              `json:"extraColumns,omitempty"`
	Turns        int                   `json:"turns"`
	CreatedAt    time.Time             `json:"createdAt"`
	LastActive   time.Time             `json:"lastActive"`
	TTL          time.Duration         `json:"ttl"`
}

// MergeParams fills every field next leaves unset with the stored value. Fields
// next sets are never overwritten.
func (c Context) MergeParams(next models.Params) models.Params {
	out := next.Clone()
	for _, f := range models.AllFields {
		if out.Has(f) {
			continue
		}
		if v, ok := c.Params.Get(f); ok {
			out.Set(f, v)
		}
	}
	return out
}

// HasData reports whether cached rows are available for follow-up filtering.
func (c Context) HasData() bool {
	return c.LastResult != nil && len(c.LastResult.Rows) > 0
}

// Data returns a copy of the cached rows. Callers may modify the rows freely.
func (c Context) Data() []models.Row {
	if c.LastResult == nil {
		return nil
	}
	return models.CloneRows(c.LastResult.Rows)
}

// IsExpired reports whether the context has been idle longer than its TTL. A
// non-positive TTL never expires.
func (c Context) IsExpired(now time.Time) bool {
	if c.TTL <= 0 {
		return false
	}
	return now.Sub(c.LastActive) > c.TTL
}

// CategoryCounts counts cached rows per distinct value of field.
func (c Context) CategoryCounts(field string) map[string]int {
	counts := make(map[string]int)
	if c.LastResult == nil {
		return counts
	}
	for _, row := range c.LastResult.Rows {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		counts[fmt.Sprint(v)]++
	}
	return counts
}

// SortedCategories returns the keys of counts in lexical order.
func SortedCategories(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mergeColumns(existing, extra []string) []string {
	out := append([]string(nil), existing...)
	for _, col := range extra {
		found := false
		for _, e := range out {
			if e == col {
				found = true
				break
			}
		}
		if !found {
			out = append(out, col)
		}
	}
	return out
}
