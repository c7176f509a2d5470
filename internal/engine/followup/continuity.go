package followup

import (
	"strconv"

	"intent-engine/internal/models"
)

// Continuity is the outcome of matching a bare number against cached category
// counts.
type Continuity struct {
	Number     int
	Category   string
	Candidates []string
}

// Ambiguous reports whether several categories shared the count.
func (c Continuity) Ambiguous() bool { return len(c.Candidates) > 1 }

// NumericContinuity looks for a bare number in tokens that equals a per-category
// count from the previous result ("those 41" after "41 delayed of 116"). When
// several categories share the count the first in sorted order wins and all of
// them are reported as candidates.
func NumericContinuity(tokens []string, counts map[string]int, categories []string) (Continuity, bool) {
	if len(counts) == 0 {
		return Continuity{}, false
	}
	for _, t := range tokens {
		n, err := strconv.Atoi(t)
		if err != nil || n <= 0 {
			continue
		}
		var matched []string
		for _, cat := range categories {
			if counts[cat] == n {
				matched = append(matched, cat)
			}
		}
		if len(matched) > 0 {
			return Continuity{Number: n, Category: matched[0], Candidates: matched}, true
		}
	}
	return Continuity{}, false
}

// Clause turns a continuity match into a status equality filter.
func (c Continuity) Clause(statusField string) models.Clause {
	return models.Clause{Field: statusField, Op: models.OpEquals, Value: c.Category}
}
