package followup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent-engine/internal/models"
)

func TestNumericContinuity(t *testing.T) {
	counts := map[string]int{"DELAYED": 41, "ON_TIME": 75}
	cats := []string{"DELAYED", "ON_TIME"}

	c, ok := NumericContinuity([]string{"give", "me", "those", "41", "ones"}, counts, cats)
	require.True(t, ok)
	assert.Equal(t, "DELAYED", c.Category)
	assert.Equal(t, 41, c.Number)
	assert.False(t, c.Ambiguous())
	assert.Equal(t, models.Clause{Field: "status", Op: models.OpEquals, Value: "DELAYED"}, c.Clause("status"))

	_, ok = NumericContinuity([]string{"those", "42"}, counts, cats)
	assert.False(t, ok)

	_, ok = NumericContinuity([]string{"41"}, nil, nil)
	assert.False(t, ok)
}

func TestNumericContinuity_Tie(t *testing.T) {
	counts := map[string]int{"DELAYED": 5, "PARTIAL": 5, "ON_TIME": 2}

	c, ok := NumericContinuity([]string{"those", "5"}, counts, []string{"DELAYED", "ON_TIME", "PARTIAL"})
	require.True(t, ok)
	assert.Equal(t, "DELAYED", c.Category)
	assert.Equal(t, []string{"DELAYED", "PARTIAL"}, c.Candidates)
	assert.True(t, c.Ambiguous())
}
