package followup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"intent-engine/internal/engine/normalize"
)

func TestIsFollowup(t *testing.T) {
	tests := []struct {
		name     string
		question string
		active   bool
		strong   bool
		want     bool
	}{
		{"referential cue", "give me those 41 delayed ones", false, false, true},
		{"continuation", "and the late ones?", false, false, true},
		{"pt cue", "quais desses estao atrasados", false, true, true},
		{"no entity with active intent", "only delayed", true, false, true},
		{"new entity", "late orders from donaldson", true, true, false},
		{"fresh conversation", "stock of filters", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFollowup(normalize.NewQuery(tt.question), tt.active, tt.strong))
		})
	}
}

func TestIsConfirmation(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"yes", true},
		{"Sim, pode", true},
		{"de novo", true},
		{"ok please", true},
		{"de", false},
		{"por", false},
		{"yes show me the stock", false},
		{"stock", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConfirmation(normalize.NewQuery(tt.question), 3))
		})
	}
}

func TestHasComplexModifiers(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"orders above 50 thousand reais", true},
		{"pedidos acima de 10 mil", true},
		{"between 10 and 20", true},
		{"orders without forecast", true},
		{"the most expensive ones", true},
		{"sorted by value", true},
		{"top 10 brands", true},
		{"late orders from donaldson", false},
		{"hi", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, HasComplexModifiers(tt.text))
		})
	}
}
