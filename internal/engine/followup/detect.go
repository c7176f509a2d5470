// Package followup recognizes questions that refer to the previous answer and
// turns them into filters over the cached rows.
package followup

import (
	"regexp"

	"intent-engine/internal/engine/normalize"
)

var referentialCues = map[string]struct{}{}

var confirmationWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"those", "these", "them", "ones", "such",
		"esses", "essas", "estes", "estas", "desses", "dessas", "destes", "destas",
		"deles", "delas", "aqueles", "aquelas", "daqueles", "daquelas",
	} {
		referentialCues[w] = struct{}{}
	}
	for _, w := range []string{
		"yes", "yeah", "yep", "ok", "okay", "sure", "again", "repeat", "regenerate", "redo",
		"sim", "claro", "pode", "manda", "novamente", "repete", "repita", "refaz", "refazer",
		"isso", "beleza", "blz", "please", "por", "favor", "novo", "de",
	} {
		confirmationWords[w] = struct{}{}
	}
}

// leading connectives that continue the previous question ("and the late ones?").
var continuationRe = regexp.MustCompile(`^(?:and|e|only|just|so|now|agora|apenas|somente)\b`)

// IsFollowup reports whether q should be read against the previous turn: it
// carries a referential cue, or it names no strong entity while a conversation
// intent is active.
func IsFollowup(q normalize.Query, hasActiveIntent, hasStrongEntity bool) bool {
	if HasReferentialCue(q) {
		return true
	}
	return hasActiveIntent && !hasStrongEntity
}

// HasReferentialCue reports whether q points back at earlier results.
func HasReferentialCue(q normalize.Query) bool {
	for _, t := range q.Tokens {
		if _, ok := referentialCues[t]; ok {
			return true
		}
	}
	return continuationRe.MatchString(q.Text)
}

// IsConfirmation reports whether q is a short confirmation such as "yes" or
// "sim, pode": at most maxTokens tokens, all drawn from the confirmation list.
func IsConfirmation(q normalize.Query, maxTokens int) bool {
	if q.Len() == 0 || q.Len() > maxTokens {
		return false
	}
	for _, t := range q.Tokens {
		if _, ok := confirmationWords[t]; !ok {
			return false
		}
	}
	// "de novo" alone is a confirmation, "de" alone is not.
	return !(q.Len() == 1 && (q.Tokens[0] == "de" || q.Tokens[0] == "por"))
}

var complexRes = []*regexp.Regexp{
	thresholdRe,
	regexp.MustCompile(`\b(?:between|entre)\s+\S+\s+(?:and|e)\b`),
	regexp.MustCompile(`\b(?:without|sem|with|com|no|missing|faltando)\s+(?:forecast|previsao|invoice|nota|nf|data)\b`),
	regexp.MustCompile(`\b(?:most|least|mais|menos)\s+(?:expensive|cheap|recent|caros?|caras?|baratos?|baratas?|recentes?|antigos?|antigas?|atrasados?|atrasadas?)\b`),
	regexp.MustCompile(`\b(?:sorted|ordered|ordenados?|ordenadas?|sort)\s+(?:by|por)\b`),
	regexp.MustCompile(`\btop\s+\d+\b`),
}

// HasComplexModifiers reports comparative, range, presence/absence or ordering
// phrasing that keyword scoring cannot turn into parameters on its own.
func HasComplexModifiers(text string) bool {
	for _, re := range complexRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
