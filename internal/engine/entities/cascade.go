// Package entities extracts structured parameters from free-text questions.
//
// Every field is resolved by a Cascade: an ordered list of named strategies where
// the first strategy that yields a value wins. Order is part of the behavior,
// particularly for periods, where patterns overlap.
package entities

import (
	"strings"

	"intent-engine/internal/engine/normalize"
)

// Strategy is one named way of finding a field value.
type Strategy struct {
	Name string
	Find func(in *Input) (string, bool)
}

// Cascade runs strategies in order, first match wins.
type Cascade []Strategy

// Run returns the first value found and the name of the strategy that found it.
func (c Cascade) Run(in *Input) (value, strategy string, ok bool) {
	for _, s := range c {
		if v, found := s.Find(in); found && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), s.Name, true
		}
	}
	return "", "", false
}

// Names lists the strategy names in order.
func (c Cascade) Names() []string {
	out := make([]string, len(c))
	for i, s := range c {
		out[i] = s.Name
	}
	return out
}

// Vocabulary holds the known reference values supplied by the caller. The
// extractor never mutates it.
type Vocabulary struct {
	Brands   []string
	Branches []string
	Buyers   []string
}

// term pairs a vocabulary value with its normalized form.
type term struct {
	canonical  string
	normalized string
}

func prepare(values []string) []term {
	out := make([]term, 0, len(values))
	for _, v := range values {
		n := normalize.Normalize(v)
		if n == "" {
			continue
		}
		out = append(out, term{canonical: strings.TrimSpace(v), normalized: n})
	}
	return out
}

// Input is the per-question view shared by every strategy.
type Input struct {
	Raw    string
	Text   string
	Tokens []string

	brands   []term
	branches []term
	buyers   []term
}

// NewInput normalizes question and prepares vocab for matching.
func NewInput(question string, vocab Vocabulary) *Input {
	q := normalize.NewQuery(question)
	return &Input{
		Raw:      question,
		Text:     q.Text,
		Tokens:   q.Tokens,
		brands:   prepare(vocab.Brands),
		branches: prepare(vocab.Branches),
		buyers:   prepare(vocab.Buyers),
	}
}

func (in *Input) hasToken(tok string) bool {
	for _, t := range in.Tokens {
		if t == tok {
			return true
		}
	}
	return false
}

func (in *Input) isKnownBrand(normalized string) bool {
	for _, b := range in.brands {
		if b.normalized == normalized {
			return true
		}
	}
	return false
}
