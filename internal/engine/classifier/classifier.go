// Package classifier talks to an external natural-language classifier. Every
// failure collapses to one of three sentinel errors so the caller can treat
// them uniformly as "no classifier result".
package classifier

import (
	"context"
	"fmt"
	"time"

	"intent-engine/internal/common/config"
	apperrors "intent-engine/internal/common/errors"
	"intent-engine/internal/common/logger"
	"intent-engine/internal/models"
)

var (
	ErrUnavailable = apperrors.ErrClassifierUnavailable
	ErrTimeout     = apperrors.ErrClassifierTimeout
	ErrMalformed   = apperrors.ErrClassifierMalformed
)

// Scope selects what the classifier is asked for.
type Scope string

const (
	// ScopeFull asks for intent plus every parameter.
	ScopeFull Scope = "full"
	// ScopeFilters asks only for filter, sort, top and columns; the intent is
	// already decided locally.
	ScopeFilters Scope = "filters"
)

type Request struct {
	Question string
	Summary  string
	Scope    Scope
	Intent   models.Intent
}

// Result is the parsed classifier answer. Absent keys leave zero values.
type Result struct {
	Intent  models.Intent
	Params  models.Params
	Filters models.FilterRequest
	Columns []string
}

// Usable reports whether a full-scope result names a real intent.
func (r *Result) Usable() bool {
	return r != nil && r.Intent != "" && r.Intent != models.IntentUnknown
}

type Classifier interface {
	Classify(ctx context.Context, req Request) (*Result, error)
	Available(ctx context.Context) bool
}

// New builds the configured classifier. It returns nil, nil when no provider is
// selected.
func New(ctx context.Context, cfg config.ClassifierConfig, log logger.Logger) (Classifier, error) {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "http":
		return NewHTTPClassifier(cfg.BaseURL, timeout, log), nil
	case "gemini":
		pool := NewKeyPool(cfg.APIKeys, cfg.DailyLimit, nil)
		return NewGeminiClassifier(cfg.Model, timeout, pool, log), nil
	}
	return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
}
