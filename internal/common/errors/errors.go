// Package errors holds the engine's error taxonomy. Tier failures are converted to
// fallback transitions inside the resolver; these codes exist so that logs, metrics
// and BPMN job failures speak the same vocabulary.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeExtractionAmbiguity      ErrorCode = "EXTRACTION_AMBIGUITY"
	ErrCodeClassifierUnavailable    ErrorCode = "CLASSIFIER_UNAVAILABLE"
	ErrCodeClassifierTimeout        ErrorCode = "CLASSIFIER_TIMEOUT"
	ErrCodeClassifierMalformed      ErrorCode = "CLASSIFIER_MALFORMED"
	ErrCodeNoMatchingIntent         ErrorCode = "NO_MATCHING_INTENT"
	ErrCodeEmptyFilterResult        ErrorCode = "EMPTY_FILTER_RESULT"
	ErrCodeContextPersistenceFailed ErrorCode = "CONTEXT_PERSISTENCE_FAILED"
	ErrCodeVocabularyLoadFailed     ErrorCode = "VOCABULARY_LOAD_FAILED"
	ErrCodeKeywordReloadFailed      ErrorCode = "KEYWORD_RELOAD_FAILED"
	ErrCodeDispatchFailed           ErrorCode = "DISPATCH_FAILED"
	ErrCodeInvalidInput             ErrorCode = "INVALID_INPUT"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// Sentinels. Packages wrap these with %w and callers match with errors.Is.
var (
	ErrClassifierUnavailable    = stderrors.New(string(ErrCodeClassifierUnavailable))
	ErrClassifierTimeout        = stderrors.New(string(ErrCodeClassifierTimeout))
	ErrClassifierMalformed      = stderrors.New(string(ErrCodeClassifierMalformed))
	ErrContextPersistenceFailed = stderrors.New(string(ErrCodeContextPersistenceFailed))
	ErrVocabularyLoadFailed     = stderrors.New(string(ErrCodeVocabularyLoadFailed))
	ErrKeywordReloadFailed      = stderrors.New(string(ErrCodeKeywordReloadFailed))
	ErrDispatchFailed           = stderrors.New(string(ErrCodeDispatchFailed))
	ErrInvalidInput             = stderrors.New(string(ErrCodeInvalidInput))
	ErrInternal                 = stderrors.New(string(ErrCodeInternal))
)

var sentinelCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrClassifierTimeout, ErrCodeClassifierTimeout},
	{ErrClassifierMalformed, ErrCodeClassifierMalformed},
	{ErrClassifierUnavailable, ErrCodeClassifierUnavailable},
	{ErrContextPersistenceFailed, ErrCodeContextPersistenceFailed},
	{ErrVocabularyLoadFailed, ErrCodeVocabularyLoadFailed},
	{ErrKeywordReloadFailed, ErrCodeKeywordReloadFailed},
	{ErrDispatchFailed, ErrCodeDispatchFailed},
	{ErrInvalidInput, ErrCodeInvalidInput},
	{ErrInternal, ErrCodeInternal},
}

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// CodeOf returns the taxonomy code carried by err, INTERNAL_ERROR when none.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	for _, s := range sentinelCodes {
		if stderrors.Is(err, s.err) {
			return s.code
		}
	}
	return ErrCodeInternal
}

// Normalize ensures err is a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	code := CodeOf(err)
	return &StandardError{
		Code:      code,
		Message:   messageFor(code),
		Details:   err.Error(),
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func messageFor(code ErrorCode) string {
	switch code {
	case ErrCodeClassifierUnavailable:
		return "External classifier unavailable"
	case ErrCodeClassifierTimeout:
		return "External classifier timed out"
	case ErrCodeClassifierMalformed:
		return "External classifier returned a malformed response"
	case ErrCodeContextPersistenceFailed:
		return "Conversation context persistence failed"
	case ErrCodeVocabularyLoadFailed:
		return "Vocabulary snapshot could not be loaded"
	case ErrCodeKeywordReloadFailed:
		return "Learned keyword table could not be reloaded"
	case ErrCodeDispatchFailed:
		return "Handler dispatch failed"
	case ErrCodeInvalidInput:
		return "Invalid input"
	}
	return "Unexpected error"
}

// NewInvalidInputError creates a non-retryable input error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     ErrInvalidInput,
	}
}

// NewNoMatchingIntentError describes a terminal "unrecognized question" outcome.
func NewNoMatchingIntentError(question string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoMatchingIntent,
		Message:   "Question not recognized",
		Details:   fmt.Sprintf("question: %s", question),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionAmbiguityError records competing candidates for a field. It is
// logged, never returned to callers.
func NewExtractionAmbiguityError(field string, candidates []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionAmbiguity,
		Message:   "Multiple candidate values",
		Details:   fmt.Sprintf("field: %s, candidates: %s", field, strings.Join(candidates, ",")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDispatchFailedError wraps a handler failure.
func NewDispatchFailedError(intent string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDispatchFailed,
		Message:   "Handler dispatch failed",
		Details:   fmt.Sprintf("intent: %s, error: %s", intent, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     fmt.Errorf("%w: %v", ErrDispatchFailed, err),
	}
}

// BPMNError represents an error thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// GetRetryCount is the job retry budget for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDispatchFailed, ErrCodeContextPersistenceFailed:
		return 3
	case ErrCodeInternal:
		return 1
	default:
		return 0
	}
}

// IsRetryableErrorCode reports whether a job failing with code should be retried.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// ConvertToBPMNError maps a StandardError to the workflow error shape.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// GetErrorCategory groups codes for dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CLASSIFIER"):
		return "CLASSIFIER"
	case strings.Contains(codeStr, "CONTEXT"):
		return "CONTEXT"
	case strings.Contains(codeStr, "VOCABULARY") || strings.Contains(codeStr, "KEYWORD"):
		return "REFERENCE_DATA"
	case code == ErrCodeNoMatchingIntent || code == ErrCodeEmptyFilterResult || code == ErrCodeExtractionAmbiguity:
		return "RESOLUTION"
	case code == ErrCodeInvalidInput:
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
