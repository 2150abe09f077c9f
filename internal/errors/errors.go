package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorType is the kind of an AppError. Callers branch on it, so kinds are
// never merged or downgraded to an empty result.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"

	ErrorTypeNotFound              ErrorType = "not_found"
	ErrorTypeGenerationUnavailable ErrorType = "generation_unavailable"
	ErrorTypeGenerationParse       ErrorType = "generation_parse"
	ErrorTypeFilterRejected        ErrorType = "filter_rejected"
	ErrorTypeSearchExecution       ErrorType = "search_execution"
)

// AppError carries a kind, a stable code and optional structured context
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another AppError of the same type. A target without a code
// matches every code, which is what the Err* sentinels rely on.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Type == e.Type && (t.Code == "" || t.Code == e.Code)
}

// WithContext attaches a key/value pair that LogError will emit
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

// Sentinels for errors.Is against the search pipeline kinds
var (
	ErrNotFound              = &AppError{Type: ErrorTypeNotFound}
	ErrGenerationUnavailable = &AppError{Type: ErrorTypeGenerationUnavailable}
	ErrGenerationParse       = &AppError{Type: ErrorTypeGenerationParse}
	ErrFilterRejected        = &AppError{Type: ErrorTypeFilterRejected}
	ErrSearchExecution       = &AppError{Type: ErrorTypeSearchExecution}
)

// Constructor builds an AppError of a fixed type
type Constructor func(code, message string, cause error) *AppError

func constructorFor(typ ErrorType) Constructor {
	return func(code, message string, cause error) *AppError {
		return &AppError{Type: typ, Code: code, Message: message, Cause: cause}
	}
}

var (
	NewValidationError = constructorFor(ErrorTypeValidation)
	NewIOError         = constructorFor(ErrorTypeIO)
	NewAIError         = constructorFor(ErrorTypeAI)
	NewNetworkError    = constructorFor(ErrorTypeNetwork)
	NewConfigError     = constructorFor(ErrorTypeConfig)
	NewInternalError   = constructorFor(ErrorTypeInternal)

	NewNotFoundError              = constructorFor(ErrorTypeNotFound)
	NewGenerationUnavailableError = constructorFor(ErrorTypeGenerationUnavailable)
	NewGenerationParseError       = constructorFor(ErrorTypeGenerationParse)
	NewFilterRejectedError        = constructorFor(ErrorTypeFilterRejected)
	NewSearchExecutionError       = constructorFor(ErrorTypeSearchExecution)
)

// TypeOf returns the type of the first AppError in err's chain, or ""
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err carries an AppError of typ
func IsType(err error, typ ErrorType) bool {
	return TypeOf(err) == typ
}
