// Package errors provides structured error types for tanita.
// Errors carry a code, a category, key-value context, an optional cause,
// and actionable suggestions for the user.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryConfig     Category = "config"     // Configuration loading/parsing errors
	CategoryInput      Category = "input"      // Scale export discovery and reading
	CategoryDecode     Category = "decode"     // Row decoding contract violations
	CategoryExport     Category = "export"     // Report and tabular export errors
	CategoryCommand    Category = "command"    // CLI usage errors
	CategoryValidation Category = "validation" // Input validation errors
	CategoryIO         Category = "io"         // File/IO errors
	CategoryInternal   Category = "internal"   // Internal/unexpected errors
)

// TanitaError is a structured error with context and suggestions.
type TanitaError struct {
	// Code is a unique identifier for this error type (e.g., "NO_MEASUREMENTS")
	Code string

	// Category classifies this error for consistent handling
	Category Category

	// Message is the primary error message describing what went wrong
	Message string

	// Context provides additional key-value details about the error
	Context map[string]string

	// Cause is the underlying error that triggered this error
	Cause error

	// Suggestions are actionable remediation steps for the user
	Suggestions []string
}

// Error implements the error interface.
func (e *TanitaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *TanitaError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target for errors.Is() checks.
// Two TanitaErrors match if they have the same Code.
func (e *TanitaError) Is(target error) bool {
	if t, ok := target.(*TanitaError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new TanitaError with the given code, category, and message.
func New(code string, category Category, message string) *TanitaError {
	return &TanitaError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// Sentinel returns a code-only TanitaError for use with errors.Is.
func Sentinel(code string) *TanitaError {
	return &TanitaError{Code: code, Category: CodeCategory(code)}
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *TanitaError) WithContext(key, value string) *TanitaError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *TanitaError) WithCause(cause error) *TanitaError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *TanitaError) WithSuggestion(suggestion string) *TanitaError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple remediation suggestions.
func (e *TanitaError) WithSuggestions(suggestions ...string) *TanitaError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// HasContext returns true if the error has context information.
func (e *TanitaError) HasContext() bool {
	return len(e.Context) > 0
}

// HasSuggestions returns true if the error has suggestions.
func (e *TanitaError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// ContextString returns the context entries as key="value" pairs sorted by key.
func (e *TanitaError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// Wrap wraps an existing error with a TanitaError.
func Wrap(err error, code string, category Category, message string) *TanitaError {
	return New(code, category, message).WithCause(err)
}

// AsTanitaError finds the first TanitaError in err's chain.
func AsTanitaError(err error) (*TanitaError, bool) {
	if err == nil {
		return nil, false
	}
	var te *TanitaError
	if stderrors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsCategory checks if an error is a TanitaError with the given category.
func IsCategory(err error, category Category) bool {
	if te, ok := AsTanitaError(err); ok {
		return te.Category == category
	}
	return false
}

// IsCode checks if an error is a TanitaError with the given code.
func IsCode(err error, code string) bool {
	if te, ok := AsTanitaError(err); ok {
		return te.Code == code
	}
	return false
}
