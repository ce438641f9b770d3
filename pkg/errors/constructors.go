package errors

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Smart Constructors with Auto-Attached Suggestions
// -----------------------------------------------------------------------------

// Config creates a configuration error with auto-attached suggestions.
func Config(code, message string) *TanitaError {
	return AttachSuggestions(New(code, CategoryConfig, message))
}

// ConfigWrap wraps an error as a configuration error with auto-attached suggestions.
func ConfigWrap(cause error, code, message string) *TanitaError {
	return AttachSuggestions(Wrap(cause, code, CategoryConfig, message))
}

// Input creates an input error with auto-attached suggestions.
func Input(code, message string) *TanitaError {
	return AttachSuggestions(New(code, CategoryInput, message))
}

// Inputf creates an input error with a formatted message.
func Inputf(code, format string, args ...interface{}) *TanitaError {
	return Input(code, fmt.Sprintf(format, args...))
}

// InputWrap wraps an error as an input error with auto-attached suggestions.
func InputWrap(cause error, code, message string) *TanitaError {
	return AttachSuggestions(Wrap(cause, code, CategoryInput, message))
}

// Export creates an export error with auto-attached suggestions.
func Export(code, message string) *TanitaError {
	return AttachSuggestions(New(code, CategoryExport, message))
}

// ExportWrap wraps an error as an export error with auto-attached suggestions.
func ExportWrap(cause error, code, message string) *TanitaError {
	return AttachSuggestions(Wrap(cause, code, CategoryExport, message))
}

// Command creates a CLI usage error with auto-attached suggestions.
func Command(code, message string) *TanitaError {
	return AttachSuggestions(New(code, CategoryCommand, message))
}

// Commandf creates a command error with a formatted message.
func Commandf(code, format string, args ...interface{}) *TanitaError {
	return Command(code, fmt.Sprintf(format, args...))
}

// Validation creates a validation error with auto-attached suggestions.
func Validation(code, message string) *TanitaError {
	return AttachSuggestions(New(code, CategoryValidation, message))
}

// Validationf creates a validation error with a formatted message.
func Validationf(code, format string, args ...interface{}) *TanitaError {
	return Validation(code, fmt.Sprintf(format, args...))
}

// IOWrap wraps an error as an IO error with auto-attached suggestions.
func IOWrap(cause error, code, message string) *TanitaError {
	return AttachSuggestions(Wrap(cause, code, CategoryIO, message))
}

// -----------------------------------------------------------------------------
// Domain-Specific Constructors
// -----------------------------------------------------------------------------

// ConfigNotFound creates an error for a missing config file.
func ConfigNotFound(path string) *TanitaError {
	err := New(ErrConfigNotFound, CategoryConfig, "configuration file not found").
		WithContext(ContextPath, path)
	return AttachSuggestions(err)
}

// ConfigParseError creates an error for a config file that failed to parse.
func ConfigParseError(path string, cause error) *TanitaError {
	err := Wrap(cause, ErrConfigParseFailed, CategoryConfig, "failed to parse configuration file").
		WithContext(ContextPath, path)
	return AttachSuggestions(err)
}

// ConfigInvalid creates an error for an invalid config value.
func ConfigInvalid(field, value, reason string) *TanitaError {
	err := New(ErrConfigInvalid, CategoryConfig, fmt.Sprintf("invalid value for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value)
	return AttachSuggestions(err)
}

// InputDirNotFound creates an error for a missing input directory.
func InputDirNotFound(path string) *TanitaError {
	err := New(ErrInputDirNotFound, CategoryInput, "input directory not found").
		WithContext(ContextPath, path)
	return AttachSuggestions(err)
}

// InputUnreadable creates an error for a file that could not be read.
func InputUnreadable(path string, cause error) *TanitaError {
	err := Wrap(cause, ErrInputUnreadable, CategoryInput, "cannot read scale file").
		WithContext(ContextPath, path)
	return AttachSuggestions(err)
}

// NoMeasurements creates the "no measurements found" condition.
// filesSeen is the number of files that were read; kinds lists the file
// kinds that were present.
func NoMeasurements(filesSeen int, kinds ...string) *TanitaError {
	err := New(ErrNoMeasurements, CategoryInput, "no measurements found").
		WithContext("files", fmt.Sprintf("%d", filesSeen))
	if len(kinds) == 1 {
		err.WithContext(ContextKind, kinds[0])
	} else if len(kinds) > 1 {
		err.WithContext(ContextKind, strings.Join(kinds, ","))
	}
	return AttachSuggestions(err)
}

// ExportWriteFailed creates an error for a failed output write.
func ExportWriteFailed(path, format string, cause error) *TanitaError {
	err := Wrap(cause, ErrExportWriteFailed, CategoryExport, fmt.Sprintf("failed to write %s output", format)).
		WithContext(ContextPath, path).
		WithContext("format", format)
	return AttachSuggestions(err)
}

// ExportInvalidFormat creates an error for an unsupported export format.
func ExportInvalidFormat(format string) *TanitaError {
	err := New(ErrExportInvalidFormat, CategoryExport, fmt.Sprintf("unsupported export format %q", format)).
		WithContext("format", format)
	return AttachSuggestions(err)
}

// InternalPanic creates an error from a recovered panic value.
func InternalPanic(recovered interface{}) *TanitaError {
	return New(ErrInternalPanic, CategoryInternal, fmt.Sprintf("unexpected panic: %v", recovered)).
		WithSuggestion("This is a bug, please report it with the input file attached")
}
