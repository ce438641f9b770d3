package errors

// -----------------------------------------------------------------------------
// Configuration Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = "CONFIG_NOT_FOUND"

	// ErrConfigParseFailed indicates the configuration file is not valid YAML.
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"

	// ErrConfigInvalid indicates configuration values are invalid.
	ErrConfigInvalid = "CONFIG_INVALID"

	// ErrConfigWriteFailed indicates the config file could not be written.
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"
)

// -----------------------------------------------------------------------------
// Input Error Codes
// -----------------------------------------------------------------------------
// Discovery and reading of scale export files.

const (
	// ErrInputNoFiles indicates no DATA or PROF files were found.
	ErrInputNoFiles = "INPUT_NO_FILES"

	// ErrInputDirNotFound indicates a configured input directory is missing.
	ErrInputDirNotFound = "INPUT_DIR_NOT_FOUND"

	// ErrInputUnreadable indicates a file could not be opened or read.
	ErrInputUnreadable = "INPUT_UNREADABLE"

	// ErrInputBadEncoding indicates the configured fallback charset is unknown.
	ErrInputBadEncoding = "INPUT_BAD_ENCODING"

	// ErrInputMalformedLine indicates a CSV line could not be tokenized.
	ErrInputMalformedLine = "INPUT_MALFORMED_LINE"

	// ErrNoMeasurements indicates the input set decoded to zero measurement records.
	ErrNoMeasurements = "NO_MEASUREMENTS"
)

// -----------------------------------------------------------------------------
// Decode Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrDecodeMalformedInput indicates the row handed to the decoder violates
	// the interface contract (for example a nil row).
	ErrDecodeMalformedInput = "DECODE_MALFORMED_INPUT"

	// ErrDecodeUnknownMatcher indicates an unrecognized pairing heuristic name.
	ErrDecodeUnknownMatcher = "DECODE_UNKNOWN_MATCHER"
)

// -----------------------------------------------------------------------------
// Export Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrExportFailed indicates rendering an output document failed.
	ErrExportFailed = "EXPORT_FAILED"

	// ErrExportWriteFailed indicates the output file could not be written.
	ErrExportWriteFailed = "EXPORT_WRITE_FAILED"

	// ErrExportDirCreateFailed indicates the output directory could not be created.
	ErrExportDirCreateFailed = "EXPORT_DIR_CREATE_FAILED"

	// ErrExportInvalidFormat indicates an unsupported export format.
	ErrExportInvalidFormat = "EXPORT_INVALID_FORMAT"

	// ErrPublishConnectFailed indicates the message broker could not be reached.
	ErrPublishConnectFailed = "PUBLISH_CONNECT_FAILED"

	// ErrPublishFailed indicates a measurement message was not accepted.
	ErrPublishFailed = "PUBLISH_FAILED"

	// ErrServeListenFailed indicates the live feed server could not bind its address.
	ErrServeListenFailed = "SERVE_LISTEN_FAILED"
)

// -----------------------------------------------------------------------------
// Command Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrCommandMissingArgs indicates required arguments are missing.
	ErrCommandMissingArgs = "COMMAND_MISSING_ARGS"

	// ErrCommandInvalidArg indicates an argument value is invalid.
	ErrCommandInvalidArg = "COMMAND_INVALID_ARG"

	// ErrCommandReadlineFailed indicates the interactive prompt could not start.
	ErrCommandReadlineFailed = "COMMAND_READLINE_FAILED"
)

// -----------------------------------------------------------------------------
// Validation Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrValidationRequired indicates a required field is missing.
	ErrValidationRequired = "VALIDATION_REQUIRED"

	// ErrValidationInvalidValue indicates a value is invalid.
	ErrValidationInvalidValue = "VALIDATION_INVALID_VALUE"

	// ErrValidationOutOfRange indicates a value is outside allowed range.
	ErrValidationOutOfRange = "VALIDATION_OUT_OF_RANGE"
)

// -----------------------------------------------------------------------------
// IO Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrIOReadFailed indicates a file read failed.
	ErrIOReadFailed = "IO_READ_FAILED"

	// ErrIOWriteFailed indicates a file write failed.
	ErrIOWriteFailed = "IO_WRITE_FAILED"

	// ErrIOPermissionDenied indicates insufficient permissions.
	ErrIOPermissionDenied = "IO_PERMISSION_DENIED"

	// ErrArchiveOpenFailed indicates the measurement archive could not be opened.
	ErrArchiveOpenFailed = "ARCHIVE_OPEN_FAILED"

	// ErrArchiveCorrupt indicates an archive entry could not be decoded.
	ErrArchiveCorrupt = "ARCHIVE_CORRUPT"

	// ErrArchiveNotFound indicates no archive entry has the given ID.
	ErrArchiveNotFound = "ARCHIVE_NOT_FOUND"
)

// -----------------------------------------------------------------------------
// Internal Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrInternalError indicates an unexpected internal error.
	ErrInternalError = "INTERNAL_ERROR"

	// ErrInternalPanic indicates a recovered panic.
	ErrInternalPanic = "INTERNAL_PANIC"
)

// -----------------------------------------------------------------------------
// Code Lookup
// -----------------------------------------------------------------------------

// CodeCategory returns the category for a known error code.
// Unknown codes map to CategoryInternal.
func CodeCategory(code string) Category {
	switch code {
	case ErrConfigNotFound, ErrConfigParseFailed, ErrConfigInvalid, ErrConfigWriteFailed:
		return CategoryConfig

	case ErrInputNoFiles, ErrInputDirNotFound, ErrInputUnreadable,
		ErrInputBadEncoding, ErrInputMalformedLine, ErrNoMeasurements:
		return CategoryInput

	case ErrDecodeMalformedInput, ErrDecodeUnknownMatcher:
		return CategoryDecode

	case ErrExportFailed, ErrExportWriteFailed, ErrExportDirCreateFailed, ErrExportInvalidFormat,
		ErrPublishConnectFailed, ErrPublishFailed, ErrServeListenFailed:
		return CategoryExport

	case ErrCommandMissingArgs, ErrCommandInvalidArg, ErrCommandReadlineFailed:
		return CategoryCommand

	case ErrValidationRequired, ErrValidationInvalidValue, ErrValidationOutOfRange:
		return CategoryValidation

	case ErrIOReadFailed, ErrIOWriteFailed, ErrIOPermissionDenied,
		ErrArchiveOpenFailed, ErrArchiveCorrupt, ErrArchiveNotFound:
		return CategoryIO

	default:
		return CategoryInternal
	}
}

// IsInputCode reports whether code belongs to the input category.
func IsInputCode(code string) bool {
	return CodeCategory(code) == CategoryInput
}

// IsExportCode reports whether code belongs to the export category.
func IsExportCode(code string) bool {
	return CodeCategory(code) == CategoryExport
}
