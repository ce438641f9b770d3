package errors

import (
	"runtime"
	"sort"
)

// -----------------------------------------------------------------------------
// Context Keys for Conditional Suggestions
// -----------------------------------------------------------------------------

const (
	// ContextOS is the operating system (e.g., "linux", "darwin", "windows")
	ContextOS = "os"

	// ContextArch is the CPU architecture
	ContextArch = "arch"

	// ContextPath is the file or directory involved in the error.
	ContextPath = "path"

	// ContextKind is the scale file kind ("measurement" or "profile").
	ContextKind = "kind"
)

// OS values for platform-specific suggestions.
const (
	OSLinux   = "linux"
	OSDarwin  = "darwin"
	OSWindows = "windows"
)

// -----------------------------------------------------------------------------
// Suggestion Type
// -----------------------------------------------------------------------------

// Suggestion is a remediation hint with optional conditions.
type Suggestion struct {
	// Text is the suggestion message displayed to the user.
	Text string

	// Conditions must all match the error context. Empty matches everything.
	Conditions map[string]string

	// Priority orders suggestions, highest first.
	Priority int
}

// Matches returns true if this suggestion's conditions match the given context.
func (s *Suggestion) Matches(ctx map[string]string) bool {
	for key, value := range s.Conditions {
		if ctx[key] != value {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Suggestions Registry
// -----------------------------------------------------------------------------

// Registry maps error codes to their remediation suggestions.
type Registry struct {
	suggestions map[string][]Suggestion
}

// NewRegistry creates a new suggestion registry.
func NewRegistry() *Registry {
	return &Registry{
		suggestions: make(map[string][]Suggestion),
	}
}

// Register adds a suggestion for an error code.
func (r *Registry) Register(code, text string) *Registry {
	r.suggestions[code] = append(r.suggestions[code], Suggestion{Text: text})
	return r
}

// RegisterWithCondition adds a suggestion that only applies when the
// error context matches conditions.
func (r *Registry) RegisterWithCondition(code, text string, conditions map[string]string) *Registry {
	r.suggestions[code] = append(r.suggestions[code], Suggestion{
		Text:       text,
		Conditions: conditions,
	})
	return r
}

// RegisterWithPriority adds a suggestion with explicit priority.
func (r *Registry) RegisterWithPriority(code, text string, priority int) *Registry {
	r.suggestions[code] = append(r.suggestions[code], Suggestion{
		Text:     text,
		Priority: priority,
	})
	return r
}

// Get returns the suggestions for code that match ctx, highest priority first.
func (r *Registry) Get(code string, ctx map[string]string) []string {
	all, ok := r.suggestions[code]
	if !ok {
		return nil
	}

	var matching []Suggestion
	for _, s := range all {
		if s.Matches(ctx) {
			matching = append(matching, s)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Priority > matching[j].Priority
	})

	result := make([]string, len(matching))
	for i, s := range matching {
		result[i] = s.Text
	}
	return result
}

// HasSuggestions returns true if any suggestions exist for the error code.
func (r *Registry) HasSuggestions(code string) bool {
	return len(r.suggestions[code]) > 0
}

// Codes returns all error codes that have registered suggestions, sorted.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.suggestions))
	for code := range r.suggestions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// DefaultContext returns a context map with current platform information.
func DefaultContext() map[string]string {
	return map[string]string{
		ContextOS:   runtime.GOOS,
		ContextArch: runtime.GOARCH,
	}
}

// MergeContext combines context maps; later maps win on duplicate keys.
func MergeContext(contexts ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, ctx := range contexts {
		for k, v := range ctx {
			result[k] = v
		}
	}
	return result
}

// -----------------------------------------------------------------------------
// Global Default Registry
// -----------------------------------------------------------------------------

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global default registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// GetSuggestions returns suggestions for code using the current platform context.
func GetSuggestions(code string) []string {
	return defaultRegistry.Get(code, DefaultContext())
}

func init() {
	registerConfigSuggestions()
	registerInputSuggestions()
	registerDecodeSuggestions()
	registerExportSuggestions()
	registerCommandSuggestions()
}

func registerConfigSuggestions() {
	defaultRegistry.Register(ErrConfigNotFound,
		"Create a default config with: tanita config init")
	defaultRegistry.Register(ErrConfigParseFailed,
		"Check the YAML syntax, indentation must use spaces")
	defaultRegistry.Register(ErrConfigInvalid,
		"Compare your file with the output of: tanita config init --stdout")
	defaultRegistry.Register(ErrConfigWriteFailed,
		"Check that the config directory is writable")
}

func registerInputSuggestions() {
	defaultRegistry.RegisterWithPriority(ErrInputNoFiles,
		"Point --data-dir at the GRAPHV1/DATA folder of the scale's SD card", 10)
	defaultRegistry.Register(ErrInputNoFiles,
		"Pass files explicitly with --files DATA1.CSV PROF1.CSV")
	defaultRegistry.Register(ErrInputDirNotFound,
		"Check the directory path, it is usually GRAPHV1/DATA or GRAPHV1/SYSTEM")
	defaultRegistry.RegisterWithCondition(ErrInputDirNotFound,
		"Mounted SD cards usually live under /media/$USER",
		map[string]string{ContextOS: OSLinux})
	defaultRegistry.RegisterWithCondition(ErrInputDirNotFound,
		"Mounted SD cards usually live under /Volumes",
		map[string]string{ContextOS: OSDarwin})
	defaultRegistry.Register(ErrInputUnreadable,
		"Check the file permissions and that the card is still mounted")
	defaultRegistry.Register(ErrInputBadEncoding,
		"Use a WHATWG encoding label such as windows-1252 or iso-8859-1")
	defaultRegistry.RegisterWithPriority(ErrNoMeasurements,
		"Make sure the selection includes DATA*.CSV files, PROF*.CSV files only hold profiles", 10)
	defaultRegistry.Register(ErrNoMeasurements,
		"Generate example files with: tanita sample --dir ./sample")
	defaultRegistry.RegisterWithCondition(ErrNoMeasurements,
		"Profile files were found but they never contain measurements",
		map[string]string{ContextKind: "profile"})
}

func registerDecodeSuggestions() {
	defaultRegistry.Register(ErrDecodeUnknownMatcher,
		"Valid matchers are: shape, parity")
}

func registerExportSuggestions() {
	defaultRegistry.Register(ErrExportWriteFailed,
		"Check that the output path is writable and not open in another program")
	defaultRegistry.Register(ErrExportDirCreateFailed,
		"Check permissions on the parent directory")
	defaultRegistry.Register(ErrExportInvalidFormat,
		"Supported formats are: pdf, csv, tsv, xlsx")
	defaultRegistry.Register(ErrPublishConnectFailed,
		"Check the broker URL (publish.url in the config or RABBITMQ_ADDR)")
	defaultRegistry.Register(ErrServeListenFailed,
		"Another process may hold the port; pick one with --addr")
	defaultRegistry.Register(ErrArchiveOpenFailed,
		"Only one tanita process can hold the archive; close other sessions using it")
	defaultRegistry.Register(ErrArchiveNotFound,
		"Run 'tanita archive list' to see entry IDs")
}

func registerCommandSuggestions() {
	defaultRegistry.Register(ErrCommandInvalidArg,
		"Run the command with --help to see valid values")
	defaultRegistry.Register(ErrCommandReadlineFailed,
		"Run without --interactive to print the full code list")
}

// AttachSuggestions adds registry suggestions to err, matching against the
// platform context merged with the error's own context.
func AttachSuggestions(err *TanitaError) *TanitaError {
	if err == nil {
		return nil
	}
	ctx := MergeContext(DefaultContext(), err.Context)
	if suggestions := defaultRegistry.Get(err.Code, ctx); len(suggestions) > 0 {
		err.Suggestions = append(err.Suggestions, suggestions...)
	}
	return err
}
