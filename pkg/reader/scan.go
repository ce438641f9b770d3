package reader

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/r3d91ll/tanita/pkg/errors"
)

// Kind is the type of a scale export file.
type Kind int

const (
	KindUnknown     Kind = iota
	KindMeasurement      // DATA*.CSV
	KindProfile          // PROF*.CSV
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMeasurement:
		return "measurement"
	case KindProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// Classify derives the kind from the file's base name.
func Classify(path string) Kind {
	name := strings.ToUpper(filepath.Base(path))
	switch {
	case strings.Contains(name, "DATA"):
		return KindMeasurement
	case strings.Contains(name, "PROF"):
		return KindProfile
	default:
		return KindUnknown
	}
}

// Source is a file scheduled for parsing.
type Source struct {
	Path string
	Kind Kind
}

// Sources selects input files. When all fields are empty the working
// directory is searched for *.CSV files.
type Sources struct {
	DataDir   string
	SystemDir string
	Files     []string

	// WorkDir replaces "." for the fallback search.
	WorkDir string
}

// Empty reports whether no explicit selection was made.
func (s Sources) Empty() bool {
	return s.DataDir == "" && s.SystemDir == "" && len(s.Files) == 0
}

// Scan resolves s into a list of files. Problems that do not prevent the
// rest of the scan (missing directories, unrecognised file names) are
// returned as warnings.
func Scan(s Sources) ([]Source, []error) {
	var (
		out      []Source
		warnings []error
		seen     = make(map[string]bool)
	)
	add := func(path string, kind Kind) {
		clean := filepath.Clean(path)
		if seen[clean] {
			return
		}
		seen[clean] = true
		out = append(out, Source{Path: clean, Kind: kind})
	}

	for _, f := range s.Files {
		kind := Classify(f)
		if kind == KindUnknown {
			warnings = append(warnings, errors.Input(errors.ErrInputUnreadable, "file name is not a DATA or PROF export, skipped").
				WithContext(errors.ContextPath, f))
			continue
		}
		add(f, kind)
	}

	if s.DataDir != "" {
		files, err := globDir(s.DataDir, "DATA")
		if err != nil {
			warnings = append(warnings, err)
		}
		for _, f := range files {
			add(f, KindMeasurement)
		}
	}

	if s.SystemDir != "" {
		files, err := globDir(s.SystemDir, "PROF")
		if err != nil {
			warnings = append(warnings, err)
		}
		for _, f := range files {
			add(f, KindProfile)
		}
	}

	if s.Empty() {
		dir := s.WorkDir
		if dir == "" {
			dir = "."
		}
		files, err := globDir(dir, "")
		if err != nil {
			warnings = append(warnings, err)
		}
		for _, f := range files {
			if kind := Classify(f); kind != KindUnknown {
				add(f, kind)
			}
		}
	}

	return out, warnings
}

// globDir lists regular files in dir whose name starts with prefix and ends
// in .csv, both compared case-insensitively, sorted by name.
func globDir(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.InputDirNotFound(dir)
		}
		return nil, errors.InputUnreadable(dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToUpper(e.Name())
		if !strings.HasSuffix(name, ".CSV") || !strings.HasPrefix(name, prefix) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
