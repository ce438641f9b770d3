// Package config handles tanita configuration loading.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/r3d91ll/tanita/pkg/errors"
)

// Config is the root configuration structure.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Report  ReportConfig  `yaml:"report"`
	Export  ExportConfig  `yaml:"export"`
	Publish PublishConfig `yaml:"publish"`
	Serve   ServeConfig   `yaml:"serve"`
}

// InputConfig controls how scale exports are found and read.
type InputConfig struct {
	// DataDir holds DATA*.CSV measurement files (GRAPHV1/DATA on the card).
	DataDir string `yaml:"data_dir"`

	// SystemDir holds PROF*.CSV profile files (GRAPHV1/SYSTEM on the card).
	SystemDir string `yaml:"system_dir"`

	// Encoding is the charset applied when a file is not valid UTF-8.
	Encoding string `yaml:"encoding"`

	// Matcher selects the code detection heuristic: "shape" or "parity".
	Matcher string `yaml:"matcher"`

	// Workers bounds concurrent file parsing.
	Workers int `yaml:"workers"`

	// Archive is a measurement archive merged into every input set.
	// Empty disables merging.
	Archive string `yaml:"archive"`
}

// ReportConfig holds PDF report settings.
type ReportConfig struct {
	Output            string   `yaml:"output"`
	Title             string   `yaml:"title"`
	Author            string   `yaml:"author"`
	Subject           string   `yaml:"subject"`
	Keywords          []string `yaml:"keywords"`
	PageSize          string   `yaml:"page_size"`
	IncludeComparison bool     `yaml:"include_comparison"`
	IncludeGauges     bool     `yaml:"include_gauges"`
	IncludeRadars     bool     `yaml:"include_radars"`
	ShowUnknownFields bool     `yaml:"show_unknown_fields"`
	Validate          bool     `yaml:"validate"`
}

// ExportConfig holds tabular export settings. Empty paths disable an export.
type ExportConfig struct {
	CSV      string `yaml:"csv"`
	XLSX     string `yaml:"xlsx"`
	NAString string `yaml:"na_string"`
}

// PublishConfig holds the message broker sink settings.
type PublishConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

// ServeConfig holds the live feed server settings.
type ServeConfig struct {
	Addr string `yaml:"addr"`

	// PollInterval is how often the input set is re-read. Zero disables polling.
	PollInterval time.Duration `yaml:"poll_interval"`

	// AllowedOrigins lists browser origins accepted on the WebSocket endpoint.
	// Empty accepts same-origin requests only.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Encoding: "windows-1252",
			Matcher:  "shape",
			Workers:  4,
		},
		Report: ReportConfig{
			Output:            "tanita_report.pdf",
			Title:             "Tanita BC-601/BC-603 FS Measurement Report",
			Subject:           "Body composition measurements",
			Keywords:          []string{"tanita", "body composition"},
			PageSize:          "A4",
			IncludeComparison: true,
			IncludeGauges:     true,
			IncludeRadars:     true,
			ShowUnknownFields: true,
		},
		Export: ExportConfig{
			NAString: "NA",
		},
		Publish: PublishConfig{
			Queue: "measures_queue",
		},
		Serve: ServeConfig{
			Addr:         "localhost:8090",
			PollInterval: 5 * time.Second,
		},
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Input.Matcher) {
	case "", "shape", "parity":
	default:
		return errors.ConfigInvalid("input.matcher", c.Input.Matcher, "must be shape or parity")
	}
	if c.Input.Workers < 0 {
		return errors.ConfigInvalid("input.workers", strconv.Itoa(c.Input.Workers), "must not be negative")
	}
	switch strings.ToUpper(c.Report.PageSize) {
	case "", "A4", "A5", "LETTER", "LEGAL":
	default:
		return errors.ConfigInvalid("report.page_size", c.Report.PageSize, "must be A4, A5, Letter or Legal")
	}
	if c.Serve.PollInterval < 0 {
		return errors.ConfigInvalid("serve.poll_interval", c.Serve.PollInterval.String(), "must not be negative")
	}
	return nil
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.IOWrap(err, errors.ErrIOReadFailed, "failed to read config").
			WithContext(errors.ContextPath, path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.ConfigParseError(path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns the default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.ConfigWrap(err, errors.ErrConfigWriteFailed, "failed to create config directory").
			WithContext(errors.ContextPath, path)
	}

	data, err := c.Marshal()
	if err != nil {
		return errors.ConfigWrap(err, errors.ErrConfigWriteFailed, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.ConfigWrap(err, errors.ErrConfigWriteFailed, "failed to write config file").
			WithContext(errors.ContextPath, path)
	}
	return nil
}

// DefaultConfigPath returns tanita.yaml in the working directory, or the
// user config directory copy when only that one exists.
func DefaultConfigPath() string {
	if _, err := os.Stat("tanita.yaml"); err == nil {
		return "tanita.yaml"
	}
	if dir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(dir, "tanita", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "tanita.yaml"
}

// DefaultArchivePath returns the archive location used by the archive
// commands when neither a flag nor the config names one.
func DefaultArchivePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tanita", "archive")
	}
	return "tanita-archive"
}

// InitConfig creates a default config file if it doesn't exist.
// It reports whether a file was written.
func InitConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := Default().Save(path); err != nil {
		return false, err
	}
	return true, nil
}
