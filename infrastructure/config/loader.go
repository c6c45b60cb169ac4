// Package config loads runtime configuration files and watches them for
// changes.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/goap-go/domain/config"
)

// Format represents a configuration file format.
type Format string

const (
	// FormatYAML is the YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
)

// FormatForPath determines the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, ext)
	}
}

// Loader loads runtime configuration from files.
type Loader struct {
	// ExpandEnv enables environment variable expansion.
	ExpandEnv bool
	// StrictEnv fails if referenced env vars are missing.
	StrictEnv bool
	// Strict rejects unknown fields.
	Strict bool
	// Validate enables configuration validation.
	Validate bool
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithEnvExpansion enables or disables environment variable expansion.
func WithEnvExpansion(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.ExpandEnv = enabled
	}
}

// WithStrictEnv enables strict environment variable checking.
func WithStrictEnv(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.StrictEnv = enabled
	}
}

// WithStrict enables rejection of unknown fields.
func WithStrict(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.Strict = enabled
	}
}

// WithValidation enables or disables configuration validation.
func WithValidation(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.Validate = enabled
	}
}

// NewLoader creates a loader. Env expansion and validation are on by default.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		ExpandEnv: true,
		Validate:  true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ReadFile reads a file, mapping a missing file to ErrConfigNotFound.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to access config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", config.ErrInvalidFormat, path)
	}
	return os.ReadFile(path) // #nosec G304 -- path is supplied by the operator
}

// LoadFile loads configuration from a file path.
func (l *Loader) LoadFile(path string) (*config.RuntimeConfig, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.LoadBytes(data, format)
}

// Load loads configuration from a reader.
func (l *Loader) Load(r io.Reader, format Format) (*config.RuntimeConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return l.LoadBytes(data, format)
}

// LoadString loads configuration from a string.
func (l *Loader) LoadString(content string, format Format) (*config.RuntimeConfig, error) {
	return l.LoadBytes([]byte(content), format)
}

// LoadBytes loads configuration from bytes. Fields absent from the input
// keep their DefaultRuntimeConfig values.
func (l *Loader) LoadBytes(data []byte, format Format) (*config.RuntimeConfig, error) {
	cfg := config.DefaultRuntimeConfig()
	if err := l.Decode(data, format, &cfg); err != nil {
		return nil, err
	}

	if l.Validate {
		if errs := config.NewValidator().Validate(&cfg); errs.HasErrors() {
			return nil, errors.Join(config.ErrValidationFailed, errs)
		}
	}
	return &cfg, nil
}

// Decode expands environment variables in data and decodes it into out.
// Other file-backed loaders share it so every file gets the same handling.
func (l *Loader) Decode(data []byte, format Format, out any) error {
	if l.ExpandEnv {
		e := &envExpander{strict: l.StrictEnv}
		expanded, err := e.Expand(string(data))
		if err != nil {
			return err
		}
		data = []byte(expanded)
	}

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(l.Strict)
		if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if l.Strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
		}
	default:
		return fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, format)
	}
	return nil
}
