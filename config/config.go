// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// SchemaVersion is the only configuration version understood by the loader.
	SchemaVersion = 1

	// DefaultFormatterName is the formatter installed by Default.
	DefaultFormatterName = "generic"
	// DefaultHandlerName is the handler installed by Default and attached to the root logger.
	DefaultHandlerName = "console"
	// DefaultLevel is the root logger level installed by Default.
	DefaultLevel = "INFO"

	VersionField                = "version"
	DisableExistingLoggersField = "disable_existing_loggers"
	FormattersField             = "formatters"
	HandlersField               = "handlers"
	LoggersField                = "loggers"
	RootField                   = "root"
	LevelField                  = "level"
	FormatField                 = "format"
	DateFmtField                = "datefmt"
	ColorField                  = "color"
)

var (
	// ErrParsing reports configuration files that cannot be decoded into a mapping.
	ErrParsing = errors.New("error parsing")
	// ErrInvalidConfig reports configuration trees rejected by the schema.
	ErrInvalidConfig = errors.New("invalid logging configuration")
)

// Config is the typed form of a logging configuration tree.
type Config struct {
	Version                int                  `json:"version" yaml:"version"`
	DisableExistingLoggers bool                 `json:"disable_existing_loggers" yaml:"disable_existing_loggers"`
	Formatters             map[string]Formatter `json:"formatters,omitempty" yaml:"formatters,omitempty"`
	Handlers               map[string]Handler   `json:"handlers,omitempty" yaml:"handlers,omitempty"`
	Loggers                map[string]Logger    `json:"loggers,omitempty" yaml:"loggers,omitempty"`
	Root                   *Logger              `json:"root,omitempty" yaml:"root,omitempty"`
}

// Formatter describes how records are rendered by the handlers referencing it.
type Formatter struct {
	// Format is either "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// DateFmt is a Go time layout used for record timestamps, like "2006-01-02 15:04:05".
	// strftime directives such as "%Y-%m-%d" are rejected by Validate.
	DateFmt     string `json:"datefmt,omitempty" yaml:"datefmt,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	DisableTime bool   `json:"disable_time,omitempty" yaml:"disable_time,omitempty"`
}

// Handler describes a destination for log records.
type Handler struct {
	Class     string `json:"class" yaml:"class"`
	Stream    string `json:"stream,omitempty" yaml:"stream,omitempty"`
	Filename  string `json:"filename,omitempty" yaml:"filename,omitempty"`
	Mode      string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Formatter string `json:"formatter,omitempty" yaml:"formatter,omitempty"`
	Level     string `json:"level,omitempty" yaml:"level,omitempty"`
}

// Logger describes a named logger or the root logger.
type Logger struct {
	Level     string   `json:"level,omitempty" yaml:"level,omitempty"`
	Handlers  []string `json:"handlers,omitempty" yaml:"handlers,omitempty"`
	Propagate *bool    `json:"propagate,omitempty" yaml:"propagate,omitempty"`
}

// Propagates reports whether records are forwarded to the ancestors' handlers.
func (l Logger) Propagates() bool {
	return l.Propagate == nil || *l.Propagate
}

// Default returns a fresh raw configuration tree: a text formatter, a console
// handler writing to stdout and a root logger at INFO using that handler.
// Loggers already obtained by the application are never disabled by it.
func Default() map[string]any {
	return map[string]any{
		VersionField:                SchemaVersion,
		DisableExistingLoggersField: false,
		FormattersField: map[string]any{
			DefaultFormatterName: map[string]any{
				FormatField: FormatText,
			},
		},
		HandlersField: map[string]any{
			DefaultHandlerName: map[string]any{
				"class":     ClassStream,
				"stream":    StreamStdout,
				"formatter": DefaultFormatterName,
			},
		},
		LoggersField: map[string]any{},
		RootField: map[string]any{
			LevelField: DefaultLevel,
			HandlersField: []any{
				DefaultHandlerName,
			},
		},
	}
}

// ReadFile decodes the YAML document at path into a raw configuration tree.
// An empty document or one that is not a mapping is reported as ErrParsing;
// errors opening the file are returned as they are.
func ReadFile(path string) (map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var tree map[string]any
	if err := yaml.NewDecoder(file).Decode(&tree); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w %q: empty document", ErrParsing, path)
		}
		return nil, fmt.Errorf("%w %q: %w", ErrParsing, path, err)
	}

	if tree == nil {
		return nil, fmt.Errorf("%w %q: document is not a mapping", ErrParsing, path)
	}

	return tree, nil
}

// Decode converts a raw configuration tree into a Config. Unknown keys and values
// of the wrong type are reported as ErrInvalidConfig. The result is not validated.
func Decode(tree map[string]any) (*Config, error) {
	raw, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	config := new(Config)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return config, nil
}

// Load decodes and validates a raw configuration tree.
func Load(tree map[string]any) (*Config, error) {
	config, err := Decode(tree)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
