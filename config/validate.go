// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	ClassStream = "stream"
	ClassFile   = "file"
	ClassNull   = "null"

	StreamStdout = "stdout"
	StreamStderr = "stderr"

	ModeAppend   = "a"
	ModeTruncate = "w"

	FormatText = "text"
	FormatJSON = "json"

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	// classAliases maps accepted handler class spellings to their canonical name.
	classAliases = map[string]string{
		ClassStream:             ClassStream,
		ClassFile:               ClassFile,
		ClassNull:               ClassNull,
		"logging.StreamHandler": ClassStream,
		"logging.FileHandler":   ClassFile,
		"logging.NullHandler":   ClassNull,
	}

	// streamAliases maps accepted stream spellings to their canonical name.
	streamAliases = map[string]string{
		"":                 StreamStdout,
		StreamStdout:       StreamStdout,
		StreamStderr:       StreamStderr,
		"ext://sys.stdout": StreamStdout,
		"ext://sys.stderr": StreamStderr,
	}

	validModes   = []string{"", ModeAppend, ModeTruncate}
	validFormats = []string{"", FormatText, FormatJSON}
	validColors  = []string{"", ColorAuto, ColorAlways, ColorNever}
)

// IsTimeLayout reports whether layout can be used as a formatter DateFmt. Layouts
// carrying strftime directives are refused since Go would print them verbatim.
func IsTimeLayout(layout string) bool {
	return !strings.Contains(layout, "%")
}

// Kind returns the canonical class of the handler, or an empty string when the
// class is unknown.
func (h Handler) Kind() string {
	return classAliases[h.Class]
}

// StreamName returns the canonical stream of a stream handler, or an empty string
// when the stream is unknown.
func (h Handler) StreamName() string {
	return streamAliases[h.Stream]
}

// Validate checks the configuration for unsupported versions, unknown handler
// classes and references to formatters or handlers that are not defined. Every
// problem found is reported in the returned error, which wraps ErrInvalidConfig.
// Level names are not checked here: they are parsed when the configuration is applied.
func (c *Config) Validate() error {
	errs := make([]error, 0)

	if c.Version != SchemaVersion {
		errs = append(errs, fmt.Errorf("unsupported version %d", c.Version))
	}

	for _, name := range slices.Sorted(maps.Keys(c.Formatters)) {
		formatter := c.Formatters[name]
		if !slices.Contains(validFormats, formatter.Format) {
			errs = append(errs, fmt.Errorf("formatter %q: unknown format %q", name, formatter.Format))
		}
		if !slices.Contains(validColors, formatter.Color) {
			errs = append(errs, fmt.Errorf("formatter %q: unknown color option %q", name, formatter.Color))
		}
		if !IsTimeLayout(formatter.DateFmt) {
			errs = append(errs, fmt.Errorf("formatter %q: date format %q is not a Go time layout", name, formatter.DateFmt))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(c.Handlers)) {
		errs = append(errs, c.validateHandler(name, c.Handlers[name])...)
	}

	for _, name := range slices.Sorted(maps.Keys(c.Loggers)) {
		if name == "" {
			errs = append(errs, errors.New("logger names cannot be empty, use root to configure the root logger"))
			continue
		}
		errs = append(errs, c.validateHandlerRefs(fmt.Sprintf("logger %q", name), c.Loggers[name].Handlers)...)
	}

	if c.Root != nil {
		errs = append(errs, c.validateHandlerRefs("root logger", c.Root.Handlers)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

func (c *Config) validateHandler(name string, handler Handler) []error {
	errs := make([]error, 0)

	switch handler.Kind() {
	case ClassStream:
		if handler.StreamName() == "" {
			errs = append(errs, fmt.Errorf("handler %q: unknown stream %q", name, handler.Stream))
		}
	case ClassFile:
		if handler.Filename == "" {
			errs = append(errs, fmt.Errorf("handler %q: missing filename", name))
		}
		if !slices.Contains(validModes, handler.Mode) {
			errs = append(errs, fmt.Errorf("handler %q: unknown mode %q", name, handler.Mode))
		}
	case ClassNull:
	default:
		errs = append(errs, fmt.Errorf("handler %q: unknown class %q", name, handler.Class))
	}

	if handler.Formatter != "" {
		if _, ok := c.Formatters[handler.Formatter]; !ok {
			errs = append(errs, fmt.Errorf("handler %q: unknown formatter %q", name, handler.Formatter))
		}
	}

	return errs
}

func (c *Config) validateHandlerRefs(owner string, handlers []string) []error {
	errs := make([]error, 0)
	for _, handler := range handlers {
		if _, ok := c.Handlers[handler]; !ok {
			errs = append(errs, fmt.Errorf("%s: unknown handler %q", owner, handler))
		}
	}

	return errs
}
