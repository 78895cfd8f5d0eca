// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/starofrainnight/shotatlogging/config"
)

var (
	// ErrUnknownLevel reports level names that cannot be parsed.
	ErrUnknownLevel = errors.New("unknown level")

	// nullLogger is a logger that discards all log messages.
	nullLogger Logger = &instance{registry: newNullRegistry()}
)

//go:generate ${TOOLS_BIN}/stringer -type=Level
type Level int

const (
	OFF Level = iota
	ERROR
	WARN
	INFO
	DEBUG
	TRACE
)

// ParseLevel converts a level name into a Level. Names are case insensitive and
// WARNING, CRITICAL and FATAL are accepted as aliases.
func ParseLevel(level string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR", "CRITICAL", "FATAL":
		return ERROR, nil
	case "OFF":
		return OFF, nil
	default:
		return INFO, fmt.Errorf("%w %q", ErrUnknownLevel, level)
	}
}

// LevelFromString works like ParseLevel but falls back to INFO for unknown names.
func LevelFromString(level string) Level {
	parsed, err := ParseLevel(level)
	if err != nil {
		return INFO
	}

	return parsed
}

func (l Level) convertedLevel() hclog.Level {
	switch l {
	case OFF:
		return hclog.Off
	case TRACE:
		return hclog.Trace
	case DEBUG:
		return hclog.Debug
	case INFO:
		return hclog.Info
	case WARN:
		return hclog.Warn
	case ERROR:
		return hclog.Error
	default:
		return hclog.Info
	}
}

// valid reports whether l is one of the declared levels.
func (l Level) valid() bool {
	return l >= OFF && l <= TRACE
}

// Logger describes the interface that must be implemented by all loggers
type Logger interface {
	// WithName returns a new Logger instance with the specified name.
	WithName(name string) Logger

	// SetLevel updates the logger level.
	SetLevel(level Level)

	// Trace emit a message and key/value pairs at the TRACE level.
	Trace(msg string, args ...interface{})

	// Debug emit a message and key/value pairs at the DEBUG level.
	Debug(msg string, args ...interface{})

	// Info emit a message and key/value pairs at the INFO level.
	Info(msg string, args ...interface{})

	// Warn emit a message and key/value pairs at the WARN level.
	Warn(msg string, args ...interface{})

	// Error emit a message and key/value pairs at the ERROR level.
	Error(msg string, args ...interface{})
}

// Make sure that instance is a Logger.
var _ Logger = &instance{}

// instance is a Logger bound by name to a Registry. It resolves the registry
// state on every call, so applying a new configuration affects it too.
type instance struct {
	registry *Registry
	name     string
}

// NewLogger creates a standalone logger writing JSON records to writer at the INFO level.
func NewLogger(writer io.Writer) Logger {
	registry := NewRegistry(WithStreams(writer, writer))
	_ = registry.Apply(&config.Config{
		Version: config.SchemaVersion,
		Formatters: map[string]config.Formatter{
			"json": {Format: config.FormatJSON},
		},
		Handlers: map[string]config.Handler{
			"output": {Class: config.ClassStream, Formatter: "json"},
		},
		Root: &config.Logger{Level: INFO.String(), Handlers: []string{"output"}},
	})

	return registry.Get("")
}

func (i instance) WithName(name string) Logger {
	return i.registry.Get(name)
}

func (i instance) SetLevel(level Level) {
	if !level.valid() {
		level = INFO
	}
	i.registry.setLevel(i.name, level)
}

func (i instance) Trace(msg string, args ...interface{}) {
	i.registry.emit(i.name, TRACE, msg, args)
}

func (i instance) Debug(msg string, args ...interface{}) {
	i.registry.emit(i.name, DEBUG, msg, args)
}

func (i instance) Info(msg string, args ...interface{}) {
	i.registry.emit(i.name, INFO, msg, args)
}

func (i instance) Warn(msg string, args ...interface{}) {
	i.registry.emit(i.name, WARN, msg, args)
}

func (i instance) Error(msg string, args ...interface{}) {
	i.registry.emit(i.name, ERROR, msg, args)
}
