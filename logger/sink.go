// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/starofrainnight/shotatlogging/config"
)

// sink is a configured handler: an hclog logger writing to the handler output
// with the options of its formatter.
type sink struct {
	level  Level
	base   hclog.Logger
	closer io.Closer

	mu    sync.Mutex
	named map[string]hclog.Logger
}

// newSink builds the handler output. Handlers sharing the same destination share
// a lock so their lines never interleave.
func (r *Registry) newSink(handler config.Handler, formatters map[string]config.Formatter, locks map[string]*sync.Mutex) (*sink, error) {
	level := TRACE
	if handler.Level != "" {
		parsed, err := ParseLevel(handler.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var (
		output  io.Writer
		closer  io.Closer
		lockKey string
	)

	switch handler.Kind() {
	case config.ClassStream:
		output = r.stdout
		if handler.StreamName() == config.StreamStderr {
			output = r.stderr
		}
		lockKey = "stream:" + handler.StreamName()
	case config.ClassFile:
		file, err := openLogFile(handler.Filename, handler.Mode)
		if err != nil {
			return nil, err
		}
		output, closer = file, file
		lockKey = "file:" + filepath.Clean(handler.Filename)
	default:
		output = io.Discard
		lockKey = "null"
	}

	lock, ok := locks[lockKey]
	if !ok {
		lock = new(sync.Mutex)
		locks[lockKey] = lock
	}

	formatter := formatters[handler.Formatter]
	return &sink{
		level:  level,
		closer: closer,
		named:  make(map[string]hclog.Logger),
		base: hclog.New(&hclog.LoggerOptions{
			Level:       hclog.Trace,
			Output:      output,
			Mutex:       lock,
			JSONFormat:  formatter.Format == config.FormatJSON,
			TimeFormat:  formatter.DateFmt,
			TimeFn:      time.Now,
			DisableTime: formatter.DisableTime,
			Color:       colorOption(formatter.Color),
		}),
	}, nil
}

func (s *sink) log(name string, level Level, msg string, args []interface{}) {
	s.logger(name).Log(level.convertedLevel(), msg, args...)
}

// logger returns the hclog logger carrying name, creating it on first use.
func (s *sink) logger(name string) hclog.Logger {
	if name == "" {
		return s.base
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	named, ok := s.named[name]
	if !ok {
		named = s.base.Named(name)
		s.named[name] = named
	}

	return named
}

func openLogFile(filename, mode string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, err
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if mode == config.ModeTruncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	return os.OpenFile(filename, flags, 0o644)
}

func colorOption(color string) hclog.ColorOption {
	switch color {
	case config.ColorAuto:
		return hclog.AutoColor
	case config.ColorAlways:
		return hclog.ForceColor
	default:
		return hclog.ColorOff
	}
}
