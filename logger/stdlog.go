// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"io"
	"strings"
)

// inferredLevels are the tags recognized at the start of standard library log lines.
var inferredLevels = []Level{TRACE, DEBUG, INFO, WARN, ERROR}

// standardWriter forwards lines written by the standard library log package.
type standardWriter struct {
	logger Logger
}

// NewStandardWriter returns a writer for log.SetOutput that forwards every line
// to logger. A leading [TRACE], [DEBUG], [INFO], [WARN] or [ERROR] tag selects
// the level, untagged lines are logged at INFO.
func NewStandardWriter(logger Logger) io.Writer {
	return &standardWriter{logger: logger}
}

func (w *standardWriter) Write(data []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(data), "\r\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		level, msg := inferLevel(line)
		switch level {
		case TRACE:
			w.logger.Trace(msg)
		case DEBUG:
			w.logger.Debug(msg)
		case WARN:
			w.logger.Warn(msg)
		case ERROR:
			w.logger.Error(msg)
		default:
			w.logger.Info(msg)
		}
	}

	return len(data), nil
}

func inferLevel(line string) (Level, string) {
	for _, level := range inferredLevels {
		if rest, ok := strings.CutPrefix(line, "["+level.String()+"]"); ok {
			return level, strings.TrimSpace(rest)
		}
	}

	return INFO, line
}
