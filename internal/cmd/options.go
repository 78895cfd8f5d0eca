// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starofrainnight/shotatlogging"
	"github.com/starofrainnight/shotatlogging/logger"
)

// options drives the config and emit commands.
type options struct {
	setup shotatlogging.Options
	out   io.Writer

	loggerName string
	level      string
	message    string
}

// validate checks the values needed to emit a record.
func (o *options) validate() error {
	if strings.TrimSpace(o.message) == "" {
		return errNoArguments
	}

	if !slices.Contains(emitLevels, strings.ToUpper(o.level)) {
		return fmt.Errorf("%w: %s", errInvalidLevel, o.level)
	}

	return nil
}

// printConfig writes the effective configuration as YAML without applying it.
func (o *options) printConfig(ctx context.Context) error {
	log := logger.FromContext(ctx).WithName(configLoggerName)

	resolved, err := shotatlogging.Resolve(o.setup)
	if err != nil {
		return err
	}
	log.Debug("configuration resolved", "path", resolved.Path, "fromFile", resolved.FromFile)

	encoder := yaml.NewEncoder(o.out)
	encoder.SetIndent(2)
	if err := encoder.Encode(resolved.Config); err != nil {
		return err
	}

	return encoder.Close()
}

// emit sets up logging and sends the message through the selected logger.
func (o *options) emit(ctx context.Context) error {
	log := logger.FromContext(ctx).WithName(emitLoggerName)

	logging, err := shotatlogging.SetupWithOptions(o.setup)
	if err != nil {
		return err
	}
	log.Debug("logging configured", "path", logging.Path(), "logger", o.loggerName, "level", o.level)

	target := logging.Logger(o.loggerName)
	switch logger.LevelFromString(o.level) {
	case logger.TRACE:
		target.Trace(o.message)
	case logger.DEBUG:
		target.Debug(o.message)
	case logger.WARN:
		target.Warn(o.message)
	case logger.ERROR:
		target.Error(o.message)
	default:
		target.Info(o.message)
	}

	return logging.Close()
}
