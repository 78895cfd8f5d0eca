// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/starofrainnight/shotatlogging"
	"github.com/starofrainnight/shotatlogging/logger"
)

const (
	configFileFlagName  = "config-file"
	configFileFlagShort = "f"
	configFileFlagUsage = "Path to the YAML logging configuration merged over the defaults"

	envKeyFlagName  = "env-key"
	envKeyFlagUsage = "Name of the environment variable that overrides the configuration file path"

	loggerFlagName  = "logger"
	loggerFlagShort = "l"
	loggerFlagUsage = "Dotted name of the logger emitting the record, the root logger when empty"

	levelFlagName  = "level"
	levelFlagUsage = "Level of the emitted record"
)

var (
	emitLevels = []string{
		logger.TRACE.String(),
		logger.DEBUG.String(),
		logger.INFO.String(),
		logger.WARN.String(),
		logger.ERROR.String(),
	}
)

// setupFlags collects the CLI options locating the logging configuration.
type setupFlags struct {
	configPath string
	envKey     string
}

// addFlags registers the CLI flags on cmd.
func (f *setupFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, configFileFlagName, configFileFlagShort, shotatlogging.DefaultConfigPath, configFileFlagUsage)
	cmd.Flags().StringVar(&f.envKey, envKeyFlagName, shotatlogging.DefaultEnvKey, envKeyFlagUsage)
}

// toOptions builds an options instance from the parsed flags.
func (f *setupFlags) toOptions(cmd *cobra.Command) *options {
	return &options{
		setup: shotatlogging.Options{
			ConfigPath: f.configPath,
			EnvKey:     f.envKey,
			Stdout:     cmd.OutOrStdout(),
			Stderr:     cmd.ErrOrStderr(),
		},
		out: cmd.OutOrStdout(),
	}
}

// emitFlags collects the CLI options of the emit command.
type emitFlags struct {
	setupFlags

	loggerName string
	level      string
}

// addFlags registers the CLI flags on cmd.
func (f *emitFlags) addFlags(cmd *cobra.Command) {
	f.setupFlags.addFlags(cmd)
	cmd.Flags().StringVarP(&f.loggerName, loggerFlagName, loggerFlagShort, "", loggerFlagUsage)
	cmd.Flags().StringVar(&f.level, levelFlagName, logger.INFO.String(), levelFlagUsage+" ("+strings.Join(emitLevels, ", ")+")")

	_ = cmd.RegisterFlagCompletionFunc(levelFlagName, cobra.FixedCompletions(emitLevels, cobra.ShellCompDirectiveNoFileComp))
}

// toOptions builds an options instance from the parsed flags and CLI arguments.
func (f *emitFlags) toOptions(cmd *cobra.Command, args []string) *options {
	opts := f.setupFlags.toOptions(cmd)
	opts.loggerName = f.loggerName
	opts.level = f.level
	opts.message = strings.Join(args, " ")

	return opts
}
