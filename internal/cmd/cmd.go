// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

const (
	configCmdUsage = "config"
	configCmdShort = "print the effective logging configuration"
	configCmdLong  = `Print the effective logging configuration as YAML.
	The configuration is built from the defaults, the per-field environment
	overrides and the configuration file, exactly as setup would do, but it is
	not applied.`

	configCmdExample = `# Print the configuration resulting from a custom file
	shotatlogging config --config-file logging.yml`

	emitCmdUsage = "emit MESSAGE"
	emitCmdShort = "emit a log record with the effective configuration"
	emitCmdLong  = `Set up logging and emit a single record through a named logger.
	Useful to check how a configuration file routes and formats records.`

	emitCmdExample = `# Emit a debug record through the app.db logger
	shotatlogging emit --logger app.db --level DEBUG "connection opened"`
)

// ConfigCmd returns the "config" cli command printing the effective configuration.
func ConfigCmd() *cobra.Command {
	flags := &setupFlags{}
	cmd := &cobra.Command{
		Use:     configCmdUsage,
		Short:   heredoc.Doc(configCmdShort),
		Long:    heredoc.Doc(configCmdLong),
		Example: heredoc.Doc(configCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := flags.toOptions(cmd)
			if err := opts.printConfig(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}

// EmitCmd returns the "emit" cli command sending one record through the effective configuration.
func EmitCmd() *cobra.Command {
	flags := &emitFlags{}
	cmd := &cobra.Command{
		Use:     emitCmdUsage,
		Short:   heredoc.Doc(emitCmdShort),
		Long:    heredoc.Doc(emitCmdLong),
		Example: heredoc.Doc(emitCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.toOptions(cmd, args)
			if err := opts.validate(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.emit(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}
