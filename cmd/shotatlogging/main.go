// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/starofrainnight/shotatlogging"
	internalcmd "github.com/starofrainnight/shotatlogging/internal/cmd"
	"github.com/starofrainnight/shotatlogging/internal/info"
	"github.com/starofrainnight/shotatlogging/logger"
)

var (
	// Version is injected at build time with -ldflags -X.
	Version = info.Version
	// BuildDate is injected at build time with -ldflags -X.
	BuildDate = info.BuildDate

	appName      = info.AppName
	versionShort = "Display the " + appName + " version"
)

const (
	appShort = "shotatlogging inspects and tries logging configurations"
	appLong  = `shotatlogging resolves logging configurations the same way the library does.

	Its own diagnostics are configured like any program using the library: the
	file named by SHOTATLOGGING_CFG, or logging.yml, merged over the defaults and
	the SHOTATLOGGING_ per-field variables, with every handler writing to stderr.`

	logLevelFlagName      = "log-level"
	logLevelShortFlagName = "v"

	versionCmdName = "version"
)

var (
	allLoggerLevels = []string{
		logger.TRACE.String(),
		logger.DEBUG.String(),
		logger.INFO.String(),
		logger.WARN.String(),
		logger.ERROR.String(),
	}
	logLevelFlagUsage = "override the root level of the diagnostics (possible values: " + strings.Join(allLoggerLevels, ", ") + ")"
)

// rootFlags holds the persistent flags shared across the command tree.
type rootFlags struct {
	logLevel string
}

// addFlags registers the persistent CLI flags on cmd.
func (f *rootFlags) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&f.logLevel, logLevelFlagName, logLevelShortFlagName, logger.INFO.String(), heredoc.Doc(logLevelFlagUsage))
}

func main() {
	cmd := rootCmd()
	log, closer := setupDiagnostics(cmd.ErrOrStderr(), nil)
	ctx := logger.WithContext(context.Background(), log)

	exitCode := 0
	if err := cmd.ExecuteContext(ctx); err != nil {
		exitCode = 1
	}

	_ = closer.Close()
	os.Exit(exitCode)
}

// setupDiagnostics configures the CLI own logging through the library, sending
// every stream handler to errOut. environ replaces the process environment when
// not nil. When the configuration is rejected the CLI falls back to a JSON logger
// and reports why.
func setupDiagnostics(errOut io.Writer, environ map[string]string) (logger.Logger, io.Closer) {
	logging, err := shotatlogging.SetupWithOptions(shotatlogging.Options{
		Environ: environ,
		Stdout:  errOut,
		Stderr:  errOut,
	})
	if err != nil {
		log := logger.NewLogger(errOut)
		log.Warn("logging configuration rejected, using defaults", "error", err)
		return log, io.NopCloser(nil)
	}

	return logging.Logger(""), logging
}

// rootCmd constructs the root Cobra command with shared configuration.
func rootCmd() *cobra.Command {
	flag := &rootFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: heredoc.Doc(appShort),
		Long:  heredoc.Doc(appLong),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed(logLevelFlagName) {
				return nil
			}

			level, err := logger.ParseLevel(flag.logLevel)
			if err != nil {
				cmd.PrintErrln(err)
				return err
			}

			logger.FromContext(cmd.Context()).SetLevel(level)
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.PrintErrln(err)
		_ = c.Usage()
		return err
	})

	flag.addFlags(cmd)
	cmd.AddCommand(
		internalcmd.ConfigCmd(),
		internalcmd.EmitCmd(),
		versionCmd(),
	)

	return cmd
}

// versionCmd constructs the Cobra command that prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   versionCmdName,
		Short: heredoc.Doc(versionShort),

		Args: func(cmd *cobra.Command, args []string) error {
			err := cobra.NoArgs(cmd, args)
			if err != nil {
				cmd.PrintErrln(err)
				_ = cmd.Usage()
			}

			return err
		},
		ValidArgsFunction: cobra.NoFileCompletions,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString(Version, BuildDate, runtime.Version()))
		},
	}
}

// versionString formats the version metadata for display.
func versionString(version, buildDate, runtimeVersion string) string {
	outputString := version
	if buildDate != "" {
		outputString += " (" + buildDate + ")"
	}

	return outputString + ", Go Version: " + runtimeVersion
}
