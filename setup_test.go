// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package shotatlogging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starofrainnight/shotatlogging/config"
	"github.com/starofrainnight/shotatlogging/logger"
)

func writeConfigFile(tb testing.TB, content string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "logging.yml")
	require.NoError(tb, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func missingConfigFile(tb testing.TB) string {
	tb.Helper()

	return filepath.Join(tb.TempDir(), "missing.yml")
}

func setupForTest(tb testing.TB, opts Options) (*Logging, *bytes.Buffer) {
	tb.Helper()

	stdout := new(bytes.Buffer)
	opts.Stdout = stdout
	opts.Stderr = stdout
	if opts.Environ == nil {
		opts.Environ = map[string]string{}
	}

	logging, err := SetupWithOptions(opts)
	require.NoError(tb, err)
	tb.Cleanup(func() {
		assert.NoError(tb, logging.Close())
	})

	return logging, stdout
}

func TestSetupWithoutConfigFile(t *testing.T) {
	t.Parallel()

	logging, stdout := setupForTest(t, Options{ConfigPath: missingConfigFile(t)})

	applied := logging.Applied()
	require.NotNil(t, applied.Root)
	assert.Equal(t, config.DefaultLevel, applied.Root.Level)
	assert.Equal(t, []string{config.DefaultHandlerName}, applied.Root.Handlers)
	assert.False(t, applied.DisableExistingLoggers)
	assert.Equal(t, config.Default(), logging.Config())

	log := logging.Logger("app")
	log.Debug("dropped")
	log.Info("started", "port", 8080)

	assert.Contains(t, stdout.String(), "[INFO]  app: started: port=8080")
	assert.NotContains(t, stdout.String(), "dropped")
}

func TestSetupScenarios(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		fileContent string
		environ     func(path string) map[string]string
		check       func(t *testing.T, applied *config.Config)
	}{
		"environment variable points to the configuration file": {
			fileContent: "root:\n  level: DEBUG\n",
			environ: func(path string) map[string]string {
				return map[string]string{DefaultEnvKey: path}
			},
			check: func(t *testing.T, applied *config.Config) {
				assert.Equal(t, "DEBUG", applied.Root.Level)
				assert.Equal(t, []string{config.DefaultHandlerName}, applied.Root.Handlers)
				assert.Equal(t, config.Formatter{Format: config.FormatText}, applied.Formatters[config.DefaultFormatterName])
				assert.Equal(t, config.Handler{
					Class:     config.ClassStream,
					Stream:    config.StreamStdout,
					Formatter: config.DefaultFormatterName,
				}, applied.Handlers[config.DefaultHandlerName])
			},
		},
		"new handler is added next to the console one": {
			fileContent: "handlers:\n  file:\n    class: \"null\"\n    formatter: generic\nroot:\n  handlers: [console, file]\n",
			environ: func(path string) map[string]string {
				return map[string]string{DefaultEnvKey: path}
			},
			check: func(t *testing.T, applied *config.Config) {
				assert.Len(t, applied.Handlers, 2)
				assert.Contains(t, applied.Handlers, config.DefaultHandlerName)
				assert.Contains(t, applied.Handlers, "file")
				assert.Equal(t, []string{"console", "file"}, applied.Root.Handlers)
				assert.Equal(t, config.DefaultLevel, applied.Root.Level)
			},
		},
		"file values win over environment overrides": {
			fileContent: "root:\n  level: WARN\n",
			environ: func(path string) map[string]string {
				return map[string]string{DefaultEnvKey: path, DefaultEnvPrefix + "LEVEL": "DEBUG"}
			},
			check: func(t *testing.T, applied *config.Config) {
				assert.Equal(t, "WARN", applied.Root.Level)
			},
		},
		"empty environment variable disables the file": {
			fileContent: "root:\n  level: DEBUG\n",
			environ: func(string) map[string]string {
				return map[string]string{DefaultEnvKey: ""}
			},
			check: func(t *testing.T, applied *config.Config) {
				assert.Equal(t, config.DefaultLevel, applied.Root.Level)
			},
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := writeConfigFile(t, test.fileContent)
			logging, _ := setupForTest(t, Options{
				ConfigPath: missingConfigFile(t),
				Environ:    test.environ(path),
			})

			test.check(t, logging.Applied())
		})
	}
}

func TestSetupFailures(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		fileContent   string
		expectedError error
	}{
		"empty file": {
			fileContent:   "",
			expectedError: config.ErrParsing,
		},
		"malformed file": {
			fileContent:   "root: {level: DEBUG\n",
			expectedError: config.ErrParsing,
		},
		"file is not a mapping": {
			fileContent:   "just a string\n",
			expectedError: config.ErrParsing,
		},
		"unknown key": {
			fileContent:   "root:\n  levels: DEBUG\n",
			expectedError: config.ErrInvalidConfig,
		},
		"unknown handler class": {
			fileContent:   "handlers:\n  console:\n    class: logging.handlers.SysLogHandler\n",
			expectedError: config.ErrInvalidConfig,
		},
		"unknown level": {
			fileContent:   "root:\n  level: LOUD\n",
			expectedError: logger.ErrUnknownLevel,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			logging, err := SetupWithOptions(Options{
				ConfigPath: writeConfigFile(t, test.fileContent),
				Environ:    map[string]string{},
				Stdout:     new(bytes.Buffer),
			})
			assert.Nil(t, logging)
			assert.ErrorIs(t, err, test.expectedError)
		})
	}
}

func TestSetupWithFileAndEnvKey(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "root:\n  level: ERROR\n")
	logging, err := Setup(path, "SHOTATLOGGING_TEST_UNSET_VARIABLE")
	require.NoError(t, err)
	defer logging.Close()

	assert.Equal(t, path, logging.Path())
	assert.Equal(t, "ERROR", logging.Applied().Root.Level)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		environ           map[string]string
		prefix            string
		expectedLevel     string
		expectedFormatter config.Formatter
	}{
		"no overrides": {
			environ:           map[string]string{},
			expectedLevel:     config.DefaultLevel,
			expectedFormatter: config.Formatter{Format: config.FormatText},
		},
		"every field overridden": {
			environ: map[string]string{
				"SHOTATLOGGING_LEVEL":   "debug",
				"SHOTATLOGGING_FORMAT":  "JSON",
				"SHOTATLOGGING_DATEFMT": "15:04:05",
				"SHOTATLOGGING_COLOR":   "never",
			},
			expectedLevel:     "DEBUG",
			expectedFormatter: config.Formatter{Format: config.FormatJSON, DateFmt: "15:04:05", Color: config.ColorNever},
		},
		"invalid values are ignored": {
			environ: map[string]string{
				"SHOTATLOGGING_LEVEL":   "loud",
				"SHOTATLOGGING_FORMAT":  "xml",
				"SHOTATLOGGING_DATEFMT": "%H:%M:%S",
				"SHOTATLOGGING_COLOR":   "rainbow",
			},
			expectedLevel:     config.DefaultLevel,
			expectedFormatter: config.Formatter{Format: config.FormatText},
		},
		"custom prefix": {
			environ: map[string]string{
				"SHOTATLOGGING_LEVEL":  "ERROR",
				"PYTHON_LOGGING_LEVEL": "WARNING",
			},
			prefix:            "PYTHON_LOGGING_",
			expectedLevel:     "WARNING",
			expectedFormatter: config.Formatter{Format: config.FormatText},
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			resolved, err := Resolve(Options{
				ConfigPath: missingConfigFile(t),
				EnvPrefix:  test.prefix,
				Environ:    test.environ,
			})
			require.NoError(t, err)

			assert.False(t, resolved.FromFile)
			assert.Equal(t, test.expectedLevel, resolved.Config.Root.Level)
			assert.Equal(t, test.expectedFormatter, resolved.Config.Formatters[config.DefaultFormatterName])
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "loggers:\n  app:\n    level: DEBUG\n")
	resolved, err := Resolve(Options{ConfigPath: path, Environ: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, path, resolved.Path)
	assert.True(t, resolved.FromFile)
	assert.Equal(t, map[string]any{"app": map[string]any{"level": "DEBUG"}}, resolved.Tree[config.LoggersField])
	assert.Equal(t, "DEBUG", resolved.Config.Loggers["app"].Level)
}

func TestModify(t *testing.T) {
	t.Parallel()

	logging, stdout := setupForTest(t, Options{ConfigPath: missingConfigFile(t)})
	log := logging.Logger("app.db")

	log.Debug("dropped before modify")
	require.NoError(t, logging.Modify(map[string]any{
		"loggers": map[string]any{"app": map[string]any{"level": "DEBUG"}},
	}))
	log.Debug("kept after modify")

	assert.NotContains(t, stdout.String(), "dropped before modify")
	assert.Contains(t, stdout.String(), "[DEBUG] app.db: kept after modify")

	applied := logging.Applied()
	assert.Equal(t, "DEBUG", applied.Loggers["app"].Level)
	assert.Equal(t, config.DefaultLevel, applied.Root.Level)
	assert.Contains(t, applied.Handlers, config.DefaultHandlerName)
}

func TestModifyWithTypedMappings(t *testing.T) {
	t.Parallel()

	logging, stdout := setupForTest(t, Options{ConfigPath: missingConfigFile(t)})

	require.NoError(t, logging.Modify(map[string]any{
		"root":    map[string]string{"level": "DEBUG"},
		"loggers": map[string]map[string]any{"app": {"propagate": true}},
	}))
	logging.Logger("app").Debug("after modify")

	applied := logging.Applied()
	assert.Equal(t, "DEBUG", applied.Root.Level)
	assert.Equal(t, []string{config.DefaultHandlerName}, applied.Root.Handlers)
	assert.Contains(t, stdout.String(), "[DEBUG] app: after modify")
}

func TestModifyRejectedKeepsConfiguration(t *testing.T) {
	t.Parallel()

	logging, stdout := setupForTest(t, Options{ConfigPath: missingConfigFile(t)})
	before := logging.Config()

	err := logging.Modify(map[string]any{"root": map[string]any{"handlers": []any{"missing"}}})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	err = logging.Modify(map[string]any{"root": map[string]any{"level": "LOUD"}})
	assert.ErrorIs(t, err, logger.ErrUnknownLevel)

	assert.Equal(t, before, logging.Config())
	logging.Logger("").Info("still working")
	assert.Contains(t, stdout.String(), "still working")
}

func TestModifyWithoutSetup(t *testing.T) {
	t.Parallel()

	var logging *Logging
	err := logging.Modify(map[string]any{"root": map[string]any{"level": "DEBUG"}})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestConfigReturnsCopy(t *testing.T) {
	t.Parallel()

	logging, _ := setupForTest(t, Options{ConfigPath: missingConfigFile(t)})

	tree := logging.Config()
	tree[config.RootField].(map[string]any)[config.LevelField] = "ERROR"

	assert.Equal(t, config.DefaultLevel, logging.Config()[config.RootField].(map[string]any)[config.LevelField])
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	logging, stdout := setupForTest(t, Options{ConfigPath: missingConfigFile(t)})

	ctx := logging.WithContext(t.Context())
	logger.FromContext(ctx).Warn("from context")

	assert.Contains(t, stdout.String(), "[WARN]  from context")
}

// TestRedirectStdLog changes the global standard library logger and cannot run in parallel.
func TestRedirectStdLog(t *testing.T) {
	previous := log.Writer()

	stdout := new(bytes.Buffer)
	logging, err := SetupWithOptions(Options{
		ConfigPath:     missingConfigFile(t),
		Environ:        map[string]string{},
		Stdout:         stdout,
		RedirectStdLog: true,
	})
	require.NoError(t, err)

	log.Print("[WARN] from the standard library")
	require.NoError(t, logging.Close())

	assert.Contains(t, stdout.String(), "[WARN]  from the standard library")
	assert.Equal(t, previous, log.Writer())
}
