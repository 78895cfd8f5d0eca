// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package shotatlogging

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"sync"

	"github.com/starofrainnight/shotatlogging/config"
	"github.com/starofrainnight/shotatlogging/logger"
)

const (
	// DefaultConfigPath is the configuration file looked up when none is given.
	DefaultConfigPath = "logging.yml"
	// DefaultEnvKey is the environment variable overriding the configuration file path.
	DefaultEnvKey = "SHOTATLOGGING_CFG"
	// DefaultEnvPrefix prefixes the per-field override variables, like SHOTATLOGGING_LEVEL.
	DefaultEnvPrefix = "SHOTATLOGGING_"
)

var (
	// ErrNotConfigured is returned when modifying a configuration that was never set up.
	ErrNotConfigured = errors.New("logging is not configured")
)

// Options drives Resolve and SetupWithOptions. Zero values select the defaults.
type Options struct {
	// ConfigPath is the YAML file merged over the defaults when it exists.
	ConfigPath string
	// EnvKey names the environment variable that, when present, replaces ConfigPath.
	EnvKey string
	// EnvPrefix prefixes the per-field override variables.
	EnvPrefix string
	// Environ replaces the process environment when not nil.
	Environ map[string]string

	Stdout io.Writer
	Stderr io.Writer

	// RedirectStdLog routes the standard library log package into the root logger until Close.
	RedirectStdLog bool
}

func (o Options) withDefaults() Options {
	if o.ConfigPath == "" {
		o.ConfigPath = DefaultConfigPath
	}
	if o.EnvKey == "" {
		o.EnvKey = DefaultEnvKey
	}
	if o.EnvPrefix == "" {
		o.EnvPrefix = DefaultEnvPrefix
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}

	return o
}

func (o Options) lookupEnv(key string) (string, bool) {
	if o.Environ != nil {
		value, ok := o.Environ[key]
		return value, ok
	}

	return os.LookupEnv(key)
}

// Resolved is an effective configuration that has not been applied yet.
type Resolved struct {
	// Path is the configuration file looked up after environment overrides.
	Path string
	// FromFile reports whether Path existed and was merged.
	FromFile bool
	// Tree is the merged raw configuration.
	Tree map[string]any
	// Config is the validated typed configuration.
	Config *config.Config
}

// Resolve builds the effective configuration: defaults, then per-field
// environment overrides, then the configuration file when it exists. A missing
// file is not an error; an unreadable, empty or malformed one is.
func Resolve(opts Options) (*Resolved, error) {
	opts = opts.withDefaults()

	path := opts.ConfigPath
	if value, ok := opts.lookupEnv(opts.EnvKey); ok {
		path = value
	}

	tree, err := config.Merge(config.Default(), envPatch(opts.Environ, opts.EnvPrefix))
	if err != nil {
		return nil, err
	}

	fromFile := false
	fileTree, err := config.ReadFile(path)
	switch {
	case err == nil:
		if tree, err = config.Merge(tree, fileTree); err != nil {
			return nil, err
		}
		fromFile = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	cfg, err := config.Load(tree)
	if err != nil {
		return nil, err
	}

	return &Resolved{
		Path:     path,
		FromFile: fromFile,
		Tree:     tree,
		Config:   cfg,
	}, nil
}

// Logging owns an applied logging configuration.
type Logging struct {
	registry *logger.Registry
	path     string

	mu            sync.Mutex
	tree          map[string]any
	config        *config.Config
	restoreStdLog func()
}

// Setup configures logging from configFilePath, or from the file named by the
// envKey environment variable when it is set, merged over the defaults.
func Setup(configFilePath, envKey string) (*Logging, error) {
	return SetupWithOptions(Options{ConfigPath: configFilePath, EnvKey: envKey})
}

// SetupWithOptions resolves the configuration described by opts and applies it
// to a new registry.
func SetupWithOptions(opts Options) (*Logging, error) {
	opts = opts.withDefaults()

	resolved, err := Resolve(opts)
	if err != nil {
		return nil, err
	}

	registry := logger.NewRegistry(logger.WithStreams(opts.Stdout, opts.Stderr))
	if err := registry.Apply(resolved.Config); err != nil {
		return nil, err
	}

	logging := &Logging{
		registry: registry,
		path:     resolved.Path,
		tree:     resolved.Tree,
		config:   resolved.Config,
	}

	if opts.RedirectStdLog {
		logging.redirectStdLog()
	}

	return logging, nil
}

// Modify merges patch onto the active configuration and applies the result.
// The active configuration is kept when the merged one is rejected.
func (l *Logging) Modify(patch map[string]any) error {
	if l == nil {
		return ErrNotConfigured
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tree, err := config.Merge(config.Clone(l.tree), patch)
	if err != nil {
		return err
	}

	cfg, err := config.Load(tree)
	if err != nil {
		return err
	}

	if err := l.registry.Apply(cfg); err != nil {
		return err
	}

	l.tree = tree
	l.config = cfg
	return nil
}

// Logger returns the logger with the given dotted name, the root logger for "".
func (l *Logging) Logger(name string) logger.Logger {
	return l.registry.Get(name)
}

// WithContext returns a context carrying the root logger.
func (l *Logging) WithContext(ctx context.Context) context.Context {
	return logger.WithContext(ctx, l.Logger(""))
}

// Config returns a copy of the active raw configuration.
func (l *Logging) Config() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()

	return config.Clone(l.tree)
}

// Applied returns the active typed configuration. It must not be modified.
func (l *Logging) Applied() *config.Config {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.config
}

// Path returns the configuration file path that was looked up.
func (l *Logging) Path() string {
	return l.path
}

// Close restores the standard library logger when it was redirected and closes
// the file handlers.
func (l *Logging) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.restoreStdLog != nil {
		l.restoreStdLog()
		l.restoreStdLog = nil
	}

	return l.registry.Close()
}

func (l *Logging) redirectStdLog() {
	previousOutput, previousFlags := log.Writer(), log.Flags()

	log.SetOutput(logger.NewStandardWriter(l.registry.Get("")))
	log.SetFlags(0)

	l.restoreStdLog = func() {
		log.SetOutput(previousOutput)
		log.SetFlags(previousFlags)
	}
}
