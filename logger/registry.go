// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/starofrainnight/shotatlogging/config"
)

// Option customizes a Registry.
type Option func(*Registry)

// WithStreams replaces the writers used by stream handlers for stdout and stderr.
func WithStreams(stdout, stderr io.Writer) Option {
	return func(r *Registry) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// Registry turns a logging configuration into hclog loggers and hands out named
// Logger instances bound to it. Until the first Apply every record is dropped.
type Registry struct {
	stdout io.Writer
	stderr io.Writer

	// discard marks a registry that is never applied: names and level overrides
	// are not recorded.
	discard bool

	mu        sync.RWMutex
	state     *state
	overrides map[string]Level
	known     map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	registry := &Registry{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		state:     emptyState(),
		overrides: make(map[string]Level),
		known:     make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

func newNullRegistry() *Registry {
	registry := NewRegistry(WithStreams(io.Discard, io.Discard))
	registry.discard = true
	return registry
}

// Get returns the logger with the given dotted name; the empty name is the root logger.
func (r *Registry) Get(name string) Logger {
	if !r.discard {
		r.mu.Lock()
		r.known[name] = struct{}{}
		r.mu.Unlock()
	}

	return &instance{registry: r, name: name}
}

// Apply validates cfg, builds its handlers and loggers and makes them active.
// Levels set through Logger.SetLevel are reset. When building fails the
// previous configuration stays active and the handlers opened so far are closed.
func (r *Registry) Apply(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	next, err := r.build(cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if cfg.DisableExistingLoggers {
		next.disabled = disabledLoggers(r.known, next.loggers)
	}
	previous := r.state
	r.state = next
	clear(r.overrides)
	r.mu.Unlock()

	// records of the previous state are already written, close errors cannot be acted upon
	_ = previous.close()
	return nil
}

// Close releases the handlers of the active configuration. Loggers keep working
// but drop every record until the next Apply.
func (r *Registry) Close() error {
	r.mu.Lock()
	previous := r.state
	r.state = emptyState()
	r.mu.Unlock()

	return previous.close()
}

func (r *Registry) build(cfg *config.Config) (*state, error) {
	next := &state{
		root:    &node{level: INFO, propagate: true},
		loggers: make(map[string]*node, len(cfg.Loggers)),
	}

	locks := make(map[string]*sync.Mutex)
	sinks := make(map[string]*sink, len(cfg.Handlers))
	for _, name := range slices.Sorted(maps.Keys(cfg.Handlers)) {
		sink, err := r.newSink(cfg.Handlers[name], cfg.Formatters, locks)
		if err != nil {
			_ = next.close()
			return nil, fmt.Errorf("handler %q: %w", name, err)
		}

		if sink.closer != nil {
			next.closers = append(next.closers, sink.closer)
		}
		sinks[name] = sink
	}

	if cfg.Root != nil {
		root, err := newNode(*cfg.Root, sinks)
		if err != nil {
			_ = next.close()
			return nil, fmt.Errorf("root logger: %w", err)
		}
		if !root.hasLevel {
			root.level = INFO
		}
		next.root = root
	}

	for name, loggerConfig := range cfg.Loggers {
		node, err := newNode(loggerConfig, sinks)
		if err != nil {
			_ = next.close()
			return nil, fmt.Errorf("logger %q: %w", name, err)
		}
		next.loggers[name] = node
	}

	return next, nil
}

func (r *Registry) setLevel(name string, level Level) {
	if r.discard {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.overrides[name] = level
}

// emit delivers a record to the handlers of name and of its ancestors.
func (r *Registry) emit(name string, level Level, msg string, args []interface{}) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, disabled := r.state.disabled[name]; disabled {
		return
	}

	if level > r.effectiveLevel(name) {
		return
	}

	for _, node := range r.state.chain(name) {
		for _, sink := range node.sinks {
			if level <= sink.level {
				sink.log(name, level, msg, args)
			}
		}
	}
}

// effectiveLevel returns the nearest level set for name or one of its ancestors.
// The caller must hold the lock.
func (r *Registry) effectiveLevel(name string) Level {
	for current := name; ; current = parentName(current) {
		if level, ok := r.overrides[current]; ok {
			return level
		}

		if current == "" {
			return r.state.root.level
		}

		if node, ok := r.state.loggers[current]; ok && node.hasLevel {
			return node.level
		}
	}
}

// state is the set of handlers and loggers built from one configuration.
type state struct {
	root     *node
	loggers  map[string]*node
	disabled map[string]struct{}
	closers  []io.Closer
}

func emptyState() *state {
	return &state{
		root:    &node{level: INFO, propagate: true},
		loggers: make(map[string]*node),
	}
}

// chain returns the configured loggers a record emitted by name reaches, nearest
// first, stopping at the first one that does not propagate.
func (s *state) chain(name string) []*node {
	nodes := make([]*node, 0, 2)
	for current := name; current != ""; current = parentName(current) {
		node, ok := s.loggers[current]
		if !ok {
			continue
		}

		nodes = append(nodes, node)
		if !node.propagate {
			return nodes
		}
	}

	return append(nodes, s.root)
}

func (s *state) close() error {
	errs := make([]error, 0, len(s.closers))
	for _, closer := range s.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// node is a configured logger.
type node struct {
	level     Level
	hasLevel  bool
	sinks     []*sink
	propagate bool
}

func newNode(cfg config.Logger, sinks map[string]*sink) (*node, error) {
	configured := &node{propagate: cfg.Propagates()}
	if cfg.Level != "" {
		level, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}

		configured.level = level
		configured.hasLevel = true
	}

	for _, handler := range cfg.Handlers {
		configured.sinks = append(configured.sinks, sinks[handler])
	}

	return configured, nil
}

// disabledLoggers returns the known names that are neither configured nor
// descendants of a configured logger. The root logger is never disabled.
func disabledLoggers(known map[string]struct{}, configured map[string]*node) map[string]struct{} {
	disabled := make(map[string]struct{})
	for name := range known {
		if name == "" || hasConfiguredAncestor(name, configured) {
			continue
		}

		disabled[name] = struct{}{}
	}

	return disabled
}

func hasConfiguredAncestor(name string, configured map[string]*node) bool {
	for current := name; current != ""; current = parentName(current) {
		if _, ok := configured[current]; ok {
			return true
		}
	}

	return false
}

// parentName returns the dotted parent of name, the root logger being "".
func parentName(name string) string {
	if index := strings.LastIndex(name, "."); index >= 0 {
		return name[:index]
	}

	return ""
}
