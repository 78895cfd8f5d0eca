// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package logger builds hclog loggers out of a declarative configuration and
// exposes them behind a small Logger interface. A Registry owns the handlers of
// the applied configuration; loggers obtained from it follow every later Apply
// and travel through context helpers.
package logger
