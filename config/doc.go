// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package config defines the logging configuration tree, its built-in defaults
// and the deep merge used to layer user supplied trees over them.
package config
