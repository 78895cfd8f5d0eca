// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package info holds application version information.
package info

var (
	// AppName is the name of the application.
	AppName = "shotatlogging"
	// Version is overridden at build time with -ldflags -X.
	Version = "DEV"
	// BuildDate is set at build time with -ldflags -X.
	BuildDate = "" // YYYY-MM-DD
)
