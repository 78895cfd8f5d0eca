// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package shotatlogging sets up logging with sensible defaults in one call.
//
// Setup starts from a built-in configuration (a text formatter, a console handler
// on stdout and a root logger at INFO), applies per-field overrides read from the
// environment, deep merges an optional YAML file on top and applies the result.
// The path of the file can be overridden through an environment variable, which
// helps for temporary changes to the logging settings:
//
//	logging, err := shotatlogging.Setup("logging.yml", "SHOTATLOGGING_CFG")
//	if err != nil {
//		return err
//	}
//	defer logging.Close()
//
//	log := logging.Logger("app.db")
//	log.Info("connected", "host", host)
//
// The returned Logging holds the applied configuration; Modify merges a partial
// configuration onto it and re-applies it.
package shotatlogging
