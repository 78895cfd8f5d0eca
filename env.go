// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package shotatlogging

import (
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/starofrainnight/shotatlogging/config"
	"github.com/starofrainnight/shotatlogging/logger"
)

// envOverrides holds the per-field overrides read from the environment, each
// variable name being prefixed by Options.EnvPrefix.
type envOverrides struct {
	Level   string `env:"LEVEL"`
	Format  string `env:"FORMAT"`
	DateFmt string `env:"DATEFMT"`
	Color   string `env:"COLOR"`
}

// envPatch returns the configuration patch described by the environment. Values
// that are not valid are ignored so the defaults stay in place.
func envPatch(environ map[string]string, prefix string) map[string]any {
	var overrides envOverrides
	if err := env.ParseWithOptions(&overrides, env.Options{Environment: environ, Prefix: prefix}); err != nil {
		return nil
	}

	patch := make(map[string]any)
	if level := strings.ToUpper(strings.TrimSpace(overrides.Level)); level != "" {
		if _, err := logger.ParseLevel(level); err == nil {
			patch[config.RootField] = map[string]any{config.LevelField: level}
		}
	}

	formatter := make(map[string]any)
	if format := strings.ToLower(strings.TrimSpace(overrides.Format)); slices.Contains([]string{config.FormatText, config.FormatJSON}, format) {
		formatter[config.FormatField] = format
	}
	if overrides.DateFmt != "" && config.IsTimeLayout(overrides.DateFmt) {
		formatter[config.DateFmtField] = overrides.DateFmt
	}
	if color := strings.ToLower(strings.TrimSpace(overrides.Color)); slices.Contains([]string{config.ColorAuto, config.ColorAlways, config.ColorNever}, color) {
		formatter[config.ColorField] = color
	}

	if len(formatter) > 0 {
		patch[config.FormattersField] = map[string]any{
			config.DefaultFormatterName: formatter,
		}
	}

	return patch
}
