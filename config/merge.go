// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package config

import (
	"fmt"
	"reflect"

	"dario.cat/mergo"
)

// Merge layers patch on top of base and returns base. Nested mappings present on
// both sides are merged recursively, every other value in patch replaces the one
// in base, lists and nil values included. A nil base is allocated.
// The patch is copied first, so the result never shares values with it.
func Merge(base, patch map[string]any) (map[string]any, error) {
	if base == nil {
		base = make(map[string]any, len(patch))
	}

	if len(patch) == 0 {
		return base, nil
	}

	if err := mergo.Merge(&base, Clone(patch), mergo.WithOverride, mergo.WithOverrideEmptySlice); err != nil {
		return nil, fmt.Errorf("%w: merging configuration: %w", ErrInvalidConfig, err)
	}

	return base, nil
}

// Clone returns a deep copy of a raw configuration tree. Mappings with string keys
// become map[string]any and lists become []any, whatever their Go type.
func Clone(tree map[string]any) map[string]any {
	if tree == nil {
		return nil
	}

	cloned := make(map[string]any, len(tree))
	for key, value := range tree {
		cloned[key] = cloneValue(value)
	}

	return cloned
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return Clone(typed)
	case []any:
		cloned := make([]any, len(typed))
		for i, item := range typed {
			cloned[i] = cloneValue(item)
		}
		return cloned
	case []byte:
		return value
	}

	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Map:
		if reflected.Type().Key().Kind() != reflect.String {
			return value
		}

		cloned := make(map[string]any, reflected.Len())
		iter := reflected.MapRange()
		for iter.Next() {
			cloned[iter.Key().String()] = cloneValue(iter.Value().Interface())
		}
		return cloned
	case reflect.Slice, reflect.Array:
		cloned := make([]any, reflected.Len())
		for i := range cloned {
			cloned[i] = cloneValue(reflected.Index(i).Interface())
		}
		return cloned
	default:
		return value
	}
}
