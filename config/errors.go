// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// InvalidFields returns the fields of every ConfigError wrapped in err.
func InvalidFields(err error) []string {
	if err == nil {
		return nil
	}

	var fields []string

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			fields = append(fields, InvalidFields(e)...)
		}

		return fields
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		fields = append(fields, cfgErr.Field)
	}

	return fields
}
