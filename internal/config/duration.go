// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strconv"
	"time"
)

// Duration wraps time.Duration so config fields can be written as
// "60s" in YAML; yaml.v3 has no built-in support for time.Duration.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string ("60s", "2m") or a
// bare integer number of nanoseconds.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			*d = Duration(n)
			return nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := unmarshal(&n); err != nil {
		return fmt.Errorf("config: duration must be a string or integer nanoseconds")
	}
	*d = Duration(n)
	return nil
}

// Duration returns the value as a standard time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }
