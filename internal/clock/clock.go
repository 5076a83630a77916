// Copyright 2026 The swift-xet Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time operations for testability. Production
// code injects Real(); tests inject Fake() for deterministic control
// over token expiry.
package clock

import "time"

// Clock abstracts the wall-clock read the token provider needs to
// judge expiry without sleeping real time in tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}
