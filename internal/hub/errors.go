// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hub

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by every read or accessor before Init succeeds.
	ErrNotInitialized = errors.New("sensor hub not initialized")
	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("sensor hub already initialized")
)

// InitError reports a failed bring-up. The hub stays Uninitialized and no reading from it
// can be trusted; callers treat it as fatal.
type InitError struct {
	Stage string // "configuration", "inertial driver" or "calibration"
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("sensor hub init (%s): %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// ReadFailure reports a transient read failure at the driver boundary.
// Retry policy belongs to the caller.
type ReadFailure struct {
	Source string // "inertial", "range front", "range rear"
	Err    error
}

func (e *ReadFailure) Error() string {
	return fmt.Sprintf("%s read: %v", e.Source, e.Err)
}

func (e *ReadFailure) Unwrap() error { return e.Err }
