// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package clock supplies the current time to the backup engine so that
// tests can inject a deterministic value instead of the wall clock.
package clock

import "time"

// A Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Real is a Clock backed by the operating system's wall clock.
type Real struct{}

// Now implements Clock.
func (Real) Now() time.Time { return time.Now() }

// Fixed is a Clock that always reports the same instant. Tests use this to
// make snapshot names, retention cutoffs, and rarefaction bands
// deterministic.
type Fixed struct {
	T time.Time
}

// Now implements Clock.
func (f Fixed) Now() time.Time { return f.T }
