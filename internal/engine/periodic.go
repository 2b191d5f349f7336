// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package engine

import (
	"time"

	"github.com/creachadair/vintagebackup/internal/timespan"
)

// PeriodicAction generalizes should_do_periodic_action
// (original_source/lib/backup_utilities.py) into a three-way toggle
// shared by every "--X-every SPAN"/"--X"/"--no-X" flag trio in this
// module (the checksum pass, and any future periodic maintenance step).
type PeriodicAction struct {
	// Skip forces the action off regardless of Force or Every, matching
	// the "--no-X" flag.
	Skip bool

	// Force runs the action unconditionally, matching the bare "--X"
	// flag.
	Force bool

	// Every is the time span (see internal/timespan) that must have
	// elapsed since LastRun before the action runs again.
	Every string
}

// ShouldRun reports whether the action should run now, given when it
// last ran (the zero time if never) and the current time.
func (p PeriodicAction) ShouldRun(lastRun, now time.Time) (bool, error) {
	if p.Skip {
		return false, nil
	}
	if p.Force {
		return true, nil
	}
	if p.Every == "" {
		return false, nil
	}
	if lastRun.IsZero() {
		return true, nil
	}

	required, err := timespan.Before(p.Every, now)
	if err != nil {
		return false, err
	}
	return !lastRun.After(required), nil
}
