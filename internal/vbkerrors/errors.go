// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package vbkerrors defines the taxonomic error kinds used throughout the
// backup engine. Each kind is a distinct type so callers can
// test for it with errors.As, and each carries enough context to explain
// itself without a caller needing to inspect the wrapped chain.
package vbkerrors

import "fmt"

// InvalidArgument reports malformed user input: a bad time span, a bad
// storage size, a filter rule with an unknown sign, a filter path outside
// the source tree, or contradictory flags.
type InvalidArgument struct {
	Message string
}

func (e *InvalidArgument) Error() string { return e.Message }

// Invalid constructs an *InvalidArgument from a format string.
func Invalid(format string, args ...any) error {
	return &InvalidArgument{Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a required path that does not exist: the source, a
// filter file, a backup store with no snapshots, or a recovery target
// absent from every snapshot.
type NotFound struct {
	Message string
}

func (e *NotFound) Error() string { return e.Message }

// Missing constructs a *NotFound from a format string.
func Missing(format string, args ...any) error {
	return &NotFound{Message: fmt.Sprintf(format, args...)}
}

// SourceMismatch reports that a store's recorded Source differs from the
// source directory the caller just supplied.
type SourceMismatch struct {
	Store      string
	Recorded   string
	Requested  string
}

func (e *SourceMismatch) Error() string {
	return fmt.Sprintf(
		"store %s already backs up %s, not %s (hard linking across sources defeats deduplication)",
		e.Store, e.Recorded, e.Requested)
}

// Busy reports that a store is already locked by another operation.
type Busy struct {
	Path           string
	OtherPID       string
	OtherOperation string
}

func (e *Busy) Error() string {
	return fmt.Sprintf(
		"%s is locked by pid %s running %q", e.Path, e.OtherPID, e.OtherOperation)
}
