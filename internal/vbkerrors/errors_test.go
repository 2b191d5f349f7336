// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package vbkerrors

import (
	"errors"
	"testing"
)

func TestInvalidAsInvalidArgument(t *testing.T) {
	err := Invalid("bad span %q", "3z")
	var target *InvalidArgument
	if !errors.As(err, &target) {
		t.Fatalf("errors.As(%v, *InvalidArgument): want match", err)
	}
	if target.Message != `bad span "3z"` {
		t.Errorf("Message = %q, want %q", target.Message, `bad span "3z"`)
	}
}

func TestMissingAsNotFound(t *testing.T) {
	err := Missing("store %s has no snapshots", "/tmp/store")
	var target *NotFound
	if !errors.As(err, &target) {
		t.Fatalf("errors.As(%v, *NotFound): want match", err)
	}
}

func TestInvalidArgumentDoesNotMatchNotFound(t *testing.T) {
	err := Invalid("bad input")
	var target *NotFound
	if errors.As(err, &target) {
		t.Error("an *InvalidArgument should not satisfy errors.As for *NotFound")
	}
}

func TestSourceMismatchMessage(t *testing.T) {
	err := &SourceMismatch{Store: "/store", Recorded: "/a", Requested: "/b"}
	got := err.Error()
	want := `store /store already backs up /a, not /b (hard linking across sources defeats deduplication)`
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestBusyMessage(t *testing.T) {
	err := &Busy{Path: "/store", OtherPID: "123", OtherOperation: "backup"}
	got := err.Error()
	want := `/store is locked by pid 123 running "backup"`
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
