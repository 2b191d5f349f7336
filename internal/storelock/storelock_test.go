// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package storelock

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

func TestAcquireAndRelease(t *testing.T) {
	root := t.TempDir()

	lock, err := Acquire(root, "backup")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := Acquire(root, "verify"); err == nil {
		t.Fatal("second Acquire on a locked store: want error")
	} else {
		var busy *vbkerrors.Busy
		if !errors.As(err, &busy) {
			t.Fatalf("second Acquire error = %v, want *vbkerrors.Busy", err)
		}
		if busy.OtherOperation == "" || !strings.HasPrefix(busy.OtherOperation, "backup#") {
			t.Errorf("Busy.OtherOperation = %q, want a backup#-tagged operation", busy.OtherOperation)
		}
		wantPID := strconv.Itoa(os.Getpid())
		if busy.OtherPID != wantPID {
			t.Errorf("Busy.OtherPID = %q, want %q", busy.OtherPID, wantPID)
		}
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// Now that the lock is released, a new acquire should succeed.
	lock2, err := Acquire(root, "verify")
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if err := lock2.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	root := t.TempDir()
	lock, err := Acquire(root, "backup")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release: want nil error, got %v", err)
	}
}

func TestReleaseNilLock(t *testing.T) {
	var lock *Lock
	if err := lock.Release(); err != nil {
		t.Errorf("Release on a nil *Lock: want nil error, got %v", err)
	}
}

func TestOwnerPID(t *testing.T) {
	root := t.TempDir()
	lock, err := Acquire(root, "backup")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer lock.Release()

	pid, err := OwnerPID(root)
	if err != nil {
		t.Fatalf("OwnerPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("OwnerPID = %d, want %d", pid, os.Getpid())
	}
}
