// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package storelock implements the exclusive-operation lock on a backup
// store: a "vintagebackup.lock" file created with O_EXCL, holding the
// owning process's PID and the operation name, released by calling
// Release (directly or deferred).
//
// Grounded on original_source/lib/backup_lock.py's Backup_Lock context
// manager. No command in cmd/vintagebackup acquires this lock; backup,
// pruning, moving, purging and restoring all run without it. The
// operation string is tagged with a short random suffix (via
// google/uuid, already in the pack) to tell apart two runs of the same
// operation racing for the same store, which bare PID/operation text
// cannot distinguish once a process has been recycled by the OS.
package storelock

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

// FileName is the lock file's name within a store root.
const FileName = "vintagebackup.lock"

// A Lock represents a held store lock. The zero value is not valid; use
// Acquire.
type Lock struct {
	path string
}

// Acquire attempts to take the lock for a store root, recording the
// current process's PID, operation, and a short run identifier. If the
// store is already locked, it returns a *vbkerrors.Busy describing the
// other holder.
func Acquire(root, operation string) (*Lock, error) {
	path := filepath.Join(root, FileName)
	tag := fmt.Sprintf("%s#%s", operation, uuid.NewString()[:8])

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("creating store lock: %w", err)
		}
		otherPID, otherOperation := readLockData(path)
		return nil, &vbkerrors.Busy{Path: root, OtherPID: otherPID, OtherOperation: otherOperation}
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d\n%s\n", os.Getpid(), tag); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing store lock: %w", err)
	}
	return &Lock{path: path}, nil
}

// readLockData reads the pid and operation recorded in an existing lock
// file, tolerating a lock file that vanished between the failed create
// and this read (a race with the holder releasing it).
func readLockData(path string) (pid, operation string) {
	f, err := os.Open(path)
	if err != nil {
		return "unknown", "unknown"
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		pid = strings.TrimSpace(scanner.Text())
	}
	if scanner.Scan() {
		operation = strings.TrimSpace(scanner.Text())
	}
	if pid == "" {
		pid = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	return pid, operation
}

// Release removes the lock file. Calling Release more than once, or on a
// lock whose file was already removed externally, is not an error.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("releasing store lock: %w", err)
	}
	return nil
}

// OwnerPID reports the PID recorded in an existing lock file at root,
// for diagnostics (e.g. "is this PID still alive?" checks a caller might
// run before deciding to report a stale lock).
func OwnerPID(root string) (int, error) {
	pidText, _ := readLockData(filepath.Join(root, FileName))
	pid, err := strconv.Atoi(pidText)
	if err != nil {
		return 0, vbkerrors.Invalid("lock file does not record a valid PID")
	}
	return pid, nil
}
