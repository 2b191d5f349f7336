// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package restore fully reconstitutes a destination folder from a
// chosen snapshot: every backed-up file is copied over (overwriting
// anything already at the destination), and, optionally, anything at
// the destination that the snapshot does not contain is removed.
//
// Grounded on original_source/lib/restoration.py's restore_backup.
package restore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/vbklog"
)

// Options configures a full restore.
type Options struct {
	Snapshot    string // the snapshot folder being restored from
	Destination string // where the restored tree should end up

	// DeleteExtra removes any file or folder at the destination that
	// the snapshot doesn't contain, once that directory level has been
	// processed.
	DeleteExtra bool

	Log vbklog.Logger
}

// Run walks Snapshot and rebuilds Destination from it.
func Run(opts Options) error {
	log := opts.Log
	if log == nil {
		log = vbklog.Nop()
	}

	log.Infof("restoring to: %s", opts.Destination)
	log.Infof("from snapshot: %s", opts.Snapshot)
	log.Infof("deleting extra files: %v", opts.DeleteExtra)

	return filepath.WalkDir(opts.Snapshot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(opts.Snapshot, path)
		if err != nil {
			return err
		}
		userPath := filepath.Join(opts.Destination, rel)

		if d.IsDir() {
			if err := os.MkdirAll(userPath, 0o755); err != nil {
				return err
			}
			if opts.DeleteExtra {
				if err := deleteExtraEntries(path, userPath, log); err != nil {
					return err
				}
			}
			return nil
		}

		if err := restoreFile(path, userPath); err != nil {
			log.Warnf("could not restore %s from %s: %v", userPath, path, err)
		}
		return nil
	})
}

// deleteExtraEntries removes anything directly inside userDir that has
// no corresponding entry directly inside snapshotDir. The caller's walk
// calls it when it first visits snapshotDir, before descending into that
// directory's children; it reads snapshotDir's entries itself, so it
// does not depend on the walk having visited them.
func deleteExtraEntries(snapshotDir, userDir string, log vbklog.Logger) error {
	backedUp := map[string]bool{}
	entries, err := os.ReadDir(snapshotDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		backedUp[e.Name()] = true
	}

	userEntries, err := os.ReadDir(userDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range userEntries {
		if backedUp[e.Name()] {
			continue
		}
		extra := filepath.Join(userDir, e.Name())
		log.Debugf("deleting extra item %s", extra)
		if err := os.RemoveAll(extra); err != nil {
			log.Warnf("could not delete extra item %s: %v", extra, err)
		}
	}
	return nil
}

func restoreFile(src, dst string) error {
	if pathutil.Classify(src) == pathutil.KindSymlink {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		os.Remove(dst)
		return os.Symlink(target, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	modTime := info.ModTime()
	return os.Chtimes(dst, modTime, modTime)
}
