// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package missing finds files that exist somewhere in a backup store
// but no longer exist in the filtered current source — useful for
// noticing an accidental deletion before the retaining snapshots that
// still hold the file are pruned away.
//
// Grounded on original_source/lib/find_missing.py's find_missing_files;
// the current file set uses bitbucket.org/creachadair/stringset (the
// same set type snapback.go builds with stringset.New for its own
// -find/-prune path filtering) instead of a bare map[string]bool.
package missing

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"bitbucket.org/creachadair/stringset"

	"github.com/creachadair/vintagebackup/internal/filter"
	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/snapshot"
	"github.com/creachadair/vintagebackup/internal/vbkerrors"
	"github.com/creachadair/vintagebackup/internal/vbklog"
)

// Entry is one file present in some snapshot but absent from the
// filtered source, along with the most recent snapshot it was seen in.
type Entry struct {
	RelPath    string
	LastSeenAt string // snapshot folder name, e.g. "2026-07-31 09-15-00"
}

// Find scans every snapshot in store for files not present in the
// source's currently filtered file set, returning one Entry per missing
// file, each recording the most recent snapshot where it was last seen.
func Find(source, store string, scanner *filter.Scanner, log vbklog.Logger) ([]Entry, error) {
	if log == nil {
		log = vbklog.Nop()
	}
	if scanner == nil {
		scanner = filter.NewScanner(source)
	}

	currentFiles := stringset.New()
	if err := scanner.Walk(func(relPath string) error {
		currentFiles.Add(relPath)
		return nil
	}); err != nil {
		return nil, err
	}

	snapshots, err := snapshot.List(store)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, vbkerrors.Missing("no snapshots found in %s", store)
	}

	lastSeen := map[string]string{}
	for i, snap := range snapshots {
		log.Infof("[%d/%d] %s", i+1, len(snapshots), snapshot.Name(snap.When))
		err := filepath.WalkDir(snap.Path, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(snap.Path, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if !currentFiles.Contains(rel) {
				lastSeen[rel] = snapshot.Name(snap.When)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	entries := make([]Entry, 0, len(lastSeen))
	for rel, seenAt := range lastSeen {
		entries = append(entries, Entry{RelPath: rel, LastSeenAt: seenAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		dirI, nameI := filepath.Split(entries[i].RelPath)
		dirJ, nameJ := filepath.Split(entries[j].RelPath)
		if dirI != dirJ {
			return dirI < dirJ
		}
		return nameI < nameJ
	})
	return entries, nil
}

// WriteReport writes entries to "missing_files.txt" inside resultDir,
// grouped by directory, matching find_missing_files's output layout,
// and returns the file's path. An empty entries slice still writes a
// header-only file the way the original always creates result_file
// before iterating, minus its "no missing files" early return — callers
// should check len(entries) == 0 first if that early return matters to
// them.
func WriteReport(resultDir, store string, entries []Entry) (string, error) {
	if err := os.MkdirAll(resultDir, 0o755); err != nil {
		return "", err
	}
	path := pathutil.UniquePathName(filepath.Join(resultDir, "missing_files.txt"))

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := writeReport(out, store, entries); err != nil {
		return "", err
	}
	return path, nil
}

func writeReport(w io.Writer, store string, entries []Entry) error {
	if _, err := fmt.Fprintf(w, "Missing user files found in %s:\n", store); err != nil {
		return err
	}

	currentDir := ""
	for _, e := range entries {
		dir := filepath.Dir(e.RelPath)
		if dir != currentDir {
			if _, err := fmt.Fprintf(w, "%s\n", dir); err != nil {
				return err
			}
			currentDir = dir
		}
		name := filepath.Base(e.RelPath)
		line := fmt.Sprintf("    %s    last seen: %s", name, e.LastSeenAt)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
