// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package recovery restores an individual file or folder from whichever
// snapshot the user selects, either from a numbered menu of every
// distinct version ever backed up, or by a ternary (older/newer/correct)
// binary search when the caller only wants "the right version" without
// knowing which date it came from.
//
// Grounded on original_source/lib/recovery.py's recover_path,
// recover_from_menu, binary_search_recovery, and search_backups.
package recovery

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/creachadair/vintagebackup/internal/console"
	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/snapshot"
	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

// BinaryResponse is one answer in a binary-search recovery session.
type BinaryResponse string

const (
	Correct BinaryResponse = "c"
	Older   BinaryResponse = "o"
	Newer   BinaryResponse = "n"
)

// RelativeToSource returns userPath expressed relative to the store's
// recorded source directory, failing if the store has no recorded
// source or userPath falls outside it.
func RelativeToSource(store, userPath string) (string, error) {
	info, err := snapshot.ReadInfo(store)
	if err != nil {
		return "", err
	}
	if info.Source == "" {
		return "", vbkerrors.Missing("no snapshots found at %s", store)
	}
	rel, err := filepath.Rel(info.Source, userPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", vbkerrors.Invalid(
			"%s is not contained in the source %s backed up at %s", userPath, info.Source, store)
	}
	return filepath.ToSlash(rel), nil
}

// Version is one distinct on-disk version of a recovered path: the
// snapshot it came from and the path of its copy there. DistinctVersions
// deduplicates by inode number, so a chain of hard-linked snapshots
// counts as a single version.
type Version struct {
	Snapshot snapshot.Snapshot
	Path     string // absolute path within the snapshot
}

// DistinctVersions returns, oldest first, one Version per snapshot that
// contains relPath, but collapses runs of snapshots whose copy of
// relPath is the same hard-linked inode into a single entry (there is
// nothing to choose between them), matching recover_path's
// unique_backups dict keyed by inode.
func DistinctVersions(store, relPath string) ([]Version, error) {
	all, err := snapshot.List(store)
	if err != nil {
		return nil, err
	}

	seen := map[uint64]bool{}
	var versions []Version
	for _, snap := range all {
		candidate := filepath.Join(snap.Path, relPath)
		info, err := os.Lstat(candidate)
		if err != nil {
			continue
		}
		inode, ok := platformInode(candidate, info)
		if ok && seen[inode] {
			continue
		}
		if ok {
			seen[inode] = true
		}
		versions = append(versions, Version{Snapshot: snap, Path: candidate})
	}
	return versions, nil
}

// ChooseFromMenu lets the user pick one Version by year-dated menu
// entry, then restores it to destination.
func ChooseFromMenu(in console.Input, versions []Version, destination string) error {
	if len(versions) == 0 {
		return vbkerrors.Missing("no snapshots found for %s", destination)
	}

	choices := make([]string, len(versions))
	for i, v := range versions {
		choices[i] = fmt.Sprintf("%s (%s)", snapshot.Name(v.Snapshot.When), pathutil.Classify(v.Path))
	}
	index, err := in.ChooseFromMenu(choices, "Version to recover")
	if err != nil {
		return err
	}
	return RestoreToOriginalLocation(versions[index].Path, destination)
}

// BinarySearch narrows versions down by repeatedly restoring the middle
// candidate and asking whether it is correct, too old, or too new,
// halving the remaining range each time, matching
// binary_search_recovery. It restores the winning candidate as its last
// action and returns nil, or returns an error if versions is empty.
func BinarySearch(in console.Input, versions []Version, destination string) error {
	if len(versions) == 0 {
		return vbkerrors.Missing("no snapshots found for %s", destination)
	}

	for {
		index := len(versions) / 2
		candidate := versions[index]
		if err := RestoreToOriginalLocation(candidate.Path, destination); err != nil {
			return err
		}

		if len(versions) == 1 {
			return nil
		}

		valid := []string{string(Correct), string(Older)}
		question := "Is the data [C]orrect, or do you want the [O]lder version?"
		if len(versions) > 2 {
			valid = append(valid, string(Newer))
			question = "Is the data [C]orrect, or do you want an [O]lder or [N]ewer version?"
		}

		response, err := in.BinaryChoice(question, valid)
		if err != nil {
			return err
		}

		switch BinaryResponse(response) {
		case Correct:
			return nil
		case Older:
			versions = versions[:index]
		case Newer:
			versions = versions[index+1:]
		}
	}
}

// RestoreToOriginalLocation copies backedUpSource (a file or folder
// within a snapshot) to destination, never clobbering an existing
// entry: pathutil.UniquePathName appends ".N" if necessary.
func RestoreToOriginalLocation(backedUpSource, destination string) error {
	if pathutil.Exists(destination) && filepath.Base(destination) != filepath.Base(backedUpSource) {
		return vbkerrors.Invalid(
			"the backed-up path and the destination must have the same name: %s vs %s",
			backedUpSource, destination)
	}

	target := pathutil.UniquePathName(destination)
	if pathutil.IsRealDir(backedUpSource) {
		return copyTree(backedUpSource, target)
	}
	return copyPreservingSymlink(backedUpSource, target)
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		return copyPreservingSymlink(path, target)
	})
}

func copyPreservingSymlink(src, dst string) error {
	if pathutil.Classify(src) == pathutil.KindSymlink {
		linkTarget, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(linkTarget, dst)
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
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// SearchableItem is one entry in a directory that has ever appeared,
// under any name, in any snapshot beneath a given source subdirectory;
// used by search_backups-style "list everything ever backed up here"
// listings ahead of recovery or purge.
type SearchableItem struct {
	Name string
	Kind pathutil.Kind
}

// SearchDirectory collects, across every snapshot, the distinct
// (name, kind) pairs ever present directly inside store's copy of
// relDir, sorted by name then kind.
func SearchDirectory(store, relDir string) ([]SearchableItem, error) {
	all, err := snapshot.List(store)
	if err != nil {
		return nil, err
	}

	seen := map[SearchableItem]bool{}
	for _, snap := range all {
		dir := filepath.Join(snap.Path, relDir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			item := SearchableItem{Name: entry.Name(), Kind: pathutil.Classify(filepath.Join(dir, entry.Name()))}
			seen[item] = true
		}
	}

	items := make([]SearchableItem, 0, len(seen))
	for item := range seen {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Kind < items[j].Kind
	})
	return items, nil
}
