// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package purge deletes a single file or folder from every snapshot in
// a store, optionally restricted to one filesystem kind when a path's
// type changed across its history (e.g. it used to be a folder and is
// now a symlink).
//
// Grounded on original_source/lib/purge.py's purge_path and
// choose_types_to_delete.
package purge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/creachadair/vintagebackup/internal/console"
	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/snapshot"
	"github.com/creachadair/vintagebackup/internal/vbkerrors"
	"github.com/creachadair/vintagebackup/internal/vbklog"
)

// Candidate is one snapshot's copy of the path being purged.
type Candidate struct {
	Snapshot snapshot.Snapshot
	Path     string
	Kind     pathutil.Kind
}

// Find returns every snapshot's copy of relPath that actually exists,
// across every snapshot in store.
func Find(store, relPath string) ([]Candidate, error) {
	all, err := snapshot.List(store)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, snap := range all {
		path := filepath.Join(snap.Path, relPath)
		if !pathutil.Exists(path) {
			continue
		}
		candidates = append(candidates, Candidate{
			Snapshot: snap,
			Path:     path,
			Kind:     pathutil.Classify(path),
		})
	}
	return candidates, nil
}

// KindCounts tallies how many candidates are of each Kind.
func KindCounts(candidates []Candidate) map[pathutil.Kind]int {
	counts := map[pathutil.Kind]int{}
	for _, c := range candidates {
		counts[c.Kind]++
	}
	return counts
}

// ChooseKinds decides which Kinds should be deleted when a purge target
// has appeared as more than one Kind across its history, prompting the
// user when there is more than one kind present.
func ChooseKinds(in console.Input, candidates []Candidate) ([]pathutil.Kind, error) {
	counts := KindCounts(candidates)
	if len(counts) <= 1 {
		for kind := range counts {
			return []pathutil.Kind{kind}, nil
		}
		return nil, nil
	}

	kinds := make([]pathutil.Kind, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	choices := make([]string, 0, len(kinds)+1)
	for _, kind := range kinds {
		choices = append(choices, fmt.Sprintf("%ss (%d items)", kind, counts[kind]))
	}
	allChoice := fmt.Sprintf("All (%d items)", len(candidates))
	choices = append(choices, allChoice)

	index, err := in.ChooseFromMenu(choices, "Multiple types of paths were found. Which one should be deleted?")
	if err != nil {
		return nil, err
	}
	if index == len(choices)-1 {
		return kinds, nil
	}
	return []pathutil.Kind{kinds[index]}, nil
}

// Run deletes every candidate whose Kind is in kinds, logging each
// deletion, and returns the number actually removed. A candidate that
// cannot be deleted is logged as a warning and skipped.
func Run(candidates []Candidate, kinds []pathutil.Kind, log vbklog.Logger) (int, error) {
	if log == nil {
		log = vbklog.Nop()
	}
	allowed := map[pathutil.Kind]bool{}
	for _, k := range kinds {
		allowed[k] = true
	}

	deleted := 0
	for _, c := range candidates {
		if !allowed[c.Kind] {
			continue
		}
		log.Infof("deleting %s %s ...", c.Kind, c.Path)
		if err := os.RemoveAll(c.Path); err != nil {
			log.Warnf("could not delete %s: %v", c.Path, err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// SuggestedFilterLine builds the "- pattern" a user could add to a
// filter file to keep relPath from being backed up again, appending
// "/**" when targetIsDir is set (cmd/vintagebackup sets it when any
// backed-up copy of the target is a folder).
func SuggestedFilterLine(relPath string, targetIsDir bool) string {
	if targetIsDir {
		return "- " + filepath.ToSlash(filepath.Join(relPath, "**"))
	}
	return "- " + filepath.ToSlash(relPath)
}

// ErrDeclined is the error value for a purge the user declined, distinct
// from "nothing matched". No function in this package asks for
// confirmation or returns it.
var ErrDeclined = vbkerrors.Invalid("purge declined by user")
