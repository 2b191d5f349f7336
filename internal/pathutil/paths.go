// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package pathutil collects the small, dependency-free primitives every
// other package in this module builds on: absolute-path normalization,
// human-readable byte formatting, and path classification that is careful
// never to follow symbolic links.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

// Abs normalizes path to a canonical absolute form without resolving
// symlinks, mirroring Python's os.path.abspath (which is exactly what
// original_source/lib/filesystem.py's Absolute_Path constructor uses, and
// what snapback.go's loadConfig does via filepath.Abs).
func Abs(path string) (string, error) {
	expanded := os.ExpandEnv(path)
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// MustAbs is Abs for callers that already know the path is well formed
// (e.g. a path built by joining two already-absolute components).
func MustAbs(path string) string {
	abs, err := Abs(path)
	if err != nil {
		panic(err)
	}
	return abs
}

// Kind classifies a filesystem entry the way original_source/lib/
// filesystem.py's classify_path does: by os.Lstat, never os.Stat, so a
// symlink is always reported as Symlink rather than whatever it points to.
type Kind string

const (
	KindFile    Kind = "File"
	KindFolder  Kind = "Folder"
	KindSymlink Kind = "Symlink"
	KindUnknown Kind = "Unknown"
)

// Classify reports the Kind of path, or KindUnknown if it cannot be
// statted at all.
func Classify(path string) Kind {
	info, err := os.Lstat(path)
	if err != nil {
		return KindUnknown
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return KindSymlink
	case info.IsDir():
		return KindFolder
	case info.Mode().IsRegular():
		return KindFile
	default:
		return KindUnknown
	}
}

// Exists reports whether path exists, without following a trailing
// symlink (a dangling symlink still "exists" for this purpose, matching
// Path.exists(follow_symlinks=False) in original_source/lib/filesystem.py).
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsRealDir reports whether path is a directory and not a symlink to one.
func IsRealDir(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}

// GetExisting resolves path to an absolute form and fails with NotFound if
// nothing exists there, mirroring get_existing_path in
// original_source/lib/filesystem.py.
func GetExisting(path, what string) (string, error) {
	if path == "" {
		return "", vbkerrors.Missing("%s not specified", strings.ToUpper(what[:1])+what[1:])
	}
	abs, err := Abs(path)
	if err != nil {
		return "", err
	}
	if !Exists(abs) {
		return "", vbkerrors.Missing("could not find %s: %s", strings.ToLower(what), path)
	}
	return abs, nil
}

// UniquePathName returns destination unchanged if nothing exists there, or
// else a sibling path with ".N" inserted before the extension, using the
// smallest N >= 1 that is still free. This matches
// original_source/lib/filesystem.py's unique_path_name, used by recovery
// and verification so a restored file never clobbers an existing one.
func UniquePathName(destination string) string {
	if !Exists(destination) {
		return destination
	}

	dir := filepath.Dir(destination)
	ext := filepath.Ext(destination)
	stem := strings.TrimSuffix(filepath.Base(destination), ext)

	for id := 1; ; id++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s.%d%s", stem, id, ext))
		if !Exists(candidate) {
			return candidate
		}
	}
}

// FindUniquePath returns the highest-numbered sibling created by
// UniquePathName, or the base path itself if no numbered sibling exists,
// or "" if nothing at all exists. Mirrors find_unique_path in
// original_source/lib/filesystem.py, used to locate the most recent
// checksum manifest for a snapshot.
func FindUniquePath(path string) string {
	result := ""
	if Exists(path) {
		result = path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result
	}

	best := 0
	for _, entry := range entries {
		name := entry.Name()
		entryExt := filepath.Ext(name)
		entryStem := strings.TrimSuffix(name, entryExt)
		if entryExt != ext || !strings.HasPrefix(entryStem, stem) {
			continue
		}
		addition := strings.TrimPrefix(entryStem, stem)
		if !strings.HasPrefix(addition, ".") {
			continue
		}
		number, err := strconv.Atoi(addition[1:])
		if err != nil || number <= best {
			continue
		}
		best = number
		result = filepath.Join(dir, name)
	}
	return result
}
