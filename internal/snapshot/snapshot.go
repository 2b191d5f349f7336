// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package snapshot models the on-disk layout of a backup store: a
// "YYYY/YYYY-MM-DD HH-MM-SS" tree of snapshot folders plus a small
// store-info file recording the source directory and log file path.
//
// Grounded on original_source/lib/backup_utilities.py (naming, listing,
// find_previous_backup) and lib/backup_info.py (store-info read/write),
// generalized from config.go's List()/FindSet() pattern of scanning a
// directory tree for named entries.
package snapshot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/atomicfile"

	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

// NameLayout is the on-disk timestamp format for a snapshot folder, e.g.
// "2026-07-31 09-15-00".
const NameLayout = "2006-01-02 15-04-05"

// InfoFileName is the store-info file living directly under the store
// root, named vintagebackup.source.txt.
const InfoFileName = "vintagebackup.source.txt"

// A Snapshot identifies one backup folder: its absolute path and the
// instant it was taken, parsed from the folder name.
type Snapshot struct {
	Path string
	When time.Time
}

// Name formats when as a snapshot folder name.
func Name(when time.Time) string {
	return when.Format(NameLayout)
}

// FolderFor returns the year/name path a snapshot taken at when would
// live at beneath root, without creating anything.
func FolderFor(root string, when time.Time) string {
	return filepath.Join(root, strconv.Itoa(when.Year()), Name(when))
}

// Parse extracts the Snapshot a folder path represents, or an error if
// the folder is not named like a snapshot or does not sit under the
// correct year folder.
func Parse(path string) (Snapshot, error) {
	yearFolder := filepath.Dir(path)
	year, err := strconv.Atoi(filepath.Base(yearFolder))
	if err != nil {
		return Snapshot{}, vbkerrors.Invalid("not a snapshot path: %s", path)
	}

	when, err := time.ParseInLocation(NameLayout, filepath.Base(path), time.Local)
	if err != nil {
		return Snapshot{}, vbkerrors.Invalid("not a snapshot path: %s", path)
	}
	if when.Year() != year {
		return Snapshot{}, vbkerrors.Invalid("snapshot %s is filed under the wrong year", path)
	}
	return Snapshot{Path: path, When: when}, nil
}

// List returns every snapshot under root, sorted oldest to newest.
// Non-snapshot entries (stray files, the store-info file, a store lock)
// are silently skipped; a year folder that is itself a symlink is
// skipped too, matching the "is_real_directory" filter in
// original_source/lib/backup_utilities.py's all_backups.
func List(root string) ([]Snapshot, error) {
	yearEntries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing store %s: %w", root, err)
	}

	var snapshots []Snapshot
	for _, yearEntry := range yearEntries {
		yearPath := filepath.Join(root, yearEntry.Name())
		if !pathutil.IsRealDir(yearPath) {
			continue
		}
		dateEntries, err := os.ReadDir(yearPath)
		if err != nil {
			return nil, fmt.Errorf("listing year folder %s: %w", yearPath, err)
		}
		for _, dateEntry := range dateEntries {
			path := filepath.Join(yearPath, dateEntry.Name())
			if !pathutil.IsRealDir(path) {
				continue
			}
			snap, err := Parse(path)
			if err != nil {
				continue
			}
			snapshots = append(snapshots, snap)
		}
	}

	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].When.Before(snapshots[j].When) })
	return snapshots, nil
}

// Previous returns the most recent snapshot under root, or the zero
// Snapshot and ok=false if the store has none yet.
func Previous(root string) (Snapshot, bool, error) {
	all, err := List(root)
	if err != nil {
		return Snapshot{}, false, err
	}
	if len(all) == 0 {
		return Snapshot{}, false, nil
	}
	return all[len(all)-1], true, nil
}

// Info is the content of a store's vintagebackup.source.txt: the source
// directory being backed up, and the log file currently in use, both
// optional so a freshly created store can be read before either is set.
type Info struct {
	Source string
	Log    string
}

// infoFile returns the path of root's store-info file.
func infoFile(root string) string {
	return filepath.Join(root, InfoFileName)
}

// ReadInfo loads a store's info file. A missing file is not an error: it
// returns a zero Info, matching a brand-new store.
func ReadInfo(root string) (Info, error) {
	f, err := os.Open(infoFile(root))
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, nil
		}
		return Info{}, fmt.Errorf("reading store info: %w", err)
	}
	defer f.Close()

	var info Info
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimLeft(scanner.Text(), " \t")
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			// Legacy single-line format: a bare source path with no key.
			info.Source = strings.TrimSpace(line)
			continue
		}
		switch strings.TrimSpace(key) {
		case "Source":
			info.Source = strings.TrimSpace(value)
		case "Log":
			info.Log = strings.TrimSpace(value)
		default:
			return Info{}, vbkerrors.Invalid("unknown key in store info file: %q", key)
		}
	}
	if err := scanner.Err(); err != nil {
		return Info{}, fmt.Errorf("reading store info: %w", err)
	}
	return info, nil
}

// WriteInfo atomically replaces a store's info file with info's content.
// Empty fields are omitted entirely, matching write_backup_information's
// "if value:" guard in original_source/lib/backup_info.py.
func WriteInfo(root string, info Info) error {
	var b strings.Builder
	if info.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", info.Source)
	}
	if info.Log != "" {
		fmt.Fprintf(&b, "Log: %s\n", info.Log)
	}
	return atomicfile.WriteData(infoFile(root), []byte(b.String()), 0o644)
}

// CheckSource verifies that source matches the store's recorded source,
// raising *vbkerrors.SourceMismatch if a different directory was recorded
// previously. A store with no recorded source yet (its first backup)
// always passes. The comparison is by filesystem identity, not string
// equality, matching confirm_user_location_is_unchanged's use of
// Path.samefile: a recorded path that merely spells the same directory
// differently (symlink, trailing slash, case on a case-insensitive
// filesystem) does not count as a mismatch. If either path can no longer
// be statted, the comparison falls back to exact string equality: the
// same spelling still passes, and a different one is still a mismatch.
func CheckSource(root, source string) error {
	info, err := ReadInfo(root)
	if err != nil {
		return err
	}
	if info.Source == "" {
		return nil
	}
	if sameFile(info.Source, source) {
		return nil
	}
	return &vbkerrors.SourceMismatch{Store: root, Recorded: info.Source, Requested: source}
}

// sameFile reports whether a and b name the same filesystem entry. If
// either cannot be statted, it falls back to string equality so a
// freshly-moved or not-yet-existing path is not spuriously rejected.
func sameFile(a, b string) bool {
	aInfo, aErr := os.Stat(a)
	bInfo, bErr := os.Stat(b)
	if aErr != nil || bErr != nil {
		return a == b
	}
	return os.SameFile(aInfo, bInfo)
}
