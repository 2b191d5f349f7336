// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package engine drives the creation of a single new snapshot: validating
// the source and store, staging the copy in a scratch folder, and
// publishing it atomically by rename so a reader never observes a
// partially built snapshot.
//
// Grounded on original_source/lib/backup.py's create_new_backup,
// backup_directory, and check_paths_for_validity.
package engine

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"bitbucket.org/creachadair/shell"

	"github.com/creachadair/vintagebackup/internal/clock"
	"github.com/creachadair/vintagebackup/internal/compare"
	"github.com/creachadair/vintagebackup/internal/filter"
	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/snapshot"
	"github.com/creachadair/vintagebackup/internal/vbkerrors"
	"github.com/creachadair/vintagebackup/internal/vbklog"
)

// stagingFolderName is the scratch folder a snapshot is assembled in
// before being published by rename, per backup_staging_folder.
const stagingFolderName = "Staging"

// Options configures a single snapshot creation.
type Options struct {
	Source string // absolute path of the directory being backed up
	Store  string // absolute path of the backup store root

	Filter *filter.Scanner // nil means no filtering (every file included)

	// CompareMode selects shallow or deep file comparison against the
	// previous snapshot.
	CompareMode compare.Mode

	// ForceCopy disables linking against the previous snapshot entirely,
	// copying every file fresh.
	ForceCopy bool

	// CopyProbability is the chance an otherwise-linkable file is copied
	// anyway; see compare.ProbabilityFromHardLinkCount.
	CopyProbability float64

	// Clock supplies the snapshot's timestamp; defaults to clock.Real.
	Clock clock.Clock

	// IsBackupMove changes only log wording, for the mover's
	// per-snapshot re-invocation.
	IsBackupMove bool

	Log vbklog.Logger
}

// Counts tallies what happened to the files considered for a snapshot.
type Counts struct {
	Linked       int
	Copied       int
	FailedCopies int
	BytesCopied  int64
}

// Total returns the number of files actually present in the new snapshot.
func (c Counts) Total() int { return c.Linked + c.Copied }

// Create builds one new snapshot according to opts and returns the path
// of the published snapshot folder along with file counts.
func Create(opts Options) (string, Counts, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Log == nil {
		opts.Log = vbklog.Nop()
	}

	if err := validate(opts.Source, opts.Store); err != nil {
		return "", Counts{}, err
	}

	now := opts.Clock.Now()
	newSnapshotPath := snapshot.FolderFor(opts.Store, now)
	stagingPath := filepath.Join(opts.Store, stagingFolderName)

	if pathutil.Exists(stagingPath) {
		opts.Log.Infof("removing leftover staging folder from an incomplete backup: %s", stagingPath)
		if err := os.RemoveAll(stagingPath); err != nil {
			return "", Counts{}, err
		}
	}

	if err := snapshot.CheckSource(opts.Store, opts.Source); err != nil {
		return "", Counts{}, err
	}
	if err := snapshot.WriteInfo(opts.Store, mergeInfo(opts.Store, opts.Source)); err != nil {
		return "", Counts{}, err
	}

	if opts.IsBackupMove {
		opts.Log.Infof("original snapshot: %s", opts.Source)
		opts.Log.Infof("temporary snapshot: %s", newSnapshotPath)
	} else {
		opts.Log.Infof("source: %s", opts.Source)
		opts.Log.Infof("snapshot destination: %s", newSnapshotPath)
	}

	var previousPath string
	if !opts.ForceCopy {
		if prev, ok, err := snapshot.Previous(opts.Store); err != nil {
			return "", Counts{}, err
		} else if ok {
			previousPath = prev.Path
			opts.Log.Infof("previous snapshot: %s", previousPath)
		}
	}
	if previousPath == "" {
		opts.Log.Infof("no usable previous snapshot, copying everything")
	}

	scanner := opts.Filter
	if scanner == nil {
		scanner = filter.NewScanner(opts.Source)
	}

	rng := rand.New(rand.NewSource(now.UnixNano()))
	counts := Counts{}

	err := scanner.Walk(func(relPath string) error {
		return placeFile(opts, scanner, stagingPath, previousPath, relPath, rng, &counts)
	})
	if err != nil {
		return "", Counts{}, err
	}

	if unused := scanner.UnusedRules(); len(unused) > 0 {
		for _, rule := range unused {
			opts.Log.Infof("filter line #%d had no effect: %s", rule.Line, rule)
		}
	}

	if counts.Total() == 0 {
		opts.Log.Warnf("no files were backed up; not publishing an empty snapshot")
		if err := os.RemoveAll(stagingPath); err != nil {
			return "", Counts{}, err
		}
		return "", counts, nil
	}

	if err := os.MkdirAll(filepath.Dir(newSnapshotPath), 0o755); err != nil {
		return "", Counts{}, err
	}
	if err := os.Rename(stagingPath, newSnapshotPath); err != nil {
		return "", Counts{}, err
	}

	return newSnapshotPath, counts, nil
}

// placeFile stages one file of the source tree: a regular file is linked
// or copied depending on compare.Decide; a symlink is always recreated.
func placeFile(
	opts Options,
	scanner *filter.Scanner,
	stagingPath, previousPath, relPath string,
	rng *rand.Rand,
	counts *Counts,
) error {
	sourcePath := filepath.Join(opts.Source, relPath)
	destPath := filepath.Join(stagingPath, relPath)

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	if pathutil.Classify(sourcePath) == pathutil.KindSymlink {
		if err := copySymlink(sourcePath, destPath); err != nil {
			opts.Log.Warnf("could not copy symlink %s: %v", sourcePath, err)
			counts.FailedCopies++
			return nil
		}
		counts.Copied++
		return nil
	}

	verdict := compare.Decide(
		opts.Source, previousPath, relPath, opts.CompareMode, opts.CopyProbability, rng)
	if previousPath == "" || opts.ForceCopy {
		verdict = compare.Copy
	}

	if verdict == compare.Link {
		prevFile := filepath.Join(previousPath, relPath)
		if err := os.Link(prevFile, destPath); err == nil {
			counts.Linked++
			opts.Log.Debugf("linked %s to %s", shell.Quote(prevFile), shell.Quote(destPath))
			return nil
		}
		opts.Log.Debugf("could not link %s, copying instead", shell.Quote(prevFile))
	}

	size, err := copyFile(sourcePath, destPath)
	if err != nil {
		opts.Log.Warnf("could not copy %s (%v)", sourcePath, err)
		counts.FailedCopies++
		return nil
	}
	counts.Copied++
	counts.BytesCopied += size
	opts.Log.Debugf("copied %s to %s", shell.Quote(sourcePath), shell.Quote(destPath))
	return nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := copyBuffered(out, in)
	if err != nil {
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}
	modTime := info.ModTime()
	_ = os.Chtimes(dst, modTime, modTime)
	return n, nil
}

func copyBuffered(dst *os.File, src *os.File) (int64, error) {
	buf := make([]byte, 256*1024)
	var total int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return total, err
			}
			total += int64(n)
		}
		if readErr != nil {
			if readErr == io.EOF {
				return total, nil
			}
			return total, readErr
		}
	}
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	return os.Symlink(target, dst)
}

func mergeInfo(store, source string) snapshot.Info {
	info, _ := snapshot.ReadInfo(store)
	info.Source = source
	return info
}

// validate rejects inputs that cannot produce a sound snapshot: a
// missing or non-directory source, a store path that exists but is not a
// directory, or a store nested inside the source (which would back the
// store up into itself), per check_paths_for_validity.
func validate(source, store string) error {
	if !pathutil.IsRealDir(source) {
		return vbkerrors.Invalid("source is not a directory: %s", source)
	}
	if pathutil.Exists(store) && !pathutil.IsRealDir(store) {
		return vbkerrors.Invalid("store location exists but is not a directory: %s", store)
	}
	rel, err := filepath.Rel(source, store)
	if err == nil && (rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))) {
		return vbkerrors.Invalid(
			"backup store cannot be inside the source folder: source=%s store=%s", source, store)
	}
	return nil
}
