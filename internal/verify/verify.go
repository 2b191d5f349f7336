// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package verify implements two independent integrity checks on a
// backup store: a deep content comparison of the current source against
// its most recent snapshot, and a BLAKE3 checksum manifest
// written once per snapshot and re-checked later to catch bit rot on
// the backup medium that hard-link sharing cannot itself detect.
//
// Grounded on original_source/lib/verification.py's verify_last_backup,
// create_checksum_for_folder, and verify_backup_checksum. The original
// hashes with SHA3-256 via hashlib; this uses BLAKE3
// (github.com/zeebo/blake3, already in the pack) for the supplemented
// checksum feature, chosen for its much higher throughput on the large,
// mostly-unchanged trees this manifest is written against (see
// DESIGN.md).
package verify

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/creachadair/vintagebackup/internal/compare"
	"github.com/creachadair/vintagebackup/internal/filter"
	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

// ChecksumFileName is the manifest written into a snapshot folder.
const ChecksumFileName = "checksums.blake3"

// Report is the outcome of comparing a source tree against a snapshot.
type Report struct {
	Matching    []string
	Mismatching []string
	Errors      []string
}

// Compare deep-compares every filtered file in source against its copy
// in snapshotDir, matching verify_last_backup's use of
// filecmp.cmpfiles(shallow=False) over a Backup_Set.
func Compare(source, snapshotDir string, scanner *filter.Scanner) (Report, error) {
	if scanner == nil {
		scanner = filter.NewScanner(source)
	}

	var report Report
	err := scanner.Walk(func(relPath string) error {
		sourcePath := filepath.Join(source, relPath)
		snapshotPath := filepath.Join(snapshotDir, relPath)

		if !pathutil.Exists(snapshotPath) {
			report.Errors = append(report.Errors, relPath)
			return nil
		}
		if filesEqual(sourcePath, snapshotPath) {
			report.Matching = append(report.Matching, relPath)
		} else {
			report.Mismatching = append(report.Mismatching, relPath)
		}
		return nil
	})
	return report, err
}

func filesEqual(a, b string) bool {
	return compare.DeepEqual(a, b)
}

// WriteResults writes a Report's three lists to "matching files.txt",
// "mismatching files.txt", and "error files.txt" inside resultDir, each
// prefixed with the comparison header line, using
// pathutil.UniquePathName so repeated runs don't clobber earlier
// results.
func WriteResults(resultDir, source, snapshotDir string, report Report) error {
	if err := os.MkdirAll(resultDir, 0o755); err != nil {
		return err
	}
	header := fmt.Sprintf("Comparison: %s <---> %s\n", source, snapshotDir)

	files := []struct {
		name  string
		lines []string
	}{
		{"matching files.txt", report.Matching},
		{"mismatching files.txt", report.Mismatching},
		{"error files.txt", report.Errors},
	}
	for _, f := range files {
		path := pathutil.UniquePathName(filepath.Join(resultDir, f.name))
		if err := writeLines(path, header, f.lines); err != nil {
			return err
		}
	}
	return nil
}

func writeLines(path, header string, lines []string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.WriteString(out, header); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteChecksums writes a BLAKE3 checksum manifest for every file in
// folder (skipping the manifest file itself), returning the manifest's
// path.
func WriteChecksums(folder string) (string, error) {
	manifestPath := pathutil.UniquePathName(filepath.Join(folder, ChecksumFileName))

	out, err := os.Create(manifestPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	err = filepath.WalkDir(folder, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == manifestPath {
			return nil
		}
		digest, err := checksumFile(path)
		if err != nil {
			return nil // unreadable files are skipped, not fatal to the manifest
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s %s\n", filepath.ToSlash(rel), digest)
		return err
	})
	if err != nil {
		return "", err
	}
	return manifestPath, nil
}

// ChangedFile is one entry in a checksum verification's list of files
// whose content no longer matches the recorded manifest.
type ChangedFile struct {
	Path     string
	Recorded string
	Current  string
}

// VerifyChecksums re-hashes every file listed in snapshotDir's checksum
// manifest and reports any whose digest has changed. It returns
// ErrNoManifest if snapshotDir has no checksum file.
func VerifyChecksums(snapshotDir string) ([]ChangedFile, error) {
	manifestPath := pathutil.FindUniquePath(filepath.Join(snapshotDir, ChecksumFileName))
	if manifestPath == "" {
		return nil, ErrNoManifest
	}

	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var changed []ChangedFile
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\n")
		if line == "" {
			continue
		}
		space := strings.LastIndex(line, " ")
		if space < 0 {
			continue
		}
		relPath, recorded := line[:space], line[space+1:]
		current, err := checksumFile(filepath.Join(snapshotDir, relPath))
		if err != nil {
			changed = append(changed, ChangedFile{Path: relPath, Recorded: recorded, Current: "unreadable"})
			continue
		}
		if current != recorded {
			changed = append(changed, ChangedFile{Path: relPath, Recorded: recorded, Current: current})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return changed, nil
}

// ErrNoManifest is returned by VerifyChecksums when the snapshot has no
// checksum manifest to verify against.
var ErrNoManifest = vbkerrors.Missing("no checksum manifest found")

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
