// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package missing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/creachadair/vintagebackup/internal/filter"
	"github.com/creachadair/vintagebackup/internal/snapshot"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindReportsDeletedFile(t *testing.T) {
	source := t.TempDir()
	store := t.TempDir()
	writeFile(t, filepath.Join(source, "keep.txt"), "k")

	when := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	snapPath := snapshot.FolderFor(store, when)
	writeFile(t, filepath.Join(snapPath, "keep.txt"), "k")
	writeFile(t, filepath.Join(snapPath, "deleted.txt"), "d")

	entries, err := Find(source, store, filter.NewScanner(source), nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Find returned %d entries, want 1 (got %v)", len(entries), entries)
	}
	if entries[0].RelPath != "deleted.txt" {
		t.Errorf("entry RelPath = %q, want %q", entries[0].RelPath, "deleted.txt")
	}
	if entries[0].LastSeenAt != snapshot.Name(when) {
		t.Errorf("entry LastSeenAt = %q, want %q", entries[0].LastSeenAt, snapshot.Name(when))
	}
}

func TestFindNoSnapshotsErrors(t *testing.T) {
	source := t.TempDir()
	store := t.TempDir()
	if _, err := Find(source, store, nil, nil); err == nil {
		t.Error("Find on an empty store: want error")
	}
}

func TestWriteReportContent(t *testing.T) {
	resultDir := t.TempDir()
	entries := []Entry{
		{RelPath: "docs/a.txt", LastSeenAt: "2026-01-01 00-00-00"},
		{RelPath: "docs/b.txt", LastSeenAt: "2026-01-02 00-00-00"},
	}
	path, err := WriteReport(resultDir, "/store", entries)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "Missing user files found in /store:") {
		t.Errorf("report missing header: %q", text)
	}
	if !strings.Contains(text, "a.txt") || !strings.Contains(text, "b.txt") {
		t.Errorf("report missing entries: %q", text)
	}
}
