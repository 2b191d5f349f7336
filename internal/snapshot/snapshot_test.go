// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func mkSnapshot(t *testing.T, root string, when time.Time) string {
	t.Helper()
	path := FolderFor(root, when)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListOrdersOldestFirst(t *testing.T) {
	root := t.TempDir()
	t1 := time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)
	t2 := time.Date(2026, 5, 6, 7, 8, 9, 0, time.Local)
	t3 := time.Date(2024, 12, 31, 23, 59, 59, 0, time.Local)
	mkSnapshot(t, root, t1)
	mkSnapshot(t, root, t2)
	mkSnapshot(t, root, t3)

	snaps, err := List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var got []time.Time
	for _, s := range snaps {
		got = append(got, s.When)
	}
	want := []time.Time{t3, t1, t2}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("List()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestListSkipsStrayEntries(t *testing.T) {
	root := t.TempDir()
	mkSnapshot(t, root, time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local))
	if err := os.WriteFile(filepath.Join(root, InfoFileName), []byte("Source: /x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "not-a-year"), 0o755); err != nil {
		t.Fatal(err)
	}

	snaps, err := List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("List returned %d snapshots, want 1 (got %v)", len(snaps), snaps)
	}
}

func TestPreviousEmptyStore(t *testing.T) {
	root := t.TempDir()
	_, ok, err := Previous(root)
	if err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if ok {
		t.Error("Previous: want ok=false for an empty store")
	}
}

func TestInfoRoundTrip(t *testing.T) {
	root := t.TempDir()
	want := Info{Source: "/home/user/docs", Log: "/var/log/vintagebackup.log"}
	if err := WriteInfo(root, want); err != nil {
		t.Fatalf("WriteInfo: %v", err)
	}
	got, err := ReadInfo(root)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Info round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckSourceMismatch(t *testing.T) {
	root := t.TempDir()
	if err := WriteInfo(root, Info{Source: "/a"}); err != nil {
		t.Fatal(err)
	}
	if err := CheckSource(root, "/a"); err != nil {
		t.Errorf("CheckSource with matching source: %v", err)
	}
	if err := CheckSource(root, "/b"); err == nil {
		t.Error("CheckSource with mismatched source: want error")
	}
}

func TestCheckSourceToleratesDifferentSpellingOfSameDirectory(t *testing.T) {
	root := t.TempDir()
	real := filepath.Join(t.TempDir(), "data")
	if err := os.MkdirAll(real, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(t.TempDir(), "link-to-data")
	if err := os.Symlink(real, link); err != nil {
		t.Fatal(err)
	}

	if err := WriteInfo(root, Info{Source: real}); err != nil {
		t.Fatal(err)
	}
	if err := CheckSource(root, link); err != nil {
		t.Errorf("CheckSource via a symlink to the same directory: want nil, got %v", err)
	}
}

func TestCheckSourceFallsBackWhenPathGone(t *testing.T) {
	root := t.TempDir()
	gone := filepath.Join(t.TempDir(), "no-longer-here")
	if err := WriteInfo(root, Info{Source: gone}); err != nil {
		t.Fatal(err)
	}
	// Neither path exists on disk, so the comparison falls back to exact
	// string equality rather than erroring out on the failed stat.
	if err := CheckSource(root, gone); err != nil {
		t.Errorf("CheckSource with an identical but unstattable path: want nil, got %v", err)
	}
	if err := CheckSource(root, gone+"-different"); err == nil {
		t.Error("CheckSource with a different unstattable path: want error")
	}
}

func TestParseRejectsWrongYearFolder(t *testing.T) {
	root := t.TempDir()
	when := time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local)
	badPath := filepath.Join(root, "2099", Name(when))
	if err := os.MkdirAll(badPath, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(badPath); err == nil {
		t.Error("Parse: want error for a snapshot filed under the wrong year")
	}
}
