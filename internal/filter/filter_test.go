// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package filter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func walkAll(t *testing.T, s *Scanner) []string {
	t.Helper()
	var got []string
	if err := s.Walk(func(relPath string) error {
		got = append(got, relPath)
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	sort.Strings(got)
	return got
}

func TestScannerNoRulesIncludesEverything(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt", "dir/b.txt", "dir/sub/c.txt")

	got := walkAll(t, NewScanner(root))
	want := []string{"a.txt", "dir/b.txt", "dir/sub/c.txt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk mismatch (-want +got):\n%s", diff)
	}
}

func TestScannerExcludeThenReinclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "keep.txt", "skip/a.txt", "skip/keep.txt")

	rules := "- skip/**\n+ skip/keep.txt\n"
	path := filepath.Join(t.TempDir(), "filter.txt")
	if err := os.WriteFile(path, []byte(rules), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(root, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := walkAll(t, s)
	want := []string{"keep.txt", "skip/keep.txt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk mismatch (-want +got):\n%s", diff)
	}
}

func TestUnusedRules(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt")

	rules := "- never/matches/**\n"
	path := filepath.Join(root, "filter.txt")
	if err := os.WriteFile(path, []byte(rules), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(root, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	walkAll(t, s)

	unused := s.UnusedRules()
	if len(unused) != 1 || unused[0].Line != 1 {
		t.Errorf("UnusedRules = %v, want one rule on line 1", unused)
	}
}

func TestLoadRejectsOutsidePatterns(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "filter.txt")
	if err := os.WriteFile(path, []byte("+ ../escape\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root, path); err == nil {
		t.Error("Load: want error for a pattern outside the source root")
	}
}

func TestLoadAcceptsAbsolutePatternInsideRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "keep.txt", "skip/a.txt")

	rules := fmt.Sprintf("- %s\n", filepath.Join(root, "skip", "**"))
	path := filepath.Join(t.TempDir(), "filter.txt")
	if err := os.WriteFile(path, []byte(rules), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(root, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := walkAll(t, s)
	want := []string{"keep.txt"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsAbsolutePatternOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	path := filepath.Join(root, "filter.txt")
	rules := fmt.Sprintf("+ %s\n", filepath.Join(outside, "escape"))
	if err := os.WriteFile(path, []byte(rules), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root, path); err == nil {
		t.Error("Load: want error for an absolute pattern outside the source root")
	}
}

func TestLoadRejectsBadSign(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "filter.txt")
	if err := os.WriteFile(path, []byte("* bad.txt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root, path); err == nil {
		t.Error("Load: want error for a line with no +/-/# prefix")
	}
}
