// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package compare

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFileAt(t *testing.T, path, content string, when time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatal(err)
	}
}

func TestDecideLinksUnchangedFile(t *testing.T) {
	dir, prev := t.TempDir(), t.TempDir()
	when := time.Now().Truncate(time.Second)
	writeFileAt(t, filepath.Join(dir, "a.txt"), "hello", when)
	writeFileAt(t, filepath.Join(prev, "a.txt"), "hello", when)

	rng := rand.New(rand.NewSource(1))
	if got := Decide(dir, prev, "a.txt", Shallow, 0, rng); got != Link {
		t.Errorf("Decide = %v, want Link", got)
	}
}

func TestDecideCopiesChangedFile(t *testing.T) {
	dir, prev := t.TempDir(), t.TempDir()
	now := time.Now().Truncate(time.Second)
	writeFileAt(t, filepath.Join(dir, "a.txt"), "hello", now)
	writeFileAt(t, filepath.Join(prev, "a.txt"), "hello", now.Add(-time.Hour))

	rng := rand.New(rand.NewSource(1))
	if got := Decide(dir, prev, "a.txt", Shallow, 0, rng); got != Copy {
		t.Errorf("Decide = %v, want Copy", got)
	}
}

func TestDecideNoPreviousAlwaysCopies(t *testing.T) {
	dir := t.TempDir()
	writeFileAt(t, filepath.Join(dir, "a.txt"), "hello", time.Now())

	rng := rand.New(rand.NewSource(1))
	if got := Decide(dir, "", "a.txt", Shallow, 0, rng); got != Copy {
		t.Errorf("Decide = %v, want Copy", got)
	}
}

func TestDecideCopyProbabilityOne(t *testing.T) {
	dir, prev := t.TempDir(), t.TempDir()
	when := time.Now().Truncate(time.Second)
	writeFileAt(t, filepath.Join(dir, "a.txt"), "hello", when)
	writeFileAt(t, filepath.Join(prev, "a.txt"), "hello", when)

	rng := rand.New(rand.NewSource(1))
	if got := Decide(dir, prev, "a.txt", Shallow, 1, rng); got != Copy {
		t.Errorf("Decide with probability 1 = %v, want Copy", got)
	}
}

func TestDeepEqualCatchesContentDriftWithSameSize(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	when := time.Now().Truncate(time.Second)
	writeFileAt(t, a, "aaaa", when)
	writeFileAt(t, b, "bbbb", when)

	if DeepEqual(a, b) {
		t.Error("DeepEqual: want false for differing content of equal size")
	}
}

func TestProbabilityFromHardLinkCount(t *testing.T) {
	tests := []struct {
		h    int
		want float64
	}{
		{0, 0.5}, // clamped to 1
		{1, 0.5},
		{3, 0.25},
		{9, 0.1},
	}
	for _, tc := range tests {
		if got := ProbabilityFromHardLinkCount(tc.h); got != tc.want {
			t.Errorf("ProbabilityFromHardLinkCount(%d) = %v, want %v", tc.h, got, tc.want)
		}
	}
}
