// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFormatBytesParseStorageRoundTrip(t *testing.T) {
	for _, n := range []float64{1, 999, 1000, 12345, 1_500_000, 999_999_999} {
		text, err := FormatBytes(n)
		if err != nil {
			t.Fatalf("FormatBytes(%v): %v", n, err)
		}
		got, err := ParseStorage(text)
		if err != nil {
			t.Fatalf("ParseStorage(%q): %v", text, err)
		}
		// Four significant figures bounds the relative error.
		if diff := got - n; diff > n*0.001 || diff < -n*0.001 {
			t.Errorf("round trip for %v via %q produced %v, want close to %v", n, text, got, n)
		}
	}
}

func TestFormatBytesZeroAndNegative(t *testing.T) {
	text, err := FormatBytes(0)
	if err != nil || text != "0.000 B" {
		t.Errorf("FormatBytes(0) = %q, %v, want \"0.000 B\", nil", text, err)
	}
	if _, err := FormatBytes(-1); err == nil {
		t.Error("FormatBytes(-1): want error")
	}
}

func TestParseStorageAcceptsPrefixesAndWhitespace(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"100", 100},
		{"152 kB", 152_000},
		{"123gb", 123_000_000_000},
		{"1 M", 1_000_000},
	}
	for _, tc := range tests {
		got, err := ParseStorage(tc.text)
		if err != nil {
			t.Errorf("ParseStorage(%q): %v", tc.text, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseStorage(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestParseStorageRejectsGarbage(t *testing.T) {
	for _, text := range []string{"", "kB", "12.", "12xyz"} {
		if _, err := ParseStorage(text); err == nil {
			t.Errorf("ParseStorage(%q): want error", text)
		}
	}
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(file, link); err != nil {
		t.Fatal(err)
	}

	if got := Classify(dir); got != KindFolder {
		t.Errorf("Classify(dir) = %v, want %v", got, KindFolder)
	}
	if got := Classify(file); got != KindFile {
		t.Errorf("Classify(file) = %v, want %v", got, KindFile)
	}
	if got := Classify(link); got != KindSymlink {
		t.Errorf("Classify(link) = %v, want %v", got, KindSymlink)
	}
	if got := Classify(filepath.Join(dir, "missing")); got != KindUnknown {
		t.Errorf("Classify(missing) = %v, want %v", got, KindUnknown)
	}
}

func TestUniquePathName(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "report.txt")

	if got := UniquePathName(base); got != base {
		t.Errorf("UniquePathName on a fresh path = %q, want %q", got, base)
	}

	if err := os.WriteFile(base, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	want1 := filepath.Join(dir, "report.1.txt")
	if got := UniquePathName(base); got != want1 {
		t.Errorf("UniquePathName after one collision = %q, want %q", got, want1)
	}

	if err := os.WriteFile(want1, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	want2 := filepath.Join(dir, "report.2.txt")
	if got := UniquePathName(base); got != want2 {
		t.Errorf("UniquePathName after two collisions = %q, want %q", got, want2)
	}
}

func TestFindUniquePath(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "manifest.txt")

	if got := FindUniquePath(base); got != "" {
		t.Errorf("FindUniquePath on an empty directory = %q, want \"\"", got)
	}

	for _, name := range []string{"manifest.txt", "manifest.1.txt", "manifest.3.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	want := filepath.Join(dir, "manifest.3.txt")
	if got := FindUniquePath(base); got != want {
		t.Errorf("FindUniquePath = %q, want %q (the highest-numbered sibling)", got, want)
	}
}

func TestGetExistingMissing(t *testing.T) {
	if _, err := GetExisting("", "source folder"); err == nil {
		t.Error("GetExisting(\"\"): want error")
	}
	if _, err := GetExisting(filepath.Join(t.TempDir(), "nope"), "source folder"); err == nil {
		t.Error("GetExisting on a missing path: want error")
	}
}
