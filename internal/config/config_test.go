// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadArgumentsBasic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.txt")
	content := "# a comment\n" +
		"User folder: /home/user\n" +
		"keep weekly after: 1m\n" +
		"Copy Probability: \" 0.5 \"\n" +
		"\n" +
		"Force Copy:\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadArguments(path)
	if err != nil {
		t.Fatalf("ReadArguments: %v", err)
	}
	want := []string{
		"--user-folder", "/home/user",
		"--keep-weekly-after", "1m",
		"--copy-probability", " 0.5 ",
		"--force-copy",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadArguments mismatch (-want +got):\n%s", diff)
	}
}

func TestReadArgumentsRejectsConfigParameter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.txt")
	if err := os.WriteFile(path, []byte("Config: other.txt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadArguments(path); err == nil {
		t.Error("ReadArguments: want error for a nested `config` parameter")
	}
}

func TestReadArgumentsRejectsMissingColon(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.txt")
	if err := os.WriteFile(path, []byte("not a valid line\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadArguments(path); err == nil {
		t.Error("ReadArguments: want error for a line without a colon")
	}
}

func TestReadArgumentsMissingFile(t *testing.T) {
	if _, err := ReadArguments(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("ReadArguments: want error for a missing file")
	}
}

func TestGenerateWritesCapitalizedLines(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "generated.txt")

	written, err := Generate(target, []Setting{
		{Name: "keep-weekly-after", Value: "1m"},
		{Name: "force-copy", Value: ""},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if written != target {
		t.Fatalf("Generate wrote %q, want %q", written, target)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	want := "Keep weekly after: 1m\nForce copy:\n"
	if string(data) != want {
		t.Errorf("Generate content = %q, want %q", data, want)
	}
}

func TestGenerateAvoidsOverwriting(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "generated.txt")
	if err := os.WriteFile(target, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	written, err := Generate(target, []Setting{{Name: "force-copy"}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if written == target {
		t.Error("Generate overwrote an existing file instead of picking a unique name")
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "existing" {
		t.Error("Generate modified the pre-existing file's contents")
	}
}

func TestGenerateResolvesPathParametersAbsolute(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "generated.txt")
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := Generate(target, []Setting{{Name: "user-folder", Value: "relative"}}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	value := strings.TrimSpace(string(data)[len("User folder: "):])
	if !filepath.IsAbs(value) {
		t.Errorf("Generate did not resolve user-folder to an absolute path: %q", data)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"true", true},
		{"false", false},
		{"garbage", false},
	}
	for _, tc := range tests {
		if got := ParseBool(tc.value); got != tc.want {
			t.Errorf("ParseBool(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
