// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package filter implements the backup-set filter engine: an ordered list
// of "+"/"-"/"#" rules, read from a filter file, that toggles each
// filesystem entry's inclusion state as it walks a source tree.
//
// Grounded on original_source/lib/backup_set.py's Backup_Set class,
// generalized from config/match.go (which compiles
// tarsnap-style globs to a regexp; this version uses doublestar, already
// in the pack's dependency surface, since this format's patterns are
// plain "**"-style globs rather than tarsnap's brace-expansion dialect).
package filter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

// A Rule is one line of a filter file: a sign ('+' to include, '-' to
// exclude) and the glob pattern it applies to, relative to the source
// root. Comment lines ('#') are dropped during parsing and never become
// Rules.
type Rule struct {
	Line    int
	Sign    byte
	Pattern string // glob pattern, relative to the source root, slash-separated
}

func (r Rule) String() string {
	return fmt.Sprintf("%c%s", r.Sign, r.Pattern)
}

// A Scanner walks a source tree applying an ordered set of Rules to decide
// which regular files and symbolic links to include. The zero Scanner (no
// rules loaded) includes all of them and excludes junctions.
type Scanner struct {
	root  string
	rules []Rule
	used  map[int]bool
}

// NewScanner builds a Scanner rooted at root with no filter rules.
func NewScanner(root string) *Scanner {
	return &Scanner{root: root, used: map[int]bool{}}
}

// Load reads filter rules from path, a plain text file where each
// non-blank line begins with '+', '-', or '#' (comment). Patterns are
// resolved relative to the scanner's root and must stay inside it.
func Load(root, path string) (*Scanner, error) {
	s := NewScanner(root)
	if path == "" {
		return s, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening filter file: %w", err)
	}
	defer f.Close()

	if err := s.parse(f); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scanner) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		sign := line[0]
		if sign != '+' && sign != '-' && sign != '#' {
			return vbkerrors.Invalid(
				"line #%d (%s): the first symbol of each line in the filter file must be -, +, or #",
				lineNumber, line)
		}
		if sign == '#' {
			continue
		}

		rest := strings.TrimSpace(line[1:])
		// An absolute pattern discards the source root entirely, the way
		// pathlib's "/" operator does when its right side is already
		// absolute; only the joined path's containment in the source
		// root matters, not whether it was spelled absolute or relative.
		var abs string
		if filepath.IsAbs(rest) {
			abs = filepath.Clean(rest)
		} else {
			abs = filepath.Clean(filepath.Join(s.root, rest))
		}
		relToRoot, err := filepath.Rel(s.root, abs)
		if err != nil || relToRoot == ".." || strings.HasPrefix(relToRoot, ".."+string(filepath.Separator)) {
			return vbkerrors.Invalid(
				"line #%d (%s): filter looks at paths outside the source folder", lineNumber, line)
		}
		cleaned := filepath.ToSlash(relToRoot)

		s.rules = append(s.rules, Rule{Line: lineNumber, Sign: sign, Pattern: cleaned})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading filter file: %w", err)
	}
	return nil
}

// Rules returns the parsed rule set in file order.
func (s *Scanner) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Includes reports whether the regular file at absPath (an absolute path
// beneath the scanner's root) should be backed up, applying every rule
// whose pattern matches in file order. A path's initial state is included
// unless it is a junction (Windows reparse point acting as a directory
// mount), which is excluded by default.
func (s *Scanner) Includes(absPath string) bool {
	rel, err := filepath.Rel(s.root, absPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	included := !isJunction(absPath)
	for _, rule := range s.rules {
		shouldInclude := rule.Sign == '+'
		if included == shouldInclude {
			continue
		}
		matched, err := doublestar.Match(rule.Pattern, rel)
		if err != nil || !matched {
			continue
		}
		s.markUsed(rule.Line)
		included = shouldInclude
	}
	return included
}

func (s *Scanner) markUsed(line int) {
	if s.used == nil {
		s.used = map[int]bool{}
	}
	s.used[line] = true
}

// UnusedRules returns the rules that matched no path during the scan just
// completed, in file order, so the caller can warn the user the way
// original_source/lib/backup_set.py's log_unused_lines does.
func (s *Scanner) UnusedRules() []Rule {
	var unused []Rule
	for _, rule := range s.rules {
		if !s.used[rule.Line] {
			unused = append(unused, rule)
		}
	}
	return unused
}

// Walk visits every regular file and symbolic link beneath the scanner's
// root that Includes accepts, calling visit with its path relative to root. Only
// files are matched against rules; directories are always descended into
// (a directory can never be "excluded" on its own; only files are
// matched).
func (s *Scanner) Walk(visit func(relPath string) error) error {
	return filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == s.root {
			return nil
		}
		if d.IsDir() {
			if isJunction(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&os.ModeSymlink == 0 {
			return nil
		}
		if !s.Includes(path) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		return visit(filepath.ToSlash(rel))
	})
}

// isJunction reports whether path is a Windows directory junction. On
// platforms without reparse-point semantics this is always false; the
// real check lives in the platform-specific junction_*.go files.
func isJunction(path string) bool {
	return pathutil.Classify(path) == pathutil.KindSymlink && isDirJunction(path)
}
