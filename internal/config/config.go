// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package config reads and writes vintagebackup's plain-text
// configuration files: one "Parameter Name: value" pair per line,
// translated into the same long-form flag names the command line
// accepts, so a config file and explicit flags can be mixed freely.
//
// Grounded on original_source/lib/configuration.py's
// read_configuation_file/remove_quotes and lib/config-write.py's
// generate_config. Deliberately NOT YAML, unlike creachadair-snapback's
// own config package: this format's wire format is flat key/value
// text, and staticfile.Open (used for $VAR expansion and consistent
// error wrapping, the same way snapback.go's loadConfig opens its YAML
// file) is the only dependency of that package this format calls for;
// see DESIGN.md for why gopkg.in/yaml.v2 itself has no home here.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/creachadair/staticfile"

	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

// ReadArguments parses a configuration file at path into the sequence
// of command-line-style arguments it represents ("--parameter-name"
// optionally followed by its value), matching
// read_configuation_file's "--flag value" expansion so the result can
// be fed straight into a flag.FlagSet.Parse-style consumer.
func ReadArguments(path string) ([]string, error) {
	f, err := staticfile.Open(path)
	if err != nil {
		return nil, vbkerrors.Missing("configuration file does not exist: %s", path)
	}
	defer f.Close()

	return parseArguments(f)
}

func parseArguments(r io.Reader) ([]string, error) {
	var args []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, vbkerrors.Invalid("invalid configuration line: %q", line)
		}

		parameter := strings.Join(strings.Fields(strings.ToLower(name)), "-")
		if parameter == "config" {
			return nil, vbkerrors.Invalid("the `config` parameter within a configuration file has no effect")
		}
		args = append(args, "--"+parameter)

		if v := removeQuotes(value); v != "" {
			args = append(args, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}
	return args, nil
}

// removeQuotes trims surrounding whitespace, then strips exactly one
// pair of matching double quotes if the whole (trimmed) string is
// wrapped in them. This is how a value with meaningful leading or
// trailing spaces is preserved, per remove_quotes's doctring examples.
func removeQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Setting is one option to be written to a generated configuration
// file: its long-form flag name (with dashes, not underscores) and the
// value that was in effect. Bool settings that are simply present use
// an empty Value.
type Setting struct {
	Name  string
	Value string
}

// pathParameterNames are the settings generate_config always resolves
// to an absolute path before writing.
var pathParameterNames = map[string]bool{
	"user-folder":   true,
	"backup-folder": true,
	"filter":        true,
	"destination":   true,
}

// Generate writes settings to path (via pathutil.UniquePathName, so an
// existing file is never overwritten) as "Parameter Name: value" lines,
// capitalized the way generate_config renders its parameter names, in
// the order given, and returns the path actually written.
func Generate(path string, settings []Setting) (string, error) {
	target := pathutil.UniquePathName(path)

	out, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer out.Close()

	for _, s := range settings {
		value := s.Value
		if pathParameterNames[s.Name] && value != "" {
			abs, err := pathutil.Abs(value)
			if err != nil {
				return "", err
			}
			value = abs
		}

		needsQuotes := strings.TrimSpace(value) != value
		if needsQuotes {
			value = `"` + value + `"`
		}

		line := strings.TrimSpace(fmt.Sprintf("%s: %s", capitalizeParameter(s.Name), value))
		if _, err := fmt.Fprintln(out, line); err != nil {
			return "", err
		}
	}
	return target, nil
}

// capitalizeParameter renders a dashed flag name ("keep-weekly-after")
// as generate_config's capitalized, space-separated parameter name
// ("Keep weekly after").
func capitalizeParameter(name string) string {
	words := strings.Split(name, "-")
	joined := strings.Join(words, " ")
	if joined == "" {
		return joined
	}
	return strings.ToUpper(joined[:1]) + joined[1:]
}

// ParseBool mirrors Python's bool() truthiness for a config value that
// is present with no explicit text, used when a flag's value was
// omitted in the config file because it's a boolean toggle.
func ParseBool(value string) bool {
	if value == "" {
		return true
	}
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
