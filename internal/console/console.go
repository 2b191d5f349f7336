// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package console renders terminal prompts and menus for interactive
// operations (recovery, purge), and provides a scripted replacement for
// tests so no real terminal is required.
//
// Grounded on original_source/lib/console.py's choose_from_menu,
// cancel_key, plural_noun, and print_run_title; colorized with
// github.com/fatih/color the way other tools in this ecosystem use
// terminal color for emphasis, since original_source only has plain text.
package console

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

// Input is the interactive surface recovery and purge prompt through. A
// real terminal session and a scripted test replay both implement it.
type Input interface {
	// ChooseFromMenu prints choices numbered from 1 and returns the
	// zero-based index of the user's selection.
	ChooseFromMenu(choices []string, prompt string) (int, error)

	// BinaryChoice prompts for one of the given single-letter
	// responses (e.g. "c", "o", "n") and returns the letter chosen.
	BinaryChoice(question string, valid []string) (string, error)
}

// CancelKey names the key combination that sends SIGINT, which varies by
// platform the same way original_source/lib/console.py's cancel_key does.
func CancelKey() string {
	if runtime.GOOS == "darwin" {
		return "Cmd-C"
	}
	return "Ctrl-C"
}

// PluralNoun appends "s" to word unless count is exactly one.
func PluralNoun(count int, word string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, word)
	}
	return fmt.Sprintf("%d %ss", count, word)
}

// Terminal is an Input backed by stdin/stdout, with color used for
// prompts and errors when standard output is a real terminal.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func (t Terminal) reader() *bufio.Reader {
	return bufio.NewReader(t.In)
}

// ChooseFromMenu implements Input.
func (t Terminal) ChooseFromMenu(choices []string, prompt string) (int, error) {
	if len(choices) == 0 {
		return 0, vbkerrors.Invalid("no choices available for %q", prompt)
	}

	width := len(strconv.Itoa(len(choices)))
	for i, choice := range choices {
		fmt.Fprintf(t.Out, "%*d: %s\n", width, i+1, choice)
	}

	consolePrompt := color.CyanString("%s (%s to quit): ", prompt, CancelKey())
	reader := t.reader()
	for {
		fmt.Fprint(t.Out, consolePrompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return 0, err
		}
		if n, convErr := strconv.Atoi(strings.TrimSpace(line)); convErr == nil && n >= 1 && n <= len(choices) {
			return n - 1, nil
		}
		fmt.Fprintf(t.Out, "Enter a number from 1 to %d\n", len(choices))
	}
}

// BinaryChoice implements Input.
func (t Terminal) BinaryChoice(question string, valid []string) (string, error) {
	fmt.Fprintf(t.Out, "Press %s to quit early.\n", CancelKey())
	prompt := color.CyanString("%s [%s]: ", question, strings.Join(valid, "/"))
	reader := t.reader()
	for {
		fmt.Fprint(t.Out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		response := strings.ToLower(strings.TrimSpace(line))
		if response == "" {
			continue
		}
		letter := response[:1]
		for _, v := range valid {
			if v == letter {
				return letter, nil
			}
		}
		fmt.Fprintln(t.Out, "Invalid response")
	}
}

// Scripted is an Input that replays a fixed sequence of answers, for
// deterministic tests of recovery and purge flows. Each call consumes
// one entry; calling past the end of either slice panics with a message
// naming the exhausted script, matching binary_search_recovery's
// "Binary choices for testing exhausted" guard.
type Scripted struct {
	MenuChoices   []int
	BinaryAnswers []string

	menuIndex   int
	binaryIndex int
}

// ChooseFromMenu implements Input.
func (s *Scripted) ChooseFromMenu(choices []string, _ string) (int, error) {
	if s.menuIndex >= len(s.MenuChoices) {
		panic("scripted menu choices exhausted")
	}
	choice := s.MenuChoices[s.menuIndex]
	s.menuIndex++
	if choice < 0 || choice >= len(choices) {
		return 0, vbkerrors.Invalid("scripted menu choice %d out of range", choice)
	}
	return choice, nil
}

// BinaryChoice implements Input.
func (s *Scripted) BinaryChoice(_ string, valid []string) (string, error) {
	if s.binaryIndex >= len(s.BinaryAnswers) {
		panic("scripted binary choices exhausted")
	}
	answer := s.BinaryAnswers[s.binaryIndex]
	s.binaryIndex++
	for _, v := range valid {
		if v == answer {
			return answer, nil
		}
	}
	return "", vbkerrors.Invalid("scripted binary answer %q not among %v", answer, valid)
}
