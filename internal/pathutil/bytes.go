// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package pathutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

// storagePrefixes is the SI prefix ladder used by FormatBytes and
// ParseStorage, in increasing order of magnitude. This mirrors
// original_source/lib/filesystem.py's storage_prefixes list, generalized
// from snapback.go's H() (which only went up to "T").
var storagePrefixes = []string{"", "k", "M", "G", "T", "P", "E", "Z", "Y", "R", "Q"}

// FormatBytes renders n with four significant figures and an SI-style byte
// unit, e.g. FormatBytes(12345) == "12.35 kB". Zero is "0.000 B" and
// negative values are rejected. For any n >= 1, ParseStorage(FormatBytes(n))
// equals n to four significant figures (12345 comes back as 12350).
//
// snapback.go's own H() does the same kind of ladder lookup
// for log output, but with fixed one-decimal precision and no round-trip
// requirement; this version is kept on that hand-rolled shape rather than
// github.com/dustin/go-humanize precisely because the round-trip with
// ParseStorage demands exact control over the number of decimal digits at
// every magnitude (see DESIGN.md).
func FormatBytes(n float64) (string, error) {
	if n < 0 {
		return "", vbkerrors.Invalid("invalid byte count: %v", n)
	}
	if n < 1 {
		return "0.000 B", nil
	}

	const step = 1000.0
	index := int(math.Log10(n) / math.Log10(step))
	if index >= len(storagePrefixes) {
		index = len(storagePrefixes) - 1
	}
	scale := math.Pow(step, float64(index))
	scaled := n / scale

	decimals := 4 - (int(math.Floor(math.Log10(scaled))) + 1)
	if decimals < 0 {
		decimals = 0
	}
	return fmt.Sprintf("%.*f %sB", decimals, scaled, storagePrefixes[index]), nil
}

// ParseStorage parses a byte count written with an optional SI prefix and
// optional trailing B/b, case- and whitespace-insensitive: "100", "152 kB",
// "123gb" all parse.
func ParseStorage(text string) (float64, error) {
	original := text
	text = strings.ToUpper(strings.Join(strings.Fields(text), ""))
	text = strings.TrimSuffix(text, "B")
	if text == "" {
		return 0, vbkerrors.Invalid("invalid storage space value: %q", original)
	}

	number, prefix := text, ""
	last := text[len(text)-1]
	if last < '0' || last > '9' {
		if last == '.' {
			return 0, vbkerrors.Invalid("invalid storage space value: %q", original)
		}
		number, prefix = text[:len(text)-1], string(last)
	}

	index := -1
	for i, p := range storagePrefixes {
		if i == 0 {
			continue // the empty prefix never matches a single letter
		}
		if strings.EqualFold(p, prefix) {
			index = i
			break
		}
	}
	if prefix == "" {
		index = 0
	}
	if index < 0 {
		return 0, vbkerrors.Invalid("invalid storage space value: %q", original)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, vbkerrors.Invalid("invalid storage space value: %q", original)
	}

	multiplier := math.Pow(1000, float64(index))
	return value * multiplier, nil
}
