// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package timespan parses the "Nd/Nw/Nm/Ny" time spans used throughout the
// configuration file and command line (retention age cutoffs, rarefaction
// band starts) into an absolute instant relative to a reference time.
//
// Grounded on original_source/lib/datetime_calculations.py's
// parse_time_span_to_timepoint/months_ago/fix_end_of_month, generalized
// from config/interval.go (which parses a free-standing
// duration rather than "N units ago from now").
package timespan

import (
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/vintagebackup/internal/vbkerrors"
)

// Before returns the instant that is span before now. Days and weeks are
// exact durations; months and years are calendar arithmetic that clamps
// the day of month to the last valid day when the naive subtraction would
// overflow (e.g. Mar 31 minus 1 month is Feb 28 or Feb 29).
//
// span is case-insensitive, ignores internal whitespace, and must be a
// positive integer followed by exactly one of d, w, m, y. Any other form
// returns an *vbkerrors.InvalidArgument.
func Before(span string, now time.Time) (time.Time, error) {
	trimmed := strings.ToLower(strings.Join(strings.Fields(span), ""))
	if trimmed == "" {
		return time.Time{}, vbkerrors.Invalid("invalid time span: %q", span)
	}

	unit := trimmed[len(trimmed)-1]
	numberText := trimmed[:len(trimmed)-1]
	number, err := strconv.Atoi(numberText)
	if err != nil {
		return time.Time{}, vbkerrors.Invalid("invalid number in time span (must be a whole number): %q", span)
	}
	if number < 1 {
		return time.Time{}, vbkerrors.Invalid("invalid number in time span (must be positive): %q", span)
	}

	switch unit {
	case 'd':
		return now.AddDate(0, 0, -number), nil
	case 'w':
		return now.AddDate(0, 0, -7*number), nil
	case 'm':
		return monthsAgo(now, number), nil
	case 'y':
		return fixEndOfMonth(now.Year()-number, now.Month(), now.Day(), now), nil
	default:
		return time.Time{}, vbkerrors.Invalid("invalid time span (valid units: d, w, m, y): %q", span)
	}
}

// monthsAgo returns now shifted back by monthCount calendar months, keeping
// the day of month unless fixEndOfMonth must clamp it.
func monthsAgo(now time.Time, monthCount int) time.Time {
	month := int(now.Month()) - 1 - (monthCount % 12)
	year := now.Year() - (monthCount / 12)
	if month < 0 {
		month += 12
		year--
	}
	return fixEndOfMonth(year, time.Month(month+1), now.Day(), now)
}

// fixEndOfMonth builds a date from year/month/day, walking the day
// backwards until it lands on a real day in that month (e.g. day 31 of a
// 30-day month becomes day 30). month is always already normalized to
// 1-12 by its callers, so the only way time.Date can overflow here is by
// day. The time-of-day and location of tmpl are preserved.
func fixEndOfMonth(year int, month time.Month, day int, tmpl time.Time) time.Time {
	for {
		candidate := time.Date(year, month, day,
			tmpl.Hour(), tmpl.Minute(), tmpl.Second(), tmpl.Nanosecond(), tmpl.Location())
		if candidate.Month() == month {
			return candidate
		}
		day--
	}
}
