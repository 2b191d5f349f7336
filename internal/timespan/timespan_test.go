// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

package timespan

import (
	"testing"
	"time"
)

func mustDate(t *testing.T, layout, value string) time.Time {
	t.Helper()
	when, err := time.Parse(layout, value)
	if err != nil {
		t.Fatalf("parsing %q: %v", value, err)
	}
	return when
}

func TestBeforeDaysAndWeeks(t *testing.T) {
	now := mustDate(t, "2006-01-02", "2026-07-31")

	tests := []struct {
		span string
		want string
	}{
		{"7d", "2026-07-24"},
		{"1w", "2026-07-24"},
		{"2w", "2026-07-17"},
		{"  3 D  ", "2026-07-28"},
	}
	for _, tc := range tests {
		got, err := Before(tc.span, now)
		if err != nil {
			t.Fatalf("Before(%q): %v", tc.span, err)
		}
		want := mustDate(t, "2006-01-02", tc.want)
		if !got.Equal(want) {
			t.Errorf("Before(%q) = %s, want %s", tc.span, got, want)
		}
	}
}

func TestBeforeMonthEndClamping(t *testing.T) {
	// March 31 minus one month must clamp to the last day of February.
	now := mustDate(t, "2006-01-02", "2026-03-31")
	got, err := Before("1m", now)
	if err != nil {
		t.Fatalf("Before: %v", err)
	}
	want := mustDate(t, "2006-01-02", "2026-02-28")
	if !got.Equal(want) {
		t.Errorf("Before(1m) = %s, want %s", got, want)
	}
}

func TestBeforeYearLeapClamping(t *testing.T) {
	// Feb 29 2028 minus one year must clamp to Feb 28 2027.
	now := mustDate(t, "2006-01-02", "2028-02-29")
	got, err := Before("1y", now)
	if err != nil {
		t.Fatalf("Before: %v", err)
	}
	want := mustDate(t, "2006-01-02", "2027-02-28")
	if !got.Equal(want) {
		t.Errorf("Before(1y) = %s, want %s", got, want)
	}
}

func TestBeforeInvalid(t *testing.T) {
	now := time.Now()
	for _, span := range []string{"", "x", "3", "-1d", "0d", "3.5d", "3z"} {
		if _, err := Before(span, now); err == nil {
			t.Errorf("Before(%q): want error, got nil", span)
		}
	}
}
