// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package retention prunes old snapshots out of a backup store by three
// independent criteria: absolute age, free-space shortfall, and
// rarefaction (keeping only so many weekly/monthly/yearly snapshots once
// they age past their respective cutoffs). The most recent snapshot is
// never deleted, and every criterion is bounded by a minimum number of
// remaining snapshots.
//
// Grounded on original_source/lib/backup_deletion.py. That file's
// delete_too_frequent_backups reuses args.keep_monthly_after for both
// the monthly and yearly bands; this package takes three distinct
// cutoffs instead.
package retention

import (
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/creachadair/vintagebackup/internal/clock"
	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/snapshot"
	"github.com/creachadair/vintagebackup/internal/timespan"
	"github.com/creachadair/vintagebackup/internal/vbkerrors"
	"github.com/creachadair/vintagebackup/internal/vbklog"
)

// Options configures a pruning pass over one store.
type Options struct {
	Store string

	// MinRemaining is the minimum number of snapshots that must survive
	// every criterion combined; it is clamped to at least 1 so the most
	// recent snapshot is never removed.
	MinRemaining int

	// MaxDeletions caps the total number of snapshots this pass may
	// remove across all criteria; zero means unbounded (still subject
	// to MinRemaining).
	MaxDeletions int

	// DeleteAfter, if set, removes snapshots older than this time span
	// (see internal/timespan), subject to MinRemaining.
	DeleteAfter string

	// FreeUpSpace, if set, removes the oldest snapshots until this many
	// free bytes exist on the store's filesystem, subject to
	// MinRemaining. Use pathutil.ParseStorage to produce this value
	// from a "500 GB"-style string.
	FreeUpSpace float64

	// WeeklyAfter, MonthlyAfter, YearlyAfter bound rarefaction: once a
	// snapshot is older than the given span, only the newest snapshot
	// within each successive window of that granularity is kept.
	WeeklyAfter  string
	MonthlyAfter string
	YearlyAfter  string

	DiskFree func(path string) (uint64, error) // overridable for tests

	// Clock supplies "now" for age and rarefaction cutoffs; defaults to
	// clock.Real.
	Clock clock.Clock

	Log vbklog.Logger
}

// Result reports what a pruning pass removed.
type Result struct {
	Deleted []snapshot.Snapshot
}

// Run applies rarefaction, free-space, and age pruning, in that order,
// matching delete_old_backups' ordering of
// delete_too_frequent_backups/delete_oldest_backups_for_space/
// delete_backups_older_than.
func Run(opts Options) (Result, error) {
	if opts.Log == nil {
		opts.Log = vbklog.Nop()
	}
	if opts.DiskFree == nil {
		opts.DiskFree = diskFreeBytes
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if err := checkBandOrder(opts, opts.Clock.Now()); err != nil {
		return Result{}, err
	}

	min := opts.MinRemaining
	if min < 1 {
		min = 1
	}

	all, err := snapshot.List(opts.Store)
	if err != nil {
		return Result{}, err
	}
	budget := len(all) - min
	if opts.MaxDeletions > 0 && opts.MaxDeletions < budget {
		budget = opts.MaxDeletions
	}

	var deleted []snapshot.Snapshot

	removeByRarefaction, err := rarefy(opts, min, budget-len(deleted))
	if err != nil {
		return Result{}, err
	}
	deleted = append(deleted, removeByRarefaction...)

	removeForSpace, err := freeUpSpace(opts, min, budget-len(deleted))
	if err != nil {
		return Result{}, err
	}
	deleted = append(deleted, removeForSpace...)

	removeByAge, err := deleteOlderThan(opts, min, budget-len(deleted))
	if err != nil {
		return Result{}, err
	}
	deleted = append(deleted, removeByAge...)

	return Result{Deleted: deleted}, nil
}

// band is one rarefaction granularity: snapshots older than After are
// thinned so that only the newest one within each Period-wide window
// survives.
type band struct {
	name   string
	after  string
	period string
}

// checkBandOrder enforces that configured bands grow strictly less
// frequent from weekly to monthly to yearly: each band's cutoff must
// reach further into the past than the previous configured band's,
// matching check_time_span_parameters's requirement that
// keep-weekly-after, keep-monthly-after, and keep-yearly-after name
// strictly increasing spans. Bands left unset are skipped.
func checkBandOrder(opts Options, now time.Time) error {
	var lastCutoff time.Time
	var lastName string
	have := false
	for _, b := range []band{
		{"weekly", opts.WeeklyAfter, "7d"},
		{"monthly", opts.MonthlyAfter, "1m"},
		{"yearly", opts.YearlyAfter, "1y"},
	} {
		if b.after == "" {
			continue
		}
		cutoff, err := timespan.Before(b.after, now)
		if err != nil {
			return err
		}
		if have && !cutoff.Before(lastCutoff) {
			return vbkerrors.Invalid(
				"--keep-%s-after must specify a longer span than --keep-%s-after", b.name, lastName)
		}
		lastCutoff, lastName, have = cutoff, b.name, true
	}
	return nil
}

func rarefy(opts Options, minRemaining, budget int) ([]snapshot.Snapshot, error) {
	if budget <= 0 {
		return nil, nil
	}

	var deleted []snapshot.Snapshot
	now := opts.Clock.Now()
	for _, b := range []band{
		{"weekly", opts.WeeklyAfter, "7d"},
		{"monthly", opts.MonthlyAfter, "1m"},
		{"yearly", opts.YearlyAfter, "1y"},
	} {
		if b.after == "" {
			continue
		}
		cutoff, err := timespan.Before(b.after, now)
		if err != nil {
			return nil, err
		}

		all, err := snapshot.List(opts.Store)
		if err != nil {
			return nil, err
		}
		var old []snapshot.Snapshot
		for _, s := range all {
			if s.When.Before(cutoff) {
				old = append(old, s)
			}
		}

		// Walk from the newest survivor of this band backward: it anchors
		// a period-wide window, and any older snapshot still falling
		// inside that window is redundant and gets deleted. A snapshot
		// that falls outside the window becomes the new anchor.
		for len(old) > 1 {
			if len(deleted) >= budget {
				return deleted, nil
			}
			last := len(old) - 1
			anchor := old[last]
			candidate := old[last-1]
			earliest, err := timespan.Before(b.period, anchor.When)
			if err != nil {
				return nil, err
			}
			if candidate.When.Before(earliest) {
				old = old[:last]
			} else {
				opts.Log.Infof("deleting snapshot (%s) %s", b.name, candidate.Path)
				if err := deleteSnapshot(candidate); err != nil {
					return nil, err
				}
				deleted = append(deleted, candidate)
				old = append(old[:last-1], old[last])
			}

			if total, _ := countRemaining(opts.Store); total <= minRemaining {
				return deleted, nil
			}
		}
	}
	return deleted, nil
}

func freeUpSpace(opts Options, minRemaining, budget int) ([]snapshot.Snapshot, error) {
	if opts.FreeUpSpace <= 0 || budget <= 0 {
		return nil, nil
	}

	opts.Log.Infof("freeing space until at least %s is available", humanize.Bytes(uint64(opts.FreeUpSpace)))

	stop := func() (bool, error) {
		free, err := opts.DiskFree(opts.Store)
		if err != nil {
			return false, err
		}
		if float64(free) > opts.FreeUpSpace {
			opts.Log.Infof("%s free, target reached", humanize.Bytes(free))
			return true, nil
		}
		return false, nil
	}

	return deleteUntil(opts, minRemaining, budget, func(s snapshot.Snapshot) (bool, error) {
		return stop()
	})
}

func deleteOlderThan(opts Options, minRemaining, budget int) ([]snapshot.Snapshot, error) {
	if opts.DeleteAfter == "" || budget <= 0 {
		return nil, nil
	}
	cutoff, err := timespan.Before(opts.DeleteAfter, opts.Clock.Now())
	if err != nil {
		return nil, err
	}
	return deleteUntil(opts, minRemaining, budget, func(s snapshot.Snapshot) (bool, error) {
		return !s.When.Before(cutoff), nil
	})
}

// deleteUntil removes the oldest surviving snapshots one at a time until
// stop reports true for the next candidate, MinRemaining is reached, or
// budget is exhausted.
func deleteUntil(
	opts Options, minRemaining, budget int, stop func(snapshot.Snapshot) (bool, error),
) ([]snapshot.Snapshot, error) {
	var deleted []snapshot.Snapshot
	for len(deleted) < budget {
		all, err := snapshot.List(opts.Store)
		if err != nil {
			return nil, err
		}
		if len(all) <= minRemaining {
			return deleted, nil
		}
		oldest := all[0]
		done, err := stop(oldest)
		if err != nil {
			return nil, err
		}
		if done {
			return deleted, nil
		}
		opts.Log.Infof("deleting oldest snapshot: %s", oldest.Path)
		if err := deleteSnapshot(oldest); err != nil {
			return nil, err
		}
		deleted = append(deleted, oldest)
	}
	return deleted, nil
}

func countRemaining(store string) (int, error) {
	all, err := snapshot.List(store)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// deleteSnapshot removes a snapshot folder and, if that empties its year
// folder, removes the year folder too, matching delete_single_backup.
func deleteSnapshot(s snapshot.Snapshot) error {
	if err := os.RemoveAll(s.Path); err != nil {
		return err
	}
	yearFolder := parentDir(s.Path)
	_ = os.Remove(yearFolder) // only succeeds if now empty
	return nil
}

func parentDir(path string) string {
	abs, err := pathutil.Abs(path + "/..")
	if err != nil {
		return path
	}
	return abs
}
