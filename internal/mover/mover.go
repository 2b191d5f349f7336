// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package mover migrates a set of snapshots to a new store location by
// re-invoking the snapshot engine once per snapshot with its original
// timestamp, so the new location rebuilds its own hard-link chains
// instead of literally copying the old ones (which would only transfer
// a single inode's worth of savings instead of reconstructing sharing
// relative to the new store).
//
// Grounded on original_source/lib/move_backups.py's move_backups,
// last_n_backups, and backups_since.
package mover

import (
	"fmt"
	"os"
	"time"

	"github.com/creachadair/vintagebackup/internal/clock"
	"github.com/creachadair/vintagebackup/internal/compare"
	"github.com/creachadair/vintagebackup/internal/engine"
	"github.com/creachadair/vintagebackup/internal/snapshot"
	"github.com/creachadair/vintagebackup/internal/timespan"
	"github.com/creachadair/vintagebackup/internal/vbkerrors"
	"github.com/creachadair/vintagebackup/internal/vbklog"
)

// Selection picks which of the old store's snapshots to move. Exactly
// one field should be set; see LastN, Since, and SinceDate.
type Selection struct {
	// LastN moves the newest n snapshots, or every snapshot if All is
	// true.
	LastN int
	All   bool

	// Since moves every snapshot at or after the instant a time span
	// (see internal/timespan) names, relative to Clock.Now().
	Since string

	// SinceDate moves every snapshot at or after this exact instant.
	SinceDate time.Time
}

// Choose resolves a Selection against the snapshots already present at
// oldStore, matching choose_backups_to_move's three mutually exclusive
// modes.
func Choose(oldStore string, sel Selection, now time.Time) ([]snapshot.Snapshot, error) {
	all, err := snapshot.List(oldStore)
	if err != nil {
		return nil, err
	}

	switch {
	case sel.All:
		return all, nil
	case sel.LastN > 0:
		if sel.LastN >= len(all) {
			return all, nil
		}
		return all[len(all)-sel.LastN:], nil
	case sel.Since != "":
		cutoff, err := timespan.Before(sel.Since, now)
		if err != nil {
			return nil, err
		}
		return sinceCutoff(all, cutoff), nil
	case !sel.SinceDate.IsZero():
		return sinceCutoff(all, sel.SinceDate), nil
	default:
		return nil, vbkerrors.Invalid("no snapshot selection specified for move")
	}
}

func sinceCutoff(all []snapshot.Snapshot, cutoff time.Time) []snapshot.Snapshot {
	var chosen []snapshot.Snapshot
	for _, s := range all {
		if !s.When.Before(cutoff) {
			chosen = append(chosen, s)
		}
	}
	return chosen
}

// Move re-creates each snapshot in toMove at newStore, in order, using
// engine.Create with IsBackupMove set and the snapshot's own timestamp
// preserved. It then carries over the old store's recorded source and
// log file. newStore must already exist.
func Move(oldStore, newStore string, toMove []snapshot.Snapshot, clk clock.Clock, log vbklog.Logger) error {
	if log == nil {
		log = vbklog.Nop()
	}
	if clk == nil {
		clk = clock.Real{}
	}

	log.Infof("moving %d snapshot(s) from %s to %s", len(toMove), oldStore, newStore)

	for _, snap := range toMove {
		_, _, err := engine.Create(engine.Options{
			Source:          snap.Path,
			Store:           newStore,
			CompareMode:     compare.Shallow,
			ForceCopy:       false,
			CopyProbability: 0,
			Clock:           clock.Fixed{T: snap.When},
			IsBackupMove:    true,
			Log:             log,
		})
		if err != nil {
			return fmt.Errorf("moving snapshot %s: %w", snap.Path, err)
		}

		// The per-snapshot re-invocation of engine.Create records
		// snap.Path as the moved store's source, since it is itself
		// being treated as "the thing being copied"; that per-iteration
		// record is not the information the new store should keep, so
		// it's removed once the snapshot is staged.
		if err := os.Remove(snapshotInfoFile(newStore)); err != nil && !os.IsNotExist(err) {
			return err
		}
		log.Infof("---------------------")
	}

	info, err := snapshot.ReadInfo(oldStore)
	if err != nil {
		return err
	}
	if info.Source == "" {
		log.Warnf("could not find the recorded source of %s", oldStore)
	} else if err := snapshot.WriteInfo(newStore, snapshot.Info{Source: info.Source, Log: info.Log}); err != nil {
		return err
	}

	return nil
}

func snapshotInfoFile(store string) string {
	return store + string(os.PathSeparator) + snapshot.InfoFileName
}
