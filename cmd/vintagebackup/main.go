// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Program vintagebackup creates and manages incremental,
// hard-link-deduplicated backups of a single source directory.
//
// For more information about the on-disk layout this tool produces, see
// DESIGN.md in this repository.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/vintagebackup/internal/clock"
	"github.com/creachadair/vintagebackup/internal/compare"
	"github.com/creachadair/vintagebackup/internal/config"
	"github.com/creachadair/vintagebackup/internal/console"
	"github.com/creachadair/vintagebackup/internal/engine"
	"github.com/creachadair/vintagebackup/internal/filter"
	"github.com/creachadair/vintagebackup/internal/missing"
	"github.com/creachadair/vintagebackup/internal/mover"
	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/purge"
	"github.com/creachadair/vintagebackup/internal/recovery"
	"github.com/creachadair/vintagebackup/internal/restore"
	"github.com/creachadair/vintagebackup/internal/retention"
	"github.com/creachadair/vintagebackup/internal/snapshot"
	"github.com/creachadair/vintagebackup/internal/vbklog"
	"github.com/creachadair/vintagebackup/internal/verify"
	"github.com/creachadair/vintagebackup/internal/winsched"
)

const timeFormat = "2006-01-02 15:04:05"

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: %[1]s [options]                      # create a new backup
       %[1]s -recover PATH                  # recover a file or folder
       %[1]s -list DIR                      # list everything backed up from DIR
       %[1]s -move-backup DEST              # migrate backups to a new store
       %[1]s -verify RESULT_DIR             # verify latest backup against source
       %[1]s -restore -destination DIR      # fully restore from a backup
       %[1]s -purge PATH                    # delete a path from every backup
       %[1]s -purge-list DIR                # choose a path under DIR to purge
       %[1]s -delete-only                   # prune old backups without backing up
       %[1]s -preview-filter [FILE]         # show what a filter file would include
       %[1]s -find-missing RESULT_DIR       # list files missing from the source
       %[1]s -generate-config FILE          # write current options to a config file
       %[1]s -generate-windows-scripts DIR  # write Task Scheduler launcher scripts

Options:
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
}

var (
	configFile = flag.String("config", "", "Configuration file")

	userFolder   = flag.String("user-folder", "", "Source directory to back up")
	backupFolder = flag.String("backup-folder", "", "Backup store directory")
	filterFile   = flag.String("filter", "", "Filter file")

	wholeFile       = flag.Bool("whole-file", false, "Compare file contents byte for byte instead of by size/type/mtime")
	noWholeFile     = flag.Bool("no-whole-file", false, "")
	forceCopy       = flag.Bool("force-copy", false, "Copy every file instead of hard-linking unchanged ones")
	noForceCopy     = flag.Bool("no-force-copy", false, "")
	hardLinkCount   = flag.Int("hard-link-count", 0, "Expected average hard-link chain length")
	copyProbability = flag.Float64("copy-probability", -1, "Probability [0,1] of copying an unchanged file anyway")

	freeUp       = flag.String("free-up", "", "Delete oldest backups until this much space is free (e.g. 4GB)")
	deleteAfter  = flag.String("delete-after", "", "Delete backups older than this span (e.g. 6m)")
	maxDeletions = flag.Int("max-deletions", 0, "Maximum backups a single prune pass may delete")
	minRemaining = flag.Int("min-remaining", 1, "Minimum backups that must always remain")

	keepWeeklyAfter  = flag.String("keep-weekly-after", "", "Thin to one per week once older than this span")
	keepMonthlyAfter = flag.String("keep-monthly-after", "", "Thin to one per month once older than this span")
	keepYearlyAfter  = flag.String("keep-yearly-after", "", "Thin to one per year once older than this span")

	deleteFirst   = flag.Bool("delete-first", false, "Prune old backups before creating a new one")
	noDeleteFirst = flag.Bool("no-delete-first", false, "")
	deleteOnly    = flag.Bool("delete-only", false, "Prune old backups without creating a new one")

	recoverPath   = flag.String("recover", "", "Recover a file or folder from a backup")
	listDir       = flag.String("list", "", "List everything backed up from this directory, to choose a recovery target")
	choice        = flag.String("choice", "", "Pre-selected menu choice, mainly for scripted tests")
	search        = flag.Bool("search", false, "Use a binary search of versions instead of a numbered menu")
	moveBackup    = flag.String("move-backup", "", "Move backups to this new store location")
	moveCount     = flag.String("move-count", "", "Number of newest backups to move, or \"all\"")
	moveAge       = flag.String("move-age", "", "Move backups no older than this span")
	moveSince     = flag.String("move-since", "", "Move backups taken on or after this date (YYYY-MM-DD)")
	verifyDir     = flag.String("verify", "", "Compare source against the latest backup, writing results here")
	checksum      = flag.Bool("checksum", false, "Force a checksum manifest pass")
	noChecksum    = flag.Bool("no-checksum", false, "")
	checksumEvery = flag.String("checksum-every", "", "Only refresh the checksum manifest after this span has passed")

	doRestore    = flag.Bool("restore", false, "Fully restore a destination from a chosen backup")
	destination  = flag.String("destination", "", "Restore destination")
	lastBackup   = flag.Bool("last-backup", false, "Restore from the most recent backup")
	chooseBackup = flag.Bool("choose-backup", false, "Restore from a chosen backup")
	deleteExtra  = flag.Bool("delete-extra", false, "Remove files at the destination that are not in the backup")
	keepExtra    = flag.Bool("keep-extra", false, "Keep files at the destination that are not in the backup")

	purgePath    = flag.String("purge", "", "Delete a path from every backup")
	purgeListDir = flag.String("purge-list", "", "Choose a path under this directory to purge from every backup")

	previewFilter = flag.String("preview-filter", "", "Print (or write) which files a filter would include")

	findMissing = flag.String("find-missing", "", "List files present in backups but absent from the source, writing results here")

	generateConfig         = flag.String("generate-config", "", "Write the effective options to a configuration file")
	generateWindowsScripts = flag.String("generate-windows-scripts", "", "Write Windows Task Scheduler launcher scripts")

	logFile      = flag.String("log", "", "Log file")
	errorLogFile = flag.String("error-log", "", "Warnings-and-above log file")
	debug        = flag.Bool("debug", false, "Verbose debug logging")
	verbose      = flag.Bool("v", false, "Echo log output to the console")
	nowOverride  = flag.String("now", "", "Effective current time ("+timeFormat+"; default is wallclock time)")
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	if err := loadConfigArgs(); err != nil {
		fmt.Fprintf(os.Stderr, "Loading configuration: %v\n", err)
		return 1
	}
	flag.Parse()

	logger, cleanup, err := vbklog.New(vbklog.Config{
		LogFile:      *logFile,
		ErrorLogFile: *errorLogFile,
		Debug:        *debug,
		Console:      *verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Setting up logging: %v\n", err)
		return 1
	}
	defer cleanup()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("unexpected error: %v\n%s", r, debug.Stack())
			code = 1
		}
	}()

	if err := dispatch(logger); err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}

// loadConfigArgs prepends the configuration file's arguments (if any)
// ahead of the real command line, so that explicit flags -- which
// flag.Parse applies left to right with each later occurrence winning --
// always override values loaded from a config file.
func loadConfigArgs() error {
	for i, arg := range os.Args[1:] {
		if arg == "--config" || arg == "-config" {
			if i+2 >= len(os.Args) {
				return fmt.Errorf("--config requires a file path")
			}
			path, err := pathutil.Abs(os.Args[i+2])
			if err != nil {
				return err
			}
			configArgs, err := config.ReadArguments(path)
			if err != nil {
				return err
			}
			rest := append([]string{}, os.Args[1:i+1]...)
			rest = append(rest, os.Args[i+3:]...)
			os.Args = append([]string{os.Args[0]}, append(configArgs, rest...)...)
			return nil
		}
	}
	return nil
}

func effectiveNow() (time.Time, error) {
	if *nowOverride == "" {
		return time.Now(), nil
	}
	return time.ParseInLocation(timeFormat, *nowOverride, time.Local)
}

func dispatch(log vbklog.Logger) error {
	now, err := effectiveNow()
	if err != nil {
		return fmt.Errorf("invalid -now value: %w", err)
	}
	clk := clock.Fixed{T: now}

	switch {
	case *generateConfig != "":
		return runGenerateConfig(log)
	case *generateWindowsScripts != "":
		return runGenerateWindowsScripts(log)
	case *recoverPath != "":
		return runRecover(log)
	case *listDir != "":
		return runList(log)
	case *moveBackup != "":
		return runMove(clk, log)
	case *verifyDir != "":
		return runVerify(log)
	case *doRestore:
		return runRestore(log)
	case *purgePath != "":
		return runPurge(log)
	case *purgeListDir != "":
		return runPurgeList(log)
	case *deleteOnly:
		return runDeleteOnly(clk, log)
	case toggleSet(deleteFirst, noDeleteFirst):
		if err := runDeleteOnly(clk, log); err != nil {
			return err
		}
		return runBackup(clk, log)
	case *previewFilter != "" || previewFilterSet():
		return runPreviewFilter()
	case *findMissing != "":
		return runFindMissing(log)
	default:
		return runBackup(clk, log)
	}
}

// previewFilterSet reports whether -preview-filter was passed with no
// value (meaning "print to stdout"), which flag.String alone cannot
// distinguish from "not passed" without this explicit scan.
func previewFilterSet() bool {
	for _, arg := range os.Args[1:] {
		if arg == "--preview-filter" || arg == "-preview-filter" {
			return true
		}
	}
	return false
}

// toggleSet resolves a "--X"/"--no-X" flag pair the way
// original_source/lib/argument_parser.py's toggle_is_set does: the
// negation always wins when both are present.
func toggleSet(positive, negative *bool) bool {
	if *negative {
		return false
	}
	return *positive
}

func requireChoice(name string, flags ...*bool) error {
	set := 0
	for _, f := range flags {
		if *f {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of the %s options must be given", name)
	}
	return nil
}

func openSourceAndStore() (string, string, error) {
	source, err := pathutil.GetExisting(*userFolder, "user's folder")
	if err != nil {
		return "", "", err
	}
	if *backupFolder == "" {
		return "", "", fmt.Errorf("backup folder not specified")
	}
	store, err := pathutil.Abs(*backupFolder)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(store, 0o755); err != nil {
		return "", "", err
	}
	return source, store, nil
}

func loadFilter(source string) (*filter.Scanner, error) {
	if *filterFile == "" {
		return filter.NewScanner(source), nil
	}
	path, err := pathutil.Abs(*filterFile)
	if err != nil {
		return nil, err
	}
	return filter.Load(source, path)
}

// effectiveCopyProbability enforces that exactly one of
// --hard-link-count N or --copy-probability P was given, and converts
// whichever was given into the coin-flip probability compare.Decide
// expects.
func effectiveCopyProbability() (float64, error) {
	if boolCount(*copyProbability >= 0)+boolCount(*hardLinkCount > 0) != 1 {
		return 0, fmt.Errorf("exactly one of --hard-link-count or --copy-probability must be given")
	}
	if *copyProbability >= 0 {
		return *copyProbability, nil
	}
	return compare.ProbabilityFromHardLinkCount(*hardLinkCount), nil
}

func runBackup(clk clock.Clock, log vbklog.Logger) error {
	source, store, err := openSourceAndStore()
	if err != nil {
		return err
	}

	scanner, err := loadFilter(source)
	if err != nil {
		return err
	}

	mode := compare.Shallow
	if toggleSet(wholeFile, noWholeFile) {
		mode = compare.Deep
	}

	linkProbability, err := effectiveCopyProbability()
	if err != nil {
		return err
	}

	path, counts, err := engine.Create(engine.Options{
		Source:          source,
		Store:           store,
		Filter:          scanner,
		CompareMode:     mode,
		ForceCopy:       toggleSet(forceCopy, noForceCopy),
		CopyProbability: linkProbability,
		Clock:           clk,
		Log:             log,
	})
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	log.Infof("new backup: %s (%d linked, %d copied, %d failed)",
		path, counts.Linked, counts.Copied, counts.FailedCopies)

	if err := runChecksumPass(path, log); err != nil {
		log.Warnf("checksum manifest: %v", err)
	}

	return nil
}

func runChecksumPass(snapshotPath string, log vbklog.Logger) error {
	action := engine.PeriodicAction{
		Force: *checksum,
		Skip:  *noChecksum,
		Every: *checksumEvery,
	}
	// The newest manifest in any snapshot of the store marks the last run.
	var lastRun time.Time
	if all, err := snapshot.List(filepath.Dir(filepath.Dir(snapshotPath))); err == nil {
		for i := len(all) - 1; i >= 0; i-- {
			manifest := pathutil.FindUniquePath(filepath.Join(all[i].Path, verify.ChecksumFileName))
			if manifest == "" {
				continue
			}
			if info, err := os.Stat(manifest); err == nil {
				lastRun = info.ModTime()
				break
			}
		}
	}
	should, err := action.ShouldRun(lastRun, time.Now())
	if err != nil || !should {
		return err
	}
	manifest, err := verify.WriteChecksums(snapshotPath)
	if err != nil {
		return err
	}
	log.Infof("wrote checksum manifest: %s", manifest)
	return nil
}

func runDeleteOnly(clk clock.Clock, log vbklog.Logger) error {
	_, store, err := openSourceAndStore()
	if err != nil {
		return err
	}

	freeUpBytes := 0.0
	if *freeUp != "" {
		freeUpBytes, err = pathutil.ParseStorage(*freeUp)
		if err != nil {
			return err
		}
	}

	result, err := retention.Run(retention.Options{
		Store:        store,
		MinRemaining: *minRemaining,
		MaxDeletions: *maxDeletions,
		DeleteAfter:  *deleteAfter,
		FreeUpSpace:  freeUpBytes,
		WeeklyAfter:  *keepWeeklyAfter,
		MonthlyAfter: *keepMonthlyAfter,
		YearlyAfter:  *keepYearlyAfter,
		Clock:        clk,
		Log:          log,
	})
	if err != nil {
		return err
	}
	log.Infof("deleted %s", console.PluralNoun(len(result.Deleted), "backup"))
	return nil
}

func runMove(clk clock.Clock, log vbklog.Logger) error {
	haveCount, haveAge, haveSince := *moveCount != "", *moveAge != "", *moveSince != ""
	if boolCount(haveCount)+boolCount(haveAge)+boolCount(haveSince) != 1 {
		return fmt.Errorf("exactly one of --move-count, --move-age, --move-since must be given")
	}

	oldStore, err := pathutil.GetExisting(*backupFolder, "current backup location")
	if err != nil {
		return err
	}
	newStore, err := pathutil.Abs(*moveBackup)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(newStore, 0o755); err != nil {
		return err
	}

	selection := mover.Selection{}
	switch {
	case haveCount:
		if strings.EqualFold(*moveCount, "all") {
			selection.All = true
		} else {
			n, err := strconv.Atoi(*moveCount)
			if err != nil {
				return fmt.Errorf("--move-count must be a number or \"all\": %w", err)
			}
			selection.LastN = n
		}
	case haveAge:
		selection.Since = *moveAge
	case haveSince:
		sinceDate, err := time.ParseInLocation("2006-01-02", *moveSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --move-since date: %w", err)
		}
		selection.SinceDate = sinceDate
	}

	toMove, err := mover.Choose(oldStore, selection, clk.Now())
	if err != nil {
		return err
	}
	return mover.Move(oldStore, newStore, toMove, clk, log)
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

func runVerify(log vbklog.Logger) error {
	source, store, err := openSourceAndStore()
	if err != nil {
		return err
	}
	scanner, err := loadFilter(source)
	if err != nil {
		return err
	}
	latest, ok, err := snapshot.Previous(store)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no backups found in %s", store)
	}

	report, err := verify.Compare(source, latest.Path, scanner)
	if err != nil {
		return err
	}
	resultDir, err := pathutil.Abs(*verifyDir)
	if err != nil {
		return err
	}
	if err := verify.WriteResults(resultDir, source, latest.Path, report); err != nil {
		return err
	}
	log.Infof("verify: %d matching, %d mismatching, %d errors",
		len(report.Matching), len(report.Mismatching), len(report.Errors))

	if changed, err := verify.VerifyChecksums(latest.Path); err == nil {
		for _, c := range changed {
			log.Warnf("checksum mismatch: %s (recorded %s, now %s)", c.Path, c.Recorded, c.Current)
		}
	}
	return nil
}

func runRestore(log vbklog.Logger) error {
	if err := requireChoice("restore-source", lastBackup, chooseBackup); err != nil {
		return err
	}
	if err := requireChoice("extra-file", deleteExtra, keepExtra); err != nil {
		return err
	}
	if *destination == "" {
		return fmt.Errorf("--destination is required for restoring backups")
	}

	_, store, err := openSourceAndStore()
	if err != nil {
		return err
	}
	dest, err := pathutil.Abs(*destination)
	if err != nil {
		return err
	}

	var snap snapshot.Snapshot
	if *lastBackup {
		found, ok, err := snapshot.Previous(store)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no backups found in %s", store)
		}
		snap = found
	} else {
		all, err := snapshot.List(store)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			return fmt.Errorf("no backups found in %s", store)
		}
		choices := make([]string, len(all))
		for i, s := range all {
			choices[i] = snapshot.Name(s.When)
		}
		term := console.Terminal{In: os.Stdin, Out: os.Stdout}
		index, err := term.ChooseFromMenu(choices, "Backup to restore from")
		if err != nil {
			return err
		}
		snap = all[index]
	}

	return restore.Run(restore.Options{
		Snapshot:    snap.Path,
		Destination: dest,
		DeleteExtra: *deleteExtra,
		Log:         log,
	})
}

func runRecover(log vbklog.Logger) error {
	_, store, err := openSourceAndStore()
	if err != nil {
		return err
	}
	target, err := pathutil.Abs(*recoverPath)
	if err != nil {
		return err
	}
	rel, err := recovery.RelativeToSource(store, target)
	if err != nil {
		return err
	}
	versions, err := recovery.DistinctVersions(store, rel)
	if err != nil {
		return err
	}

	in := interactiveInput()
	if *search {
		return recovery.BinarySearch(in, versions, target)
	}
	return recovery.ChooseFromMenu(in, versions, target)
}

func runList(log vbklog.Logger) error {
	_, store, err := openSourceAndStore()
	if err != nil {
		return err
	}
	target, err := pathutil.Abs(*listDir)
	if err != nil {
		return err
	}
	rel, err := recovery.RelativeToSource(store, target)
	if err != nil {
		return err
	}
	items, err := recovery.SearchDirectory(store, rel)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		log.Infof("nothing backed up from %s", target)
		return nil
	}

	choices := make([]string, len(items))
	for i, item := range items {
		choices[i] = fmt.Sprintf("%s (%s)", item.Name, item.Kind)
	}
	in := interactiveInput()
	index, err := in.ChooseFromMenu(choices, "Recover which item")
	if err != nil {
		return err
	}
	chosenTarget := filepath.Join(target, items[index].Name)
	chosenRel, err := recovery.RelativeToSource(store, chosenTarget)
	if err != nil {
		return err
	}
	versions, err := recovery.DistinctVersions(store, chosenRel)
	if err != nil {
		return err
	}
	return recovery.ChooseFromMenu(in, versions, chosenTarget)
}

func runPurge(log vbklog.Logger) error {
	_, store, err := openSourceAndStore()
	if err != nil {
		return err
	}
	target, err := pathutil.Abs(*purgePath)
	if err != nil {
		return err
	}
	rel, err := recovery.RelativeToSource(store, target)
	if err != nil {
		return err
	}
	return doPurge(store, rel, log)
}

func runPurgeList(log vbklog.Logger) error {
	_, store, err := openSourceAndStore()
	if err != nil {
		return err
	}
	target, err := pathutil.Abs(*purgeListDir)
	if err != nil {
		return err
	}
	rel, err := recovery.RelativeToSource(store, target)
	if err != nil {
		return err
	}
	items, err := recovery.SearchDirectory(store, rel)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		log.Infof("nothing backed up from %s", target)
		return nil
	}

	choices := make([]string, len(items))
	for i, item := range items {
		choices[i] = fmt.Sprintf("%s (%s)", item.Name, item.Kind)
	}
	in := interactiveInput()
	index, err := in.ChooseFromMenu(choices, "Purge which item")
	if err != nil {
		return err
	}
	chosenRel := filepath.ToSlash(filepath.Join(rel, items[index].Name))
	return doPurge(store, chosenRel, log)
}

func doPurge(store, rel string, log vbklog.Logger) error {
	candidates, err := purge.Find(store, rel)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		log.Infof("no backed up copies of %s were found", rel)
		return nil
	}

	in := interactiveInput()
	kinds, err := purge.ChooseKinds(in, candidates)
	if err != nil {
		return err
	}

	deleted, err := purge.Run(candidates, kinds, log)
	if err != nil {
		return err
	}
	log.Infof("deleted %s", console.PluralNoun(deleted, "copy"))

	targetIsDir := false
	for _, c := range candidates {
		if c.Kind == pathutil.KindFolder {
			targetIsDir = true
			break
		}
	}
	log.Infof("to keep this out of future backups, add to the filter file: %s",
		purge.SuggestedFilterLine(rel, targetIsDir))
	return nil
}

func interactiveInput() console.Input {
	if *choice != "" {
		n, err := strconv.Atoi(*choice)
		if err == nil {
			return &console.Scripted{MenuChoices: []int{n - 1}}
		}
		return &console.Scripted{BinaryAnswers: []string{strings.ToLower(*choice)}}
	}
	return console.Terminal{In: os.Stdin, Out: os.Stdout}
}

func runPreviewFilter() error {
	source, err := pathutil.GetExisting(*userFolder, "user's folder")
	if err != nil {
		return err
	}
	scanner, err := loadFilter(source)
	if err != nil {
		return err
	}

	out := os.Stdout
	target := *previewFilter
	if target != "" {
		path, err := pathutil.Abs(target)
		if err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	currentDir := ""
	return scanner.Walk(func(relPath string) error {
		dir := filepath.Dir(relPath)
		if dir != currentDir {
			fmt.Fprintln(out, dir)
			currentDir = dir
		}
		fmt.Fprintf(out, "    %s\n", filepath.Base(relPath))
		return nil
	})
}

func runFindMissing(log vbklog.Logger) error {
	source, store, err := openSourceAndStore()
	if err != nil {
		return err
	}
	scanner, err := loadFilter(source)
	if err != nil {
		return err
	}
	entries, err := missing.Find(source, store, scanner, log)
	if err != nil {
		return err
	}
	resultDir, err := pathutil.Abs(*findMissing)
	if err != nil {
		return err
	}
	path, err := missing.WriteReport(resultDir, store, entries)
	if err != nil {
		return err
	}
	log.Infof("wrote %s (%s)", path, console.PluralNoun(len(entries), "missing file"))
	return nil
}

func runGenerateConfig(log vbklog.Logger) error {
	settings := currentSettings()
	path, err := config.Generate(*generateConfig, settings)
	if err != nil {
		return err
	}
	log.Infof("generated configuration file: %s", path)
	return nil
}

func runGenerateWindowsScripts(log vbklog.Logger) error {
	binaryPath, err := os.Executable()
	if err != nil {
		return err
	}
	settings := currentSettings()
	result, err := winsched.Generate(*generateWindowsScripts, binaryPath, settings, log)
	if err != nil {
		return err
	}
	log.Infof("generated: %s, %s, %s", result.ConfigFile, result.BatchFile, result.VBScript)
	return nil
}

// currentSettings reflects every flag the user has actually set (by
// walking the already-parsed FlagSet) into config.Setting values, the
// Go analogue of generate_config's "serialize the effective argparse
// namespace" behavior.
func currentSettings() []config.Setting {
	var settings []config.Setting
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" || f.Name == "generate-config" || f.Name == "generate-windows-scripts" {
			return
		}
		value := f.Value.String()
		if value == "false" {
			return
		}
		if value == "true" {
			value = ""
		}
		settings = append(settings, config.Setting{Name: f.Name, Value: value})
	})
	return settings
}
