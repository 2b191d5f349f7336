// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

// Package winsched generates the three files needed to run backups
// unattended under Windows Task Scheduler: a configuration file holding
// the options the scheduled run should use, a batch script that invokes
// this module's binary with that configuration, and a VBScript wrapper
// that launches the batch script with its console window hidden.
//
// Grounded on original_source/lib/automation.py's
// generate_windows_scripts.
package winsched

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/creachadair/vintagebackup/internal/config"
	"github.com/creachadair/vintagebackup/internal/pathutil"
	"github.com/creachadair/vintagebackup/internal/vbklog"
)

// Result names the three files Generate wrote.
type Result struct {
	ConfigFile string
	BatchFile  string
	VBScript   string
}

// Generate writes config.txt, batch_script.bat, and vb_script.vbs into
// destination, where settings are the options the scheduled run should
// use and binaryPath is the absolute path of the vintagebackup binary
// Task Scheduler should invoke (the equivalent of automation.py
// resolving its own vintagebackup.py location via __file__).
func Generate(destination, binaryPath string, settings []config.Setting, log vbklog.Logger) (Result, error) {
	if log == nil {
		log = vbklog.Nop()
	}

	dest, err := pathutil.Abs(destination)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return Result{}, err
	}

	configPath, err := config.Generate(filepath.Join(dest, "config.txt"), settings)
	if err != nil {
		return Result{}, err
	}
	log.Infof("Generated configuration file: %s", configPath)

	batchPath := pathutil.UniquePathName(filepath.Join(dest, "batch_script.bat"))
	batchContents := fmt.Sprintf("\"%s\" --config \"%s\"\r\n", binaryPath, configPath)
	if err := os.WriteFile(batchPath, []byte(batchContents), 0o644); err != nil {
		return Result{}, err
	}
	log.Infof("Generated batch script: %s", batchPath)

	vbsPath := pathutil.UniquePathName(filepath.Join(dest, "vb_script.vbs"))
	vbsContents := fmt.Sprintf(
		"Dim Shell\r\n"+
			"Set Shell = CreateObject(\"WScript.Shell\")\r\n"+
			"Shell.Run \"\"\"%s\"\"\", 0, true\r\n"+
			"Set Shell = Nothing\r\n",
		batchPath)
	if err := os.WriteFile(vbsPath, []byte(vbsContents), 0o644); err != nil {
		return Result{}, err
	}
	log.Infof("Generated VB script: %s", vbsPath)

	return Result{ConfigFile: configPath, BatchFile: batchPath, VBScript: vbsPath}, nil
}
