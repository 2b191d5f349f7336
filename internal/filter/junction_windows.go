// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

//go:build windows

package filter

import "os"

// isDirJunction reports whether the reparse point at path is a directory
// junction/mount point as opposed to a symbolic link. Windows represents
// both as ModeSymlink to the Go os package, so this distinguishes them by
// checking whether the target resolves to a directory.
func isDirJunction(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
