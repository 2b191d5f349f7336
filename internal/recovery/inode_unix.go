// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

//go:build !windows

package recovery

import (
	"os"
	"syscall"
)

// platformInode extracts the inode number backing info, used to
// recognize that two snapshots share a hard-linked copy of a file. path
// is unused on platforms where the inode is already in the os.FileInfo.
func platformInode(path string, info os.FileInfo) (uint64, bool) {
	_ = path
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(stat.Ino), true
}
