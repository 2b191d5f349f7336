// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

//go:build !windows

package retention

import "golang.org/x/sys/unix"

// diskFreeBytes reports free bytes available to an unprivileged user on
// the filesystem containing path, matching shutil.disk_usage(...).free.
func diskFreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
