// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

//go:build windows

package retention

import "golang.org/x/sys/windows"

// diskFreeBytes reports free bytes available on the volume containing
// path, matching shutil.disk_usage(...).free.
func diskFreeBytes(path string) (uint64, error) {
	var freeBytesAvailable uint64
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, nil, nil); err != nil {
		return 0, err
	}
	return freeBytesAvailable, nil
}
