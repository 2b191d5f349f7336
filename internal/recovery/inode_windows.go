// Copyright (C) 2018 Michael J. Fromberger. All Rights Reserved.

//go:build windows

package recovery

import (
	"os"

	"golang.org/x/sys/windows"
)

// platformInode extracts the NTFS file index for the file at path (the
// closest Windows equivalent of a Unix inode number), used to recognize
// that two snapshots share a hard-linked copy of a file.
func platformInode(path string, _ os.FileInfo) (uint64, bool) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, false
	}
	h, err := windows.CreateFile(
		pathPtr, windows.GENERIC_READ, windows.FILE_SHARE_READ, nil,
		windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return 0, false
	}
	defer windows.CloseHandle(h)

	var data windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &data); err != nil {
		return 0, false
	}
	return uint64(data.FileIndexHigh)<<32 | uint64(data.FileIndexLow), true
}
