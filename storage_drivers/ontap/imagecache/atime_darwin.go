// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"os"
	"syscall"
	"time"
)

// fileAccessTime returns the last access time of info, or its modification time when the filesystem does not
// report one.
func fileAccessTime(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Atimespec.Unix())
	}
	return info.ModTime()
}
