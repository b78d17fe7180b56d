// Copyright 2025 NetApp, Inc. All Rights Reserved.

//go:build !linux && !darwin

package imagecache

import (
	"os"
	"time"
)

func fileAccessTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
