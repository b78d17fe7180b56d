// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/locks"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/exec"
)

// ShellDeleter removes cache files with rm(1).  Deletes and cache population share the same per-file locks.
type ShellDeleter struct {
	shell  shell
	fs     afero.Fs
	shares types.ShareProvider
	locks  *locks.GCNamedMutex
	now    func() time.Time

	expiryMinutes int
}

var _ types.FileDeleter = (*ShellDeleter)(nil)

func NewShellDeleter(
	command exec.Command, fs afero.Fs, shares types.ShareProvider, fileLocks *locks.GCNamedMutex, config *Config,
) *ShellDeleter {
	return &ShellDeleter{
		shell:         newShell(command, config),
		fs:            fs,
		shares:        shares,
		locks:         fileLocks,
		now:           time.Now,
		expiryMinutes: config.ExpiryMinutes,
	}
}

// Delete reports whether fileName was removed from share.  A failed rm, including a file that is already gone,
// returns false.  A file accessed again since it was scanned is kept and also returns false.
func (d *ShellDeleter) Delete(ctx context.Context, share types.Share, fileName string) bool {
	if fileName == "" || strings.Contains(fileName, "/") || fileName == "." || fileName == ".." {
		Logc(ctx).WithField("fileName", fileName).Warning("Refusing to delete invalid cache file name.")
		return false
	}

	filePath := path.Join(d.shares.MountPoint(share), fileName)
	logFields := LogFields{"share": share.String(), "path": filePath}

	lock := d.locks.LockWithGuard(fileLockKey(d.shares, share, fileName))
	defer lock.Unlock()

	if d.recentlyAccessed(ctx, filePath) {
		Logc(ctx).WithFields(logFields).Info("Cache file was used since it was scanned, keeping it.")
		return false
	}

	if _, err := d.shell.run(ctx, true, "rm", filePath); err != nil {
		Logc(ctx).WithFields(logFields).WithError(err).Warning("Could not delete cache file.")
		return false
	}

	Logc(ctx).WithFields(logFields).Info("Deleted cache file.")
	return true
}

// recentlyAccessed reports whether filePath was accessed within the expiry window.  A file that cannot be read
// here is left to rm, which runs with the root helper and reports its own failure.
func (d *ShellDeleter) recentlyAccessed(ctx context.Context, filePath string) bool {
	info, err := d.fs.Stat(filePath)
	if err != nil {
		Logc(ctx).WithField("path", filePath).WithError(err).Debug("Could not stat cache file before delete.")
		return false
	}
	age := d.now().Sub(fileAccessTime(info))
	return int64(age/time.Minute) < int64(d.expiryMinutes)
}

// fileLockKey is the lock name for a file on a share, shared by every path that writes or removes it.
func fileLockKey(shares types.ShareProvider, share types.Share, fileName string) string {
	return path.Join(shares.MountPoint(share), fileName)
}
