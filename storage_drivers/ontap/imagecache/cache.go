// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/afero"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/locks"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/api"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
	"github.com/netapp/nfs-imagecache/utils/exec"
)

// clonedFileMode is applied to volume files cloned from the cache.
const clonedFileMode os.FileMode = 0o660

// CacheHit is a share that holds the cache file of an image.
type CacheHit struct {
	Share    types.Share `json:"share"`
	FileName string      `json:"fileName"`
}

// CacheFileName returns the name of the cache file for imageID.
func CacheFileName(imageID string) string {
	return types.CacheFilePrefix + imageID
}

// ImageCache populates the image cache and clones volumes from it.  Every write to a cache file happens under the
// same per-file lock the deleter takes.
type ImageCache struct {
	fs     afero.Fs
	shares types.ShareProvider
	cloner types.FileCloner
	locks  *locks.GCNamedMutex
	now    func() time.Time

	visibilityTimeout  time.Duration
	visibilityInterval time.Duration
}

func NewImageCache(
	fs afero.Fs, shares types.ShareProvider, cloner types.FileCloner, fileLocks *locks.GCNamedMutex, config *Config,
) *ImageCache {
	return &ImageCache{
		fs:                 fs,
		shares:             shares,
		cloner:             cloner,
		locks:              fileLocks,
		now:                time.Now,
		visibilityTimeout:  config.FileVisibilityTimeout,
		visibilityInterval: config.FileVisibilityInterval,
	}
}

// FindImageInCache returns every mounted share holding a regular cache file for imageID.  A lookup waits for a
// delete or clone of the same cache file that is in progress.
func (c *ImageCache) FindImageInCache(ctx context.Context, imageID string) ([]CacheHit, error) {
	shares, err := c.shares.MountedShares(ctx)
	if err != nil {
		return nil, err
	}

	fileName := CacheFileName(imageID)
	hits := make([]CacheHit, 0)
	for _, share := range shares {
		if !c.isCached(share, fileName) {
			continue
		}
		Logc(ctx).WithFields(LogFields{
			"imageID": imageID,
			"share":   share.String(),
		}).Debug("Found cache file for image.")
		hits = append(hits, CacheHit{Share: share, FileName: fileName})
	}
	return hits, nil
}

func (c *ImageCache) isCached(share types.Share, fileName string) bool {
	lock := c.locks.RLockWithGuard(fileLockKey(c.shares, share, fileName))
	defer lock.Unlock()

	info, err := c.fs.Stat(filepath.Join(c.shares.MountPoint(share), fileName))
	return err == nil && info.Mode().IsRegular()
}

// RegisterImage clones volumeName on share into the cache file for imageID, unless the cache file already exists.
func (c *ImageCache) RegisterImage(ctx context.Context, share types.Share, volumeName, imageID string) error {
	ctx = GenerateRequestContext(ctx, "", ContextSourceDriver, WorkflowCacheRegister, LogLayerImageCache)
	fileName := CacheFileName(imageID)

	Logc(ctx).WithField("cacheFile", fileName).Info("Registering image in cache.")

	if err := c.cloneRelatedToCacheFile(ctx, share, volumeName, fileName, fileName); err != nil {
		Logc(ctx).WithFields(LogFields{
			"imageID": imageID,
			"share":   share.String(),
		}).WithError(err).Warning("Could not register image in cache.")
		return err
	}
	return nil
}

// CloneFromCache clones the cached image into volumeName on the first compatible share of hits.  It returns the
// share used and true, or false if no share could provide the clone.
func (c *ImageCache) CloneFromCache(
	ctx context.Context, volumeName, imageID string, hits []CacheHit, compatible func(types.Share) bool,
) (types.Share, bool) {
	ctx = GenerateRequestContext(ctx, "", ContextSourceDriver, WorkflowCacheClone, LogLayerImageCache)

	Logc(ctx).WithField("imageID", imageID).Info("Cloning image from cache.")

	for _, hit := range hits {
		if compatible != nil && !compatible(hit.Share) {
			Logc(ctx).WithField("share", hit.Share.String()).Debug("Share cannot hold the clone.")
			continue
		}
		if err := c.cloneRelatedToCacheFile(ctx, hit.Share, hit.FileName, volumeName, hit.FileName); err != nil {
			Logc(ctx).WithField("share", hit.Share.String()).WithError(err).
				Warning("Could not clone image from cache, trying the next share.")
			continue
		}
		return hit.Share, true
	}
	return types.Share{}, false
}

// cloneRelatedToCacheFile clones source to destination on share if destination does not exist yet, then touches
// source.  The lock on cacheFile keeps eviction away while the clone runs.
func (c *ImageCache) cloneRelatedToCacheFile(
	ctx context.Context, share types.Share, source, destination, cacheFile string,
) error {
	lock := c.locks.LockWithGuard(fileLockKey(c.shares, share, cacheFile))
	defer lock.Unlock()

	mountPoint := c.shares.MountPoint(share)
	destinationPath := filepath.Join(mountPoint, destination)

	exists, err := afero.Exists(c.fs, destinationPath)
	if err != nil {
		return fmt.Errorf("could not check %s; %w", destinationPath, err)
	}
	if exists {
		return nil
	}

	Logc(ctx).WithFields(LogFields{
		"source":      source,
		"destination": destination,
		"share":       share.String(),
	}).Info("Cloning file on share.")

	if err = c.cloner.CloneFile(ctx, share, source, destination); err != nil {
		return err
	}

	now := c.now()
	sourcePath := filepath.Join(mountPoint, source)
	if err = c.fs.Chtimes(sourcePath, now, now); err != nil {
		return fmt.Errorf("could not touch %s; %w", sourcePath, err)
	}
	return nil
}

// PostClone waits for a cloned volume file to become visible over NFS and makes it group writable.
func (c *ImageCache) PostClone(ctx context.Context, share types.Share, volumeName string) error {
	filePath := filepath.Join(c.shares.MountPoint(share), volumeName)
	if err := c.WaitForFile(ctx, filePath); err != nil {
		return err
	}
	if err := c.fs.Chmod(filePath, clonedFileMode); err != nil {
		return fmt.Errorf("could not set permissions on %s; %w", filePath, err)
	}
	return nil
}

// WaitForFile polls until filePath exists.  The NFS client caches directory entries for up to a minute, so a fresh
// clone may not be visible at once.
func (c *ImageCache) WaitForFile(ctx context.Context, filePath string) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.visibilityTimeout)
	defer cancel()

	checkFile := func() error {
		exists, err := afero.Exists(c.fs, filePath)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !exists {
			return errors.NotFoundError("file %s not visible yet", filePath)
		}
		return nil
	}
	notify := func(err error, d time.Duration) {
		Logc(ctx).WithField("path", filePath).Tracef("File not visible yet, waiting %v.", d)
	}

	fileBackoff := backoff.WithContext(backoff.NewConstantBackOff(c.visibilityInterval), timeoutCtx)
	if err := backoff.RetryNotify(checkFile, fileBackoff, notify); err != nil {
		Logc(ctx).WithField("path", filePath).Warning("File could not be discovered.")
		return errors.WrapWithNotFoundError(err, "file %s could not be discovered", filePath)
	}
	return nil
}

// OntapFileCloner clones files with the ONTAP file clone API.  The flexvol is named after the last element of the
// export path.
type OntapFileCloner struct {
	client api.OntapAPI
}

var _ types.FileCloner = (*OntapFileCloner)(nil)

func NewOntapFileCloner(client api.OntapAPI) *OntapFileCloner {
	return &OntapFileCloner{client: client}
}

func (c *OntapFileCloner) CloneFile(ctx context.Context, share types.Share, sourceName, destinationName string) error {
	volumeName := path.Base(share.Path)
	if volumeName == "/" || volumeName == "." {
		return errors.UnsupportedError("share %s is not backed by a named flexvol", share)
	}
	return c.client.CloneFile(ctx, volumeName, sourceName, destinationName)
}

// ShellFileCloner copies files with cp(1), using reflinks where the filesystem supports them.
type ShellFileCloner struct {
	shell  shell
	shares types.ShareProvider
}

var _ types.FileCloner = (*ShellFileCloner)(nil)

func NewShellFileCloner(command exec.Command, shares types.ShareProvider, config *Config) *ShellFileCloner {
	return &ShellFileCloner{shell: newShell(command, config), shares: shares}
}

func (c *ShellFileCloner) CloneFile(ctx context.Context, share types.Share, sourceName, destinationName string) error {
	mountPoint := c.shares.MountPoint(share)
	_, err := c.shell.run(ctx, true, "cp", "--reflink=auto",
		filepath.Join(mountPoint, sourceName), filepath.Join(mountPoint, destinationName))
	return err
}
