// Copyright 2025 NetApp, Inc. All Rights Reserved.

package types

//go:generate mockgen -destination=../../../../mocks/mock_storage_drivers/mock_ontap/mock_imagecache/mock_types.go -package=mock_imagecache github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types CapacityProbe,CacheFileScanner,EvictionPlanner,FileDeleter,ShareProvider,FileCloner,ReclaimTrigger

import (
	"context"
	"fmt"
	"strings"
)

// CacheFilePrefix is the name prefix of every image cache file on a share.
const CacheFilePrefix = "img-cache-"

// Share is an NFS export identified by host and path, e.g. "10.0.0.1:/vol_images".
type Share struct {
	Host string `json:"host"`
	Path string `json:"path"`
}

// ParseShare splits "host:/export/path" on the last colon, so bracketed IPv6 hosts are kept intact.
func ParseShare(share string) (Share, error) {
	share = strings.TrimSpace(share)
	idx := strings.LastIndex(share, ":")
	if idx <= 0 || idx == len(share)-1 {
		return Share{}, fmt.Errorf("share %q is not in host:/path format", share)
	}

	host, path := share[:idx], share[idx+1:]
	if !strings.HasPrefix(path, "/") {
		return Share{}, fmt.Errorf("share %q has a relative export path", share)
	}
	return Share{Host: host, Path: path}, nil
}

func (s Share) String() string {
	return s.Host + ":" + s.Path
}

// CacheFile is one stale image cache file found by a scan.  It is rebuilt on every scan.
type CacheFile struct {
	Share      Share  `json:"share"`
	Name       string `json:"name"`
	SizeBytes  int64  `json:"sizeBytes"`
	AgeMinutes int64  `json:"ageMinutes"`
}

// ReclaimPlan is the ordered list of cache files chosen for deletion in one share.
type ReclaimPlan struct {
	Files      []CacheFile `json:"files"`
	TotalBytes int64       `json:"totalBytes"`
	Target     int64       `json:"target"`
}

// Satisfied reports whether the planned files cover the target.
func (p ReclaimPlan) Satisfied() bool {
	return p.TotalBytes >= p.Target
}

// CapacityProbe reads the size and free space of a share.
type CapacityProbe interface {
	Capacity(ctx context.Context, share Share) (total, available uint64, err error)
}

// CacheFileScanner lists cache files on a share that have not been accessed for at least ageThresholdMinutes.
// It never fails; problems are logged and yield an empty result.
type CacheFileScanner interface {
	FindStale(ctx context.Context, share Share, ageThresholdMinutes int) []CacheFile
}

// EvictionPlanner chooses which candidates to delete to free bytesToFree.
type EvictionPlanner interface {
	Plan(candidates []CacheFile, bytesToFree int64) ReclaimPlan
}

// FileDeleter removes one file from a share and reports whether it was removed.
type FileDeleter interface {
	Delete(ctx context.Context, share Share, fileName string) bool
}

// ShareProvider lists the shares currently mounted on this host.
type ShareProvider interface {
	MountedShares(ctx context.Context) ([]Share, error)
	MountPoint(share Share) string
}

// FileCloner makes a space-efficient copy of a file within a share.  Paths are relative to the share root.
type FileCloner interface {
	CloneFile(ctx context.Context, share Share, sourceName, destinationName string) error
}

// ReclaimTrigger starts a reclamation pass in the background if none is running.
type ReclaimTrigger interface {
	Trigger(ctx context.Context) bool
}
