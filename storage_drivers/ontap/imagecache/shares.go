// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"sort"

	mount "k8s.io/mount-utils"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
)

// MountedShareProvider reports which configured shares are mounted under the mount point base.  Mount points are
// named <base>/<md5 of "host:/path">, the layout used by the NFS mount manager.
type MountedShareProvider struct {
	shares  []types.Share
	base    string
	mounter mount.Interface
}

var _ types.ShareProvider = (*MountedShareProvider)(nil)

func NewMountedShareProvider(shares []types.Share, base string, mounter mount.Interface) *MountedShareProvider {
	sorted := append([]types.Share(nil), shares...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	// Duplicate entries would be cleaned twice per pass.
	unique := sorted[:0]
	for _, share := range sorted {
		if len(unique) > 0 && share.String() == unique[len(unique)-1].String() {
			continue
		}
		unique = append(unique, share)
	}
	sorted = unique

	return &MountedShareProvider{
		shares:  sorted,
		base:    base,
		mounter: mounter,
	}
}

// MountPoint returns the local directory share is mounted on.
func (p *MountedShareProvider) MountPoint(share types.Share) string {
	sum := md5.Sum([]byte(share.String())) // #nosec G401 -- naming only
	return filepath.Join(p.base, hex.EncodeToString(sum[:]))
}

// MountedShares returns the configured shares whose mount point is currently a mount.  Shares that cannot be
// checked are logged and left out.
func (p *MountedShareProvider) MountedShares(ctx context.Context) ([]types.Share, error) {
	mounted := make([]types.Share, 0, len(p.shares))
	for _, share := range p.shares {
		mountPoint := p.MountPoint(share)
		notMounted, err := p.mounter.IsLikelyNotMountPoint(mountPoint)
		if err != nil {
			Logc(ctx).WithFields(LogFields{
				"share":      share.String(),
				"mountPoint": mountPoint,
			}).WithError(err).Debug("Could not check share mount point.")
			continue
		}
		if notMounted {
			Logc(ctx).WithField("share", share.String()).Debug("Share is not mounted.")
			continue
		}
		mounted = append(mounted, share)
	}
	return mounted, nil
}

// Shares returns every configured share, mounted or not.
func (p *MountedShareProvider) Shares() []types.Share {
	return append([]types.Share(nil), p.shares...)
}
