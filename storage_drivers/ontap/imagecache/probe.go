// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"

	"golang.org/x/sys/unix"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/api"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

// OntapCapacityProbe reads share capacity from the flexvol that backs the export.
type OntapCapacityProbe struct {
	client api.OntapAPI
}

var _ types.CapacityProbe = (*OntapCapacityProbe)(nil)

func NewOntapCapacityProbe(client api.OntapAPI) *OntapCapacityProbe {
	return &OntapCapacityProbe{client: client}
}

func (p *OntapCapacityProbe) Capacity(ctx context.Context, share types.Share) (uint64, uint64, error) {
	total, available, err := p.client.FlexvolCapacity(ctx, share.Path)
	if err != nil {
		return 0, 0, errors.WrapWithBackendUnavailableError(err, "could not read capacity of share %s", share)
	}

	Logc(ctx).WithFields(LogFields{
		"share":     share.String(),
		"total":     total,
		"available": available,
	}).Debug("Read share capacity from ONTAP.")

	return total, available, nil
}

// StatfsCapacityProbe reads share capacity with statfs(2) on the local mount point.
type StatfsCapacityProbe struct {
	shares types.ShareProvider
	statfs func(path string, buf *unix.Statfs_t) error
}

var _ types.CapacityProbe = (*StatfsCapacityProbe)(nil)

func NewStatfsCapacityProbe(shares types.ShareProvider) *StatfsCapacityProbe {
	return &StatfsCapacityProbe{shares: shares, statfs: unix.Statfs}
}

func (p *StatfsCapacityProbe) Capacity(ctx context.Context, share types.Share) (uint64, uint64, error) {
	mountPoint := p.shares.MountPoint(share)

	var buf unix.Statfs_t
	if err := p.statfs(mountPoint, &buf); err != nil {
		return 0, 0, errors.WrapWithBackendUnavailableError(err, "could not statfs %s for share %s", mountPoint, share)
	}

	blockSize := uint64(buf.Bsize)
	total := buf.Blocks * blockSize
	available := buf.Bavail * blockSize

	Logc(ctx).WithFields(LogFields{
		"share":      share.String(),
		"mountPoint": mountPoint,
		"total":      total,
		"available":  available,
	}).Debug("Read share capacity from statfs.")

	return total, available, nil
}
