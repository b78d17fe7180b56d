// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"math"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/capacity"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
)

// ShareStats is the capacity of one share as reported to a scheduler.
type ShareStats struct {
	Share                    types.Share `json:"share"`
	TotalCapacityGiB         float64     `json:"totalCapacityGb"`
	FreeCapacityGiB          float64     `json:"freeCapacityGb"`
	ProvisionedCapacityGiB   float64     `json:"provisionedCapacityGb"`
	ReservedPercentage       int         `json:"reservedPercentage"`
	MaxOverSubscriptionRatio float64     `json:"maxOverSubscriptionRatio"`
}

// StatsReporter reads share capacity and kicks off cache reclamation on every refresh.
type StatsReporter struct {
	config  *Config
	shares  types.ShareProvider
	probe   types.CapacityProbe
	trigger types.ReclaimTrigger
}

func NewStatsReporter(
	config *Config, shares types.ShareProvider, probe types.CapacityProbe, trigger types.ReclaimTrigger,
) *StatsReporter {
	return &StatsReporter{config: config, shares: shares, probe: probe, trigger: trigger}
}

// ShareCapacity returns the capacity of share in GiB, rounded down to two decimals.
func (s *StatsReporter) ShareCapacity(ctx context.Context, share types.Share) (ShareStats, error) {
	total, available, err := s.probe.Capacity(ctx, share)
	if err != nil {
		return ShareStats{}, err
	}

	return s.newShareStats(share, total, available), nil
}

func (s *StatsReporter) newShareStats(share types.Share, total, available uint64) ShareStats {
	totalGiB := capacity.BytesToGiB(total)
	freeGiB := capacity.BytesToGiB(available)

	return ShareStats{
		Share:                    share,
		TotalCapacityGiB:         totalGiB,
		FreeCapacityGiB:          freeGiB,
		ProvisionedCapacityGiB:   math.Round((totalGiB-freeGiB)*100) / 100,
		ReservedPercentage:       s.config.ReservedPercentage,
		MaxOverSubscriptionRatio: s.config.MaxOverSubscriptionRatio,
	}
}

// ShareHasSpaceForClone reports whether share can hold a clone of sizeGiB after the reserved space is set aside.
// Thin clones may overcommit up to the over-subscription ratio.
func (s *StatsReporter) ShareHasSpaceForClone(
	ctx context.Context, share types.Share, sizeGiB uint64, thin bool,
) (bool, error) {
	total, available, err := s.probe.Capacity(ctx, share)
	if err != nil {
		return false, err
	}

	requested := float64(sizeGiB) * float64(capacity.OneGiB)
	reserved := math.Round(float64(total) * float64(s.config.ReservedPercentage) / 100)
	usable := math.Max(0, float64(available)-reserved)
	if thin {
		usable *= s.config.MaxOverSubscriptionRatio
	}
	return usable >= requested, nil
}

// UpdateStats collects the capacity of every mounted share, then triggers a reclamation pass.  Shares whose
// capacity cannot be read are left out.
func (s *StatsReporter) UpdateStats(ctx context.Context) []ShareStats {
	ctx = GenerateRequestContext(ctx, "", ContextSourcePeriodic, WorkflowShareGetStats, LogLayerImageCache)

	shares, err := s.shares.MountedShares(ctx)
	if err != nil {
		Logc(ctx).WithError(err).Error("Could not list mounted shares.")
		shares = nil
	}

	stats := make([]ShareStats, 0, len(shares))
	for _, share := range shares {
		total, available, err := s.probe.Capacity(ctx, share)
		if err != nil {
			Logc(ctx).WithField("share", share.String()).WithError(err).Warning("Could not read share capacity.")
			continue
		}
		shareTotalBytesGauge.WithLabelValues(share.String()).Set(float64(total))
		shareAvailableBytesGauge.WithLabelValues(share.String()).Set(float64(available))
		stats = append(stats, s.newShareStats(share, total, available))
	}

	if s.trigger != nil {
		s.trigger.Trigger(ctx)
	}
	return stats
}
