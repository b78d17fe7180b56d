// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mockimagecache "github.com/netapp/nfs-imagecache/mocks/mock_storage_drivers/mock_ontap/mock_imagecache"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

func TestStatsReporter_ShareCapacity(t *testing.T) {
	ctrl := gomock.NewController(t)
	probe := mockimagecache.NewMockCapacityProbe(ctrl)
	cfg := testConfig()
	cfg.ReservedPercentage = 5
	reporter := NewStatsReporter(cfg, newMockShares(ctrl, shareA), probe, nil)

	probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(100*gib), uint64(25*gib+gib/2), nil)

	stats, err := reporter.ShareCapacity(context.Background(), shareA)

	require.NoError(t, err)
	assert.Equal(t, ShareStats{
		Share:                    shareA,
		TotalCapacityGiB:         100,
		FreeCapacityGiB:          25.5,
		ProvisionedCapacityGiB:   74.5,
		ReservedPercentage:       5,
		MaxOverSubscriptionRatio: DefaultMaxOverSubscriptionRatio,
	}, stats)
}

func TestStatsReporter_ShareCapacityError(t *testing.T) {
	ctrl := gomock.NewController(t)
	probe := mockimagecache.NewMockCapacityProbe(ctrl)
	reporter := NewStatsReporter(testConfig(), newMockShares(ctrl, shareA), probe, nil)

	probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(0), uint64(0), errors.BackendUnavailableError("down"))

	_, err := reporter.ShareCapacity(context.Background(), shareA)

	assert.True(t, errors.IsBackendUnavailableError(err))
}

func TestStatsReporter_ShareHasSpaceForClone(t *testing.T) {
	tests := []struct {
		name         string
		availableGiB int64
		sizeGiB      uint64
		thin         bool
		want         bool
	}{
		{name: "exact fit after reserve", availableGiB: 30, sizeGiB: 20, want: true},
		{name: "too big for thick clone", availableGiB: 30, sizeGiB: 21},
		{name: "thin clone overcommits", availableGiB: 30, sizeGiB: 21, thin: true, want: true},
		{name: "thin clone beyond ratio", availableGiB: 30, sizeGiB: 401, thin: true},
		{name: "free space inside reserve", availableGiB: 5, sizeGiB: 1, thin: true},
		{name: "empty clone", availableGiB: 5, sizeGiB: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			probe := mockimagecache.NewMockCapacityProbe(ctrl)
			cfg := testConfig()
			cfg.ReservedPercentage = 10
			cfg.MaxOverSubscriptionRatio = 20
			reporter := NewStatsReporter(cfg, newMockShares(ctrl, shareA), probe, nil)

			probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(100*gib), uint64(tt.availableGiB*gib), nil)

			ok, err := reporter.ShareHasSpaceForClone(context.Background(), shareA, tt.sizeGiB, tt.thin)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestStatsReporter_ShareHasSpaceForCloneProbeFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	probe := mockimagecache.NewMockCapacityProbe(ctrl)
	reporter := NewStatsReporter(testConfig(), newMockShares(ctrl, shareA), probe, nil)

	probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(0), uint64(0), errors.New("timeout"))

	ok, err := reporter.ShareHasSpaceForClone(context.Background(), shareA, 1, false)

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestStatsReporter_UpdateStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	probe := mockimagecache.NewMockCapacityProbe(ctrl)
	trigger := mockimagecache.NewMockReclaimTrigger(ctrl)
	reporter := NewStatsReporter(testConfig(), newMockShares(ctrl, shareA, shareB), probe, trigger)

	probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(10*gib), uint64(4*gib), nil)
	probe.EXPECT().Capacity(gomock.Any(), shareB).Return(uint64(0), uint64(0), errors.New("stale handle"))
	trigger.EXPECT().Trigger(gomock.Any()).Return(true).Times(1)

	stats := reporter.UpdateStats(context.Background())

	require.Len(t, stats, 1)
	assert.Equal(t, shareA, stats[0].Share)
	assert.Equal(t, float64(6), stats[0].ProvisionedCapacityGiB)
}

func TestStatsReporter_UpdateStatsTriggersWithoutShares(t *testing.T) {
	ctrl := gomock.NewController(t)
	shares := mockimagecache.NewMockShareProvider(ctrl)
	trigger := mockimagecache.NewMockReclaimTrigger(ctrl)
	reporter := NewStatsReporter(testConfig(), shares, mockimagecache.NewMockCapacityProbe(ctrl), trigger)

	shares.EXPECT().MountedShares(gomock.Any()).Return(nil, errors.New("no mounts"))
	trigger.EXPECT().Trigger(gomock.Any()).Return(false)

	assert.Empty(t, reporter.UpdateStats(context.Background()))
}
