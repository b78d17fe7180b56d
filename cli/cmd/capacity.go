// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/capacity"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
)

func init() {
	RootCmd.AddCommand(capacityCmd)
}

var capacityCmd = &cobra.Command{
	Use:     "capacity",
	Short:   "Show the capacity of the mounted shares",
	Aliases: []string{"df"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd, WorkflowShareGetStats)

		manager, err := loadManager(ctx)
		if err != nil {
			return err
		}
		capacities, err := shareCapacities(ctx, manager)
		if err != nil {
			return err
		}
		return WriteCapacities(cmd.OutOrStdout(), capacities)
	},
}

type ShareCapacity struct {
	Share            types.Share `json:"share"`
	TotalBytes       uint64      `json:"totalBytes"`
	AvailableBytes   uint64      `json:"availableBytes"`
	AvailablePercent int         `json:"availablePercent"`
	NeedsCleaning    bool        `json:"needsCleaning"`
	BytesToFree      int64       `json:"bytesToFree"`
	Error            string      `json:"error,omitempty"`
}

type MultipleCapacityResponse struct {
	Items []ShareCapacity `json:"items"`
}

// shareCapacities reads every mounted share.  A share that cannot be read is reported with its error.
func shareCapacities(ctx context.Context, manager *imagecache.Manager) ([]ShareCapacity, error) {
	shares, err := manager.Shares().MountedShares(ctx)
	if err != nil {
		return nil, err
	}

	cfg := manager.Config()
	capacities := make([]ShareCapacity, 0, len(shares))
	for _, share := range shares {
		result := ShareCapacity{Share: share}

		total, available, err := manager.Probe().Capacity(ctx, share)
		if err != nil {
			result.Error = err.Error()
			capacities = append(capacities, result)
			continue
		}
		result.TotalBytes, result.AvailableBytes = total, available

		if percent, ok := capacity.AvailablePercent(total, available); ok {
			result.AvailablePercent = percent
			result.NeedsCleaning = percent <= cfg.ThresholdStartPercent
		} else {
			result.Error = "share reports zero size"
		}
		if bytesToFree := capacity.BytesToFree(total, available, cfg.ThresholdStopPercent); bytesToFree > 0 {
			result.BytesToFree = bytesToFree
		}
		capacities = append(capacities, result)
	}
	return capacities, nil
}

func WriteCapacities(w io.Writer, capacities []ShareCapacity) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, MultipleCapacityResponse{capacities})
	case FormatYAML:
		return WriteYAML(w, MultipleCapacityResponse{capacities})
	case FormatName:
		for _, c := range capacities {
			if _, err := fmt.Fprintln(w, c.Share); err != nil {
				return err
			}
		}
		return nil
	default:
		writeCapacityTable(w, capacities)
		return nil
	}
}

func writeCapacityTable(w io.Writer, capacities []ShareCapacity) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Share", "Size", "Available", "Available %", "Needs Cleaning", "To Free"})

	for _, c := range capacities {
		if c.Error != "" {
			table.Append([]string{c.Share.String(), "", "", "", "", c.Error})
			continue
		}
		table.Append([]string{
			c.Share.String(),
			humanize.IBytes(c.TotalBytes),
			humanize.IBytes(c.AvailableBytes),
			strconv.Itoa(c.AvailablePercent),
			strconv.FormatBool(c.NeedsCleaning),
			humanize.IBytes(uint64(c.BytesToFree)),
		})
	}

	table.Render()
}
