// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/capacity"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

var planTarget string

func init() {
	RootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&planTarget, "target", "",
		"Bytes to free on each share (e.g. 10Gi), instead of the amount needed to reach the stop threshold")
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show which cache files a reclamation pass would delete, without deleting them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd, WorkflowCacheScan)

		target := int64(-1)
		if planTarget != "" {
			bytes, err := capacity.ToBytes(planTarget)
			if err != nil {
				return errors.ConfigError("invalid target %q; %v", planTarget, err)
			}
			if bytes > math.MaxInt64 {
				bytes = math.MaxInt64
			}
			target = int64(bytes)
		}

		manager, err := loadManager(ctx)
		if err != nil {
			return err
		}
		plans, err := planShares(ctx, manager, target)
		if err != nil {
			return err
		}
		return WritePlans(cmd.OutOrStdout(), plans)
	},
}

type SharePlan struct {
	Share types.Share       `json:"share"`
	Plan  types.ReclaimPlan `json:"plan"`
	Error string            `json:"error,omitempty"`
}

type MultiplePlanResponse struct {
	Items []SharePlan `json:"items"`
}

// planShares builds an eviction plan for each mounted share.  A negative target uses what each share needs to reach
// the stop threshold; shares above the start threshold then get an empty plan.
func planShares(ctx context.Context, manager *imagecache.Manager, target int64) ([]SharePlan, error) {
	shares, err := manager.Shares().MountedShares(ctx)
	if err != nil {
		return nil, err
	}

	cfg := manager.Config()
	plans := make([]SharePlan, 0, len(shares))
	for _, share := range shares {
		sharePlan := SharePlan{Share: share}

		bytesToFree := target
		if bytesToFree < 0 {
			total, available, err := manager.Probe().Capacity(ctx, share)
			if err != nil {
				sharePlan.Error = err.Error()
				plans = append(plans, sharePlan)
				continue
			}
			percent, ok := capacity.AvailablePercent(total, available)
			if !ok || percent > cfg.ThresholdStartPercent {
				plans = append(plans, sharePlan)
				continue
			}
			bytesToFree = capacity.BytesToFree(total, available, cfg.ThresholdStopPercent)
		}

		candidates := manager.Scanner().FindStale(ctx, share, cfg.ExpiryMinutes)
		sharePlan.Plan = manager.Planner().Plan(candidates, bytesToFree)
		plans = append(plans, sharePlan)
	}
	return plans, nil
}

func WritePlans(w io.Writer, plans []SharePlan) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, MultiplePlanResponse{plans})
	case FormatYAML:
		return WriteYAML(w, MultiplePlanResponse{plans})
	case FormatName:
		for _, p := range plans {
			for _, f := range p.Plan.Files {
				if _, err := fmt.Fprintf(w, "%s/%s\n", p.Share, f.Name); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		writePlanTable(w, plans)
		return nil
	}
}

func writePlanTable(w io.Writer, plans []SharePlan) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Share", "Target", "Planned", "Files", "Satisfied"})

	for _, p := range plans {
		if p.Error != "" {
			table.Append([]string{p.Share.String(), "", "", "", p.Error})
			continue
		}
		table.Append([]string{
			p.Share.String(),
			capacity.HumanReadableSigned(p.Plan.Target),
			capacity.HumanReadableSigned(p.Plan.TotalBytes),
			fmt.Sprintf("%d", len(p.Plan.Files)),
			fmt.Sprintf("%t", p.Plan.Satisfied()),
		})
	}

	table.Render()
}
