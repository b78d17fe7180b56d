// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
)

func init() {
	RootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:     "scan",
	Short:   "List stale image cache files on the mounted shares",
	Long:    "List the image cache files on each mounted share that have outlived the expiry, least recently used first",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd, WorkflowCacheScan)

		manager, err := loadManager(ctx)
		if err != nil {
			return err
		}
		results, err := scanShares(ctx, manager)
		if err != nil {
			return err
		}
		return WriteScanResults(cmd.OutOrStdout(), results)
	},
}

type ScanResult struct {
	Share      types.Share       `json:"share"`
	Files      []types.CacheFile `json:"files"`
	TotalBytes int64             `json:"totalBytes"`
}

type MultipleScanResponse struct {
	Items []ScanResult `json:"items"`
}

func scanShares(ctx context.Context, manager *imagecache.Manager) ([]ScanResult, error) {
	shares, err := manager.Shares().MountedShares(ctx)
	if err != nil {
		return nil, err
	}

	expiry := manager.Config().ExpiryMinutes
	results := make([]ScanResult, 0, len(shares))
	for _, share := range shares {
		// An unbounded target orders every candidate the way a reclamation pass would.
		plan := manager.Planner().Plan(manager.Scanner().FindStale(ctx, share, expiry), math.MaxInt64)
		files := plan.Files
		if files == nil {
			files = []types.CacheFile{}
		}
		results = append(results, ScanResult{Share: share, Files: files, TotalBytes: plan.TotalBytes})
	}
	return results, nil
}

func WriteScanResults(w io.Writer, results []ScanResult) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, MultipleScanResponse{results})
	case FormatYAML:
		return WriteYAML(w, MultipleScanResponse{results})
	case FormatName:
		return writeScanNames(w, results)
	default:
		writeScanTable(w, results)
		return nil
	}
}

func writeScanTable(w io.Writer, results []ScanResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Share", "File", "Size", "Last Access"})

	now := time.Now()
	for _, r := range results {
		for _, f := range r.Files {
			table.Append([]string{
				r.Share.String(),
				f.Name,
				humanize.IBytes(uint64(f.SizeBytes)),
				humanize.Time(now.Add(-time.Duration(f.AgeMinutes) * time.Minute)),
			})
		}
	}

	table.Render()
}

func writeScanNames(w io.Writer, results []ScanResult) error {
	for _, r := range results {
		for _, f := range r.Files {
			if _, err := fmt.Fprintf(w, "%s/%s\n", r.Share, f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}
