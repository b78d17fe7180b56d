// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
)

func init() {
	RootCmd.AddCommand(sharesCmd)
}

var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "List the configured shares and where they are mounted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd, WorkflowShareList)

		manager, err := loadManager(ctx)
		if err != nil {
			return err
		}
		shares, err := listShares(ctx, manager)
		if err != nil {
			return err
		}
		return WriteShares(cmd.OutOrStdout(), shares)
	},
}

type ShareMount struct {
	Share      types.Share `json:"share"`
	MountPoint string      `json:"mountPoint"`
	Mounted    bool        `json:"mounted"`
}

type MultipleShareResponse struct {
	Items []ShareMount `json:"items"`
}

// listShares reports every configured share, followed by any mounted share missing from the configuration.
func listShares(ctx context.Context, manager *imagecache.Manager) ([]ShareMount, error) {
	mounted, err := manager.Shares().MountedShares(ctx)
	if err != nil {
		return nil, err
	}
	isMounted := make(map[types.Share]bool, len(mounted))
	for _, share := range mounted {
		isMounted[share] = true
	}

	configured := manager.Config().ParsedShares()
	result := make([]ShareMount, 0, len(configured))
	seen := make(map[types.Share]bool, len(configured))
	for _, share := range configured {
		if seen[share] {
			continue
		}
		seen[share] = true
		result = append(result, ShareMount{
			Share:      share,
			MountPoint: manager.Shares().MountPoint(share),
			Mounted:    isMounted[share],
		})
	}
	for _, share := range mounted {
		if !seen[share] {
			seen[share] = true
			result = append(result, ShareMount{Share: share, MountPoint: manager.Shares().MountPoint(share), Mounted: true})
		}
	}
	return result, nil
}

func WriteShares(w io.Writer, shares []ShareMount) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, MultipleShareResponse{shares})
	case FormatYAML:
		return WriteYAML(w, MultipleShareResponse{shares})
	case FormatName:
		for _, s := range shares {
			if _, err := fmt.Fprintln(w, s.Share); err != nil {
				return err
			}
		}
		return nil
	default:
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Share", "Mount Point", "Mounted"})
		for _, s := range shares {
			table.Append([]string{s.Share.String(), s.MountPoint, strconv.FormatBool(s.Mounted)})
		}
		table.Render()
		return nil
	}
}
