// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/capacity"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

var (
	lookupSize string
	lookupThin bool
)

func init() {
	RootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringVar(&lookupSize, "size", "",
		"Size of the volume to clone (e.g. 20Gi); reports whether each share has room for it")
	lookupCmd.Flags().BoolVar(&lookupThin, "thin", false, "Allow the clone to use the over-subscription ratio")
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <image-id>",
	Short: "Find the shares that hold a cached copy of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd, WorkflowCacheLookup)

		sizeGiB, err := parseCloneSize(lookupSize)
		if err != nil {
			return err
		}

		manager, err := loadManager(ctx)
		if err != nil {
			return err
		}
		entries, err := lookupImage(ctx, manager, args[0], sizeGiB, lookupThin)
		if err != nil {
			return err
		}
		return WriteCacheEntries(cmd.OutOrStdout(), entries)
	},
}

type CacheEntry struct {
	Share    types.Share `json:"share"`
	FileName string      `json:"fileName"`
	Path     string      `json:"path"`
	// HasSpace is only set when a clone size was given.
	HasSpace *bool  `json:"hasSpace,omitempty"`
	Error    string `json:"error,omitempty"`
}

type MultipleCacheEntryResponse struct {
	Items []CacheEntry `json:"items"`
}

// parseCloneSize converts a size string to whole GiB, rounding up.  An empty string is zero.
func parseCloneSize(size string) (uint64, error) {
	if size == "" {
		return 0, nil
	}
	bytes, err := capacity.ToBytes(size)
	if err != nil {
		return 0, errors.ConfigError("invalid size %q; %v", size, err)
	}
	return bytes/capacity.OneGiB + min(bytes%capacity.OneGiB, 1), nil
}

// lookupImage lists the cache hits for imageID.  With a non-zero sizeGiB each hit also reports whether its share
// can hold a clone of that size.
func lookupImage(
	ctx context.Context, manager *imagecache.Manager, imageID string, sizeGiB uint64, thin bool,
) ([]CacheEntry, error) {
	hits, err := manager.Cache().FindImageInCache(ctx, imageID)
	if err != nil {
		return nil, err
	}

	entries := make([]CacheEntry, 0, len(hits))
	for _, hit := range hits {
		entry := CacheEntry{
			Share:    hit.Share,
			FileName: hit.FileName,
			Path:     path.Join(manager.Shares().MountPoint(hit.Share), hit.FileName),
		}
		if sizeGiB > 0 {
			hasSpace, err := manager.Stats().ShareHasSpaceForClone(ctx, hit.Share, sizeGiB, thin)
			if err != nil {
				entry.Error = err.Error()
			} else {
				entry.HasSpace = &hasSpace
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func WriteCacheEntries(w io.Writer, entries []CacheEntry) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, MultipleCacheEntryResponse{entries})
	case FormatYAML:
		return WriteYAML(w, MultipleCacheEntryResponse{entries})
	case FormatName:
		for _, e := range entries {
			if _, err := fmt.Fprintln(w, e.Path); err != nil {
				return err
			}
		}
		return nil
	default:
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Share", "Cache File", "Has Space"})
		for _, e := range entries {
			hasSpace := ""
			switch {
			case e.Error != "":
				hasSpace = e.Error
			case e.HasSpace != nil:
				hasSpace = strconv.FormatBool(*e.HasSpace)
			}
			table.Append([]string{e.Share.String(), e.FileName, hasSpace})
		}
		table.Render()
		return nil
	}
}
