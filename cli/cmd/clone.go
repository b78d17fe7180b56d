// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

var (
	cloneSize string
	cloneThin bool
)

func init() {
	RootCmd.AddCommand(cloneCmd)
	cloneCmd.Flags().StringVar(&cloneSize, "size", "",
		"Size of the new volume (e.g. 20Gi); shares without room for it are passed over")
	cloneCmd.Flags().BoolVar(&cloneThin, "thin", false, "Allow the clone to use the over-subscription ratio")
}

var cloneCmd = &cobra.Command{
	Use:   "clone <image-id> <volume-name>",
	Short: "Create a volume file from the cached copy of an image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd, WorkflowCacheClone)

		sizeGiB, err := parseCloneSize(cloneSize)
		if err != nil {
			return err
		}

		manager, err := loadManager(ctx)
		if err != nil {
			return err
		}
		result, err := cloneImage(ctx, manager, args[0], args[1], sizeGiB, cloneThin)
		if err != nil {
			return err
		}
		return WriteCloneResult(cmd.OutOrStdout(), result)
	},
}

type CloneResult struct {
	ImageID string      `json:"imageID"`
	Volume  string      `json:"volume"`
	Share   types.Share `json:"share"`
	Path    string      `json:"path"`
}

// cloneImage clones the cached copy of imageID into volumeName on the first share that holds it and, when
// sizeGiB is set, has room for the clone.
func cloneImage(
	ctx context.Context, manager *imagecache.Manager, imageID, volumeName string, sizeGiB uint64, thin bool,
) (*CloneResult, error) {
	if volumeName == "" || volumeName == "." || volumeName == ".." || path.Base(volumeName) != volumeName {
		return nil, errors.ConfigError("invalid volume name %q", volumeName)
	}

	hits, err := manager.Cache().FindImageInCache(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, errors.NotFoundError("image %s is not cached on any mounted share", imageID)
	}

	var compatible func(types.Share) bool
	if sizeGiB > 0 {
		compatible = func(share types.Share) bool {
			hasSpace, err := manager.Stats().ShareHasSpaceForClone(ctx, share, sizeGiB, thin)
			if err != nil {
				Logc(ctx).WithField("share", share.String()).WithError(err).Warning("Could not check share space.")
				return false
			}
			return hasSpace
		}
	}

	share, ok := manager.Cache().CloneFromCache(ctx, volumeName, imageID, hits, compatible)
	if !ok {
		return nil, fmt.Errorf("could not clone image %s from any of %d cache files", imageID, len(hits))
	}
	if err = manager.Cache().PostClone(ctx, share, volumeName); err != nil {
		return nil, err
	}

	return &CloneResult{
		ImageID: imageID,
		Volume:  volumeName,
		Share:   share,
		Path:    path.Join(manager.Shares().MountPoint(share), volumeName),
	}, nil
}

func WriteCloneResult(w io.Writer, result *CloneResult) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, result)
	case FormatYAML:
		return WriteYAML(w, result)
	case FormatName:
		_, err := fmt.Fprintln(w, result.Path)
		return err
	default:
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Image", "Volume", "Share", "Path"})
		table.Append([]string{result.ImageID, result.Volume, result.Share.String(), result.Path})
		table.Render()
		return nil
	}
}
