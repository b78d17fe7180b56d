// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/capacity"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache"
)

func init() {
	RootCmd.AddCommand(reclaimCmd)
}

var reclaimCmd = &cobra.Command{
	Use:   "reclaim",
	Short: "Run one image cache reclamation pass over the mounted shares",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd, WorkflowCacheReclaim)

		manager, err := loadManager(ctx)
		if err != nil {
			return err
		}

		result, err := manager.Reclaimer().RunOnce(ctx)
		if result != nil {
			if writeErr := WritePassResult(cmd.OutOrStdout(), result); writeErr != nil {
				return writeErr
			}
		}
		return err
	},
}

type ShareReclaimResult struct {
	imagecache.ShareResult
	Error string `json:"error,omitempty"`
}

type PassResponse struct {
	Start      string               `json:"start"`
	End        string               `json:"end"`
	FreedBytes int64                `json:"freedBytes"`
	Shares     []ShareReclaimResult `json:"shares"`
}

func newPassResponse(result *imagecache.PassResult) PassResponse {
	response := PassResponse{
		Start:      result.Start.UTC().Format("2006-01-02T15:04:05Z"),
		End:        result.End.UTC().Format("2006-01-02T15:04:05Z"),
		FreedBytes: result.FreedBytes(),
		Shares:     make([]ShareReclaimResult, 0, len(result.Shares)),
	}
	for _, s := range result.Shares {
		r := ShareReclaimResult{ShareResult: s}
		if s.Err != nil {
			r.Error = s.Err.Error()
		}
		response.Shares = append(response.Shares, r)
	}
	return response
}

func WritePassResult(w io.Writer, result *imagecache.PassResult) error {
	response := newPassResponse(result)

	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, response)
	case FormatYAML:
		return WriteYAML(w, response)
	case FormatName:
		for _, s := range response.Shares {
			for _, name := range s.Deleted {
				if _, err := fmt.Fprintf(w, "%s/%s\n", s.Share, name); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		writePassTable(w, response)
		return nil
	}
}

func writePassTable(w io.Writer, response PassResponse) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Share", "Available %", "Result", "Deleted", "Failed", "Freed"})

	for _, s := range response.Shares {
		status := "cleaned"
		switch {
		case s.Error != "":
			status = s.Error
		case s.SkipReason != "":
			status = s.SkipReason
		}
		table.Append([]string{
			s.Share.String(),
			strconv.Itoa(s.AvailablePercent),
			status,
			strconv.Itoa(len(s.Deleted)),
			strconv.Itoa(len(s.Failed)),
			capacity.HumanReadableSigned(s.FreedBytes),
		})
	}
	table.SetFooter([]string{"", "", "", "", "Total", capacity.HumanReadableSigned(response.FreedBytes)})

	table.Render()
}
