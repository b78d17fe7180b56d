// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/netapp/nfs-imagecache/config"
	. "github.com/netapp/nfs-imagecache/logging"
)

func init() {
	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of " + config.OrchestratorClientName,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd, WorkflowCoreVersion)

		version := config.GetVersionInfo()
		Logc(ctx).WithField("version", version.Version).Debug("Reporting client version.")
		return writeVersion(cmd.OutOrStdout(), version)
	},
}

type VersionResponse struct {
	Client config.VersionInfo `json:"client"`
}

func writeVersion(w io.Writer, version config.VersionInfo) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, VersionResponse{Client: version})
	case FormatYAML:
		return WriteYAML(w, VersionResponse{Client: version})
	case FormatName:
		_, err := fmt.Fprintln(w, version.Version)
		return err
	default:
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Client Version", "Go Version", "Platform"})
		table.Append([]string{version.Version, version.GoVersion, version.Platform})
		table.Render()
		return nil
	}
}
