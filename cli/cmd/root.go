// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"github.com/netapp/nfs-imagecache/config"
	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

const (
	FormatJSON  = "json"
	FormatName  = "name"
	FormatYAML  = "yaml"
	FormatTable = "table"

	ExitCodeSuccess     = 0
	ExitCodeFailure     = 1
	ExitCodeConfigError = 2
)

var (
	ExitCode int

	Debug        bool
	OutputFormat string
	ConfigPath   string

	// newManager builds the image cache for a command.
	newManager = func(ctx context.Context, cfg *imagecache.Config) (*imagecache.Manager, error) {
		return imagecache.NewManager(ctx, cfg)
	}
)

var RootCmd = &cobra.Command{
	SilenceUsage: true,
	Use:          config.OrchestratorClientName,
	Short:        "A CLI tool for the NetApp NFS image cache",
	Long:         `A CLI tool for inspecting and reclaiming the image cache on NFS shares mounted by this host`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := InitLogLevel(Debug, "warn"); err != nil {
			return err
		}
		if err := InitLogFormat(PlainFormat); err != nil {
			return err
		}
		return validateOutputFormat()
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.BoolVarP(&Debug, "debug", "d", false, "Debug output")
	flags.StringVarP(&OutputFormat, "output", "o", "", "Output format. One of json|yaml|name|table (default)")
	flags.StringVarP(&ConfigPath, "config", "c", "", "Path to the image cache configuration file")

	flags.Int("start-threshold", imagecache.DefaultThresholdStartPercent,
		"Clean a share once its free space is at or below this percentage")
	flags.Int("stop-threshold", imagecache.DefaultThresholdStopPercent,
		"Free space percentage cleaning tries to reach")
	flags.Int("expiry-minutes", imagecache.DefaultExpiryMinutes,
		"Only evict cache files not accessed for at least this many minutes")
	flags.StringSlice("share", nil, "NFS share to manage, as host:/path (repeatable)")
	flags.String("mount-base", imagecache.DefaultNfsMountPointBase, "Directory the shares are mounted under")
	flags.Bool("as-root", true, "Run share commands through the root helper")
	flags.String("capacity-source", imagecache.CapacitySourceAuto,
		"Where share capacity is read from: ontap or statfs (default ontap when configured)")
}

func validateOutputFormat() error {
	switch OutputFormat {
	case "", FormatTable, FormatJSON, FormatYAML, FormatName:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", OutputFormat)
	}
}

// loadManager reads the configuration, honoring any configuration flags given, and builds the image cache.
func loadManager(ctx context.Context) (*imagecache.Manager, error) {
	cfg, err := imagecache.LoadConfig(ConfigPath, RootCmd.PersistentFlags())
	if err != nil {
		return nil, err
	}
	return newManager(ctx, cfg)
}

func commandContext(cmd *cobra.Command, workflow Workflow) context.Context {
	return GenerateRequestContext(cmd.Context(), "", ContextSourceCLI, workflow, LogLayerCLI)
}

func WriteJSON(w io.Writer, out any) error {
	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(jsonBytes))
	return err
}

func WriteYAML(w io.Writer, out any) error {
	yamlBytes, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(yamlBytes))
	return err
}

func SetExitCodeFromError(err error) {
	ExitCode = GetExitCodeFromError(err)
}

func GetExitCodeFromError(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.IsConfigError(err):
		return ExitCodeConfigError
	default:
		return ExitCodeFailure
	}
}
