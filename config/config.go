// Copyright 2025 NetApp, Inc. All Rights Reserved.

package config

import (
	"fmt"
	"runtime"
	"time"
)

type DriverContext string

const (
	/* Misc. orchestrator constants */
	OrchestratorName       = "nfs-imagecache"
	OrchestratorClientName = OrchestratorName + "ctl"
	orchestratorVersion    = "25.10.0"
	OrchestratorAPIVersion = "1"

	// MetricsNamespace prefixes every Prometheus metric exported by this module.
	MetricsNamespace = "nfs_imagecache"

	/* Driver contexts */
	ContextDaemon DriverContext = "daemon"
	ContextCLI    DriverContext = "cli"

	/* HTTP constants */
	HTTPTimeout        = 90 * time.Second
	HTTPTimeoutString  = "90s"
	MetricsPath        = "/metrics"
	HealthPath         = "/healthz"
	DefaultMetricsPort = "8001"

	/* Config constants */
	DefaultConfigPath = "/etc/" + OrchestratorName + "/config.yaml"
	EnvPrefix         = "NFS_IMAGECACHE"

	// REDACTED replaces secrets in logged configuration.
	REDACTED = "<REDACTED>"
)

var (
	// BuildHash is the git hash the binary was built from
	BuildHash = "unknown"

	// BuildType is the type of build: custom, beta or stable
	BuildType = "custom"

	// BuildTime is the date/time the binary was built
	BuildTime = "unknown"

	// OrchestratorVersion is the version of this build, with the build type appended for non-stable builds
	OrchestratorVersion = version()
)

func version() string {
	if BuildType == "stable" {
		return orchestratorVersion
	}
	return fmt.Sprintf("%s-%s", orchestratorVersion, BuildType)
}

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"apiVersion"`
	BuildHash  string `json:"buildHash"`
	BuildTime  string `json:"buildTime"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
}

// GetVersionInfo returns the version information of the running binary.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:    OrchestratorVersion,
		APIVersion: OrchestratorAPIVersion,
		BuildHash:  BuildHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
}
