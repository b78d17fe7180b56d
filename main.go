// Copyright 2025 NetApp, Inc. All Rights Reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/netapp/nfs-imagecache/config"
	"github.com/netapp/nfs-imagecache/frontend"
	"github.com/netapp/nfs-imagecache/frontend/metrics"
	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

var (
	// Logging
	debug     = pflag.Bool("debug", false, "Enable debugging output")
	logLevel  = pflag.String("log_level", "info", "Logging level (trace, debug, info, warn, error, fatal)")
	logFormat = pflag.String("log_format", TextFormat, "Logging format (text, json)")

	// Configuration
	configPath = pflag.String("config", "", "Path to the image cache configuration file (default "+
		config.DefaultConfigPath+" if present)")

	// Metrics
	metricsAddress = pflag.String("metrics_address", "", "Metrics and health endpoint address")
	metricsPort    = pflag.String("metrics_port", config.DefaultMetricsPort,
		"Metrics and health endpoint port; empty disables the endpoint")

	// fileExists is swapped in tests.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}
)

func printFlag(f *pflag.Flag) {
	Logc(context.Background()).WithFields(LogFields{
		"name":  f.Name,
		"value": f.Value,
	}).Debug("Flag")
}

// resolveConfigPath returns the file to load.  The default path is only used when nothing was given and it exists.
func resolveConfigPath(path string, changed bool) string {
	if changed || path != "" {
		return path
	}
	if fileExists(config.DefaultConfigPath) {
		return config.DefaultConfigPath
	}
	return ""
}

// healthCheck reports the daemon unhealthy once housekeeping has stopped or the last reclamation pass failed.
func healthCheck(manager *imagecache.Manager) metrics.HealthFunc {
	return func(ctx context.Context) error {
		if state := manager.Housekeeper().State(); state != imagecache.HousekeeperRunning {
			return errors.NewStateError(state.String(), "housekeeping is not running")
		}
		if err := manager.Runner().LastError(); err != nil {
			return fmt.Errorf("last reclamation pass failed; %w", err)
		}
		return nil
	}
}

func buildFrontends(manager *imagecache.Manager) []frontend.Plugin {
	frontends := make([]frontend.Plugin, 0)

	if *metricsPort == "" {
		Logc(context.Background()).Warning("Metrics endpoint will not be available (port not specified).")
		return frontends
	}

	metricsServer := metrics.NewMetricsServer(*metricsAddress, *metricsPort, healthCheck(manager))
	frontends = append(frontends, metricsServer)
	Logc(context.Background()).WithField("name", metricsServer.GetName()).Info("Added frontend.")

	return frontends
}

// shutdown stops the frontends in parallel, then the image cache.
func shutdown(ctx context.Context, manager *imagecache.Manager, frontends []frontend.Plugin) error {
	var g errgroup.Group
	for _, f := range frontends {
		g.Go(func() error {
			if err := f.Deactivate(); err != nil {
				return fmt.Errorf("could not stop frontend %s; %w", f.GetName(), err)
			}
			return nil
		})
	}
	err := g.Wait()

	return errors.Append(err, manager.Deactivate(ctx))
}

func run(ctx context.Context) error {
	ctx = GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowCoreInit, LogLayerCore)

	path := resolveConfigPath(*configPath, pflag.CommandLine.Changed("config"))
	cfg, err := imagecache.LoadConfig(path, nil)
	if err != nil {
		return err
	}

	manager, err := imagecache.NewManager(ctx, cfg,
		imagecache.WithReclaimFailureHandler(func(ctx context.Context, err error) {
			Logc(ctx).WithError(err).Error("Image cache reclamation failed.")
		}),
	)
	if err != nil {
		return err
	}

	if err = manager.Activate(ctx); err != nil {
		return err
	}

	frontends := buildFrontends(manager)
	for _, f := range frontends {
		if err = f.Activate(); err != nil {
			return errors.Append(err, shutdown(context.WithoutCancel(ctx), manager, frontends))
		}
	}

	Logc(ctx).WithField("configPath", path).Info("Image cache daemon started.")

	<-ctx.Done()
	Logc(ctx).Info("Shutting down.")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.HTTPTimeout)
	defer cancel()
	return shutdown(shutdownCtx, manager, frontends)
}

func main() {
	pflag.Parse()

	if err := InitLogLevel(*debug, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := InitLoggingForConsole(*logFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	pflag.VisitAll(printFlag)

	version := config.GetVersionInfo()
	Logc(context.Background()).WithFields(LogFields{
		"version":    version.Version,
		"build_time": version.BuildTime,
		"binary":     os.Args[0],
	}).Info("Running NFS image cache daemon.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		Logc(ctx).WithError(err).Error("Image cache daemon failed.")
		stop()
		os.Exit(1)
	}
}
