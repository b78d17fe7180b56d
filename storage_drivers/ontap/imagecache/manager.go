// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	mount "k8s.io/mount-utils"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/locks"
	"github.com/netapp/nfs-imagecache/pkg/workerpool"
	"github.com/netapp/nfs-imagecache/pkg/workerpool/ants"
	poolTypes "github.com/netapp/nfs-imagecache/pkg/workerpool/types"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/api"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
	"github.com/netapp/nfs-imagecache/utils/exec"
)

// reclaimPoolWorkers leaves a free worker while the previous job's goroutine winds down.
const reclaimPoolWorkers = 2

// Manager wires the image cache components together and owns their lifecycle.
type Manager struct {
	config *Config

	command exec.Command
	mounter mount.Interface
	fs      afero.Fs
	client  api.OntapAPI
	pool    poolTypes.Pool
	locks   *locks.GCNamedMutex

	shares    types.ShareProvider
	probe     types.CapacityProbe
	scanner   types.CacheFileScanner
	planner   types.EvictionPlanner
	deleter   types.FileDeleter
	cloner    types.FileCloner
	onFailure func(ctx context.Context, err error)

	runner      *SingleFlightJobRunner
	reclaimer   *CacheReclaimer
	cache       *ImageCache
	stats       *StatsReporter
	housekeeper *Housekeeper
}

type ManagerOption func(*Manager)

func WithCommand(command exec.Command) ManagerOption {
	return func(m *Manager) { m.command = command }
}

func WithMounter(mounter mount.Interface) ManagerOption {
	return func(m *Manager) { m.mounter = mounter }
}

func WithFs(fs afero.Fs) ManagerOption {
	return func(m *Manager) { m.fs = fs }
}

func WithOntapClient(client api.OntapAPI) ManagerOption {
	return func(m *Manager) { m.client = client }
}

func WithPool(pool poolTypes.Pool) ManagerOption {
	return func(m *Manager) { m.pool = pool }
}

func WithShareProvider(shares types.ShareProvider) ManagerOption {
	return func(m *Manager) { m.shares = shares }
}

func WithCapacityProbe(probe types.CapacityProbe) ManagerOption {
	return func(m *Manager) { m.probe = probe }
}

func WithFileCloner(cloner types.FileCloner) ManagerOption {
	return func(m *Manager) { m.cloner = cloner }
}

// WithReclaimFailureHandler receives the error of every reclamation pass that aborted.
func WithReclaimFailureHandler(onFailure func(ctx context.Context, err error)) ManagerOption {
	return func(m *Manager) { m.onFailure = onFailure }
}

// NewManager validates cfg and builds the image cache.  Collaborators not given as options are created from cfg.
func NewManager(ctx context.Context, cfg *Config, opts ...ManagerOption) (*Manager, error) {
	Logc(ctx).Debug(">>>> NewManager")
	defer Logc(ctx).Debug("<<<< NewManager")

	if cfg == nil {
		return nil, errors.ConfigError("image cache configuration is missing")
	}
	config := cfg.Copy()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{config: config, locks: locks.NewGCNamedMutex()}
	for _, opt := range opts {
		opt(m)
	}

	if m.command == nil {
		m.command = exec.NewCommand()
	}
	if m.mounter == nil {
		m.mounter = mount.New("")
	}
	if m.fs == nil {
		m.fs = afero.NewOsFs()
	}
	if m.shares == nil {
		m.shares = NewMountedShareProvider(config.ParsedShares(), config.NfsMountPointBase, m.mounter)
	}

	if config.UseOntap() && m.client == nil && (m.probe == nil || m.cloner == nil) {
		client, err := api.NewRestClient(ctx, config.Ontap)
		if err != nil {
			return nil, err
		}
		m.client = client
	}
	if m.probe == nil {
		if config.UseOntap() {
			m.probe = NewOntapCapacityProbe(m.client)
		} else {
			m.probe = NewStatfsCapacityProbe(m.shares)
		}
	}
	if m.cloner == nil {
		if config.UseOntap() {
			m.cloner = NewOntapFileCloner(m.client)
		} else {
			m.cloner = NewShellFileCloner(m.command, m.shares, config)
		}
	}

	if m.pool == nil {
		pool, err := workerpool.New[poolTypes.Pool](ctx, ants.NewConfig(
			ants.WithNumWorkers(reclaimPoolWorkers),
			ants.WithNonBlocking(true),
		))
		if err != nil {
			return nil, fmt.Errorf("could not create reclamation worker pool; %w", err)
		}
		m.pool = pool
	}

	var runnerOpts []JobRunnerOption
	if m.onFailure != nil {
		runnerOpts = append(runnerOpts, WithOnFailure(m.onFailure))
	}

	m.scanner = NewShellScanner(m.command, m.shares, config)
	m.planner = NewLRUPlanner()
	m.deleter = NewShellDeleter(m.command, m.fs, m.shares, m.locks, config)
	m.runner = NewSingleFlightJobRunner(m.pool, runnerOpts...)
	m.reclaimer = NewCacheReclaimer(config, m.shares, m.probe, m.scanner, m.planner, m.deleter, m.runner)
	m.cache = NewImageCache(m.fs, m.shares, m.cloner, m.locks, config)
	m.stats = NewStatsReporter(config, m.shares, m.probe, m.reclaimer)
	m.housekeeper = NewHousekeeper(config.HousekeepingInterval, m.stats)

	Logc(ctx).WithFields(LogFields{
		"shares":         len(config.Shares),
		"capacitySource": capacitySourceName(config),
		"startThreshold": config.ThresholdStartPercent,
		"stopThreshold":  config.ThresholdStopPercent,
		"expiryMinutes":  config.ExpiryMinutes,
	}).Info("Image cache initialized.")

	return m, nil
}

func capacitySourceName(config *Config) string {
	if config.UseOntap() {
		return CapacitySourceOntap
	}
	return CapacitySourceStatfs
}

// Activate starts the worker pool and periodic housekeeping.
func (m *Manager) Activate(ctx context.Context) error {
	ctx = GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowPluginActivate, LogLayerImageCache)

	if err := m.pool.Start(ctx); err != nil {
		return fmt.Errorf("could not start reclamation worker pool; %w", err)
	}
	return m.housekeeper.Activate(ctx)
}

// Deactivate stops housekeeping and shuts the worker pool down, waiting for a running pass until ctx is done.
func (m *Manager) Deactivate(ctx context.Context) error {
	ctx = GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowPluginDeactivate, LogLayerImageCache)

	var err error
	err = errors.Append(err, m.housekeeper.Deactivate(ctx))
	err = errors.Append(err, m.pool.Shutdown(ctx))
	return err
}

func (m *Manager) Config() *Config                 { return m.config.Copy() }
func (m *Manager) Shares() types.ShareProvider     { return m.shares }
func (m *Manager) Probe() types.CapacityProbe      { return m.probe }
func (m *Manager) Scanner() types.CacheFileScanner { return m.scanner }
func (m *Manager) Planner() types.EvictionPlanner  { return m.planner }
func (m *Manager) Runner() *SingleFlightJobRunner  { return m.runner }
func (m *Manager) Reclaimer() *CacheReclaimer      { return m.reclaimer }
func (m *Manager) Cache() *ImageCache              { return m.cache }
func (m *Manager) Stats() *StatsReporter           { return m.stats }
func (m *Manager) Housekeeper() *Housekeeper       { return m.housekeeper }
