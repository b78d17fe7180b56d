// Copyright 2025 NetApp, Inc. All Rights Reserved.

package ants

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/workerpool/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

// Pool adapts an ants.Pool to the types.Pool interface.
type Pool struct {
	pool    *ants.Pool
	config  *Config
	started atomic.Bool
	closed  atomic.Bool
}

var _ types.Pool = (*Pool)(nil)

// NewPool creates an ants-backed pool.  The pool does not accept tasks until Start is called.
func NewPool(ctx context.Context, cfg *Config) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.NumWorkers <= 0 {
		return nil, fmt.Errorf("invalid number of workers: %d", cfg.NumWorkers)
	}

	options := []ants.Option{
		ants.WithPreAlloc(cfg.PreAlloc),
		ants.WithNonblocking(cfg.NonBlocking),
		ants.WithDisablePurge(cfg.DisablePurge),
		ants.WithPanicHandler(func(p any) {
			Logc(ctx).WithField("panic", p).Error("Worker pool task panicked.")
		}),
	}
	if cfg.ExpiryDuration > 0 {
		options = append(options, ants.WithExpiryDuration(cfg.ExpiryDuration))
	}

	pool, err := ants.NewPool(cfg.NumWorkers, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool; %w", err)
	}

	Logc(ctx).WithFields(LogFields{
		"numWorkers":  cfg.NumWorkers,
		"preAlloc":    cfg.PreAlloc,
		"nonBlocking": cfg.NonBlocking,
	}).Debug("Created worker pool.")

	return &Pool{pool: pool, config: cfg.Copy().(*Config)}, nil
}

func (p *Pool) Start(_ context.Context) error {
	if p.closed.Load() {
		return ants.ErrPoolClosed
	}
	p.started.Store(true)
	return nil
}

func (p *Pool) Submit(_ context.Context, task func()) error {
	if task == nil {
		return fmt.Errorf("nil task")
	}
	if p.closed.Load() {
		return ants.ErrPoolClosed
	}
	if !p.started.Load() {
		return errors.NewStateError("NotStarted", "worker pool has not been started")
	}
	return p.pool.Submit(task)
}

func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok {
		return p.pool.ReleaseTimeout(time.Until(deadline))
	}
	p.pool.Release()
	return nil
}

func (p *Pool) ShutdownWithTimeout(timeout time.Duration) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.pool.ReleaseTimeout(timeout)
}

func (p *Pool) IsStarted() bool {
	return p.started.Load()
}

func (p *Pool) IsClosed() bool {
	return p.closed.Load()
}

func (p *Pool) Stats() types.Stats {
	return types.Stats{
		Capacity: p.pool.Cap(),
		Running:  p.pool.Running(),
		Waiting:  p.pool.Waiting(),
		Free:     p.pool.Free(),
	}
}
