// Copyright 2025 NetApp, Inc. All Rights Reserved.

package types

//go:generate mockgen -destination=../../../mocks/mock_pkg/mock_workerpool/mock_pool.go -package=mock_workerpool github.com/netapp/nfs-imagecache/pkg/workerpool/types Pool

import (
	"context"
	"time"
)

// Config is implemented by every worker pool configuration.  The concrete type selects the implementation.
type Config interface {
	PoolConfig()
	Copy() Config
}

// Pool runs submitted tasks on a bounded set of goroutines.
type Pool interface {
	// Start makes the pool accept tasks.  Calling it more than once is a no-op.
	Start(ctx context.Context) error
	// Submit queues task for execution.  It fails if the pool is not started, closed, or full in non-blocking mode.
	Submit(ctx context.Context, task func()) error
	// Shutdown stops accepting tasks and releases the workers.  It is idempotent.
	Shutdown(ctx context.Context) error
	// ShutdownWithTimeout is Shutdown that waits at most timeout for running tasks.
	ShutdownWithTimeout(timeout time.Duration) error
	IsStarted() bool
	IsClosed() bool
	Stats() Stats
}

// Stats is a point-in-time view of pool occupancy.
type Stats struct {
	Capacity int
	Running  int
	Waiting  int
	Free     int
}
