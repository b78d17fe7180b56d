// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/netapp/nfs-imagecache/logging"
	poolTypes "github.com/netapp/nfs-imagecache/pkg/workerpool/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

// JobState is the process-wide state of the reclamation job.
type JobState int32

const (
	JobStateIdle JobState = iota
	JobStateRunning
)

func (s *JobState) get() JobState {
	return JobState(atomic.LoadInt32((*int32)(s)))
}

func (s *JobState) set(newState JobState) {
	atomic.StoreInt32((*int32)(s), int32(newState))
}

func (s *JobState) compareAndSwap(oldState, newState JobState) bool {
	return atomic.CompareAndSwapInt32((*int32)(s), int32(oldState), int32(newState))
}

func (s JobState) String() string {
	switch s {
	case JobStateIdle:
		return "Idle"
	case JobStateRunning:
		return "Running"
	default:
		return "Unknown"
	}
}

// Job is one unit of background work.  A returned error marks the run as failed.
type Job func(ctx context.Context) error

type JobRunnerOption func(*SingleFlightJobRunner)

// WithOnFailure registers a callback that receives the error of every failed run.
func WithOnFailure(onFailure func(ctx context.Context, err error)) JobRunnerOption {
	return func(r *SingleFlightJobRunner) {
		r.onFailure = onFailure
	}
}

// SingleFlightJobRunner runs at most one job at a time.  Starts that find a job running are dropped, not queued.
type SingleFlightJobRunner struct {
	state JobState
	pool  poolTypes.Pool

	wg sync.WaitGroup

	lastErrMu sync.RWMutex
	lastErr   error

	onFailure func(ctx context.Context, err error)
}

func NewSingleFlightJobRunner(pool poolTypes.Pool, opts ...JobRunnerOption) *SingleFlightJobRunner {
	r := &SingleFlightJobRunner{pool: pool}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TryStart launches job on the worker pool and returns true, or returns false at once if a job is running or the
// pool refused it.  The job gets a context that is not cancelled with ctx.
func (r *SingleFlightJobRunner) TryStart(ctx context.Context, job Job) bool {
	if !r.state.compareAndSwap(JobStateIdle, JobStateRunning) {
		reclaimTriggersDroppedTotal.Inc()
		Logc(ctx).Debug("Reclamation already running, trigger dropped.")
		return false
	}
	reclaimRunningGauge.Set(1)

	jobCtx := context.WithoutCancel(ctx)

	r.wg.Add(1)
	err := r.pool.Submit(jobCtx, func() {
		defer r.wg.Done()
		r.execute(jobCtx, job)
	})
	if err != nil {
		r.wg.Done()
		r.reset()
		Logc(ctx).WithError(err).Error("Could not submit reclamation job.")
		return false
	}

	return true
}

// Run executes job on the calling goroutine.  It fails with a StateError if a job is already running.
func (r *SingleFlightJobRunner) Run(ctx context.Context, job Job) error {
	if !r.state.compareAndSwap(JobStateIdle, JobStateRunning) {
		return errors.NewStateError(JobStateRunning.String(), "reclamation pass already in progress")
	}
	reclaimRunningGauge.Set(1)

	r.wg.Add(1)
	defer r.wg.Done()
	return r.execute(ctx, job)
}

func (r *SingleFlightJobRunner) execute(ctx context.Context, job Job) (err error) {
	start := time.Now()

	// Registered first so the runner returns to Idle even if the failure handler panics.
	defer r.reset()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("reclamation job panicked: %v", rec)
			Logc(ctx).WithField("stack", string(debug.Stack())).WithError(err).Error("Recovered from panic.")
		}

		r.setLastError(err)
		reclaimDurationSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			reclaimPassesTotal.WithLabelValues(passResultFailed).Inc()
			Logc(ctx).WithError(err).Error("Reclamation job failed.")
			r.notifyFailure(ctx, err)
		} else {
			reclaimPassesTotal.WithLabelValues(passResultSuccess).Inc()
		}
	}()

	return job(ctx)
}

func (r *SingleFlightJobRunner) notifyFailure(ctx context.Context, err error) {
	if r.onFailure == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			Logc(ctx).WithField("stack", string(debug.Stack())).WithField("panic", rec).
				Error("Recovered from panic in reclamation failure handler.")
		}
	}()
	r.onFailure(ctx, err)
}

func (r *SingleFlightJobRunner) reset() {
	r.state.set(JobStateIdle)
	reclaimRunningGauge.Set(0)
}

func (r *SingleFlightJobRunner) setLastError(err error) {
	r.lastErrMu.Lock()
	defer r.lastErrMu.Unlock()
	r.lastErr = err
}

// LastError returns the error of the most recent run, nil if it succeeded.
func (r *SingleFlightJobRunner) LastError() error {
	r.lastErrMu.RLock()
	defer r.lastErrMu.RUnlock()
	return r.lastErr
}

func (r *SingleFlightJobRunner) State() JobState {
	return r.state.get()
}

// Wait blocks until every started job has finished.
func (r *SingleFlightJobRunner) Wait() {
	r.wg.Wait()
}
