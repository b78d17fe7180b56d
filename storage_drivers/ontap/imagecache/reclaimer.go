// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/pkg/capacity"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

// ShareResult records what one reclamation pass did on one share.
type ShareResult struct {
	Share            types.Share `json:"share"`
	TotalBytes       uint64      `json:"totalBytes"`
	AvailableBytes   uint64      `json:"availableBytes"`
	AvailablePercent int         `json:"availablePercent"`
	SkipReason       string      `json:"skipReason,omitempty"`
	TargetBytes      int64       `json:"targetBytes"`
	Candidates       int         `json:"candidates"`
	Planned          int         `json:"planned"`
	Deleted          []string    `json:"deleted,omitempty"`
	Failed           []string    `json:"failed,omitempty"`
	FreedBytes       int64       `json:"freedBytes"`
	Err              error       `json:"-"`
}

// PassResult records one reclamation pass over all mounted shares.
type PassResult struct {
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Shares []ShareResult `json:"shares"`
	// Err aggregates the per-share faults, or holds the fatal error that aborted the pass.
	Err error `json:"-"`
}

// FreedBytes is the total freed across all shares.
func (p *PassResult) FreedBytes() int64 {
	var freed int64
	for _, s := range p.Shares {
		freed += s.FreedBytes
	}
	return freed
}

type JobRunner interface {
	TryStart(ctx context.Context, job Job) bool
	Run(ctx context.Context, job Job) error
}

// CacheReclaimer frees space on mounted shares by evicting stale cache files, least recently used first.
type CacheReclaimer struct {
	config  *Config
	shares  types.ShareProvider
	probe   types.CapacityProbe
	scanner types.CacheFileScanner
	planner types.EvictionPlanner
	deleter types.FileDeleter
	runner  JobRunner

	resultMu   sync.RWMutex
	lastResult *PassResult
}

var _ types.ReclaimTrigger = (*CacheReclaimer)(nil)

func NewCacheReclaimer(
	config *Config, shares types.ShareProvider, probe types.CapacityProbe, scanner types.CacheFileScanner,
	planner types.EvictionPlanner, deleter types.FileDeleter, runner JobRunner,
) *CacheReclaimer {
	return &CacheReclaimer{
		config:  config,
		shares:  shares,
		probe:   probe,
		scanner: scanner,
		planner: planner,
		deleter: deleter,
		runner:  runner,
	}
}

// Trigger starts a reclamation pass in the background.  It returns false without waiting if a pass is running.
func (r *CacheReclaimer) Trigger(ctx context.Context) bool {
	ctx = GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowCacheReclaim, LogLayerImageCache)
	return r.runner.TryStart(ctx, func(jobCtx context.Context) error {
		_, err := r.Reclaim(jobCtx)
		return err
	})
}

// RunOnce runs a reclamation pass on the calling goroutine, sharing the single-flight guard with Trigger.
func (r *CacheReclaimer) RunOnce(ctx context.Context) (*PassResult, error) {
	ctx = GenerateRequestContext(ctx, "", ContextSourceCLI, WorkflowCacheReclaim, LogLayerImageCache)

	var result *PassResult
	err := r.runner.Run(ctx, func(jobCtx context.Context) error {
		var passErr error
		result, passErr = r.Reclaim(jobCtx)
		return passErr
	})
	return result, err
}

// Reclaim runs one pass over all mounted shares.  Only a configuration fault or a failure to list the shares is
// returned; per-share faults are logged and collected in the result.
func (r *CacheReclaimer) Reclaim(ctx context.Context) (*PassResult, error) {
	result := &PassResult{Start: time.Now()}
	defer func() {
		result.End = time.Now()
		r.setLastResult(result)
	}()

	Logc(ctx).Debug(">>>> CacheReclaimer.Reclaim")
	defer Logc(ctx).Debug("<<<< CacheReclaimer.Reclaim")

	config := r.config.Copy()
	if err := config.ValidateThresholds(); err != nil {
		result.Err = err
		Logc(ctx).WithError(err).Error("Image cache reclamation aborted.")
		return result, err
	}

	shares, err := r.shares.MountedShares(ctx)
	if err != nil {
		result.Err = fmt.Errorf("could not list mounted shares; %w", err)
		Logc(ctx).WithError(err).Error("Image cache reclamation aborted.")
		return result, result.Err
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].String() < shares[j].String() })

	Logc(ctx).WithFields(LogFields{
		"shares":         len(shares),
		"startThreshold": config.ThresholdStartPercent,
		"stopThreshold":  config.ThresholdStopPercent,
		"expiryMinutes":  config.ExpiryMinutes,
	}).Debug("Starting image cache reclamation.")

	for _, share := range shares {
		shareResult := r.reclaimShare(ctx, config, share)
		if shareResult.Err != nil {
			result.Err = errors.Append(result.Err, shareResult.Err)
		}
		result.Shares = append(result.Shares, shareResult)
	}

	Logc(ctx).WithFields(LogFields{
		"shares": len(result.Shares),
		"freed":  capacity.HumanReadable(uint64(result.FreedBytes())),
	}).Info("Image cache reclamation complete.")

	return result, nil
}

// reclaimShare cleans one share.  Faults, including panics, are recorded on the result and never escape.
func (r *CacheReclaimer) reclaimShare(ctx context.Context, config *Config, share types.Share) (result ShareResult) {
	result.Share = share
	logFields := LogFields{"share": share.String()}

	defer func() {
		if rec := recover(); rec != nil {
			result.Err = fmt.Errorf("share %s: panic during reclamation: %v", share, rec)
			result.SkipReason = skipReasonFault
			shareSkippedTotal.WithLabelValues(skipReasonFault).Inc()
			Logc(ctx).WithFields(logFields).WithField("stack", string(debug.Stack())).WithError(result.Err).
				Error("Recovered from panic while cleaning share.")
		}
	}()

	total, available, err := r.probe.Capacity(ctx, share)
	if err != nil {
		result.Err = err
		result.SkipReason = skipReasonProbeFailed
		shareSkippedTotal.WithLabelValues(skipReasonProbeFailed).Inc()
		Logc(ctx).WithFields(logFields).WithError(err).Warning("Could not read share capacity, skipping share.")
		return result
	}
	result.TotalBytes, result.AvailableBytes = total, available

	percent, ok := capacity.AvailablePercent(total, available)
	if !ok {
		result.Err = errors.BackendUnavailableError("share %s reports zero size", share)
		result.SkipReason = skipReasonProbeFailed
		shareSkippedTotal.WithLabelValues(skipReasonProbeFailed).Inc()
		Logc(ctx).WithFields(logFields).Warning("Share reports zero size, skipping share.")
		return result
	}
	result.AvailablePercent = percent

	logFields["availablePercent"] = percent
	if percent > config.ThresholdStartPercent {
		result.SkipReason = skipReasonAboveThreshold
		shareSkippedTotal.WithLabelValues(skipReasonAboveThreshold).Inc()
		Logc(ctx).WithFields(logFields).Debug("Share has enough free space, skipping.")
		return result
	}

	Logc(ctx).WithFields(logFields).Info("Share is low on space, cleaning image cache.")

	candidates := r.scanner.FindStale(ctx, share, config.ExpiryMinutes)
	result.Candidates = len(candidates)

	target := capacity.BytesToFree(total, available, config.ThresholdStopPercent)
	result.TargetBytes = target
	if target <= 0 {
		result.SkipReason = skipReasonNothingToFree
		shareSkippedTotal.WithLabelValues(skipReasonNothingToFree).Inc()
		Logc(ctx).WithFields(logFields).Debug("Nothing to free on share.")
		return result
	}

	eligible := candidates[:0:0]
	for _, file := range candidates {
		if file.AgeMinutes >= int64(config.ExpiryMinutes) {
			eligible = append(eligible, file)
		}
	}

	plan := r.planner.Plan(eligible, target)
	result.Planned = len(plan.Files)

	Logc(ctx).WithFields(logFields).WithFields(LogFields{
		"target":      capacity.HumanReadableSigned(target),
		"candidates":  len(eligible),
		"planned":     len(plan.Files),
		"plannedSize": capacity.HumanReadableSigned(plan.TotalBytes),
	}).Debug("Planned cache file eviction.")

	remaining := target
	attempted := make(map[string]struct{}, len(plan.Files))
	for _, file := range plan.Files {
		if remaining <= 0 {
			break
		}
		if _, ok := attempted[file.Name]; ok || file.AgeMinutes < int64(config.ExpiryMinutes) {
			continue
		}
		attempted[file.Name] = struct{}{}
		if !r.deleter.Delete(ctx, share, file.Name) {
			result.Failed = append(result.Failed, file.Name)
			evictFailuresTotal.Inc()
			continue
		}
		result.Deleted = append(result.Deleted, file.Name)
		result.FreedBytes += file.SizeBytes
		remaining -= file.SizeBytes
		evictedFilesTotal.Inc()
		evictedBytesTotal.Add(float64(file.SizeBytes))
	}

	if remaining > 0 {
		Logc(ctx).WithFields(logFields).WithField("shortfall", capacity.HumanReadableSigned(remaining)).
			Info("Could not free the full target on share.")
	}

	return result
}

func (r *CacheReclaimer) setLastResult(result *PassResult) {
	r.resultMu.Lock()
	defer r.resultMu.Unlock()
	r.lastResult = result
}

// LastResult returns the result of the most recent pass, or nil if none has run.
func (r *CacheReclaimer) LastResult() *PassResult {
	r.resultMu.RLock()
	defer r.resultMu.RUnlock()
	return r.lastResult
}
