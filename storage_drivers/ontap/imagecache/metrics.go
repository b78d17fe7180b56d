// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/netapp/nfs-imagecache/config"
)

const (
	passResultSuccess = "success"
	passResultFailed  = "failed"

	skipReasonAboveThreshold = "above_threshold"
	skipReasonNothingToFree  = "nothing_to_free"
	skipReasonProbeFailed    = "probe_failed"
	skipReasonFault          = "fault"
)

var (
	reclaimPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Subsystem: "reclaim",
			Name:      "passes_total",
			Help:      "The number of completed reclamation passes by result",
		},
		[]string{"result"},
	)
	reclaimTriggersDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Subsystem: "reclaim",
			Name:      "triggers_dropped_total",
			Help:      "The number of reclamation triggers dropped because a pass was already running",
		},
	)
	reclaimRunningGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: config.MetricsNamespace,
			Subsystem: "reclaim",
			Name:      "running",
			Help:      "Whether a reclamation pass is running",
		},
	)
	reclaimDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: config.MetricsNamespace,
			Subsystem: "reclaim",
			Name:      "duration_seconds",
			Help:      "The duration of reclamation passes",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		},
	)
	evictedFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "evicted_files_total",
			Help:      "The number of cache files deleted",
		},
	)
	evictedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "evicted_bytes_total",
			Help:      "The number of bytes freed by deleting cache files",
		},
	)
	evictFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "evict_failures_total",
			Help:      "The number of cache files that could not be deleted",
		},
	)
	shareSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "share_skipped_total",
			Help:      "The number of shares skipped during reclamation by reason",
		},
		[]string{"reason"},
	)
	shareAvailableBytesGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.MetricsNamespace,
			Name:      "share_available_bytes",
			Help:      "The available bytes of each mounted share at the last stats refresh",
		},
		[]string{"share"},
	)
	shareTotalBytesGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.MetricsNamespace,
			Name:      "share_total_bytes",
			Help:      "The size in bytes of each mounted share at the last stats refresh",
		},
		[]string{"share"},
	)
)
