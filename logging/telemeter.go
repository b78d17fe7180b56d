// Copyright 2025 NetApp, Inc. All Rights Reserved.

package logging

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/netapp/nfs-imagecache/config"
)

const (
	metricStatusSuccess          = "success"
	metricStatusFailure          = "failure"
	metricStatusCanceled         = "canceled"
	metricStatusDeadlineExceeded = "deadline_exceeded"
)

type (
	// Recorder records metrics once the staged operation has finished and its error is known.
	Recorder func(err *error)
	// Telemeter stages metrics recording for one outgoing request and returns a Recorder.
	Telemeter func(ctx context.Context, target, address, method string) Recorder
)

var (
	outgoingAPIRequestSharedLabels = []string{"target", "address", "method"}

	outgoingAPIRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.MetricsNamespace,
			Subsystem: "outgoing_api",
			Name:      "request_duration_seconds",
			Help:      "Duration of calls to external APIs from start to finish.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		append([]string{"status"}, outgoingAPIRequestSharedLabels...),
	)
	outgoingAPIRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.MetricsNamespace,
			Subsystem: "outgoing_api",
			Name:      "requests_in_flight",
			Help:      "Number of in-flight outgoing API requests.",
		},
		outgoingAPIRequestSharedLabels,
	)

	_ Telemeter = OutgoingAPIRequestDurationTelemeter
	_ Telemeter = OutgoingAPIRequestInFlightTelemeter
)

// OutgoingAPIRequestDurationTelemeter measures how long an outgoing request takes, labelled by its outcome.
func OutgoingAPIRequestDurationTelemeter(ctx context.Context, target, address, method string) Recorder {
	start := time.Now()
	return func(err *error) {
		status := statusFromError(ctx, err)
		outgoingAPIRequestDurationSeconds.WithLabelValues(status, target, address, method).
			Observe(time.Since(start).Seconds())
	}
}

// OutgoingAPIRequestInFlightTelemeter tracks outgoing requests that have not completed yet.
func OutgoingAPIRequestInFlightTelemeter(_ context.Context, target, address, method string) Recorder {
	gauge := outgoingAPIRequestsInFlight.WithLabelValues(target, address, method)
	gauge.Inc()
	return func(_ *error) {
		gauge.Dec()
	}
}

func statusFromError(ctx context.Context, err *error) string {
	switch {
	case ctx.Err() == context.Canceled:
		return metricStatusCanceled
	case ctx.Err() == context.DeadlineExceeded:
		return metricStatusDeadlineExceeded
	case err != nil && *err != nil:
		return metricStatusFailure
	default:
		return metricStatusSuccess
	}
}
