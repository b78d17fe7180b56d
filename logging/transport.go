// Copyright 2025 NetApp, Inc. All Rights Reserved.

package logging

import (
	"net/http"
)

const (
	RequestTargetONTAP   = "ontap"
	RequestTargetUnknown = "unknown"
)

// MetricsTransport is an HTTP transport that records metrics for outgoing requests.
type MetricsTransport struct {
	base       http.RoundTripper
	target     string
	telemeters []Telemeter
}

type MetricsTransportOption func(*MetricsTransport)

func WithMetricsTransportTarget(target string) MetricsTransportOption {
	return func(m *MetricsTransport) {
		if target == "" {
			return
		}
		m.target = target
	}
}

func WithMetricsTransportTelemeters(telemeters ...Telemeter) MetricsTransportOption {
	return func(m *MetricsTransport) {
		if telemeters == nil {
			return
		}
		m.telemeters = telemeters
	}
}

// NewMetricsTransport wraps base so every request is measured by the configured telemeters.
// Without options the target is RequestTargetUnknown and all outgoing request telemeters are used.
func NewMetricsTransport(base http.RoundTripper, options ...MetricsTransportOption) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	transport := &MetricsTransport{
		base:   base,
		target: RequestTargetUnknown,
		telemeters: []Telemeter{
			OutgoingAPIRequestDurationTelemeter,
			OutgoingAPIRequestInFlightTelemeter,
		},
	}
	for _, option := range options {
		option(transport)
	}
	return transport
}

func (m *MetricsTransport) RoundTrip(req *http.Request) (res *http.Response, err error) {
	recorders := make([]Recorder, 0, len(m.telemeters))
	for _, telemeter := range m.telemeters {
		recorders = append(recorders, telemeter(req.Context(), m.target, req.URL.Host, req.Method))
	}
	defer func() {
		for _, rec := range recorders {
			rec(&err)
		}
	}()

	res, err = m.base.RoundTrip(req)
	if err == nil && res != nil && res.StatusCode >= http.StatusInternalServerError {
		Logc(req.Context()).WithFields(LogFields{
			"target": m.target,
			"host":   req.URL.Host,
			"status": res.StatusCode,
		}).Debug("Outgoing request returned a server error.")
	}
	return res, err
}
