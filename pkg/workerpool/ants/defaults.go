// Copyright 2025 NetApp, Inc. All Rights Reserved.

package ants

import (
	"runtime"
	"time"
)

const (
	// defaultExpiryDuration is the default expiryDuration after which expired workers are cleaned up.
	defaultExpiryDuration = 10 * time.Second
)

// defaultNumWorkers is the default number of workers (based on CPU count).
var defaultNumWorkers = runtime.NumCPU()

// DefaultConfig returns the default configuration for a Pool: one worker per CPU, pre-allocated.
func DefaultConfig() *Config {
	return NewConfig()
}
