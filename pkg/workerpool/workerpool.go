// Copyright 2025 NetApp, Inc. All Rights Reserved.

package workerpool

import (
	"context"
	"fmt"

	"github.com/netapp/nfs-imagecache/pkg/workerpool/ants"
	"github.com/netapp/nfs-imagecache/pkg/workerpool/types"
)

// New builds the pool implementation selected by cfg and returns it as T.  A nil cfg uses the ants defaults.
//
//	pool, err := workerpool.New[types.Pool](ctx, ants.NewConfig(ants.WithNumWorkers(1)))
func New[T types.Pool](ctx context.Context, cfg types.Config) (T, error) {
	var zero T

	if cfg == nil {
		cfg = ants.DefaultConfig()
	}

	var pool types.Pool
	var err error
	switch c := cfg.(type) {
	case *ants.Config:
		pool, err = ants.NewPool(ctx, c)
	default:
		return zero, fmt.Errorf("unsupported worker pool config type %T", cfg)
	}
	if err != nil {
		return zero, err
	}

	typed, ok := pool.(T)
	if !ok {
		return zero, fmt.Errorf("worker pool of type %T does not implement %T", pool, zero)
	}
	return typed, nil
}
