// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"time"

	"github.com/netapp/nfs-imagecache/utils/exec"
)

// shell runs share commands, prefixed by the root helper when configured to.
type shell struct {
	command    exec.Command
	asRoot     bool
	rootHelper string
	timeout    time.Duration
}

func newShell(command exec.Command, config *Config) shell {
	return shell{
		command:    command,
		asRoot:     config.ExecuteAsRoot,
		rootHelper: config.RootHelper,
		timeout:    config.CommandTimeout,
	}
}

func (s shell) run(ctx context.Context, logOutput bool, name string, args ...string) ([]byte, error) {
	if s.asRoot && s.rootHelper != "" {
		args = append([]string{name}, args...)
		name = s.rootHelper
	}
	return s.command.ExecuteWithTimeout(ctx, name, s.timeout, logOutput, args...)
}
