// Copyright 2025 NetApp, Inc. All Rights Reserved.

package exec

//go:generate mockgen -destination=../../mocks/mock_utils/mock_exec/mock_command.go github.com/netapp/nfs-imagecache/utils/exec Command

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	. "github.com/netapp/nfs-imagecache/logging"
)

// xtermControlRegex matches the terminal control sequences some tools emit even when not attached to a tty.
var xtermControlRegex = regexp.MustCompile(`\x1B\[[0-9;]*[A-Za-z]`)

// Command runs external programs on behalf of the image cache.
type Command interface {
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)
	ExecuteWithTimeout(
		ctx context.Context, name string, timeout time.Duration, logOutput bool, args ...string,
	) ([]byte, error)
}

type command struct {
	executor func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func NewCommand() Command {
	return &command{
		executor: exec.CommandContext,
	}
}

// Execute invokes an external process and returns its combined output.
func (c *command) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx = GenerateRequestContextForLayer(ctx, LogLayerUtils)

	Logc(ctx).WithFields(LogFields{
		"command": name,
		"args":    args,
	}).Debug(">>>> command.Execute")

	out, err := c.executor(ctx, name, args...).CombinedOutput()

	Logc(ctx).WithFields(LogFields{
		"command": name,
		"output":  sanitizeExecOutput(string(out)),
		"error":   err,
	}).Debug("<<<< command.Execute")

	return out, err
}

// ExecuteWithTimeout invokes an external process and kills it if it runs longer than timeout.  On timeout the
// output is discarded and the error reports the deadline.
func (c *command) ExecuteWithTimeout(
	ctx context.Context, name string, timeout time.Duration, logOutput bool, args ...string,
) ([]byte, error) {
	ctx = GenerateRequestContextForLayer(ctx, LogLayerUtils)

	Logc(ctx).WithFields(LogFields{
		"command": name,
		"timeout": timeout,
		"args":    args,
	}).Debug(">>>> command.ExecuteWithTimeout")

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := c.executor(timeoutCtx, name, args...).CombinedOutput()
	if timeoutCtx.Err() == context.DeadlineExceeded {
		Logc(ctx).WithFields(LogFields{
			"command": name,
			"timeout": timeout,
		}).Error("Command timed out.")
		return nil, fmt.Errorf("command %s timed out after %v; %w", name, timeout, timeoutCtx.Err())
	}

	fields := LogFields{"command": name, "error": err}
	if logOutput {
		fields["output"] = sanitizeExecOutput(string(out))
	}
	Logc(ctx).WithFields(fields).Debug("<<<< command.ExecuteWithTimeout")

	if err != nil {
		return out, fmt.Errorf("command %s failed; %w", name, err)
	}
	return out, nil
}

// sanitizeExecOutput strips terminal control sequences and collapses trailing newlines.
func sanitizeExecOutput(output string) string {
	output = xtermControlRegex.ReplaceAllString(output, "")
	for strings.HasSuffix(output, "\n\n") {
		output = strings.TrimSuffix(output, "\n")
	}
	return output
}
