// Copyright 2025 NetApp, Inc. All Rights Reserved.

package exec

import (
	"context"
	b64 "encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// fakeExecResults is what the re-executed test binary prints and exits with, see TestShellProcess.
type fakeExecResults struct {
	out     string
	code    int
	padding int
	delay   time.Duration
}

// newFakeExecCommand returns an executor that runs this test binary as TestShellProcess instead of command.
func newFakeExecCommand(results fakeExecResults) func(ctx context.Context, command string, args ...string) *exec.Cmd {
	return func(ctx context.Context, command string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestShellProcess", "--", command}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...) // #nosec G204 -- re-runs the test binary

		env := []string{
			"GO_TEST=1",
			fmt.Sprintf("GOCOVERDIR=%s", os.Getenv("GOCOVERDIR")),
			fmt.Sprintf("GO_TEST_RETURN_VALUE=%s", b64.StdEncoding.EncodeToString([]byte(results.out))),
			fmt.Sprintf("GO_TEST_RETURN_CODE=%d", results.code),
		}
		if results.padding != 0 {
			env = append(env, fmt.Sprintf("GO_TEST_RETURN_PADDING_LENGTH=%d", results.padding))
		}
		if results.delay != 0 {
			env = append(env, fmt.Sprintf("GO_TEST_DELAY=%s", results.delay))
		}
		cmd.Env = env
		return cmd
	}
}
