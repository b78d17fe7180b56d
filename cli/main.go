// Copyright 2025 NetApp, Inc. All Rights Reserved.

package main

import (
	"context"
	"os"

	"github.com/netapp/nfs-imagecache/cli/cmd"
)

func main() {
	cmd.ExitCode = cmd.ExitCodeSuccess

	if err := cmd.RootCmd.ExecuteContext(context.Background()); err != nil {
		cmd.SetExitCodeFromError(err)
	}

	os.Exit(cmd.ExitCode)
}
