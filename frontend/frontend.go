// Copyright 2025 NetApp, Inc. All Rights Reserved.

package frontend

// Plugin is a surface the daemon serves for the image cache, started after the cache is activated and stopped
// before it is deactivated.
type Plugin interface {
	Activate() error
	Deactivate() error
	GetName() string
	Version() string
}
