// Copyright 2025 NetApp, Inc. All Rights Reserved.

package logging

const (
	MaxLogEntryLength = 64000
	TextFormat        = "text"
	JSONFormat        = "json"
	PlainFormat       = "plain"
)
