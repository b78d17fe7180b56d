// Copyright 2025 NetApp, Inc. All Rights Reserved.

package logging

const (
	LogLayerCore            = LogLayer("core")
	LogLayerImageCache      = LogLayer("imagecache")
	LogLayerOntapAPI        = LogLayer("ontap_api")
	LogLayerMetricsFrontend = LogLayer("metrics_frontend")
	LogLayerCLI             = LogLayer("cli")
	LogLayerUtils           = LogLayer("utils")
	LogLayerNone            = LogLayer("none")
)
