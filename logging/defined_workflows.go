// Copyright 2025 NetApp, Inc. All Rights Reserved.

package logging

const (
	workflowCategorySeparator = "="

	CategoryCore   = WorkflowCategory("core")
	CategoryPlugin = WorkflowCategory("plugin")
	CategoryCache  = WorkflowCategory("cache")
	CategoryShare  = WorkflowCategory("share")
	CategoryNone   = WorkflowCategory("none")

	OpInit       = WorkflowOperation("init")
	OpVersion    = WorkflowOperation("version")
	OpActivate   = WorkflowOperation("activate")
	OpDeactivate = WorkflowOperation("deactivate")
	OpReclaim    = WorkflowOperation("reclaim")
	OpScan       = WorkflowOperation("scan")
	OpRegister   = WorkflowOperation("register")
	OpClone      = WorkflowOperation("clone")
	OpLookup     = WorkflowOperation("lookup")
	OpGetStats   = WorkflowOperation("get_stats")
	OpList       = WorkflowOperation("list")
	OpNone       = WorkflowOperation("none")
)

var (
	WorkflowCoreInit    = Workflow{CategoryCore, OpInit}
	WorkflowCoreVersion = Workflow{CategoryCore, OpVersion}

	WorkflowPluginActivate   = Workflow{CategoryPlugin, OpActivate}
	WorkflowPluginDeactivate = Workflow{CategoryPlugin, OpDeactivate}

	WorkflowCacheReclaim  = Workflow{CategoryCache, OpReclaim}
	WorkflowCacheScan     = Workflow{CategoryCache, OpScan}
	WorkflowCacheRegister = Workflow{CategoryCache, OpRegister}
	WorkflowCacheClone    = Workflow{CategoryCache, OpClone}
	WorkflowCacheLookup   = Workflow{CategoryCache, OpLookup}

	WorkflowShareGetStats = Workflow{CategoryShare, OpGetStats}
	WorkflowShareList     = Workflow{CategoryShare, OpList}

	WorkflowNone = Workflow{CategoryNone, OpNone}
)
