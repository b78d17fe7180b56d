// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"sort"

	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
)

// LRUPlanner evicts the least recently used cache files first.
type LRUPlanner struct{}

var _ types.EvictionPlanner = LRUPlanner{}

func NewLRUPlanner() LRUPlanner {
	return LRUPlanner{}
}

// Plan orders candidates oldest first (ties by name, then share) and takes the shortest prefix whose total size
// reaches bytesToFree.  When the candidates cannot cover the target the plan holds all of them.
func (LRUPlanner) Plan(candidates []types.CacheFile, bytesToFree int64) types.ReclaimPlan {
	plan := types.ReclaimPlan{Target: bytesToFree}
	if bytesToFree <= 0 || len(candidates) == 0 {
		return plan
	}

	ordered := make([]types.CacheFile, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.AgeMinutes != b.AgeMinutes {
			return a.AgeMinutes > b.AgeMinutes
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Share.String() < b.Share.String()
	})

	for _, file := range ordered {
		if plan.TotalBytes >= bytesToFree {
			break
		}
		plan.Files = append(plan.Files, file)
		plan.TotalBytes += file.SizeBytes
	}
	return plan
}
