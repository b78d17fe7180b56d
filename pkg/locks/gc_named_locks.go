// Copyright 2025 NetApp, Inc. All Rights Reserved.

package locks

import "sync"

// LockedResource holds a named lock until Unlock is called.  Unlock is idempotent; the caller must still call it,
// typically via defer.
type LockedResource struct {
	name   string
	unlock func()
}

// Name returns the resource name that is locked.
func (lr *LockedResource) Name() string {
	return lr.name
}

// Unlock releases the lock on this resource.  Subsequent calls are no-ops.
func (lr *LockedResource) Unlock() {
	if lr.unlock != nil {
		lr.unlock()
		lr.unlock = nil
	}
}

// GCNamedMutex provides named RW mutexes that are dropped from the map as soon as nobody holds or waits on them,
// so an unbounded key space (one key per cache file) does not leak memory.
type GCNamedMutex struct {
	mutexes map[string]*gcMutex
	m       *sync.Mutex
}

type gcMutex struct {
	m sync.RWMutex
	c int
}

func NewGCNamedMutex() *GCNamedMutex {
	return &GCNamedMutex{
		mutexes: make(map[string]*gcMutex),
		m:       &sync.Mutex{},
	}
}

// acquire returns the mutex for name with its reference count already raised.
func (g *GCNamedMutex) acquire(name string) *gcMutex {
	g.m.Lock()
	defer g.m.Unlock()

	resourceMutex, ok := g.mutexes[name]
	if !ok {
		resourceMutex = &gcMutex{}
		g.mutexes[name] = resourceMutex
	}
	resourceMutex.c++
	return resourceMutex
}

// release drops one reference to name and returns its mutex, or nil if name is unknown.
func (g *GCNamedMutex) release(name string) *gcMutex {
	g.m.Lock()
	defer g.m.Unlock()

	resourceMutex, ok := g.mutexes[name]
	if !ok {
		return nil
	}
	resourceMutex.c--
	if resourceMutex.c == 0 {
		delete(g.mutexes, name)
	}
	return resourceMutex
}

func (g *GCNamedMutex) Lock(name string) {
	g.acquire(name).m.Lock()
}

func (g *GCNamedMutex) Unlock(name string) {
	if resourceMutex := g.release(name); resourceMutex != nil {
		resourceMutex.m.Unlock()
	}
}

func (g *GCNamedMutex) RLock(name string) {
	g.acquire(name).m.RLock()
}

func (g *GCNamedMutex) RUnlock(name string) {
	if resourceMutex := g.release(name); resourceMutex != nil {
		resourceMutex.m.RUnlock()
	}
}

// Len returns the number of names currently held or waited on.
func (g *GCNamedMutex) Len() int {
	g.m.Lock()
	defer g.m.Unlock()
	return len(g.mutexes)
}

// LockWithGuard acquires a write lock and returns a wrapper for convenient unlock handling.
//
//	locked := mutex.LockWithGuard(path)
//	defer locked.Unlock()
func (g *GCNamedMutex) LockWithGuard(name string) *LockedResource {
	g.Lock(name)
	return &LockedResource{
		name:   name,
		unlock: func() { g.Unlock(name) },
	}
}

// RLockWithGuard acquires a read lock and returns a wrapper for convenient unlock handling.
func (g *GCNamedMutex) RLockWithGuard(name string) *LockedResource {
	g.RLock(name)
	return &LockedResource{
		name:   name,
		unlock: func() { g.RUnlock(name) },
	}
}
