// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/netapp/nfs-imagecache/logging"
)

// HousekeeperState is the lifecycle state of the Housekeeper.
type HousekeeperState int32

const (
	HousekeeperStopped HousekeeperState = iota
	HousekeeperRunning
	HousekeeperStopping
)

func (s *HousekeeperState) get() HousekeeperState {
	return HousekeeperState(atomic.LoadInt32((*int32)(s)))
}

func (s *HousekeeperState) set(newState HousekeeperState) {
	atomic.StoreInt32((*int32)(s), int32(newState))
}

func (s *HousekeeperState) compareAndSwap(oldState, newState HousekeeperState) bool {
	return atomic.CompareAndSwapInt32((*int32)(s), int32(oldState), int32(newState))
}

func (s HousekeeperState) String() string {
	switch s {
	case HousekeeperStopped:
		return "Stopped"
	case HousekeeperRunning:
		return "Running"
	case HousekeeperStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

type statsUpdater interface {
	UpdateStats(ctx context.Context) []ShareStats
}

// Housekeeper refreshes share stats on a fixed period.  Each refresh also triggers cache reclamation.
type Housekeeper struct {
	state    HousekeeperState
	stateMu  sync.Mutex
	interval time.Duration
	updater  statsUpdater

	ticker *time.Ticker
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewHousekeeper(interval time.Duration, updater statsUpdater) *Housekeeper {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	return &Housekeeper{
		state:    HousekeeperStopped,
		interval: interval,
		updater:  updater,
	}
}

// Activate starts the refresh loop.  The first refresh runs at once.  Activating a running Housekeeper is a no-op.
func (h *Housekeeper) Activate(ctx context.Context) error {
	Logc(ctx).Debug(">>>> Housekeeper.Activate")
	defer Logc(ctx).Debug("<<<< Housekeeper.Activate")

	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	if !h.state.compareAndSwap(HousekeeperStopped, HousekeeperRunning) {
		currentState := h.state.get()
		if currentState == HousekeeperRunning {
			return nil
		}
		return fmt.Errorf("cannot activate housekeeper: current state is %s", currentState)
	}

	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})
	h.ticker = time.NewTicker(h.interval)

	loopCtx := GenerateRequestContext(context.WithoutCancel(ctx), "", ContextSourcePeriodic,
		WorkflowShareGetStats, LogLayerImageCache)
	go h.loop(loopCtx, h.ticker, h.stopCh, h.doneCh)

	Logc(ctx).WithField("interval", h.interval).Info("Image cache housekeeping activated.")
	return nil
}

func (h *Housekeeper) loop(ctx context.Context, ticker *time.Ticker, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	h.updater.UpdateStats(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			h.updater.UpdateStats(ctx)
		}
	}
}

// Deactivate stops the refresh loop and waits for an in-flight refresh to return.  A reclamation pass it
// triggered keeps running.
func (h *Housekeeper) Deactivate(ctx context.Context) error {
	Logc(ctx).Debug(">>>> Housekeeper.Deactivate")
	defer Logc(ctx).Debug("<<<< Housekeeper.Deactivate")

	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	if !h.state.compareAndSwap(HousekeeperRunning, HousekeeperStopping) {
		currentState := h.state.get()
		if currentState == HousekeeperStopped {
			return nil
		}
		return fmt.Errorf("cannot deactivate housekeeper: current state is %s", currentState)
	}

	h.ticker.Stop()
	close(h.stopCh)
	<-h.doneCh

	h.state.set(HousekeeperStopped)
	Logc(ctx).Info("Image cache housekeeping deactivated.")
	return nil
}

func (h *Housekeeper) State() HousekeeperState {
	return h.state.get()
}
