package schedule

import (
	"context"
	"testing"
	"time"
)

func TestSweepRearmsConfigsWithDeadHandles(t *testing.T) {
	// Survivor: live timer and a future next_run. Orphan: a handle left over
	// from before a restart that references no timer.
	survivor := dailyConfig(true)
	orphan := dailyConfig(true)
	orphan.TimerHandle = "timer-from-previous-boot"
	disabled := dailyConfig(false)

	store := newFakeConfigStore(survivor, orphan, disabled)
	timers := newFakeTimers()
	ctrl := NewController(store, timers, &recordingTrigger{}, time.UTC, nil)

	ctx := context.Background()
	if err := ctrl.Reschedule(ctx, survivor.ID); err != nil {
		t.Fatalf("arm survivor: %v", err)
	}
	survivorArmed, _ := store.Get(ctx, survivor.ID)

	s := NewSweeper(store, ctrl, 5, nil)
	s.sweep()

	// Orphan got a real timer.
	orphanAfter, _ := store.Get(ctx, orphan.ID)
	if orphanAfter.TimerHandle == "" || orphanAfter.TimerHandle == "timer-from-previous-boot" {
		t.Fatalf("orphan not re-armed, handle=%q", orphanAfter.TimerHandle)
	}
	if !ctrl.TimerActive(orphanAfter) {
		t.Fatal("orphan handle must reference a live timer")
	}

	// Survivor untouched.
	survivorAfter, _ := store.Get(ctx, survivor.ID)
	if survivorAfter.TimerHandle != survivorArmed.TimerHandle {
		t.Fatal("healthy config must not be re-armed")
	}

	// Disabled config stays out of the picture.
	disabledAfter, _ := store.Get(ctx, disabled.ID)
	if disabledAfter.TimerHandle != "" {
		t.Fatal("disabled config must not gain a timer")
	}
}

func TestSweepRearmsWhenNextRunIsStale(t *testing.T) {
	cfg := dailyConfig(true)
	store := newFakeConfigStore(cfg)
	timers := newFakeTimers()
	ctrl := NewController(store, timers, &recordingTrigger{}, time.UTC, nil)

	ctx := context.Background()
	if err := ctrl.Reschedule(ctx, cfg.ID); err != nil {
		t.Fatalf("arm: %v", err)
	}

	// Simulate a next_run that slipped into the past while the process slept.
	stale := time.Now().Add(-time.Hour)
	armed, _ := store.Get(ctx, cfg.ID)
	if err := store.SetTimerState(ctx, cfg.ID, armed.TimerHandle, &stale); err != nil {
		t.Fatalf("set stale state: %v", err)
	}

	s := NewSweeper(store, ctrl, 5, nil)
	s.sweep()

	after, _ := store.Get(ctx, cfg.ID)
	if after.NextRun == nil || !after.NextRun.After(time.Now()) {
		t.Fatalf("stale next_run not repaired: %v", after.NextRun)
	}
	if after.TimerHandle == armed.TimerHandle {
		t.Fatal("stale timer must be replaced")
	}
}
