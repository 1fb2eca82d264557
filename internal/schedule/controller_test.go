package schedule

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeTimers records arm/cancel calls and lets tests fire callbacks manually.
type fakeTimers struct {
	mu        sync.Mutex
	seq       int
	active    map[Handle]func()
	cancelled []Handle
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{active: map[Handle]func(){}}
}

func (t *fakeTimers) Arm(_ time.Duration, fn func()) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	h := Handle(fmt.Sprintf("timer-%d", t.seq))
	t.active[h] = fn
	return h
}

func (t *fakeTimers) Cancel(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = append(t.cancelled, h)
	delete(t.active, h)
}

func (t *fakeTimers) Active(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[h]
	return ok
}

// trip pops the callback for a handle and runs it, as the real timer would.
func (t *fakeTimers) trip(h Handle) {
	t.mu.Lock()
	fn := t.active[h]
	delete(t.active, h)
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *fakeTimers) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

type fakeConfigStore struct {
	mu      sync.Mutex
	configs map[uuid.UUID]Config
}

func newFakeConfigStore(cfgs ...Config) *fakeConfigStore {
	s := &fakeConfigStore{configs: map[uuid.UUID]Config{}}
	for _, c := range cfgs {
		s.configs[c.ID] = c
	}
	return s
}

func (s *fakeConfigStore) Get(_ context.Context, id uuid.UUID) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[id]
	if !ok {
		return Config{}, ErrConfigNotFound
	}
	return cfg, nil
}

func (s *fakeConfigStore) SetTimerState(_ context.Context, id uuid.UUID, handle string, nextRun *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[id]
	if !ok {
		return ErrConfigNotFound
	}
	cfg.TimerHandle = handle
	cfg.NextRun = nextRun
	s.configs[id] = cfg
	return nil
}

func (s *fakeConfigStore) SetLastRun(_ context.Context, id uuid.UUID, lastRun time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[id]
	if !ok {
		return ErrConfigNotFound
	}
	cfg.LastRun = &lastRun
	s.configs[id] = cfg
	return nil
}

func (s *fakeConfigStore) ListEnabled(_ context.Context) ([]Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Config, 0, len(s.configs))
	for _, cfg := range s.configs {
		if cfg.Enabled {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *fakeConfigStore) delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.configs, id)
}

func (s *fakeConfigStore) setEnabled(id uuid.UUID, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.configs[id]
	cfg.Enabled = enabled
	s.configs[id] = cfg
}

type recordingTrigger struct {
	mu    sync.Mutex
	fired []uuid.UUID
}

func (r *recordingTrigger) Fire(_ context.Context, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, cfg.ID)
}

func (r *recordingTrigger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func dailyConfig(enabled bool) Config {
	return Config{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		Enabled: enabled,
		Recurrence: Recurrence{
			Frequency: Daily,
			Hour:      9,
			Minute:    0,
		},
	}
}

func TestRescheduleArmsEnabledConfig(t *testing.T) {
	cfg := dailyConfig(true)
	store := newFakeConfigStore(cfg)
	timers := newFakeTimers()
	ctrl := NewController(store, timers, &recordingTrigger{}, time.UTC, nil)

	if err := ctrl.Reschedule(context.Background(), cfg.ID); err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}

	got, _ := store.Get(context.Background(), cfg.ID)
	if got.TimerHandle == "" {
		t.Fatal("expected a stored timer handle")
	}
	if got.NextRun == nil || !got.NextRun.After(time.Now()) {
		t.Fatalf("expected a future next_run, got %v", got.NextRun)
	}
	if !ctrl.TimerActive(got) {
		t.Fatal("stored handle should reference a live timer")
	}
}

func TestRescheduleCancelsBeforeRearming(t *testing.T) {
	cfg := dailyConfig(true)
	store := newFakeConfigStore(cfg)
	timers := newFakeTimers()
	ctrl := NewController(store, timers, &recordingTrigger{}, time.UTC, nil)

	ctx := context.Background()
	if err := ctrl.Reschedule(ctx, cfg.ID); err != nil {
		t.Fatalf("first Reschedule failed: %v", err)
	}
	first, _ := store.Get(ctx, cfg.ID)

	if err := ctrl.Reschedule(ctx, cfg.ID); err != nil {
		t.Fatalf("second Reschedule failed: %v", err)
	}
	second, _ := store.Get(ctx, cfg.ID)

	if first.TimerHandle == second.TimerHandle {
		t.Fatal("rearm must produce a fresh handle")
	}
	if timers.Active(Handle(first.TimerHandle)) {
		t.Fatal("old timer must be cancelled before the new one is armed")
	}
	if timers.count() != 1 {
		t.Fatalf("exactly one live timer expected, got %d", timers.count())
	}
}

func TestRescheduleDisabledClearsTimer(t *testing.T) {
	cfg := dailyConfig(true)
	store := newFakeConfigStore(cfg)
	timers := newFakeTimers()
	ctrl := NewController(store, timers, &recordingTrigger{}, time.UTC, nil)

	ctx := context.Background()
	if err := ctrl.Reschedule(ctx, cfg.ID); err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}

	store.setEnabled(cfg.ID, false)
	if err := ctrl.Reschedule(ctx, cfg.ID); err != nil {
		t.Fatalf("Reschedule after disable failed: %v", err)
	}

	got, _ := store.Get(ctx, cfg.ID)
	if got.TimerHandle != "" || got.NextRun != nil {
		t.Fatalf("disabled config must carry no timer state, got handle=%q next=%v", got.TimerHandle, got.NextRun)
	}
	if timers.count() != 0 {
		t.Fatalf("no live timers expected, got %d", timers.count())
	}
}

func TestFireRunsTriggerAndRearms(t *testing.T) {
	cfg := dailyConfig(true)
	store := newFakeConfigStore(cfg)
	timers := newFakeTimers()
	trigger := &recordingTrigger{}
	ctrl := NewController(store, timers, trigger, time.UTC, nil)

	ctx := context.Background()
	if err := ctrl.Reschedule(ctx, cfg.ID); err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	armed, _ := store.Get(ctx, cfg.ID)

	timers.trip(Handle(armed.TimerHandle))

	if trigger.count() != 1 {
		t.Fatalf("trigger fired %d times, want 1", trigger.count())
	}

	after, _ := store.Get(ctx, cfg.ID)
	if after.LastRun == nil {
		t.Fatal("last_run must be recorded")
	}
	if after.TimerHandle == "" || after.TimerHandle == armed.TimerHandle {
		t.Fatalf("execution must arm a fresh timer, got handle=%q", after.TimerHandle)
	}
	if timers.count() != 1 {
		t.Fatalf("exactly one live timer expected after fire, got %d", timers.count())
	}
}

func TestFireIsNoOpWhenConfigDeleted(t *testing.T) {
	cfg := dailyConfig(true)
	store := newFakeConfigStore(cfg)
	timers := newFakeTimers()
	trigger := &recordingTrigger{}
	ctrl := NewController(store, timers, trigger, time.UTC, nil)

	ctx := context.Background()
	if err := ctrl.Reschedule(ctx, cfg.ID); err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	armed, _ := store.Get(ctx, cfg.ID)

	// Deleted between arming and firing.
	store.delete(cfg.ID)
	timers.trip(Handle(armed.TimerHandle))

	if trigger.count() != 0 {
		t.Fatal("deleted config must not trigger")
	}
	if timers.count() != 0 {
		t.Fatalf("no timers should remain, got %d", timers.count())
	}
}

func TestFireIsNoOpWhenConfigDisabled(t *testing.T) {
	cfg := dailyConfig(true)
	store := newFakeConfigStore(cfg)
	timers := newFakeTimers()
	trigger := &recordingTrigger{}
	ctrl := NewController(store, timers, trigger, time.UTC, nil)

	ctx := context.Background()
	if err := ctrl.Reschedule(ctx, cfg.ID); err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	armed, _ := store.Get(ctx, cfg.ID)

	store.setEnabled(cfg.ID, false)
	timers.trip(Handle(armed.TimerHandle))

	if trigger.count() != 0 {
		t.Fatal("disabled config must not trigger")
	}
	got, _ := store.Get(ctx, cfg.ID)
	if got.TimerHandle != "" {
		t.Fatalf("stale handle must be cleared, got %q", got.TimerHandle)
	}
}

func TestDisarmClearsStateAndTolerantOfMissing(t *testing.T) {
	cfg := dailyConfig(true)
	store := newFakeConfigStore(cfg)
	timers := newFakeTimers()
	ctrl := NewController(store, timers, &recordingTrigger{}, time.UTC, nil)

	ctx := context.Background()
	if err := ctrl.Reschedule(ctx, cfg.ID); err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if err := ctrl.Disarm(ctx, cfg.ID); err != nil {
		t.Fatalf("Disarm failed: %v", err)
	}
	got, _ := store.Get(ctx, cfg.ID)
	if got.TimerHandle != "" || timers.count() != 0 {
		t.Fatal("disarm must cancel the timer and clear the handle")
	}

	if err := ctrl.Disarm(ctx, uuid.New()); err != nil {
		t.Fatalf("Disarm of unknown config must be a no-op, got %v", err)
	}
}
