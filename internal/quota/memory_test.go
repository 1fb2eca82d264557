package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryGateDailyLimit(t *testing.T) {
	g := NewMemoryGate(3, 100)
	ctx := context.Background()
	user := uuid.New()

	for i := 0; i < 3; i++ {
		if err := g.CheckAndIncrement(ctx, user, 1); err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
	}

	err := g.CheckAndIncrement(ctx, user, 1)
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected ExceededError, got %v", err)
	}
	if exceeded.Scope != ScopeDaily {
		t.Fatalf("expected daily scope, got %s", exceeded.Scope)
	}
	if exceeded.Used != 3 || exceeded.Limit != 3 {
		t.Fatalf("unexpected counters: used=%d limit=%d", exceeded.Used, exceeded.Limit)
	}

	// The refused call must not have consumed anything.
	st, err := g.Status(ctx, user)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.DailyUsed != 3 {
		t.Fatalf("refusal mutated counter: used=%d", st.DailyUsed)
	}
}

func TestMemoryGateMonthlyLimitBindsAcrossDays(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewMemoryGateWithClock(10, 15, func() time.Time { return clock })
	ctx := context.Background()
	user := uuid.New()

	for i := 0; i < 10; i++ {
		if err := g.CheckAndIncrement(ctx, user, 1); err != nil {
			t.Fatalf("day one increment %d failed: %v", i, err)
		}
	}

	// Next day resets the daily counter, but only 5 monthly units remain.
	clock = clock.AddDate(0, 0, 1)
	for i := 0; i < 5; i++ {
		if err := g.CheckAndIncrement(ctx, user, 1); err != nil {
			t.Fatalf("day two increment %d failed: %v", i, err)
		}
	}

	err := g.CheckAndIncrement(ctx, user, 1)
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected ExceededError, got %v", err)
	}
	if exceeded.Scope != ScopeMonthly {
		t.Fatalf("expected monthly scope, got %s", exceeded.Scope)
	}

	// Month rollover opens the gate again.
	clock = time.Date(2026, 4, 1, 0, 30, 0, 0, time.UTC)
	if err := g.CheckAndIncrement(ctx, user, 1); err != nil {
		t.Fatalf("after month rollover: %v", err)
	}
}

func TestMemoryGateConcurrentIncrementsNeverOvershoot(t *testing.T) {
	const limit = 50
	g := NewMemoryGate(limit, 1000)
	ctx := context.Background()
	user := uuid.New()

	var wg sync.WaitGroup
	granted := make(chan struct{}, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.CheckAndIncrement(ctx, user, 1); err == nil {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	n := 0
	for range granted {
		n++
	}
	if n != limit {
		t.Fatalf("granted %d increments, want exactly %d", n, limit)
	}

	st, err := g.Status(ctx, user)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.DailyUsed != limit || st.DailyRemaining != 0 {
		t.Fatalf("counter drifted: used=%d remaining=%d", st.DailyUsed, st.DailyRemaining)
	}
}

func TestMemoryGateUsersAreIsolated(t *testing.T) {
	g := NewMemoryGate(2, 100)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	for i := 0; i < 2; i++ {
		if err := g.CheckAndIncrement(ctx, a, 1); err != nil {
			t.Fatalf("user a increment failed: %v", err)
		}
	}
	if err := g.CheckAndIncrement(ctx, a, 1); err == nil {
		t.Fatal("user a should be exhausted")
	}
	if err := g.CheckAndIncrement(ctx, b, 1); err != nil {
		t.Fatalf("user b must be unaffected: %v", err)
	}
}

func TestPeriodResetInstants(t *testing.T) {
	ts := time.Date(2026, 8, 28, 15, 42, 0, 0, time.UTC)

	daily := DailyResetAt(ts)
	if !daily.Equal(time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("daily reset = %v", daily)
	}

	monthly := MonthlyResetAt(ts)
	if !monthly.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("monthly reset = %v", monthly)
	}

	dec := time.Date(2026, 12, 15, 3, 0, 0, 0, time.UTC)
	if got := MonthlyResetAt(dec); !got.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("year boundary monthly reset = %v", got)
	}
}
