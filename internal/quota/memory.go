package quota

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryCounter struct {
	periodKey string
	used      int
}

// MemoryGate keeps counters in process memory behind a mutex. It backs tests
// and single-instance deployments without Postgres.
type MemoryGate struct {
	mu           sync.Mutex
	daily        map[uuid.UUID]*memoryCounter
	monthly      map[uuid.UUID]*memoryCounter
	dailyLimit   int
	monthlyLimit int
	now          func() time.Time
}

func NewMemoryGate(dailyLimit, monthlyLimit int) *MemoryGate {
	return NewMemoryGateWithClock(dailyLimit, monthlyLimit, time.Now)
}

func NewMemoryGateWithClock(dailyLimit, monthlyLimit int, now func() time.Time) *MemoryGate {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	if monthlyLimit <= 0 {
		monthlyLimit = DefaultMonthlyLimit
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryGate{
		daily:        make(map[uuid.UUID]*memoryCounter),
		monthly:      make(map[uuid.UUID]*memoryCounter),
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		now:          now,
	}
}

func (g *MemoryGate) CheckAndIncrement(ctx context.Context, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		amount = 1
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()
	day := g.counter(g.daily, userID, DailyKey(ts))
	month := g.counter(g.monthly, userID, MonthlyKey(ts))

	if day.used+amount > g.dailyLimit {
		return &ExceededError{Scope: ScopeDaily, Used: day.used, Limit: g.dailyLimit, ResetAt: DailyResetAt(ts)}
	}
	if month.used+amount > g.monthlyLimit {
		return &ExceededError{Scope: ScopeMonthly, Used: month.used, Limit: g.monthlyLimit, ResetAt: MonthlyResetAt(ts)}
	}

	day.used += amount
	month.used += amount
	return nil
}

func (g *MemoryGate) Status(ctx context.Context, userID uuid.UUID) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()
	day := g.counter(g.daily, userID, DailyKey(ts))
	month := g.counter(g.monthly, userID, MonthlyKey(ts))

	return Status{
		DailyUsed:        day.used,
		DailyLimit:       g.dailyLimit,
		DailyRemaining:   g.dailyLimit - day.used,
		DailyResetAt:     DailyResetAt(ts),
		MonthlyUsed:      month.used,
		MonthlyLimit:     g.monthlyLimit,
		MonthlyRemaining: g.monthlyLimit - month.used,
		MonthlyResetAt:   MonthlyResetAt(ts),
	}, nil
}

// counter returns the live counter for the period, rolling it over when the
// period key has moved on. Caller holds the mutex.
func (g *MemoryGate) counter(m map[uuid.UUID]*memoryCounter, userID uuid.UUID, key string) *memoryCounter {
	c := m[userID]
	if c == nil || c.periodKey != key {
		c = &memoryCounter{periodKey: key}
		m[userID] = c
	}
	return c
}
