package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Scope string

const (
	ScopeDaily   Scope = "daily"
	ScopeMonthly Scope = "monthly"
)

const (
	DefaultDailyLimit   = 100
	DefaultMonthlyLimit = 1000
)

// ExceededError reports which cap blocked an increment. It is never retried
// automatically; callers either wait for ResetAt or an explicit resume.
type ExceededError struct {
	Scope   Scope
	Used    int
	Limit   int
	ResetAt time.Time
}

func (e *ExceededError) Error() string {
	if e == nil {
		return "quota exceeded"
	}
	return fmt.Sprintf("%s quota exceeded: used=%d limit=%d resets=%s",
		e.Scope, e.Used, e.Limit, e.ResetAt.UTC().Format(time.RFC3339))
}

type Status struct {
	DailyUsed        int
	DailyLimit       int
	DailyRemaining   int
	DailyResetAt     time.Time
	MonthlyUsed      int
	MonthlyLimit     int
	MonthlyRemaining int
	MonthlyResetAt   time.Time
}

// Gate enforces per-user daily and monthly caps on model calls.
type Gate interface {
	// CheckAndIncrement consumes amount units from both period counters, or
	// neither: if either cap would be exceeded it returns *ExceededError and
	// makes no mutation. Atomic against concurrent callers for one user.
	CheckAndIncrement(ctx context.Context, userID uuid.UUID, amount int) error

	// Status reports remaining units and reset instants without mutating.
	Status(ctx context.Context, userID uuid.UUID) (Status, error)
}

// DailyKey and MonthlyKey name the UTC period a counter row belongs to.
func DailyKey(now time.Time) string   { return now.UTC().Format("2006-01-02") }
func MonthlyKey(now time.Time) string { return now.UTC().Format("2006-01") }

// DailyResetAt is the next UTC midnight after now.
func DailyResetAt(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// MonthlyResetAt is the first instant of the next UTC month after now.
func MonthlyResetAt(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
