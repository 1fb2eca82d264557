package quota

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jobdeck/internal/database"
)

// PostgresGate backs the counters with the usage_counters table. Both period
// rows are locked FOR UPDATE inside one transaction, so concurrent increments
// for the same user serialize and the check-then-write pair cannot lose
// updates.
type PostgresGate struct {
	db           database.DB
	dailyLimit   int
	monthlyLimit int
	now          func() time.Time
}

func NewPostgresGate(db database.DB, dailyLimit, monthlyLimit int) *PostgresGate {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	if monthlyLimit <= 0 {
		monthlyLimit = DefaultMonthlyLimit
	}
	return &PostgresGate{db: db, dailyLimit: dailyLimit, monthlyLimit: monthlyLimit, now: time.Now}
}

func (g *PostgresGate) CheckAndIncrement(ctx context.Context, userID uuid.UUID, amount int) error {
	if amount <= 0 {
		amount = 1
	}

	tx, err := g.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ts := g.now()
	dayLimit, monthLimit, err := g.limitsTx(ctx, tx, userID)
	if err != nil {
		return err
	}

	dayUsed, err := lockCounter(ctx, tx, userID, ScopeDaily, DailyKey(ts))
	if err != nil {
		return err
	}
	monthUsed, err := lockCounter(ctx, tx, userID, ScopeMonthly, MonthlyKey(ts))
	if err != nil {
		return err
	}

	if dayUsed+amount > dayLimit {
		return &ExceededError{Scope: ScopeDaily, Used: dayUsed, Limit: dayLimit, ResetAt: DailyResetAt(ts)}
	}
	if monthUsed+amount > monthLimit {
		return &ExceededError{Scope: ScopeMonthly, Used: monthUsed, Limit: monthLimit, ResetAt: MonthlyResetAt(ts)}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE usage_counters SET used = used + $4
		 WHERE user_id = $1 AND scope = $2 AND period_key = $3`,
		userID, ScopeDaily, DailyKey(ts), amount,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE usage_counters SET used = used + $4
		 WHERE user_id = $1 AND scope = $2 AND period_key = $3`,
		userID, ScopeMonthly, MonthlyKey(ts), amount,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (g *PostgresGate) Status(ctx context.Context, userID uuid.UUID) (Status, error) {
	ts := g.now()

	dayLimit, monthLimit, err := g.limits(ctx, userID)
	if err != nil {
		return Status{}, err
	}

	dayUsed, err := g.readUsed(ctx, userID, ScopeDaily, DailyKey(ts))
	if err != nil {
		return Status{}, err
	}
	monthUsed, err := g.readUsed(ctx, userID, ScopeMonthly, MonthlyKey(ts))
	if err != nil {
		return Status{}, err
	}

	return Status{
		DailyUsed:        dayUsed,
		DailyLimit:       dayLimit,
		DailyRemaining:   maxInt(dayLimit-dayUsed, 0),
		DailyResetAt:     DailyResetAt(ts),
		MonthlyUsed:      monthUsed,
		MonthlyLimit:     monthLimit,
		MonthlyRemaining: maxInt(monthLimit-monthUsed, 0),
		MonthlyResetAt:   MonthlyResetAt(ts),
	}, nil
}

func (g *PostgresGate) readUsed(ctx context.Context, userID uuid.UUID, scope Scope, periodKey string) (int, error) {
	var used int
	row := g.db.QueryRow(ctx,
		`SELECT COALESCE(used, 0) FROM usage_counters
		 WHERE user_id = $1 AND scope = $2 AND period_key = $3`,
		userID, scope, periodKey,
	)
	if err := row.Scan(&used); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return used, nil
}

func (g *PostgresGate) limits(ctx context.Context, userID uuid.UUID) (int, int, error) {
	return scanLimits(g.db.QueryRow(ctx, limitsQuery, userID), g.dailyLimit, g.monthlyLimit)
}

func (g *PostgresGate) limitsTx(ctx context.Context, tx database.Tx, userID uuid.UUID) (int, int, error) {
	return scanLimits(tx.QueryRow(ctx, limitsQuery, userID), g.dailyLimit, g.monthlyLimit)
}

const limitsQuery = `SELECT daily_limit, monthly_limit FROM user_quota_overrides WHERE user_id = $1`

func scanLimits(row database.Row, defDaily, defMonthly int) (int, int, error) {
	var daily, monthly *int
	if err := row.Scan(&daily, &monthly); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return defDaily, defMonthly, nil
		}
		return 0, 0, err
	}
	d, m := defDaily, defMonthly
	if daily != nil && *daily > 0 {
		d = *daily
	}
	if monthly != nil && *monthly > 0 {
		m = *monthly
	}
	return d, m, nil
}

// lockCounter ensures the period row exists then takes a row lock on it,
// returning the current used count.
func lockCounter(ctx context.Context, tx database.Tx, userID uuid.UUID, scope Scope, periodKey string) (int, error) {
	if _, err := tx.Exec(ctx,
		`INSERT INTO usage_counters (user_id, scope, period_key, used)
		 VALUES ($1, $2, $3, 0)
		 ON CONFLICT (user_id, scope, period_key) DO NOTHING`,
		userID, scope, periodKey,
	); err != nil {
		return 0, err
	}

	var used int
	row := tx.QueryRow(ctx,
		`SELECT used FROM usage_counters
		 WHERE user_id = $1 AND scope = $2 AND period_key = $3
		 FOR UPDATE`,
		userID, scope, periodKey,
	)
	if err := row.Scan(&used); err != nil {
		return 0, err
	}
	return used, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
