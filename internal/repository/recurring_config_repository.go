package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jobdeck/internal/database"
	"jobdeck/internal/schedule"
)

// PostgresRecurringConfigRepository persists recurring_configs rows and
// implements schedule.ConfigStore for the reschedule controller.
type PostgresRecurringConfigRepository struct {
	db database.DB
}

func NewPostgresRecurringConfigRepository(db database.DB) *PostgresRecurringConfigRepository {
	return &PostgresRecurringConfigRepository{db: db}
}

const recurringColumns = `id, user_id, frequency, hour, minute, day_of_week, day_of_month,
	enabled, COALESCE(timer_handle, ''), last_run, next_run`

func (r *PostgresRecurringConfigRepository) Create(ctx context.Context, cfg schedule.Config) (schedule.Config, error) {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	if _, err := r.db.Exec(ctx,
		`INSERT INTO recurring_configs
		   (id, user_id, frequency, hour, minute, day_of_week, day_of_month, enabled)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cfg.ID, cfg.UserID, cfg.Recurrence.Frequency, cfg.Recurrence.Hour, cfg.Recurrence.Minute,
		cfg.Recurrence.DayOfWeek, cfg.Recurrence.DayOfMonth, cfg.Enabled,
	); err != nil {
		return schedule.Config{}, err
	}
	return r.Get(ctx, cfg.ID)
}

func (r *PostgresRecurringConfigRepository) Get(ctx context.Context, id uuid.UUID) (schedule.Config, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+recurringColumns+` FROM recurring_configs WHERE id = $1`, id)
	cfg, err := scanConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Config{}, schedule.ErrConfigNotFound
		}
		return schedule.Config{}, err
	}
	return cfg, nil
}

func (r *PostgresRecurringConfigRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]schedule.Config, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recurringColumns+` FROM recurring_configs WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConfigs(rows)
}

func (r *PostgresRecurringConfigRepository) ListEnabled(ctx context.Context) ([]schedule.Config, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recurringColumns+` FROM recurring_configs WHERE enabled = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConfigs(rows)
}

// Update rewrites the schedule-affecting fields. The caller is responsible
// for running the reschedule discipline afterwards.
func (r *PostgresRecurringConfigRepository) Update(ctx context.Context, cfg schedule.Config) error {
	return r.exec(ctx,
		`UPDATE recurring_configs
		 SET frequency = $2, hour = $3, minute = $4, day_of_week = $5, day_of_month = $6, enabled = $7
		 WHERE id = $1`,
		cfg.ID, cfg.Recurrence.Frequency, cfg.Recurrence.Hour, cfg.Recurrence.Minute,
		cfg.Recurrence.DayOfWeek, cfg.Recurrence.DayOfMonth, cfg.Enabled,
	)
}

func (r *PostgresRecurringConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM recurring_configs WHERE id = $1`, id)
}

func (r *PostgresRecurringConfigRepository) SetTimerState(ctx context.Context, id uuid.UUID, handle string, nextRun *time.Time) error {
	var h *string
	if handle != "" {
		h = &handle
	}
	return r.exec(ctx,
		`UPDATE recurring_configs SET timer_handle = $2, next_run = $3 WHERE id = $1`,
		id, h, nextRun,
	)
}

func (r *PostgresRecurringConfigRepository) SetLastRun(ctx context.Context, id uuid.UUID, lastRun time.Time) error {
	return r.exec(ctx,
		`UPDATE recurring_configs SET last_run = $2 WHERE id = $1`,
		id, lastRun,
	)
}

func (r *PostgresRecurringConfigRepository) exec(ctx context.Context, query string, args ...any) error {
	n, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return schedule.ErrConfigNotFound
	}
	return nil
}

func scanConfigs(rows database.Rows) ([]schedule.Config, error) {
	out := make([]schedule.Config, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanConfig(row database.Row) (schedule.Config, error) {
	var cfg schedule.Config
	var freq string
	if err := row.Scan(
		&cfg.ID, &cfg.UserID, &freq, &cfg.Recurrence.Hour, &cfg.Recurrence.Minute,
		&cfg.Recurrence.DayOfWeek, &cfg.Recurrence.DayOfMonth,
		&cfg.Enabled, &cfg.TimerHandle, &cfg.LastRun, &cfg.NextRun,
	); err != nil {
		return schedule.Config{}, err
	}
	cfg.Recurrence.Frequency = schedule.Frequency(freq)
	return cfg, nil
}
