package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"jobdeck/internal/repository"
	"jobdeck/internal/schedule"
)

type RecurringUsecase interface {
	Create(ctx context.Context, userID uuid.UUID, rec schedule.Recurrence, enabled bool) (schedule.Config, error)
	Get(ctx context.Context, userID, configID uuid.UUID) (schedule.Config, error)
	List(ctx context.Context, userID uuid.UUID) ([]schedule.Config, error)
	Update(ctx context.Context, userID, configID uuid.UUID, rec schedule.Recurrence, enabled bool) (schedule.Config, error)
	Delete(ctx context.Context, userID, configID uuid.UUID) error
	// NextRuns previews the next n fire times without touching any timer.
	NextRuns(ctx context.Context, userID, configID uuid.UUID, n int) ([]time.Time, error)
}

type Recurring struct {
	configs *repository.PostgresRecurringConfigRepository
	ctrl    *schedule.Controller
	loc     *time.Location
	logger  *log.Logger
}

func NewRecurringUsecase(
	configs *repository.PostgresRecurringConfigRepository,
	ctrl *schedule.Controller,
	loc *time.Location,
	logger *log.Logger,
) *Recurring {
	return &Recurring{configs: configs, ctrl: ctrl, loc: loc, logger: logger}
}

func (u *Recurring) Create(ctx context.Context, userID uuid.UUID, rec schedule.Recurrence, enabled bool) (schedule.Config, error) {
	if err := rec.Validate(); err != nil {
		return schedule.Config{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	cfg, err := u.configs.Create(ctx, schedule.Config{
		UserID:     userID,
		Recurrence: rec,
		Enabled:    enabled,
	})
	if err != nil {
		return schedule.Config{}, err
	}

	if err := u.ctrl.Reschedule(ctx, cfg.ID); err != nil && u.logger != nil {
		// The row exists either way; the sweeper will re-arm it later.
		u.logger.Printf("[Recurring] Arm after create failed | config=%s err=%v", cfg.ID, err)
	}
	return u.configs.Get(ctx, cfg.ID)
}

func (u *Recurring) Get(ctx context.Context, userID, configID uuid.UUID) (schedule.Config, error) {
	return u.owned(ctx, userID, configID)
}

func (u *Recurring) List(ctx context.Context, userID uuid.UUID) ([]schedule.Config, error) {
	return u.configs.ListByUser(ctx, userID)
}

func (u *Recurring) Update(ctx context.Context, userID, configID uuid.UUID, rec schedule.Recurrence, enabled bool) (schedule.Config, error) {
	if err := rec.Validate(); err != nil {
		return schedule.Config{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	cfg, err := u.owned(ctx, userID, configID)
	if err != nil {
		return schedule.Config{}, err
	}

	cfg.Recurrence = rec
	cfg.Enabled = enabled
	if err := u.configs.Update(ctx, cfg); err != nil {
		return schedule.Config{}, err
	}

	if err := u.ctrl.Reschedule(ctx, configID); err != nil {
		return schedule.Config{}, err
	}
	return u.configs.Get(ctx, configID)
}

func (u *Recurring) Delete(ctx context.Context, userID, configID uuid.UUID) error {
	if _, err := u.owned(ctx, userID, configID); err != nil {
		return err
	}
	if err := u.ctrl.Disarm(ctx, configID); err != nil && !errors.Is(err, schedule.ErrConfigNotFound) {
		return err
	}
	return u.configs.Delete(ctx, configID)
}

func (u *Recurring) NextRuns(ctx context.Context, userID, configID uuid.UUID, n int) ([]time.Time, error) {
	cfg, err := u.owned(ctx, userID, configID)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > 30 {
		return nil, fmt.Errorf("%w: preview count must be between 1 and 30", ErrInvalidInput)
	}

	out := make([]time.Time, 0, n)
	now := time.Now()
	for i := 0; i < n; i++ {
		next, err := schedule.NextRun(cfg.Recurrence, now, u.loc)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		now = next
	}
	return out, nil
}

func (u *Recurring) owned(ctx context.Context, userID, configID uuid.UUID) (schedule.Config, error) {
	cfg, err := u.configs.Get(ctx, configID)
	if err != nil {
		return schedule.Config{}, err
	}
	if cfg.UserID != userID {
		return schedule.Config{}, ErrAccessDenied
	}
	return cfg, nil
}
