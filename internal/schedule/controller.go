package schedule

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrConfigNotFound = errors.New("recurring config not found")

// Config mirrors one recurring_configs row as the controller sees it.
type Config struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Recurrence  Recurrence
	Enabled     bool
	TimerHandle string
	LastRun     *time.Time
	NextRun     *time.Time
}

// ConfigStore is the slice of the recurring-config store the controller
// needs. SetTimerState with an empty handle and nil nextRun clears both.
type ConfigStore interface {
	Get(ctx context.Context, id uuid.UUID) (Config, error)
	SetTimerState(ctx context.Context, id uuid.UUID, handle string, nextRun *time.Time) error
	SetLastRun(ctx context.Context, id uuid.UUID, lastRun time.Time) error
	ListEnabled(ctx context.Context) ([]Config, error)
}

// Trigger starts the downstream scrape when a recurring config fires.
type Trigger interface {
	Fire(ctx context.Context, cfg Config)
}

// Controller owns the cancel-then-rearm discipline: a config has at most one
// live timer at any time, and every schedule-affecting change goes through
// Reschedule. All timer state transitions for a record are serialized by one
// mutex so a fire racing an edit cannot leave an orphaned timer.
type Controller struct {
	mu      sync.Mutex
	store   ConfigStore
	timers  Timers
	trigger Trigger
	loc     *time.Location
	logger  *log.Logger
	now     func() time.Time
}

func NewController(store ConfigStore, timers Timers, trigger Trigger, loc *time.Location, logger *log.Logger) *Controller {
	if loc == nil {
		loc = time.UTC
	}
	return &Controller{
		store:   store,
		timers:  timers,
		trigger: trigger,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}
}

// Reschedule cancels any outstanding timer for the config and, when the
// config is enabled, arms a fresh one at the next computed run. Called on
// creation, on any schedule-affecting edit, and after each execution.
func (c *Controller) Reschedule(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rescheduleLocked(ctx, id)
}

func (c *Controller) rescheduleLocked(ctx context.Context, id uuid.UUID) error {
	cfg, err := c.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if cfg.TimerHandle != "" {
		c.timers.Cancel(Handle(cfg.TimerHandle))
	}

	if !cfg.Enabled {
		if err := c.store.SetTimerState(ctx, id, "", nil); err != nil {
			return err
		}
		if c.logger != nil {
			c.logger.Printf("[Schedule] Disarmed | config=%s", id)
		}
		return nil
	}

	next, err := NextRun(cfg.Recurrence, c.now(), c.loc)
	if err != nil {
		return err
	}

	handle := c.timers.Arm(next.Sub(c.now()), func() { c.fire(id) })
	if err := c.store.SetTimerState(ctx, id, string(handle), &next); err != nil {
		c.timers.Cancel(handle)
		return err
	}

	if c.logger != nil {
		c.logger.Printf("[Schedule] Armed | config=%s next_run=%s", id, next.Format(time.RFC3339))
	}
	return nil
}

// Disarm cancels the live timer, if any, and clears the stored handle. Used
// when a config is deleted.
func (c *Controller) Disarm(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, err := c.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return nil
		}
		return err
	}
	if cfg.TimerHandle != "" {
		c.timers.Cancel(Handle(cfg.TimerHandle))
	}
	return c.store.SetTimerState(ctx, id, "", nil)
}

// fire runs when an armed timer goes off. The config is re-read at fire time:
// a config disabled or deleted since arming turns the firing into a no-op
// rather than an error.
func (c *Controller) fire(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, err := c.store.Get(ctx, id)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("[Schedule] Fire skipped, config gone | config=%s err=%v", id, err)
		}
		return
	}
	if !cfg.Enabled {
		_ = c.store.SetTimerState(ctx, id, "", nil)
		if c.logger != nil {
			c.logger.Printf("[Schedule] Fire skipped, config disabled | config=%s", id)
		}
		return
	}

	// The timer that called us is spent; drop the stale handle before
	// anything else so a crash mid-fire cannot leave it looking live.
	if err := c.store.SetTimerState(ctx, id, "", nil); err != nil {
		if c.logger != nil {
			c.logger.Printf("[Schedule] Fire error | config=%s err=%v", id, err)
		}
		return
	}

	firedAt := c.now()
	if err := c.store.SetLastRun(ctx, id, firedAt); err != nil && c.logger != nil {
		c.logger.Printf("[Schedule] SetLastRun error | config=%s err=%v", id, err)
	}

	if c.logger != nil {
		c.logger.Printf("[Schedule] Fired | config=%s user=%s", id, cfg.UserID)
	}
	if c.trigger != nil {
		c.trigger.Fire(ctx, cfg)
	}

	// Recurrence perpetuates itself: each execution arms the next one.
	if err := c.rescheduleLocked(ctx, id); err != nil && c.logger != nil {
		c.logger.Printf("[Schedule] Rearm error | config=%s err=%v", id, err)
	}
}

// TimerActive reports whether the stored handle still references a live
// timer. The sweeper uses it to spot handles lost to a restart.
func (c *Controller) TimerActive(cfg Config) bool {
	return cfg.TimerHandle != "" && c.timers.Active(Handle(cfg.TimerHandle))
}
