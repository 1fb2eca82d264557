package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper re-arms recurring timers lost across a process restart or whose
// stored nextRun drifted into the past. Timer handles live in memory, so a
// reboot leaves enabled configs with handles that reference nothing; the
// sweep detects and repairs that on a fixed cadence.
type Sweeper struct {
	cron   *cron.Cron
	store  ConfigStore
	ctrl   *Controller
	logger *log.Logger
	spec   string
}

func NewSweeper(store ConfigStore, ctrl *Controller, intervalMinutes int, logger *log.Logger) *Sweeper {
	if intervalMinutes <= 0 {
		intervalMinutes = 5
	}
	return &Sweeper{
		cron:   cron.New(),
		store:  store,
		ctrl:   ctrl,
		logger: logger,
		spec:   fmt.Sprintf("@every %dm", intervalMinutes),
	}
}

func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	if s.logger != nil {
		s.logger.Printf("[Sweeper] Started | spec=%s", s.spec)
	}

	// Run once immediately so timers come back right after boot.
	go s.sweep()
	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
	if s.logger != nil {
		s.logger.Printf("[Sweeper] Stopped")
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	configs, err := s.store.ListEnabled(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("[Sweeper] ListEnabled error: %v", err)
		}
		return
	}

	rearmed := 0
	for _, cfg := range configs {
		if s.ctrl.TimerActive(cfg) && cfg.NextRun != nil && cfg.NextRun.After(time.Now()) {
			continue
		}
		if err := s.ctrl.Reschedule(ctx, cfg.ID); err != nil {
			if s.logger != nil {
				s.logger.Printf("[Sweeper] Reschedule error | config=%s err=%v", cfg.ID, err)
			}
			continue
		}
		rearmed++
	}

	if rearmed > 0 && s.logger != nil {
		s.logger.Printf("[Sweeper] Re-armed %d config(s)", rearmed)
	}
}
