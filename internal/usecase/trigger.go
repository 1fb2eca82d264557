package usecase

import (
	"context"
	"log"

	"jobdeck/internal/infrastructure/scraper"
	"jobdeck/internal/schedule"
	"jobdeck/internal/ws"
)

// ScrapeTrigger is what a recurring timer does when it fires: ask the scrape
// worker to start a run and tell connected dashboards about it. The worker
// calls back into ScrapeCompleted when it finishes.
type ScrapeTrigger struct {
	scraper scraper.Client
	hub     *ws.Hub
	logger  *log.Logger
}

func NewScrapeTrigger(scraper scraper.Client, hub *ws.Hub, logger *log.Logger) *ScrapeTrigger {
	return &ScrapeTrigger{scraper: scraper, hub: hub, logger: logger}
}

var _ schedule.Trigger = (*ScrapeTrigger)(nil)

func (t *ScrapeTrigger) Fire(ctx context.Context, cfg schedule.Config) {
	// No worker configured (SCRAPER_BASE_URL unset): the schedule still
	// perpetuates, the run itself is skipped.
	if t.scraper == nil {
		if t.logger != nil {
			t.logger.Printf("[Recurring] No scrape worker configured, skipping run | config=%s user=%s", cfg.ID, cfg.UserID)
		}
		return
	}

	taskID, err := t.scraper.TriggerScrape(ctx, cfg.UserID, cfg.ID)
	if err != nil {
		// The next occurrence is already armed; a missed run is not retried.
		if t.logger != nil {
			t.logger.Printf("[Recurring] Trigger scrape failed | config=%s user=%s err=%v", cfg.ID, cfg.UserID, err)
		}
		return
	}

	if t.logger != nil {
		t.logger.Printf("[Recurring] Scrape triggered | config=%s user=%s task=%s", cfg.ID, cfg.UserID, taskID)
	}
	t.hub.NotifyRecurringFired(cfg.ID)
}
