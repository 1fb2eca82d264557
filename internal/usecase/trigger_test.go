package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"jobdeck/internal/infrastructure/scraper"
	"jobdeck/internal/schedule"
)

type fakeScrapeWorker struct {
	calls int
	err   error
}

func (f *fakeScrapeWorker) TriggerScrape(ctx context.Context, userID, configID uuid.UUID) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "task-1", nil
}

func TestScrapeTriggerFireWithoutWorker(t *testing.T) {
	// SCRAPER_BASE_URL unset leaves the client nil; a timer fire must be a
	// logged skip, not a panic.
	trg := NewScrapeTrigger(scraper.NewClient("", "", nil), nil, nil)
	trg.Fire(context.Background(), schedule.Config{ID: uuid.New(), UserID: uuid.New()})
}

func TestScrapeTriggerFireCallsWorker(t *testing.T) {
	worker := &fakeScrapeWorker{}
	trg := NewScrapeTrigger(worker, nil, nil)

	trg.Fire(context.Background(), schedule.Config{ID: uuid.New(), UserID: uuid.New()})
	if worker.calls != 1 {
		t.Fatalf("worker calls = %d, want 1", worker.calls)
	}
}

func TestScrapeTriggerFireSwallowsWorkerError(t *testing.T) {
	worker := &fakeScrapeWorker{err: errors.New("worker down")}
	trg := NewScrapeTrigger(worker, nil, nil)

	// A missed run is not retried; the next occurrence is already armed.
	trg.Fire(context.Background(), schedule.Config{ID: uuid.New(), UserID: uuid.New()})
	if worker.calls != 1 {
		t.Fatalf("worker calls = %d, want 1", worker.calls)
	}
}
