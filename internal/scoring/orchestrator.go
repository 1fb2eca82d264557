package scoring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"jobdeck/internal/infrastructure/llm"
	"jobdeck/internal/match"
	"jobdeck/internal/quota"
	"jobdeck/internal/repository"
)

var (
	ErrPassInProgress = errors.New("scoring pass already running for this scrape")
	ErrNotPaused      = errors.New("scrape is not paused")
	ErrNotScorable    = errors.New("scrape is not in a scorable state")
)

const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = 2 * time.Second
)

// runLocker is the slice of the cache used to keep scoring passes
// single-writer per scrape. A nil locker (cache bypassed) degrades to no
// cross-instance exclusion, which single-instance deployments tolerate.
type runLocker interface {
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Notifier receives orchestration side effects. Implementations must not
// block the pass; delivery failures are theirs to swallow.
type Notifier interface {
	ScoringProgress(scrape repository.Scrape)
	ScoringCompleted(ctx context.Context, scrape repository.Scrape, highScoring []repository.Job)
}

// Orchestrator walks the unscored jobs of one scrape: dedup first, model
// second, pausing the whole scrape the moment quota runs out.
type Orchestrator struct {
	scrapes repository.ScrapeRepository
	jobs    repository.JobRepository
	matcher *match.Matcher
	gate    quota.Gate
	model   llm.Client
	locker  runLocker
	notify  Notifier
	logger  *log.Logger

	batchSize      int
	batchDelay     time.Duration
	highScoreFloor int
	now            func() time.Time
}

type OrchestratorConfig struct {
	BatchSize      int
	BatchDelay     time.Duration
	HighScoreFloor int
}

func NewOrchestrator(
	scrapes repository.ScrapeRepository,
	jobs repository.JobRepository,
	matcher *match.Matcher,
	gate quota.Gate,
	model llm.Client,
	locker runLocker,
	notify Notifier,
	logger *log.Logger,
	cfg OrchestratorConfig,
) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = DefaultBatchDelay
	}
	if cfg.HighScoreFloor <= 0 {
		cfg.HighScoreFloor = 7
	}
	return &Orchestrator{
		scrapes:        scrapes,
		jobs:           jobs,
		matcher:        matcher,
		gate:           gate,
		model:          model,
		locker:         locker,
		notify:         notify,
		logger:         logger,
		batchSize:      cfg.BatchSize,
		batchDelay:     cfg.BatchDelay,
		highScoreFloor: cfg.HighScoreFloor,
		now:            time.Now,
	}
}

// Start runs a scoring pass over a freshly completed scrape.
func (o *Orchestrator) Start(ctx context.Context, scrapeID uuid.UUID) error {
	scrape, err := o.scrapes.Get(ctx, scrapeID)
	if err != nil {
		return err
	}
	if scrape.Status != repository.ScrapeCompleted {
		return fmt.Errorf("%w: status=%s", ErrNotScorable, scrape.Status)
	}
	return o.runPass(ctx, scrape, false)
}

// Resume re-enters a pass paused on quota exhaustion. It recounts first (a
// pass that actually finished converges to completed without touching the
// gate), then refuses with the quota error while either scope is still dry.
func (o *Orchestrator) Resume(ctx context.Context, scrapeID uuid.UUID) error {
	scrape, err := o.scrapes.Get(ctx, scrapeID)
	if err != nil {
		return err
	}
	if scrape.Status != repository.ScrapeScoringPaused {
		return fmt.Errorf("%w: status=%s", ErrNotPaused, scrape.Status)
	}

	scored, err := o.jobs.CountScored(ctx, scrapeID)
	if err != nil {
		return err
	}
	if scored >= scrape.TotalJobsToScore {
		return o.complete(ctx, scrape, scored)
	}

	st, err := o.gate.Status(ctx, scrape.UserID)
	if err != nil {
		return err
	}
	if st.DailyRemaining <= 0 {
		return &quota.ExceededError{Scope: quota.ScopeDaily, Used: st.DailyUsed, Limit: st.DailyLimit, ResetAt: st.DailyResetAt}
	}
	if st.MonthlyRemaining <= 0 {
		return &quota.ExceededError{Scope: quota.ScopeMonthly, Used: st.MonthlyUsed, Limit: st.MonthlyLimit, ResetAt: st.MonthlyResetAt}
	}

	return o.runPass(ctx, scrape, true)
}

// runPass re-scans for jobs lacking a score, which makes re-entry idempotent:
// there is no resumption cursor to corrupt.
func (o *Orchestrator) runPass(ctx context.Context, scrape repository.Scrape, resuming bool) error {
	unlock, err := o.lock(ctx, scrape.ID)
	if err != nil {
		return err
	}
	defer unlock()

	unscored, err := o.jobs.ListUnscored(ctx, scrape.ID)
	if err != nil {
		return err
	}
	if len(unscored) == 0 {
		scored, err := o.jobs.CountScored(ctx, scrape.ID)
		if err != nil {
			return err
		}
		return o.complete(ctx, scrape, scored)
	}

	// Jobs scored by an earlier pass stay inside the progress frame: the
	// total may never sit below the count a terminal recount will observe.
	scored, err := o.jobs.CountScored(ctx, scrape.ID)
	if err != nil {
		return err
	}

	if resuming {
		if err := o.scrapes.SetStatus(ctx, scrape.ID, repository.ScrapeScoring); err != nil {
			return err
		}
		scrape.Status = repository.ScrapeScoring
	} else {
		total := scored + len(unscored)
		if err := o.scrapes.BeginScoring(ctx, scrape.ID, total); err != nil {
			return err
		}
		scrape.Status = repository.ScrapeScoring
		scrape.TotalJobsToScore = total
		if scored > 0 {
			if err := o.scrapes.SetJobsScored(ctx, scrape.ID, scored); err != nil {
				return err
			}
		}
	}
	scrape.JobsScored = scored

	if o.logger != nil {
		o.logger.Printf("[Scoring] Pass started | scrape=%s unscored=%d resuming=%t", scrape.ID, len(unscored), resuming)
	}

	for start := 0; start < len(unscored); start += o.batchSize {
		end := start + o.batchSize
		if end > len(unscored) {
			end = len(unscored)
		}

		for _, job := range unscored[start:end] {
			err := o.scoreOne(ctx, scrape.UserID, job)

			var quotaErr *quota.ExceededError
			if errors.As(err, &quotaErr) {
				// Quota exhaustion is terminal for this run: persist the true
				// progress, pause, and stop touching the remaining jobs.
				if perr := o.scrapes.MarkScoringPaused(ctx, scrape.ID, scored, quotaErr.Error()); perr != nil {
					return perr
				}
				scrape.Status = repository.ScrapeScoringPaused
				scrape.JobsScored = scored
				o.progress(scrape)
				if o.logger != nil {
					o.logger.Printf("[Scoring] Paused on quota | scrape=%s scored=%d scope=%s", scrape.ID, scored, quotaErr.Scope)
				}
				return quotaErr
			}
			if err != nil {
				// Any other per-job failure: leave the job unscored for a
				// future pass and keep going.
				if o.logger != nil {
					o.logger.Printf("[Scoring] Job error, skipping | scrape=%s job=%s err=%v", scrape.ID, job.ID, err)
				}
				continue
			}

			scored++
			if err := o.scrapes.SetJobsScored(ctx, scrape.ID, scored); err != nil {
				return err
			}
			scrape.JobsScored = scored
			o.progress(scrape)
		}

		if end < len(unscored) {
			if err := o.sleep(ctx); err != nil {
				return err
			}
		}
	}

	// Recount from the jobs themselves to correct drift from skipped jobs.
	final, err := o.jobs.CountScored(ctx, scrape.ID)
	if err != nil {
		return err
	}
	return o.complete(ctx, scrape, final)
}

// scoreOne evaluates a single job: copy from a scored equivalent when one
// exists, otherwise consume quota and call the model.
func (o *Orchestrator) scoreOne(ctx context.Context, userID uuid.UUID, job repository.Job) error {
	if o.matcher != nil {
		hit, err := o.matcher.Find(ctx, userID, match.JobKey{
			CanonicalURL: job.CanonicalURL,
			Title:        job.Title,
			Company:      job.Company,
			Description:  job.Description,
			Location:     job.Location,
		})
		if err != nil {
			return fmt.Errorf("dedup lookup: %w", err)
		}
		if hit != nil {
			res := hit.Job.Result
			res.Description += match.CopiedScoreMarker
			return o.jobs.ApplyScore(ctx, job.ID, res, o.now().UTC())
		}
	}

	if err := o.gate.CheckAndIncrement(ctx, userID, 1); err != nil {
		return err
	}

	res, err := o.model.Score(ctx, llm.JobInput{
		Title:       job.Title,
		Company:     job.Company,
		Location:    job.Location,
		Description: job.Description,
	})
	if err != nil {
		return err
	}
	if err := res.Validate(); err != nil {
		return fmt.Errorf("%w: %v", llm.ErrUpstream, err)
	}

	return o.jobs.ApplyScore(ctx, job.ID, res, o.now().UTC())
}

func (o *Orchestrator) complete(ctx context.Context, scrape repository.Scrape, scored int) error {
	if err := o.scrapes.MarkCompleted(ctx, scrape.ID, scored); err != nil {
		return err
	}
	scrape.Status = repository.ScrapeCompleted
	scrape.JobsScored = scored
	o.progress(scrape)

	if o.logger != nil {
		o.logger.Printf("[Scoring] Pass completed | scrape=%s scored=%d", scrape.ID, scored)
	}

	if o.notify != nil {
		high, err := o.jobs.ListHighScoring(ctx, scrape.ID, o.highScoreFloor)
		if err != nil {
			if o.logger != nil {
				o.logger.Printf("[Scoring] High-score lookup error | scrape=%s err=%v", scrape.ID, err)
			}
			high = nil
		}
		o.notify.ScoringCompleted(ctx, scrape, high)
	}
	return nil
}

func (o *Orchestrator) progress(scrape repository.Scrape) {
	if o.notify != nil {
		o.notify.ScoringProgress(scrape)
	}
}

func (o *Orchestrator) lock(ctx context.Context, scrapeID uuid.UUID) (func(), error) {
	if o.locker == nil {
		return func() {}, nil
	}
	key := "scoring:run:" + scrapeID.String()
	ok, err := o.locker.SetIfNotExists(ctx, key, "1", 15*time.Minute)
	if err != nil {
		// Cache trouble must not block scoring; proceed without the lock.
		if o.logger != nil {
			o.logger.Printf("[Scoring] Run lock unavailable | scrape=%s err=%v", scrapeID, err)
		}
		return func() {}, nil
	}
	if !ok {
		return nil, ErrPassInProgress
	}
	return func() {
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.locker.Delete(rctx, key)
	}, nil
}

func (o *Orchestrator) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.batchDelay):
		return nil
	}
}
