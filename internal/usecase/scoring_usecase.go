package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"jobdeck/internal/domain/score"
	"jobdeck/internal/infrastructure/llm"
	"jobdeck/internal/quota"
	"jobdeck/internal/repository"
	"jobdeck/internal/scoring"
)

// passTimeout bounds one background scoring pass; inter-batch delays plus a
// full quota's worth of model calls fit comfortably.
const passTimeout = 30 * time.Minute

type ScoringUsecase interface {
	// Start validates and kicks a scoring pass in the background.
	Start(ctx context.Context, userID, scrapeID uuid.UUID) error
	// Resume re-enters a paused pass; refuses synchronously while quota is dry.
	Resume(ctx context.Context, userID, scrapeID uuid.UUID) error
	Progress(ctx context.Context, userID, scrapeID uuid.UUID) (repository.Scrape, error)
	// ScoreJobStream scores one job with live partial snapshots, for the
	// extension's interactive flow.
	ScoreJobStream(ctx context.Context, userID, jobID uuid.UUID, onPartial func(score.Result)) (score.Result, error)
}

type Scoring struct {
	scrapes repository.ScrapeRepository
	jobs    repository.JobRepository
	orch    *scoring.Orchestrator
	gate    quota.Gate
	model   llm.Client
	logger  *log.Logger
}

func NewScoringUsecase(
	scrapes repository.ScrapeRepository,
	jobs repository.JobRepository,
	orch *scoring.Orchestrator,
	gate quota.Gate,
	model llm.Client,
	logger *log.Logger,
) *Scoring {
	return &Scoring{scrapes: scrapes, jobs: jobs, orch: orch, gate: gate, model: model, logger: logger}
}

func (u *Scoring) Start(ctx context.Context, userID, scrapeID uuid.UUID) error {
	scrape, err := u.owned(ctx, userID, scrapeID)
	if err != nil {
		return err
	}
	if scrape.Status != repository.ScrapeCompleted {
		return fmt.Errorf("%w: scrape status is %s", ErrInvalidInput, scrape.Status)
	}

	go u.runDetached(scrapeID, func(ctx context.Context) error {
		return u.orch.Start(ctx, scrapeID)
	})
	return nil
}

func (u *Scoring) Resume(ctx context.Context, userID, scrapeID uuid.UUID) error {
	scrape, err := u.owned(ctx, userID, scrapeID)
	if err != nil {
		return err
	}
	if scrape.Status != repository.ScrapeScoringPaused {
		return fmt.Errorf("%w: scrape status is %s", ErrInvalidInput, scrape.Status)
	}

	// The quota refusal has to reach the caller, so check before detaching.
	st, err := u.gate.Status(ctx, userID)
	if err != nil {
		return err
	}
	if st.DailyRemaining <= 0 {
		return &quota.ExceededError{Scope: quota.ScopeDaily, Used: st.DailyUsed, Limit: st.DailyLimit, ResetAt: st.DailyResetAt}
	}
	if st.MonthlyRemaining <= 0 {
		return &quota.ExceededError{Scope: quota.ScopeMonthly, Used: st.MonthlyUsed, Limit: st.MonthlyLimit, ResetAt: st.MonthlyResetAt}
	}

	go u.runDetached(scrapeID, func(ctx context.Context) error {
		return u.orch.Resume(ctx, scrapeID)
	})
	return nil
}

func (u *Scoring) Progress(ctx context.Context, userID, scrapeID uuid.UUID) (repository.Scrape, error) {
	return u.owned(ctx, userID, scrapeID)
}

func (u *Scoring) ScoreJobStream(ctx context.Context, userID, jobID uuid.UUID, onPartial func(score.Result)) (score.Result, error) {
	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return score.Result{}, err
	}
	if job.UserID != userID {
		return score.Result{}, ErrAccessDenied
	}

	if job.Scored() {
		res := score.Result{Score: *job.AIScore, RequirementChecks: job.AIRequirementChecks}
		if job.AIDescription != nil {
			res.Description = *job.AIDescription
		}
		return res, nil
	}

	if err := u.gate.CheckAndIncrement(ctx, userID, 1); err != nil {
		return score.Result{}, err
	}

	frags, errc := u.model.ScoreStream(ctx, llm.JobInput{
		Title:       job.Title,
		Company:     job.Company,
		Location:    job.Location,
		Description: job.Description,
	})

	res, err := scoring.ConsumeStream(ctx, frags, errc, onPartial)
	if err != nil {
		return score.Result{}, err
	}

	if err := u.jobs.ApplyScore(ctx, jobID, res, time.Now().UTC()); err != nil {
		return score.Result{}, err
	}
	return res, nil
}

func (u *Scoring) owned(ctx context.Context, userID, scrapeID uuid.UUID) (repository.Scrape, error) {
	scrape, err := u.scrapes.Get(ctx, scrapeID)
	if err != nil {
		return repository.Scrape{}, err
	}
	if scrape.UserID != userID {
		return repository.Scrape{}, ErrAccessDenied
	}
	return scrape, nil
}

// runDetached runs a pass on a fresh context so the HTTP request ending does
// not cancel it. A quota pause surfaces through scrape status, not the error.
func (u *Scoring) runDetached(scrapeID uuid.UUID, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	if err := run(ctx); err != nil {
		var quotaErr *quota.ExceededError
		if errors.As(err, &quotaErr) {
			return // expected pause, already persisted
		}
		if u.logger != nil {
			u.logger.Printf("[Scoring] Pass error | scrape=%s err=%v", scrapeID, err)
		}
	}
}
