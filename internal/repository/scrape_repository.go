package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jobdeck/internal/database"
)

var ErrScrapeNotFound = errors.New("scrape not found")

type ScrapeStatus string

const (
	ScrapePending       ScrapeStatus = "pending"
	ScrapeRunning       ScrapeStatus = "running"
	ScrapeCompleted     ScrapeStatus = "completed"
	ScrapeScoring       ScrapeStatus = "scoring"
	ScrapeScoringPaused ScrapeStatus = "scoring_paused"
	ScrapeFailed        ScrapeStatus = "failed"
)

type Scrape struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Source           string
	Status           ScrapeStatus
	TotalJobs        int
	TotalJobsToScore int
	JobsScored       int
	CompletedAt      *time.Time
	ErrorMessage     string
	CreatedAt        time.Time
}

type ScrapeRepository interface {
	Create(ctx context.Context, userID uuid.UUID, source string) (Scrape, error)
	Get(ctx context.Context, id uuid.UUID) (Scrape, error)
	SetStatus(ctx context.Context, id uuid.UUID, status ScrapeStatus) error
	SetTotalJobs(ctx context.Context, id uuid.UUID, total int) error
	// BeginScoring moves the scrape into scoring with a fresh progress frame.
	BeginScoring(ctx context.Context, id uuid.UUID, totalToScore int) error
	SetJobsScored(ctx context.Context, id uuid.UUID, scored int) error
	MarkScoringPaused(ctx context.Context, id uuid.UUID, scored int, reason string) error
	MarkCompleted(ctx context.Context, id uuid.UUID, scored int) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type PostgresScrapeRepository struct {
	db database.DB
}

func NewPostgresScrapeRepository(db database.DB) *PostgresScrapeRepository {
	return &PostgresScrapeRepository{db: db}
}

func (r *PostgresScrapeRepository) Create(ctx context.Context, userID uuid.UUID, source string) (Scrape, error) {
	id := uuid.New()
	if _, err := r.db.Exec(ctx,
		`INSERT INTO scrapes (id, user_id, source, status) VALUES ($1, $2, $3, $4)`,
		id, userID, source, ScrapeRunning,
	); err != nil {
		return Scrape{}, err
	}
	return r.Get(ctx, id)
}

func (r *PostgresScrapeRepository) Get(ctx context.Context, id uuid.UUID) (Scrape, error) {
	var s Scrape
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, COALESCE(source, ''), status,
		        total_jobs, total_jobs_to_score, jobs_scored,
		        completed_at, COALESCE(error_message, ''), created_at
		 FROM scrapes WHERE id = $1`,
		id,
	)
	if err := row.Scan(
		&s.ID, &s.UserID, &s.Source, &s.Status,
		&s.TotalJobs, &s.TotalJobsToScore, &s.JobsScored,
		&s.CompletedAt, &s.ErrorMessage, &s.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Scrape{}, ErrScrapeNotFound
		}
		return Scrape{}, err
	}
	return s, nil
}

func (r *PostgresScrapeRepository) SetStatus(ctx context.Context, id uuid.UUID, status ScrapeStatus) error {
	return r.exec(ctx, `UPDATE scrapes SET status = $2 WHERE id = $1`, id, status)
}

func (r *PostgresScrapeRepository) SetTotalJobs(ctx context.Context, id uuid.UUID, total int) error {
	return r.exec(ctx, `UPDATE scrapes SET total_jobs = $2 WHERE id = $1`, id, total)
}

func (r *PostgresScrapeRepository) BeginScoring(ctx context.Context, id uuid.UUID, totalToScore int) error {
	return r.exec(ctx,
		`UPDATE scrapes
		 SET status = $2, total_jobs_to_score = $3, jobs_scored = 0, error_message = NULL
		 WHERE id = $1`,
		id, ScrapeScoring, totalToScore,
	)
}

func (r *PostgresScrapeRepository) SetJobsScored(ctx context.Context, id uuid.UUID, scored int) error {
	return r.exec(ctx, `UPDATE scrapes SET jobs_scored = $2 WHERE id = $1`, id, scored)
}

func (r *PostgresScrapeRepository) MarkScoringPaused(ctx context.Context, id uuid.UUID, scored int, reason string) error {
	return r.exec(ctx,
		`UPDATE scrapes SET status = $2, jobs_scored = $3, error_message = $4 WHERE id = $1`,
		id, ScrapeScoringPaused, scored, reason,
	)
}

func (r *PostgresScrapeRepository) MarkCompleted(ctx context.Context, id uuid.UUID, scored int) error {
	return r.exec(ctx,
		`UPDATE scrapes
		 SET status = $2, jobs_scored = $3, completed_at = $4, error_message = NULL
		 WHERE id = $1`,
		id, ScrapeCompleted, scored, time.Now().UTC(),
	)
}

func (r *PostgresScrapeRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.exec(ctx,
		`UPDATE scrapes SET status = $2, error_message = $3 WHERE id = $1`,
		id, ScrapeFailed, reason,
	)
}

func (r *PostgresScrapeRepository) exec(ctx context.Context, query string, args ...any) error {
	n, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScrapeNotFound
	}
	return nil
}
