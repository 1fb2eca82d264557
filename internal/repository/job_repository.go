package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jobdeck/internal/database"
	"jobdeck/internal/domain/score"
)

var ErrJobNotFound = errors.New("job not found")

type Job struct {
	ID            uuid.UUID
	ScrapeID      uuid.UUID
	UserID        uuid.UUID
	Title         string
	Company       string
	Location      string
	Description   string
	URL           string
	CanonicalURL  string
	ExternalJobID string
	ApplyURL      string

	AIScore             *int
	AIDescription       *string
	AIRequirementChecks []score.RequirementCheck
	AIScoredAt          *time.Time

	CreatedAt time.Time
}

// Scored reports whether the job carries a usable score.
func (j Job) Scored() bool {
	return j.AIScore != nil && *j.AIScore > 0
}

type NewJob struct {
	Title         string
	Company       string
	Location      string
	Description   string
	URL           string
	CanonicalURL  string
	ExternalJobID string
	ApplyURL      string
}

type JobRepository interface {
	InsertJobs(ctx context.Context, scrapeID, userID uuid.UUID, jobs []NewJob) (int, error)
	GetByID(ctx context.Context, jobID uuid.UUID) (Job, error)
	ListUnscored(ctx context.Context, scrapeID uuid.UUID) ([]Job, error)
	CountScored(ctx context.Context, scrapeID uuid.UUID) (int, error)
	ApplyScore(ctx context.Context, jobID uuid.UUID, res score.Result, scoredAt time.Time) error
	FindScoredByCanonicalURL(ctx context.Context, userID uuid.UUID, canonicalURL string) (*Job, error)
	ListScoredByUser(ctx context.Context, userID uuid.UUID) ([]Job, error)
	ListHighScoring(ctx context.Context, scrapeID uuid.UUID, minScore int) ([]Job, error)
}

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

const jobColumns = `id, scrape_id, user_id,
	COALESCE(title, ''), COALESCE(company, ''), COALESCE(location, ''),
	COALESCE(description, ''), COALESCE(url, ''), COALESCE(canonical_url, ''),
	COALESCE(external_job_id, ''), COALESCE(apply_url, ''),
	ai_score, ai_description, ai_requirement_checks, ai_scored_at, created_at`

func (r *PostgresJobRepository) InsertJobs(ctx context.Context, scrapeID, userID uuid.UUID, jobs []NewJob) (int, error) {
	inserted := 0
	for _, j := range jobs {
		n, err := r.db.Exec(ctx,
			`INSERT INTO jobs (id, scrape_id, user_id, title, company, location, description,
			                   url, canonical_url, external_job_id, apply_url)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			uuid.New(), scrapeID, userID, j.Title, j.Company, j.Location, j.Description,
			j.URL, j.CanonicalURL, j.ExternalJobID, j.ApplyURL,
		)
		if err != nil {
			return inserted, err
		}
		inserted += int(n)
	}
	return inserted, nil
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, jobID uuid.UUID) (Job, error) {
	row := r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, ErrJobNotFound
		}
		return Job{}, err
	}
	return j, nil
}

func (r *PostgresJobRepository) ListUnscored(ctx context.Context, scrapeID uuid.UUID) ([]Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE scrape_id = $1 AND (ai_score IS NULL OR ai_score <= 0)
		 ORDER BY created_at ASC`,
		scrapeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *PostgresJobRepository) CountScored(ctx context.Context, scrapeID uuid.UUID) (int, error) {
	var n int
	row := r.db.QueryRow(ctx,
		`SELECT COUNT(1) FROM jobs WHERE scrape_id = $1 AND ai_score > 0`,
		scrapeID,
	)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresJobRepository) ApplyScore(ctx context.Context, jobID uuid.UUID, res score.Result, scoredAt time.Time) error {
	checks, err := json.Marshal(res.RequirementChecks)
	if err != nil {
		return err
	}

	n, err := r.db.Exec(ctx,
		`UPDATE jobs
		 SET ai_score = $2, ai_description = $3, ai_requirement_checks = $4::jsonb, ai_scored_at = $5
		 WHERE id = $1`,
		jobID, res.Score, res.Description, string(checks), scoredAt,
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *PostgresJobRepository) FindScoredByCanonicalURL(ctx context.Context, userID uuid.UUID, canonicalURL string) (*Job, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE user_id = $1 AND canonical_url = $2 AND ai_score > 0
		 ORDER BY ai_scored_at DESC
		 LIMIT 1`,
		userID, canonicalURL,
	)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

func (r *PostgresJobRepository) ListScoredByUser(ctx context.Context, userID uuid.UUID) ([]Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE user_id = $1 AND ai_score > 0
		 ORDER BY ai_scored_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (r *PostgresJobRepository) ListHighScoring(ctx context.Context, scrapeID uuid.UUID, minScore int) ([]Job, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE scrape_id = $1 AND ai_score >= $2
		 ORDER BY ai_score DESC`,
		scrapeID, minScore,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func scanJobs(rows database.Rows) ([]Job, error) {
	out := make([]Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanJob(row database.Row) (Job, error) {
	var j Job
	var checks []byte
	if err := row.Scan(
		&j.ID, &j.ScrapeID, &j.UserID,
		&j.Title, &j.Company, &j.Location,
		&j.Description, &j.URL, &j.CanonicalURL,
		&j.ExternalJobID, &j.ApplyURL,
		&j.AIScore, &j.AIDescription, &checks, &j.AIScoredAt, &j.CreatedAt,
	); err != nil {
		return Job{}, err
	}
	if len(checks) > 0 {
		if err := json.Unmarshal(checks, &j.AIRequirementChecks); err != nil {
			return Job{}, err
		}
	}
	return j, nil
}
