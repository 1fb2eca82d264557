package usecase

import (
	"context"
	"log"

	"github.com/google/uuid"

	"jobdeck/internal/ingest"
	"jobdeck/internal/match"
	"jobdeck/internal/repository"
)

type IngestUsecase interface {
	// ScrapeCompleted ingests the jobs a finished scrape produced and kicks
	// scoring. Unusable payload entries are counted but not stored.
	ScrapeCompleted(ctx context.Context, userID uuid.UUID, source string, payloads []map[string]any) (repository.Scrape, error)
}

// scoringStarter is the slice of the scoring flow ingestion needs.
type scoringStarter interface {
	Start(ctx context.Context, userID, scrapeID uuid.UUID) error
}

type Ingest struct {
	scrapes repository.ScrapeRepository
	jobs    repository.JobRepository
	scoring scoringStarter
	logger  *log.Logger
}

func NewIngestUsecase(
	scrapes repository.ScrapeRepository,
	jobs repository.JobRepository,
	scoring scoringStarter,
	logger *log.Logger,
) *Ingest {
	return &Ingest{scrapes: scrapes, jobs: jobs, scoring: scoring, logger: logger}
}

func (u *Ingest) ScrapeCompleted(ctx context.Context, userID uuid.UUID, source string, payloads []map[string]any) (repository.Scrape, error) {
	scrape, err := u.scrapes.Create(ctx, userID, source)
	if err != nil {
		return repository.Scrape{}, err
	}
	if err := u.scrapes.SetStatus(ctx, scrape.ID, repository.ScrapeRunning); err != nil {
		return repository.Scrape{}, err
	}

	rows := make([]repository.NewJob, 0, len(payloads))
	skipped := 0
	for _, payload := range payloads {
		raw := ingest.Extract(payload)
		if !raw.Usable() {
			skipped++
			continue
		}
		rows = append(rows, repository.NewJob{
			Title:         raw.Title,
			Company:       raw.Company,
			Location:      raw.Location,
			Description:   raw.Description,
			URL:           raw.URL,
			CanonicalURL:  match.CanonicalURL(raw.URL),
			ExternalJobID: raw.ExternalJobID,
			ApplyURL:      raw.ApplyURL,
		})
	}

	inserted, err := u.jobs.InsertJobs(ctx, scrape.ID, userID, rows)
	if err != nil {
		if mErr := u.scrapes.MarkFailed(ctx, scrape.ID, err.Error()); mErr != nil && u.logger != nil {
			u.logger.Printf("[Ingest] Mark failed error | scrape=%s err=%v", scrape.ID, mErr)
		}
		return repository.Scrape{}, err
	}

	if err := u.scrapes.SetTotalJobs(ctx, scrape.ID, inserted); err != nil {
		return repository.Scrape{}, err
	}
	if err := u.scrapes.SetStatus(ctx, scrape.ID, repository.ScrapeCompleted); err != nil {
		return repository.Scrape{}, err
	}

	if u.logger != nil {
		u.logger.Printf("[Ingest] Scrape ingested | scrape=%s user=%s inserted=%d skipped=%d",
			scrape.ID, userID, inserted, skipped)
	}

	if err := u.scoring.Start(ctx, userID, scrape.ID); err != nil && u.logger != nil {
		// Ingestion succeeded; scoring can be started again from the dashboard.
		u.logger.Printf("[Ingest] Auto-start scoring failed | scrape=%s err=%v", scrape.ID, err)
	}

	return u.scrapes.Get(ctx, scrape.ID)
}
