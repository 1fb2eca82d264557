package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"jobdeck/internal/domain/score"
	"jobdeck/internal/repository"
)

type stubScrapeRepo struct {
	mu         sync.Mutex
	scrapes    map[uuid.UUID]repository.Scrape
	markFailed error
}

func newStubScrapeRepo() *stubScrapeRepo {
	return &stubScrapeRepo{scrapes: map[uuid.UUID]repository.Scrape{}}
}

func (r *stubScrapeRepo) Create(_ context.Context, userID uuid.UUID, source string) (repository.Scrape, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc := repository.Scrape{ID: uuid.New(), UserID: userID, Source: source, Status: repository.ScrapeRunning}
	r.scrapes[sc.ID] = sc
	return sc, nil
}

func (r *stubScrapeRepo) Get(_ context.Context, id uuid.UUID) (repository.Scrape, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.scrapes[id]
	if !ok {
		return repository.Scrape{}, repository.ErrScrapeNotFound
	}
	return sc, nil
}

func (r *stubScrapeRepo) update(id uuid.UUID, fn func(*repository.Scrape)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.scrapes[id]
	if !ok {
		return repository.ErrScrapeNotFound
	}
	fn(&sc)
	r.scrapes[id] = sc
	return nil
}

func (r *stubScrapeRepo) SetStatus(_ context.Context, id uuid.UUID, status repository.ScrapeStatus) error {
	return r.update(id, func(sc *repository.Scrape) { sc.Status = status })
}

func (r *stubScrapeRepo) SetTotalJobs(_ context.Context, id uuid.UUID, total int) error {
	return r.update(id, func(sc *repository.Scrape) { sc.TotalJobs = total })
}

func (r *stubScrapeRepo) BeginScoring(_ context.Context, id uuid.UUID, totalToScore int) error {
	return r.update(id, func(sc *repository.Scrape) {
		sc.Status = repository.ScrapeScoring
		sc.TotalJobsToScore = totalToScore
		sc.JobsScored = 0
	})
}

func (r *stubScrapeRepo) SetJobsScored(_ context.Context, id uuid.UUID, scored int) error {
	return r.update(id, func(sc *repository.Scrape) { sc.JobsScored = scored })
}

func (r *stubScrapeRepo) MarkScoringPaused(_ context.Context, id uuid.UUID, scored int, reason string) error {
	return r.update(id, func(sc *repository.Scrape) {
		sc.Status = repository.ScrapeScoringPaused
		sc.JobsScored = scored
		sc.ErrorMessage = reason
	})
}

func (r *stubScrapeRepo) MarkCompleted(_ context.Context, id uuid.UUID, scored int) error {
	return r.update(id, func(sc *repository.Scrape) {
		sc.Status = repository.ScrapeCompleted
		sc.JobsScored = scored
	})
}

func (r *stubScrapeRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	if r.markFailed != nil {
		return r.markFailed
	}
	return r.update(id, func(sc *repository.Scrape) {
		sc.Status = repository.ScrapeFailed
		sc.ErrorMessage = reason
	})
}

type stubJobRepo struct {
	mu        sync.Mutex
	inserted  []repository.NewJob
	insertErr error
}

func (r *stubJobRepo) InsertJobs(_ context.Context, _, _ uuid.UUID, jobs []repository.NewJob) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.inserted = append(r.inserted, jobs...)
	return len(jobs), nil
}

func (r *stubJobRepo) GetByID(context.Context, uuid.UUID) (repository.Job, error) {
	return repository.Job{}, errors.New("not implemented")
}

func (r *stubJobRepo) ListUnscored(context.Context, uuid.UUID) ([]repository.Job, error) {
	return nil, nil
}

func (r *stubJobRepo) CountScored(context.Context, uuid.UUID) (int, error) { return 0, nil }

func (r *stubJobRepo) ApplyScore(context.Context, uuid.UUID, score.Result, time.Time) error {
	return nil
}

func (r *stubJobRepo) FindScoredByCanonicalURL(context.Context, uuid.UUID, string) (*repository.Job, error) {
	return nil, nil
}

func (r *stubJobRepo) ListScoredByUser(context.Context, uuid.UUID) ([]repository.Job, error) {
	return nil, nil
}

func (r *stubJobRepo) ListHighScoring(context.Context, uuid.UUID, int) ([]repository.Job, error) {
	return nil, nil
}

type stubScoringStarter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubScoringStarter) Start(context.Context, uuid.UUID, uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func TestScrapeCompletedWithNilLogger(t *testing.T) {
	scrapes := newStubScrapeRepo()
	jobs := &stubJobRepo{}
	starter := &stubScoringStarter{err: errors.New("quota backend down")}
	u := NewIngestUsecase(scrapes, jobs, starter, nil)

	payloads := []map[string]any{
		{"title": "Backend Engineer", "company": "Acme", "description": "Go services", "url": "https://jobs.acme.dev/1"},
		{"company": "NoTitle Inc"}, // unusable, skipped
	}

	sc, err := u.ScrapeCompleted(context.Background(), uuid.New(), "linkedin", payloads)
	if err != nil {
		t.Fatalf("ScrapeCompleted: %v", err)
	}
	if sc.Status != repository.ScrapeCompleted {
		t.Fatalf("status = %s, want completed", sc.Status)
	}
	if sc.TotalJobs != 1 || len(jobs.inserted) != 1 {
		t.Fatalf("inserted = %d (total %d), want 1", len(jobs.inserted), sc.TotalJobs)
	}
	if starter.calls != 1 {
		t.Fatalf("scoring starts = %d, want 1", starter.calls)
	}
}

func TestScrapeCompletedInsertFailureWithNilLogger(t *testing.T) {
	scrapes := newStubScrapeRepo()
	scrapes.markFailed = errors.New("db gone")
	jobs := &stubJobRepo{insertErr: errors.New("insert rejected")}
	u := NewIngestUsecase(scrapes, jobs, &stubScoringStarter{}, nil)

	payloads := []map[string]any{
		{"title": "Backend Engineer", "company": "Acme", "description": "Go services", "url": "https://jobs.acme.dev/1"},
	}

	if _, err := u.ScrapeCompleted(context.Background(), uuid.New(), "linkedin", payloads); err == nil {
		t.Fatal("expected insert error to propagate")
	}
}
