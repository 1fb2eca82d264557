package scoring

import (
	"context"

	"github.com/google/uuid"

	"jobdeck/internal/domain/score"
	"jobdeck/internal/match"
	"jobdeck/internal/repository"
)

// repoScoredLookup adapts the job repository to the dedup matcher's view of
// previously scored postings.
type repoScoredLookup struct {
	jobs repository.JobRepository
}

func NewScoredLookup(jobs repository.JobRepository) match.ScoredLookup {
	return repoScoredLookup{jobs: jobs}
}

func (l repoScoredLookup) FindScoredByCanonicalURL(ctx context.Context, userID uuid.UUID, canonicalURL string) (*match.ScoredJob, error) {
	job, err := l.jobs.FindScoredByCanonicalURL(ctx, userID, canonicalURL)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}
	sj := toScoredJob(*job)
	return &sj, nil
}

func (l repoScoredLookup) ListScored(ctx context.Context, userID uuid.UUID) ([]match.ScoredJob, error) {
	jobs, err := l.jobs.ListScoredByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]match.ScoredJob, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toScoredJob(j))
	}
	return out, nil
}

func toScoredJob(j repository.Job) match.ScoredJob {
	sj := match.ScoredJob{
		JobID:        j.ID,
		CanonicalURL: j.CanonicalURL,
		Fingerprint: match.FingerprintInput{
			Title:       j.Title,
			Company:     j.Company,
			Description: j.Description,
			Location:    j.Location,
		},
	}
	if j.AIScore != nil {
		sj.Result.Score = *j.AIScore
	}
	if j.AIDescription != nil {
		sj.Result.Description = *j.AIDescription
	}
	sj.Result.RequirementChecks = append([]score.RequirementCheck(nil), j.AIRequirementChecks...)
	if j.AIScoredAt != nil {
		sj.ScoredAt = *j.AIScoredAt
	}
	return sj
}
