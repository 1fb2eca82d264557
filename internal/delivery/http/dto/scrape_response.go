package dto

import (
	"time"

	"github.com/google/uuid"

	"jobdeck/internal/repository"
)

type ScrapeResponse struct {
	ID               uuid.UUID  `json:"id"`
	Source           string     `json:"source"`
	Status           string     `json:"status"`
	TotalJobs        int        `json:"total_jobs"`
	TotalJobsToScore int        `json:"total_jobs_to_score"`
	JobsScored       int        `json:"jobs_scored"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func NewScrapeResponse(s repository.Scrape) ScrapeResponse {
	return ScrapeResponse{
		ID:               s.ID,
		Source:           s.Source,
		Status:           string(s.Status),
		TotalJobs:        s.TotalJobs,
		TotalJobsToScore: s.TotalJobsToScore,
		JobsScored:       s.JobsScored,
		CompletedAt:      s.CompletedAt,
		ErrorMessage:     s.ErrorMessage,
		CreatedAt:        s.CreatedAt,
	}
}
