package dto

import (
	"time"

	"github.com/google/uuid"

	"jobdeck/internal/repository"
)

type JobResponse struct {
	ID            uuid.UUID                  `json:"id"`
	Title         string                     `json:"title"`
	Company       string                     `json:"company"`
	Location      string                     `json:"location,omitempty"`
	URL           string                     `json:"url"`
	ApplyURL      string                     `json:"apply_url,omitempty"`
	AIScore       *int                       `json:"ai_score,omitempty"`
	AIDescription *string                    `json:"ai_description,omitempty"`
	Checks        []RequirementCheckResponse `json:"requirement_checks,omitempty"`
	ScoredAt      *time.Time                 `json:"scored_at,omitempty"`
}

func NewJobResponse(j repository.Job) JobResponse {
	var checks []RequirementCheckResponse
	for _, rc := range j.AIRequirementChecks {
		checks = append(checks, RequirementCheckResponse{Requirement: rc.Requirement, Met: rc.Met})
	}
	return JobResponse{
		ID:            j.ID,
		Title:         j.Title,
		Company:       j.Company,
		Location:      j.Location,
		URL:           j.URL,
		ApplyURL:      j.ApplyURL,
		AIScore:       j.AIScore,
		AIDescription: j.AIDescription,
		Checks:        checks,
		ScoredAt:      j.AIScoredAt,
	}
}
