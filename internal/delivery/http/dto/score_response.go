package dto

import "jobdeck/internal/domain/score"

type RequirementCheckResponse struct {
	Requirement string `json:"requirement"`
	Met         int    `json:"met"`
}

type ScoreResponse struct {
	Score             int                        `json:"score"`
	Description       string                     `json:"description"`
	RequirementChecks []RequirementCheckResponse `json:"requirement_checks"`
}

func NewScoreResponse(res score.Result) ScoreResponse {
	checks := make([]RequirementCheckResponse, 0, len(res.RequirementChecks))
	for _, rc := range res.RequirementChecks {
		checks = append(checks, RequirementCheckResponse{Requirement: rc.Requirement, Met: rc.Met})
	}
	return ScoreResponse{
		Score:             res.Score,
		Description:       res.Description,
		RequirementChecks: checks,
	}
}
