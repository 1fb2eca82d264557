package score

import "errors"

var ErrInvalid = errors.New("invalid score result")

type RequirementCheck struct {
	Requirement string `json:"requirement"`
	Met         int    `json:"met"`
}

type Result struct {
	Score             int                `json:"score"`
	Description       string             `json:"description"`
	RequirementChecks []RequirementCheck `json:"requirementChecks,omitempty"`
}

func (r Result) Validate() error {
	if r.Score < 1 || r.Score > 10 {
		return ErrInvalid
	}
	if r.Description == "" {
		return ErrInvalid
	}
	for _, c := range r.RequirementChecks {
		if c.Requirement == "" {
			return ErrInvalid
		}
		if c.Met != 0 && c.Met != 1 {
			return ErrInvalid
		}
	}
	return nil
}

func (r Result) IsZero() bool {
	return r.Score == 0 && r.Description == "" && len(r.RequirementChecks) == 0
}
