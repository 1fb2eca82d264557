package dto

import (
	"time"

	"github.com/google/uuid"

	"jobdeck/internal/schedule"
)

type RecurringConfigResponse struct {
	ID         uuid.UUID  `json:"id"`
	Frequency  string     `json:"frequency"`
	Hour       int        `json:"hour"`
	Minute     int        `json:"minute"`
	DayOfWeek  *int       `json:"day_of_week,omitempty"`
	DayOfMonth *int       `json:"day_of_month,omitempty"`
	Enabled    bool       `json:"enabled"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
}

func NewRecurringConfigResponse(cfg schedule.Config) RecurringConfigResponse {
	return RecurringConfigResponse{
		ID:         cfg.ID,
		Frequency:  string(cfg.Recurrence.Frequency),
		Hour:       cfg.Recurrence.Hour,
		Minute:     cfg.Recurrence.Minute,
		DayOfWeek:  cfg.Recurrence.DayOfWeek,
		DayOfMonth: cfg.Recurrence.DayOfMonth,
		Enabled:    cfg.Enabled,
		LastRun:    cfg.LastRun,
		NextRun:    cfg.NextRun,
	}
}
