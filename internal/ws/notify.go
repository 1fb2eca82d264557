package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ScoringProgressEvent struct {
	Type             string    `json:"type"`
	ScrapeID         uuid.UUID `json:"scrape_id"`
	Status           string    `json:"status"`
	JobsScored       int       `json:"jobs_scored"`
	TotalJobsToScore int       `json:"total_jobs_to_score"`
	Timestamp        string    `json:"timestamp"`
}

type HighScoringJobsEvent struct {
	Type      string            `json:"type"`
	ScrapeID  uuid.UUID         `json:"scrape_id"`
	Jobs      []HighScoringItem `json:"jobs"`
	Timestamp string            `json:"timestamp"`
}

type HighScoringItem struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	URL      string `json:"url"`
	AIScore  int    `json:"ai_score"`
	ApplyURL string `json:"apply_url,omitempty"`
}

// JobScorePartialEvent streams intermediate snapshots while a single job is
// being scored interactively. Partial is whatever valid prefix the streaming
// parser has recovered so far.
type JobScorePartialEvent struct {
	Type      string    `json:"type"`
	JobID     uuid.UUID `json:"job_id"`
	Partial   any       `json:"partial"`
	Timestamp string    `json:"timestamp"`
}

type RecurringFiredEvent struct {
	Type      string    `json:"type"`
	ConfigID  uuid.UUID `json:"config_id"`
	Timestamp string    `json:"timestamp"`
}

func (h *Hub) NotifyScoringProgress(scrapeID uuid.UUID, status string, scored, total int) {
	h.broadcastJSON(ScoringProgressEvent{
		Type:             "scoring_progress",
		ScrapeID:         scrapeID,
		Status:           status,
		JobsScored:       scored,
		TotalJobsToScore: total,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
}

// NotifyHighScoringJobs broadcasts the completion result; an empty jobs list
// is the "none found" signal.
func (h *Hub) NotifyHighScoringJobs(scrapeID uuid.UUID, jobs []HighScoringItem) {
	if jobs == nil {
		jobs = []HighScoringItem{}
	}
	h.broadcastJSON(HighScoringJobsEvent{
		Type:      "high_scoring_jobs",
		ScrapeID:  scrapeID,
		Jobs:      jobs,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Hub) NotifyJobScorePartial(jobID uuid.UUID, partial any) {
	h.broadcastJSON(JobScorePartialEvent{
		Type:      "job_score_partial",
		JobID:     jobID,
		Partial:   partial,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Hub) NotifyRecurringFired(configID uuid.UUID) {
	h.broadcastJSON(RecurringFiredEvent{
		Type:      "recurring_fired",
		ConfigID:  configID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Hub) broadcastJSON(evt any) {
	if h == nil {
		return
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.Broadcast(b)
}
