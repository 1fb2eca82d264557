package notify

import (
	"context"
	"log"

	"jobdeck/internal/repository"
	"jobdeck/internal/ws"
)

// Service fans orchestration side effects out to the websocket hub and the
// delivery webhook. Every failure is logged and swallowed: notification
// trouble never affects a scoring pass.
type Service struct {
	hub     *ws.Hub
	webhook WebhookClient
	logger  *log.Logger
}

func NewService(hub *ws.Hub, webhook WebhookClient, logger *log.Logger) *Service {
	return &Service{hub: hub, webhook: webhook, logger: logger}
}

func (s *Service) ScoringProgress(scrape repository.Scrape) {
	if s == nil {
		return
	}
	s.hub.NotifyScoringProgress(scrape.ID, string(scrape.Status), scrape.JobsScored, scrape.TotalJobsToScore)
}

func (s *Service) ScoringCompleted(ctx context.Context, scrape repository.Scrape, highScoring []repository.Job) {
	if s == nil {
		return
	}

	items := make([]ws.HighScoringItem, 0, len(highScoring))
	digest := make([]DigestJob, 0, len(highScoring))
	for _, j := range highScoring {
		scoreVal := 0
		if j.AIScore != nil {
			scoreVal = *j.AIScore
		}
		items = append(items, ws.HighScoringItem{
			Title:    j.Title,
			Company:  j.Company,
			URL:      j.URL,
			AIScore:  scoreVal,
			ApplyURL: j.ApplyURL,
		})
		digest = append(digest, DigestJob{
			Title:    j.Title,
			Company:  j.Company,
			URL:      j.URL,
			AIScore:  scoreVal,
			ApplyURL: j.ApplyURL,
		})
	}

	s.hub.NotifyHighScoringJobs(scrape.ID, items)

	if s.webhook != nil {
		if err := s.webhook.SendDigest(ctx, scrape.UserID, digest); err != nil && s.logger != nil {
			s.logger.Printf("[Notify] Digest delivery failed | scrape=%s err=%v", scrape.ID, err)
		}
	}
}
