package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client triggers the external scraping service. The service runs the actual
// search and calls the scrape-completed webhook with raw postings when done.
type Client interface {
	TriggerScrape(ctx context.Context, userID, configID uuid.UUID) (taskID string, err error)
}

type httpClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *log.Logger
}

type triggerRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	ConfigID uuid.UUID `json:"config_id"`
}

type triggerResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

func NewClient(baseURL, token string, logger *log.Logger) Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
		logger:  logger,
	}
}

func (c *httpClient) TriggerScrape(ctx context.Context, userID, configID uuid.UUID) (string, error) {
	if c == nil {
		return "", errors.New("nil scraper client")
	}
	endpoint := c.baseURL + "/scrape"

	b, err := json.Marshal(triggerRequest{UserID: userID, ConfigID: configID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-Internal-Token", c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := strings.TrimSpace(string(rb))
		if c.logger != nil {
			c.logger.Printf("[Scraper] Trigger error endpoint=%s status=%d body=%q", endpoint, resp.StatusCode, bodyStr)
		}
		return "", fmt.Errorf("scrape trigger failed: status=%d body=%s", resp.StatusCode, bodyStr)
	}

	var out triggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.TaskID), nil
}
