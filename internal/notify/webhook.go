package notify

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

// WebhookClient posts scoring-completion digests to the external delivery
// service (email templating lives there, not in this core).
type WebhookClient interface {
	SendDigest(ctx context.Context, userID uuid.UUID, jobs []DigestJob) error
}

type DigestJob struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	URL      string `json:"url"`
	AIScore  int    `json:"aiScore"`
	ApplyURL string `json:"applyUrl,omitempty"`
}

type digestRequest struct {
	UserID uuid.UUID   `json:"user_id"`
	Jobs   []DigestJob `json:"jobs"`
	// NoneFound flags a completed pass with nothing above the threshold.
	NoneFound bool `json:"none_found"`
}

type httpWebhookClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *log.Logger
}

func NewWebhookClient(baseURL, token string, logger *log.Logger) WebhookClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	return &httpWebhookClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

func (c *httpWebhookClient) SendDigest(ctx context.Context, userID uuid.UUID, jobs []DigestJob) error {
	if c == nil {
		return errors.New("nil webhook client")
	}
	endpoint := c.baseURL + "/notify/high-scoring-jobs"

	b, err := json.Marshal(digestRequest{UserID: userID, Jobs: jobs, NoneFound: len(jobs) == 0})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-Internal-Token", c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := strings.TrimSpace(string(rb))
		if c.logger != nil {
			c.logger.Printf("[Notify] Digest error endpoint=%s status=%d body=%q", endpoint, resp.StatusCode, bodyStr)
		}
		return fmt.Errorf("digest delivery failed: status=%d body=%s", resp.StatusCode, bodyStr)
	}
	return nil
}
