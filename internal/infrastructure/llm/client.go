package llm

import (
	"bufio"
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

	"jobdeck/internal/domain/score"
)

// ErrUpstream marks per-job failures from the model provider. The scoring
// pass logs them and moves on; they never pause a scrape.
var ErrUpstream = errors.New("upstream model error")

type JobInput struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description"`
}

// Client is the structured-output provider in its two modes: a blocking call
// returning one validated result, and a streaming call yielding raw text
// fragments for the streaming parser. Cancelling ctx aborts the upstream
// request in both modes.
type Client interface {
	Score(ctx context.Context, in JobInput) (score.Result, error)
	ScoreStream(ctx context.Context, in JobInput) (<-chan string, <-chan error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *log.Logger
}

func NewHTTPClient(baseURL, apiKey, model string, logger *log.Logger) Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}
}

type scoreRequest struct {
	Model  string   `json:"model"`
	Job    JobInput `json:"job"`
	Stream bool     `json:"stream,omitempty"`
}

func (c *httpClient) Score(ctx context.Context, in JobInput) (score.Result, error) {
	resp, err := c.post(ctx, scoreRequest{Model: c.model, Job: in})
	if err != nil {
		return score.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return score.Result{}, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	// Providers fence or truncate structured output often enough that the
	// blocking mode runs the same repair chain as the stream parser.
	var out score.Result
	if err := json.Unmarshal([]byte(RepairJSON(string(body))), &out); err != nil {
		return score.Result{}, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if err := out.Validate(); err != nil {
		return score.Result{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return out, nil
}

// ScoreStream posts a streaming request and forwards raw line fragments as
// they arrive. The fragment channel closes at end of stream; the error
// channel delivers at most one error. Consumers detach by cancelling ctx,
// which tears down the HTTP request.
func (c *httpClient) ScoreStream(ctx context.Context, in JobInput) (<-chan string, <-chan error) {
	frags := make(chan string, 16)
	errc := make(chan error, 1)

	go func() {
		defer close(frags)
		defer close(errc)

		resp, err := c.post(ctx, scoreRequest{Model: c.model, Job: in, Stream: true})
		if err != nil {
			errc <- err
			return
		}
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case frags <- line:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					errc <- fmt.Errorf("%w: read stream: %v", ErrUpstream, err)
				}
				return
			}
		}
	}()

	return frags, errc
}

func (c *httpClient) post(ctx context.Context, body scoreRequest) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v1/score"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		bodyStr := strings.TrimSpace(string(rb))
		if c.logger != nil {
			c.logger.Printf("[LLM] Score error endpoint=%s status=%d body=%q", endpoint, resp.StatusCode, bodyStr)
		}
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrUpstream, resp.StatusCode, bodyStr)
	}

	return resp, nil
}
