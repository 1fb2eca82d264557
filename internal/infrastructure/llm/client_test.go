package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestScoreRepairsFencedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/score" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		// Fenced and truncated, the way providers misbehave in practice.
		w.Write([]byte("```json\n{\"score\": 7, \"description\": \"ok\"\n"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-key", "scorer-v1", nil)
	res, err := c.Score(context.Background(), JobInput{Title: "SRE", Company: "Acme"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Score != 7 || res.Description != "ok" {
		t.Fatalf("result = %+v", res)
	}
}

func TestScoreRejectsInvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"score": 42, "description": "out of range"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "", nil)
	if _, err := c.Score(context.Background(), JobInput{Title: "SRE"}); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestScoreWrapsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", "", nil)
	if _, err := c.Score(context.Background(), JobInput{Title: "SRE"}); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
