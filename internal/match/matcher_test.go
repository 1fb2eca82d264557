package match

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"jobdeck/internal/domain/score"
)

type fakeLookup struct {
	byURL  map[string]ScoredJob
	scored []ScoredJob

	urlCalls  int
	listCalls int
}

func (f *fakeLookup) FindScoredByCanonicalURL(_ context.Context, _ uuid.UUID, canonicalURL string) (*ScoredJob, error) {
	f.urlCalls++
	if j, ok := f.byURL[canonicalURL]; ok {
		return &j, nil
	}
	return nil, nil
}

func (f *fakeLookup) ListScored(_ context.Context, _ uuid.UUID) ([]ScoredJob, error) {
	f.listCalls++
	return f.scored, nil
}

func scoredJob(url, title, company, desc string) ScoredJob {
	return ScoredJob{
		JobID:        uuid.New(),
		CanonicalURL: url,
		Fingerprint:  FingerprintInput{Title: title, Company: company, Description: desc},
		Result:       score.Result{Score: 8, Description: "solid match"},
		ScoredAt:     time.Now(),
	}
}

func TestMatcherURLTakesPrecedence(t *testing.T) {
	desc := strings.Repeat("own the scoring pipeline end to end ", 3)
	byURL := scoredJob("https://example.com/jobs/1", "Engineer", "Acme", desc)

	// A fingerprint twin also exists; the URL hit must win without scanning.
	lookup := &fakeLookup{
		byURL:  map[string]ScoredJob{byURL.CanonicalURL: byURL},
		scored: []ScoredJob{scoredJob("https://other.example.com/jobs/9", "Engineer", "Acme", desc)},
	}
	m := NewMatcher(lookup, nil)

	hit, err := m.Find(context.Background(), uuid.New(), JobKey{
		CanonicalURL: "https://example.com/jobs/1",
		Title:        "Engineer",
		Company:      "Acme",
		Description:  desc,
	})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if hit == nil || hit.Kind != MatchByURL {
		t.Fatalf("expected URL match, got %+v", hit)
	}
	if hit.Job.JobID != byURL.JobID {
		t.Fatal("wrong job matched")
	}
	if lookup.listCalls != 0 {
		t.Fatal("URL hit must short-circuit the fingerprint scan")
	}
}

func TestMatcherFallsBackToFingerprint(t *testing.T) {
	desc := strings.Repeat("own the scoring pipeline end to end ", 3)
	twin := scoredJob("https://other.example.com/jobs/9", "Engineer", "Acme", desc)

	lookup := &fakeLookup{byURL: map[string]ScoredJob{}, scored: []ScoredJob{twin}}
	m := NewMatcher(lookup, nil)

	hit, err := m.Find(context.Background(), uuid.New(), JobKey{
		CanonicalURL: "https://example.com/jobs/1",
		Title:        "  ENGINEER ",
		Company:      "acme",
		Description:  desc,
	})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if hit == nil || hit.Kind != MatchByFingerprint {
		t.Fatalf("expected fingerprint match, got %+v", hit)
	}
	if hit.Job.JobID != twin.JobID {
		t.Fatal("wrong job matched")
	}
}

func TestMatcherNoMatch(t *testing.T) {
	lookup := &fakeLookup{
		byURL:  map[string]ScoredJob{},
		scored: []ScoredJob{scoredJob("https://a.example.com/1", "Designer", "Globex", strings.Repeat("design things beautifully every day ", 3))},
	}
	m := NewMatcher(lookup, nil)

	hit, err := m.Find(context.Background(), uuid.New(), JobKey{
		CanonicalURL: "https://example.com/jobs/404",
		Title:        "Engineer",
		Company:      "Acme",
		Description:  strings.Repeat("completely different posting body here ", 3),
	})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if hit != nil {
		t.Fatalf("expected no match, got %+v", hit)
	}
}

func TestMatcherIgnoresUnscoredEntries(t *testing.T) {
	desc := strings.Repeat("own the scoring pipeline end to end ", 3)
	zero := scoredJob("https://other.example.com/jobs/9", "Engineer", "Acme", desc)
	zero.Result = score.Result{}

	lookup := &fakeLookup{byURL: map[string]ScoredJob{}, scored: []ScoredJob{zero}}
	m := NewMatcher(lookup, nil)

	hit, err := m.Find(context.Background(), uuid.New(), JobKey{
		Title: "Engineer", Company: "Acme", Description: desc,
	})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if hit != nil {
		t.Fatal("a zero-score entry must never satisfy dedup")
	}
}
