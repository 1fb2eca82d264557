package match

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"jobdeck/internal/domain/score"
)

// CopiedScoreMarker is appended to a job's AI description whenever its score
// was copied from an equivalent, already-scored posting.
const CopiedScoreMarker = "\n\n(Score copied from a duplicate posting.)"

type JobKey struct {
	CanonicalURL string
	Title        string
	Company      string
	Description  string
	Location     string
}

// ScoredJob is a previously evaluated posting owned by the same user.
type ScoredJob struct {
	JobID        uuid.UUID
	CanonicalURL string
	Fingerprint  FingerprintInput
	Result       score.Result
	ScoredAt     time.Time
}

// ScoredLookup is the slice of the job store the matcher needs.
type ScoredLookup interface {
	// FindScoredByCanonicalURL returns nil when no scored job carries the URL.
	FindScoredByCanonicalURL(ctx context.Context, userID uuid.UUID, canonicalURL string) (*ScoredJob, error)
	// ListScored returns every scored job of the user. Linear scan is
	// acceptable at per-user job counts; callers should not assume an index.
	ListScored(ctx context.Context, userID uuid.UUID) ([]ScoredJob, error)
}

type MatchKind string

const (
	MatchByURL         MatchKind = "url"
	MatchByFingerprint MatchKind = "fingerprint"
)

type Match struct {
	Kind MatchKind
	Job  ScoredJob
}

type Matcher struct {
	lookup ScoredLookup
	logger *log.Logger
}

func NewMatcher(lookup ScoredLookup, logger *log.Logger) *Matcher {
	return &Matcher{lookup: lookup, logger: logger}
}

// Find locates a scored equivalent of the given unscored job: exact canonical
// URL first, fingerprint scan second. A nil Match with nil error means no
// equivalent exists and the caller should proceed to model scoring.
func (m *Matcher) Find(ctx context.Context, userID uuid.UUID, key JobKey) (*Match, error) {
	if m == nil || m.lookup == nil {
		return nil, nil
	}

	if key.CanonicalURL != "" {
		hit, err := m.lookup.FindScoredByCanonicalURL(ctx, userID, key.CanonicalURL)
		if err != nil {
			return nil, err
		}
		if hit != nil && hit.Result.Score > 0 {
			if m.logger != nil {
				m.logger.Printf("[Dedup] URL match | user=%s job=%s", userID, hit.JobID)
			}
			return &Match{Kind: MatchByURL, Job: *hit}, nil
		}
	}

	want := Fingerprint(FingerprintInput{
		Title:       key.Title,
		Company:     key.Company,
		Description: key.Description,
		Location:    key.Location,
	})

	scored, err := m.lookup.ListScored(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range scored {
		if scored[i].Result.Score <= 0 {
			continue
		}
		if Fingerprint(scored[i].Fingerprint) == want {
			if m.logger != nil {
				m.logger.Printf("[Dedup] Fingerprint match | user=%s job=%s", userID, scored[i].JobID)
			}
			return &Match{Kind: MatchByFingerprint, Job: scored[i]}, nil
		}
	}

	return nil, nil
}
