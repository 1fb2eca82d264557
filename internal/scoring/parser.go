package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"jobdeck/internal/domain/score"
	"jobdeck/internal/infrastructure/llm"
)

var ErrStreamInvalid = errors.New("stream never produced a valid score")

// StreamParser folds raw model fragments into progressively more complete
// score snapshots. Each accumulated buffer goes through llm.RepairJSON before
// parsing; fragments that still do not parse are simply held until more text
// arrives.
type StreamParser struct {
	buf      strings.Builder
	lastJSON string
}

func NewStreamParser() *StreamParser {
	return &StreamParser{}
}

// Feed appends a fragment and returns the current partial snapshot when the
// buffer parses and the snapshot changed since the last emission.
func (p *StreamParser) Feed(fragment string) (score.Result, bool) {
	p.buf.WriteString(fragment)
	return p.snapshot()
}

func (p *StreamParser) snapshot() (score.Result, bool) {
	repaired := llm.RepairJSON(p.buf.String())

	var partial score.Result
	if err := json.Unmarshal([]byte(repaired), &partial); err != nil {
		return score.Result{}, false
	}
	if partial.IsZero() {
		return score.Result{}, false
	}

	// Slice fields rule out direct comparison; the JSON form decides whether
	// the snapshot moved.
	cur, _ := json.Marshal(partial)
	if string(cur) == p.lastJSON {
		return score.Result{}, false
	}
	p.lastJSON = string(cur)
	return partial, true
}

// Final repairs and validates the full accumulated buffer. The stream must
// end in exactly one valid result; anything else is ErrStreamInvalid.
func (p *StreamParser) Final() (score.Result, error) {
	repaired := llm.RepairJSON(p.buf.String())

	var out score.Result
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return score.Result{}, fmt.Errorf("%w: %v", ErrStreamInvalid, err)
	}
	if err := out.Validate(); err != nil {
		return score.Result{}, fmt.Errorf("%w: %v", ErrStreamInvalid, err)
	}
	return out, nil
}

// ConsumeStream drains a fragment stream into one final validated result,
// invoking onPartial for every intermediate snapshot. Cancelling ctx stops
// consumption; the producer sees the same ctx and aborts its upstream
// request, so a detached consumer never leaks a model connection.
func ConsumeStream(ctx context.Context, frags <-chan string, errc <-chan error, onPartial func(score.Result)) (score.Result, error) {
	p := NewStreamParser()

	for {
		select {
		case <-ctx.Done():
			return score.Result{}, ctx.Err()
		case frag, ok := <-frags:
			if !ok {
				if err := drainErr(errc); err != nil {
					return score.Result{}, err
				}
				return p.Final()
			}
			if partial, changed := p.Feed(frag); changed && onPartial != nil {
				onPartial(partial)
			}
		}
	}
}

func drainErr(errc <-chan error) error {
	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}
