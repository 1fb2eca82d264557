package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"jobdeck/internal/quota"
)

// statusTTL keeps the dashboard quota widget cheap without letting it lag far
// behind a running scoring pass.
const statusTTL = 30 * time.Second

type statusCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type QuotaUsecase interface {
	Status(ctx context.Context, userID uuid.UUID) (quota.Status, error)
}

type Quota struct {
	gate   quota.Gate
	cache  statusCache
	logger *log.Logger
}

func NewQuotaUsecase(gate quota.Gate, cache statusCache, logger *log.Logger) *Quota {
	return &Quota{gate: gate, cache: cache, logger: logger}
}

func (u *Quota) Status(ctx context.Context, userID uuid.UUID) (quota.Status, error) {
	key := statusKey(userID)

	var st quota.Status
	if u.cache != nil {
		if hit, err := u.cache.GetJSON(ctx, key, &st); err == nil && hit {
			return st, nil
		}
	}

	st, err := u.gate.Status(ctx, userID)
	if err != nil {
		return quota.Status{}, err
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, st, statusTTL); err != nil && u.logger != nil {
			u.logger.Printf("[Quota] Status cache write failed | user=%s err=%v", userID, err)
		}
	}
	return st, nil
}

func statusKey(userID uuid.UUID) string {
	return fmt.Sprintf("quota:status:%s", userID)
}
