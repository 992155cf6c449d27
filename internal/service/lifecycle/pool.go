package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
)

// PoolStatus состояние призового фонда челленджа
type PoolStatus struct {
	ChallengeID          uint                   `json:"challenge_id"`
	Status               entity.ChallengeStatus `json:"status"`
	TotalPool            decimal.Decimal        `json:"total_pool"`
	ActiveCount          int                    `json:"active_count"`
	PerWinnerEstimate    decimal.Decimal        `json:"per_winner_estimate"`
	Distributed          bool                   `json:"distributed"`
	UnallocatedRemainder *decimal.Decimal       `json:"unallocated_remainder,omitempty"`
}

func poolCacheKey(challengeID uint) string {
	return fmt.Sprintf("pool:%d", challengeID)
}

// PoolStatus возвращает состояние фонда. Оценка на победителя считается так же,
// как итоговая выплата, по числу активных участников на момент последнего прохода.
func (e *Engine) PoolStatus(ctx context.Context, challengeID uint) (*PoolStatus, error) {
	key := poolCacheKey(challengeID)
	if e.deps.Cache != nil {
		var cached PoolStatus
		err := e.deps.Cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			e.log.WithError(err).Warn("[LifecycleEngine] Ошибка чтения кеша фонда")
		}
	}

	challenge, err := e.deps.Challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	status := BuildPoolStatus(challenge)
	if e.deps.Cache != nil && e.config.PoolCacheTTL > 0 {
		if err := e.deps.Cache.SetJSON(ctx, key, status, e.config.PoolCacheTTL); err != nil {
			e.log.WithError(err).Warn("[LifecycleEngine] Ошибка записи кеша фонда")
		}
	}
	return status, nil
}

// BuildPoolStatus собирает статус фонда из состояния челленджа
func BuildPoolStatus(challenge *entity.Challenge) *PoolStatus {
	pool := challenge.PoolOrZero()
	active := challenge.ActiveCountOrZero()
	return &PoolStatus{
		ChallengeID:          challenge.ID,
		Status:               challenge.Status,
		TotalPool:            pool,
		ActiveCount:          active,
		PerWinnerEstimate:    SplitPrize(pool, active),
		Distributed:          challenge.PrizesDistributed,
		UnallocatedRemainder: challenge.UnallocatedRemainder,
	}
}

func (e *Engine) invalidatePoolCache(ctx context.Context, challengeID uint) {
	if e.deps.Cache == nil {
		return
	}
	if err := e.deps.Cache.Delete(ctx, poolCacheKey(challengeID)); err != nil {
		e.log.WithError(err).WithField("challenge_id", challengeID).Warn("[LifecycleEngine] Не удалось сбросить кеш фонда")
	}
}
