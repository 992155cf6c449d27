package lifecycle

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/metrics"
	"github.com/yourusername/habitleague-api/internal/service/payment"
)

const maxPayoutErrorLen = 255

// SplitPrize делит фонд между победителями с округлением до 2 знаков по правилу half-up.
// Если округление вверх дало бы сумму выплат больше фонда, доля округляется вниз:
// выплаты никогда не превышают собранный фонд. Например, 20.00 на троих даёт 6.66,
// а не 6.67: 3 × 6.67 = 20.01 больше фонда.
func SplitPrize(pool decimal.Decimal, winners int) decimal.Decimal {
	if winners <= 0 || !pool.IsPositive() {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(winners))
	share := pool.DivRound(n, 2)
	if share.Mul(n).GreaterThan(pool) {
		share = pool.Div(n).Truncate(2)
	}
	return share
}

// settle создаёт записи выплат для победителей и помечает челлендж распределённым.
// Записи создаются невыплаченными; сама выплата выполняется после фиксации транзакции.
func (e *Engine) settle(ctx context.Context, challenge *entity.Challenge) ([]entity.PrizeDistribution, []entity.AchievementTrigger, error) {
	log := e.log.WithField("challenge_id", challenge.ID)
	pool := challenge.PoolOrZero()

	winners, err := e.deps.Members.ListActiveForUpdate(ctx, challenge.ID)
	if err != nil {
		return nil, nil, err
	}

	if len(winners) == 0 {
		challenge.PrizesDistributed = true
		challenge.UnallocatedRemainder = &pool
		log.Warn("[LifecycleEngine] Победителей нет, фонд остаётся нераспределённым")
		return nil, nil, nil
	}

	share := SplitPrize(pool, len(winners))
	log.WithFields(logrus.Fields{
		"winners":          len(winners),
		"prize_per_winner": share.StringFixed(2),
	}).Info("[LifecycleEngine] Распределение призов")

	var created []entity.PrizeDistribution
	var triggers []entity.AchievementTrigger
	allocated := decimal.Zero

	for _, w := range winners {
		// Защита от двойной выплаты, если запись уже была создана ранее
		exists, err := e.deps.Distributions.ExistsForMember(ctx, challenge.ID, w.ID)
		if err != nil {
			return nil, nil, err
		}
		if exists {
			log.WithField("member_id", w.ID).Warn("[LifecycleEngine] Выплата участнику уже существует, пропускаем")
			allocated = allocated.Add(share)
			continue
		}

		d := entity.PrizeDistribution{
			ChallengeID:       challenge.ID,
			ChallengeMemberID: w.ID,
			UserID:            w.UserID,
			PrizeAmount:       share,
		}
		if err := e.deps.Distributions.Create(ctx, &d); err != nil {
			return nil, nil, err
		}
		created = append(created, d)
		allocated = allocated.Add(share)

		triggers = append(triggers, entity.AchievementTrigger{
			Kind:        entity.TriggerChallengeCompleted,
			UserID:      w.UserID,
			ChallengeID: challenge.ID,
		})
		if w.ProgressDays == challenge.DurationDays {
			triggers = append(triggers, entity.AchievementTrigger{
				Kind:         entity.TriggerPerfectChallenge,
				UserID:       w.UserID,
				ChallengeID:  challenge.ID,
				ProgressDays: w.ProgressDays,
				DurationDays: challenge.DurationDays,
			})
		}
	}

	remainder := pool.Sub(allocated)
	challenge.UnallocatedRemainder = &remainder
	challenge.PrizesDistributed = true
	return created, triggers, nil
}

// payout выплачивает одну запись. Строка блокируется на время вызова шлюза,
// уже выплаченная запись пропускается. Ошибка шлюза оставляет запись невыплаченной.
func (e *Engine) payout(ctx context.Context, distributionID uint) bool {
	log := e.log.WithField("distribution_id", distributionID)
	paid := false

	err := e.deps.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		d, err := e.deps.Distributions.GetForUpdate(ctx, distributionID)
		if err != nil {
			return err
		}
		if d.Paid {
			paid = true
			return nil
		}

		d.PayoutAttempts++
		txID, payErr := e.deps.Payouts.Payout(ctx, payment.PayoutRequest{
			DistributionID: d.ID,
			MemberID:       d.ChallengeMemberID,
			UserID:         d.UserID,
			ChallengeID:    d.ChallengeID,
			Amount:         d.PrizeAmount,
		})
		if payErr != nil {
			d.LastPayoutError = truncate(payErr.Error(), maxPayoutErrorLen)
			metrics.Payouts.WithLabelValues("failure").Inc()
			log.WithError(payErr).WithField("member_id", d.ChallengeMemberID).Error("[LifecycleEngine] Выплата не удалась, запись оставлена для сверки")
			return e.deps.Distributions.Update(ctx, d)
		}

		d.MarkPaid(txID, e.deps.Now())
		if err := e.deps.Distributions.Update(ctx, d); err != nil {
			return err
		}
		paid = true
		metrics.Payouts.WithLabelValues("success").Inc()
		log.WithFields(logrus.Fields{
			"member_id":      d.ChallengeMemberID,
			"amount":         d.PrizeAmount.StringFixed(2),
			"transaction_id": txID,
		}).Info("[LifecycleEngine] Приз выплачен")
		return nil
	})
	if err != nil {
		log.WithError(err).Error("[LifecycleEngine] Ошибка при сохранении результата выплаты")
		return false
	}
	return paid
}

// ReconcileUnpaid повторяет выплату всех невыплаченных записей.
// Отдельная операция: ежедневный проход её не вызывает.
func (e *Engine) ReconcileUnpaid(ctx context.Context) (*ReconcileSummary, error) {
	unpaid, err := e.deps.Distributions.ListUnpaid(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list unpaid distributions: %w", err)
	}

	summary := &ReconcileSummary{}
	touched := make(map[uint]struct{})
	for _, d := range unpaid {
		summary.Attempted++
		if e.payout(ctx, d.ID) {
			summary.Paid++
		} else {
			summary.Failed++
		}
		touched[d.ChallengeID] = struct{}{}
	}
	for id := range touched {
		e.invalidatePoolCache(ctx, id)
	}

	e.log.WithFields(logrus.Fields{
		"attempted": summary.Attempted,
		"paid":      summary.Paid,
		"failed":    summary.Failed,
	}).Info("[LifecycleEngine] Сверка выплат завершена")
	return summary, nil
}

// Distributions возвращает выплаты по челленджу
func (e *Engine) Distributions(ctx context.Context, challengeID uint) ([]entity.PrizeDistribution, error) {
	if _, err := e.deps.Challenges.GetByID(ctx, challengeID); err != nil {
		return nil, err
	}
	return e.deps.Distributions.ListByChallenge(ctx, challengeID)
}

// UnpaidDistributions возвращает невыплаченные записи по всем челленджам
func (e *Engine) UnpaidDistributions(ctx context.Context) ([]entity.PrizeDistribution, error) {
	return e.deps.Distributions.ListUnpaid(ctx, 0)
}

// DailyChecks возвращает историю проходов по челленджу
func (e *Engine) DailyChecks(ctx context.Context, challengeID uint) ([]entity.DailyEvidenceCheck, error) {
	if _, err := e.deps.Challenges.GetByID(ctx, challengeID); err != nil {
		return nil, err
	}
	return e.deps.Checks.ListByChallenge(ctx, challengeID)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
