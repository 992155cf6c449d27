package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/metrics"
)

// Engine выполняет ежедневный проход по активным челленджам:
// проверка доказательств, выбывание, обновление фонда, распределение призов, аудит.
type Engine struct {
	config *Config
	deps   *Dependencies
	log    *logrus.Entry
}

// NewEngine создает движок жизненного цикла
func NewEngine(config *Config, deps *Dependencies) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if deps == nil {
		return nil, errors.New("lifecycle dependencies are required")
	}
	if deps.Transactor == nil || deps.Challenges == nil || deps.Members == nil ||
		deps.Evidence == nil || deps.Checks == nil || deps.Distributions == nil {
		return nil, errors.New("lifecycle engine requires transactor and all repositories")
	}
	if deps.Payouts == nil {
		return nil, errors.New("lifecycle engine requires a payout gateway")
	}
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	log := deps.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		config: config,
		deps:   deps,
		log:    log.WithField("component", "LifecycleEngine"),
	}, nil
}

// Location возвращает зону, в которой считаются календарные дни
func (e *Engine) Location() *time.Location {
	return e.config.Location
}

// Today возвращает текущую календарную дату в зоне движка
func (e *Engine) Today() time.Time {
	return entity.CivilDate(e.deps.Now(), e.config.Location)
}

// PerformDailyCheck обрабатывает вчерашний день. Вызывается раз в сутки по расписанию
// и вручную для восстановления; повторный вызов за ту же дату ничего не меняет.
func (e *Engine) PerformDailyCheck(ctx context.Context, trigger string) (*RunSummary, error) {
	return e.RunForDate(ctx, e.Today().AddDate(0, 0, -1), trigger)
}

// RunForDate выполняет проход за конкретную дату. Ошибка одного челленджа не
// прерывает обработку остальных; ошибка возвращается, только если не удалось
// получить список челленджей или взять блокировку прохода.
func (e *Engine) RunForDate(ctx context.Context, checkDate time.Time, trigger string) (*RunSummary, error) {
	checkDate = normalizeDate(checkDate)
	dateStr := checkDate.Format(entity.DateLayout)
	log := e.log.WithFields(logrus.Fields{"check_date": dateStr, "trigger": trigger})
	started := time.Now()

	release, err := e.acquireRunLock(ctx, dateStr, trigger)
	if err != nil {
		return nil, err
	}
	defer release()

	metrics.LifecycleRuns.WithLabelValues(trigger).Inc()
	defer func() { metrics.PassDuration.Observe(time.Since(started).Seconds()) }()

	challenges, err := e.deps.Challenges.FindActiveForDate(ctx, checkDate)
	if err != nil {
		return nil, fmt.Errorf("load active challenges: %w", err)
	}
	log.Infof("[LifecycleEngine] Найдено %d активных челленджей", len(challenges))

	summary := &RunSummary{CheckDate: dateStr, Trigger: trigger}
	for _, c := range challenges {
		summary.Attempted++
		outcome, err := e.processSafely(ctx, c.ID, checkDate)
		if err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, ChallengeFailure{ChallengeID: c.ID, Error: err.Error()})
			metrics.ChallengesProcessed.WithLabelValues("failed").Inc()
			log.WithError(err).WithField("challenge_id", c.ID).Error("[LifecycleEngine] Ошибка обработки челленджа, переходим к следующему")
			continue
		}
		summary.Outcomes = append(summary.Outcomes, *outcome)
		if outcome.Skipped {
			summary.Skipped++
			metrics.ChallengesProcessed.WithLabelValues("skipped").Inc()
			continue
		}
		summary.Processed++
		summary.Eliminated += outcome.Eliminated
		if outcome.Settled {
			summary.Settled++
		}
		metrics.ChallengesProcessed.WithLabelValues("processed").Inc()
	}

	summary.Duration = time.Since(started).String()
	log.WithFields(logrus.Fields{
		"attempted":  summary.Attempted,
		"processed":  summary.Processed,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
		"eliminated": summary.Eliminated,
	}).Info("[LifecycleEngine] Ежедневный проход завершён")
	return summary, nil
}

// processSafely изолирует панику одного челленджа от остального прохода
func (e *Engine) processSafely(ctx context.Context, challengeID uint, checkDate time.Time) (outcome *ChallengeOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("challenge_id", challengeID).Errorf("[LifecycleEngine] Паника при обработке: %v\n%s", r, debug.Stack())
			outcome = nil
			err = fmt.Errorf("panic while processing challenge %d: %v", challengeID, r)
		}
	}()
	return e.ProcessChallenge(ctx, challengeID, checkDate)
}

// ProcessChallenge обрабатывает один челлендж за дату одной транзакцией.
// Выплаты и уведомления о достижениях выполняются только после фиксации транзакции.
func (e *Engine) ProcessChallenge(ctx context.Context, challengeID uint, checkDate time.Time) (*ChallengeOutcome, error) {
	checkDate = normalizeDate(checkDate)
	log := e.log.WithFields(logrus.Fields{
		"challenge_id": challengeID,
		"check_date":   checkDate.Format(entity.DateLayout),
	})

	outcome := &ChallengeOutcome{ChallengeID: challengeID}
	var triggers []entity.AchievementTrigger
	var created []entity.PrizeDistribution

	err := e.deps.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// Откат транзакции не должен оставлять следов в результате
		*outcome = ChallengeOutcome{ChallengeID: challengeID}
		triggers, created = nil, nil

		// Блокировка строки челленджа сериализует параллельные проходы
		challenge, err := e.deps.Challenges.GetByIDForUpdate(ctx, challengeID)
		if err != nil {
			return err
		}
		if challenge.PrizesDistributed {
			outcome.Skipped, outcome.SkipReason = true, "prizes already distributed"
			return nil
		}
		if !challenge.Covers(checkDate) {
			outcome.Skipped, outcome.SkipReason = true, "date outside challenge window"
			return nil
		}

		done, err := e.deps.Checks.Exists(ctx, challenge.ID, checkDate)
		if err != nil {
			return err
		}
		if done {
			outcome.Skipped, outcome.SkipReason = true, "already processed"
			return nil
		}

		eliminated, streaks, err := e.sweepEvidence(ctx, challenge, checkDate)
		if err != nil {
			return err
		}
		outcome.Eliminated = eliminated
		triggers = append(triggers, streaks...)

		if err := e.maintainPool(ctx, challenge); err != nil {
			return err
		}

		if challenge.IsEndDate(checkDate) {
			dists, winnerTriggers, err := e.settle(ctx, challenge)
			if err != nil {
				return err
			}
			created = dists
			triggers = append(triggers, winnerTriggers...)
			outcome.Settled = challenge.PrizesDistributed
			outcome.Distributions = len(dists)
		}

		switch {
		case challenge.PrizesDistributed:
			challenge.Status = entity.ChallengeStatusCompleted
		case challenge.Status == entity.ChallengeStatusCreated:
			challenge.Status = entity.ChallengeStatusActive
		}
		if err := e.deps.Challenges.SaveLifecycleState(ctx, challenge); err != nil {
			return err
		}

		outcome.ActiveRemaining = challenge.ActiveCountOrZero()
		return e.deps.Checks.Create(ctx, &entity.DailyEvidenceCheck{
			ChallengeID:     challenge.ID,
			CheckDate:       checkDate,
			EliminatedCount: eliminated,
			ActiveRemaining: outcome.ActiveRemaining,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("process challenge %d: %w", challengeID, err)
	}

	if outcome.Skipped {
		log.Infof("[LifecycleEngine] Пропуск: %s", outcome.SkipReason)
		return outcome, nil
	}

	metrics.MembersEliminated.Add(float64(outcome.Eliminated))
	metrics.DistributionsCreated.Add(float64(len(created)))
	e.invalidatePoolCache(ctx, challengeID)

	for i := range created {
		if !e.payout(ctx, created[i].ID) {
			outcome.PayoutsFailed++
		}
	}
	for _, t := range triggers {
		e.notify(t)
	}

	log.WithFields(logrus.Fields{
		"eliminated":       outcome.Eliminated,
		"active_remaining": outcome.ActiveRemaining,
		"settled":          outcome.Settled,
	}).Info("[LifecycleEngine] Челлендж обработан")
	return outcome, nil
}

// sweepEvidence проверяет доказательства активных участников за день.
// Учитывается только наличие доказательства, флаги проверки не влияют на выбывание.
func (e *Engine) sweepEvidence(ctx context.Context, challenge *entity.Challenge, checkDate time.Time) (int, []entity.AchievementTrigger, error) {
	members, err := e.deps.Members.ListActiveForUpdate(ctx, challenge.ID)
	if err != nil {
		return 0, nil, err
	}

	from, to := entity.DayWindow(checkDate, e.config.Location)
	eliminated := 0
	var triggers []entity.AchievementTrigger

	for i := range members {
		m := &members[i]
		submitted, err := e.deps.Evidence.ExistsInWindow(ctx, m.ID, from, to)
		if err != nil {
			return 0, nil, fmt.Errorf("check evidence of member %d: %w", m.ID, err)
		}

		if !submitted {
			m.Eliminate(checkDate)
			eliminated++
			e.log.WithFields(logrus.Fields{
				"challenge_id": challenge.ID,
				"member_id":    m.ID,
				"user_id":      m.UserID,
			}).Warn("[LifecycleEngine] Участник выбыл: нет доказательства за день")
		} else {
			m.ProgressDays++
			triggers = append(triggers, entity.AchievementTrigger{
				Kind:        entity.TriggerStreakDay,
				UserID:      m.UserID,
				ChallengeID: challenge.ID,
				Streak:      m.ProgressDays,
			})
		}

		if err := e.deps.Members.Update(ctx, m); err != nil {
			return 0, nil, err
		}
	}
	return eliminated, triggers, nil
}

// maintainPool вычисляет фонд один раз и пересчитывает число активных участников
func (e *Engine) maintainPool(ctx context.Context, challenge *entity.Challenge) error {
	if challenge.TotalPrizePool == nil {
		paid, err := e.deps.Members.CountPaid(ctx, challenge.ID)
		if err != nil {
			return err
		}
		pool := challenge.EntryFee.Mul(decimal.NewFromInt(paid)).Round(2)
		challenge.TotalPrizePool = &pool
		e.log.WithFields(logrus.Fields{
			"challenge_id": challenge.ID,
			"paid_members": paid,
			"pool":         pool.StringFixed(2),
		}).Info("[LifecycleEngine] Призовой фонд вычислен")
	}

	active, err := e.deps.Members.CountActive(ctx, challenge.ID)
	if err != nil {
		return err
	}
	count := int(active)
	challenge.ActiveParticipantCount = &count
	return nil
}

func (e *Engine) notify(t entity.AchievementTrigger) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("[LifecycleEngine] Паника в уведомлении о достижении: %v", r)
		}
	}()
	e.deps.Notifier.Notify(t)
}

// acquireRunLock берёт блокировку прохода за дату в Redis. При недоступности
// Redis проход продолжается: идемпотентность обеспечивают записи аудита.
func (e *Engine) acquireRunLock(ctx context.Context, date, trigger string) (func(), error) {
	noop := func() {}
	if e.deps.Cache == nil {
		return noop, nil
	}
	key := "lifecycle:run:" + date
	ok, err := e.deps.Cache.SetNX(ctx, key, trigger, e.config.RunLockTTL)
	if err != nil {
		e.log.WithError(err).Warn("[LifecycleEngine] Не удалось взять блокировку прохода, продолжаем без неё")
		return noop, nil
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	return func() {
		if err := e.deps.Cache.Delete(context.Background(), key); err != nil {
			e.log.WithError(err).Warn("[LifecycleEngine] Не удалось снять блокировку прохода")
		}
	}, nil
}

func normalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type noopNotifier struct{}

func (noopNotifier) Notify(entity.AchievementTrigger) {}
