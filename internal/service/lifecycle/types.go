package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/domain/repository"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
	"github.com/yourusername/habitleague-api/internal/service/payment"
)

// Источники запуска ежедневного прохода
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerCLI      = "cli"
)

// ErrRunInProgress проход за эту дату уже выполняется другим экземпляром
var ErrRunInProgress = fmt.Errorf("%w: lifecycle pass already running for this date", apperrors.ErrConflict)

// Config содержит настройки движка жизненного цикла
type Config struct {
	CronSpec     string         // расписание с секундами, например "0 5 0 * * *"
	Location     *time.Location // зона, в которой считаются календарные дни
	RunLockTTL   time.Duration  // время жизни блокировки прохода в Redis
	PoolCacheTTL time.Duration  // время жизни кеша статуса фонда
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		loc = time.UTC
	}
	return &Config{
		CronSpec:     "0 5 0 * * *", // 00:05:00 каждый день
		Location:     loc,
		RunLockTTL:   30 * time.Minute,
		PoolCacheTTL: time.Minute,
	}
}

// EvidenceLedger отвечает на вопрос "было ли доказательство участника в окне [from, to)"
type EvidenceLedger interface {
	ExistsInWindow(ctx context.Context, memberID uint, from, to time.Time) (bool, error)
}

// PayoutGateway внешний сервис выплат призов
type PayoutGateway interface {
	Payout(ctx context.Context, req payment.PayoutRequest) (string, error)
}

// AchievementNotifier приёмник событий для оценки достижений.
// Notify не блокирует и не возвращает ошибок.
type AchievementNotifier interface {
	Notify(trigger entity.AchievementTrigger)
}

// Dependencies содержит зависимости движка
type Dependencies struct {
	Transactor    repository.Transactor
	Challenges    repository.ChallengeRepository
	Members       repository.ChallengeMemberRepository
	Evidence      EvidenceLedger
	Checks        repository.DailyCheckRepository
	Distributions repository.PrizeDistributionRepository
	Cache         repository.CacheRepository // может быть nil
	Payouts       PayoutGateway
	Notifier      AchievementNotifier
	Log           *logrus.Entry
	Now           func() time.Time // по умолчанию time.Now
}

// ChallengeOutcome результат обработки одного челленджа за дату
type ChallengeOutcome struct {
	ChallengeID     uint   `json:"challenge_id"`
	Skipped         bool   `json:"skipped"`
	SkipReason      string `json:"skip_reason,omitempty"`
	Eliminated      int    `json:"eliminated"`
	ActiveRemaining int    `json:"active_remaining"`
	Settled         bool   `json:"settled"`
	Distributions   int    `json:"distributions"`
	PayoutsFailed   int    `json:"payouts_failed"`
}

// ChallengeFailure ошибка обработки одного челленджа
type ChallengeFailure struct {
	ChallengeID uint   `json:"challenge_id"`
	Error       string `json:"error"`
}

// RunSummary итог ежедневного прохода
type RunSummary struct {
	CheckDate  string             `json:"check_date"`
	Trigger    string             `json:"trigger"`
	Attempted  int                `json:"attempted"`
	Processed  int                `json:"processed"`
	Skipped    int                `json:"skipped"`
	Failed     int                `json:"failed"`
	Eliminated int                `json:"eliminated"`
	Settled    int                `json:"settled"`
	Failures   []ChallengeFailure `json:"failures,omitempty"`
	Outcomes   []ChallengeOutcome `json:"outcomes,omitempty"`
	Duration   string             `json:"duration"`
}

// ReconcileSummary итог повторной попытки невыплаченных призов
type ReconcileSummary struct {
	Attempted int `json:"attempted"`
	Paid      int `json:"paid"`
	Failed    int `json:"failed"`
}
