package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/domain/repository"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
)

// SevenDayStreakThreshold длина серии для достижения SEVEN_DAY_STREAK
const SevenDayStreakThreshold = 7

// DefaultCatalog начальный каталог достижений
var DefaultCatalog = []entity.Achievement{
	{
		Type:        entity.AchievementFirstChallengeCompleted,
		Name:        "First challenge completed",
		Description: "Finish a challenge of any length.",
		IconURL:     "🎯",
		Active:      true,
	},
	{
		Type:        entity.AchievementSevenDayStreak,
		Name:        "7-day streak",
		Description: "Submit evidence seven days in a row.",
		IconURL:     "🔥",
		Active:      true,
	},
	{
		Type:        entity.AchievementPerfectChallenge,
		Name:        "No excuses",
		Description: "Finish a challenge without missing a single day.",
		IconURL:     "💎",
		Active:      true,
	},
	{
		Type:        entity.AchievementFirstPenaltyPayment,
		Name:        "First penalty payment",
		Description: "Pay a penalty for a missed day.",
		IconURL:     "💰",
		Active:      true,
	},
}

// AchievementService ведёт каталог достижений и разблокирует их по событиям
type AchievementService struct {
	repo  repository.AchievementRepository
	clock Clock
	log   *logrus.Entry
}

// NewAchievementService создает сервис достижений
func NewAchievementService(repo repository.AchievementRepository, clock Clock, log *logrus.Entry) *AchievementService {
	return &AchievementService{
		repo:  repo,
		clock: clock,
		log:   log.WithField("component", "AchievementService"),
	}
}

// SeedCatalog добавляет отсутствующие записи каталога. Возвращает число созданных записей.
// Вызывается один раз при старте процесса, повторный вызов ничего не меняет.
func (s *AchievementService) SeedCatalog(ctx context.Context) (int, error) {
	created := 0
	for _, item := range DefaultCatalog {
		exists, err := s.repo.ExistsByType(ctx, item.Type)
		if err != nil {
			return created, fmt.Errorf("check achievement %s: %w", item.Type, err)
		}
		if exists {
			continue
		}
		a := item
		if err := s.repo.Create(ctx, &a); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				// параллельный старт другого экземпляра уже вставил запись
				continue
			}
			return created, fmt.Errorf("create achievement %s: %w", item.Type, err)
		}
		created++
		s.log.WithField("type", item.Type).Infof("[AchievementService] Добавлено достижение: %s", item.Name)
	}
	s.log.Infof("[AchievementService] Каталог достижений готов, добавлено %d", created)
	return created, nil
}

// Evaluate оценивает событие и разблокирует достижение, если условие выполнено.
// Возвращает тип разблокированного достижения или пустую строку.
func (s *AchievementService) Evaluate(ctx context.Context, trigger entity.AchievementTrigger) (entity.AchievementType, error) {
	var achievementType entity.AchievementType
	details := map[string]interface{}{"trigger": trigger.Kind}

	switch trigger.Kind {
	case entity.TriggerStreakDay:
		if trigger.Streak < SevenDayStreakThreshold {
			return "", nil
		}
		achievementType = entity.AchievementSevenDayStreak
		details["streak"] = trigger.Streak
	case entity.TriggerChallengeCompleted:
		achievementType = entity.AchievementFirstChallengeCompleted
	case entity.TriggerPerfectChallenge:
		if trigger.ProgressDays != trigger.DurationDays {
			return "", nil
		}
		achievementType = entity.AchievementPerfectChallenge
		details["progress_days"] = trigger.ProgressDays
		details["duration_days"] = trigger.DurationDays
	case entity.TriggerPenaltyPaid:
		achievementType = entity.AchievementFirstPenaltyPayment
	default:
		return "", fmt.Errorf("%w: unknown trigger kind %q", apperrors.ErrValidation, trigger.Kind)
	}

	achievement, err := s.repo.GetByType(ctx, achievementType)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.log.WithField("type", achievementType).Warn("[AchievementService] Достижение отсутствует в каталоге")
			return "", nil
		}
		return "", err
	}
	if !achievement.Active {
		return "", nil
	}

	var challengeID *uint
	if trigger.ChallengeID != 0 {
		id := trigger.ChallengeID
		challengeID = &id
		details["challenge_id"] = id
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return "", err
	}

	unlocked, err := s.repo.Unlock(ctx, &entity.UserAchievement{
		UserID:        trigger.UserID,
		AchievementID: achievement.ID,
		ChallengeID:   challengeID,
		Context:       datatypes.JSON(raw),
		UnlockedAt:    s.clock.now(),
	})
	if err != nil {
		return "", err
	}
	if !unlocked {
		return "", nil
	}

	s.log.WithFields(logrus.Fields{
		"user_id":      trigger.UserID,
		"challenge_id": trigger.ChallengeID,
		"type":         achievementType,
	}).Info("[AchievementService] Достижение разблокировано")
	return achievementType, nil
}

// ListUserAchievements возвращает достижения пользователя
func (s *AchievementService) ListUserAchievements(ctx context.Context, userID uint) ([]entity.UserAchievement, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListCatalog возвращает активные записи каталога
func (s *AchievementService) ListCatalog(ctx context.Context) ([]entity.Achievement, error) {
	return s.repo.ListActive(ctx)
}

// UserStats считает, сколько достижений активного каталога открыл пользователь
func (s *AchievementService) UserStats(ctx context.Context, userID uint) (*entity.AchievementStats, error) {
	catalog, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	unlocks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := make(map[uint]struct{}, len(catalog))
	for _, a := range catalog {
		active[a.ID] = struct{}{}
	}
	stats := &entity.AchievementStats{Total: len(catalog)}
	for _, u := range unlocks {
		if _, ok := active[u.AchievementID]; ok {
			stats.Unlocked++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Unlocked) / float64(stats.Total) * 100
	}
	return stats, nil
}
