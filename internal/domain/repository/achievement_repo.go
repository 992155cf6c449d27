package repository

import (
	"context"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// AchievementRepository определяет методы для каталога и разблокировок достижений
type AchievementRepository interface {
	ExistsByType(ctx context.Context, t entity.AchievementType) (bool, error)
	Create(ctx context.Context, achievement *entity.Achievement) error
	GetByType(ctx context.Context, t entity.AchievementType) (*entity.Achievement, error)
	ListActive(ctx context.Context) ([]entity.Achievement, error)
	// Unlock вставляет запись, если её ещё нет. Возвращает false, если достижение уже было.
	Unlock(ctx context.Context, unlock *entity.UserAchievement) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]entity.UserAchievement, error)
}
