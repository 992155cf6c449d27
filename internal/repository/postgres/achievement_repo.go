package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
)

// AchievementRepo реализует repository.AchievementRepository
type AchievementRepo struct {
	db *gorm.DB
}

// NewAchievementRepo создает новый репозиторий достижений
func NewAchievementRepo(db *gorm.DB) *AchievementRepo {
	return &AchievementRepo{db: db}
}

// ExistsByType проверяет, есть ли тип в каталоге
func (r *AchievementRepo) ExistsByType(ctx context.Context, t entity.AchievementType) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&entity.Achievement{}).Where("type = ?", t).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check achievement %s: %w", t, err)
	}
	return count > 0, nil
}

// Create добавляет запись каталога
func (r *AchievementRepo) Create(ctx context.Context, achievement *entity.Achievement) error {
	if err := conn(ctx, r.db).Create(achievement).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: achievement %s", apperrors.ErrConflict, achievement.Type)
		}
		return fmt.Errorf("create achievement %s: %w", achievement.Type, err)
	}
	return nil
}

// GetByType возвращает запись каталога по типу
func (r *AchievementRepo) GetByType(ctx context.Context, t entity.AchievementType) (*entity.Achievement, error) {
	var achievement entity.Achievement
	if err := conn(ctx, r.db).Where("type = ?", t).First(&achievement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: achievement %s", apperrors.ErrNotFound, t)
		}
		return nil, fmt.Errorf("get achievement %s: %w", t, err)
	}
	return &achievement, nil
}

// ListActive возвращает активные записи каталога
func (r *AchievementRepo) ListActive(ctx context.Context) ([]entity.Achievement, error) {
	var achievements []entity.Achievement
	if err := conn(ctx, r.db).Where("active = ?", true).Order("id ASC").Find(&achievements).Error; err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return achievements, nil
}

// Unlock вставляет разблокировку, игнорируя повтор (ON CONFLICT DO NOTHING)
func (r *AchievementRepo) Unlock(ctx context.Context, unlock *entity.UserAchievement) (bool, error) {
	res := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Achievement").
		Create(unlock)
	if res.Error != nil {
		return false, fmt.Errorf("unlock achievement %d for user %d: %w", unlock.AchievementID, unlock.UserID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListByUser возвращает достижения пользователя вместе с записью каталога
func (r *AchievementRepo) ListByUser(ctx context.Context, userID uint) ([]entity.UserAchievement, error) {
	var unlocks []entity.UserAchievement
	err := conn(ctx, r.db).Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&unlocks).Error
	if err != nil {
		return nil, fmt.Errorf("list achievements of user %d: %w", userID, err)
	}
	return unlocks, nil
}
