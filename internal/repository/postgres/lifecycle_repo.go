package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
)

// DailyCheckRepo реализует repository.DailyCheckRepository
type DailyCheckRepo struct {
	db *gorm.DB
}

// NewDailyCheckRepo создает новый репозиторий записей аудита
func NewDailyCheckRepo(db *gorm.DB) *DailyCheckRepo {
	return &DailyCheckRepo{db: db}
}

// Exists проверяет, обработан ли уже день для челленджа
func (r *DailyCheckRepo) Exists(ctx context.Context, challengeID uint, checkDate time.Time) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.DailyEvidenceCheck{}).
		Where("challenge_id = ? AND check_date = ?", challengeID, checkDate).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check daily record (challenge %d): %w", challengeID, err)
	}
	return count > 0, nil
}

// Create сохраняет запись аудита. Нарушение уникальности означает, что
// параллельный проход уже обработал этот день.
func (r *DailyCheckRepo) Create(ctx context.Context, check *entity.DailyEvidenceCheck) error {
	if err := conn(ctx, r.db).Create(check).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: daily check already recorded", apperrors.ErrConflict)
		}
		return fmt.Errorf("create daily check: %w", err)
	}
	return nil
}

// ListByChallenge возвращает историю проходов по челленджу
func (r *DailyCheckRepo) ListByChallenge(ctx context.Context, challengeID uint) ([]entity.DailyEvidenceCheck, error) {
	var checks []entity.DailyEvidenceCheck
	if err := conn(ctx, r.db).Where("challenge_id = ?", challengeID).Order("check_date ASC").Find(&checks).Error; err != nil {
		return nil, fmt.Errorf("list daily checks of challenge %d: %w", challengeID, err)
	}
	return checks, nil
}

// PrizeDistributionRepo реализует repository.PrizeDistributionRepository
type PrizeDistributionRepo struct {
	db *gorm.DB
}

// NewPrizeDistributionRepo создает новый репозиторий выплат
func NewPrizeDistributionRepo(db *gorm.DB) *PrizeDistributionRepo {
	return &PrizeDistributionRepo{db: db}
}

// ExistsForMember проверяет, есть ли уже выплата участнику по челленджу
func (r *PrizeDistributionRepo) ExistsForMember(ctx context.Context, challengeID, memberID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.PrizeDistribution{}).
		Where("challenge_id = ? AND challenge_member_id = ?", challengeID, memberID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check distribution (challenge %d, member %d): %w", challengeID, memberID, err)
	}
	return count > 0, nil
}

// Create сохраняет выплату
func (r *PrizeDistributionRepo) Create(ctx context.Context, distribution *entity.PrizeDistribution) error {
	if err := conn(ctx, r.db).Create(distribution).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: distribution already exists", apperrors.ErrConflict)
		}
		return fmt.Errorf("create distribution: %w", err)
	}
	return nil
}

// GetForUpdate возвращает выплату с блокировкой строки
func (r *PrizeDistributionRepo) GetForUpdate(ctx context.Context, id uint) (*entity.PrizeDistribution, error) {
	var distribution entity.PrizeDistribution
	err := conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&distribution, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: prize distribution %d", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("lock distribution %d: %w", id, err)
	}
	return &distribution, nil
}

// Update сохраняет состояние выплаты
func (r *PrizeDistributionRepo) Update(ctx context.Context, distribution *entity.PrizeDistribution) error {
	if err := conn(ctx, r.db).Save(distribution).Error; err != nil {
		return fmt.Errorf("update distribution %d: %w", distribution.ID, err)
	}
	return nil
}

// ListByChallenge возвращает выплаты по челленджу
func (r *PrizeDistributionRepo) ListByChallenge(ctx context.Context, challengeID uint) ([]entity.PrizeDistribution, error) {
	var distributions []entity.PrizeDistribution
	if err := conn(ctx, r.db).Where("challenge_id = ?", challengeID).Order("id ASC").Find(&distributions).Error; err != nil {
		return nil, fmt.Errorf("list distributions of challenge %d: %w", challengeID, err)
	}
	return distributions, nil
}

// ListUnpaid возвращает невыплаченные записи
func (r *PrizeDistributionRepo) ListUnpaid(ctx context.Context, challengeID uint) ([]entity.PrizeDistribution, error) {
	var distributions []entity.PrizeDistribution
	query := conn(ctx, r.db).Where("paid = ?", false)
	if challengeID != 0 {
		query = query.Where("challenge_id = ?", challengeID)
	}
	if err := query.Order("id ASC").Find(&distributions).Error; err != nil {
		return nil, fmt.Errorf("list unpaid distributions: %w", err)
	}
	return distributions, nil
}
