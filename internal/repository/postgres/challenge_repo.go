package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/domain/repository"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
)

// ChallengeRepo реализует repository.ChallengeRepository
type ChallengeRepo struct {
	db *gorm.DB
}

// NewChallengeRepo создает новый репозиторий челленджей
func NewChallengeRepo(db *gorm.DB) *ChallengeRepo {
	return &ChallengeRepo{db: db}
}

// Create создает новый челлендж
func (r *ChallengeRepo) Create(ctx context.Context, challenge *entity.Challenge) error {
	if err := conn(ctx, r.db).Create(challenge).Error; err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

// GetByID возвращает челлендж по ID
func (r *ChallengeRepo) GetByID(ctx context.Context, id uint) (*entity.Challenge, error) {
	var challenge entity.Challenge
	if err := conn(ctx, r.db).First(&challenge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("get challenge %d: %w", id, err)
	}
	return &challenge, nil
}

// GetByIDForUpdate возвращает челлендж, блокируя строку до конца транзакции
func (r *ChallengeRepo) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Challenge, error) {
	var challenge entity.Challenge
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&challenge, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("lock challenge %d: %w", id, err)
	}
	return &challenge, nil
}

// FindActiveForDate возвращает челленджи, окно которых содержит date, без распределённых призов
func (r *ChallengeRepo) FindActiveForDate(ctx context.Context, date time.Time) ([]entity.Challenge, error) {
	var challenges []entity.Challenge
	err := conn(ctx, r.db).
		Where("start_date <= ? AND end_date >= ? AND prizes_distributed = ?", date, date, false).
		Order("id ASC").
		Find(&challenges).Error
	if err != nil {
		return nil, fmt.Errorf("find active challenges for %s: %w", date.Format(entity.DateLayout), err)
	}
	return challenges, nil
}

// List возвращает страницу челленджей по фильтру и общее количество подходящих
func (r *ChallengeRepo) List(ctx context.Context, filter repository.ChallengeFilter, limit, offset int) ([]entity.Challenge, int64, error) {
	var challenges []entity.Challenge
	var total int64

	if err := applyChallengeFilter(conn(ctx, r.db).Model(&entity.Challenge{}), filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count challenges: %w", err)
	}

	query := applyChallengeFilter(conn(ctx, r.db), filter)
	if filter.Popular {
		query = query.
			Select("challenges.*, (SELECT COUNT(*) FROM challenge_members WHERE challenge_members.challenge_id = challenges.id) AS member_count").
			Order("member_count DESC, challenges.id DESC")
	} else {
		query = query.Order("challenges.start_date DESC, challenges.id DESC")
	}
	if err := query.Limit(limit).Offset(offset).Find(&challenges).Error; err != nil {
		return nil, 0, fmt.Errorf("list challenges: %w", err)
	}
	return challenges, total, nil
}

func applyChallengeFilter(db *gorm.DB, filter repository.ChallengeFilter) *gorm.DB {
	if filter.Category != "" {
		db = db.Where("challenges.category = ?", filter.Category)
	}
	if filter.OpenOn != nil {
		db = db.Where("challenges.end_date >= ? AND challenges.prizes_distributed = ?", *filter.OpenOn, false)
	}
	return db
}

// ListByUser возвращает челленджи, в которых участвует пользователь
func (r *ChallengeRepo) ListByUser(ctx context.Context, userID uint) ([]entity.Challenge, error) {
	var challenges []entity.Challenge
	err := conn(ctx, r.db).
		Joins("JOIN challenge_members ON challenge_members.challenge_id = challenges.id").
		Where("challenge_members.user_id = ?", userID).
		Order("challenges.start_date DESC").
		Find(&challenges).Error
	if err != nil {
		return nil, fmt.Errorf("list challenges of user %d: %w", userID, err)
	}
	return challenges, nil
}

// SaveLifecycleState сохраняет поля, которыми управляет ежедневный проход
func (r *ChallengeRepo) SaveLifecycleState(ctx context.Context, challenge *entity.Challenge) error {
	err := conn(ctx, r.db).
		Model(challenge).
		Select("total_prize_pool", "active_participant_count", "prizes_distributed", "status", "unallocated_remainder").
		Updates(challenge).Error
	if err != nil {
		return fmt.Errorf("save lifecycle state of challenge %d: %w", challenge.ID, err)
	}
	return nil
}
