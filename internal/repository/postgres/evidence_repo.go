package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// EvidenceRepo реализует repository.EvidenceRepository
type EvidenceRepo struct {
	db *gorm.DB
}

// NewEvidenceRepo создает новый репозиторий доказательств
func NewEvidenceRepo(db *gorm.DB) *EvidenceRepo {
	return &EvidenceRepo{db: db}
}

// Create сохраняет доказательство
func (r *EvidenceRepo) Create(ctx context.Context, evidence *entity.Evidence) error {
	if err := conn(ctx, r.db).Create(evidence).Error; err != nil {
		return fmt.Errorf("create evidence: %w", err)
	}
	return nil
}

// UpdateValidation обновляет флаги проверки
func (r *EvidenceRepo) UpdateValidation(ctx context.Context, evidence *entity.Evidence) error {
	err := conn(ctx, r.db).Model(evidence).
		Select("ai_validated", "location_valid").
		Updates(evidence).Error
	if err != nil {
		return fmt.Errorf("update evidence %d validation: %w", evidence.ID, err)
	}
	return nil
}

// ExistsInWindow проверяет наличие доказательства в окне [from, to)
func (r *EvidenceRepo) ExistsInWindow(ctx context.Context, memberID uint, from, to time.Time) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Evidence{}).
		Where("challenge_member_id = ? AND submitted_at >= ? AND submitted_at < ?", memberID, from, to).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check evidence of member %d: %w", memberID, err)
	}
	return count > 0, nil
}

// ListByMember возвращает доказательства участника, новые первыми
func (r *EvidenceRepo) ListByMember(ctx context.Context, memberID uint) ([]entity.Evidence, error) {
	var evidences []entity.Evidence
	err := conn(ctx, r.db).Where("challenge_member_id = ?", memberID).
		Order("submitted_at DESC").
		Find(&evidences).Error
	if err != nil {
		return nil, fmt.Errorf("list evidence of member %d: %w", memberID, err)
	}
	return evidences, nil
}

// CreateVerification сохраняет результат проверки локации
func (r *EvidenceRepo) CreateVerification(ctx context.Context, verification *entity.EvidenceLocationVerification) error {
	if err := conn(ctx, r.db).Create(verification).Error; err != nil {
		return fmt.Errorf("create location verification: %w", err)
	}
	return nil
}

// StatsByUser считает статистику доказательств пользователя по всем челленджам
func (r *EvidenceRepo) StatsByUser(ctx context.Context, userID uint) (*entity.EvidenceStats, error) {
	var stats entity.EvidenceStats
	err := conn(ctx, r.db).Model(&entity.Evidence{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN evidences.ai_validated THEN 1 ELSE 0 END), 0) AS ai_validated,
			COALESCE(SUM(CASE WHEN evidences.location_valid THEN 1 ELSE 0 END), 0) AS location_valid,
			COALESCE(SUM(CASE WHEN evidences.ai_validated AND evidences.location_valid THEN 1 ELSE 0 END), 0) AS both_valid`).
		Joins("JOIN challenge_members ON challenge_members.id = evidences.challenge_member_id").
		Where("challenge_members.user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("evidence stats of user %d: %w", userID, err)
	}
	stats.ComputeRates()
	return &stats, nil
}
