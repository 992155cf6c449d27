package repository

import (
	"context"
	"time"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// EvidenceRepository определяет методы для работы с доказательствами
type EvidenceRepository interface {
	Create(ctx context.Context, evidence *entity.Evidence) error
	UpdateValidation(ctx context.Context, evidence *entity.Evidence) error
	// ExistsInWindow проверяет наличие доказательства участника с submitted_at в [from, to)
	ExistsInWindow(ctx context.Context, memberID uint, from, to time.Time) (bool, error)
	ListByMember(ctx context.Context, memberID uint) ([]entity.Evidence, error)
	CreateVerification(ctx context.Context, verification *entity.EvidenceLocationVerification) error
	StatsByUser(ctx context.Context, userID uint) (*entity.EvidenceStats, error)
}
