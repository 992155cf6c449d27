package repository

import (
	"context"
	"time"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// DailyCheckRepository хранит записи аудита ежедневного прохода
type DailyCheckRepository interface {
	Exists(ctx context.Context, challengeID uint, checkDate time.Time) (bool, error)
	Create(ctx context.Context, check *entity.DailyEvidenceCheck) error
	ListByChallenge(ctx context.Context, challengeID uint) ([]entity.DailyEvidenceCheck, error)
}

// PrizeDistributionRepository хранит выплаты победителям
type PrizeDistributionRepository interface {
	ExistsForMember(ctx context.Context, challengeID, memberID uint) (bool, error)
	Create(ctx context.Context, distribution *entity.PrizeDistribution) error
	// GetForUpdate читает выплату с блокировкой строки, чтобы две попытки выплаты не шли параллельно
	GetForUpdate(ctx context.Context, id uint) (*entity.PrizeDistribution, error)
	Update(ctx context.Context, distribution *entity.PrizeDistribution) error
	ListByChallenge(ctx context.Context, challengeID uint) ([]entity.PrizeDistribution, error)
	// ListUnpaid возвращает невыплаченные записи; challengeID == 0 означает все челленджи
	ListUnpaid(ctx context.Context, challengeID uint) ([]entity.PrizeDistribution, error)
}
