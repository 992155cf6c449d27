package repository

import (
	"context"
	"time"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// ChallengeFilter условия выборки списка челленджей. Нулевое значение означает все челленджи,
// новые первыми.
type ChallengeFilter struct {
	Category entity.ChallengeCategory
	// OpenOn оставляет челленджи, которые на эту дату ещё не закончились и не рассчитаны
	OpenOn *time.Time
	// Popular сортирует по числу участников
	Popular bool
}

// ChallengeRepository определяет методы для работы с челленджами
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *entity.Challenge) error
	GetByID(ctx context.Context, id uint) (*entity.Challenge, error)
	// GetByIDForUpdate читает челлендж с блокировкой строки до конца транзакции
	GetByIDForUpdate(ctx context.Context, id uint) (*entity.Challenge, error)
	// FindActiveForDate возвращает челленджи, окно которых содержит date и призы по которым не распределены
	FindActiveForDate(ctx context.Context, date time.Time) ([]entity.Challenge, error)
	List(ctx context.Context, filter ChallengeFilter, limit, offset int) ([]entity.Challenge, int64, error)
	ListByUser(ctx context.Context, userID uint) ([]entity.Challenge, error)
	// SaveLifecycleState сохраняет поля, которыми управляет ежедневный проход
	SaveLifecycleState(ctx context.Context, challenge *entity.Challenge) error
}

// ChallengeMemberRepository определяет методы для работы с участниками
type ChallengeMemberRepository interface {
	Create(ctx context.Context, member *entity.ChallengeMember) error
	GetByChallengeAndUser(ctx context.Context, challengeID, userID uint) (*entity.ChallengeMember, error)
	// GetByChallengeAndUserForUpdate блокирует строку участника, сериализуя отправку
	// доказательств и ежедневный проход
	GetByChallengeAndUserForUpdate(ctx context.Context, challengeID, userID uint) (*entity.ChallengeMember, error)
	// ListActiveForUpdate возвращает активных участников челленджа с блокировкой строк
	ListActiveForUpdate(ctx context.Context, challengeID uint) ([]entity.ChallengeMember, error)
	ListByChallenge(ctx context.Context, challengeID uint) ([]entity.ChallengeMember, error)
	ListByUser(ctx context.Context, userID uint) ([]entity.ChallengeMember, error)
	CountActive(ctx context.Context, challengeID uint) (int64, error)
	CountPaid(ctx context.Context, challengeID uint) (int64, error)
	Update(ctx context.Context, member *entity.ChallengeMember) error
}

// LocationRepository определяет методы для работы с зарегистрированными локациями
type LocationRepository interface {
	Create(ctx context.Context, location *entity.RegisteredLocation) error
	GetByMemberID(ctx context.Context, memberID uint) (*entity.RegisteredLocation, error)
}
