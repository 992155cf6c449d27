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

// ChallengeMemberRepo реализует repository.ChallengeMemberRepository
type ChallengeMemberRepo struct {
	db *gorm.DB
}

// NewChallengeMemberRepo создает новый репозиторий участников
func NewChallengeMemberRepo(db *gorm.DB) *ChallengeMemberRepo {
	return &ChallengeMemberRepo{db: db}
}

// Create добавляет участника. Повторное вступление возвращает ErrAlreadyMember.
func (r *ChallengeMemberRepo) Create(ctx context.Context, member *entity.ChallengeMember) error {
	if err := conn(ctx, r.db).Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrAlreadyMember
		}
		return fmt.Errorf("create challenge member: %w", err)
	}
	return nil
}

// GetByChallengeAndUser возвращает участие пользователя в челлендже
func (r *ChallengeMemberRepo) GetByChallengeAndUser(ctx context.Context, challengeID, userID uint) (*entity.ChallengeMember, error) {
	return r.get(conn(ctx, r.db), challengeID, userID)
}

// GetByChallengeAndUserForUpdate то же, что GetByChallengeAndUser, но с блокировкой строки
func (r *ChallengeMemberRepo) GetByChallengeAndUserForUpdate(ctx context.Context, challengeID, userID uint) (*entity.ChallengeMember, error) {
	return r.get(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), challengeID, userID)
}

func (r *ChallengeMemberRepo) get(db *gorm.DB, challengeID, userID uint) (*entity.ChallengeMember, error) {
	var member entity.ChallengeMember
	err := db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member (challenge %d, user %d): %w", challengeID, userID, err)
	}
	return &member, nil
}

// ListActiveForUpdate возвращает активных участников и блокирует их строки
func (r *ChallengeMemberRepo) ListActiveForUpdate(ctx context.Context, challengeID uint) ([]entity.ChallengeMember, error) {
	var members []entity.ChallengeMember
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("challenge_id = ? AND has_completed = ?", challengeID, true).
		Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("list active members of challenge %d: %w", challengeID, err)
	}
	return members, nil
}

// ListByChallenge возвращает всех участников челленджа
func (r *ChallengeMemberRepo) ListByChallenge(ctx context.Context, challengeID uint) ([]entity.ChallengeMember, error) {
	var members []entity.ChallengeMember
	if err := conn(ctx, r.db).Where("challenge_id = ?", challengeID).Order("id ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list members of challenge %d: %w", challengeID, err)
	}
	return members, nil
}

// ListByUser возвращает все участия пользователя
func (r *ChallengeMemberRepo) ListByUser(ctx context.Context, userID uint) ([]entity.ChallengeMember, error) {
	var members []entity.ChallengeMember
	if err := conn(ctx, r.db).Where("user_id = ?", userID).Order("id DESC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list memberships of user %d: %w", userID, err)
	}
	return members, nil
}

// CountActive считает участников, которые ещё не выбыли
func (r *ChallengeMemberRepo) CountActive(ctx context.Context, challengeID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.ChallengeMember{}).
		Where("challenge_id = ? AND has_completed = ?", challengeID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count active members of challenge %d: %w", challengeID, err)
	}
	return count, nil
}

// CountPaid считает участников с оплаченным взносом
func (r *ChallengeMemberRepo) CountPaid(ctx context.Context, challengeID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.ChallengeMember{}).
		Where("challenge_id = ? AND payment_completed = ?", challengeID, true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count paid members of challenge %d: %w", challengeID, err)
	}
	return count, nil
}

// Update сохраняет участника целиком
func (r *ChallengeMemberRepo) Update(ctx context.Context, member *entity.ChallengeMember) error {
	if err := conn(ctx, r.db).Save(member).Error; err != nil {
		return fmt.Errorf("update member %d: %w", member.ID, err)
	}
	return nil
}

// LocationRepo реализует repository.LocationRepository
type LocationRepo struct {
	db *gorm.DB
}

// NewLocationRepo создает новый репозиторий локаций
func NewLocationRepo(db *gorm.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

// Create сохраняет локацию. Вторая регистрация для участника возвращает ErrLocationAlreadyRegistered.
func (r *LocationRepo) Create(ctx context.Context, location *entity.RegisteredLocation) error {
	if err := conn(ctx, r.db).Create(location).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrLocationAlreadyRegistered
		}
		return fmt.Errorf("create registered location: %w", err)
	}
	return nil
}

// GetByMemberID возвращает локацию участника
func (r *LocationRepo) GetByMemberID(ctx context.Context, memberID uint) (*entity.RegisteredLocation, error) {
	var location entity.RegisteredLocation
	if err := conn(ctx, r.db).Where("challenge_member_id = ?", memberID).First(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLocationNotFound
		}
		return nil, fmt.Errorf("get location of member %d: %w", memberID, err)
	}
	return &location, nil
}
