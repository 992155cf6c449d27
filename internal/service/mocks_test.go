package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/domain/repository"
	"github.com/yourusername/habitleague-api/internal/service/payment"
)

// ============================================================================
// Моки репозиториев и внешних сервисов
// ============================================================================

// passthroughTx выполняет fn без реальной транзакции
type passthroughTx struct {
	calls int
}

func (p *passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

// MockChallengeRepo реализует repository.ChallengeRepository
type MockChallengeRepo struct {
	mock.Mock
}

func (m *MockChallengeRepo) Create(ctx context.Context, c *entity.Challenge) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockChallengeRepo) GetByID(ctx context.Context, id uint) (*entity.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Challenge), args.Error(1)
}

func (m *MockChallengeRepo) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Challenge), args.Error(1)
}

func (m *MockChallengeRepo) FindActiveForDate(ctx context.Context, date time.Time) ([]entity.Challenge, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Challenge), args.Error(1)
}

func (m *MockChallengeRepo) List(ctx context.Context, filter repository.ChallengeFilter, limit, offset int) ([]entity.Challenge, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Challenge), args.Get(1).(int64), args.Error(2)
}

func (m *MockChallengeRepo) ListByUser(ctx context.Context, userID uint) ([]entity.Challenge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Challenge), args.Error(1)
}

func (m *MockChallengeRepo) SaveLifecycleState(ctx context.Context, c *entity.Challenge) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockMemberRepo реализует repository.ChallengeMemberRepository
type MockMemberRepo struct {
	mock.Mock
}

func (m *MockMemberRepo) Create(ctx context.Context, member *entity.ChallengeMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepo) GetByChallengeAndUser(ctx context.Context, challengeID, userID uint) (*entity.ChallengeMember, error) {
	args := m.Called(ctx, challengeID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ChallengeMember), args.Error(1)
}

func (m *MockMemberRepo) GetByChallengeAndUserForUpdate(ctx context.Context, challengeID, userID uint) (*entity.ChallengeMember, error) {
	args := m.Called(ctx, challengeID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ChallengeMember), args.Error(1)
}

func (m *MockMemberRepo) ListActiveForUpdate(ctx context.Context, challengeID uint) ([]entity.ChallengeMember, error) {
	args := m.Called(ctx, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ChallengeMember), args.Error(1)
}

func (m *MockMemberRepo) ListByChallenge(ctx context.Context, challengeID uint) ([]entity.ChallengeMember, error) {
	args := m.Called(ctx, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ChallengeMember), args.Error(1)
}

func (m *MockMemberRepo) ListByUser(ctx context.Context, userID uint) ([]entity.ChallengeMember, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ChallengeMember), args.Error(1)
}

func (m *MockMemberRepo) CountActive(ctx context.Context, challengeID uint) (int64, error) {
	args := m.Called(ctx, challengeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberRepo) CountPaid(ctx context.Context, challengeID uint) (int64, error) {
	args := m.Called(ctx, challengeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberRepo) Update(ctx context.Context, member *entity.ChallengeMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

// MockLocationRepo реализует repository.LocationRepository
type MockLocationRepo struct {
	mock.Mock
}

func (m *MockLocationRepo) Create(ctx context.Context, l *entity.RegisteredLocation) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLocationRepo) GetByMemberID(ctx context.Context, memberID uint) (*entity.RegisteredLocation, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RegisteredLocation), args.Error(1)
}

// MockEvidenceRepo реализует repository.EvidenceRepository
type MockEvidenceRepo struct {
	mock.Mock
}

func (m *MockEvidenceRepo) Create(ctx context.Context, e *entity.Evidence) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEvidenceRepo) UpdateValidation(ctx context.Context, e *entity.Evidence) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEvidenceRepo) ExistsInWindow(ctx context.Context, memberID uint, from, to time.Time) (bool, error) {
	args := m.Called(ctx, memberID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockEvidenceRepo) ListByMember(ctx context.Context, memberID uint) ([]entity.Evidence, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Evidence), args.Error(1)
}

func (m *MockEvidenceRepo) CreateVerification(ctx context.Context, v *entity.EvidenceLocationVerification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockEvidenceRepo) StatsByUser(ctx context.Context, userID uint) (*entity.EvidenceStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EvidenceStats), args.Error(1)
}

// MockAchievementRepo реализует repository.AchievementRepository
type MockAchievementRepo struct {
	mock.Mock
}

func (m *MockAchievementRepo) ExistsByType(ctx context.Context, t entity.AchievementType) (bool, error) {
	args := m.Called(ctx, t)
	return args.Bool(0), args.Error(1)
}

func (m *MockAchievementRepo) Create(ctx context.Context, a *entity.Achievement) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAchievementRepo) GetByType(ctx context.Context, t entity.AchievementType) (*entity.Achievement, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Achievement), args.Error(1)
}

func (m *MockAchievementRepo) ListActive(ctx context.Context) ([]entity.Achievement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Achievement), args.Error(1)
}

func (m *MockAchievementRepo) Unlock(ctx context.Context, u *entity.UserAchievement) (bool, error) {
	args := m.Called(ctx, u)
	return args.Bool(0), args.Error(1)
}

func (m *MockAchievementRepo) ListByUser(ctx context.Context, userID uint) ([]entity.UserAchievement, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserAchievement), args.Error(1)
}

// MockPaymentRepo реализует repository.PaymentRepository
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepo) CountSucceeded(ctx context.Context, userID uint, kind entity.PaymentKind) (int64, error) {
	args := m.Called(ctx, userID, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepo) ListByMember(ctx context.Context, memberID uint) ([]entity.Payment, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Payment), args.Error(1)
}

// MockCharger реализует Charger
type MockCharger struct {
	mock.Mock
}

func (m *MockCharger) Charge(ctx context.Context, req payment.ChargeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockImageValidator реализует ImageValidator
type MockImageValidator struct {
	mock.Mock
}

func (m *MockImageValidator) Validate(ctx context.Context, imageURL string) (bool, error) {
	args := m.Called(ctx, imageURL)
	return args.Bool(0), args.Error(1)
}

// MockNotifier реализует lifecycle.AchievementNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(trigger entity.AchievementTrigger) {
	m.Called(trigger)
}

// fixedClock часы, остановленные в заданный момент
func fixedClock(now time.Time) Clock {
	return Clock{Now: func() time.Time { return now }, Location: now.Location()}
}
