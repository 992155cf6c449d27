package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
	"github.com/yourusername/habitleague-api/pkg/logger"
)

func createTestAchievementService() (*AchievementService, *MockAchievementRepo) {
	repo := new(MockAchievementRepo)
	return NewAchievementService(repo, fixedClock(testNow), logger.Discard().Component("test")), repo
}

func TestAchievementService_SeedCatalog_InsertsOnlyMissing(t *testing.T) {
	// Arrange
	svc, repo := createTestAchievementService()
	repo.On("ExistsByType", mock.Anything, entity.AchievementFirstChallengeCompleted).Return(true, nil)
	repo.On("ExistsByType", mock.Anything, entity.AchievementSevenDayStreak).Return(false, nil)
	repo.On("ExistsByType", mock.Anything, entity.AchievementPerfectChallenge).Return(true, nil)
	repo.On("ExistsByType", mock.Anything, entity.AchievementFirstPenaltyPayment).Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Achievement")).Return(nil).Twice()

	// Act
	created, err := svc.SeedCatalog(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	repo.AssertExpectations(t)
}

func TestAchievementService_SeedCatalog_ToleratesConcurrentInsert(t *testing.T) {
	svc, repo := createTestAchievementService()
	repo.On("ExistsByType", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(apperrors.ErrConflict)

	created, err := svc.SeedCatalog(context.Background())

	require.NoError(t, err, "запись, вставленная другим экземпляром, не ошибка")
	assert.Equal(t, 0, created)
}

func TestAchievementService_Evaluate_StreakBelowThreshold(t *testing.T) {
	svc, repo := createTestAchievementService()

	got, err := svc.Evaluate(context.Background(), entity.AchievementTrigger{
		Kind: entity.TriggerStreakDay, UserID: 7, ChallengeID: 3, Streak: 6,
	})

	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertNotCalled(t, "GetByType", mock.Anything, mock.Anything)
}

func TestAchievementService_Evaluate_SevenDayStreakUnlocks(t *testing.T) {
	// Arrange
	svc, repo := createTestAchievementService()
	repo.On("GetByType", mock.Anything, entity.AchievementSevenDayStreak).
		Return(&entity.Achievement{ID: 2, Type: entity.AchievementSevenDayStreak, Active: true}, nil)

	var stored *entity.UserAchievement
	repo.On("Unlock", mock.Anything, mock.AnythingOfType("*entity.UserAchievement")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*entity.UserAchievement) }).
		Return(true, nil)

	// Act
	got, err := svc.Evaluate(context.Background(), entity.AchievementTrigger{
		Kind: entity.TriggerStreakDay, UserID: 7, ChallengeID: 3, Streak: 7,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.AchievementSevenDayStreak, got)
	require.NotNil(t, stored)
	assert.Equal(t, uint(2), stored.AchievementID)
	require.NotNil(t, stored.ChallengeID)
	assert.Equal(t, uint(3), *stored.ChallengeID)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(stored.Context, &details))
	assert.EqualValues(t, 7, details["streak"])
}

func TestAchievementService_Evaluate_AlreadyUnlocked(t *testing.T) {
	svc, repo := createTestAchievementService()
	repo.On("GetByType", mock.Anything, entity.AchievementFirstChallengeCompleted).
		Return(&entity.Achievement{ID: 1, Active: true}, nil)
	repo.On("Unlock", mock.Anything, mock.Anything).Return(false, nil)

	got, err := svc.Evaluate(context.Background(), entity.AchievementTrigger{
		Kind: entity.TriggerChallengeCompleted, UserID: 7, ChallengeID: 3,
	})

	require.NoError(t, err)
	assert.Empty(t, got, "повторная разблокировка ничего не возвращает")
}

func TestAchievementService_Evaluate_PerfectRequiresFullProgress(t *testing.T) {
	svc, repo := createTestAchievementService()

	got, err := svc.Evaluate(context.Background(), entity.AchievementTrigger{
		Kind: entity.TriggerPerfectChallenge, UserID: 7, ProgressDays: 20, DurationDays: 21,
	})

	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertNotCalled(t, "Unlock", mock.Anything, mock.Anything)
}

func TestAchievementService_Evaluate_MissingOrInactiveCatalogEntry(t *testing.T) {
	svc, repo := createTestAchievementService()
	repo.On("GetByType", mock.Anything, entity.AchievementFirstPenaltyPayment).Return(nil, apperrors.ErrNotFound).Once()

	got, err := svc.Evaluate(context.Background(), entity.AchievementTrigger{Kind: entity.TriggerPenaltyPaid, UserID: 7})
	require.NoError(t, err)
	assert.Empty(t, got)

	repo.On("GetByType", mock.Anything, entity.AchievementFirstPenaltyPayment).Return(&entity.Achievement{ID: 4, Active: false}, nil)
	got, err = svc.Evaluate(context.Background(), entity.AchievementTrigger{Kind: entity.TriggerPenaltyPaid, UserID: 7})
	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertNotCalled(t, "Unlock", mock.Anything, mock.Anything)
}

func TestAchievementService_Evaluate_UnknownTrigger(t *testing.T) {
	svc, _ := createTestAchievementService()

	_, err := svc.Evaluate(context.Background(), entity.AchievementTrigger{Kind: "birthday", UserID: 7})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAchievementService_UserStats(t *testing.T) {
	// Arrange
	svc, repo := createTestAchievementService()
	repo.On("ListActive", mock.Anything).Return([]entity.Achievement{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}, nil)
	// 9 выведено из каталога и не учитывается
	repo.On("ListByUser", mock.Anything, uint(7)).Return([]entity.UserAchievement{
		{UserID: 7, AchievementID: 2},
		{UserID: 7, AchievementID: 9},
	}, nil)

	// Act
	stats, err := svc.UserStats(context.Background(), 7)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unlocked)
	assert.Equal(t, 4, stats.Total)
	assert.InDelta(t, 25.0, stats.CompletionRate, 0.001)
}

func TestAchievementService_UserStats_EmptyCatalog(t *testing.T) {
	svc, repo := createTestAchievementService()
	repo.On("ListActive", mock.Anything).Return([]entity.Achievement{}, nil)
	repo.On("ListByUser", mock.Anything, uint(7)).Return([]entity.UserAchievement{}, nil)

	stats, err := svc.UserStats(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, &entity.AchievementStats{}, stats)
}
