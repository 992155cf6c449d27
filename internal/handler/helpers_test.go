package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/middleware"
	"github.com/yourusername/habitleague-api/internal/service"
	"github.com/yourusername/habitleague-api/internal/service/lifecycle"
	"github.com/yourusername/habitleague-api/pkg/geo"
	"github.com/yourusername/habitleague-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testLog = logger.Discard().Component("test")

// newTestGinContext создает *gin.Context для тестов с JSON body
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// asUser выставляет в контексте то, что выставил бы AuthMiddleware
func asUser(c *gin.Context, userID uint) {
	c.Set(middleware.ContextUserID, userID)
	c.Set(middleware.ContextRole, "user")
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

// --- Моки сценариев ---

type MockChallengeUseCase struct{ mock.Mock }

func (m *MockChallengeUseCase) CreateChallenge(ctx context.Context, ownerID uint, input service.CreateChallengeInput) (*entity.Challenge, error) {
	args := m.Called(ctx, ownerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Challenge), args.Error(1)
}

func (m *MockChallengeUseCase) JoinChallenge(ctx context.Context, userID, challengeID uint) (*entity.ChallengeMember, error) {
	args := m.Called(ctx, userID, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ChallengeMember), args.Error(1)
}

func (m *MockChallengeUseCase) PayEntryFee(ctx context.Context, userID, challengeID uint) (*entity.Payment, error) {
	args := m.Called(ctx, userID, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockChallengeUseCase) PayPenalty(ctx context.Context, userID, challengeID uint, amount decimal.Decimal) (*entity.Payment, error) {
	args := m.Called(ctx, userID, challengeID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockChallengeUseCase) GetChallenge(ctx context.Context, id uint) (*entity.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Challenge), args.Error(1)
}

func (m *MockChallengeUseCase) ListChallenges(ctx context.Context, query service.ChallengeQuery) ([]entity.Challenge, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Challenge), args.Get(1).(int64), args.Error(2)
}

func (m *MockChallengeUseCase) ListPayments(ctx context.Context, userID, challengeID uint) ([]entity.Payment, error) {
	args := m.Called(ctx, userID, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Payment), args.Error(1)
}

func (m *MockChallengeUseCase) PaymentStats(ctx context.Context, userID uint) (*entity.PaymentStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PaymentStats), args.Error(1)
}

func (m *MockChallengeUseCase) ListParticipants(ctx context.Context, challengeID uint) ([]entity.ChallengeMember, error) {
	args := m.Called(ctx, challengeID)
	return args.Get(0).([]entity.ChallengeMember), args.Error(1)
}

func (m *MockChallengeUseCase) ListUserChallenges(ctx context.Context, userID uint) ([]entity.Challenge, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]entity.Challenge), args.Error(1)
}

func (m *MockChallengeUseCase) GetMembership(ctx context.Context, userID, challengeID uint) (*entity.ChallengeMember, error) {
	args := m.Called(ctx, userID, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ChallengeMember), args.Error(1)
}

type MockLocationUseCase struct{ mock.Mock }

func (m *MockLocationUseCase) RegisterLocation(ctx context.Context, userID, challengeID uint, input service.RegisterLocationInput) (*entity.RegisteredLocation, error) {
	args := m.Called(ctx, userID, challengeID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RegisteredLocation), args.Error(1)
}

func (m *MockLocationUseCase) GetRegisteredLocation(ctx context.Context, userID, challengeID uint) (*entity.RegisteredLocation, error) {
	args := m.Called(ctx, userID, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RegisteredLocation), args.Error(1)
}

func (m *MockLocationUseCase) CheckProximity(ctx context.Context, userID, challengeID uint, lat, lng float64) (*geo.Result, error) {
	args := m.Called(ctx, userID, challengeID, lat, lng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geo.Result), args.Error(1)
}

type MockEvidenceUseCase struct{ mock.Mock }

func (m *MockEvidenceUseCase) SubmitEvidence(ctx context.Context, userID, challengeID uint, input service.SubmitEvidenceInput) (*service.SubmissionResult, error) {
	args := m.Called(ctx, userID, challengeID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmissionResult), args.Error(1)
}

func (m *MockEvidenceUseCase) ListMemberEvidence(ctx context.Context, userID, challengeID uint) ([]entity.Evidence, error) {
	args := m.Called(ctx, userID, challengeID)
	return args.Get(0).([]entity.Evidence), args.Error(1)
}

func (m *MockEvidenceUseCase) HasSubmittedToday(ctx context.Context, userID, challengeID uint) (bool, error) {
	args := m.Called(ctx, userID, challengeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEvidenceUseCase) EvidenceStats(ctx context.Context, userID uint) (*entity.EvidenceStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EvidenceStats), args.Error(1)
}

type MockLifecycleUseCase struct{ mock.Mock }

func (m *MockLifecycleUseCase) PerformDailyCheck(ctx context.Context, trigger string) (*lifecycle.RunSummary, error) {
	args := m.Called(ctx, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycle.RunSummary), args.Error(1)
}

func (m *MockLifecycleUseCase) RunForDate(ctx context.Context, checkDate time.Time, trigger string) (*lifecycle.RunSummary, error) {
	args := m.Called(ctx, checkDate, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycle.RunSummary), args.Error(1)
}

func (m *MockLifecycleUseCase) ReconcileUnpaid(ctx context.Context) (*lifecycle.ReconcileSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycle.ReconcileSummary), args.Error(1)
}

func (m *MockLifecycleUseCase) PoolStatus(ctx context.Context, challengeID uint) (*lifecycle.PoolStatus, error) {
	args := m.Called(ctx, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lifecycle.PoolStatus), args.Error(1)
}

func (m *MockLifecycleUseCase) DailyChecks(ctx context.Context, challengeID uint) ([]entity.DailyEvidenceCheck, error) {
	args := m.Called(ctx, challengeID)
	return args.Get(0).([]entity.DailyEvidenceCheck), args.Error(1)
}

func (m *MockLifecycleUseCase) Distributions(ctx context.Context, challengeID uint) ([]entity.PrizeDistribution, error) {
	args := m.Called(ctx, challengeID)
	return args.Get(0).([]entity.PrizeDistribution), args.Error(1)
}

func (m *MockLifecycleUseCase) UnpaidDistributions(ctx context.Context) ([]entity.PrizeDistribution, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.PrizeDistribution), args.Error(1)
}
