package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
	"github.com/yourusername/habitleague-api/internal/service"
)

func TestCreateChallenge_ValidationErrors(t *testing.T) {
	h := NewChallengeHandler(new(MockChallengeUseCase), testLog)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"пустое тело", nil, http.StatusBadRequest},
		{"нет названия", map[string]interface{}{"category": "fitness", "entry_fee": "10", "duration_days": 30, "start_date": "2025-04-01"}, http.StatusBadRequest},
		{"отрицательный взнос", map[string]interface{}{"name": "Run", "category": "fitness", "entry_fee": "-1", "duration_days": 30, "start_date": "2025-04-01"}, http.StatusBadRequest},
		{"три знака после точки", map[string]interface{}{"name": "Run", "category": "fitness", "entry_fee": "1.005", "duration_days": 30, "start_date": "2025-04-01"}, http.StatusBadRequest},
		{"дата не в формате", map[string]interface{}{"name": "Run", "category": "fitness", "entry_fee": "10", "duration_days": 30, "start_date": "01.04.2025"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodPost, "/api/challenges", tt.body)
			asUser(c, 1)

			h.CreateChallenge(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "invalid_request", parseJSONResponse(t, w)["error_type"])
		})
	}
}

func TestCreateChallenge_RequiresUser(t *testing.T) {
	h := NewChallengeHandler(new(MockChallengeUseCase), testLog)
	c, w := newTestGinContext(http.MethodPost, "/api/challenges", map[string]interface{}{})

	h.CreateChallenge(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateChallenge_Success(t *testing.T) {
	svc := new(MockChallengeUseCase)
	h := NewChallengeHandler(svc, testLog)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	expectedInput := service.CreateChallengeInput{
		Name:         "Morning run",
		Category:     "fitness",
		EntryFee:     decimal.RequireFromString("10"),
		DurationDays: 30,
		StartDate:    start,
	}
	created := &entity.Challenge{
		ID:           5,
		Name:         "Morning run",
		Category:     entity.CategoryFitness,
		EntryFee:     decimal.RequireFromString("10"),
		DurationDays: 30,
		StartDate:    start,
		EndDate:      entity.ComputeEndDate(start, 30),
		Status:       entity.ChallengeStatusCreated,
		CreatedByID:  9,
	}
	svc.On("CreateChallenge", mock.Anything, uint(9), mock.MatchedBy(func(in service.CreateChallengeInput) bool {
		return in.Name == expectedInput.Name && in.EntryFee.Equal(expectedInput.EntryFee) &&
			in.StartDate.Equal(start) && in.EndDate == nil && in.DurationDays == 30
	})).Return(created, nil)

	c, w := newTestGinContext(http.MethodPost, "/api/challenges", map[string]interface{}{
		"name": "Morning run", "category": "fitness", "entry_fee": "10", "duration_days": 30, "start_date": "2025-04-01",
	})
	asUser(c, 9)

	h.CreateChallenge(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "10.00", resp["entry_fee"])
	assert.Equal(t, "2025-04-30", resp["end_date"])
	assert.Nil(t, resp["total_prize_pool"], "фонд не вычисляется при создании")
	svc.AssertExpectations(t)
}

func TestCreateChallenge_InvalidDurationIsRuleViolation(t *testing.T) {
	svc := new(MockChallengeUseCase)
	h := NewChallengeHandler(svc, testLog)
	svc.On("CreateChallenge", mock.Anything, uint(1), mock.Anything).Return(nil, apperrors.ErrInvalidDuration)

	c, w := newTestGinContext(http.MethodPost, "/api/challenges", map[string]interface{}{
		"name": "Short", "category": "fitness", "entry_fee": "10", "duration_days": 5, "start_date": "2025-04-01",
	})
	asUser(c, 1)

	h.CreateChallenge(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_duration", parseJSONResponse(t, w)["error_type"])
}

func TestJoinChallenge(t *testing.T) {
	t.Run("успешное вступление", func(t *testing.T) {
		svc := new(MockChallengeUseCase)
		h := NewChallengeHandler(svc, testLog)
		svc.On("JoinChallenge", mock.Anything, uint(3), uint(5)).Return(&entity.ChallengeMember{
			ID: 11, ChallengeID: 5, UserID: 3, HasCompleted: true, TotalPenalties: decimal.Zero,
		}, nil)

		c, w := newTestGinContext(http.MethodPost, "/api/challenges/5/join", nil)
		asUser(c, 3)
		c.Set("challengeID", uint(5))

		h.JoinChallenge(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := parseJSONResponse(t, w)
		assert.Equal(t, true, resp["active"])
		assert.Equal(t, false, resp["payment_completed"])
		assert.Equal(t, "0.00", resp["total_penalties"])
	})

	t.Run("повторное вступление", func(t *testing.T) {
		svc := new(MockChallengeUseCase)
		h := NewChallengeHandler(svc, testLog)
		svc.On("JoinChallenge", mock.Anything, uint(3), uint(5)).Return(nil, apperrors.ErrAlreadyMember)

		c, w := newTestGinContext(http.MethodPost, "/api/challenges/5/join", nil)
		asUser(c, 3)
		c.Set("challengeID", uint(5))

		h.JoinChallenge(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "already_member", parseJSONResponse(t, w)["error_type"])
	})
}

func TestPayPenalty(t *testing.T) {
	svc := new(MockChallengeUseCase)
	h := NewChallengeHandler(svc, testLog)
	svc.On("PayPenalty", mock.Anything, uint(3), uint(5), mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.RequireFromString("2.5"))
	})).Return(nil, apperrors.ErrNotEliminated)

	c, w := newTestGinContext(http.MethodPost, "/api/challenges/5/penalty", map[string]string{"amount": "2.50"})
	asUser(c, 3)
	c.Set("challengeID", uint(5))

	h.PayPenalty(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_eliminated", parseJSONResponse(t, w)["error_type"])
	svc.AssertExpectations(t)
}

func TestPayEntryFee_GatewayFailure(t *testing.T) {
	svc := new(MockChallengeUseCase)
	h := NewChallengeHandler(svc, testLog)
	svc.On("PayEntryFee", mock.Anything, uint(3), uint(5)).Return(nil, apperrors.ErrExternal)

	c, w := newTestGinContext(http.MethodPost, "/api/challenges/5/pay", nil)
	asUser(c, 3)
	c.Set("challengeID", uint(5))

	h.PayEntryFee(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestListChallenges_ClampsPagination(t *testing.T) {
	svc := new(MockChallengeUseCase)
	h := NewChallengeHandler(svc, testLog)
	svc.On("ListChallenges", mock.Anything, service.ChallengeQuery{Page: 1, PageSize: 20}).Return([]entity.Challenge{}, int64(0), nil)

	c, w := newTestGinContext(http.MethodGet, "/api/challenges?page=-3&page_size=500", nil)

	h.ListChallenges(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, float64(20), resp["per_page"])
	svc.AssertExpectations(t)
}

func TestListChallenges_PassesDiscoveryFilters(t *testing.T) {
	// Arrange
	svc := new(MockChallengeUseCase)
	h := NewChallengeHandler(svc, testLog)
	want := service.ChallengeQuery{Category: "fitness", Sort: "popular", OpenOnly: true, Page: 2, PageSize: 10}
	svc.On("ListChallenges", mock.Anything, want).
		Return([]entity.Challenge{{ID: 4, Name: "Зал", Category: entity.CategoryFitness, EntryFee: decimal.NewFromInt(10)}}, int64(11), nil)

	c, w := newTestGinContext(http.MethodGet, "/api/challenges?category=fitness&sort=popular&open=true&page=2&page_size=10", nil)

	// Act
	h.ListChallenges(c)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, float64(11), resp["total"])
	list := resp["challenges"].([]interface{})
	assert.Len(t, list, 1)
	assert.Equal(t, "fitness", list[0].(map[string]interface{})["category"])
	svc.AssertExpectations(t)
}

func TestListChallenges_UnknownCategory(t *testing.T) {
	svc := new(MockChallengeUseCase)
	h := NewChallengeHandler(svc, testLog)
	svc.On("ListChallenges", mock.Anything, mock.AnythingOfType("service.ChallengeQuery")).
		Return(nil, int64(0), fmt.Errorf("%w: unknown challenge category", apperrors.ErrValidation))

	c, w := newTestGinContext(http.MethodGet, "/api/challenges?category=gaming", nil)

	h.ListChallenges(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_error", parseJSONResponse(t, w)["error_type"])
}

func TestListPayments_ReturnsHistory(t *testing.T) {
	// Arrange
	svc := new(MockChallengeUseCase)
	h := NewChallengeHandler(svc, testLog)
	svc.On("ListPayments", mock.Anything, uint(7), uint(5)).Return([]entity.Payment{
		{ID: 2, ChallengeID: 5, Kind: entity.PaymentKindPenalty, Amount: decimal.RequireFromString("2.5"), Status: entity.PaymentStatusSucceeded},
		{ID: 1, ChallengeID: 5, Kind: entity.PaymentKindEntryFee, Amount: decimal.NewFromInt(10), Status: entity.PaymentStatusFailed},
	}, nil)

	c, w := newTestGinContext(http.MethodGet, "/api/challenges/5/payments", nil)
	asUser(c, 7)
	c.Set("challengeID", uint(5))

	// Act
	h.ListPayments(c)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	payments := parseJSONResponse(t, w)["payments"].([]interface{})
	assert.Len(t, payments, 2)
	first := payments[0].(map[string]interface{})
	assert.Equal(t, "penalty", first["kind"])
	assert.Equal(t, "2.50", first["amount"], "сумма отдаётся строкой с двумя знаками")
}

func TestListPayments_NotMember(t *testing.T) {
	svc := new(MockChallengeUseCase)
	h := NewChallengeHandler(svc, testLog)
	svc.On("ListPayments", mock.Anything, uint(7), uint(5)).Return(nil, apperrors.ErrMemberNotFound)

	c, w := newTestGinContext(http.MethodGet, "/api/challenges/5/payments", nil)
	asUser(c, 7)
	c.Set("challengeID", uint(5))

	h.ListPayments(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentStats(t *testing.T) {
	svc := new(MockChallengeUseCase)
	h := NewChallengeHandler(svc, testLog)
	svc.On("PaymentStats", mock.Anything, uint(7)).Return(&entity.PaymentStats{EntryFeesPaid: 2, PenaltiesPaid: 1}, nil)

	c, w := newTestGinContext(http.MethodGet, "/api/users/me/payments/stats", nil)
	asUser(c, 7)

	h.PaymentStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, float64(2), resp["entry_fees_paid"])
	assert.Equal(t, float64(1), resp["penalties_paid"])
}
