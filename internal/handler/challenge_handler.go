package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/handler/dto"
	"github.com/yourusername/habitleague-api/internal/handler/helper"
	"github.com/yourusername/habitleague-api/internal/service"
)

// ChallengeUseCase операции с челленджами, участием и платежами
type ChallengeUseCase interface {
	CreateChallenge(ctx context.Context, ownerID uint, input service.CreateChallengeInput) (*entity.Challenge, error)
	JoinChallenge(ctx context.Context, userID, challengeID uint) (*entity.ChallengeMember, error)
	PayEntryFee(ctx context.Context, userID, challengeID uint) (*entity.Payment, error)
	PayPenalty(ctx context.Context, userID, challengeID uint, amount decimal.Decimal) (*entity.Payment, error)
	GetChallenge(ctx context.Context, id uint) (*entity.Challenge, error)
	ListChallenges(ctx context.Context, query service.ChallengeQuery) ([]entity.Challenge, int64, error)
	ListParticipants(ctx context.Context, challengeID uint) ([]entity.ChallengeMember, error)
	ListUserChallenges(ctx context.Context, userID uint) ([]entity.Challenge, error)
	GetMembership(ctx context.Context, userID, challengeID uint) (*entity.ChallengeMember, error)
	ListPayments(ctx context.Context, userID, challengeID uint) ([]entity.Payment, error)
	PaymentStats(ctx context.Context, userID uint) (*entity.PaymentStats, error)
}

// ChallengeHandler обрабатывает запросы, связанные с челленджами
type ChallengeHandler struct {
	challenges ChallengeUseCase
	log        *logrus.Entry
}

// NewChallengeHandler создает новый обработчик челленджей
func NewChallengeHandler(challenges ChallengeUseCase, log *logrus.Entry) *ChallengeHandler {
	return &ChallengeHandler{
		challenges: challenges,
		log:        log.WithField("component", "ChallengeHandler"),
	}
}

// CreateChallenge создаёт челлендж от имени текущего пользователя
func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	fee, err := helper.ParseMoney(req.EntryFee)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := helper.ParseDate(req.StartDate)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var end *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		parsed, err := helper.ParseDate(*req.EndDate)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		end = &parsed
	}

	challenge, err := h.challenges.CreateChallenge(c.Request.Context(), userID, service.CreateChallengeInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		EntryFee:     fee,
		DurationDays: req.DurationDays,
		StartDate:    start,
		EndDate:      end,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewChallengeResponse(challenge))
}

// GetChallenge возвращает челлендж по ID
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	challengeID := c.MustGet("challengeID").(uint)

	challenge, err := h.challenges.GetChallenge(c.Request.Context(), challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewChallengeResponse(challenge))
}

// ListChallenges возвращает страницу челленджей.
// Параметры: category, sort=recent|popular, open=true (только открытые для вступления).
func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	openOnly, _ := strconv.ParseBool(c.DefaultQuery("open", "false"))

	challenges, total, err := h.challenges.ListChallenges(c.Request.Context(), service.ChallengeQuery{
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
		OpenOnly: openOnly,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.PaginatedChallengesResponse{
		Challenges: dto.NewChallengeListResponse(challenges),
		Total:      total,
		Page:       page,
		PerPage:    pageSize,
	})
}

// JoinChallenge добавляет текущего пользователя в челлендж
func (h *ChallengeHandler) JoinChallenge(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	member, err := h.challenges.JoinChallenge(c.Request.Context(), userID, challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewMemberResponse(member))
}

// PayEntryFee оплачивает вступительный взнос
func (h *ChallengeHandler) PayEntryFee(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	payment, err := h.challenges.PayEntryFee(c.Request.Context(), userID, challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaymentResponse(payment))
}

// PayPenalty оплачивает штраф выбывшего участника
func (h *ChallengeHandler) PayPenalty(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	var req dto.PayPenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	amount, err := helper.ParseMoney(req.Amount)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	payment, err := h.challenges.PayPenalty(c.Request.Context(), userID, challengeID, amount)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaymentResponse(payment))
}

// ListParticipants возвращает участников челленджа
func (h *ChallengeHandler) ListParticipants(c *gin.Context) {
	challengeID := c.MustGet("challengeID").(uint)

	members, err := h.challenges.ListParticipants(c.Request.Context(), challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": dto.NewMemberListResponse(members)})
}

// GetMembership возвращает участие текущего пользователя в челлендже
func (h *ChallengeHandler) GetMembership(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	member, err := h.challenges.GetMembership(c.Request.Context(), userID, challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMemberResponse(member))
}

// ListMyChallenges возвращает челленджи текущего пользователя
func (h *ChallengeHandler) ListMyChallenges(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	challenges, err := h.challenges.ListUserChallenges(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": dto.NewChallengeListResponse(challenges)})
}

// ListPayments возвращает историю платежей текущего пользователя по челленджу
func (h *ChallengeHandler) ListPayments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	payments, err := h.challenges.ListPayments(c.Request.Context(), userID, challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": dto.NewPaymentListResponse(payments)})
}

// PaymentStats возвращает число успешных платежей текущего пользователя
func (h *ChallengeHandler) PaymentStats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.challenges.PaymentStats(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
