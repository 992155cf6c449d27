package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/handler/dto"
	"github.com/yourusername/habitleague-api/internal/service"
	"github.com/yourusername/habitleague-api/pkg/geo"
)

// LocationUseCase регистрация локации и проверка близости
type LocationUseCase interface {
	RegisterLocation(ctx context.Context, userID, challengeID uint, input service.RegisterLocationInput) (*entity.RegisteredLocation, error)
	GetRegisteredLocation(ctx context.Context, userID, challengeID uint) (*entity.RegisteredLocation, error)
	CheckProximity(ctx context.Context, userID, challengeID uint, lat, lng float64) (*geo.Result, error)
}

// EvidenceUseCase приём и чтение доказательств
type EvidenceUseCase interface {
	SubmitEvidence(ctx context.Context, userID, challengeID uint, input service.SubmitEvidenceInput) (*service.SubmissionResult, error)
	ListMemberEvidence(ctx context.Context, userID, challengeID uint) ([]entity.Evidence, error)
	HasSubmittedToday(ctx context.Context, userID, challengeID uint) (bool, error)
	EvidenceStats(ctx context.Context, userID uint) (*entity.EvidenceStats, error)
}

// EvidenceHandler обрабатывает локации и ежедневные доказательства участников
type EvidenceHandler struct {
	locations LocationUseCase
	evidence  EvidenceUseCase
	log       *logrus.Entry
}

// NewEvidenceHandler создает новый обработчик доказательств
func NewEvidenceHandler(locations LocationUseCase, evidence EvidenceUseCase, log *logrus.Entry) *EvidenceHandler {
	return &EvidenceHandler{
		locations: locations,
		evidence:  evidence,
		log:       log.WithField("component", "EvidenceHandler"),
	}
}

// RegisterLocation регистрирует домашнюю точку участника
func (h *EvidenceHandler) RegisterLocation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	var req dto.RegisterLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	location, err := h.locations.RegisterLocation(c.Request.Context(), userID, challengeID, service.RegisterLocationInput{
		Latitude:        *req.Latitude,
		Longitude:       *req.Longitude,
		ToleranceRadius: req.ToleranceRadius,
		Address:         req.Address,
		LocationName:    req.LocationName,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewLocationResponse(location))
}

// GetLocation возвращает зарегистрированную точку
func (h *EvidenceHandler) GetLocation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	location, err := h.locations.GetRegisteredLocation(c.Request.Context(), userID, challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLocationResponse(location))
}

// CheckProximity проверяет координаты относительно зарегистрированной точки, ничего не сохраняя
func (h *EvidenceHandler) CheckProximity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	var req dto.CoordinatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	result, err := h.locations.CheckProximity(c.Request.Context(), userID, challengeID, *req.Latitude, *req.Longitude)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProximityResponse(result))
}

// SubmitEvidence принимает ежедневное доказательство
func (h *EvidenceHandler) SubmitEvidence(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	var req dto.SubmitEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}

	result, err := h.evidence.SubmitEvidence(c.Request.Context(), userID, challengeID, service.SubmitEvidenceInput{
		ImageURL:  req.ImageURL,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewEvidenceResponse(result.Evidence, result.Verification))
}

// ListEvidence возвращает доказательства текущего пользователя в челлендже
func (h *EvidenceHandler) ListEvidence(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	list, err := h.evidence.ListMemberEvidence(c.Request.Context(), userID, challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	out := make([]dto.EvidenceResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.NewEvidenceResponse(&list[i], nil))
	}
	c.JSON(http.StatusOK, gin.H{"evidence": out})
}

// SubmittedToday сообщает, отправлено ли доказательство за сегодня
func (h *EvidenceHandler) SubmittedToday(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	challengeID := c.MustGet("challengeID").(uint)

	submitted, err := h.evidence.HasSubmittedToday(c.Request.Context(), userID, challengeID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submitted_today": submitted})
}

// Stats возвращает статистику доказательств текущего пользователя
func (h *EvidenceHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.evidence.EvidenceStats(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
