package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/handler/dto"
)

// AchievementUseCase чтение каталога и достижений пользователя
type AchievementUseCase interface {
	ListUserAchievements(ctx context.Context, userID uint) ([]entity.UserAchievement, error)
	ListCatalog(ctx context.Context) ([]entity.Achievement, error)
	UserStats(ctx context.Context, userID uint) (*entity.AchievementStats, error)
}

// AchievementHandler отдаёт каталог и разблокированные достижения
type AchievementHandler struct {
	achievements AchievementUseCase
	log          *logrus.Entry
}

// NewAchievementHandler создает обработчик достижений
func NewAchievementHandler(achievements AchievementUseCase, log *logrus.Entry) *AchievementHandler {
	return &AchievementHandler{achievements: achievements, log: log.WithField("component", "AchievementHandler")}
}

// Catalog возвращает активный каталог
func (h *AchievementHandler) Catalog(c *gin.Context) {
	list, err := h.achievements.ListCatalog(c.Request.Context())
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": dto.NewCatalogResponse(list)})
}

// Mine возвращает достижения текущего пользователя
func (h *AchievementHandler) Mine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	list, err := h.achievements.ListUserAchievements(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"achievements": dto.NewUserAchievementListResponse(list)})
}

// Stats возвращает прогресс текущего пользователя по каталогу
func (h *AchievementHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	stats, err := h.achievements.UserStats(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
