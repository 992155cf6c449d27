package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/handler/dto"
)

// UserProfileReader чтение профиля пользователя
type UserProfileReader interface {
	GetProfile(ctx context.Context, userID uint) (*entity.User, error)
}

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	users UserProfileReader
	log   *logrus.Entry
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(users UserProfileReader, log *logrus.Entry) *UserHandler {
	return &UserHandler{users: users, log: log.WithField("component", "UserHandler")}
}

// Me возвращает профиль текущего пользователя
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
