package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/middleware"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
)

// statusForError сопоставляет категорию ошибки с HTTP-статусом
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrRuleViolation), errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrExternal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleError отправляет ошибку сервиса клиенту вместе с машиночитаемым error_type.
// Текст внутренних ошибок наружу не отдаётся.
func handleError(c *gin.Context, log *logrus.Entry, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("Внутренняя ошибка сервера")
		c.JSON(status, gin.H{"error": "Internal server error", "error_type": apperrors.Kind(err)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "error_type": apperrors.Kind(err)})
}

// badRequest отвечает на невалидное тело или параметры запроса
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "error_type": "invalid_request"})
}

// currentUserID достаёт ID пользователя, выставленный AuthMiddleware
func currentUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
		return 0, false
	}
	return userID, true
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
