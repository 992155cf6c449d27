package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/domain/repository"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
)

// TokenIssuer выпускает токены доступа
type TokenIssuer interface {
	GenerateToken(userID uint, email, role string) (string, error)
}

// UserService читает пользователей, заведённых внешним слоем аутентификации
type UserService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	log      *logrus.Entry
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository, tokens TokenIssuer, log *logrus.Entry) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log.WithField("component", "UserService"),
	}
}

// GetProfile возвращает пользователя по ID
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// IssueToken выпускает токен для существующего пользователя. Используется
// операторами из CLI, когда внешний провайдер недоступен.
func (s *UserService) IssueToken(ctx context.Context, email string) (string, *entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", nil, fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	s.log.WithField("user_id", user.ID).Info("[UserService] Выпущен токен доступа")
	return token, user, nil
}
