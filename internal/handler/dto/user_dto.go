package dto

import (
	"time"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// UserResponse профиль пользователя
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse создает DTO пользователя
func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IsAdmin:   u.IsAdmin(),
		CreatedAt: u.CreatedAt,
	}
}
