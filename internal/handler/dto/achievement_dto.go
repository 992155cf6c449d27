package dto

import (
	"time"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// AchievementResponse запись каталога
type AchievementResponse struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url,omitempty"`
}

// UserAchievementResponse разблокированное достижение
type UserAchievementResponse struct {
	Achievement *AchievementResponse `json:"achievement,omitempty"`
	ChallengeID *uint                `json:"challenge_id,omitempty"`
	UnlockedAt  time.Time            `json:"unlocked_at"`
}

// NewAchievementResponse создает DTO записи каталога
func NewAchievementResponse(a *entity.Achievement) AchievementResponse {
	return AchievementResponse{
		Type:        string(a.Type),
		Name:        a.Name,
		Description: a.Description,
		IconURL:     a.IconURL,
	}
}

// NewCatalogResponse преобразует каталог
func NewCatalogResponse(list []entity.Achievement) []AchievementResponse {
	out := make([]AchievementResponse, 0, len(list))
	for i := range list {
		out = append(out, NewAchievementResponse(&list[i]))
	}
	return out
}

// NewUserAchievementListResponse преобразует разблокированные достижения
func NewUserAchievementListResponse(list []entity.UserAchievement) []UserAchievementResponse {
	out := make([]UserAchievementResponse, 0, len(list))
	for _, ua := range list {
		item := UserAchievementResponse{ChallengeID: ua.ChallengeID, UnlockedAt: ua.UnlockedAt}
		if ua.Achievement != nil {
			a := NewAchievementResponse(ua.Achievement)
			item.Achievement = &a
		}
		out = append(out, item)
	}
	return out
}
