package entity

import (
	"time"

	"gorm.io/datatypes"
)

// AchievementType тип достижения из каталога
type AchievementType string

const (
	AchievementFirstChallengeCompleted AchievementType = "FIRST_CHALLENGE_COMPLETED"
	AchievementSevenDayStreak          AchievementType = "SEVEN_DAY_STREAK"
	AchievementPerfectChallenge        AchievementType = "PERFECT_CHALLENGE"
	AchievementFirstPenaltyPayment     AchievementType = "FIRST_PENALTY_PAYMENT"
)

// Achievement запись каталога достижений
type Achievement struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Type        AchievementType `gorm:"size:50;not null;uniqueIndex" json:"type"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Description string          `gorm:"size:255;not null" json:"description"`
	IconURL     string          `gorm:"size:255;not null;default:''" json:"icon_url"`
	Active      bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement разблокированное достижение пользователя
type UserAchievement struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uint           `gorm:"not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	ChallengeID   *uint          `json:"challenge_id,omitempty"`
	Context       datatypes.JSON `json:"context,omitempty"`
	UnlockedAt    time.Time      `gorm:"not null" json:"unlocked_at"`

	Achievement *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (UserAchievement) TableName() string {
	return "user_achievements"
}

// AchievementStats прогресс пользователя по активному каталогу
type AchievementStats struct {
	Unlocked       int     `json:"unlocked"`
	Total          int     `json:"total"`
	CompletionRate float64 `json:"completion_rate"`
}

// TriggerKind событие, по которому оцениваются достижения
type TriggerKind string

const (
	TriggerStreakDay          TriggerKind = "streak_day"
	TriggerChallengeCompleted TriggerKind = "challenge_completed"
	TriggerPerfectChallenge   TriggerKind = "perfect_challenge"
	TriggerPenaltyPaid        TriggerKind = "penalty_paid"
)

// AchievementTrigger запрос "оценить событие Kind для пользователя UserID"
type AchievementTrigger struct {
	Kind        TriggerKind `json:"kind"`
	UserID      uint        `json:"user_id"`
	ChallengeID uint        `json:"challenge_id"`
	// Streak текущая длина серии для TriggerStreakDay
	Streak int `json:"streak,omitempty"`
	// ProgressDays и DurationDays для TriggerPerfectChallenge
	ProgressDays int `json:"progress_days,omitempty"`
	DurationDays int `json:"duration_days,omitempty"`
}
