package entity

import "time"

// DefaultToleranceRadius радиус допуска по умолчанию, в метрах
const DefaultToleranceRadius = 100.0

// RegisteredLocation домашняя точка участника, с которой он отправляет доказательства.
// После создания не изменяется.
type RegisteredLocation struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ChallengeMemberID uint      `gorm:"not null;uniqueIndex" json:"challenge_member_id"`
	Latitude          float64   `gorm:"not null" json:"latitude"`
	Longitude         float64   `gorm:"not null" json:"longitude"`
	ToleranceRadius   float64   `gorm:"not null;default:100" json:"tolerance_radius"`
	Address           string    `gorm:"size:255;not null;default:''" json:"address,omitempty"`
	LocationName      string    `gorm:"size:120;not null;default:''" json:"location_name,omitempty"`
	RegisteredAt      time.Time `gorm:"not null" json:"registered_at"`
}

// TableName определяет имя таблицы для GORM
func (RegisteredLocation) TableName() string {
	return "registered_locations"
}
