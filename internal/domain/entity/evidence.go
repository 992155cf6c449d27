package entity

import "time"

// Evidence ежедневное фото-доказательство участника
type Evidence struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ChallengeMemberID uint      `gorm:"not null;index:idx_evidence_member_submitted" json:"challenge_member_id"`
	ImageURL          string    `gorm:"size:1024;not null" json:"image_url"`
	Latitude          float64   `gorm:"not null" json:"latitude"`
	Longitude         float64   `gorm:"not null" json:"longitude"`
	AIValidated       bool      `gorm:"not null;default:false" json:"ai_validated"`
	LocationValid     bool      `gorm:"not null;default:false" json:"location_valid"`
	SubmittedAt       time.Time `gorm:"not null;index:idx_evidence_member_submitted" json:"submitted_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Evidence) TableName() string {
	return "evidences"
}

// EvidenceLocationVerification результат проверки близости для конкретного доказательства
type EvidenceLocationVerification struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EvidenceID     uint      `gorm:"not null;uniqueIndex" json:"evidence_id"`
	DistanceMeters float64   `gorm:"not null" json:"distance_meters"`
	Tolerance      float64   `gorm:"not null" json:"tolerance"`
	Status         string    `gorm:"size:20;not null" json:"status"`
	VerifiedAt     time.Time `gorm:"not null" json:"verified_at"`
}

// TableName определяет имя таблицы для GORM
func (EvidenceLocationVerification) TableName() string {
	return "evidence_location_verifications"
}

// EvidenceStats агрегированная статистика доказательств пользователя
type EvidenceStats struct {
	Total         int64   `json:"total"`
	AIValidated   int64   `json:"ai_validated"`
	LocationValid int64   `json:"location_valid"`
	BothValid     int64   `json:"both_valid"`
	AIRate        float64 `json:"ai_success_rate"`
	LocationRate  float64 `json:"location_success_rate"`
	OverallRate   float64 `json:"overall_success_rate"`
}

// ComputeRates заполняет доли успешных проверок в процентах
func (s *EvidenceStats) ComputeRates() {
	if s.Total == 0 {
		return
	}
	total := float64(s.Total)
	s.AIRate = float64(s.AIValidated) / total * 100
	s.LocationRate = float64(s.LocationValid) / total * 100
	s.OverallRate = float64(s.BothValid) / total * 100
}
