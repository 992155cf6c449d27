package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChallengeMember участие пользователя в одном челлендже
type ChallengeMember struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	ChallengeID        uint            `gorm:"not null;uniqueIndex:idx_member_challenge_user;index" json:"challenge_id"`
	UserID             uint            `gorm:"not null;uniqueIndex:idx_member_challenge_user;index" json:"user_id"`
	JoinedAt           time.Time       `gorm:"type:date;not null" json:"joined_at"`
	ProgressDays       int             `gorm:"not null;default:0" json:"progress_days"`
	TotalPenalties     decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"total_penalties"`
	PaymentCompleted   bool            `gorm:"not null;default:false" json:"payment_completed"`
	LocationRegistered bool            `gorm:"not null;default:false" json:"location_registered"`
	// HasCompleted означает "всё ещё в игре": true до выбывания, после выбывания
	// обратно в true не переводится.
	HasCompleted bool       `gorm:"not null;default:true" json:"has_completed"`
	EliminatedOn *time.Time `gorm:"type:date" json:"eliminated_on,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (ChallengeMember) TableName() string {
	return "challenge_members"
}

// IsActive сообщает, что участник не выбыл
func (m *ChallengeMember) IsActive() bool {
	return m.HasCompleted
}

// Eliminate переводит участника в выбывшие. Повторный вызов ничего не меняет.
func (m *ChallengeMember) Eliminate(on time.Time) bool {
	if !m.HasCompleted {
		return false
	}
	m.HasCompleted = false
	day := on
	m.EliminatedOn = &day
	return true
}

// ReadyToSubmit сообщает, выполнены ли оба предварительных условия участия
func (m *ChallengeMember) ReadyToSubmit() bool {
	return m.PaymentCompleted && m.LocationRegistered
}
