package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyEvidenceCheck запись аудита ежедневного прохода.
// Существование записи для (челлендж, дата) означает, что день уже обработан.
type DailyEvidenceCheck struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ChallengeID     uint      `gorm:"not null;uniqueIndex:idx_daily_check_challenge_date" json:"challenge_id"`
	CheckDate       time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_check_challenge_date" json:"check_date"`
	EliminatedCount int       `gorm:"not null;default:0" json:"eliminated_count"`
	ActiveRemaining int       `gorm:"not null;default:0" json:"active_remaining"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (DailyEvidenceCheck) TableName() string {
	return "daily_evidence_checks"
}

// PrizeDistribution выплата одному победителю челленджа
type PrizeDistribution struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	ChallengeID          uint            `gorm:"not null;uniqueIndex:idx_distribution_challenge_member;index" json:"challenge_id"`
	ChallengeMemberID    uint            `gorm:"not null;uniqueIndex:idx_distribution_challenge_member" json:"challenge_member_id"`
	UserID               uint            `gorm:"not null;index" json:"user_id"`
	PrizeAmount          decimal.Decimal `gorm:"type:numeric(19,2);not null" json:"prize_amount"`
	Paid                 bool            `gorm:"not null;default:false;index" json:"paid"`
	PaymentTransactionID *string         `gorm:"size:100" json:"payment_transaction_id,omitempty"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`
	PayoutAttempts       int             `gorm:"not null;default:0" json:"payout_attempts"`
	LastPayoutError      string          `gorm:"size:255;not null;default:''" json:"last_payout_error,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (PrizeDistribution) TableName() string {
	return "prize_distributions"
}

// MarkPaid фиксирует успешную выплату
func (d *PrizeDistribution) MarkPaid(transactionID string, at time.Time) {
	d.Paid = true
	d.PaymentTransactionID = &transactionID
	d.PaidAt = &at
	d.LastPayoutError = ""
}
