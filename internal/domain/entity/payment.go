package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentKind назначение платежа
type PaymentKind string

const (
	PaymentKindEntryFee PaymentKind = "entry_fee"
	PaymentKindPenalty  PaymentKind = "penalty"
)

// PaymentStatus статус платежа
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment входящий платёж участника (взнос или штраф)
type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	ChallengeID       uint            `gorm:"not null;index" json:"challenge_id"`
	ChallengeMemberID uint            `gorm:"not null;index" json:"challenge_member_id"`
	Kind              PaymentKind     `gorm:"size:20;not null" json:"kind"`
	Amount            decimal.Decimal `gorm:"type:numeric(19,2);not null" json:"amount"`
	Status            PaymentStatus   `gorm:"size:20;not null" json:"status"`
	GatewayReference  string          `gorm:"size:100;not null;default:''" json:"gateway_reference"`
	FailureReason     string          `gorm:"size:255;not null;default:''" json:"failure_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Payment) TableName() string {
	return "payments"
}

// PaymentStats число успешных платежей пользователя по видам
type PaymentStats struct {
	EntryFeesPaid int64 `json:"entry_fees_paid"`
	PenaltiesPaid int64 `json:"penalties_paid"`
}
