package dto

import (
	"time"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/handler/helper"
	"github.com/yourusername/habitleague-api/internal/service/lifecycle"
)

// RunLifecycleRequest ручной запуск прохода. Пустая дата означает "вчера".
type RunLifecycleRequest struct {
	Date string `json:"date"`
}

// PoolStatusResponse состояние призового фонда
type PoolStatusResponse struct {
	ChallengeID          uint    `json:"challenge_id"`
	Status               string  `json:"status"`
	TotalPool            string  `json:"total_pool"`
	ActiveCount          int     `json:"active_count"`
	PerWinnerEstimate    string  `json:"per_winner_estimate"`
	Distributed          bool    `json:"distributed"`
	UnallocatedRemainder *string `json:"unallocated_remainder,omitempty"`
}

// DailyCheckResponse запись аудита прохода
type DailyCheckResponse struct {
	ChallengeID     uint      `json:"challenge_id"`
	CheckDate       string    `json:"check_date"`
	EliminatedCount int       `json:"eliminated_count"`
	ActiveRemaining int       `json:"active_remaining"`
	CreatedAt       time.Time `json:"created_at"`
}

// DistributionResponse выплата победителю
type DistributionResponse struct {
	ID                   uint       `json:"id"`
	ChallengeID          uint       `json:"challenge_id"`
	ChallengeMemberID    uint       `json:"challenge_member_id"`
	UserID               uint       `json:"user_id"`
	PrizeAmount          string     `json:"prize_amount"`
	Paid                 bool       `json:"paid"`
	PaymentTransactionID *string    `json:"payment_transaction_id,omitempty"`
	PaidAt               *time.Time `json:"paid_at,omitempty"`
	PayoutAttempts       int        `json:"payout_attempts"`
	LastPayoutError      string     `json:"last_payout_error,omitempty"`
}

// NewPoolStatusResponse создает DTO статуса фонда
func NewPoolStatusResponse(s *lifecycle.PoolStatus) PoolStatusResponse {
	return PoolStatusResponse{
		ChallengeID:          s.ChallengeID,
		Status:               string(s.Status),
		TotalPool:            helper.FormatMoney(s.TotalPool),
		ActiveCount:          s.ActiveCount,
		PerWinnerEstimate:    helper.FormatMoney(s.PerWinnerEstimate),
		Distributed:          s.Distributed,
		UnallocatedRemainder: helper.FormatMoneyPtr(s.UnallocatedRemainder),
	}
}

// NewDailyCheckListResponse преобразует записи аудита
func NewDailyCheckListResponse(checks []entity.DailyEvidenceCheck) []DailyCheckResponse {
	out := make([]DailyCheckResponse, 0, len(checks))
	for _, c := range checks {
		out = append(out, DailyCheckResponse{
			ChallengeID:     c.ChallengeID,
			CheckDate:       helper.FormatDate(c.CheckDate),
			EliminatedCount: c.EliminatedCount,
			ActiveRemaining: c.ActiveRemaining,
			CreatedAt:       c.CreatedAt,
		})
	}
	return out
}

// NewDistributionResponse создает DTO выплаты
func NewDistributionResponse(d *entity.PrizeDistribution) DistributionResponse {
	return DistributionResponse{
		ID:                   d.ID,
		ChallengeID:          d.ChallengeID,
		ChallengeMemberID:    d.ChallengeMemberID,
		UserID:               d.UserID,
		PrizeAmount:          helper.FormatMoney(d.PrizeAmount),
		Paid:                 d.Paid,
		PaymentTransactionID: d.PaymentTransactionID,
		PaidAt:               d.PaidAt,
		PayoutAttempts:       d.PayoutAttempts,
		LastPayoutError:      d.LastPayoutError,
	}
}

// NewDistributionListResponse преобразует список выплат
func NewDistributionListResponse(list []entity.PrizeDistribution) []DistributionResponse {
	out := make([]DistributionResponse, 0, len(list))
	for i := range list {
		out = append(out, NewDistributionResponse(&list[i]))
	}
	return out
}
