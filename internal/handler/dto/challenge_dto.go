package dto

import (
	"time"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/handler/helper"
)

// CreateChallengeRequest тело запроса на создание челленджа
type CreateChallengeRequest struct {
	Name         string  `json:"name" binding:"required,max=120"`
	Description  string  `json:"description" binding:"max=2000"`
	Category     string  `json:"category" binding:"required"`
	EntryFee     string  `json:"entry_fee" binding:"required"`
	DurationDays int     `json:"duration_days" binding:"required"`
	StartDate    string  `json:"start_date" binding:"required"`
	EndDate      *string `json:"end_date"`
}

// PayPenaltyRequest тело запроса на оплату штрафа
type PayPenaltyRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// ChallengeResponse челлендж в формате для ответа клиенту
type ChallengeResponse struct {
	ID                     uint      `json:"id"`
	Name                   string    `json:"name"`
	Description            string    `json:"description,omitempty"`
	Category               string    `json:"category"`
	EntryFee               string    `json:"entry_fee"`
	DurationDays           int       `json:"duration_days"`
	StartDate              string    `json:"start_date"`
	EndDate                string    `json:"end_date"`
	Status                 string    `json:"status"`
	CreatedByID            uint      `json:"created_by_id"`
	TotalPrizePool         *string   `json:"total_prize_pool"`
	ActiveParticipantCount *int      `json:"active_participant_count"`
	PrizesDistributed      bool      `json:"prizes_distributed"`
	CreatedAt              time.Time `json:"created_at"`
}

// PaginatedChallengesResponse пагинированный список челленджей
type PaginatedChallengesResponse struct {
	Challenges []ChallengeResponse `json:"challenges"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
}

// MemberResponse участие пользователя в челлендже
type MemberResponse struct {
	ID                 uint      `json:"id"`
	ChallengeID        uint      `json:"challenge_id"`
	UserID             uint      `json:"user_id"`
	JoinedAt           string    `json:"joined_at"`
	ProgressDays       int       `json:"progress_days"`
	TotalPenalties     string    `json:"total_penalties"`
	PaymentCompleted   bool      `json:"payment_completed"`
	LocationRegistered bool      `json:"location_registered"`
	Active             bool      `json:"active"`
	EliminatedOn       *string   `json:"eliminated_on,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// PaymentResponse входящий платёж
type PaymentResponse struct {
	ID               uint      `json:"id"`
	ChallengeID      uint      `json:"challenge_id"`
	Kind             string    `json:"kind"`
	Amount           string    `json:"amount"`
	Status           string    `json:"status"`
	GatewayReference string    `json:"gateway_reference,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewChallengeResponse создает DTO для челленджа
func NewChallengeResponse(c *entity.Challenge) ChallengeResponse {
	return ChallengeResponse{
		ID:                     c.ID,
		Name:                   c.Name,
		Description:            c.Description,
		Category:               string(c.Category),
		EntryFee:               helper.FormatMoney(c.EntryFee),
		DurationDays:           c.DurationDays,
		StartDate:              helper.FormatDate(c.StartDate),
		EndDate:                helper.FormatDate(c.EndDate),
		Status:                 string(c.Status),
		CreatedByID:            c.CreatedByID,
		TotalPrizePool:         helper.FormatMoneyPtr(c.TotalPrizePool),
		ActiveParticipantCount: c.ActiveParticipantCount,
		PrizesDistributed:      c.PrizesDistributed,
		CreatedAt:              c.CreatedAt,
	}
}

// NewChallengeListResponse преобразует список челленджей
func NewChallengeListResponse(challenges []entity.Challenge) []ChallengeResponse {
	out := make([]ChallengeResponse, 0, len(challenges))
	for i := range challenges {
		out = append(out, NewChallengeResponse(&challenges[i]))
	}
	return out
}

// NewMemberResponse создает DTO для участника
func NewMemberResponse(m *entity.ChallengeMember) MemberResponse {
	return MemberResponse{
		ID:                 m.ID,
		ChallengeID:        m.ChallengeID,
		UserID:             m.UserID,
		JoinedAt:           helper.FormatDate(m.JoinedAt),
		ProgressDays:       m.ProgressDays,
		TotalPenalties:     helper.FormatMoney(m.TotalPenalties),
		PaymentCompleted:   m.PaymentCompleted,
		LocationRegistered: m.LocationRegistered,
		Active:             m.IsActive(),
		EliminatedOn:       helper.FormatDatePtr(m.EliminatedOn),
		UpdatedAt:          m.UpdatedAt,
	}
}

// NewMemberListResponse преобразует список участников
func NewMemberListResponse(members []entity.ChallengeMember) []MemberResponse {
	out := make([]MemberResponse, 0, len(members))
	for i := range members {
		out = append(out, NewMemberResponse(&members[i]))
	}
	return out
}

// NewPaymentResponse создает DTO для платежа
func NewPaymentResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		ChallengeID:      p.ChallengeID,
		Kind:             string(p.Kind),
		Amount:           helper.FormatMoney(p.Amount),
		Status:           string(p.Status),
		GatewayReference: p.GatewayReference,
		CreatedAt:        p.CreatedAt,
	}
}

// NewPaymentListResponse преобразует историю платежей
func NewPaymentListResponse(payments []entity.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, NewPaymentResponse(&payments[i]))
	}
	return out
}
