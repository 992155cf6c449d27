// Package payment содержит симулированный платёжный шлюз.
// Реальная интеграция с провайдером не поддерживается: шлюз решает исход
// операции по настраиваемой вероятности с детерминированным seed.
package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
)

// ChargeRequest списание с пользователя (взнос или штраф)
type ChargeRequest struct {
	UserID      uint
	ChallengeID uint
	Amount      decimal.Decimal
	Description string
}

// PayoutRequest выплата приза победителю
type PayoutRequest struct {
	DistributionID uint
	MemberID       uint
	UserID         uint
	ChallengeID    uint
	Amount         decimal.Decimal
}

// Config настройки симуляции
type Config struct {
	ChargeSuccessRate float64 // доля успешных списаний, 0..1
	PayoutSuccessRate float64 // доля успешных выплат, 0..1
	Seed              int64   // 0 означает seed от текущего времени
	Latency           time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		ChargeSuccessRate: 0.95,
		PayoutSuccessRate: 1.0,
	}
}

// Gateway симулированный платёжный шлюз. Безопасен для конкурентного использования.
type Gateway struct {
	cfg Config
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGateway создает симулированный шлюз
func NewGateway(cfg Config) *Gateway {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Gateway{cfg: cfg, rnd: rand.New(rand.NewSource(seed))}
}

func (g *Gateway) roll(rate float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64() < rate
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.cfg.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(g.cfg.Latency):
		return nil
	}
}

// Charge списывает сумму. Возвращает идентификатор операции шлюза.
func (g *Gateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("%w: charge amount must be positive", apperrors.ErrValidation)
	}
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	if !g.roll(g.cfg.ChargeSuccessRate) {
		return "", fmt.Errorf("%w: charge declined for user %d", apperrors.ErrExternal, req.UserID)
	}
	return "ch_" + uuid.NewString(), nil
}

// Payout переводит приз победителю. Возвращает идентификатор транзакции.
func (g *Gateway) Payout(ctx context.Context, req PayoutRequest) (string, error) {
	if req.Amount.IsNegative() {
		return "", fmt.Errorf("%w: payout amount must not be negative", apperrors.ErrValidation)
	}
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	if !g.roll(g.cfg.PayoutSuccessRate) {
		return "", fmt.Errorf("%w: payout rejected for member %d", apperrors.ErrExternal, req.MemberID)
	}
	return fmt.Sprintf("po_%d_%s", req.ChallengeID, uuid.NewString()), nil
}
