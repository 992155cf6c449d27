package repository

import (
	"context"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// PaymentRepository хранит входящие платежи
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	// CountSucceeded считает успешные платежи пользователя заданного вида
	CountSucceeded(ctx context.Context, userID uint, kind entity.PaymentKind) (int64, error)
	ListByMember(ctx context.Context, memberID uint) ([]entity.Payment, error)
}
