package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// PaymentRepo реализует repository.PaymentRepository
type PaymentRepo struct {
	db *gorm.DB
}

// NewPaymentRepo создает новый репозиторий платежей
func NewPaymentRepo(db *gorm.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// Create сохраняет платёж
func (r *PaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	if err := conn(ctx, r.db).Create(payment).Error; err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// CountSucceeded считает успешные платежи пользователя заданного вида
func (r *PaymentRepo) CountSucceeded(ctx context.Context, userID uint, kind entity.PaymentKind) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Payment{}).
		Where("user_id = ? AND kind = ? AND status = ?", userID, kind, entity.PaymentStatusSucceeded).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count payments of user %d: %w", userID, err)
	}
	return count, nil
}

// ListByMember возвращает платежи участника, новые первыми
func (r *PaymentRepo) ListByMember(ctx context.Context, memberID uint) ([]entity.Payment, error) {
	var payments []entity.Payment
	if err := conn(ctx, r.db).Where("challenge_member_id = ?", memberID).Order("id DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("list payments of member %d: %w", memberID, err)
	}
	return payments, nil
}
