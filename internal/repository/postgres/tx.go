package postgres

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// Transactor реализует repository.Transactor поверх gorm
type Transactor struct {
	db *gorm.DB
}

// NewTransactor создает новый Transactor
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTransaction выполняет fn в транзакции. Если ctx уже несёт транзакцию,
// fn выполняется в ней же, без вложенной.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn возвращает транзакцию из ctx или обычное подключение
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
