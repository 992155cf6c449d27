package repository

import "context"

// Transactor выполняет fn в одной транзакции БД.
// Репозитории, получившие ctx из fn, работают внутри этой транзакции.
// Ошибка или паника внутри fn откатывает все изменения.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
