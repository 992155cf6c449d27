package helper

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// FormatMoney форматирует сумму с двумя знаками после точки
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatMoneyPtr форматирует необязательную сумму
func FormatMoneyPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := FormatMoney(*d)
	return &s
}

// ParseMoney разбирает положительную сумму, не более двух знаков после точки
func ParseMoney(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("amount must have at most two decimal places")
	}
	return amount, nil
}

// ParseDate разбирает календарную дату в формате YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(entity.DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// FormatDate форматирует календарную дату
func FormatDate(t time.Time) string {
	return t.Format(entity.DateLayout)
}

// FormatDatePtr форматирует необязательную календарную дату
func FormatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatDate(*t)
	return &s
}
