package errors

import (
	"errors"
	"fmt"
)

// Общие ошибки приложения (категории)
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (гонки, нарушение уникальности).
	ErrConflict = errors.New("resource state conflict")

	// ErrRuleViolation используется, когда операция нарушает правило предметной области.
	// Такие ошибки не повторяются автоматически.
	ErrRuleViolation = errors.New("domain rule violation")

	// ErrExternal используется для отказов внешних сервисов (платежи, валидация изображений).
	ErrExternal = errors.New("external collaborator failure")
)

// Нарушения правил челленджа. Каждая ошибка оборачивает ErrRuleViolation,
// поэтому errors.Is работает и для конкретного вида, и для категории.
var (
	ErrAlreadyMember             = fmt.Errorf("%w: user already joined this challenge", ErrRuleViolation)
	ErrChallengeNotJoinable      = fmt.Errorf("%w: challenge is no longer open for joining", ErrRuleViolation)
	ErrAlreadyPaid               = fmt.Errorf("%w: entry fee already paid", ErrRuleViolation)
	ErrPaymentNotCompleted       = fmt.Errorf("%w: entry fee payment not completed", ErrRuleViolation)
	ErrLocationNotRegistered     = fmt.Errorf("%w: location not registered", ErrRuleViolation)
	ErrLocationAlreadyRegistered = fmt.Errorf("%w: location already registered", ErrRuleViolation)
	ErrEvidenceAlreadySubmitted  = fmt.Errorf("%w: evidence already submitted today", ErrRuleViolation)
	ErrNotEliminated             = fmt.Errorf("%w: member is not eliminated", ErrRuleViolation)
	ErrInvalidDuration           = fmt.Errorf("%w: challenge duration out of range", ErrRuleViolation)
)

// Ошибки "не найдено" для конкретных сущностей
var (
	ErrChallengeNotFound = fmt.Errorf("%w: challenge", ErrNotFound)
	ErrMemberNotFound    = fmt.Errorf("%w: challenge member", ErrNotFound)
	ErrLocationNotFound  = fmt.Errorf("%w: registered location", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("%w: user", ErrNotFound)
)

// Kind возвращает машиночитаемый вид ошибки для клиента (поле error_type в ответе).
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyMember):
		return "already_member"
	case errors.Is(err, ErrChallengeNotJoinable):
		return "challenge_not_joinable"
	case errors.Is(err, ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, ErrPaymentNotCompleted):
		return "payment_not_completed"
	case errors.Is(err, ErrLocationNotRegistered):
		return "location_not_registered"
	case errors.Is(err, ErrLocationAlreadyRegistered):
		return "location_already_registered"
	case errors.Is(err, ErrEvidenceAlreadySubmitted):
		return "evidence_already_submitted"
	case errors.Is(err, ErrNotEliminated):
		return "not_eliminated"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrChallengeNotFound):
		return "challenge_not_found"
	case errors.Is(err, ErrMemberNotFound):
		return "member_not_found"
	case errors.Is(err, ErrLocationNotFound):
		return "location_not_found"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRuleViolation):
		return "rule_violation"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrExternal):
		return "external_failure"
	default:
		return "internal_error"
	}
}
