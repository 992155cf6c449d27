package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/domain/repository"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
	"github.com/yourusername/habitleague-api/internal/service/lifecycle"
	"github.com/yourusername/habitleague-api/internal/service/payment"
)

// Charger списывает деньги с пользователя через платёжный шлюз
type Charger interface {
	Charge(ctx context.Context, req payment.ChargeRequest) (string, error)
}

// CreateChallengeInput данные для создания челленджа
type CreateChallengeInput struct {
	Name         string
	Description  string
	Category     string
	EntryFee     decimal.Decimal
	DurationDays int
	StartDate    time.Time
	EndDate      *time.Time // если не задана, вычисляется из длительности
}

// Сортировки списка челленджей
const (
	ChallengeSortRecent  = "recent"
	ChallengeSortPopular = "popular"
)

// ChallengeQuery параметры выборки списка челленджей
type ChallengeQuery struct {
	Category string
	Sort     string
	// OpenOnly оставляет челленджи, к которым ещё можно присоединиться
	OpenOnly bool
	Page     int
	PageSize int
}

// ChallengeService управляет челленджами, участием и платежами участников
type ChallengeService struct {
	tx            repository.Transactor
	challengeRepo repository.ChallengeRepository
	memberRepo    repository.ChallengeMemberRepository
	paymentRepo   repository.PaymentRepository
	charger       Charger
	notifier      lifecycle.AchievementNotifier
	clock         Clock
	log           *logrus.Entry
}

// NewChallengeService создает новый сервис челленджей
func NewChallengeService(
	tx repository.Transactor,
	challengeRepo repository.ChallengeRepository,
	memberRepo repository.ChallengeMemberRepository,
	paymentRepo repository.PaymentRepository,
	charger Charger,
	notifier lifecycle.AchievementNotifier,
	clock Clock,
	log *logrus.Entry,
) *ChallengeService {
	return &ChallengeService{
		tx:            tx,
		challengeRepo: challengeRepo,
		memberRepo:    memberRepo,
		paymentRepo:   paymentRepo,
		charger:       charger,
		notifier:      notifier,
		clock:         clock,
		log:           log.WithField("component", "ChallengeService"),
	}
}

// CreateChallenge создает челлендж в статусе created
func (s *ChallengeService) CreateChallenge(ctx context.Context, ownerID uint, input CreateChallengeInput) (*entity.Challenge, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	category, err := entity.ParseCategory(input.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if !input.EntryFee.IsPositive() {
		return nil, fmt.Errorf("%w: entry fee must be positive", apperrors.ErrValidation)
	}
	if input.EntryFee.Exponent() < -2 {
		return nil, fmt.Errorf("%w: entry fee must have at most 2 decimal places", apperrors.ErrValidation)
	}
	if err := entity.ValidateDuration(input.DurationDays); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidDuration, err)
	}

	start := entity.CivilDate(input.StartDate, time.UTC)
	if start.Before(s.clock.Today()) {
		return nil, fmt.Errorf("%w: start date must not be in the past", apperrors.ErrValidation)
	}
	end := entity.ComputeEndDate(start, input.DurationDays)
	if input.EndDate != nil && !entity.SameDate(*input.EndDate, end) {
		return nil, fmt.Errorf("%w: end date %s does not match duration of %d days",
			apperrors.ErrValidation, input.EndDate.Format(entity.DateLayout), input.DurationDays)
	}

	challenge := &entity.Challenge{
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		Category:     category,
		EntryFee:     input.EntryFee.Round(2),
		DurationDays: input.DurationDays,
		StartDate:    start,
		EndDate:      end,
		Status:       entity.ChallengeStatusCreated,
		CreatedByID:  ownerID,
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		s.log.WithError(err).Error("[ChallengeService] Ошибка при создании челленджа")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"challenge_id": challenge.ID,
		"owner_id":     ownerID,
	}).Info("[ChallengeService] Челлендж создан")
	return challenge, nil
}

// JoinChallenge добавляет пользователя в челлендж. Оплата и локация остаются ожидающими.
func (s *ChallengeService) JoinChallenge(ctx context.Context, userID, challengeID uint) (*entity.ChallengeMember, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	today := s.clock.Today()
	if challenge.PrizesDistributed || challenge.EndDate.Before(today) {
		return nil, apperrors.ErrChallengeNotJoinable
	}

	if _, err := s.memberRepo.GetByChallengeAndUser(ctx, challengeID, userID); err == nil {
		return nil, apperrors.ErrAlreadyMember
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	member := &entity.ChallengeMember{
		ChallengeID:    challengeID,
		UserID:         userID,
		JoinedAt:       today,
		TotalPenalties: decimal.Zero,
		HasCompleted:   true,
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"challenge_id": challengeID,
		"user_id":      userID,
		"member_id":    member.ID,
	}).Info("[ChallengeService] Пользователь присоединился к челленджу")
	return member, nil
}

// PayEntryFee списывает взнос участника. Неудачное списание сохраняется как
// платёж со статусом failed, участник остаётся неоплаченным.
func (s *ChallengeService) PayEntryFee(ctx context.Context, userID, challengeID uint) (*entity.Payment, error) {
	var record *entity.Payment
	var chargeErr error

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		challenge, err := s.challengeRepo.GetByID(ctx, challengeID)
		if err != nil {
			return err
		}
		// После окончания или расчёта взнос уже не попадёт в фонд
		if challenge.PrizesDistributed || challenge.EndDate.Before(s.clock.Today()) {
			return apperrors.ErrChallengeNotJoinable
		}
		member, err := s.memberRepo.GetByChallengeAndUserForUpdate(ctx, challengeID, userID)
		if err != nil {
			return err
		}
		if member.PaymentCompleted {
			return apperrors.ErrAlreadyPaid
		}

		record, chargeErr = s.charge(ctx, member, entity.PaymentKindEntryFee, challenge.EntryFee,
			fmt.Sprintf("Entry fee for challenge %q", challenge.Name))
		if err := s.paymentRepo.Create(ctx, record); err != nil {
			return err
		}
		if chargeErr != nil {
			return nil
		}

		member.PaymentCompleted = true
		return s.memberRepo.Update(ctx, member)
	})
	if err != nil {
		return nil, err
	}
	if chargeErr != nil {
		return record, chargeErr
	}

	s.log.WithFields(logrus.Fields{
		"challenge_id": challengeID,
		"user_id":      userID,
		"payment_id":   record.ID,
	}).Info("[ChallengeService] Взнос оплачен")
	return record, nil
}

// PayPenalty принимает штраф от выбывшего участника
func (s *ChallengeService) PayPenalty(ctx context.Context, userID, challengeID uint, amount decimal.Decimal) (*entity.Payment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: penalty amount must be positive", apperrors.ErrValidation)
	}
	amount = amount.Round(2)

	var record *entity.Payment
	var chargeErr error

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		member, err := s.memberRepo.GetByChallengeAndUserForUpdate(ctx, challengeID, userID)
		if err != nil {
			return err
		}
		if member.IsActive() {
			return apperrors.ErrNotEliminated
		}

		record, chargeErr = s.charge(ctx, member, entity.PaymentKindPenalty, amount,
			fmt.Sprintf("Penalty for challenge %d", challengeID))
		if err := s.paymentRepo.Create(ctx, record); err != nil {
			return err
		}
		if chargeErr != nil {
			return nil
		}

		member.TotalPenalties = member.TotalPenalties.Add(amount)
		return s.memberRepo.Update(ctx, member)
	})
	if err != nil {
		return nil, err
	}
	if chargeErr != nil {
		return record, chargeErr
	}

	if s.notifier != nil {
		s.notifier.Notify(entity.AchievementTrigger{
			Kind:        entity.TriggerPenaltyPaid,
			UserID:      userID,
			ChallengeID: challengeID,
		})
	}
	s.log.WithFields(logrus.Fields{
		"challenge_id": challengeID,
		"user_id":      userID,
		"amount":       amount.StringFixed(2),
	}).Info("[ChallengeService] Штраф оплачен")
	return record, nil
}

// charge вызывает шлюз и собирает запись платежа по результату
func (s *ChallengeService) charge(ctx context.Context, member *entity.ChallengeMember, kind entity.PaymentKind, amount decimal.Decimal, description string) (*entity.Payment, error) {
	record := &entity.Payment{
		UserID:            member.UserID,
		ChallengeID:       member.ChallengeID,
		ChallengeMemberID: member.ID,
		Kind:              kind,
		Amount:            amount,
	}

	ref, err := s.charger.Charge(ctx, payment.ChargeRequest{
		UserID:      member.UserID,
		ChallengeID: member.ChallengeID,
		Amount:      amount,
		Description: description,
	})
	if err != nil {
		record.Status = entity.PaymentStatusFailed
		record.FailureReason = truncateString(err.Error(), 255)
		s.log.WithError(err).WithFields(logrus.Fields{
			"member_id": member.ID,
			"kind":      kind,
		}).Warn("[ChallengeService] Платёж отклонён шлюзом")
		if !errors.Is(err, apperrors.ErrExternal) && !errors.Is(err, apperrors.ErrValidation) {
			err = fmt.Errorf("%w: %v", apperrors.ErrExternal, err)
		}
		return record, err
	}

	record.Status = entity.PaymentStatusSucceeded
	record.GatewayReference = ref
	return record, nil
}

// GetChallenge возвращает челлендж по ID
func (s *ChallengeService) GetChallenge(ctx context.Context, id uint) (*entity.Challenge, error) {
	return s.challengeRepo.GetByID(ctx, id)
}

// ListChallenges возвращает страницу челленджей с фильтром по категории и сортировкой
func (s *ChallengeService) ListChallenges(ctx context.Context, q ChallengeQuery) ([]entity.Challenge, int64, error) {
	var filter repository.ChallengeFilter
	if q.Category != "" {
		category, err := entity.ParseCategory(q.Category)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		filter.Category = category
	}
	switch q.Sort {
	case "", ChallengeSortRecent:
	case ChallengeSortPopular:
		filter.Popular = true
	default:
		return nil, 0, fmt.Errorf("%w: unknown sort %q", apperrors.ErrValidation, q.Sort)
	}
	if q.OpenOnly {
		today := s.clock.Today()
		filter.OpenOn = &today
	}

	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	return s.challengeRepo.List(ctx, filter, pageSize, (page-1)*pageSize)
}

// ListParticipants возвращает участников челленджа
func (s *ChallengeService) ListParticipants(ctx context.Context, challengeID uint) ([]entity.ChallengeMember, error) {
	if _, err := s.challengeRepo.GetByID(ctx, challengeID); err != nil {
		return nil, err
	}
	return s.memberRepo.ListByChallenge(ctx, challengeID)
}

// ListUserChallenges возвращает челленджи, в которых участвует пользователь
func (s *ChallengeService) ListUserChallenges(ctx context.Context, userID uint) ([]entity.Challenge, error) {
	return s.challengeRepo.ListByUser(ctx, userID)
}

// ListPayments возвращает историю платежей пользователя по челленджу
func (s *ChallengeService) ListPayments(ctx context.Context, userID, challengeID uint) ([]entity.Payment, error) {
	member, err := s.memberRepo.GetByChallengeAndUser(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByMember(ctx, member.ID)
}

// PaymentStats считает успешные взносы и штрафы пользователя
func (s *ChallengeService) PaymentStats(ctx context.Context, userID uint) (*entity.PaymentStats, error) {
	fees, err := s.paymentRepo.CountSucceeded(ctx, userID, entity.PaymentKindEntryFee)
	if err != nil {
		return nil, err
	}
	penalties, err := s.paymentRepo.CountSucceeded(ctx, userID, entity.PaymentKindPenalty)
	if err != nil {
		return nil, err
	}
	return &entity.PaymentStats{EntryFeesPaid: fees, PenaltiesPaid: penalties}, nil
}

// GetMembership возвращает участие пользователя в челлендже
func (s *ChallengeService) GetMembership(ctx context.Context, userID, challengeID uint) (*entity.ChallengeMember, error) {
	return s.memberRepo.GetByChallengeAndUser(ctx, challengeID, userID)
}

func truncateString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
