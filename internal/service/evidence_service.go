package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/domain/repository"
	"github.com/yourusername/habitleague-api/internal/metrics"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
	"github.com/yourusername/habitleague-api/pkg/geo"
)

// SubmitEvidenceInput ежедневное доказательство
type SubmitEvidenceInput struct {
	ImageURL  string
	Latitude  float64
	Longitude float64
}

// SubmissionResult сохранённое доказательство и результат проверки локации
type SubmissionResult struct {
	Evidence     *entity.Evidence
	Verification *entity.EvidenceLocationVerification
}

// EvidenceService принимает ежедневные доказательства участников
type EvidenceService struct {
	tx           repository.Transactor
	memberRepo   repository.ChallengeMemberRepository
	locationRepo repository.LocationRepository
	evidenceRepo repository.EvidenceRepository
	validator    ImageValidator
	clock        Clock
	log          *logrus.Entry
}

// NewEvidenceService создает сервис доказательств
func NewEvidenceService(
	tx repository.Transactor,
	memberRepo repository.ChallengeMemberRepository,
	locationRepo repository.LocationRepository,
	evidenceRepo repository.EvidenceRepository,
	validator ImageValidator,
	clock Clock,
	log *logrus.Entry,
) *EvidenceService {
	return &EvidenceService{
		tx:           tx,
		memberRepo:   memberRepo,
		locationRepo: locationRepo,
		evidenceRepo: evidenceRepo,
		validator:    validator,
		clock:        clock,
		log:          log.WithField("component", "EvidenceService"),
	}
}

// SubmitEvidence сохраняет доказательство за сегодня. Строка участника блокируется
// до конца транзакции, поэтому отправка не пересекается с ежедневным проходом.
// Доказательство сохраняется при любом исходе проверок: результат отражается во флагах.
func (s *EvidenceService) SubmitEvidence(ctx context.Context, userID, challengeID uint, input SubmitEvidenceInput) (*SubmissionResult, error) {
	imageURL := strings.TrimSpace(input.ImageURL)
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image url is required", apperrors.ErrValidation)
	}
	current := geo.Point{Lat: input.Latitude, Lng: input.Longitude}
	if err := current.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	result := &SubmissionResult{}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		member, err := s.memberRepo.GetByChallengeAndUserForUpdate(ctx, challengeID, userID)
		if err != nil {
			return err
		}
		if !member.PaymentCompleted {
			return apperrors.ErrPaymentNotCompleted
		}
		if !member.LocationRegistered {
			return apperrors.ErrLocationNotRegistered
		}

		now := s.clock.now()
		from, to := entity.DayWindow(entity.CivilDate(now, s.clock.Location), s.clock.Location)
		submitted, err := s.evidenceRepo.ExistsInWindow(ctx, member.ID, from, to)
		if err != nil {
			return err
		}
		if submitted {
			return apperrors.ErrEvidenceAlreadySubmitted
		}

		evidence := &entity.Evidence{
			ChallengeMemberID: member.ID,
			ImageURL:          imageURL,
			Latitude:          current.Lat,
			Longitude:         current.Lng,
			SubmittedAt:       now,
		}
		if err := s.evidenceRepo.Create(ctx, evidence); err != nil {
			return err
		}

		evidence.AIValidated = s.validateImage(ctx, evidence)

		location, err := s.locationRepo.GetByMemberID(ctx, member.ID)
		if err != nil {
			return err
		}
		check := geo.Verify(current, geo.Point{Lat: location.Latitude, Lng: location.Longitude}, location.ToleranceRadius)
		evidence.LocationValid = check.Valid()

		if err := s.evidenceRepo.UpdateValidation(ctx, evidence); err != nil {
			return err
		}

		verification := &entity.EvidenceLocationVerification{
			EvidenceID:     evidence.ID,
			DistanceMeters: check.DistanceMeters,
			Tolerance:      check.Tolerance,
			Status:         string(check.Status),
			VerifiedAt:     now,
		}
		if err := s.evidenceRepo.CreateVerification(ctx, verification); err != nil {
			return err
		}

		result.Evidence = evidence
		result.Verification = verification
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EvidenceSubmissions.WithLabelValues(result.Verification.Status).Inc()
	s.log.WithFields(logrus.Fields{
		"challenge_id":    challengeID,
		"user_id":         userID,
		"evidence_id":     result.Evidence.ID,
		"ai_validated":    result.Evidence.AIValidated,
		"location_status": result.Verification.Status,
		"distance_meters": result.Verification.DistanceMeters,
	}).Info("[EvidenceService] Доказательство принято")
	return result, nil
}

// validateImage вызывает валидатор; ошибка валидатора означает непройденную проверку
func (s *EvidenceService) validateImage(ctx context.Context, evidence *entity.Evidence) bool {
	if s.validator == nil {
		return false
	}
	ok, err := s.validator.Validate(ctx, evidence.ImageURL)
	if err != nil {
		s.log.WithError(err).WithField("evidence_id", evidence.ID).Warn("[EvidenceService] Ошибка проверки изображения")
		return false
	}
	return ok
}

// ListMemberEvidence возвращает доказательства пользователя в челлендже
func (s *EvidenceService) ListMemberEvidence(ctx context.Context, userID, challengeID uint) ([]entity.Evidence, error) {
	member, err := s.memberRepo.GetByChallengeAndUser(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}
	return s.evidenceRepo.ListByMember(ctx, member.ID)
}

// HasSubmittedToday сообщает, отправил ли пользователь доказательство сегодня
func (s *EvidenceService) HasSubmittedToday(ctx context.Context, userID, challengeID uint) (bool, error) {
	member, err := s.memberRepo.GetByChallengeAndUser(ctx, challengeID, userID)
	if err != nil {
		return false, err
	}
	from, to := entity.DayWindow(s.clock.Today(), s.clock.Location)
	return s.evidenceRepo.ExistsInWindow(ctx, member.ID, from, to)
}

// EvidenceStats возвращает статистику проверок доказательств пользователя
func (s *EvidenceService) EvidenceStats(ctx context.Context, userID uint) (*entity.EvidenceStats, error) {
	stats, err := s.evidenceRepo.StatsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.ComputeRates()
	return stats, nil
}
