package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/internal/domain/repository"
	apperrors "github.com/yourusername/habitleague-api/internal/pkg/errors"
	"github.com/yourusername/habitleague-api/pkg/geo"
)

// RegisterLocationInput данные регистрации домашней точки
type RegisterLocationInput struct {
	Latitude        float64
	Longitude       float64
	ToleranceRadius *float64 // по умолчанию entity.DefaultToleranceRadius
	Address         string
	LocationName    string
}

// LocationService регистрирует локации участников и проверяет близость
type LocationService struct {
	tx           repository.Transactor
	memberRepo   repository.ChallengeMemberRepository
	locationRepo repository.LocationRepository
	clock        Clock
	log          *logrus.Entry
}

// NewLocationService создает сервис локаций
func NewLocationService(
	tx repository.Transactor,
	memberRepo repository.ChallengeMemberRepository,
	locationRepo repository.LocationRepository,
	clock Clock,
	log *logrus.Entry,
) *LocationService {
	return &LocationService{
		tx:           tx,
		memberRepo:   memberRepo,
		locationRepo: locationRepo,
		clock:        clock,
		log:          log.WithField("component", "LocationService"),
	}
}

// RegisterLocation сохраняет локацию участника. Одна регистрация на участника,
// флаг locationRegistered выставляется в той же транзакции.
func (s *LocationService) RegisterLocation(ctx context.Context, userID, challengeID uint, input RegisterLocationInput) (*entity.RegisteredLocation, error) {
	point := geo.Point{Lat: input.Latitude, Lng: input.Longitude}
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	tolerance := entity.DefaultToleranceRadius
	if input.ToleranceRadius != nil {
		tolerance = *input.ToleranceRadius
	}
	if tolerance <= 0 {
		return nil, fmt.Errorf("%w: tolerance radius must be positive", apperrors.ErrValidation)
	}

	var location *entity.RegisteredLocation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		member, err := s.memberRepo.GetByChallengeAndUserForUpdate(ctx, challengeID, userID)
		if err != nil {
			return err
		}
		if member.LocationRegistered {
			return apperrors.ErrLocationAlreadyRegistered
		}

		location = &entity.RegisteredLocation{
			ChallengeMemberID: member.ID,
			Latitude:          point.Lat,
			Longitude:         point.Lng,
			ToleranceRadius:   tolerance,
			Address:           strings.TrimSpace(input.Address),
			LocationName:      strings.TrimSpace(input.LocationName),
			RegisteredAt:      s.clock.now(),
		}
		if err := s.locationRepo.Create(ctx, location); err != nil {
			return err
		}

		member.LocationRegistered = true
		return s.memberRepo.Update(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"challenge_id": challengeID,
		"user_id":      userID,
		"tolerance":    tolerance,
	}).Info("[LocationService] Локация зарегистрирована")
	return location, nil
}

// GetRegisteredLocation возвращает локацию участника
func (s *LocationService) GetRegisteredLocation(ctx context.Context, userID, challengeID uint) (*entity.RegisteredLocation, error) {
	member, err := s.memberRepo.GetByChallengeAndUser(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}
	return s.locationRepo.GetByMemberID(ctx, member.ID)
}

// CheckProximity сравнивает переданную точку с зарегистрированной локацией участника
func (s *LocationService) CheckProximity(ctx context.Context, userID, challengeID uint, lat, lng float64) (*geo.Result, error) {
	current := geo.Point{Lat: lat, Lng: lng}
	if err := current.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	location, err := s.GetRegisteredLocation(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}
	result := geo.Verify(current, geo.Point{Lat: location.Latitude, Lng: location.Longitude}, location.ToleranceRadius)
	return &result, nil
}
