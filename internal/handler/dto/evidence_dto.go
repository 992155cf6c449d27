package dto

import (
	"time"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
	"github.com/yourusername/habitleague-api/pkg/geo"
)

// RegisterLocationRequest регистрация домашней точки участника
type RegisterLocationRequest struct {
	Latitude        *float64 `json:"latitude" binding:"required"`
	Longitude       *float64 `json:"longitude" binding:"required"`
	ToleranceRadius *float64 `json:"tolerance_radius"`
	Address         string   `json:"address" binding:"max=255"`
	LocationName    string   `json:"location_name" binding:"max=120"`
}

// CoordinatesRequest координаты для проверки близости
type CoordinatesRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// SubmitEvidenceRequest ежедневное доказательство
type SubmitEvidenceRequest struct {
	ImageURL  string   `json:"image_url" binding:"required,url,max=1024"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// ProximityResponse результат проверки близости
type ProximityResponse struct {
	DistanceMeters float64 `json:"distance_meters"`
	Tolerance      float64 `json:"tolerance"`
	Status         string  `json:"status"`
	Valid          bool    `json:"valid"`
}

// LocationResponse зарегистрированная точка
type LocationResponse struct {
	ID              uint      `json:"id"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	ToleranceRadius float64   `json:"tolerance_radius"`
	Address         string    `json:"address,omitempty"`
	LocationName    string    `json:"location_name,omitempty"`
	RegisteredAt    time.Time `json:"registered_at"`
}

// EvidenceResponse доказательство в формате для клиента
type EvidenceResponse struct {
	ID            uint               `json:"id"`
	ImageURL      string             `json:"image_url"`
	Latitude      float64            `json:"latitude"`
	Longitude     float64            `json:"longitude"`
	AIValidated   bool               `json:"ai_validated"`
	LocationValid bool               `json:"location_valid"`
	SubmittedAt   time.Time          `json:"submitted_at"`
	Verification  *ProximityResponse `json:"verification,omitempty"`
}

// NewProximityResponse создает DTO из результата проверки
func NewProximityResponse(r *geo.Result) ProximityResponse {
	return ProximityResponse{
		DistanceMeters: r.DistanceMeters,
		Tolerance:      r.Tolerance,
		Status:         string(r.Status),
		Valid:          r.Valid(),
	}
}

// NewLocationResponse создает DTO для точки
func NewLocationResponse(l *entity.RegisteredLocation) LocationResponse {
	return LocationResponse{
		ID:              l.ID,
		Latitude:        l.Latitude,
		Longitude:       l.Longitude,
		ToleranceRadius: l.ToleranceRadius,
		Address:         l.Address,
		LocationName:    l.LocationName,
		RegisteredAt:    l.RegisteredAt,
	}
}

// NewEvidenceResponse создает DTO для доказательства
func NewEvidenceResponse(e *entity.Evidence, v *entity.EvidenceLocationVerification) EvidenceResponse {
	resp := EvidenceResponse{
		ID:            e.ID,
		ImageURL:      e.ImageURL,
		Latitude:      e.Latitude,
		Longitude:     e.Longitude,
		AIValidated:   e.AIValidated,
		LocationValid: e.LocationValid,
		SubmittedAt:   e.SubmittedAt,
	}
	if v != nil {
		resp.Verification = &ProximityResponse{
			DistanceMeters: v.DistanceMeters,
			Tolerance:      v.Tolerance,
			Status:         v.Status,
			Valid:          v.Status == string(geo.StatusVerified),
		}
	}
	return resp
}
