// Package geo проверяет, отправлено ли доказательство рядом с зарегистрированной точкой.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm средний радиус Земли для формулы гаверсинусов
const EarthRadiusKm = 6371.0

// suspiciousFactor во сколько раз дальше допуска расстояние считается подозрительным
const suspiciousFactor = 3.0

// Status классификация расстояния
type Status string

const (
	StatusVerified   Status = "VERIFIED"
	StatusOutOfRange Status = "OUT_OF_RANGE"
	StatusSuspicious Status = "SUSPICIOUS"
)

// Point координаты в градусах
type Point struct {
	Lat float64
	Lng float64
}

// Validate проверяет диапазоны широты и долготы
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Lat)
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Lng)
	}
	return nil
}

// Result результат проверки близости
type Result struct {
	DistanceMeters float64 `json:"distance_meters"`
	Tolerance      float64 `json:"tolerance"`
	Status         Status  `json:"status"`
}

// Valid сообщает, что точка в пределах допуска
func (r Result) Valid() bool {
	return r.Status == StatusVerified
}

// DistanceMeters расстояние по большой окружности между a и b в метрах
func DistanceMeters(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c * 1000
}

// Classify относит расстояние к одной из трёх зон.
// distance <= tolerance: VERIFIED; distance <= 3*tolerance: OUT_OF_RANGE; иначе SUSPICIOUS.
func Classify(distance, tolerance float64) Status {
	switch {
	case distance <= tolerance:
		return StatusVerified
	case distance <= suspiciousFactor*tolerance:
		return StatusOutOfRange
	default:
		return StatusSuspicious
	}
}

// Verify сравнивает текущую точку с зарегистрированной
func Verify(current, registered Point, tolerance float64) Result {
	distance := DistanceMeters(current, registered)
	return Result{
		DistanceMeters: distance,
		Tolerance:      tolerance,
		Status:         Classify(distance, tolerance),
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
