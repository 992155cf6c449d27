package service

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// ImageValidator проверяет, что фото подтверждает выполнение привычки
type ImageValidator interface {
	Validate(ctx context.Context, imageURL string) (bool, error)
}

// SimulatedImageValidator принимает фото с заданной вероятностью.
// Реальная классификация изображений не поддерживается.
type SimulatedImageValidator struct {
	rate float64
	mu   sync.Mutex
	rnd  *rand.Rand
}

// NewSimulatedImageValidator создает валидатор. seed 0 означает seed от текущего времени.
func NewSimulatedImageValidator(acceptRate float64, seed int64) *SimulatedImageValidator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedImageValidator{rate: acceptRate, rnd: rand.New(rand.NewSource(seed))}
}

// Validate возвращает решение валидатора
func (v *SimulatedImageValidator) Validate(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rnd.Float64() < v.rate, nil
}
