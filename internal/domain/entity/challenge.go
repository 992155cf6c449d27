package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ChallengeCategory категория челленджа
type ChallengeCategory string

const (
	CategoryMindfulness  ChallengeCategory = "mindfulness"
	CategoryFitness      ChallengeCategory = "fitness"
	CategoryProductivity ChallengeCategory = "productivity"
	CategoryLifestyle    ChallengeCategory = "lifestyle"
	CategoryHealth       ChallengeCategory = "health"
	CategoryCoding       ChallengeCategory = "coding"
	CategoryReading      ChallengeCategory = "reading"
	CategoryFinance      ChallengeCategory = "finance"
	CategoryLearning     ChallengeCategory = "learning"
	CategoryWriting      ChallengeCategory = "writing"
	CategoryCreativity   ChallengeCategory = "creativity"
)

var knownCategories = map[ChallengeCategory]struct{}{
	CategoryMindfulness: {}, CategoryFitness: {}, CategoryProductivity: {},
	CategoryLifestyle: {}, CategoryHealth: {}, CategoryCoding: {},
	CategoryReading: {}, CategoryFinance: {}, CategoryLearning: {},
	CategoryWriting: {}, CategoryCreativity: {},
}

// ParseCategory нормализует строку и проверяет, что категория известна
func ParseCategory(s string) (ChallengeCategory, error) {
	c := ChallengeCategory(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownCategories[c]; !ok {
		return "", fmt.Errorf("unknown challenge category %q", s)
	}
	return c, nil
}

// ChallengeStatus статус жизненного цикла челленджа
type ChallengeStatus string

const (
	ChallengeStatusCreated   ChallengeStatus = "created"
	ChallengeStatusActive    ChallengeStatus = "active"
	ChallengeStatusCompleted ChallengeStatus = "completed"
)

// Границы длительности челленджа в днях
const (
	MinDurationDays = 21
	MaxDurationDays = 365
)

// Challenge представляет групповой платный челлендж с общим призовым фондом
type Challenge struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"size:120;not null" json:"name"`
	Description  string            `gorm:"type:text;not null;default:''" json:"description"`
	Category     ChallengeCategory `gorm:"size:30;not null;index" json:"category"`
	EntryFee     decimal.Decimal   `gorm:"type:numeric(19,2);not null" json:"entry_fee"`
	DurationDays int               `gorm:"not null" json:"duration_days"`
	StartDate    time.Time         `gorm:"type:date;not null;index:idx_challenges_window" json:"start_date"`
	EndDate      time.Time         `gorm:"type:date;not null;index:idx_challenges_window" json:"end_date"`
	Status       ChallengeStatus   `gorm:"size:20;not null;default:'created'" json:"status"`
	CreatedByID  uint              `gorm:"not null;index" json:"created_by_id"`

	// Поля призового фонда. TotalPrizePool вычисляется один раз при первом проходе,
	// ActiveParticipantCount пересчитывается каждым проходом.
	TotalPrizePool         *decimal.Decimal `gorm:"type:numeric(19,2)" json:"total_prize_pool"`
	ActiveParticipantCount *int             `json:"active_participant_count"`
	PrizesDistributed      bool             `gorm:"not null;default:false" json:"prizes_distributed"`
	// UnallocatedRemainder остаток фонда после округления выплат, остаётся у платформы
	UnallocatedRemainder *decimal.Decimal `gorm:"type:numeric(19,2)" json:"unallocated_remainder,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Challenge) TableName() string {
	return "challenges"
}

// ValidateDuration проверяет, что длительность в допустимых границах
func ValidateDuration(days int) error {
	if days < MinDurationDays || days > MaxDurationDays {
		return fmt.Errorf("duration must be between %d and %d days, got %d", MinDurationDays, MaxDurationDays, days)
	}
	return nil
}

// ComputeEndDate возвращает последний (включительно) день челленджа
func ComputeEndDate(start time.Time, durationDays int) time.Time {
	return start.AddDate(0, 0, durationDays-1)
}

// Covers сообщает, попадает ли дата в окно [StartDate, EndDate]
func (c *Challenge) Covers(date time.Time) bool {
	return !date.Before(c.StartDate) && !date.After(c.EndDate)
}

// IsEndDate сообщает, является ли дата последним днём челленджа
func (c *Challenge) IsEndDate(date time.Time) bool {
	return SameDate(c.EndDate, date)
}

// PoolOrZero возвращает призовой фонд или ноль, если он ещё не вычислен
func (c *Challenge) PoolOrZero() decimal.Decimal {
	if c.TotalPrizePool == nil {
		return decimal.Zero
	}
	return *c.TotalPrizePool
}

// ActiveCountOrZero возвращает число активных участников или ноль
func (c *Challenge) ActiveCountOrZero() int {
	if c.ActiveParticipantCount == nil {
		return 0
	}
	return *c.ActiveParticipantCount
}
