package service

import (
	"time"

	"github.com/yourusername/habitleague-api/internal/domain/entity"
)

// Clock источник текущего времени и зона, в которой считаются календарные дни
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// NewClock создает часы с time.Now
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc}
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Today календарная дата "сегодня" в зоне часов
func (c Clock) Today() time.Time {
	return entity.CivilDate(c.now(), c.Location)
}
