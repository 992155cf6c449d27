package entity

import "time"

// DateLayout формат календарной даты в API и ключах кеша
const DateLayout = "2006-01-02"

// CivilDate отбрасывает время суток и возвращает календарную дату момента t
// в зоне loc. Результат хранится как полночь UTC, что совпадает с тем,
// как PostgreSQL отдаёт колонки типа date.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayWindow возвращает полуоткрытое окно [начало суток, начало следующих суток)
// для календарной даты day в зоне loc.
func DayWindow(day time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// SameDate сравнивает две календарные даты без учёта времени суток.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
