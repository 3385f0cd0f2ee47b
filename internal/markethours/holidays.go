package markethours

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// NSE trading holidays that move with the lunar calendar, keyed by IST
// date. Only years listed in holidayYears are covered.
var holidays = map[string]struct{}{
	"2026-02-17": {},
	"2026-03-03": {},
	"2026-03-26": {},
	"2026-03-31": {},
	"2026-04-03": {},
	"2026-04-14": {},
	"2026-05-28": {},
	"2026-06-26": {},
	"2026-09-14": {},
	"2026-10-20": {},
	"2026-11-10": {},
	"2026-11-24": {},
}

var holidayYears = map[int]struct{}{
	2026: {},
}

// fixedHolidays close the exchange every year on the same date.
var fixedHolidays = []struct {
	month time.Month
	day   int
}{
	{time.January, 26},  // Republic Day
	{time.May, 1},       // Maharashtra Day
	{time.August, 15},   // Independence Day
	{time.October, 2},   // Gandhi Jayanti
	{time.December, 25}, // Christmas
}

var warnedYears sync.Map

func IsHoliday(t time.Time) bool {
	t = t.In(IST)
	for _, f := range fixedHolidays {
		if t.Month() == f.month && t.Day() == f.day {
			return true
		}
	}
	if _, ok := holidayYears[t.Year()]; !ok {
		if _, seen := warnedYears.LoadOrStore(t.Year(), struct{}{}); !seen {
			log.Warn().Int("year", t.Year()).Msg("no NSE holiday calendar for year, only fixed-date holidays apply")
		}
		return false
	}
	_, ok := holidays[t.Format("2006-01-02")]
	return ok
}
