// Package markethours answers NSE session questions in IST.
package markethours

import (
	"fmt"
	"time"
)

var IST = time.FixedZone("IST", 5*3600+30*60)

const (
	openMinute  = 9*60 + 15
	closeMinute = 15*60 + 30
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// IsTradingDay reports whether t falls on a weekday that is not an NSE holiday.
func IsTradingDay(t time.Time) bool {
	ist := t.In(IST)
	switch ist.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !IsHoliday(ist)
}

// IsMarketOpen reports whether the cash session (09:15-15:30 IST) is live at t.
func IsMarketOpen(t time.Time) bool {
	if !IsTradingDay(t) {
		return false
	}
	ist := t.In(IST)
	m := ist.Hour()*60 + ist.Minute()
	return m >= openMinute && m < closeMinute
}

// SessionStarted reports whether today's session has opened by t, so a live
// quote describes today rather than the previous close.
func SessionStarted(t time.Time) bool {
	if !IsTradingDay(t) {
		return false
	}
	ist := t.In(IST)
	return ist.Hour()*60+ist.Minute() >= openMinute
}

func Status(t time.Time) string {
	if IsMarketOpen(t) {
		return StatusOpen
	}
	return StatusClosed
}

// NextOpen returns the next session start at or after t.
func NextOpen(t time.Time) time.Time {
	ist := t.In(IST)
	day := time.Date(ist.Year(), ist.Month(), ist.Day(), 9, 15, 0, 0, IST)
	if ist.Before(day) && IsTradingDay(day) {
		return day
	}
	for i := 0; i < 14; i++ {
		day = day.AddDate(0, 0, 1)
		if IsTradingDay(day) {
			return day
		}
	}
	return day
}

// Today returns the IST calendar date of t at midnight.
func Today(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// Describe renders a short human status, e.g. for the bot.
func Describe(t time.Time) string {
	if IsMarketOpen(t) {
		ist := t.In(IST)
		closeAt := time.Date(ist.Year(), ist.Month(), ist.Day(), 15, 30, 0, 0, IST)
		return fmt.Sprintf("Market open, closes in %s", shortDuration(closeAt.Sub(ist)))
	}
	next := NextOpen(t)
	return fmt.Sprintf("Market closed, opens %s %s", next.Weekday().String()[:3], next.Format("15:04"))
}

func shortDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
