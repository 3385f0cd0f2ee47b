package markethours

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, IST)
}

func TestIsMarketOpen(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"before open", at(2026, time.October, 16, 9, 14), false},
		{"at open", at(2026, time.October, 16, 9, 15), true},
		{"midday", at(2026, time.October, 16, 12, 0), true},
		{"at close", at(2026, time.October, 16, 15, 30), false},
		{"saturday", at(2026, time.October, 17, 11, 0), false},
		{"holiday", at(2026, time.October, 2, 11, 0), false},
		{"utc input", time.Date(2026, time.October, 16, 5, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		if got := IsMarketOpen(tc.t); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestStatus(t *testing.T) {
	if Status(at(2026, time.October, 16, 10, 0)) != StatusOpen {
		t.Fatal("expected open")
	}
	if Status(at(2026, time.October, 18, 10, 0)) != StatusClosed {
		t.Fatal("expected closed on sunday")
	}
}

func TestNextOpenSkipsWeekendAndHoliday(t *testing.T) {
	// Friday evening, Monday 19th is a trading day, Tuesday 20th a holiday.
	next := NextOpen(at(2026, time.October, 16, 18, 0))
	if !next.Equal(at(2026, time.October, 19, 9, 15)) {
		t.Fatalf("unexpected next open %v", next)
	}
	next = NextOpen(at(2026, time.October, 19, 16, 0))
	if !next.Equal(at(2026, time.October, 21, 9, 15)) {
		t.Fatalf("expected holiday to be skipped, got %v", next)
	}
	next = NextOpen(at(2026, time.October, 21, 8, 0))
	if !next.Equal(at(2026, time.October, 21, 9, 15)) {
		t.Fatalf("expected same-day open, got %v", next)
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(at(2026, time.October, 16, 13, 0)); got != "Market open, closes in 2h30m" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Describe(at(2026, time.October, 17, 13, 0)); !strings.HasPrefix(got, "Market closed, opens Mon 09:15") {
		t.Fatalf("unexpected %q", got)
	}
}

func TestToday(t *testing.T) {
	got := Today(time.Date(2026, time.October, 16, 20, 0, 0, 0, time.UTC))
	if !got.Equal(at(2026, time.October, 17, 0, 0)) {
		t.Fatalf("expected IST date rollover, got %v", got)
	}
}

func TestSessionStarted(t *testing.T) {
	if SessionStarted(at(2026, time.October, 16, 9, 0)) {
		t.Fatal("expected pre-open to be false")
	}
	if !SessionStarted(at(2026, time.October, 16, 18, 0)) {
		t.Fatal("expected after-close on a trading day to be true")
	}
	if SessionStarted(at(2026, time.October, 17, 12, 0)) {
		t.Fatal("expected weekend to be false")
	}
}

func TestFixedDateHolidaysApplyEveryYear(t *testing.T) {
	for _, day := range []time.Time{
		at(2026, time.January, 26, 10, 0),
		at(2027, time.January, 26, 10, 0),
		at(2028, time.May, 1, 10, 0),
		at(2028, time.August, 15, 10, 0),
		at(2029, time.October, 2, 10, 0),
	} {
		if !IsHoliday(day) {
			t.Fatalf("expected %s to be a holiday", day.Format("2006-01-02"))
		}
		if IsMarketOpen(day) {
			t.Fatalf("expected market closed on %s", day.Format("2006-01-02"))
		}
	}
	// Tuesday 26 Jan 2027 is skipped when looking for the next session.
	if next := NextOpen(at(2027, time.January, 25, 16, 0)); !next.Equal(at(2027, time.January, 27, 9, 15)) {
		t.Fatalf("expected Republic Day to be skipped, got %v", next)
	}
}

func TestUncoveredYearWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = orig }()

	day := at(2031, time.March, 12, 10, 0)
	if IsHoliday(day) {
		t.Fatal("expected an ordinary weekday in an uncovered year")
	}
	IsHoliday(day.AddDate(0, 0, 1))
	if got := strings.Count(buf.String(), "no NSE holiday calendar"); got != 1 {
		t.Fatalf("expected one warning for 2031, got %d: %s", got, buf.String())
	}
	if !strings.Contains(buf.String(), `"year":2031`) {
		t.Fatalf("expected the year in the warning, got %s", buf.String())
	}

	buf.Reset()
	IsHoliday(at(2026, time.March, 12, 10, 0))
	if buf.Len() != 0 {
		t.Fatalf("expected no warning for a covered year, got %s", buf.String())
	}
}
