package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO date format used for holiday keys and record dates.
const DateLayout = "2006-01-02"

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var weekdayNames = [...]string{
	"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu",
}

func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// ParseMonth accepts a month number (1-12) or an Indonesian month name.
func ParseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("bulan harus 1-12, didapat %d", n)
		}
		return time.Month(n), nil
	}
	for i, name := range monthNames {
		if strings.EqualFold(name, s) || (len(s) >= 3 && strings.EqualFold(name[:3], s)) {
			return time.Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("bulan tidak dikenal: %q", s)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateKey formats t as YYYY-MM-DD in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("format tanggal harus YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// Calendar decides which dates count as working days.
type Calendar struct {
	holidays map[string]struct{}
	loc      *time.Location
	now      func() time.Time
}

func New(holidays []string, loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}

	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}

	return &Calendar{holidays: set, loc: loc, now: now}
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Today returns midnight of the current date in the calendar location.
func (c *Calendar) Today() time.Time {
	n := c.now().In(c.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, c.loc)
}

func (c *Calendar) IsSunday(d time.Time) bool {
	return d.In(c.loc).Weekday() == time.Sunday
}

func (c *Calendar) IsHoliday(d time.Time) bool {
	_, ok := c.holidays[DateKey(d, c.loc)]
	return ok
}

// IsFuture reports whether the date of d comes after today.
func (c *Calendar) IsFuture(d time.Time) bool {
	ld := d.In(c.loc)
	day := time.Date(ld.Year(), ld.Month(), ld.Day(), 0, 0, 0, 0, c.loc)
	return day.After(c.Today())
}

func (c *Calendar) IsWorkingDay(d time.Time) bool {
	return !c.IsSunday(d) && !c.IsHoliday(d) && !c.IsFuture(d)
}

// CountWorkingDays counts the working days of p. A day period always counts
// as exactly one day, even when that day is a Sunday or a holiday.
func (c *Calendar) CountWorkingDays(p Period) int {
	if p.Kind == PeriodDay {
		return 1
	}

	count := 0
	for _, d := range p.Dates(c.loc) {
		if c.IsWorkingDay(d) {
			count++
		}
	}
	return count
}
