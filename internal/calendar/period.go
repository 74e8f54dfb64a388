package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PeriodKind int

const (
	PeriodDay PeriodKind = iota
	PeriodMonth
	PeriodSemester
)

// Semester is a six-month academic half. Odd (ganjil) runs July–December,
// Even (genap) runs January–June.
type Semester string

const (
	SemesterOdd  Semester = "ganjil"
	SemesterEven Semester = "genap"
)

var (
	oddMonths  = []time.Month{time.July, time.August, time.September, time.October, time.November, time.December}
	evenMonths = []time.Month{time.January, time.February, time.March, time.April, time.May, time.June}
)

func (s Semester) Months() []time.Month {
	if s == SemesterOdd {
		return oddMonths
	}
	return evenMonths
}

func (s Semester) Includes(m time.Month) bool {
	if s == SemesterOdd {
		return m >= time.July
	}
	return m <= time.June
}

func (s Semester) Label() string {
	if s == SemesterOdd {
		return "Ganjil"
	}
	return "Genap"
}

// SemesterOf returns the semester a month belongs to.
func SemesterOf(m time.Month) Semester {
	if m >= time.July {
		return SemesterOdd
	}
	return SemesterEven
}

func ParseSemester(s string) (Semester, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ganjil", "odd":
		return SemesterOdd, nil
	case "genap", "even":
		return SemesterEven, nil
	}
	return "", fmt.Errorf("semester tidak dikenal: %q (gunakan ganjil/genap)", s)
}

// Period is the reporting window of a recap: a single day, a month or a semester.
type Period struct {
	Kind     PeriodKind
	Year     int
	Month    time.Month
	Day      int
	Semester Semester
}

func Day(date time.Time) Period {
	return Period{Kind: PeriodDay, Year: date.Year(), Month: date.Month(), Day: date.Day()}
}

func Month(year int, month time.Month) Period {
	return Period{Kind: PeriodMonth, Year: year, Month: month}
}

func SemesterPeriod(year int, semester Semester) Period {
	return Period{Kind: PeriodSemester, Year: year, Semester: semester}
}

// Contains reports whether instant t, seen in loc, falls inside the period.
func (p Period) Contains(t time.Time, loc *time.Location) bool {
	lt := t.In(loc)
	if lt.Year() != p.Year {
		return false
	}

	switch p.Kind {
	case PeriodDay:
		return lt.Month() == p.Month && lt.Day() == p.Day
	case PeriodMonth:
		return lt.Month() == p.Month
	case PeriodSemester:
		return p.Semester.Includes(lt.Month())
	}
	return false
}

// Dates lists every calendar date of the period at midnight in loc.
func (p Period) Dates(loc *time.Location) []time.Time {
	var months []time.Month

	switch p.Kind {
	case PeriodDay:
		return []time.Time{time.Date(p.Year, p.Month, p.Day, 0, 0, 0, 0, loc)}
	case PeriodMonth:
		months = []time.Month{p.Month}
	case PeriodSemester:
		months = p.Semester.Months()
	}

	var dates []time.Time
	for _, m := range months {
		for d := 1; d <= DaysIn(p.Year, m); d++ {
			dates = append(dates, time.Date(p.Year, m, d, 0, 0, 0, 0, loc))
		}
	}
	return dates
}

// Label renders the period the way report headers show it.
func (p Period) Label() string {
	switch p.Kind {
	case PeriodDay:
		return fmt.Sprintf("%d %s %d", p.Day, MonthName(p.Month), p.Year)
	case PeriodMonth:
		return fmt.Sprintf("%s %d", MonthName(p.Month), p.Year)
	case PeriodSemester:
		return fmt.Sprintf("Semester %s %d", p.Semester.Label(), p.Year)
	}
	return ""
}

// KindName is the Indonesian report type name (harian/bulanan/semester).
func (p Period) KindName() string {
	switch p.Kind {
	case PeriodDay:
		return "harian"
	case PeriodMonth:
		return "bulanan"
	default:
		return "semester"
	}
}

// PeriodRequest is a period described by loose text inputs, as typed in a
// chat command or passed in a query string. Empty fields default to today.
type PeriodRequest struct {
	Kind     string // harian | bulanan | semester
	Date     string // YYYY-MM-DD, harian only
	Month    string // number or name, bulanan only
	Year     string
	Semester string // ganjil | genap
}

func (q PeriodRequest) Resolve(today time.Time, loc *time.Location) (Period, error) {
	today = today.In(loc)

	year := today.Year()
	if y := strings.TrimSpace(q.Year); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil || n < 1900 || n > 9999 {
			return Period{}, fmt.Errorf("tahun tidak valid: %q", q.Year)
		}
		year = n
	}

	switch strings.ToLower(strings.TrimSpace(q.Kind)) {
	case "harian", "daily", "day":
		if strings.TrimSpace(q.Date) == "" {
			return Day(today), nil
		}
		d, err := ParseDate(strings.TrimSpace(q.Date), loc)
		if err != nil {
			return Period{}, err
		}
		return Day(d), nil

	case "", "bulanan", "monthly", "month":
		month := today.Month()
		if strings.TrimSpace(q.Month) != "" {
			m, err := ParseMonth(q.Month)
			if err != nil {
				return Period{}, err
			}
			month = m
		}
		return Month(year, month), nil

	case "semester":
		sem := SemesterOf(today.Month())
		if strings.TrimSpace(q.Semester) != "" {
			s, err := ParseSemester(q.Semester)
			if err != nil {
				return Period{}, err
			}
			sem = s
		}
		return SemesterPeriod(year, sem), nil
	}

	return Period{}, fmt.Errorf("jenis rekap tidak dikenal: %q (harian, bulanan, semester)", q.Kind)
}
