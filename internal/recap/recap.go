package recap

import (
	"math"
	"time"

	"attendance-bot/internal/calendar"
	"attendance-bot/internal/models"
)

// DisplayStatus is a per-day status shown in recaps. Unlike
// models.AttendanceStatus it includes Absent, which is derived and never stored.
type DisplayStatus string

const (
	DisplayPresent DisplayStatus = "H"
	DisplaySick    DisplayStatus = "S"
	DisplayExcused DisplayStatus = "I"
	DisplayAbsent  DisplayStatus = "A"
	DisplayNone    DisplayStatus = ""
)

// DisplayOf maps a submitted status to its grid symbol.
func DisplayOf(s models.AttendanceStatus) DisplayStatus {
	switch s {
	case models.StatusPresent:
		return DisplayPresent
	case models.StatusSick:
		return DisplaySick
	case models.StatusExcused:
		return DisplayExcused
	}
	return DisplayNone
}

type Row struct {
	StudentID   string `json:"student_id"`
	Name        string `json:"name"`
	Class       string `json:"class"`
	Hadir       int    `json:"hadir"`
	Sakit       int    `json:"sakit"`
	Izin        int    `json:"izin"`
	Alpa        int    `json:"alpa"`
	WorkingDays int    `json:"working_days"`
}

// Percentage is hadir over working days, rounded, or 0 without working days.
func (r Row) Percentage() int {
	return Percentage(r.Hadir, r.WorkingDays)
}

func Percentage(hadir, workingDays int) int {
	if workingDays <= 0 {
		return 0
	}
	return int(math.Round(float64(hadir) / float64(workingDays) * 100))
}

// Absent derives the number of unexplained absences; never negative.
func Absent(workingDays, hadir, sakit, izin int) int {
	return max(0, workingDays-(hadir+sakit+izin))
}

type Aggregator struct {
	cal *calendar.Calendar
}

func NewAggregator(cal *calendar.Calendar) *Aggregator {
	return &Aggregator{cal: cal}
}

// WorkingDays is the number of school days the aggregator counts in period.
func (a *Aggregator) WorkingDays(period calendar.Period) int {
	return a.cal.CountWorkingDays(period)
}

// Recap returns one row per student (in input order) for the given period.
// When class is not empty only students of that class are reported.
// Records referencing unknown students are ignored.
func (a *Aggregator) Recap(students []models.User, records []models.AttendanceRecord, period calendar.Period, class string) []Row {
	loc := a.cal.Location()
	workingDays := a.WorkingDays(period)
	byStudent := indexByStudent(records)

	rows := make([]Row, 0, len(students))
	for _, s := range filterClass(students, class) {
		row := Row{
			StudentID:   s.ID,
			Name:        s.Name,
			Class:       s.Class,
			WorkingDays: workingDays,
		}

		for _, r := range byStudent[s.ID] {
			if !period.Contains(r.Timestamp, loc) {
				continue
			}
			switch r.Status {
			case models.StatusPresent:
				row.Hadir++
			case models.StatusSick:
				row.Sakit++
			case models.StatusExcused:
				row.Izin++
			}
		}

		row.Alpa = Absent(workingDays, row.Hadir, row.Sakit, row.Izin)
		rows = append(rows, row)
	}

	return rows
}

// GridDays is the fixed number of day columns of the printed grid.
const GridDays = 31

type GridRow struct {
	No    int                     `json:"no"`
	Name  string                  `json:"name"`
	Days  [GridDays]DisplayStatus `json:"days"`
	Hadir int                     `json:"hadir"`
	Sakit int                     `json:"sakit"`
	Izin  int                     `json:"izin"`
	Alpa  int                     `json:"alpa"`
}

// MonthGrid resolves a per-day status for every student of class in the
// given month. A day without a record is blank when it lies in the future,
// is a Sunday or a holiday (checked in that order), and A otherwise. Columns
// past the end of the month stay blank.
func (a *Aggregator) MonthGrid(students []models.User, records []models.AttendanceRecord, year int, month time.Month, class string) []GridRow {
	loc := a.cal.Location()
	period := calendar.Month(year, month)
	workingDays := a.cal.CountWorkingDays(period)
	daysInMonth := calendar.DaysIn(year, month)
	byStudent := indexByStudent(records)

	var rows []GridRow
	for i, s := range filterClass(students, class) {
		row := GridRow{No: i + 1, Name: s.Name}

		// first record of each day wins
		var byDay [GridDays + 1]*models.AttendanceRecord
		recs := byStudent[s.ID]
		for j := range recs {
			if !period.Contains(recs[j].Timestamp, loc) {
				continue
			}
			d := recs[j].Timestamp.In(loc).Day()
			if byDay[d] == nil {
				byDay[d] = &recs[j]
			}
		}

		for day := 1; day <= daysInMonth; day++ {
			if rec := byDay[day]; rec != nil {
				status := DisplayOf(rec.Status)
				row.Days[day-1] = status
				switch status {
				case DisplayPresent:
					row.Hadir++
				case DisplaySick:
					row.Sakit++
				case DisplayExcused:
					row.Izin++
				}
				continue
			}
			row.Days[day-1] = a.emptyDayStatus(time.Date(year, month, day, 0, 0, 0, 0, loc))
		}

		row.Alpa = Absent(workingDays, row.Hadir, row.Sakit, row.Izin)
		rows = append(rows, row)
	}

	return rows
}

func (a *Aggregator) emptyDayStatus(d time.Time) DisplayStatus {
	switch {
	case a.cal.IsFuture(d):
		return DisplayNone
	case a.cal.IsSunday(d):
		return DisplayNone
	case a.cal.IsHoliday(d):
		return DisplayNone
	}
	return DisplayAbsent
}

func indexByStudent(records []models.AttendanceRecord) map[string][]models.AttendanceRecord {
	idx := make(map[string][]models.AttendanceRecord)
	for _, r := range records {
		idx[r.StudentID] = append(idx[r.StudentID], r)
	}
	return idx
}

func filterClass(students []models.User, class string) []models.User {
	if class == "" {
		return students
	}
	out := make([]models.User, 0, len(students))
	for _, s := range students {
		if s.Class == class {
			out = append(out, s)
		}
	}
	return out
}
