package holidays

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CalendarJSON is a production-calendar file: one entry per month with a
// comma separated day list. Days may carry "+" (moved holiday) or "*"
// (shortened day) markers, which are ignored.
type CalendarJSON struct {
	Year   int             `json:"year"`
	Months []MonthHolidays `json:"months"`
}

type MonthHolidays struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

type Day struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Day   int    `json:"day"`
}

// ParseFile reads a calendar file from disk.
func ParseFile(filePath string) ([]Day, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read holidays file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a calendar document into a sorted list of unique dates.
func Parse(data []byte) ([]Day, error) {
	var doc CalendarJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal holidays JSON: %w", err)
	}
	if doc.Year <= 0 {
		return nil, fmt.Errorf("holidays JSON has no valid year")
	}

	seen := make(map[string]bool)
	var days []Day

	for _, m := range doc.Months {
		if m.Month < 1 || m.Month > 12 {
			return nil, fmt.Errorf("invalid month %d", m.Month)
		}

		for _, part := range strings.Split(m.Days, ",") {
			part = strings.TrimSpace(part)
			part = strings.TrimRight(part, "+*")
			if part == "" {
				continue
			}

			day, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("failed to parse day '%s' in month %d: %w", part, m.Month, err)
			}

			date := time.Date(doc.Year, time.Month(m.Month), day, 0, 0, 0, 0, time.UTC)
			if date.Month() != time.Month(m.Month) {
				return nil, fmt.Errorf("day %d does not exist in month %d", day, m.Month)
			}

			key := date.Format("2006-01-02")
			if seen[key] {
				continue
			}
			seen[key] = true

			days = append(days, Day{Date: key, Year: doc.Year, Month: m.Month, Day: day})
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

// Dates returns the ISO date strings of days.
func Dates(days []Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Date
	}
	return out
}
