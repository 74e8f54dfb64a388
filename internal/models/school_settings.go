package models

import (
	"fmt"
	"time"
)

// SchoolSettings is the single per-deployment configuration row.
type SchoolSettings struct {
	ID           uint    `gorm:"primaryKey" json:"-"`
	Name         string  `gorm:"not null" json:"name"`
	TargetLat    float64 `gorm:"not null" json:"target_lat"`
	TargetLng    float64 `gorm:"not null" json:"target_lng"`
	RadiusMeters float64 `gorm:"not null" json:"radius_meters"`
	EntryTime    string  `gorm:"type:varchar(5);not null" json:"entry_time"` // HH:mm

	// Holidays is filled from the holidays table, sorted ascending.
	Holidays []string `gorm:"-" json:"holidays"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (SchoolSettings) TableName() string {
	return "school_settings"
}

// SettingsID is the primary key of the singleton row.
const SettingsID = 1

func DefaultSchoolSettings() SchoolSettings {
	return SchoolSettings{
		ID:           SettingsID,
		Name:         "SMA Negeri Cerdas Utama",
		TargetLat:    -6.200000,
		TargetLng:    106.816666,
		RadiusMeters: 100,
		EntryTime:    "07:30",
		Holidays:     []string{},
	}
}

// ParseEntryTime splits an HH:mm string into hour and minute.
func ParseEntryTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("jam masuk harus berformat HH:mm: %w", err)
	}
	return t.Hour(), t.Minute(), nil
}

// EntryTimeOn returns the scheduled entry instant on the date of day, in loc.
func (s SchoolSettings) EntryTimeOn(day time.Time, loc *time.Location) (time.Time, error) {
	h, m, err := ParseEntryTime(s.EntryTime)
	if err != nil {
		return time.Time{}, err
	}
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc), nil
}
