package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"attendance-bot/internal/calendar"
	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"
	"attendance-bot/pkg/holidays"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var ErrHolidayExists = errors.New("tanggal tersebut sudah terdaftar sebagai hari libur")

// SettingsService owns the school settings singleton and the holiday list.
type SettingsService struct {
	settings repository.SettingsRepository
	holidays repository.HolidayRepository
	validate *validator.Validate
	loc      *time.Location

	// serialises read-modify-write updates of the settings row
	mu sync.Mutex

	logger *logrus.Logger
}

func NewSettingsService(
	settings repository.SettingsRepository,
	holidays repository.HolidayRepository,
	loc *time.Location,
) *SettingsService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &SettingsService{
		settings: settings,
		holidays: holidays,
		validate: validator.New(),
		loc:      loc,
		logger:   logger,
	}
}

// Snapshot returns a copy of the current settings with the sorted holiday
// list filled in. Later updates never change a returned snapshot.
func (s *SettingsService) Snapshot(ctx context.Context) (models.SchoolSettings, error) {
	if err := ctx.Err(); err != nil {
		return models.SchoolSettings{}, err
	}

	current, err := s.settings.Get()
	if err != nil {
		return models.SchoolSettings{}, fmt.Errorf("load settings: %w", err)
	}

	days, err := s.holidays.GetAll()
	if err != nil {
		return models.SchoolSettings{}, fmt.Errorf("load holidays: %w", err)
	}

	snapshot := *current
	snapshot.Holidays = make([]string, 0, len(days))
	for _, d := range days {
		snapshot.Holidays = append(snapshot.Holidays, d.Date)
	}

	return snapshot, nil
}

func (s *SettingsService) update(field string, value interface{}, apply func(*models.SchoolSettings)) (*models.SchoolSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	apply(current)
	if err := s.settings.Save(current); err != nil {
		return nil, err
	}

	s.logger.WithField(field, value).Info("School settings updated")
	return current, nil
}

func (s *SettingsService) UpdateName(name string) (*models.SchoolSettings, error) {
	name = strings.TrimSpace(name)
	if err := s.validate.Var(name, "required,max=120"); err != nil {
		return nil, fmt.Errorf("nama sekolah tidak valid: %w", err)
	}

	return s.update("name", name, func(st *models.SchoolSettings) { st.Name = name })
}

// UpdateEntryTime accepts H:mm or HH:mm and stores it as HH:mm.
func (s *SettingsService) UpdateEntryTime(value string) (*models.SchoolSettings, error) {
	h, m, err := models.ParseEntryTime(strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}
	entry := fmt.Sprintf("%02d:%02d", h, m)

	return s.update("entry_time", entry, func(st *models.SchoolSettings) { st.EntryTime = entry })
}

func (s *SettingsService) UpdateRadius(meters float64) (*models.SchoolSettings, error) {
	if err := s.validate.Var(meters, "gt=0,lte=100000"); err != nil {
		return nil, fmt.Errorf("radius harus lebih dari 0 meter: %w", err)
	}

	return s.update("radius_meters", meters, func(st *models.SchoolSettings) { st.RadiusMeters = meters })
}

func (s *SettingsService) UpdateTarget(lat, lng float64) (*models.SchoolSettings, error) {
	if err := s.validate.Var(lat, "latitude"); err != nil {
		return nil, fmt.Errorf("latitude tidak valid: %w", err)
	}
	if err := s.validate.Var(lng, "longitude"); err != nil {
		return nil, fmt.Errorf("longitude tidak valid: %w", err)
	}

	return s.update("target", fmt.Sprintf("%.6f,%.6f", lat, lng), func(st *models.SchoolSettings) {
		st.TargetLat = lat
		st.TargetLng = lng
	})
}

func (s *SettingsService) Holidays() ([]models.Holiday, error) {
	return s.holidays.GetAll()
}

func (s *SettingsService) AddHoliday(date, description string) (*models.Holiday, error) {
	date = strings.TrimSpace(date)
	if err := s.validate.Var(date, "required,datetime=2006-01-02"); err != nil {
		return nil, fmt.Errorf("format tanggal harus YYYY-MM-DD: %w", err)
	}

	exists, err := s.holidays.Exists(date)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrHolidayExists
	}

	d, err := calendar.ParseDate(date, s.loc)
	if err != nil {
		return nil, err
	}

	holiday := &models.Holiday{
		Date:        date,
		Year:        d.Year(),
		Month:       int(d.Month()),
		Description: strings.TrimSpace(description),
	}
	if err := s.holidays.Create(holiday); err != nil {
		return nil, err
	}

	s.logger.WithField("date", date).Info("Holiday added")
	return holiday, nil
}

func (s *SettingsService) RemoveHoliday(date string) error {
	if err := s.holidays.Delete(strings.TrimSpace(date)); err != nil {
		return err
	}

	s.logger.WithField("date", date).Info("Holiday removed")
	return nil
}

// ImportHolidays loads a production-calendar file and returns the number of
// dates that were not yet on the list.
func (s *SettingsService) ImportHolidays(filePath string) (int, error) {
	days, err := holidays.ParseFile(filePath)
	if err != nil {
		return 0, err
	}

	rows := make([]models.Holiday, 0, len(days))
	for _, d := range days {
		rows = append(rows, models.Holiday{
			Date:        d.Date,
			Year:        d.Year,
			Month:       d.Month,
			Description: "Impor kalender",
		})
	}

	added, err := s.holidays.BulkCreate(rows)
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"file":  filePath,
		"total": len(days),
		"added": added,
	}).Info("Holidays imported")

	return added, nil
}

func (s *SettingsService) FormatSettings(st models.SchoolSettings) string {
	var lines []string

	lines = append(lines, "⚙️ Pengaturan sekolah:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🏫 Nama: %s", st.Name))
	lines = append(lines, fmt.Sprintf("📍 Lokasi: %.6f, %.6f", st.TargetLat, st.TargetLng))
	lines = append(lines, fmt.Sprintf("📏 Radius: %.0f m", st.RadiusMeters))
	lines = append(lines, fmt.Sprintf("⏰ Jam masuk: %s", st.EntryTime))
	lines = append(lines, fmt.Sprintf("📅 Hari libur terdaftar: %d", len(st.Holidays)))

	return strings.Join(lines, "\n")
}

func (s *SettingsService) FormatHolidays(days []models.Holiday) string {
	if len(days) == 0 {
		return "📭 Belum ada hari libur terdaftar."
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("📅 Hari libur (%d):", len(days)))
	lines = append(lines, "")

	for _, d := range days {
		line := "• " + d.Date
		if t, err := calendar.ParseDate(d.Date, s.loc); err == nil {
			line += fmt.Sprintf(" (%s)", calendar.WeekdayName(t.Weekday()))
		}
		if d.Description != "" {
			line += " - " + d.Description
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}
