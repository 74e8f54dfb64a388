package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"attendance-bot/internal/calendar"
	"attendance-bot/internal/export"
	"attendance-bot/internal/models"
	"attendance-bot/internal/recap"
	"attendance-bot/internal/repository"

	"github.com/sirupsen/logrus"
)

// RecapReport is a recap together with the context it was computed in.
type RecapReport struct {
	School      string      `json:"school"`
	Period      string      `json:"period"`
	Type        string      `json:"type"`
	Class       string      `json:"class"`
	WorkingDays int         `json:"working_days"`
	Rows        []recap.Row `json:"rows"`

	period calendar.Period
}

type ReportService struct {
	users    repository.UserRepository
	records  repository.AttendanceRepository
	settings *SettingsService
	loc      *time.Location
	now      func() time.Time
	logger   *logrus.Logger
}

func NewReportService(
	users repository.UserRepository,
	records repository.AttendanceRepository,
	settings *SettingsService,
	loc *time.Location,
	now func() time.Time,
) *ReportService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if now == nil {
		now = time.Now
	}

	return &ReportService{
		users:    users,
		records:  records,
		settings: settings,
		loc:      loc,
		now:      now,
		logger:   logger,
	}
}

// Today is the current date at midnight in the school timezone.
func (s *ReportService) Today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

// load reads everything one computation needs. Settings and holidays are read
// fresh on every call; recaps are never cached.
func (s *ReportService) load(ctx context.Context, period calendar.Period, class string) (models.SchoolSettings, *recap.Aggregator, []models.User, []models.AttendanceRecord, error) {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return settings, nil, nil, nil, err
	}

	students, err := s.users.GetStudents(class)
	if err != nil {
		return settings, nil, nil, nil, fmt.Errorf("load students: %w", err)
	}

	dates := period.Dates(s.loc)
	records, err := s.records.GetByDateRange(
		calendar.DateKey(dates[0], s.loc),
		calendar.DateKey(dates[len(dates)-1], s.loc),
	)
	if err != nil {
		return settings, nil, nil, nil, fmt.Errorf("load records: %w", err)
	}

	agg := recap.NewAggregator(calendar.New(settings.Holidays, s.loc, s.now))
	return settings, agg, students, records, nil
}

func (s *ReportService) Recap(ctx context.Context, period calendar.Period, class string) (*RecapReport, error) {
	class = NormalizeClass(class)

	settings, agg, students, records, err := s.load(ctx, period, class)
	if err != nil {
		return nil, err
	}

	rows := agg.Recap(students, records, period, class)
	workingDays := agg.WorkingDays(period)

	s.logger.WithFields(logrus.Fields{
		"period":   period.Label(),
		"class":    class,
		"students": len(rows),
	}).Debug("Recap computed")

	return &RecapReport{
		School:      settings.Name,
		Period:      period.Label(),
		Type:        period.KindName(),
		Class:       class,
		WorkingDays: workingDays,
		Rows:        rows,
		period:      period,
	}, nil
}

// StudentRecap computes the recap row of a single student.
func (s *ReportService) StudentRecap(ctx context.Context, student models.User, period calendar.Period) (recap.Row, error) {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return recap.Row{}, err
	}

	records, err := s.records.GetByStudentID(student.ID, 0)
	if err != nil {
		return recap.Row{}, err
	}

	agg := recap.NewAggregator(calendar.New(settings.Holidays, s.loc, s.now))
	return agg.Recap([]models.User{student}, records, period, "")[0], nil
}

func (s *ReportService) MonthSheet(ctx context.Context, year int, month time.Month, class string) (export.MonthSheet, error) {
	class = NormalizeClass(class)

	settings, agg, students, records, err := s.load(ctx, calendar.Month(year, month), class)
	if err != nil {
		return export.MonthSheet{}, err
	}

	return export.MonthSheet{
		School: settings.Name,
		Class:  class,
		Year:   year,
		Month:  month,
		Rows:   agg.MonthGrid(students, records, year, month, class),
	}, nil
}

// ExportMonth writes the monthly grid workbook to w and returns its file name.
func (s *ReportService) ExportMonth(ctx context.Context, w io.Writer, year int, month time.Month, class string) (string, error) {
	sheet, err := s.MonthSheet(ctx, year, month, class)
	if err != nil {
		return "", err
	}

	if err := export.Write(w, sheet); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"year":  year,
		"month": int(month),
		"class": sheet.Class,
		"rows":  len(sheet.Rows),
	}).Info("Monthly recap exported")

	return sheet.FileName(), nil
}

func (s *ReportService) FormatRecap(r *RecapReport) string {
	var lines []string

	class := r.Class
	if class == "" {
		class = "Semua"
	}

	lines = append(lines, fmt.Sprintf("📊 Rekap %s - %s", r.Type, r.Period))
	lines = append(lines, fmt.Sprintf("🏫 %s | Kelas: %s", r.School, class))
	if r.period.Kind != calendar.PeriodDay {
		lines = append(lines, fmt.Sprintf("📅 Total Hari Efektif: %d", r.WorkingDays))
	}
	lines = append(lines, "")

	if len(r.Rows) == 0 {
		lines = append(lines, "📭 Tidak ada siswa untuk ditampilkan.")
		return strings.Join(lines, "\n")
	}

	for i, row := range r.Rows {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, row.Name, row.Class))
		lines = append(lines, fmt.Sprintf("    H:%d S:%d I:%d A:%d | %d%%",
			row.Hadir, row.Sakit, row.Izin, row.Alpa, row.Percentage()))
	}

	return strings.Join(lines, "\n")
}

func (s *ReportService) FormatStudentRecap(row recap.Row, period calendar.Period) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("📈 Statistik %s", period.Label()))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("✅ Hadir: %d", row.Hadir))
	lines = append(lines, fmt.Sprintf("🤒 Sakit: %d", row.Sakit))
	lines = append(lines, fmt.Sprintf("📝 Izin: %d", row.Izin))
	lines = append(lines, fmt.Sprintf("❌ Alpa: %d", row.Alpa))
	lines = append(lines, fmt.Sprintf("📅 Hari efektif: %d", row.WorkingDays))
	lines = append(lines, fmt.Sprintf("🎯 Kehadiran: %d%%", row.Percentage()))
	return strings.Join(lines, "\n")
}
