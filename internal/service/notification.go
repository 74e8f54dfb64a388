package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance-bot/internal/calendar"
	"attendance-bot/internal/models"
	"attendance-bot/internal/notify"
	"attendance-bot/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrNoSchoolToday = errors.New("hari ini bukan hari sekolah")

type NotificationService struct {
	queue    repository.NotificationRepository
	users    repository.UserRepository
	records  repository.AttendanceRepository
	settings *SettingsService
	loc      *time.Location
	now      func() time.Time
	newID    func() string
	logger   *logrus.Logger
}

func NewNotificationService(
	queue repository.NotificationRepository,
	users repository.UserRepository,
	records repository.AttendanceRepository,
	settings *SettingsService,
	loc *time.Location,
	now func() time.Time,
) *NotificationService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if now == nil {
		now = time.Now
	}

	return &NotificationService{
		queue:    queue,
		users:    users,
		records:  records,
		settings: settings,
		loc:      loc,
		now:      now,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

func (s *NotificationService) List() ([]models.Notification, error) {
	return s.queue.GetAll()
}

// Send returns the WhatsApp deep link for a queued message and removes it
// from the queue. Actual delivery happens when the administrator opens the link.
func (s *NotificationService) Send(id string) (string, *models.Notification, error) {
	n, err := s.queue.GetByID(strings.TrimSpace(id))
	if err != nil {
		return "", nil, err
	}
	if n == nil {
		return "", nil, repository.ErrNotificationNotFound
	}

	link := notify.WhatsAppURL(n.Contact, n.Message)
	if err := s.queue.Delete(n.ID); err != nil {
		return "", nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"student_id":      n.StudentID,
		"type":            n.Type,
	}).Info("Notification handed out for sending")

	return link, n, nil
}

func (s *NotificationService) Dismiss(id string) error {
	if err := s.queue.Delete(strings.TrimSpace(id)); err != nil {
		return err
	}

	s.logger.WithField("notification_id", id).Info("Notification dismissed")
	return nil
}

// CheckLate queues a late alert for every student without a record today once
// the entry time has passed. Running it again on the same day adds nothing.
func (s *NotificationService) CheckLate(ctx context.Context) ([]models.Notification, error) {
	now := s.now()

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	cal := calendar.New(settings.Holidays, s.loc, s.now)
	if cal.IsSunday(now) || cal.IsHoliday(now) {
		return nil, ErrNoSchoolToday
	}

	students, err := s.users.GetStudents("")
	if err != nil {
		return nil, err
	}

	today := calendar.DateKey(now, s.loc)
	records, err := s.records.GetByDateRange(today, today)
	if err != nil {
		return nil, err
	}

	// Sent and dismissed alerts count as already queued.
	queued, err := s.queue.GetSince(cal.Today())
	if err != nil {
		return nil, err
	}

	alerts, err := notify.DetectLate(students, records, queued, settings, now, s.loc, s.newID)
	if err != nil {
		return nil, err
	}

	if err := s.queue.CreateMany(alerts); err != nil {
		return nil, fmt.Errorf("queue late alerts: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"date":   today,
		"queued": len(alerts),
	}).Info("Late check finished")

	return alerts, nil
}

func (s *NotificationService) FormatQueue(queue []models.Notification) string {
	if len(queue) == 0 {
		return "📭 Antrean pesan kosong."
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("📨 Antrean pesan WhatsApp (%d):", len(queue)))
	lines = append(lines, "")

	for i, n := range queue {
		emoji := "✅"
		if n.Type == models.NotificationLate {
			emoji = "⚠️"
		}
		lines = append(lines, fmt.Sprintf("%d. %s %s - %s (%s)",
			i+1, emoji, n.StudentName, n.Type, n.CreatedAt.In(s.loc).Format("02.01 15:04")))
		lines = append(lines, fmt.Sprintf("    📱 %s | ID: %s", n.Contact, n.ID))
	}

	return strings.Join(lines, "\n")
}

// FormatLateResult summarises one late check for administrators.
func (s *NotificationService) FormatLateResult(alerts []models.Notification) string {
	if len(alerts) == 0 {
		return "👍 Tidak ada siswa baru yang terlambat."
	}

	names := make([]string, 0, len(alerts))
	for _, a := range alerts {
		names = append(names, "• "+a.StudentName)
	}
	return fmt.Sprintf("⚠️ %d siswa belum presensi, pesan ditambahkan ke antrean:\n%s",
		len(alerts), strings.Join(names, "\n"))
}
