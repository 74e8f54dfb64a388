package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/calendar"
	"attendance-bot/internal/models"
	"attendance-bot/internal/notify"
	"attendance-bot/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AttendanceService struct {
	recorder *attendance.Recorder
	records  repository.AttendanceRepository
	loc      *time.Location
	now      func() time.Time
	newID    func() string
	logger   *logrus.Logger
}

func NewAttendanceService(
	recorder *attendance.Recorder,
	records repository.AttendanceRepository,
	loc *time.Location,
	now func() time.Time,
) *AttendanceService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if now == nil {
		now = time.Now
	}

	return &AttendanceService{
		recorder: recorder,
		records:  records,
		loc:      loc,
		now:      now,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

// HasSubmittedToday reports whether the student already has a record for the
// current date.
func (s *AttendanceService) HasSubmittedToday(studentID string) (bool, error) {
	return s.records.ExistsForStudentOnDate(studentID, calendar.DateKey(s.now(), s.loc))
}

// Submit runs the duplicate guard and the recorder, then writes the record
// and the parent notification (when a contact exists) in one transaction.
// A rejected submission writes nothing.
func (s *AttendanceService) Submit(ctx context.Context, sub attendance.Submission) (*models.AttendanceRecord, *models.Notification, error) {
	log := s.logger.WithFields(logrus.Fields{
		"student_id": sub.Student.ID,
		"status":     sub.Status,
	})

	done, err := s.HasSubmittedToday(sub.Student.ID)
	if err != nil {
		return nil, nil, err
	}
	if done {
		return nil, nil, attendance.ErrDuplicateSubmission
	}

	record, err := s.recorder.Submit(ctx, sub)
	if err != nil {
		log.WithError(err).Info("Submission rejected")
		return nil, nil, err
	}

	// The position wait may have spanned another submission from the same account.
	done, err = s.records.ExistsForStudentOnDate(record.StudentID, record.Date)
	if err != nil {
		return nil, nil, err
	}
	if done {
		return nil, nil, attendance.ErrDuplicateSubmission
	}

	var notification *models.Notification
	if attendance.ShouldNotify(sub.Student) {
		n := notify.NewAttendanceNotification(s.newID(), sub.Student, *record, record.Timestamp, s.loc)
		notification = &n
	}

	if err := s.records.CreateWithNotification(record, notification); err != nil {
		return nil, nil, fmt.Errorf("simpan presensi: %w", err)
	}

	log.WithField("record_id", record.ID).Info("Attendance submitted")
	return record, notification, nil
}

// History returns the newest records of a student first.
func (s *AttendanceService) History(studentID string, limit int) ([]models.AttendanceRecord, error) {
	return s.records.GetByStudentID(studentID, limit)
}

// Totals counts every record of a student per status.
type Totals struct {
	Hadir int
	Sakit int
	Izin  int
}

func (t Totals) Total() int {
	return t.Hadir + t.Sakit + t.Izin
}

func (s *AttendanceService) Summary(studentID string) (Totals, error) {
	records, err := s.records.GetByStudentID(studentID, 0)
	if err != nil {
		return Totals{}, err
	}

	var t Totals
	for _, r := range records {
		switch r.Status {
		case models.StatusPresent:
			t.Hadir++
		case models.StatusSick:
			t.Sakit++
		case models.StatusExcused:
			t.Izin++
		}
	}
	return t, nil
}

func statusEmoji(status models.AttendanceStatus) string {
	switch status {
	case models.StatusPresent:
		return "✅"
	case models.StatusSick:
		return "🤒"
	case models.StatusExcused:
		return "📝"
	}
	return "❔"
}

func (s *AttendanceService) FormatRecord(r *models.AttendanceRecord) string {
	ts := r.Timestamp.In(s.loc)

	var lines []string
	lines = append(lines, fmt.Sprintf("%s Presensi tercatat: *%s*", statusEmoji(r.Status), r.Status))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("👨‍🎓 %s (%s)", r.StudentName, r.Class))
	lines = append(lines, fmt.Sprintf("📅 %s", notify.FormatLongDate(ts)))
	lines = append(lines, fmt.Sprintf("🕐 %s", ts.Format("15:04")))

	if r.HasLocation() {
		lines = append(lines, fmt.Sprintf("📍 Jarak dari sekolah: %.0f m", *r.Distance))
	}
	if r.EvidenceRef != "" {
		lines = append(lines, "📎 Bukti terlampir")
	}

	return strings.Join(lines, "\n")
}

func (s *AttendanceService) FormatHistory(records []models.AttendanceRecord) string {
	if len(records) == 0 {
		return "📭 Belum ada riwayat presensi."
	}

	var lines []string
	lines = append(lines, "📜 Riwayat presensi:")
	lines = append(lines, "")

	for _, r := range records {
		ts := r.Timestamp.In(s.loc)
		lines = append(lines, fmt.Sprintf("%s %s %s - %s",
			statusEmoji(r.Status),
			ts.Format("02.01.2006"),
			ts.Format("15:04"),
			r.Status,
		))
	}

	return strings.Join(lines, "\n")
}

func (s *AttendanceService) FormatSummary(t Totals) string {
	var lines []string
	lines = append(lines, "📊 Total presensi:")
	lines = append(lines, fmt.Sprintf("✅ Hadir: %d", t.Hadir))
	lines = append(lines, fmt.Sprintf("🤒 Sakit: %d", t.Sakit))
	lines = append(lines, fmt.Sprintf("📝 Izin: %d", t.Izin))
	lines = append(lines, fmt.Sprintf("Σ Total: %d", t.Total()))
	return strings.Join(lines, "\n")
}
