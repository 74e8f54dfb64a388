package notify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"attendance-bot/internal/calendar"
	"attendance-bot/internal/models"
)

var ErrBeforeEntryTime = errors.New("belum waktunya mengecek keterlambatan")

// FormatLongDate renders t the Indonesian long way, e.g. "Selasa, 18 Februari 2025".
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d", calendar.WeekdayName(t.Weekday()), t.Day(), calendar.MonthName(t.Month()), t.Year())
}

// AttendanceMessage is the parent report queued after a successful submission.
func AttendanceMessage(student models.User, rec models.AttendanceRecord, loc *time.Location) string {
	ts := rec.Timestamp.In(loc)

	var b strings.Builder
	b.WriteString("*LAPORAN KEHADIRAN SISWA*\n\n")
	fmt.Fprintf(&b, "Nama: %s\n", student.Name)
	fmt.Fprintf(&b, "Kelas: %s\n", student.Class)
	fmt.Fprintf(&b, "Tanggal: %s\n", FormatLongDate(ts))
	fmt.Fprintf(&b, "Waktu: %s\n", ts.Format("15:04"))
	fmt.Fprintf(&b, "Status: *%s*\n\n", strings.ToUpper(string(rec.Status)))

	switch rec.Status {
	case models.StatusPresent:
		b.WriteString("Ananda telah tiba di sekolah tepat waktu. Terima kasih.")
	case models.StatusSick, models.StatusExcused:
		fmt.Fprintf(&b, "Kami telah menerima laporan %s ananda beserta bukti lampiran. Semoga lekas pulih/urusan lancar.", rec.Status)
	}

	return b.String()
}

// LateMessage warns a parent that the student has not checked in by entry time.
func LateMessage(student models.User) string {
	return fmt.Sprintf("*PERINGATAN KEHADIRAN*\n\nInformasi: Ananda *%s* (%s) belum tercatat melakukan presensi hingga jam masuk hari ini. Mohon segera hubungi pihak sekolah atau ingatkan ananda.",
		student.Name, student.Class)
}

// WhatsAppURL builds a wa.me deep link for phone with text prefilled.
func WhatsAppURL(phone, text string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits.String(), escaped)
}

func NewAttendanceNotification(id string, student models.User, rec models.AttendanceRecord, now time.Time, loc *time.Location) models.Notification {
	return models.Notification{
		ID:          id,
		StudentID:   student.ID,
		StudentName: student.Name,
		Type:        models.NotificationAttendance,
		Contact:     student.ParentContact,
		Message:     AttendanceMessage(student, rec, loc),
		CreatedAt:   now.UTC(),
	}
}

func NewLateNotification(id string, student models.User, now time.Time) models.Notification {
	return models.Notification{
		ID:          id,
		StudentID:   student.ID,
		StudentName: student.Name,
		Type:        models.NotificationLate,
		Contact:     student.ParentContact,
		Message:     LateMessage(student),
		CreatedAt:   now.UTC(),
	}
}

// IsQueued reports whether queue already holds an entry of kind for the
// student created on the calendar date of day.
func IsQueued(queue []models.Notification, studentID string, kind models.NotificationType, day time.Time, loc *time.Location) bool {
	key := calendar.DateKey(day, loc)
	for _, n := range queue {
		if n.StudentID == studentID && n.Type == kind && calendar.DateKey(n.CreatedAt, loc) == key {
			return true
		}
	}
	return false
}

// DetectLate returns late alerts for students that have no record today once
// the entry time has passed. Students without a parent contact and students
// already alerted today are skipped.
func DetectLate(
	students []models.User,
	records []models.AttendanceRecord,
	queue []models.Notification,
	settings models.SchoolSettings,
	now time.Time,
	loc *time.Location,
	newID func() string,
) ([]models.Notification, error) {
	entry, err := settings.EntryTimeOn(now, loc)
	if err != nil {
		return nil, err
	}
	if now.Before(entry) {
		return nil, fmt.Errorf("%w: jam masuk %s", ErrBeforeEntryTime, settings.EntryTime)
	}

	today := calendar.DateKey(now, loc)
	present := make(map[string]bool)
	for _, r := range records {
		if calendar.DateKey(r.Timestamp, loc) == today {
			present[r.StudentID] = true
		}
	}

	var alerts []models.Notification
	for _, s := range students {
		if !s.IsStudent() || present[s.ID] || !s.HasParentContact() {
			continue
		}
		if IsQueued(queue, s.ID, models.NotificationLate, now, loc) || IsQueued(alerts, s.ID, models.NotificationLate, now, loc) {
			continue
		}
		alerts = append(alerts, NewLateNotification(newID(), s, now))
	}

	return alerts, nil
}
