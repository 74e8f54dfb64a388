package notify

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"attendance-bot/internal/models"
)

var (
	wib  = time.FixedZone("WIB", 7*3600)
	budi = models.User{ID: "s-1", Name: "Budi Santoso", Class: "12-IPA-1", ParentContact: "628123456789", Role: models.RoleStudent}
	sari = models.User{ID: "s-2", Name: "Sari", Class: "12-IPA-2", ParentContact: "628555", Role: models.RoleStudent}
	andi = models.User{ID: "s-3", Name: "Andi", Class: "12-IPA-1", Role: models.RoleStudent}
	adm  = models.User{ID: "a-1", Name: "Admin", ParentContact: "62811", Role: models.RoleAdmin}
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("n-%d", n)
	}
}

func TestAttendanceMessagePresent(t *testing.T) {
	rec := models.AttendanceRecord{
		Status:    models.StatusPresent,
		Timestamp: time.Date(2025, time.February, 17, 23, 55, 0, 0, time.UTC), // 06:55 WIB on the 18th
	}

	got := AttendanceMessage(budi, rec, wib)
	want := "*LAPORAN KEHADIRAN SISWA*\n\n" +
		"Nama: Budi Santoso\n" +
		"Kelas: 12-IPA-1\n" +
		"Tanggal: Selasa, 18 Februari 2025\n" +
		"Waktu: 06:55\n" +
		"Status: *HADIR*\n\n" +
		"Ananda telah tiba di sekolah tepat waktu. Terima kasih."
	if got != want {
		t.Errorf("AttendanceMessage =\n%s\nwant\n%s", got, want)
	}
}

func TestAttendanceMessageWithEvidence(t *testing.T) {
	for _, status := range []models.AttendanceStatus{models.StatusSick, models.StatusExcused} {
		rec := models.AttendanceRecord{Status: status, Timestamp: time.Date(2025, time.February, 18, 1, 0, 0, 0, time.UTC)}

		got := AttendanceMessage(budi, rec, wib)
		if !strings.Contains(got, "Status: *"+strings.ToUpper(string(status))+"*") {
			t.Errorf("%s: status line missing in %q", status, got)
		}
		if !strings.Contains(got, "Kami telah menerima laporan "+string(status)+" ananda beserta bukti lampiran.") {
			t.Errorf("%s: evidence sentence missing in %q", status, got)
		}
	}
}

func TestLateMessage(t *testing.T) {
	got := LateMessage(budi)
	if !strings.HasPrefix(got, "*PERINGATAN KEHADIRAN*") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "Ananda *Budi Santoso* (12-IPA-1) belum tercatat") {
		t.Errorf("missing student line: %q", got)
	}
}

func TestWhatsAppURL(t *testing.T) {
	got := WhatsAppURL("+62 812-3456", "Halo *Budi* & ibu\nhari ini")
	want := "https://wa.me/628123456?text=Halo%20%2ABudi%2A%20%26%20ibu%0Ahari%20ini"
	if got != want {
		t.Errorf("WhatsAppURL = %q, want %q", got, want)
	}
}

func TestNewAttendanceNotification(t *testing.T) {
	now := time.Date(2025, time.February, 18, 6, 55, 0, 0, wib)
	rec := models.AttendanceRecord{Status: models.StatusPresent, Timestamp: now.UTC()}

	n := NewAttendanceNotification("n-1", budi, rec, now, wib)
	if n.Type != models.NotificationAttendance || n.Contact != budi.ParentContact || n.StudentID != budi.ID || n.StudentName != budi.Name {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.CreatedAt.Location() != time.UTC || !n.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v", n.CreatedAt)
	}
}

func TestIsQueuedUsesLocalDate(t *testing.T) {
	queue := []models.Notification{
		{StudentID: "s-1", Type: models.NotificationLate, CreatedAt: time.Date(2025, time.February, 17, 18, 0, 0, 0, time.UTC)}, // 01:00 WIB on the 18th
	}
	day := time.Date(2025, time.February, 18, 9, 0, 0, 0, wib)

	if !IsQueued(queue, "s-1", models.NotificationLate, day, wib) {
		t.Error("entry created on the 18th WIB should count as queued")
	}
	if IsQueued(queue, "s-1", models.NotificationAttendance, day, wib) {
		t.Error("different type must not match")
	}
	if IsQueued(queue, "s-1", models.NotificationLate, day.AddDate(0, 0, 1), wib) {
		t.Error("different day must not match")
	}
}

func TestDetectLate(t *testing.T) {
	settings := models.DefaultSchoolSettings() // entry 07:30
	now := time.Date(2025, time.February, 18, 8, 0, 0, 0, wib)

	records := []models.AttendanceRecord{
		{StudentID: "s-2", Status: models.StatusPresent, Timestamp: time.Date(2025, time.February, 18, 0, 10, 0, 0, time.UTC)},
	}

	alerts, err := DetectLate([]models.User{budi, sari, andi, adm}, records, nil, settings, now, wib, sequentialIDs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// sari checked in, andi has no contact, the admin is not a student.
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
	}
	a := alerts[0]
	if a.ID != "n-1" || a.StudentID != "s-1" || a.Type != models.NotificationLate || a.Message != LateMessage(budi) {
		t.Errorf("unexpected alert: %+v", a)
	}

	// A second run on the same day produces nothing new.
	again, err := DetectLate([]models.User{budi, sari, andi}, records, alerts, settings, now.Add(30*time.Minute), wib, sequentialIDs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second run queued %d alerts, want 0", len(again))
	}

	// The next day the student is alerted again.
	tomorrow, err := DetectLate([]models.User{budi}, records, alerts, settings, now.AddDate(0, 0, 1), wib, sequentialIDs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tomorrow) != 1 {
		t.Errorf("next day queued %d alerts, want 1", len(tomorrow))
	}
}

func TestDetectLateBeforeEntryTime(t *testing.T) {
	settings := models.DefaultSchoolSettings()
	now := time.Date(2025, time.February, 18, 7, 29, 0, 0, wib)

	alerts, err := DetectLate([]models.User{budi}, nil, nil, settings, now, wib, sequentialIDs())
	if !errors.Is(err, ErrBeforeEntryTime) {
		t.Fatalf("expected ErrBeforeEntryTime, got %v", err)
	}
	if alerts != nil {
		t.Errorf("no alerts expected, got %+v", alerts)
	}

	// Exactly at entry time the check runs.
	if _, err := DetectLate([]models.User{budi}, nil, nil, settings, now.Add(time.Minute), wib, sequentialIDs()); err != nil {
		t.Errorf("check at entry time failed: %v", err)
	}
}
