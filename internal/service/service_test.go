package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/calendar"
	"attendance-bot/internal/geo"
	"attendance-bot/internal/models"
	"attendance-bot/internal/notify"
	"attendance-bot/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var wib = time.FixedZone("WIB", 7*3600)

type env struct {
	clock    *time.Time
	users    *UserService
	settings *SettingsService
	att      *AttendanceService
	reports  *ReportService
	notifs   *NotificationService

	recordRepo repository.AttendanceRepository
	queueRepo  repository.NotificationRepository
}

func newEnv(t *testing.T, now time.Time) *env {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	userRepo, err := repository.NewGormUserRepository(db)
	if err != nil {
		t.Fatal(err)
	}
	recordRepo, err := repository.NewGormAttendanceRepository(db)
	if err != nil {
		t.Fatal(err)
	}
	settingsRepo, err := repository.NewGormSettingsRepository(db)
	if err != nil {
		t.Fatal(err)
	}
	holidayRepo, err := repository.NewGormHolidayRepository(db)
	if err != nil {
		t.Fatal(err)
	}
	queueRepo, err := repository.NewGormNotificationRepository(db)
	if err != nil {
		t.Fatal(err)
	}

	e := &env{clock: &now, recordRepo: recordRepo, queueRepo: queueRepo}
	clock := func() time.Time { return *e.clock }

	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	e.users = NewUserService(userRepo)
	e.settings = NewSettingsService(settingsRepo, holidayRepo, wib)
	recorder := attendance.NewRecorder(e.settings, wib, attendance.WithClock(clock), attendance.WithLogger(quiet))
	e.att = NewAttendanceService(recorder, recordRepo, wib, clock)
	e.reports = NewReportService(userRepo, recordRepo, e.settings, wib, clock)
	e.notifs = NewNotificationService(queueRepo, userRepo, recordRepo, e.settings, wib, clock)

	for _, l := range []*logrus.Logger{e.users.logger, e.settings.logger, e.att.logger, e.reports.logger, e.notifs.logger} {
		l.SetOutput(io.Discard)
	}

	return e
}

func (e *env) student(t *testing.T, username, name, class, contact string) models.User {
	t.Helper()
	u, err := e.users.CreateStudent(NewStudent{Username: username, Name: name, Class: class, ParentContact: contact})
	if err != nil {
		t.Fatalf("create student %s: %v", username, err)
	}
	return *u
}

// 2025-02-18 is a Tuesday.
var tuesdayMorning = time.Date(2025, time.February, 18, 8, 0, 0, 0, wib)

func nearSchool(meters float64) geo.PositionProvider {
	s := models.DefaultSchoolSettings()
	return geo.Fixed(geo.Coordinate{
		Latitude:  s.TargetLat + meters/geo.EarthRadiusMeters*180/math.Pi,
		Longitude: s.TargetLng,
	})
}

func TestUserServiceSeedAndLogin(t *testing.T) {
	e := newEnv(t, tuesdayMorning)

	if err := e.users.SeedDefaults(true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding twice is harmless.
	if err := e.users.SeedDefaults(true); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	if _, err := e.users.Login(10, "siswa", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}

	u, err := e.users.Login(10, "siswa", "123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Name != "Budi Santoso" || u.Class != "12-IPA-1" || u.ParentContact != "628123456789" || !u.IsStudent() {
		t.Errorf("unexpected demo student: %+v", u)
	}

	current, err := e.users.CurrentUser(10)
	if err != nil || current == nil || current.ID != u.ID {
		t.Errorf("CurrentUser = %+v, %v", current, err)
	}

	if err := e.users.Logout(10); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if current, _ := e.users.CurrentUser(10); current != nil {
		t.Error("chat still logged in after logout")
	}
}

func TestUserServiceInitializeAdmin(t *testing.T) {
	e := newEnv(t, tuesdayMorning)

	if err := e.users.InitializeAdmin(0); err != nil {
		t.Fatalf("zero chat id: %v", err)
	}
	if err := e.users.InitializeAdmin(99); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	admin, err := e.users.CurrentUser(99)
	if err != nil || admin == nil || !admin.IsAdmin() || admin.Username != "admin" {
		t.Errorf("admin chat not linked: %+v, %v", admin, err)
	}
}

func TestUserServiceStudents(t *testing.T) {
	e := newEnv(t, tuesdayMorning)

	if _, err := e.users.CreateStudent(NewStudent{Username: "x", Name: "X", Class: "10-A"}); err == nil {
		t.Error("short username should fail validation")
	}
	if _, err := e.users.CreateStudent(NewStudent{Username: "rina", Name: "", Class: "10-A"}); err == nil {
		t.Error("missing name should fail validation")
	}

	rina := e.student(t, "Rina", "Rina", "10-A", "+62 812-3456-7890")
	if rina.Username != "rina" || rina.Password != models.DefaultPassword || rina.ParentContact != "6281234567890" {
		t.Errorf("unexpected student: %+v", rina)
	}
	e.student(t, "andi", "Andi", "11-B", "")
	e.student(t, "bayu", "Bayu", "10-A", "")

	if _, err := e.users.CreateStudent(NewStudent{Username: "rina", Name: "Other", Class: "10-A"}); !errors.Is(err, repository.ErrUsernameTaken) {
		t.Errorf("duplicate username: got %v", err)
	}

	byName, err := e.users.ListStudents("", "Semua", SortByName)
	if err != nil || len(byName) != 3 || byName[0].Name != "Andi" || byName[2].Name != "Rina" {
		t.Errorf("ListStudents by name = %+v, %v", byName, err)
	}

	found, _ := e.users.ListStudents("RIN", "", "")
	if len(found) != 1 || found[0].ID != rina.ID {
		t.Errorf("search = %+v", found)
	}

	inClass, _ := e.users.ListStudents("", "10-A", SortByName)
	if len(inClass) != 2 || inClass[0].Name != "Bayu" {
		t.Errorf("class filter = %+v", inClass)
	}

	updated, err := e.users.UpdateStudent(rina.ID, StudentUpdate{Name: "Rina Amelia", Class: "11-B", ParentContact: "62899999999"})
	if err != nil || updated.Name != "Rina Amelia" || updated.Class != "11-B" {
		t.Errorf("UpdateStudent = %+v, %v", updated, err)
	}

	classes, _ := e.users.Classes()
	if strings.Join(classes, ",") != "10-A,11-B" {
		t.Errorf("classes = %v", classes)
	}

	if _, err := e.users.DeleteStudent(rina.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := e.users.DeleteStudent(rina.ID); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("second delete: got %v", err)
	}

	_ = e.users.SeedDefaults(false)
	admin, _ := e.users.repo.GetByUsername("admin")
	if _, err := e.users.DeleteStudent(admin.ID); !errors.Is(err, ErrNotStudent) {
		t.Errorf("deleting the admin through DeleteStudent: got %v", err)
	}
}

func TestSettingsService(t *testing.T) {
	e := newEnv(t, tuesdayMorning)
	ctx := context.Background()

	before, err := e.settings.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if before.Name != "SMA Negeri Cerdas Utama" || before.EntryTime != "07:30" || len(before.Holidays) != 0 {
		t.Errorf("defaults: %+v", before)
	}

	if _, err := e.settings.UpdateEntryTime("7:05"); err != nil {
		t.Fatalf("entry time: %v", err)
	}
	if _, err := e.settings.UpdateEntryTime("25:00"); err == nil {
		t.Error("invalid entry time accepted")
	}
	if _, err := e.settings.UpdateRadius(0); err == nil {
		t.Error("zero radius accepted")
	}
	if _, err := e.settings.UpdateRadius(250); err != nil {
		t.Fatalf("radius: %v", err)
	}
	if _, err := e.settings.UpdateTarget(95, 106); err == nil {
		t.Error("latitude 95 accepted")
	}
	if _, err := e.settings.UpdateTarget(-6.9, 107.6); err != nil {
		t.Fatalf("target: %v", err)
	}
	if _, err := e.settings.UpdateName(" SMA 1 "); err != nil {
		t.Fatalf("name: %v", err)
	}

	for _, d := range []string{"2025-03-31", "2025-02-17"} {
		if _, err := e.settings.AddHoliday(d, ""); err != nil {
			t.Fatalf("add holiday %s: %v", d, err)
		}
	}
	if _, err := e.settings.AddHoliday("2025-02-17", ""); !errors.Is(err, ErrHolidayExists) {
		t.Errorf("duplicate holiday: got %v", err)
	}
	if _, err := e.settings.AddHoliday("17/02/2025", ""); err == nil {
		t.Error("malformed date accepted")
	}

	after, err := e.settings.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if after.Name != "SMA 1" || after.EntryTime != "07:05" || after.RadiusMeters != 250 || after.TargetLat != -6.9 {
		t.Errorf("updated settings: %+v", after)
	}
	if strings.Join(after.Holidays, ",") != "2025-02-17,2025-03-31" {
		t.Errorf("holidays not sorted: %v", after.Holidays)
	}

	// The earlier snapshot is a copy and does not change.
	if before.RadiusMeters != 100 || before.EntryTime != "07:30" {
		t.Errorf("snapshot mutated: %+v", before)
	}

	if err := e.settings.RemoveHoliday("2025-02-17"); err != nil {
		t.Fatalf("remove holiday: %v", err)
	}
	if err := e.settings.RemoveHoliday("2025-02-17"); !errors.Is(err, repository.ErrHolidayNotFound) {
		t.Errorf("second remove: got %v", err)
	}
}

func TestSnapshotHonoursContext(t *testing.T) {
	e := newEnv(t, tuesdayMorning)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.settings.Snapshot(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestAttendanceSubmitPresent(t *testing.T) {
	e := newEnv(t, tuesdayMorning)
	ctx := context.Background()
	budi := e.student(t, "budi", "Budi", "12-IPA-1", "628123456789")

	rec, n, err := e.att.Submit(ctx, attendance.Submission{Student: budi, Status: models.StatusPresent, Position: nearSchool(30)})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Date != "2025-02-18" || !rec.HasLocation() {
		t.Errorf("unexpected record: %+v", rec)
	}
	if n == nil || n.Type != models.NotificationAttendance || n.Contact != "628123456789" {
		t.Fatalf("unexpected notification: %+v", n)
	}

	queued, _ := e.queueRepo.GetAll()
	if len(queued) != 1 || queued[0].ID != n.ID {
		t.Errorf("queue = %+v", queued)
	}

	done, err := e.att.HasSubmittedToday(budi.ID)
	if err != nil || !done {
		t.Errorf("HasSubmittedToday = %v, %v", done, err)
	}

	_, _, err = e.att.Submit(ctx, attendance.Submission{Student: budi, Status: models.StatusSick, Evidence: "file"})
	if !errors.Is(err, attendance.ErrDuplicateSubmission) {
		t.Errorf("second submission: got %v", err)
	}

	// Next day the student may submit again.
	*e.clock = tuesdayMorning.AddDate(0, 0, 1)
	if _, _, err := e.att.Submit(ctx, attendance.Submission{Student: budi, Status: models.StatusExcused, Evidence: "doc-1"}); err != nil {
		t.Errorf("next day submission: %v", err)
	}

	history, _ := e.att.History(budi.ID, 10)
	if len(history) != 2 || history[0].Status != models.StatusExcused {
		t.Errorf("history = %+v", history)
	}

	totals, _ := e.att.Summary(budi.ID)
	if totals.Hadir != 1 || totals.Izin != 1 || totals.Total() != 2 {
		t.Errorf("totals = %+v", totals)
	}
}

func TestAttendanceRejectedSubmissionWritesNothing(t *testing.T) {
	e := newEnv(t, tuesdayMorning)
	ctx := context.Background()
	budi := e.student(t, "budi", "Budi", "12-IPA-1", "628123456789")

	_, _, err := e.att.Submit(ctx, attendance.Submission{Student: budi, Status: models.StatusPresent, Position: nearSchool(150)})
	var oor *attendance.OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}

	_, _, err = e.att.Submit(ctx, attendance.Submission{Student: budi, Status: models.StatusSick})
	if !errors.Is(err, attendance.ErrMissingEvidence) {
		t.Fatalf("expected ErrMissingEvidence, got %v", err)
	}

	failing := geo.ProviderFunc(func(context.Context) (geo.Coordinate, error) {
		return geo.Coordinate{}, errors.New("timeout")
	})
	_, _, err = e.att.Submit(ctx, attendance.Submission{Student: budi, Status: models.StatusPresent, Position: failing})
	var pu *attendance.PositionUnavailableError
	if !errors.As(err, &pu) {
		t.Fatalf("expected PositionUnavailableError, got %v", err)
	}

	records, _ := e.recordRepo.GetByStudentID(budi.ID, 0)
	queued, _ := e.queueRepo.GetAll()
	if len(records) != 0 || len(queued) != 0 {
		t.Errorf("rejected submissions wrote %d records and %d notifications", len(records), len(queued))
	}
}

func TestAttendanceWithoutContactQueuesNothing(t *testing.T) {
	e := newEnv(t, tuesdayMorning)
	andi := e.student(t, "andi", "Andi", "12-IPA-1", "")

	rec, n, err := e.att.Submit(context.Background(), attendance.Submission{Student: andi, Status: models.StatusSick, Evidence: "photo-1"})
	if err != nil || rec == nil {
		t.Fatalf("submit: %v", err)
	}
	if n != nil {
		t.Errorf("no notification expected, got %+v", n)
	}
}

func TestReportService(t *testing.T) {
	e := newEnv(t, tuesdayMorning)
	ctx := context.Background()

	budi := e.student(t, "budi", "Budi", "12-IPA-1", "")
	e.student(t, "sari", "Sari", "12-IPA-2", "")
	if _, err := e.settings.AddHoliday("2025-02-17", "Libur"); err != nil {
		t.Fatal(err)
	}

	if _, _, err := e.att.Submit(ctx, attendance.Submission{Student: budi, Status: models.StatusPresent, Position: nearSchool(10)}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Feb 1-18 minus Sundays 2, 9, 16 and the holiday on the 17th.
	report, err := e.reports.Recap(ctx, calendar.Month(2025, time.February), "Semua")
	if err != nil {
		t.Fatalf("recap: %v", err)
	}
	if report.WorkingDays != 14 || len(report.Rows) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if r := report.Rows[0]; r.Name != "Budi" || r.Hadir != 1 || r.Alpa != 13 || r.Percentage() != 7 {
		t.Errorf("budi row = %+v", r)
	}
	if !strings.Contains(e.reports.FormatRecap(report), "Total Hari Efektif: 14") {
		t.Error("monthly recap text should show the working days")
	}

	// A class without students still reports the period's working days.
	empty, err := e.reports.Recap(ctx, calendar.Month(2025, time.February), "10-A")
	if err != nil {
		t.Fatalf("empty class recap: %v", err)
	}
	if len(empty.Rows) != 0 || empty.WorkingDays != report.Rows[0].WorkingDays {
		t.Errorf("empty class recap = %+v", empty)
	}

	daily, err := e.reports.Recap(ctx, calendar.Day(tuesdayMorning), "12-IPA-2")
	if err != nil {
		t.Fatalf("daily recap: %v", err)
	}
	if len(daily.Rows) != 1 || daily.Rows[0].Alpa != 1 || daily.WorkingDays != 1 {
		t.Errorf("daily recap = %+v", daily)
	}
	if strings.Contains(e.reports.FormatRecap(daily), "Total Hari Efektif") {
		t.Error("daily recap text should not show working days")
	}

	row, err := e.reports.StudentRecap(ctx, budi, calendar.Month(2025, time.February))
	if err != nil || row.Hadir != 1 || row.WorkingDays != 14 {
		t.Errorf("StudentRecap = %+v, %v", row, err)
	}

	var buf bytes.Buffer
	name, err := e.reports.ExportMonth(ctx, &buf, 2025, time.February, "12-IPA-1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "rekap-kehadiran-2025-02-12-IPA-1.xlsx" || buf.Len() == 0 {
		t.Errorf("export produced %q with %d bytes", name, buf.Len())
	}

	sheet, err := e.reports.MonthSheet(ctx, 2025, time.February, "")
	if err != nil || len(sheet.Rows) != 2 || sheet.Rows[0].Days[17] != "H" || sheet.Rows[0].Days[16] != "" {
		t.Errorf("MonthSheet = %+v, %v", sheet, err)
	}
}

func TestNotificationServiceCheckLate(t *testing.T) {
	e := newEnv(t, tuesdayMorning)
	ctx := context.Background()

	budi := e.student(t, "budi", "Budi", "12-IPA-1", "628123456789")
	sari := e.student(t, "sari", "Sari", "12-IPA-1", "628555555555")
	e.student(t, "andi", "Andi", "12-IPA-1", "")

	if _, _, err := e.att.Submit(ctx, attendance.Submission{Student: sari, Status: models.StatusPresent, Position: nearSchool(10)}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	alerts, err := e.notifs.CheckLate(ctx)
	if err != nil {
		t.Fatalf("check late: %v", err)
	}
	if len(alerts) != 1 || alerts[0].StudentID != budi.ID || alerts[0].Type != models.NotificationLate {
		t.Fatalf("alerts = %+v", alerts)
	}

	// The second trigger on the same day queues nothing new.
	*e.clock = tuesdayMorning.Add(2 * time.Hour)
	again, err := e.notifs.CheckLate(ctx)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second check queued %d alerts", len(again))
	}

	queue, _ := e.notifs.List()
	late := 0
	for _, n := range queue {
		if n.Type == models.NotificationLate {
			late++
		}
	}
	if late != 1 {
		t.Errorf("queue holds %d late alerts, want 1", late)
	}

	link, sent, err := e.notifs.Send(alerts[0].ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.HasPrefix(link, "https://wa.me/628123456789?text=") || sent.ID != alerts[0].ID {
		t.Errorf("send = %s, %+v", link, sent)
	}
	if _, _, err := e.notifs.Send(alerts[0].ID); !errors.Is(err, repository.ErrNotificationNotFound) {
		t.Errorf("sending twice: got %v", err)
	}
}

func TestNotificationServiceCheckLateGuards(t *testing.T) {
	early := time.Date(2025, time.February, 18, 7, 0, 0, 0, wib)
	e := newEnv(t, early)
	e.student(t, "budi", "Budi", "12-IPA-1", "628123456789")

	if _, err := e.notifs.CheckLate(context.Background()); !errors.Is(err, notify.ErrBeforeEntryTime) {
		t.Errorf("before entry: got %v", err)
	}

	*e.clock = time.Date(2025, time.February, 16, 9, 0, 0, 0, wib) // Sunday
	if _, err := e.notifs.CheckLate(context.Background()); !errors.Is(err, ErrNoSchoolToday) {
		t.Errorf("sunday: got %v", err)
	}

	*e.clock = tuesdayMorning
	if _, err := e.settings.AddHoliday("2025-02-18", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := e.notifs.CheckLate(context.Background()); !errors.Is(err, ErrNoSchoolToday) {
		t.Errorf("holiday: got %v", err)
	}
}

func TestNotificationServiceHandledLateAlertsAreNotRequeued(t *testing.T) {
	e := newEnv(t, tuesdayMorning)
	ctx := context.Background()

	budi := e.student(t, "budi", "Budi", "12-IPA-1", "628123456789")
	sari := e.student(t, "sari", "Sari", "12-IPA-2", "628555555555")

	alerts, err := e.notifs.CheckLate(ctx)
	if err != nil || len(alerts) != 2 {
		t.Fatalf("check late = %+v, %v", alerts, err)
	}

	for _, n := range alerts {
		switch n.StudentID {
		case budi.ID:
			if _, _, err := e.notifs.Send(n.ID); err != nil {
				t.Fatalf("send: %v", err)
			}
		case sari.ID:
			if err := e.notifs.Dismiss(n.ID); err != nil {
				t.Fatalf("dismiss: %v", err)
			}
		}
	}

	*e.clock = tuesdayMorning.Add(10 * time.Minute)
	again, err := e.notifs.CheckLate(ctx)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("handled alerts were queued again: %+v", again)
	}
	if queue, _ := e.notifs.List(); len(queue) != 0 {
		t.Errorf("queue = %+v", queue)
	}

	// A new school day starts a fresh check.
	*e.clock = tuesdayMorning.AddDate(0, 0, 1)
	next, err := e.notifs.CheckLate(ctx)
	if err != nil {
		t.Fatalf("next day check: %v", err)
	}
	if len(next) != 2 {
		t.Errorf("next day queued %d alerts, want 2", len(next))
	}
}

func TestNotificationServiceDismiss(t *testing.T) {
	e := newEnv(t, tuesdayMorning)
	budi := e.student(t, "budi", "Budi", "12-IPA-1", "628123456789")

	_, n, err := e.att.Submit(context.Background(), attendance.Submission{Student: budi, Status: models.StatusSick, Evidence: "x"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := e.notifs.Dismiss(n.ID); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	if queue, _ := e.notifs.List(); len(queue) != 0 {
		t.Errorf("queue not empty after dismiss: %+v", queue)
	}
	if !strings.Contains(e.notifs.FormatQueue(nil), "kosong") {
		t.Error("empty queue text")
	}
}
