package handler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/calendar"
	"attendance-bot/internal/geo"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestParseRecapArgs(t *testing.T) {
	tests := []struct {
		args      string
		wantReq   calendar.PeriodRequest
		wantClass string
	}{
		{"", calendar.PeriodRequest{}, ""},
		{"harian", calendar.PeriodRequest{Kind: "harian"}, ""},
		{"harian 2025-02-17 12-IPA-1", calendar.PeriodRequest{Kind: "harian", Date: "2025-02-17"}, "12-IPA-1"},
		{"bulanan 2 2025 12-IPA-1", calendar.PeriodRequest{Kind: "bulanan", Month: "2", Year: "2025"}, "12-IPA-1"},
		{"bulanan 2025", calendar.PeriodRequest{Kind: "bulanan", Year: "2025"}, ""},
		{"semester genap 2025 Semua", calendar.PeriodRequest{Kind: "semester", Semester: "genap", Year: "2025"}, "Semua"},
		{"februari 12-IPA-1", calendar.PeriodRequest{Month: "februari"}, "12-IPA-1"},
		{"harian 12 IPA", calendar.PeriodRequest{Kind: "harian"}, "12 IPA"},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			req, class := parseRecapArgs(tt.args)
			if req != tt.wantReq {
				t.Errorf("request = %+v, want %+v", req, tt.wantReq)
			}
			if class != tt.wantClass {
				t.Errorf("class = %q, want %q", class, tt.wantClass)
			}
		})
	}
}

func TestParseStudentArgs(t *testing.T) {
	in, err := parseNewStudent(" andi ; Andi Wijaya ; 12-IPA-2 ; 0812 ")
	if err != nil {
		t.Fatalf("parseNewStudent: %v", err)
	}
	if in.Username != "andi" || in.Name != "Andi Wijaya" || in.Class != "12-IPA-2" || in.ParentContact != "0812" {
		t.Errorf("unexpected input: %+v", in)
	}

	if in, err := parseNewStudent("andi;Andi;12-IPA-2"); err != nil || in.ParentContact != "" {
		t.Errorf("contact should be optional: %+v %v", in, err)
	}
	if _, err := parseNewStudent("andi;Andi"); err == nil {
		t.Error("two fields must be rejected")
	}

	id, upd, err := parseStudentUpdate("s-1;Budi;12-IPA-1;628123")
	if err != nil || id != "s-1" || upd.Name != "Budi" || upd.ParentContact != "628123" {
		t.Errorf("parseStudentUpdate = %q %+v %v", id, upd, err)
	}
	if _, _, err := parseStudentUpdate(";Budi;12-IPA-1"); err == nil {
		t.Error("empty id must be rejected")
	}
}

func TestParseCoordinates(t *testing.T) {
	for _, in := range []string{"-6.2 106.816666", "-6.2,106.816666", " -6.2 ,  106.816666 "} {
		c, err := parseCoordinates(in)
		if err != nil {
			t.Fatalf("parseCoordinates(%q): %v", in, err)
		}
		if c.Latitude != -6.2 || c.Longitude != 106.816666 {
			t.Errorf("parseCoordinates(%q) = %+v", in, c)
		}
	}

	for _, in := range []string{"", "-6.2", "a b", "1 2 3"} {
		if _, err := parseCoordinates(in); err == nil {
			t.Errorf("parseCoordinates(%q) should fail", in)
		}
	}
}

func TestSubmissionErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"out of range",
			&attendance.OutOfRangeError{Distance: 149.6, Radius: 100},
			"❌ Presensi gagal! Anda berada 150m dari sekolah. Maksimal radius adalah 100m.",
		},
		{"duplicate", attendance.ErrDuplicateSubmission, "ℹ️ Sudah absen hari ini."},
		{"missing evidence", attendance.ErrMissingEvidence, "📎 Bukti foto/dokumen wajib diunggah untuk status Sakit atau Izin."},
		{"cancelled", &attendance.PositionUnavailableError{Err: ErrSessionCancelled}, "❌ Presensi dibatalkan."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := submissionErrorText(tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	timeout := submissionErrorText(&attendance.PositionUnavailableError{Err: context.DeadlineExceeded})
	if !strings.Contains(timeout, "GPS") {
		t.Errorf("timeout text should explain how to share a location: %q", timeout)
	}
	forwarded := submissionErrorText(&attendance.PositionUnavailableError{Err: ErrForwardedLocation})
	if !strings.Contains(forwarded, "terusan") {
		t.Errorf("forwarded text = %q", forwarded)
	}
}

func TestSessionProviderReceivesLocation(t *testing.T) {
	s := &session{kind: awaitingPresence, location: make(chan locationResult, 1)}
	want := geo.Coordinate{Latitude: -6.2, Longitude: 106.8}

	if !s.deliver(want, nil) {
		t.Fatal("first location should be accepted")
	}
	if s.deliver(geo.Coordinate{}, nil) {
		t.Error("second location must not be queued")
	}

	got, err := s.provider().CurrentPosition(context.Background())
	if err != nil || got != want {
		t.Errorf("CurrentPosition = %+v, %v", got, err)
	}
}

func TestSessionProviderForwardedLocation(t *testing.T) {
	s := &session{kind: awaitingPresence, location: make(chan locationResult, 1)}
	s.deliver(geo.Coordinate{Latitude: 1}, ErrForwardedLocation)

	if _, err := s.provider().CurrentPosition(context.Background()); !errors.Is(err, ErrForwardedLocation) {
		t.Errorf("expected ErrForwardedLocation, got %v", err)
	}
}

func TestSessionProviderCancelAndTimeout(t *testing.T) {
	s := &session{kind: awaitingPresence, location: make(chan locationResult, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.provider().CurrentPosition(ctx); !errors.Is(err, ErrSessionCancelled) {
		t.Errorf("cancelled wait: got %v", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	if _, err := s.provider().CurrentPosition(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("timed out wait: got %v", err)
	}
}

func TestSessionStore(t *testing.T) {
	store := newSessionStore()

	cancelled := false
	first := &session{kind: awaitingPresence, cancel: func() { cancelled = true }}
	store.start(1, first)

	second := &session{kind: awaitingEvidence}
	store.start(1, second)
	if !cancelled {
		t.Error("replaced session should be cancelled")
	}

	store.finish(1, first)
	if s, ok := store.get(1); !ok || s != second {
		t.Error("finishing a stale session must keep the current one")
	}

	if !store.cancel(1) {
		t.Error("cancel should report the pending session")
	}
	if _, ok := store.get(1); ok {
		t.Error("session should be gone after cancel")
	}
	if store.cancel(1) {
		t.Error("nothing left to cancel")
	}
}

func TestEvidenceRef(t *testing.T) {
	photo := &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}}
	if got := evidenceRef(photo); got != "large" {
		t.Errorf("photo evidence = %q, want the largest size", got)
	}

	doc := &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc-1"}}
	if got := evidenceRef(doc); got != "doc-1" {
		t.Errorf("document evidence = %q", got)
	}

	if got := evidenceRef(&tgbotapi.Message{Text: "surat dokter"}); got != "" {
		t.Errorf("text is not evidence, got %q", got)
	}
}

func TestFormatWait(t *testing.T) {
	if got := formatWait(2 * time.Minute); got != "2 menit" {
		t.Errorf("formatWait(2m) = %q", got)
	}
	if got := formatWait(90 * time.Second); got != "90 detik" {
		t.Errorf("formatWait(90s) = %q", got)
	}
}
