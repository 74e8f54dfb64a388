package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/calendar"
	"attendance-bot/internal/geo"
	"attendance-bot/internal/service"
)

// splitFields splits a "a;b;c" argument list and trims every part.
func splitFields(args string) []string {
	parts := strings.Split(args, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseNewStudent reads "username;nama;kelas;kontak" (contact optional).
func parseNewStudent(args string) (service.NewStudent, error) {
	parts := splitFields(args)
	if len(parts) < 3 || len(parts) > 4 {
		return service.NewStudent{}, errors.New("format: username;nama;kelas;kontak")
	}

	in := service.NewStudent{Username: parts[0], Name: parts[1], Class: parts[2]}
	if len(parts) == 4 {
		in.ParentContact = parts[3]
	}
	return in, nil
}

// parseStudentUpdate reads "id;nama;kelas;kontak" (contact optional).
func parseStudentUpdate(args string) (string, service.StudentUpdate, error) {
	parts := splitFields(args)
	if len(parts) < 3 || len(parts) > 4 || parts[0] == "" {
		return "", service.StudentUpdate{}, errors.New("format: id;nama;kelas;kontak")
	}

	in := service.StudentUpdate{Name: parts[1], Class: parts[2]}
	if len(parts) == 4 {
		in.ParentContact = parts[3]
	}
	return parts[0], in, nil
}

func isYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// parseRecapArgs reads "[jenis] [tanggal|bulan|semester] [tahun] [kelas]".
// Tokens are classified by shape, so the optional parts may be left out; the
// words that fit nothing else form the class name.
func parseRecapArgs(args string) (calendar.PeriodRequest, string) {
	var req calendar.PeriodRequest
	var class []string

	tokens := strings.Fields(args)
	if len(tokens) > 0 {
		switch strings.ToLower(tokens[0]) {
		case "harian", "bulanan", "semester":
			req.Kind = tokens[0]
			tokens = tokens[1:]
		}
	}

	kind := strings.ToLower(req.Kind)
	for _, tok := range tokens {
		switch {
		case kind == "harian" && req.Date == "" && looksLikeDate(tok):
			req.Date = tok
		case kind != "harian" && req.Year == "" && isYear(tok):
			req.Year = tok
		case kind == "semester" && req.Semester == "" && isSemester(tok):
			req.Semester = tok
		case (kind == "" || kind == "bulanan") && req.Month == "" && isMonth(tok):
			req.Month = tok
		default:
			class = append(class, tok)
		}
	}

	return req, strings.Join(class, " ")
}

func looksLikeDate(s string) bool {
	return len(s) == len(calendar.DateLayout) && strings.Count(s, "-") == 2
}

func isSemester(s string) bool {
	_, err := calendar.ParseSemester(s)
	return err == nil
}

func isMonth(s string) bool {
	_, err := calendar.ParseMonth(s)
	return err == nil
}

// parseCoordinates reads "lat lng" or "lat,lng".
func parseCoordinates(args string) (geo.Coordinate, error) {
	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	if len(fields) != 2 {
		return geo.Coordinate{}, errors.New("format: /setlokasi <lat> <lng>")
	}

	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("latitude tidak valid: %q", fields[0])
	}
	lng, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("longitude tidak valid: %q", fields[1])
	}

	return geo.Coordinate{Latitude: lat, Longitude: lng}, nil
}

// submissionErrorText turns a failed submission into the message the student sees.
func submissionErrorText(err error) string {
	var oor *attendance.OutOfRangeError
	var pu *attendance.PositionUnavailableError

	switch {
	case errors.As(err, &oor):
		return fmt.Sprintf("❌ Presensi gagal! Anda berada %.0fm dari sekolah. Maksimal radius adalah %.0fm.",
			oor.Distance, oor.Radius)
	case errors.Is(err, attendance.ErrDuplicateSubmission):
		return "ℹ️ Sudah absen hari ini."
	case errors.Is(err, attendance.ErrMissingEvidence):
		return "📎 Bukti foto/dokumen wajib diunggah untuk status Sakit atau Izin."
	case errors.Is(err, ErrSessionCancelled):
		return "❌ Presensi dibatalkan."
	case errors.Is(err, ErrForwardedLocation):
		return "❌ Lokasi terusan tidak diterima. Kirim lokasi Anda saat ini dengan tombol 📍, lalu ulangi /hadir."
	case errors.As(err, &pu):
		return "📍 Lokasi tidak diterima tepat waktu. Aktifkan GPS, lalu ulangi /hadir dan tekan tombol \"Kirim Lokasi\"."
	}

	return "❌ Gagal menyimpan presensi: " + err.Error()
}
