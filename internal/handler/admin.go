package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance-bot/internal/repository"
	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackDeleteStudent = "hapus_siswa:"
	callbackCancelDelete  = "batal_hapus_siswa"

	reportTimeout = 30 * time.Second
)

func (h *Handler) showRecap(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	req, class := parseRecapArgs(args)
	period, err := req.Resolve(h.reportService.Today(), h.loc)
	if err != nil {
		h.send(chatID, "❌ "+err.Error()+"\nContoh: /rekap bulanan 2 2025 12-IPA-1")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	report, err := h.reportService.Recap(ctx, period, class)
	if err != nil {
		h.sendError(chatID, "Gagal menyusun rekap", err)
		return
	}

	h.send(chatID, h.reportService.FormatRecap(report))
}

// exportMonth sends the monthly grid as an Excel file.
func (h *Handler) exportMonth(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	req, class := parseRecapArgs(args)
	if req.Kind != "" && !strings.EqualFold(req.Kind, "bulanan") {
		h.send(chatID, "❌ Ekspor hanya tersedia per bulan. Contoh: /ekspor 2 2025 12-IPA-1")
		return
	}
	period, err := req.Resolve(h.reportService.Today(), h.loc)
	if err != nil {
		h.send(chatID, "❌ "+err.Error()+"\nContoh: /ekspor 2 2025 12-IPA-1")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	var buf bytes.Buffer
	name, err := h.reportService.ExportMonth(ctx, &buf, period.Year, period.Month, class)
	if err != nil {
		h.sendError(chatID, "Gagal membuat file Excel", err)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: buf.Bytes()})
	doc.Caption = fmt.Sprintf("📊 Rekap kehadiran %s", period.Label())
	if _, err := h.client.Bot.Send(doc); err != nil {
		h.sendError(chatID, "Gagal mengirim file", err)
	}
}

func (h *Handler) listStudents(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	students, err := h.userService.ListStudents(args, "", service.SortByClass)
	if err != nil {
		h.sendError(chatID, "Gagal membaca data siswa", err)
		return
	}

	h.sendPlain(chatID, h.userService.FormatStudentList(students))
}

func (h *Handler) listClasses(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	classes, err := h.userService.Classes()
	if err != nil {
		h.sendError(chatID, "Gagal membaca daftar kelas", err)
		return
	}
	if len(classes) == 0 {
		h.send(chatID, "📭 Belum ada kelas.")
		return
	}

	h.sendPlain(chatID, "🏫 Daftar kelas:\n• "+strings.Join(classes, "\n• "))
}

func (h *Handler) addStudent(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	in, err := parseNewStudent(args)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	student, err := h.userService.CreateStudent(in)
	if err != nil {
		h.sendError(chatID, "Gagal menambah siswa", err)
		return
	}

	h.sendPlain(chatID, fmt.Sprintf("✅ Siswa %s ditambahkan.\n🔑 Login: %s / %s\nID: %s",
		student.Name, student.Username, student.Password, student.ID))
}

func (h *Handler) updateStudent(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	id, in, err := parseStudentUpdate(args)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	student, err := h.userService.UpdateStudent(id, in)
	if err != nil {
		h.sendError(chatID, "Gagal mengubah siswa", err)
		return
	}

	h.sendPlain(chatID, "✅ Data siswa diperbarui.\n\n"+h.userService.FormatUserInfo(student))
}

// deleteStudent asks for confirmation before removing a student account.
func (h *Handler) deleteStudent(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	id := strings.TrimSpace(args)
	if id == "" {
		h.send(chatID, "❌ Format: /hapussiswa <id>\nLihat ID dengan /siswa.")
		return
	}

	student, err := h.userService.GetByID(id)
	if err != nil {
		h.sendError(chatID, "Gagal membaca data siswa", err)
		return
	}
	if student == nil || !student.IsStudent() {
		h.send(chatID, "❌ Siswa tidak ditemukan.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"⚠️ Hapus siswa %s (%s)?\nRiwayat presensinya tetap tersimpan.", student.Name, student.ClassOrDefault()))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Ya, hapus", callbackDeleteStudent+student.ID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Batal", callbackCancelDelete),
		),
	)
	h.client.Bot.Send(msg)
}

func (h *Handler) confirmDeleteStudent(chatID int64, id string) {
	if h.currentAdmin(chatID) == nil {
		return
	}

	student, err := h.userService.DeleteStudent(id)
	if errors.Is(err, repository.ErrUserNotFound) {
		h.send(chatID, "❌ Siswa tidak ditemukan.")
		return
	}
	if err != nil {
		h.sendError(chatID, "Gagal menghapus siswa", err)
		return
	}

	h.sendPlain(chatID, fmt.Sprintf("✅ Siswa %s dihapus.", student.Name))
}
