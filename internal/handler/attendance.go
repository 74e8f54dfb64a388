package handler

import (
	"context"
	"fmt"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/calendar"
	"attendance-bot/internal/geo"
	"attendance-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const historyLimit = 10

func locationOf(l *tgbotapi.Location) geo.Coordinate {
	return geo.Coordinate{Latitude: l.Latitude, Longitude: l.Longitude}
}

func locationKeyboard(label string) tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(label)),
	)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	return keyboard
}

// alreadySubmitted tells the student when today's record already exists.
func (h *Handler) alreadySubmitted(chatID int64, student *models.User) bool {
	done, err := h.attendanceService.HasSubmittedToday(student.ID)
	if err != nil {
		h.sendError(chatID, "Gagal memeriksa presensi", err)
		return true
	}
	if done {
		h.send(chatID, submissionErrorText(attendance.ErrDuplicateSubmission))
		return true
	}
	return false
}

// startPresence asks for the student's location and submits a Present record
// in the background once it arrives or the wait runs out.
func (h *Handler) startPresence(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	student := h.currentStudent(chatID)
	if student == nil || h.alreadySubmitted(chatID, student) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.LocationWait)
	s := &session{
		kind:     awaitingPresence,
		status:   models.StatusPresent,
		student:  *student,
		location: make(chan locationResult, 1),
		cancel:   cancel,
	}
	h.sessions.start(chatID, s)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"📍 Kirim lokasi Anda saat ini dengan tombol di bawah dalam %s.\nBatalkan dengan /batal.",
		formatWait(h.config.LocationWait)))
	msg.ReplyMarkup = locationKeyboard("📍 Kirim Lokasi")
	h.client.Bot.Send(msg)

	go func() {
		defer cancel()
		defer h.sessions.finish(chatID, s)

		record, notification, err := h.attendanceService.Submit(ctx, attendance.Submission{
			Student:  s.student,
			Status:   models.StatusPresent,
			Position: s.provider(),
		})
		h.reportSubmission(chatID, record, notification, err)
	}()
}

func (h *Handler) reportSubmission(chatID int64, record *models.AttendanceRecord, notification *models.Notification, err error) {
	var text string
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"error":   err.Error(),
		}).Info("Submission failed")
		text = submissionErrorText(err)
	} else {
		text = h.attendanceService.FormatRecord(record)
		if notification != nil {
			text += "\n\n📨 Pesan untuk orang tua masuk antrean."
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, sendErr := h.client.Bot.Send(msg); sendErr != nil {
		msg.ParseMode = ""
		h.client.Bot.Send(msg)
	}
}

func (h *Handler) cancelSession(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	s, ok := h.sessions.get(chatID)
	if !ok {
		h.send(chatID, "ℹ️ Tidak ada langkah yang sedang berjalan.")
		return
	}

	h.sessions.cancel(chatID)
	// A pending presence reports the cancellation itself.
	if s.kind == awaitingPresence {
		return
	}

	msg := tgbotapi.NewMessage(chatID, "❌ Dibatalkan.")
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	h.client.Bot.Send(msg)
}

func (h *Handler) showHistory(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	student := h.currentStudent(chatID)
	if student == nil {
		return
	}

	records, err := h.attendanceService.History(student.ID, historyLimit)
	if err != nil {
		h.sendError(chatID, "Gagal membaca riwayat", err)
		return
	}

	h.send(chatID, h.attendanceService.FormatHistory(records))
}

// showStatistics shows this month's recap row and the all-time totals.
func (h *Handler) showStatistics(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	student := h.currentStudent(chatID)
	if student == nil {
		return
	}

	today := h.reportService.Today()
	period := calendar.Month(today.Year(), today.Month())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row, err := h.reportService.StudentRecap(ctx, *student, period)
	if err != nil {
		h.sendError(chatID, "Gagal menghitung statistik", err)
		return
	}

	totals, err := h.attendanceService.Summary(student.ID)
	if err != nil {
		h.sendError(chatID, "Gagal menghitung statistik", err)
		return
	}

	h.send(chatID, h.reportService.FormatStudentRecap(row, period)+"\n\n"+h.attendanceService.FormatSummary(totals))
}

func formatWait(d time.Duration) string {
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d menit", int(d/time.Minute))
	}
	return fmt.Sprintf("%d detik", int(d.Round(time.Second)/time.Second))
}
