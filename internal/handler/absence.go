package handler

import (
	"context"
	"fmt"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// startAbsence waits for the photo or document proving a Sick/Excused status.
func (h *Handler) startAbsence(message *tgbotapi.Message, status models.AttendanceStatus) {
	chatID := message.Chat.ID

	student := h.currentStudent(chatID)
	if student == nil || h.alreadySubmitted(chatID, student) {
		return
	}

	h.sessions.start(chatID, &session{
		kind:    awaitingEvidence,
		status:  status,
		student: *student,
	})

	h.send(chatID, fmt.Sprintf(
		"📎 Kirim foto atau dokumen bukti untuk status *%s* (surat dokter, surat izin orang tua).\nBatalkan dengan /batal.",
		status))
}

// evidenceRef returns the file id of the photo or document in message.
func evidenceRef(message *tgbotapi.Message) string {
	if len(message.Photo) > 0 {
		// Telegram lists sizes from smallest to largest.
		return message.Photo[len(message.Photo)-1].FileID
	}
	if message.Document != nil {
		return message.Document.FileID
	}
	return ""
}

func (h *Handler) receiveEvidence(message *tgbotapi.Message, s *session) {
	chatID := message.Chat.ID

	ref := evidenceRef(message)
	if ref == "" {
		h.send(chatID, submissionErrorText(attendance.ErrMissingEvidence)+"\nBatalkan dengan /batal.")
		return
	}

	h.sessions.finish(chatID, s)

	record, notification, err := h.attendanceService.Submit(context.Background(), attendance.Submission{
		Student:  s.student,
		Status:   s.status,
		Evidence: ref,
	})
	h.reportSubmission(chatID, record, notification, err)
}
