package handler

import (
	"context"
	"errors"
	"strings"

	"attendance-bot/internal/notify"
	"attendance-bot/internal/repository"
	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) showQueue(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	queue, err := h.notificationService.List()
	if err != nil {
		h.sendError(chatID, "Gagal membaca antrean", err)
		return
	}

	text := h.notificationService.FormatQueue(queue)
	if len(queue) > 0 {
		text += "\n\nKirim dengan /kirim <id>, hapus dengan /hapuspesan <id>."
	}
	h.sendPlain(chatID, text)
}

// sendNotification hands the administrator a WhatsApp link for a queued
// message and removes it from the queue.
func (h *Handler) sendNotification(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}
	if strings.TrimSpace(args) == "" {
		h.send(chatID, "❌ Format: /kirim <id>\nLihat ID dengan /antrean.")
		return
	}

	link, n, err := h.notificationService.Send(args)
	if errors.Is(err, repository.ErrNotificationNotFound) {
		h.send(chatID, "❌ Pesan tidak ditemukan di antrean.")
		return
	}
	if err != nil {
		h.sendError(chatID, "Gagal menyiapkan pesan", err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, "📲 Pesan untuk orang tua "+n.StudentName+":\n\n"+n.Message)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("💬 Buka WhatsApp", link),
		),
	)
	if _, err := h.client.Bot.Send(msg); err != nil {
		// Telegram rejects some URL buttons; the plain link still works.
		h.sendPlain(chatID, "📲 "+link)
	}
}

func (h *Handler) dismissNotification(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}
	if strings.TrimSpace(args) == "" {
		h.send(chatID, "❌ Format: /hapuspesan <id>")
		return
	}

	err := h.notificationService.Dismiss(args)
	if errors.Is(err, repository.ErrNotificationNotFound) {
		h.send(chatID, "❌ Pesan tidak ditemukan di antrean.")
		return
	}
	if err != nil {
		h.sendError(chatID, "Gagal menghapus pesan", err)
		return
	}

	h.send(chatID, "🗑 Pesan dihapus dari antrean.")
}

func (h *Handler) checkLate(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	alerts, err := h.notificationService.CheckLate(ctx)
	switch {
	case errors.Is(err, notify.ErrBeforeEntryTime):
		h.send(chatID, "⏰ Jam masuk belum lewat, belum ada siswa yang terlambat.")
		return
	case errors.Is(err, service.ErrNoSchoolToday):
		h.send(chatID, "📅 Hari ini bukan hari sekolah.")
		return
	case err != nil:
		h.sendError(chatID, "Gagal mengecek keterlambatan", err)
		return
	}

	h.send(chatID, h.notificationService.FormatLateResult(alerts))
}
