package handler

import (
	"errors"
	"strings"

	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) login(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	fields := strings.Fields(args)
	if len(fields) != 2 {
		h.send(chatID, "❌ Format: /login <username> <password>")
		return
	}

	// The command carries the password, so it does not stay in the chat.
	h.client.Bot.Request(tgbotapi.NewDeleteMessage(chatID, message.MessageID))

	user, err := h.userService.Login(chatID, fields[0], fields[1])
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.send(chatID, "❌ Username atau password salah.")
		return
	}
	if err != nil {
		h.sendError(chatID, "Gagal masuk", err)
		return
	}

	h.sessions.cancel(chatID)

	text := "✅ Berhasil masuk sebagai *" + user.Name + "*.\n\n"
	if user.IsAdmin() {
		text += adminHelp
	} else {
		text += studentHelp
	}
	h.send(chatID, text)
}

func (h *Handler) logout(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	h.sessions.cancel(chatID)
	if err := h.userService.Logout(chatID); err != nil {
		h.sendError(chatID, "Gagal keluar", err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, "👋 Anda sudah keluar.")
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	h.client.Bot.Send(msg)
}

func (h *Handler) showProfile(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user := h.currentUser(chatID)
	if user == nil {
		return
	}

	h.send(chatID, h.userService.FormatUserInfo(user))
}
