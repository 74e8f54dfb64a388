package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"attendance-bot/internal/models"
	"attendance-bot/internal/repository"
	"attendance-bot/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) showSettings(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	settings, err := h.settingsService.Snapshot(context.Background())
	if err != nil {
		h.sendError(chatID, "Gagal membaca pengaturan", err)
		return
	}

	h.send(chatID, h.settingsService.FormatSettings(settings))
}

func (h *Handler) settingsUpdated(chatID int64, settings *models.SchoolSettings, err error) {
	if err != nil {
		h.sendError(chatID, "Gagal menyimpan pengaturan", err)
		return
	}
	h.send(chatID, "✅ Pengaturan disimpan.\n\n"+h.settingsService.FormatSettings(*settings))
}

func (h *Handler) setSchoolName(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}
	if strings.TrimSpace(args) == "" {
		h.send(chatID, "❌ Format: /setnama <nama sekolah>")
		return
	}

	settings, err := h.settingsService.UpdateName(args)
	h.settingsUpdated(chatID, settings, err)
}

func (h *Handler) setEntryTime(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	settings, err := h.settingsService.UpdateEntryTime(args)
	h.settingsUpdated(chatID, settings, err)
}

func (h *Handler) setRadius(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	meters, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(args), "m"), 64)
	if err != nil {
		h.send(chatID, "❌ Format: /setradius <meter>, contoh /setradius 150")
		return
	}

	settings, err := h.settingsService.UpdateRadius(meters)
	h.settingsUpdated(chatID, settings, err)
}

// setTarget sets the school point from "lat lng", or from the next location
// the administrator shares when no coordinates are given.
func (h *Handler) setTarget(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	if strings.TrimSpace(args) != "" {
		c, err := parseCoordinates(args)
		if err != nil {
			h.send(chatID, "❌ "+err.Error())
			return
		}
		h.applyTarget(chatID, c.Latitude, c.Longitude)
		return
	}

	h.sessions.start(chatID, &session{kind: awaitingTarget})

	msg := tgbotapi.NewMessage(chatID, "📍 Kirim lokasi sekolah dengan tombol di bawah (berdiri di titik pusat sekolah).\nBatalkan dengan /batal.")
	msg.ReplyMarkup = locationKeyboard("📍 Gunakan Lokasi Saya")
	h.client.Bot.Send(msg)
}

func (h *Handler) applyTarget(chatID int64, lat, lng float64) {
	settings, err := h.settingsService.UpdateTarget(lat, lng)
	if err != nil {
		h.sendError(chatID, "Gagal menyimpan lokasi", err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, "✅ Lokasi sekolah disimpan.\n\n"+h.settingsService.FormatSettings(*settings))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	h.client.Bot.Send(msg)
}

func (h *Handler) listHolidays(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	days, err := h.settingsService.Holidays()
	if err != nil {
		h.sendError(chatID, "Gagal membaca hari libur", err)
		return
	}

	h.sendPlain(chatID, h.settingsService.FormatHolidays(days))
}

func (h *Handler) addHoliday(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	fields := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if fields[0] == "" {
		h.send(chatID, "❌ Format: /tambahlibur YYYY-MM-DD [keterangan]")
		return
	}
	description := ""
	if len(fields) == 2 {
		description = fields[1]
	}

	day, err := h.settingsService.AddHoliday(fields[0], description)
	if errors.Is(err, service.ErrHolidayExists) {
		h.send(chatID, "ℹ️ Tanggal tersebut sudah terdaftar sebagai hari libur.")
		return
	}
	if err != nil {
		h.sendError(chatID, "Gagal menambah hari libur", err)
		return
	}

	h.send(chatID, fmt.Sprintf("✅ Hari libur %s ditambahkan.", day.Date))
}

func (h *Handler) removeHoliday(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	date := strings.TrimSpace(args)
	if date == "" {
		h.send(chatID, "❌ Format: /hapuslibur YYYY-MM-DD")
		return
	}

	err := h.settingsService.RemoveHoliday(date)
	if errors.Is(err, repository.ErrHolidayNotFound) {
		h.send(chatID, "❌ Tanggal tersebut tidak terdaftar sebagai hari libur.")
		return
	}
	if err != nil {
		h.sendError(chatID, "Gagal menghapus hari libur", err)
		return
	}

	h.send(chatID, fmt.Sprintf("✅ Hari libur %s dihapus.", date))
}

func (h *Handler) importHolidays(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if h.currentAdmin(chatID) == nil {
		return
	}

	path := strings.TrimSpace(args)
	if path == "" {
		path = h.config.HolidaysFile
	}
	if path == "" {
		h.send(chatID, "❌ Format: /importlibur <file.json>")
		return
	}

	added, err := h.settingsService.ImportHolidays(path)
	if err != nil {
		h.sendError(chatID, "Gagal mengimpor hari libur", err)
		return
	}

	h.send(chatID, fmt.Sprintf("✅ %d hari libur baru diimpor.", added))
}
