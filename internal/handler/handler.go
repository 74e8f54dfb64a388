package handler

import (
	"strings"
	"time"

	"attendance-bot/internal/config"
	"attendance-bot/internal/models"
	"attendance-bot/internal/service"
	"attendance-bot/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	client              *telegram.Client
	userService         *service.UserService
	attendanceService   *service.AttendanceService
	reportService       *service.ReportService
	settingsService     *service.SettingsService
	notificationService *service.NotificationService
	sessions            *sessionStore
	config              *config.BotConfig
	loc                 *time.Location
	logger              *logrus.Logger
}

func NewHandler(
	client *telegram.Client,
	userService *service.UserService,
	attendanceService *service.AttendanceService,
	reportService *service.ReportService,
	settingsService *service.SettingsService,
	notificationService *service.NotificationService,
	cfg *config.BotConfig,
) *Handler {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(cfg.LogLevel)

	return &Handler{
		client:              client,
		userService:         userService,
		attendanceService:   attendanceService,
		reportService:       reportService,
		settingsService:     settingsService,
		notificationService: notificationService,
		sessions:            newSessionStore(),
		config:              cfg,
		loc:                 cfg.Location,
		logger:              logger,
	}
}

func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.CallbackQuery != nil {
			h.handleCallbackQuery(update.CallbackQuery)
			continue
		}

		if update.Message == nil {
			continue
		}

		h.handleMessage(update.Message)
	}
}

func (h *Handler) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	data := callback.Data

	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.client.Bot.Send(editMsg)

	switch {
	case strings.HasPrefix(data, callbackDeleteStudent):
		h.confirmDeleteStudent(chatID, strings.TrimPrefix(data, callbackDeleteStudent))
	case data == callbackCancelDelete:
		h.send(chatID, "❌ Penghapusan siswa dibatalkan.")
	}

	h.client.Bot.Request(tgbotapi.NewCallback(callback.ID, ""))
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	from := ""
	if message.From != nil {
		from = message.From.UserName
	}
	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"from":    from,
	}).Debug(message.Text)

	if message.IsCommand() {
		h.handleCommand(message)
		return
	}

	if s, ok := h.sessions.get(message.Chat.ID); ok {
		h.handleSession(message, s)
		return
	}

	h.send(message.Chat.ID, "🤖 Gunakan /help untuk melihat daftar perintah.")
}

// handleSession feeds a non-command message into the chat's pending step.
func (h *Handler) handleSession(message *tgbotapi.Message, s *session) {
	chatID := message.Chat.ID

	switch s.kind {
	case awaitingPresence:
		if message.Location == nil {
			h.send(chatID, "📍 Tekan tombol \"Kirim Lokasi\" untuk mengirim lokasi Anda, atau /batal.")
			return
		}
		var err error
		if message.ForwardDate != 0 {
			err = ErrForwardedLocation
		}
		s.deliver(locationOf(message.Location), err)

	case awaitingEvidence:
		h.receiveEvidence(message, s)

	case awaitingTarget:
		if message.Location == nil {
			h.send(chatID, "📍 Kirim lokasi sekolah dengan tombol di bawah, atau /batal.")
			return
		}
		h.sessions.finish(chatID, s)
		c := locationOf(message.Location)
		h.applyTarget(chatID, c.Latitude, c.Longitude)
	}
}

func (h *Handler) send(chatID int64, text string) {
	if err := h.client.SendText(chatID, text); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

func (h *Handler) sendPlain(chatID int64, text string) {
	if _, err := h.client.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

func (h *Handler) sendError(chatID int64, prefix string, err error) {
	h.logger.WithError(err).WithField("chat_id", chatID).Warn(prefix)
	h.sendPlain(chatID, "❌ "+prefix+": "+err.Error())
}

// currentUser returns the logged-in account of the chat, telling the chat to
// log in when there is none.
func (h *Handler) currentUser(chatID int64) *models.User {
	user, err := h.userService.CurrentUser(chatID)
	if err != nil {
		h.sendError(chatID, "Gagal membaca akun", err)
		return nil
	}
	if user == nil {
		h.send(chatID, "🔐 Anda belum masuk. Gunakan /login <username> <password>.")
		return nil
	}
	return user
}

func (h *Handler) currentStudent(chatID int64) *models.User {
	user := h.currentUser(chatID)
	if user == nil {
		return nil
	}
	if !user.IsStudent() {
		h.send(chatID, "❌ Perintah ini hanya untuk siswa.")
		return nil
	}
	return user
}

func (h *Handler) currentAdmin(chatID int64) *models.User {
	user := h.currentUser(chatID)
	if user == nil {
		return nil
	}
	if !user.IsAdmin() {
		h.send(chatID, "❌ Akses ditolak. Perintah ini hanya untuk administrator.")
		return nil
	}
	return user
}

// AnnounceLate tells every logged-in administrator about new late alerts.
func (h *Handler) AnnounceLate(alerts []models.Notification) {
	if len(alerts) == 0 {
		return
	}

	admins, err := h.userService.Admins()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load administrators")
		return
	}

	text := h.notificationService.FormatLateResult(alerts) + "\n\nGunakan /antrean untuk mengirim pesan."
	for _, admin := range admins {
		if admin.ChatID != nil {
			h.send(*admin.ChatID, text)
		}
	}
}
