package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/config"
	"attendance-bot/internal/handler"
	"attendance-bot/internal/http-server/router"
	"attendance-bot/internal/repository"
	"attendance-bot/internal/scheduler"
	"attendance-bot/internal/service"
	"attendance-bot/pkg/telegram"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetBotConfig()
	logrus.SetLevel(cfg.LogLevel)
	logrus.Info("Config initialized...")

	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		logrus.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatal("Failed to get database instance:", err)
	}

	// A record and its parent notification are written in one transaction;
	// sqlite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	userRepo, err := repository.NewGormUserRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create user repository")
	}

	attendanceRepo, err := repository.NewGormAttendanceRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create attendance repository")
	}

	settingsRepo, err := repository.NewGormSettingsRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create settings repository")
	}

	holidayRepo, err := repository.NewGormHolidayRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create holiday repository")
	}

	notificationRepo, err := repository.NewGormNotificationRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create notification repository")
	}

	loc := cfg.Location

	userService := service.NewUserService(userRepo)
	settingsService := service.NewSettingsService(settingsRepo, holidayRepo, loc)
	recorder := attendance.NewRecorder(settingsService, loc)
	attendanceService := service.NewAttendanceService(recorder, attendanceRepo, loc, nil)
	reportService := service.NewReportService(userRepo, attendanceRepo, settingsService, loc, nil)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, attendanceRepo, settingsService, loc, nil)

	if err := userService.SeedDefaults(cfg.SeedDemoUsers); err != nil {
		logrus.WithError(err).Fatal("Failed to seed default accounts")
	}

	if err := userService.InitializeAdmin(cfg.BaseAdminChatID); err != nil {
		logrus.Warnf("Failed to initialize admin: %v", err)
	} else if cfg.BaseAdminChatID != 0 {
		logrus.Infof("Admin initialized with chat ID: %d", cfg.BaseAdminChatID)
	}

	if cfg.HolidaysFile != "" {
		added, err := settingsService.ImportHolidays(cfg.HolidaysFile)
		if err != nil {
			logrus.WithError(err).Warn("Failed to import holidays")
		} else {
			logrus.Infof("Imported %d holidays from %s", added, cfg.HolidaysFile)
		}
	}

	client, err := telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug)
	if err != nil {
		logrus.Fatal("Failed to create Telegram client:", err)
	}

	logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)

	botHandler := handler.NewHandler(
		client,
		userService,
		attendanceService,
		reportService,
		settingsService,
		notificationService,
		cfg,
	)

	lateCheck, err := scheduler.New(cfg.LateCheckCron, loc, notificationService, botHandler.AnnounceLate)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to schedule late check")
	}
	lateCheck.Start()

	var server *http.Server
	serverErr := make(chan error, 1)
	if cfg.HTTPAddress != "" {
		httpLog := logrus.New()
		httpLog.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
		httpLog.SetLevel(cfg.LogLevel)

		server = &http.Server{
			Addr:         cfg.HTTPAddress,
			Handler:      router.New(httpLog, reportService, loc, cfg.AdminAPIToken),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: time.Minute,
			IdleTimeout:  time.Minute,
		}

		go func() {
			logrus.Infof("Starting HTTP server on %s", cfg.HTTPAddress)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	updates := client.Bot.GetUpdatesChan(client.UpdateConfig)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go botHandler.HandleUpdates(updates)

	logrus.Info("Bot started. Press Ctrl+C to stop.")

	select {
	case sig := <-stop:
		logrus.Infof("Received %s, shutting down", sig)
	case err := <-serverErr:
		logrus.WithError(err).Error("HTTP server stopped unexpectedly")
	}

	client.Bot.StopReceivingUpdates()
	lateCheck.Stop()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logrus.WithError(err).Error("HTTP server shutdown failed")
		}
	}

	if err := sqlDB.Close(); err != nil {
		logrus.Infof("Error closing database: %v", err)
	}

	logrus.Info("Bot stopped gracefully")
}
