package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type BotConfig struct {
	TelegramToken   string
	TelegramDebug   bool
	BaseAdminChatID int64
	DatabaseURL     string

	Timezone     string
	Location     *time.Location
	LocationWait time.Duration

	LateCheckCron string
	HolidaysFile  string
	SeedDemoUsers bool

	HTTPAddress   string
	AdminAPIToken string

	LogLevel logrus.Level
}

var instance *BotConfig
var once sync.Once

func GetBotConfig() *BotConfig {
	once.Do(func() {
		instance = &BotConfig{}

		if err := godotenv.Load(); err != nil {
			logrus.Warnf("no .env file loaded: %s", err.Error())
		}

		instance.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
		if instance.TelegramToken == "" {
			logrus.Fatal("could not get bot token")
		}
		instance.TelegramDebug = getEnvAsBool("TELEGRAM_DEBUG", false)

		instance.BaseAdminChatID = getEnvAsInt("BASE_ADMIN_CHAT_ID", 0)
		instance.DatabaseURL = getEnv("DATABASE_URL", "attendance.db")

		instance.Timezone = getEnv("SCHOOL_TIMEZONE", "Asia/Jakarta")
		loc, err := time.LoadLocation(instance.Timezone)
		if err != nil {
			logrus.Fatalf("unknown SCHOOL_TIMEZONE %q: %s", instance.Timezone, err.Error())
		}
		instance.Location = loc

		instance.LocationWait = getEnvAsDuration("LOCATION_WAIT", 2*time.Minute)
		instance.LateCheckCron = getEnv("LATE_CHECK_CRON", "*/10 * * * 1-6")
		instance.HolidaysFile = getEnv("HOLIDAYS_FILE", "")
		instance.SeedDemoUsers = getEnvAsBool("SEED_DEMO_USERS", true)

		instance.HTTPAddress = getEnv("HTTP_ADDRESS", "")
		instance.AdminAPIToken = getEnv("ADMIN_API_TOKEN", "")
		if instance.HTTPAddress != "" && instance.AdminAPIToken == "" {
			logrus.Fatal("ADMIN_API_TOKEN is required when HTTP_ADDRESS is set")
		}

		level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
		if err != nil {
			logrus.Warnf("invalid LOG_LEVEL, using info: %s", err.Error())
			level = logrus.InfoLevel
		}
		instance.LogLevel = level
	})

	return instance
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if val, err := time.ParseDuration(valStr); err == nil && val > 0 {
		return val
	}

	return defaultVal
}
