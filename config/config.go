package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	StoreDriver string // postgres, sqlite, memory
	JWTSecret   string
	CORSOrigins []string

	Transport            string // twilio, gowa, dryrun
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	TwilioPhoneNumber    string
	WhatsAppURL          string
	WhatsAppKey          string
	WhatsAppDeviceID     string
	TransportTimeout     time.Duration
	TransportRate        float64

	ReminderCountryCode string
	Location            *time.Location

	RedisURL         string
	AsynqQueue       string
	AsynqConcurrency int

	TimeoutScanSpec  string
	ReminderScanSpec string
	ScanConcurrency  int
}

// Load reads configuration from the environment, after loading .env if one
// is present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DB_URL", ""),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		Transport:            strings.ToLower(getEnv("TRANSPORT", "dryrun")),
		TwilioAccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWhatsAppNumber: getEnv("TWILIO_WHATSAPP_NUMBER", ""),
		TwilioPhoneNumber:    getEnv("TWILIO_PHONE_NUMBER", ""),
		WhatsAppURL:          getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:          getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID:     getEnv("WHATSAPP_DEVICE_ID", ""),
		TransportTimeout:     time.Duration(getEnvInt("TRANSPORT_TIMEOUT_SECONDS", 10)) * time.Second,
		TransportRate:        getEnvFloat("TRANSPORT_RATE_PER_SECOND", 5),

		ReminderCountryCode: getEnv("REMINDER_COUNTRY_CODE", "55"),
		Location:            loc,

		RedisURL:         getEnv("REDIS_URL", ""),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: getEnvInt("ASYNQ_CONCURRENCY", 10),

		TimeoutScanSpec:  getEnv("TIMEOUT_SCAN_CRON", "@every 1m"),
		ReminderScanSpec: getEnv("REMINDER_SCAN_CRON", "@every 1m"),
		ScanConcurrency:  getEnvInt("SCAN_CONCURRENCY", 4),
	}

	switch cfg.StoreDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_DRIVER=postgres")
		}
	case "sqlite":
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "leadflow.db"
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if env := os.Getenv(key); env != "" {
		if n, err := strconv.Atoi(env); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if env := os.Getenv(key); env != "" {
		if f, err := strconv.ParseFloat(env, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
