package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Original Baugh Electric scripts; every one can be overridden from the environment.
const (
	DefaultBusinessName = "Baugh Electric"
	DefaultHoursText    = "We are open Monday through Friday from 8 AM to 6 PM, and Saturdays from 9 AM to 2 PM."
	DefaultServicesText = "We provide residential electrical work, HVAC installation and repair, and smart home technology services."
	DefaultAreaText     = "Baugh Electric proudly serves the greater Harrisburg, Pennsylvania area, including Mechanicsburg, Carlisle, and York."
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Telnyx call control
	TelnyxWebhookSecret     string
	TelnyxWebhookMaxSkew    time.Duration
	TelnyxVoice             string
	TelnyxLanguage          string
	TelnyxSpeechTimeout     int
	TelnyxInterDigitTimeout int

	// Business parameters
	BusinessName       string
	TransferToNumber   string
	TransferFromNumber string
	BusinessHoursText  string
	ServicesText       string
	ServiceAreaText    string

	// Google Calendar
	GoogleCalendarID        string
	GoogleCredentialsJSON   string
	GoogleCredentialsFile   string
	CalendarTimezone        string
	CalendarTimeout         time.Duration
	AppointmentSummary      string
	BookingEnforceOpenHours bool

	// Redis slot lock
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SlotLockTTL   time.Duration

	// Postgres webhook dedupe
	DatabaseURL string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		TelnyxWebhookSecret:     getEnv("TELNYX_WEBHOOK_SECRET", ""),
		TelnyxWebhookMaxSkew:    getEnvAsDuration("TELNYX_WEBHOOK_MAX_SKEW", 5*time.Minute),
		TelnyxVoice:             getEnv("TELNYX_VOICE", "female"),
		TelnyxLanguage:          getEnv("TELNYX_LANGUAGE", "en-US"),
		TelnyxSpeechTimeout:     getEnvAsInt("TELNYX_SPEECH_TIMEOUT", 5),
		TelnyxInterDigitTimeout: getEnvAsInt("TELNYX_INTER_DIGIT_TIMEOUT", 2),

		BusinessName:       getEnv("BUSINESS_NAME", DefaultBusinessName),
		TransferToNumber:   getEnv("TRANSFER_TO_NUMBER", "+17177362829"),
		TransferFromNumber: getEnv("TRANSFER_FROM_NUMBER", "+17172978787"),
		BusinessHoursText:  getEnv("BUSINESS_HOURS_TEXT", DefaultHoursText),
		ServicesText:       getEnv("SERVICES_TEXT", DefaultServicesText),
		ServiceAreaText:    getEnv("SERVICE_AREA_TEXT", DefaultAreaText),

		GoogleCalendarID:        strings.TrimSpace(getEnv("GOOGLE_CALENDAR_ID", "")),
		GoogleCredentialsJSON:   getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleCredentialsFile:   getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		CalendarTimezone:        getEnv("CALENDAR_TIMEZONE", "America/New_York"),
		CalendarTimeout:         getEnvAsDuration("CALENDAR_TIMEOUT", 5*time.Second),
		AppointmentSummary:      getEnv("APPOINTMENT_SUMMARY", "Service Appointment"),
		BookingEnforceOpenHours: getEnvAsBool("BOOKING_ENFORCE_OPEN_HOURS", true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SlotLockTTL:   getEnvAsDuration("SLOT_LOCK_TTL", 30*time.Second),

		DatabaseURL: getEnv("DATABASE_URL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
