package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// External clinic appointment API
	ClinicAPIBaseURL string
	ClinicAPITimeout time.Duration

	// Redis (returning-patient identity hints)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Returning-patient hint expiry windows. These mirror the cookie
	// lifetimes the web client used: 90 days for the remembered phone
	// number, 14 days for the patient id.
	PhoneHintTTL   time.Duration
	PatientHintTTL time.Duration

	// Booking rules
	BookingWindowDays int
	ClosedWeekday     time.Weekday

	// Wizard sessions
	SessionTTL time.Duration

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ClinicAPIBaseURL: getEnv("CLINIC_API_BASE_URL", "http://localhost:9000"),
		ClinicAPITimeout: getEnvAsDuration("CLINIC_API_TIMEOUT", 20*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		PhoneHintTTL:   getEnvAsDuration("PHONE_HINT_TTL", 90*24*time.Hour),
		PatientHintTTL: getEnvAsDuration("PATIENT_HINT_TTL", 14*24*time.Hour),

		BookingWindowDays: getEnvAsInt("BOOKING_WINDOW_DAYS", 30),
		ClosedWeekday:     getEnvAsWeekday("CLOSED_WEEKDAY", time.Friday),

		SessionTTL: getEnvAsDuration("SESSION_TTL", 30*time.Minute),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
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

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsWeekday(key string, defaultValue time.Weekday) time.Weekday {
	switch strings.ToLower(getEnv(key, "")) {
	case "sunday":
		return time.Sunday
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	}
	return defaultValue
}
