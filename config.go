package main

import (
	"os"
	"strconv"
	"strings"

	"vitrine/pkg/receipt"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment. Receipt
// format knobs live in the embedded receipt.Profile so the validation
// algorithm itself stays free of magic numbers.
type Config struct {
	Addr        string
	DBDSN       string
	JWTSecret   string
	AutoMigrate bool

	UploadBase string
	InboxDir   string

	Receipt receipt.Profile

	// Caller-side decision policy: score bands and the retry budget.
	AutoAcceptScore int
	ReviewScore     int
	MaxAttempts     int
}

func loadConfig() Config {
	_ = godotenv.Load()

	profile := receipt.DefaultProfile()
	profile.Language = getEnv("RECEIPT_LANGUAGE", profile.Language)
	profile.MinAmount = getEnvFloat("RECEIPT_MIN_AMOUNT", profile.MinAmount)
	profile.MaxAmount = getEnvFloat("RECEIPT_MAX_AMOUNT", profile.MaxAmount)
	profile.Tolerance = getEnvFloat("RECEIPT_AMOUNT_TOLERANCE", profile.Tolerance)
	profile.WindowDays = getEnvInt("RECEIPT_DATE_WINDOW_DAYS", profile.WindowDays)
	profile.MaxDimension = getEnvInt("RECEIPT_MAX_DIMENSION", profile.MaxDimension)

	return Config{
		Addr:        getEnv("ADDR", ":8081"),
		DBDSN:       getEnv("DB_DSN", ""),
		JWTSecret:   getEnv("JWT_SECRET", "dev-insecure-secret-change"),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),

		UploadBase: getEnv("UPLOAD_BASE", "uploads"),
		InboxDir:   getEnv("RECEIPT_INBOX", ""),

		Receipt: profile,

		AutoAcceptScore: getEnvInt("SCORE_AUTO_ACCEPT", 80),
		ReviewScore:     getEnvInt("SCORE_REVIEW", 50),
		MaxAttempts:     getEnvInt("RECEIPT_MAX_ATTEMPTS", 3),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	switch value {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}
