package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Store selection: "sqlite", "postgres" or "sheets".
	StoreBackend string
	DBPath       string
	DatabaseURL  string

	SheetID            string
	ServiceAccountJSON string

	// Empty token disables signature validation (dev mode).
	TwilioAuthToken  string
	TwilioAccountSID string
	TwilioFrom       string

	LogPath   string
	Workers   int
	QueueSize int
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: Error loading .env file")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		StoreBackend:       getEnv("STORE_BACKEND", "sqlite"),
		DBPath:             getEnv("DB_PATH", "./whatsapp.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SheetID:            getEnv("SHEET_ID", ""),
		ServiceAccountJSON: getEnv("SERVICE_ACCOUNT_JSON", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioFrom:         getEnv("TWILIO_FROM", ""),
		LogPath:            getEnv("LOG_PATH", ""),
		Workers:            getEnvInt("WORKERS", 4),
		QueueSize:          getEnvInt("QUEUE_SIZE", 64),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: %s is not a number, using default %d", key, fallback)
	}
	return fallback
}
