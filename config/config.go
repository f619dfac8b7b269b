package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBName    string
	JWTKey    string
	SaltRound int

	SendgridApiKey string
	EmailSender    string

	// Live class meeting provider
	MeetingApiURL string
	MeetingApiKey string

	// Engine defaults (overridable per content row)
	DefaultTopicMinSeconds int
	DefaultWeekMinProgress int
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	// Initialize AppConfig with values from environment variables
	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		DBName:    getEnv("DB_NAME", "lms"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		SendgridApiKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@lms.local"),

		MeetingApiURL: getEnv("MEETING_API_URL", "https://api.meetings.example.com/v2/"),
		MeetingApiKey: getEnv("MEETING_API_KEY", ""),

		DefaultTopicMinSeconds: getEnvInt("DEFAULT_TOPIC_MIN_SECONDS", 120),
		DefaultWeekMinProgress: getEnvInt("DEFAULT_WEEK_MIN_PROGRESS", 90),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.SendgridApiKey == "" {
		log.Println("Warning: SENDGRID_API_KEY not set. Email notifications will be skipped.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
