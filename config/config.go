package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// HTTP server
	ListenAddr string

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Database configuration
	DatabaseURL string

	// Timezone used for report windows and the daily scheduler
	Timezone string

	// Twilio configuration
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// SMTP configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Report archive directory
	ReportsDir string

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		ListenAddr: os.Getenv("LISTEN_ADDR"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		Timezone: os.Getenv("TIMEZONE"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber: os.Getenv("TWILIO_FROM_NUMBER"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     587,
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),

		ReportsDir: os.Getenv("REPORTS_DIR"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if parsedPort, err := strconv.Atoi(port); err == nil {
			config.SMTPPort = parsedPort
		}
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if parsedDB, err := strconv.Atoi(db); err == nil {
			config.RedisDB = parsedDB
		}
	}

	// Defaults
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.RedisAddr == "" {
		config.RedisAddr = "localhost:6379"
	}
	if config.Timezone == "" {
		config.Timezone = "Asia/Colombo"
	}
	if config.ReportsDir == "" {
		config.ReportsDir = "reports"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
