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
	// HTTP
	Port        string
	FrontendURL string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// OpenAI
	OpenAIAPIKey string
	ModelName    string

	// Google Cloud (push notifications, optional)
	GoogleCloudProject string
	SubscriptionID     string
	TopicName          string

	// Database
	DatabasePath  string
	EncryptionKey string

	// App settings
	NumWorkers          int
	SyncMaxResults      int64
	UnsubscribeInterval time.Duration
	CategoriesFile      string
	Headless            bool
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		FrontendURL:         strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:   getEnv("GOOGLE_CALLBACK_URL", "http://localhost:8080/api/auth/google/callback"),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		ModelName:           getEnv("MODEL_NAME", "gpt-4o-mini"),
		GoogleCloudProject:  getEnv("GOOGLE_CLOUD_PROJECT", ""),
		SubscriptionID:      getEnv("SUBSCRIPTION_ID", ""),
		DatabasePath:        getEnv("DATABASE_PATH", "mailsort.db"),
		EncryptionKey:       getEnv("ENCRYPTION_KEY", ""),
		NumWorkers:          getEnvInt("NUM_WORKERS", 5),
		SyncMaxResults:      int64(getEnvInt("SYNC_MAX_RESULTS", 50)),
		UnsubscribeInterval: getEnvDuration("UNSUBSCRIBE_INTERVAL", 2*time.Second),
		CategoriesFile:      getEnv("CATEGORIES_FILE", ""),
		Headless:            getEnvBool("HEADLESS", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.GoogleCloudProject != "" {
		cfg.TopicName = fmt.Sprintf("projects/%s/topics/gmail-topic", cfg.GoogleCloudProject)
	}

	return cfg, nil
}

// PushEnabled reports whether Gmail push notifications are configured.
func (c *Config) PushEnabled() bool {
	return c.GoogleCloudProject != "" && c.SubscriptionID != ""
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}
	if len(c.EncryptionKey) < 32 {
		return fmt.Errorf("ENCRYPTION_KEY is required and must be at least 32 characters")
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("NUM_WORKERS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("Invalid %s=%q, using %t", key, raw, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Invalid %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
