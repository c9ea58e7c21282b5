package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool

	// NotificationBackend selects where notifications live: "mongo" or "postgres"
	NotificationBackend string
	PostgresUrl         string

	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool
	BcryptCost   int

	FirebaseCredentialsPath string
	FirebaseStorageBucket   string

	SuggestionSampleSize int
	SuggestionLimit      int
}

// Load reads the configuration from the environment, after merging a .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")
	cfg := &Config{
		Port:                    getEnv("PORT", "5000"),
		Env:                     env,
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "socialgraph"),
		MongoTransactions:       getEnvBool("MONGO_TRANSACTIONS", false),
		NotificationBackend:     getEnv("NOTIFICATION_BACKEND", "mongo"),
		PostgresUrl:             getEnv("POSTGRES_CONN_STR", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		TokenTTL:                getEnvDuration("TOKEN_TTL", 30*24*time.Hour),
		CookieSecure:            getEnvBool("COOKIE_SECURE", env != "development"),
		BcryptCost:              getEnvInt("BCRYPT_COST", 10),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseStorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),
		SuggestionSampleSize:    getEnvInt("SUGGESTION_SAMPLE_SIZE", 10),
		SuggestionLimit:         getEnvInt("SUGGESTION_LIMIT", 4),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.NotificationBackend {
	case "mongo":
	case "postgres":
		if c.PostgresUrl == "" {
			return fmt.Errorf("POSTGRES_CONN_STR is required when NOTIFICATION_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("NOTIFICATION_BACKEND must be mongo or postgres, got %q", c.NotificationBackend)
	}
	if c.FirebaseStorageBucket != "" && c.FirebaseCredentialsPath == "" {
		return fmt.Errorf("FIREBASE_STORAGE_BUCKET needs FIREBASE_CREDENTIALS_PATH")
	}
	if c.SuggestionLimit < 1 || c.SuggestionSampleSize < c.SuggestionLimit {
		return fmt.Errorf("SUGGESTION_SAMPLE_SIZE must be >= SUGGESTION_LIMIT >= 1")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// FirebaseEnabled reports whether Firebase login and image storage are configured
func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseCredentialsPath != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
