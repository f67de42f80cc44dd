package szprechal

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the practice server.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// APIKey is the OpenAI API key.
	APIKey string
	// DBPath is the SQLite database location.
	DBPath string
	// SessionSecret signs the browser session cookie.
	SessionSecret string
	// Verbose enables debug logging.
	Verbose bool
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("LISTEN_ADDR", ":8180"),
		APIKey:        os.Getenv("OPENAI_API_KEY"),
		DBPath:        getEnv("DB_PATH", "./szprechal.db"),
		SessionSecret: getEnv("SESSION_SECRET", "dev-secret-change-me"),
		Verbose:       getEnvAsBool("VERBOSE", false),
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
