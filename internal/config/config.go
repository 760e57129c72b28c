package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Database drivers supported by the conversation store.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	TablePrefix string
	// Storage
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	// Auth
	JWTSecret  string
	JWTJWKSURL string
	// LLM gateway
	LLMAPIURL        string
	LLMAPIKey        string
	LLMModel         string
	LLMTimeout       time.Duration
	SystemPromptFile string
	SystemPrompt     string // Inline override; takes precedence over SystemPromptFile
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      env,
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:      getTablePrefix(env),
		DatabaseDriver:   getEnv("DATABASE_DRIVER", DriverPostgres),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", "data/pawfect.db"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTJWKSURL:       getEnv("JWT_JWKS_URL", ""),
		LLMAPIURL:        getEnv("LLM_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMModel:         getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMTimeout:       getDuration("LLM_TIMEOUT", 60*time.Second),
		SystemPromptFile: getEnv("SYSTEM_PROMPT_FILE", "config/prompts.yaml"),
		SystemPrompt:     os.Getenv("SYSTEM_PROMPT"),
		LogDir:           os.Getenv("LOG_DIR"),
		LogMaxFiles:      getInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// Validate reports every missing setting the server needs to start.
func (c *Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	if c.JWTSecret == "" && c.JWTJWKSURL == "" {
		errs = append(errs, errors.New("one of JWT_SECRET or JWT_JWKS_URL is required"))
	}
	if c.LLMAPIURL == "" {
		errs = append(errs, errors.New("LLM_API_URL is required"))
	}
	if c.LLMAPIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY is required"))
	}
	if c.LLMModel == "" {
		errs = append(errs, errors.New("LLM_MODEL is required"))
	}

	return errors.Join(errs...)
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
