package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	Auth     AuthConfig
	Runner   RunnerConfig
	Notify   NotifyConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string // SQLite database file path
}

// HTTPConfig contains HTTP server settings.
type HTTPConfig struct {
	Address string // HTTP listen address (e.g., ":8080")
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string // JWT signing secret
}

// RunnerConfig contains dispatch rules.
type RunnerConfig struct {
	BaseFee   float64 // earnings base fee per delivered order
	MaxActive int     // max concurrent picked_up/in_transit orders per runner
}

// NotifyConfig contains notification channel settings. Empty values disable
// the corresponding channel.
type NotifyConfig struct {
	SMTPAddr       string // host:port of the SMTP relay
	SMTPFrom       string // sender address
	SMTPTo         string // ops mailbox receiving order event mail
	SMSGatewayURL  string // HTTP SMS gateway endpoint
	TelegramToken  string
	TelegramChatID int64
}

// DefaultBaseFee is the hardcoded fallback when RUNNER_BASE_FEE is unset or invalid.
const DefaultBaseFee = 20.0

// DefaultMaxActive is the capacity limit on concurrent in-flight orders per runner.
const DefaultMaxActive = 3

// Load loads configuration from the environment (and an optional .env file)
// with sensible defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "runner.db"),
		},
		HTTP: HTTPConfig{
			Address: getEnv("HTTP_ADDRESS", ":8080"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Runner: RunnerConfig{
			BaseFee:   getEnvFloat("RUNNER_BASE_FEE", DefaultBaseFee),
			MaxActive: getEnvInt("RUNNER_MAX_ACTIVE", DefaultMaxActive),
		},
		Notify: NotifyConfig{
			SMTPAddr:       getEnv("SMTP_ADDR", ""),
			SMTPFrom:       getEnv("SMTP_FROM", ""),
			SMTPTo:         getEnv("SMTP_TO", ""),
			SMSGatewayURL:  getEnv("SMS_GATEWAY_URL", ""),
			TelegramToken:  getEnv("TELEGRAM_TOKEN", ""),
			TelegramChatID: getEnvInt64("TELEGRAM_CHAT_ID", 0),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "dev-secret-change-me")
	}
	return Load()
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, BaseFee: %.2f, MaxActive: %d, Auth: *** (masked) ***}",
		c.Database.Path, c.HTTP.Address, c.Runner.BaseFee, c.Runner.MaxActive)
}
