package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mercadoapps/filemonitor/constants"
)

// Config holds all application configuration
type Config struct {
	Monitor  MonitorConfig
	Database DatabaseConfig
	Server   ServerConfig
	Remote   RemoteConfig
	Logging  LoggingConfig
}

// MonitorConfig holds directory-watching configuration
type MonitorConfig struct {
	InputDir         string
	OutputDir        string
	ProductOutputDir string
	FilePattern      string
	PollInterval     time.Duration
	Workers          int
	QueueSize        int
	ProcessTimeout   time.Duration
}

// DatabaseConfig holds record-store configuration. URL selects the driver:
// postgres:// goes through pgx, anything else is treated as a SQLite path.
type DatabaseConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds the HTTP surface configuration
type ServerConfig struct {
	Addr string
}

// RemoteConfig holds the downstream delivery endpoint configuration
type RemoteConfig struct {
	BaseURL      string
	ProductsPath string
	Timeout      time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Monitor: MonitorConfig{
			InputDir:         getEnv("INPUT_DIR", "./data/input"),
			OutputDir:        getEnv("OUTPUT_DIR", "./data/output"),
			ProductOutputDir: getEnv("PRODUCT_OUTPUT_DIR", "./data/output/produtos"),
			FilePattern:      getEnv("FILE_PATTERN", constants.DefaultFilePattern),
			PollInterval:     getEnvAsDuration("POLL_INTERVAL", 5*time.Second),
			Workers:          getEnvAsInt("WORKERS", 4),
			QueueSize:        getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout:   getEnvAsDuration("PROCESS_TIMEOUT", 3*time.Minute),
		},
		Database: DatabaseConfig{
			URL:              getEnv("DB_URL", "./data/filemonitor.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Remote: RemoteConfig{
			BaseURL:      getEnv("REMOTE_BASE_URL", ""),
			ProductsPath: getEnv("REMOTE_PRODUCTS_PATH", "/api/produtos"),
			Timeout:      getEnvAsDuration("REMOTE_TIMEOUT", 20*time.Second),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Monitor.InputDir == "" {
		return NewAppError("CONFIG_ERROR", "INPUT_DIR is required", ErrInvalidInput)
	}
	if c.Monitor.OutputDir == "" {
		return NewAppError("CONFIG_ERROR", "OUTPUT_DIR is required", ErrInvalidInput)
	}
	if c.Monitor.FilePattern == "" {
		return NewAppError("CONFIG_ERROR", "FILE_PATTERN is required", ErrInvalidInput)
	}
	if c.Monitor.PollInterval <= 0 {
		return NewAppError("CONFIG_ERROR", "POLL_INTERVAL must be positive", ErrInvalidInput)
	}
	if c.Database.URL == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Remote.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "REMOTE_BASE_URL is required", ErrInvalidInput)
	}
	return nil
}
