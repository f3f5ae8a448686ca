package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Solana   SolanaConfig
	Redis    RedisConfig
	NATS     NATSConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret          string
	LogLevel           string
	AllowAirdrop       bool
	ExpiryScanInterval time.Duration
}

// SolanaConfig holds the program identity used to derive vault addresses
type SolanaConfig struct {
	ProgramID        string
	EscrowController string
	RPCURL           string // optional, enables on-chain vault reads
}

// RedisConfig enables the distributed stream lock when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig enables event publishing when URL is set
type NATSConfig struct {
	URL string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB: %w", err)
	}
	allowAirdrop, err := strconv.ParseBool(getEnv("ALLOW_AIRDROP", "false"))
	if err != nil {
		return nil, fmt.Errorf("ALLOW_AIRDROP: %w", err)
	}
	scanInterval, err := time.ParseDuration(getEnv("EXPIRY_SCAN_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("EXPIRY_SCAN_INTERVAL: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "stream_market"),
			SQLitePath: getEnv("SQLITE_PATH", "stream_market.db"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		App: AppConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			AllowAirdrop:       allowAirdrop,
			ExpiryScanInterval: scanInterval,
		},
		Solana: SolanaConfig{
			// Default is the system program id, good enough for local address derivation
			ProgramID:        getEnv("SOLANA_PROGRAM_ID", "11111111111111111111111111111111"),
			EscrowController: getEnv("ESCROW_CONTROLLER", "stream-market"),
			RPCURL:           getEnv("SOLANA_RPC_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", config.Database.Driver)
	}
	if config.App.ExpiryScanInterval <= 0 {
		return nil, fmt.Errorf("EXPIRY_SCAN_INTERVAL must be positive")
	}

	return config, nil
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
