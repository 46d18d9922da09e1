package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"helios/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string
	GuildID      string // Primary Discord guild ID, used for command registration

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)
	NATSEnabled bool

	// Economy configuration
	StartingPoints          int64
	DailyPoints             int64
	ActivityPointsPerMinute int64
	DailyResetHour          int // UTC hour of the daily snapshot and activity payout

	// Dynamic voice configuration
	RenameCooldown time.Duration

	// Store configuration
	StoreRefreshesPerDay int

	// Violation configuration
	ViolationDueDays int

	// Theme configuration
	ThemeSortHour   int
	ThemeSortMinute int

	// Blackjack configuration
	BlackjackJoinWindow  time.Duration
	BlackjackTurnTimeout time.Duration

	// Observability configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
				instance.DiscordToken = "test-token"
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the bot runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ConfigureLogging applies the configured level and formatter to logrus
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is normal outside local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to load .env file: %v", err)
	}

	config := &Config{
		// Discord
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		GuildID:      os.Getenv("GUILD_ID"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),
		NATSEnabled: getEnvBool("NATS_ENABLED", false),

		// Economy
		StartingPoints:          getEnvInt64("STARTING_POINTS", 0),
		DailyPoints:             getEnvInt64("DAILY_POINTS", 7500),
		ActivityPointsPerMinute: getEnvInt64("ACTIVITY_POINTS_PER_MINUTE", 1),
		DailyResetHour:          int(getEnvInt64("DAILY_RESET_HOUR", 0)),

		// Dynamic voice
		RenameCooldown: getEnvDuration("RENAME_COOLDOWN", 5*time.Minute),

		// Store
		StoreRefreshesPerDay: int(getEnvInt64("STORE_REFRESHES_PER_DAY", 4)),

		// Violations
		ViolationDueDays: int(getEnvInt64("VIOLATION_DUE_DAYS", 7)),

		// Themes
		ThemeSortHour:   int(getEnvInt64("THEME_SORT_HOUR", 4)),
		ThemeSortMinute: int(getEnvInt64("THEME_SORT_MINUTE", 0)),

		// Blackjack
		BlackjackJoinWindow:  getEnvDuration("BLACKJACK_JOIN_WINDOW", 15*time.Second),
		BlackjackTurnTimeout: getEnvDuration("BLACKJACK_TURN_TIMEOUT", 30*time.Second),

		// Observability
		OTelEnabled:              getEnvBool("OTEL_ENABLED", false),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "helios"),
		OTelExportIntervalMillis: int(getEnvInt64("OTEL_EXPORT_INTERVAL_MILLIS", 60000)),

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.StoreRefreshesPerDay < 1 {
		return nil, fmt.Errorf("STORE_REFRESHES_PER_DAY must be at least 1, got %d", config.StoreRefreshesPerDay)
	}

	for name, hour := range map[string]int{"DAILY_RESET_HOUR": config.DailyResetHour, "THEME_SORT_HOUR": config.ThemeSortHour} {
		if hour < 0 || hour > 23 {
			return nil, fmt.Errorf("%s must be between 0 and 23, got %d", name, hour)
		}
	}
	if config.ThemeSortMinute < 0 || config.ThemeSortMinute > 59 {
		return nil, fmt.Errorf("THEME_SORT_MINUTE must be between 0 and 59, got %d", config.ThemeSortMinute)
	}

	if config.Environment != "test" {
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
		log.Warnf("Ignoring invalid integer for %s: %q", key, value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		log.Warnf("Ignoring invalid boolean for %s: %q", key, value)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Warnf("Ignoring invalid duration for %s: %q", key, value)
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:             "test",
		StartingPoints:          0,
		DailyPoints:             7500,
		ActivityPointsPerMinute: 1,
		RenameCooldown:          5 * time.Minute,
		StoreRefreshesPerDay:    4,
		ViolationDueDays:        7,
		ThemeSortHour:           4,
		BlackjackJoinWindow:     15 * time.Second,
		BlackjackTurnTimeout:    30 * time.Second,
		OTelExporterType:        "none",
		OTelServiceName:         "helios-test",
		LogLevel:                "debug",
	}
}
