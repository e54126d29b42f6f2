package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"luckybit/database"
	"luckybit/domain/entities"
)

// Config holds all application configuration
type Config struct {
	// HTTP configuration
	ListenAddr string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Redis configuration (optional, enables last-good rate persistence)
	RedisAddr     string
	RedisPassword string

	// NATS configuration
	NATSServers  string // NATS server addresses (comma-separated)
	NATSEnabled  bool
	AllowedHosts []string // Origins allowed to open websocket connections

	// Wallet configuration
	StartingBalance  int64
	DefaultCurrency  entities.Currency
	RateRefreshEvery time.Duration

	// Environment
	Environment string // "development" or "production"
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
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
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

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// HTTP
		ListenAddr: getEnvWithDefault("LISTEN_ADDR", ":8080"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Redis
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// Wallet defaults
		StartingBalance:  0,
		DefaultCurrency:  entities.CurrencyUSD,
		RateRefreshEvery: 5 * time.Minute,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	config.NATSEnabled = os.Getenv("NATS_ENABLED") != "false"

	// Override defaults if environment variables are set
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsedBalance, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsedBalance
		}
	}
	if cur := os.Getenv("DEFAULT_CURRENCY"); cur != "" {
		c := entities.Currency(strings.ToUpper(strings.TrimSpace(cur)))
		if !c.IsValid() {
			return nil, fmt.Errorf("DEFAULT_CURRENCY %q is not a supported currency", cur)
		}
		config.DefaultCurrency = c
	}
	if refresh := os.Getenv("RATE_REFRESH_INTERVAL"); refresh != "" {
		d, err := time.ParseDuration(refresh)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_REFRESH_INTERVAL: %w", err)
		}
		config.RateRefreshEvery = d
	}
	if hosts := os.Getenv("ALLOWED_HOSTS"); hosts != "" {
		for _, h := range strings.Split(hosts, ",") {
			h = strings.TrimSpace(h)
			if h != "" {
				config.AllowedHosts = append(config.AllowedHosts, h)
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
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

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:      "test",
		ListenAddr:       ":0",
		StartingBalance:  0,
		DefaultCurrency:  entities.CurrencyUSD,
		RateRefreshEvery: 5 * time.Minute,
	}
}
