package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Version is reported in the default upstream User-Agent.
const Version = "0.3.0"

const (
	ModePublic = "public"
	ModeAPI    = "api"
	ModeMock   = "mock"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMongoDB  = "mongodb"
	StorageDynamoDB = "dynamodb"
	StorageJSONL    = "jsonl"
)

type Config struct {
	Port         int
	LogLevel     slog.Level
	DefaultLimit int

	Collector CollectorConfig
	Storage   StorageConfig
	Cache     CacheConfig
}

// CollectorConfig selects and tunes the upstream listing client.
type CollectorConfig struct {
	Mode      string
	BaseURL   string
	UserAgent string

	// OAuth script-app credentials, api mode only.
	ClientID     string
	ClientSecret string
	Username     string
	Password     string

	Timeout time.Duration

	// MinInterval spaces consecutive upstream calls; zero disables pacing.
	MinInterval time.Duration

	// MockListingPath is served verbatim by the mock collector when set.
	MockListingPath string
}

type StorageConfig struct {
	Type string

	DatabasePath string
	PostgresURI  string

	MongoURI      string
	MongoDatabase string

	TableName string
	Region    string
	Endpoint  string

	JSONLDir string
}

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
	SweepSpec  string
}

// Load reads an optional .env file, then the environment. Every malformed or
// missing required value is reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := &Config{
		Port:         getEnvInt("PORT", 8080, &errs),
		DefaultLimit: getEnvInt("DEFAULT_LIMIT", 25, &errs),
		Collector: CollectorConfig{
			Mode:            strings.ToLower(getEnv("COLLECTOR_MODE", ModePublic)),
			BaseURL:         strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "https://www.reddit.com"), "/"),
			UserAgent:       getEnv("REDDIT_USER_AGENT", fmt.Sprintf("linux:reddit-grid:%s (by /u/username)", Version)),
			ClientID:        os.Getenv("REDDIT_CLIENT_ID"),
			ClientSecret:    os.Getenv("REDDIT_CLIENT_SECRET"),
			Username:        os.Getenv("REDDIT_USERNAME"),
			Password:        os.Getenv("REDDIT_PASSWORD"),
			Timeout:         getEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second, &errs),
			MinInterval:     getEnvDuration("FETCH_MIN_INTERVAL", 0, &errs),
			MockListingPath: os.Getenv("MOCK_LISTING_PATH"),
		},
		Storage: StorageConfig{
			Type:          strings.ToLower(getEnv("STORAGE_TYPE", StorageSQLite)),
			DatabasePath:  getEnv("DATABASE_PATH", "data/stars.db"),
			PostgresURI:   os.Getenv("POSTGRES_URI"),
			MongoURI:      os.Getenv("MONGODB_URI"),
			MongoDatabase: getEnv("MONGODB_DATABASE", "reddit_grid"),
			TableName:     getEnv("DYNAMODB_TABLE", "reddit_grid_stars"),
			Region:        getEnv("AWS_REGION", "us-west-2"),
			Endpoint:      os.Getenv("DYNAMODB_ENDPOINT"),
			JSONLDir:      getEnv("JSONL_DIR", "data/groups"),
		},
		Cache: CacheConfig{
			TTL:        getEnvDuration("STAR_CACHE_TTL", 24*time.Hour, &errs),
			MaxEntries: getEnvInt("STAR_CACHE_MAX_ENTRIES", 10000, &errs),
			SweepSpec:  getEnv("STAR_CACHE_SWEEP", "@every 5m"),
		},
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.LogLevel = level

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > 100 {
		errs = append(errs, fmt.Errorf("DEFAULT_LIMIT must be between 1 and 100, got %d", c.DefaultLimit))
	}
	if c.Collector.Timeout < 0 || c.Collector.MinInterval < 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT and FETCH_MIN_INTERVAL must not be negative"))
	}

	switch c.Collector.Mode {
	case ModePublic, ModeMock:
	case ModeAPI:
		if c.Collector.ClientID == "" || c.Collector.ClientSecret == "" ||
			c.Collector.Username == "" || c.Collector.Password == "" {
			errs = append(errs, errors.New("REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, REDDIT_USERNAME and REDDIT_PASSWORD are required in api mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'public', 'api', or 'mock')", c.Collector.Mode))
	}

	switch c.Storage.Type {
	case StorageSQLite, StorageJSONL, StorageDynamoDB:
	case StoragePostgres:
		if c.Storage.PostgresURI == "" {
			errs = append(errs, errors.New("POSTGRES_URI is required for postgres storage"))
		}
	case StorageMongoDB:
		if c.Storage.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_URI is required for mongodb storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_TYPE: %s", c.Storage.Type))
	}

	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("STAR_CACHE_TTL must not be negative"))
	}
	if c.Cache.MaxEntries < 0 {
		errs = append(errs, errors.New("STAR_CACHE_MAX_ENTRIES must not be negative"))
	}

	return errs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return d
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}
