package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Geolocation   GeolocationConfig
	Places        PlacesConfig
	Overpass      OverpassConfig
	Aggregation   AggregationConfig
	Notifications NotificationsConfig
	OTEL          OTELConfig
	Logging       LoggingConfig
}

// LoggingConfig selects the log format and verbosity
type LoggingConfig struct {
	Env   string
	Level string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns   int
	MaxIdleConns   int
	// ConnectTimeout bounds the start-up retry loop. The service runs without Postgres past it.
	ConnectTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	ConnectTimeout time.Duration
}

// GeolocationConfig holds geolocation provider configuration
type GeolocationConfig struct {
	Provider string
	APIKey   string
}

// PlacesConfig configures the primary (Google) places source.
type PlacesConfig struct {
	APIKey  string
	BaseURL string
}

// OverpassConfig configures the fallback OpenStreetMap source.
type OverpassConfig struct {
	URL string
	// RequestsPerMinute bounds how hard we lean on the public instance.
	RequestsPerMinute int
}

// AggregationConfig holds the pipeline knobs.
type AggregationConfig struct {
	RadiusMeters        int
	MaxResults          int
	CallTimeout         time.Duration
	DefaultLatitude     float64
	DefaultLongitude    float64
	MockFallbackEnabled bool
	UrbanMinAbsLat      float64
	UrbanMinAbsLng      float64
	CatalogCacheTTL     int

	// BreakerFailures consecutive source failures open that source's breaker for BreakerCooldown.
	BreakerFailures int
	BreakerCooldown time.Duration
}

// NotificationsConfig holds the consultation webhook settings.
type NotificationsConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "pharmacy_discovery"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:   getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnectTimeout: getEnvAsDuration("DB_CONNECT_TIMEOUT", 20*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),

			ConnectTimeout: getEnvAsDuration("REDIS_CONNECT_TIMEOUT", 10*time.Second),
		},
		Geolocation: GeolocationConfig{
			Provider: getEnv("GEOLOCATION_PROVIDER", "mock"),
			APIKey:   getEnv("GEOLOCATION_API_KEY", ""),
		},
		Places: PlacesConfig{
			APIKey:  getEnv("GOOGLE_MAPS_API_KEY", ""),
			BaseURL: getEnv("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com/maps/api"),
		},
		Overpass: OverpassConfig{
			URL:               getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
			RequestsPerMinute: getEnvAsInt("OVERPASS_REQUESTS_PER_MINUTE", 30),
		},
		Aggregation: AggregationConfig{
			RadiusMeters:        getEnvAsInt("AGGREGATION_RADIUS_METERS", 7000),
			MaxResults:          getEnvAsInt("AGGREGATION_MAX_RESULTS", 8),
			CallTimeout:         getEnvAsDuration("AGGREGATION_CALL_TIMEOUT", 6*time.Second),
			DefaultLatitude:     getEnvAsFloat("AGGREGATION_DEFAULT_LAT", 12.9716),
			DefaultLongitude:    getEnvAsFloat("AGGREGATION_DEFAULT_LNG", 77.5946),
			MockFallbackEnabled: getEnvAsBool("AGGREGATION_MOCK_FALLBACK", true),
			UrbanMinAbsLat:      getEnvAsFloat("AGGREGATION_URBAN_MIN_ABS_LAT", 10),
			UrbanMinAbsLng:      getEnvAsFloat("AGGREGATION_URBAN_MIN_ABS_LNG", 60),
			CatalogCacheTTL:     getEnvAsInt("AGGREGATION_CATALOG_CACHE_TTL", 60),
			BreakerFailures:     getEnvAsInt("AGGREGATION_BREAKER_FAILURES", 5),
			BreakerCooldown:     getEnvAsDuration("AGGREGATION_BREAKER_COOLDOWN", 30*time.Second),
		},
		Notifications: NotificationsConfig{
			WebhookURL: getEnv("CONSULTATION_WEBHOOK_URL", ""),
			Timeout:    getEnvAsDuration("CONSULTATION_WEBHOOK_TIMEOUT", 10*time.Second),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "pharmacy-discovery"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Logging: LoggingConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Aggregation.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AggregationConfig) validate() error {
	if c.RadiusMeters <= 0 {
		return fmt.Errorf("AGGREGATION_RADIUS_METERS must be positive, got %d", c.RadiusMeters)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("AGGREGATION_MAX_RESULTS must be positive, got %d", c.MaxResults)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("AGGREGATION_CALL_TIMEOUT must be positive, got %s", c.CallTimeout)
	}
	if c.DefaultLatitude < -90 || c.DefaultLatitude > 90 || c.DefaultLongitude < -180 || c.DefaultLongitude > 180 {
		return fmt.Errorf("default coordinate out of range: %f,%f", c.DefaultLatitude, c.DefaultLongitude)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
