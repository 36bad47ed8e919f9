package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Editor    EditorConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	SessionLogFilePath string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
	Driver     string // "postgres" or "memory"
}

type EditorConfig struct {
	SaveDelay      time.Duration
	SearchDelay    time.Duration
	RequestTimeout time.Duration
	SearchCacheTTL time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type EventsConfig struct {
	Topic string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

// ClientConfig is what notesctl needs to reach a running server.
type ClientConfig struct {
	APIURL         string
	NatsURL        string
	SaveDelay      time.Duration
	RequestTimeout time.Duration
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			SessionLogFilePath: getEnv("SESSION_LOG_FILE_PATH", "logs/editor_session.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		},
		Editor: EditorConfig{
			SaveDelay:      getEnvAsDuration("EDITOR_SAVE_DELAY_MS", 600*time.Millisecond),
			SearchDelay:    getEnvAsDuration("EDITOR_SEARCH_DELAY_MS", 350*time.Millisecond),
			RequestTimeout: getEnvAsDuration("STORE_REQUEST_TIMEOUT_MS", 10*time.Second),
			SearchCacheTTL: getEnvAsDuration("SEARCH_CACHE_TTL_MS", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Events: EventsConfig{
			Topic: getEnv("NOTE_EVENTS_TOPIC_NAME", "NOTE_EVENTS"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	return &ClientConfig{
		APIURL:         strings.TrimRight(getEnv("NOTES_API_URL", "http://localhost:3000"), "/"),
		NatsURL:        getEnv("NATS_URL", "nats://localhost:4222"),
		SaveDelay:      getEnvAsDuration("EDITOR_SAVE_DELAY_MS", 600*time.Millisecond),
		RequestTimeout: getEnvAsDuration("STORE_REQUEST_TIMEOUT_MS", 10*time.Second),
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration reads a millisecond count.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil && value >= 0 {
		return time.Duration(value) * time.Millisecond
	}
	return fallback
}
