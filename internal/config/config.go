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
	App     AppConfig
	Brain   BrainConfig
	Auth    AuthConfig
	Stub    StubConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	// Strict turns logic errors that production tolerates (a second
	// finalization of the same turn) into hard failures.
	Strict  bool
	Debug   bool
	NatsURL string
}

type BrainConfig struct {
	BaseURL  string
	Language string
	Zone     string
	LoginURL string
	// RequestTimeout bounds REST calls. Diagnostic streams are not bounded.
	RequestTimeout time.Duration
}

type AuthConfig struct {
	AccessToken string
}

type StubConfig struct {
	Port               string
	JwtSecret          string
	CorsAllowedOrigins string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() *Config {
	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "bigsis.log.json"),
			Strict:      getEnvAsBool("BIGSIS_STRICT", false),
			Debug:       getEnvAsBool("BIGSIS_DEBUG", false),
			NatsURL:     getEnv("NATS_URL", ""),
		},
		Brain: BrainConfig{
			BaseURL:        strings.TrimRight(getEnv("BRAIN_API_URL", "http://localhost:8000/api/v1"), "/"),
			Language:       getEnv("BRAIN_LANGUAGE", "fr"),
			Zone:           getEnv("BRAIN_ZONE", ""),
			LoginURL:       getEnv("BRAIN_LOGIN_URL", "/auth/login?redirect=/"),
			RequestTimeout: time.Duration(getEnvAsInt("BRAIN_REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Auth: AuthConfig{
			AccessToken: getEnv("BIGSIS_ACCESS_TOKEN", ""),
		},
		Stub: StubConfig{
			Port:               getEnv("STUB_PORT", "8000"),
			JwtSecret:          getEnv("JWT_SECRET", "bigsis-dev-secret"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "bigsis-chat"),
		},
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
