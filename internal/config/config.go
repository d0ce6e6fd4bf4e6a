package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"eia-drafter/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort  string
	LogLevel    string
	MaxFileSize int64
	CORSOrigins []string

	GenAIBackend      string
	GeminiAPIKey      string
	GCPProjectID      string
	GCPLocation       string
	DefaultModel      string
	Temperature       float32
	MaxAttempts       int
	RetryBaseDelay    time.Duration
	RequestsPerMinute int

	PageTimeout time.Duration
	SessionTTL  time.Duration

	SupabaseURL   string
	SupabaseKey   string
	ReportsBucket string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return LoadAppConfig()
}

// LoadAppConfig reads the environment into a concrete AppConfig that callers
// such as the CLI can adjust before wiring.
func LoadAppConfig() *AppConfig {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:  getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		MaxFileSize: getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		CORSOrigins: getEnvListOrDefault("CORS_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),

		GenAIBackend:      strings.ToLower(getEnvOrDefault("GENAI_BACKEND", "gemini")),
		GeminiAPIKey:      getEnvOrDefault("GEMINI_API_KEY", getEnvOrDefault("GOOGLE_API_KEY", "")),
		GCPProjectID:      getEnvOrDefault("GCP_PROJECT_ID", ""),
		GCPLocation:       getEnvOrDefault("GCP_LOCATION", "europe-west1"),
		DefaultModel:      getEnvOrDefault("GENAI_MODEL", "gemini-2.5-pro"),
		Temperature:       getEnvFloat32OrDefault("GENAI_TEMPERATURE", 0.2),
		MaxAttempts:       int(getEnvInt64OrDefault("GENAI_MAX_ATTEMPTS", 3)),
		RetryBaseDelay:    getEnvDurationOrDefault("GENAI_RETRY_BASE_DELAY", 10*time.Second),
		RequestsPerMinute: int(getEnvInt64OrDefault("GENAI_REQUESTS_PER_MINUTE", 0)),

		PageTimeout: getEnvDurationOrDefault("PAGE_TIMEOUT", 90*time.Second),
		SessionTTL:  getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),

		SupabaseURL:   getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:   getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		ReportsBucket: getEnvOrDefault("SUPABASE_REPORTS_BUCKET", ""),
	}
}

func (c *AppConfig) GetServerPort() string { return c.ServerPort }
func (c *AppConfig) GetLogLevel() string { return c.LogLevel }
func (c *AppConfig) GetMaxFileSize() int64 { return c.MaxFileSize }
func (c *AppConfig) GetCORSOrigins() []string { return c.CORSOrigins }

func (c *AppConfig) GetGenAIBackend() string { return c.GenAIBackend }
func (c *AppConfig) GetGeminiAPIKey() string { return c.GeminiAPIKey }
func (c *AppConfig) GetGCPProjectID() string { return c.GCPProjectID }
func (c *AppConfig) GetGCPLocation() string { return c.GCPLocation }
func (c *AppConfig) GetDefaultModel() string { return c.DefaultModel }
func (c *AppConfig) GetTemperature() float32 { return c.Temperature }
func (c *AppConfig) GetMaxAttempts() int { return c.MaxAttempts }
func (c *AppConfig) GetRetryBaseDelay() time.Duration { return c.RetryBaseDelay }
func (c *AppConfig) GetRequestsPerMinute() int { return c.RequestsPerMinute }
func (c *AppConfig) GetPageTimeout() time.Duration { return c.PageTimeout }
func (c *AppConfig) GetSessionTTL() time.Duration { return c.SessionTTL }
func (c *AppConfig) GetSupabaseURL() string { return c.SupabaseURL }
func (c *AppConfig) GetSupabaseKey() string { return c.SupabaseKey }
func (c *AppConfig) GetReportsBucket() string { return c.ReportsBucket }

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat32OrDefault(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
