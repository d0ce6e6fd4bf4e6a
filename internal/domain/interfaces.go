package domain

import "time"

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetMaxFileSize() int64
	GetCORSOrigins() []string

	GetGenAIBackend() string
	GetGeminiAPIKey() string
	GetGCPProjectID() string
	GetGCPLocation() string
	GetDefaultModel() string
	GetTemperature() float32
	GetMaxAttempts() int
	GetRetryBaseDelay() time.Duration
	GetRequestsPerMinute() int

	GetPageTimeout() time.Duration
	GetSessionTTL() time.Duration

	GetSupabaseURL() string
	GetSupabaseKey() string
	GetReportsBucket() string
}
