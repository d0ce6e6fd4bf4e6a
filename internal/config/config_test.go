package config

import (
	"testing"
	"time"
)

const defaultMaxFileSize int64 = 50 * 1024 * 1024

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "SERVER_PORT", "MAX_FILE_SIZE", "LOG_LEVEL", "CORS_ORIGINS",
		"GENAI_BACKEND", "GEMINI_API_KEY", "GOOGLE_API_KEY", "GCP_PROJECT_ID", "GCP_LOCATION",
		"GENAI_MODEL", "GENAI_TEMPERATURE", "GENAI_MAX_ATTEMPTS", "GENAI_RETRY_BASE_DELAY",
		"GENAI_REQUESTS_PER_MINUTE", "PAGE_TIMEOUT", "SESSION_TTL",
		"SUPABASE_URL", "SUPABASE_ANON_KEY", "SUPABASE_REPORTS_BUCKET",
	} {
		t.Setenv(key, "")
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := NewConfig()

	if cfg.GetServerPort() != "8080" {
		t.Fatalf("expected default server port 8080, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != defaultMaxFileSize {
		t.Fatalf("expected default max file size %d, got %d", defaultMaxFileSize, cfg.GetMaxFileSize())
	}
	if cfg.GetLogLevel() != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.GetLogLevel())
	}
	if cfg.GetGenAIBackend() != "gemini" {
		t.Fatalf("expected default backend gemini, got %s", cfg.GetGenAIBackend())
	}
	if cfg.GetMaxAttempts() != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.GetMaxAttempts())
	}
	if cfg.GetRetryBaseDelay() != 10*time.Second {
		t.Fatalf("expected 10s base delay, got %v", cfg.GetRetryBaseDelay())
	}
	if cfg.GetSupabaseURL() != "" {
		t.Fatalf("expected default supabase url empty, got %s", cfg.GetSupabaseURL())
	}
	if len(cfg.GetCORSOrigins()) != 2 {
		t.Fatalf("expected default cors origins, got %v", cfg.GetCORSOrigins())
	}
}

func TestNewConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("MAX_FILE_SIZE", "12345")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GENAI_BACKEND", "Vertex")
	t.Setenv("GCP_PROJECT_ID", "eia-prod")
	t.Setenv("GENAI_MODEL", "gemini-2.5-flash")
	t.Setenv("GENAI_TEMPERATURE", "0.7")
	t.Setenv("GENAI_RETRY_BASE_DELAY", "1500ms")
	t.Setenv("PAGE_TIMEOUT", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg := NewConfig()

	if cfg.GetServerPort() != "9090" {
		t.Fatalf("expected server port 9090, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != 12345 {
		t.Fatalf("expected max file size 12345, got %d", cfg.GetMaxFileSize())
	}
	if cfg.GetGenAIBackend() != "vertex" {
		t.Fatalf("expected backend to be lower-cased, got %s", cfg.GetGenAIBackend())
	}
	if cfg.GetGCPProjectID() != "eia-prod" {
		t.Fatalf("expected project eia-prod, got %s", cfg.GetGCPProjectID())
	}
	if cfg.GetDefaultModel() != "gemini-2.5-flash" {
		t.Fatalf("unexpected model %s", cfg.GetDefaultModel())
	}
	if cfg.GetTemperature() < 0.69 || cfg.GetTemperature() > 0.71 {
		t.Fatalf("unexpected temperature %v", cfg.GetTemperature())
	}
	if cfg.GetRetryBaseDelay() != 1500*time.Millisecond {
		t.Fatalf("unexpected base delay %v", cfg.GetRetryBaseDelay())
	}
	if cfg.GetPageTimeout() != 5*time.Second {
		t.Fatalf("unexpected page timeout %v", cfg.GetPageTimeout())
	}
	origins := cfg.GetCORSOrigins()
	if len(origins) != 2 || origins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", origins)
	}
}

func TestNewConfig_Fallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9091")
	t.Setenv("MAX_FILE_SIZE", "not-a-number")
	t.Setenv("GENAI_RETRY_BASE_DELAY", "soon")
	t.Setenv("GOOGLE_API_KEY", "fallback-key")

	cfg := NewConfig()

	if cfg.GetServerPort() != "9091" {
		t.Fatalf("expected server port 9091, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != defaultMaxFileSize {
		t.Fatalf("expected default max file size %d, got %d", defaultMaxFileSize, cfg.GetMaxFileSize())
	}
	if cfg.GetRetryBaseDelay() != 10*time.Second {
		t.Fatalf("expected default delay on parse failure, got %v", cfg.GetRetryBaseDelay())
	}
	if cfg.GetGeminiAPIKey() != "fallback-key" {
		t.Fatalf("expected GOOGLE_API_KEY fallback, got %s", cfg.GetGeminiAPIKey())
	}
}
