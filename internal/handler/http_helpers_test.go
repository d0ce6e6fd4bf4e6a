package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eia-drafter/internal/domain"
	"eia-drafter/internal/service"
	"eia-drafter/internal/session"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusTeapot, "nope")

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content type application/json, got %s", ct)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"error":"nope"}` {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestToAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &domain.ValidationError{Field: "files", Message: "no files uploaded"}, http.StatusBadRequest},
		{"missing category", fmt.Errorf("%w: %w", domain.ErrMissingCategory, &domain.ValidationError{Message: "missing required documents: form"}), http.StatusBadRequest},
		{"session not found", fmt.Errorf("%w: abc", domain.ErrSessionNotFound), http.StatusNotFound},
		{"report not ready", domain.ErrReportNotReady, http.StatusNotFound},
		{"invalid token", domain.ErrInvalidToken, http.StatusUnauthorized},
		{"generator unavailable", fmt.Errorf("%w: GEMINI_API_KEY is not set", domain.ErrGeneratorUnavailable), http.StatusServiceUnavailable},
		{"generation failed", &service.GenerationFailedError{Kind: domain.ReportAudit, Sentinel: domain.Sentinel("quota")}, http.StatusUnprocessableEntity},
		{"joined generation failure", errors.Join(nil, &service.GenerationFailedError{Kind: domain.ReportDecision}), http.StatusUnprocessableEntity},
		{"stale", session.ErrStale, http.StatusConflict},
		{"canceled", context.Canceled, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toAppError(tt.err).StatusCode; got != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, got)
			}
		})
	}
}

func TestWriteAppError_IncludesSentinel(t *testing.T) {
	rr := httptest.NewRecorder()
	sentinel := domain.Sentinel("limite de pedidos excedido")
	writeAppError(rr, NewMockHandlerLogger(), &service.GenerationFailedError{Kind: domain.ReportAudit, Sentinel: sentinel})

	var body errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Sentinel != sentinel {
		t.Fatalf("expected sentinel %q, got %q", sentinel, body.Sentinel)
	}
	if body.Type != "processing" {
		t.Fatalf("expected processing type, got %s", body.Type)
	}
}

func TestWriteAppError_HidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	writeAppError(rr, NewMockHandlerLogger(), errors.New("connection string leaked"))

	if strings.Contains(rr.Body.String(), "leaked") {
		t.Fatalf("internal error detail exposed: %s", rr.Body.String())
	}
}

type errorCountingLogger struct {
	MockHandlerLogger
	errors int
}

func (l *errorCountingLogger) Error(msg string, err error, fields ...interface{}) { l.errors++ }

func TestWriteAppError_LogsOnlyInternalErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantLogged int
	}{
		{"internal", errors.New("boom"), http.StatusInternalServerError, 1},
		{"unavailable", domain.ErrGeneratorUnavailable, http.StatusServiceUnavailable, 0},
		{"not found", domain.ErrSessionNotFound, http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &errorCountingLogger{}
			rr := httptest.NewRecorder()
			writeAppError(rr, logger, tt.err)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if logger.errors != tt.wantLogged {
				t.Fatalf("expected %d logged errors, got %d", tt.wantLogged, logger.errors)
			}
		})
	}
}
