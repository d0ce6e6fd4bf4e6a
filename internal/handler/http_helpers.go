package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"eia-drafter/internal/domain"
	"eia-drafter/internal/service"
	"eia-drafter/internal/session"
	apperrors "eia-drafter/pkg/errors"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) (*domain.SupabaseUser, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.SupabaseUser)
	return user, ok
}

// GetTokenFromContext extracts the bearer token from request context
func GetTokenFromContext(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok && token != ""
}

func withUser(ctx context.Context, user *domain.SupabaseUser, token string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	ctx = context.WithValue(ctx, tokenContextKey, token)
	return domain.ContextWithToken(ctx, token)
}

// ownerID is the session owner for the request: the authenticated user, or
// the anonymous owner when auth is disabled.
func ownerID(r *http.Request) string {
	if user, ok := GetUserFromContext(r); ok && user != nil {
		return user.ID
	}
	return ""
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type errorResponse struct {
	Error    string `json:"error"`
	Type     string `json:"type"`
	Sentinel string `json:"sentinel,omitempty"`
}

// writeAppError maps service errors to an HTTP response. Unknown errors are
// logged and reported as internal errors without their detail.
func writeAppError(w http.ResponseWriter, logger domain.Logger, err error) {
	appErr := toAppError(err)
	status := apperrors.GetStatusCode(appErr)
	if status >= http.StatusInternalServerError && apperrors.IsType(appErr, apperrors.ErrorTypeInternal) {
		logger.Error("Request failed", err)
	}

	resp := errorResponse{Error: apperrors.PublicMessage(appErr), Type: string(appErr.Type)}
	var genErr *service.GenerationFailedError
	if errors.As(err, &genErr) {
		resp.Sentinel = genErr.Sentinel
	}
	writeJSON(w, status, resp)
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verr *domain.ValidationError
	var genErr *service.GenerationFailedError
	switch {
	case errors.As(err, &verr):
		return apperrors.NewValidationError(verr.Message)
	case errors.Is(err, domain.ErrSessionNotFound):
		return apperrors.NewNotFoundError("Session not found")
	case errors.Is(err, domain.ErrReportNotReady):
		return apperrors.NewNotFoundError("Report not generated yet")
	case errors.Is(err, domain.ErrInvalidToken):
		return apperrors.NewUnauthorizedError("Invalid token")
	case errors.Is(err, domain.ErrGeneratorUnavailable):
		return apperrors.NewUnavailableError(err.Error(), err)
	case errors.As(err, &genErr):
		return apperrors.NewProcessingError(genErr.Error(), err)
	case errors.Is(err, session.ErrStale):
		return &apperrors.AppError{
			Type:       apperrors.ErrorTypeValidation,
			Message:    "Session was reset while the request was running",
			StatusCode: http.StatusConflict,
			Cause:      err,
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &apperrors.AppError{
			Type:       apperrors.ErrorTypeProcessing,
			Message:    "Request canceled",
			StatusCode: http.StatusServiceUnavailable,
			Cause:      err,
		}
	}
	return apperrors.NewInternalError("Internal server error", err)
}
