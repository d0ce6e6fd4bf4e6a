package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Handlers groups the route handlers mounted by NewRouter.
type Handlers struct {
	Sessions *SessionHandler
	Catalog  *CatalogHandler
	// Auth is nil when authentication is disabled.
	Auth *AuthHandler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(h Handlers, authMiddleware func(http.Handler) http.Handler, corsOrigins []string) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "eia-drafter"})
	}).Methods(http.MethodGet)

	if authMiddleware == nil {
		authMiddleware = Passthrough
	}
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware)

	if h.Auth != nil {
		api.HandleFunc("/auth/profile", h.Auth.GetProfile).Methods(http.MethodGet)
	}

	api.HandleFunc("/models", h.Catalog.ListModels).Methods(http.MethodGet)
	api.HandleFunc("/runs", h.Catalog.ListRuns).Methods(http.MethodGet)

	api.HandleFunc("/sessions", h.Sessions.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", h.Sessions.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", h.Sessions.ResetSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/documents", h.Sessions.UploadDocuments).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/audit", h.Sessions.RunAudit).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/decision", h.Sessions.RunDecision).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/run", h.Sessions.RunAll).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/reports/{kind}", h.Sessions.DownloadReport).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
