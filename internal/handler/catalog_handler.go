package handler

import (
	"net/http"
	"strconv"

	"eia-drafter/internal/domain"
)

const defaultRunsLimit = 50

// CatalogHandler serves read-only listings: available models and run history.
type CatalogHandler struct {
	pipeline Pipeline
	logger   domain.Logger
}

func NewCatalogHandler(pipeline Pipeline, logger domain.Logger) *CatalogHandler {
	return &CatalogHandler{pipeline: pipeline, logger: logger}
}

// ListModels returns the models able to generate text.
func (h *CatalogHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.pipeline.Models(r.Context())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if models == nil {
		models = []domain.ModelInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}

// ListRuns returns the caller's most recent generation runs.
func (h *CatalogHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := h.pipeline.Runs(r.Context(), ownerID(r), limit)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if runs == nil {
		runs = []*domain.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}
