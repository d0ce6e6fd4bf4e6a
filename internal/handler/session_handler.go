// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"eia-drafter/internal/domain"
	"eia-drafter/internal/session"

	"github.com/gorilla/mux"
)

// Pipeline is the part of service.ReportService the HTTP layer drives.
type Pipeline interface {
	Upload(ctx context.Context, sess session.Session, docs []domain.SourceDocument) (session.Session, error)
	RunAudit(ctx context.Context, sess session.Session, model string) (session.Session, error)
	RunDecision(ctx context.Context, sess session.Session, model string) (session.Session, error)
	RunAll(ctx context.Context, sess session.Session, model string) (session.Session, error)
	Models(ctx context.Context) ([]domain.ModelInfo, error)
	Runs(ctx context.Context, ownerID string, limit int) ([]*domain.RunRecord, error)
}

// SessionHandler serves the session lifecycle: uploads, runs and downloads.
type SessionHandler struct {
	store       *session.Store
	pipeline    Pipeline
	maxFileSize int64
	logger      domain.Logger
}

// NewSessionHandler creates a session handler. maxFileSize bounds each
// uploaded file.
func NewSessionHandler(store *session.Store, pipeline Pipeline, maxFileSize int64, logger domain.Logger) *SessionHandler {
	return &SessionHandler{
		store:       store,
		pipeline:    pipeline,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// SessionView is the JSON shape of a session.
type SessionView struct {
	ID                string                       `json:"id"`
	UploadGeneration  int                          `json:"upload_generation"`
	Files             map[domain.Category][]string `json:"files"`
	Missing           []domain.Category            `json:"missing"`
	Warnings          []string                     `json:"warnings"`
	Model             string                       `json:"model,omitempty"`
	AuditText         string                       `json:"audit_text,omitempty"`
	AuditInconsistent bool                         `json:"audit_inconsistent"`
	DecisionFields    map[string]string            `json:"decision_fields,omitempty"`
	Failures          map[domain.ReportKind]string `json:"failures,omitempty"`
	Reports           []domain.ReportKind          `json:"reports"`
	CreatedAt         time.Time                    `json:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at"`
}

func newSessionView(s session.Session) SessionView {
	v := SessionView{
		ID:                s.ID,
		UploadGeneration:  s.UploadGeneration,
		Files:             s.Files,
		Missing:           domain.Missing(s.Uploaded()),
		Warnings:          s.Warnings,
		Model:             s.Model,
		AuditText:         s.AuditText,
		AuditInconsistent: s.AuditInconsistent,
		Failures:          s.Failures,
		Reports:           s.Available(),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if s.DecisionFields.Len() > 0 {
		v.DecisionFields = s.DecisionFields.AsMap()
	}
	if v.Missing == nil {
		v.Missing = []domain.Category{}
	}
	if v.Warnings == nil {
		v.Warnings = []string{}
	}
	if v.Reports == nil {
		v.Reports = []domain.ReportKind{}
	}
	return v
}

// CreateSession starts an empty session for the caller.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.store.Create(ownerID(r))
	h.logger.Info("Session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, newSessionView(sess))
}

// GetSession returns the current state of a session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(mux.Vars(r)["id"], ownerID(r))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

// ResetSession clears uploads, model output and documents.
func (h *SessionHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(mux.Vars(r)["id"], ownerID(r))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	fresh := session.Reset(sess, time.Now())
	if err := h.store.Save(fresh); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.logger.Info("Session reset", "session_id", fresh.ID, "upload_generation", fresh.UploadGeneration)
	writeJSON(w, http.StatusOK, newSessionView(fresh))
}

// UploadDocuments accepts multipart PDFs keyed by category field name. Each
// field may repeat.
func (h *SessionHandler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(mux.Vars(r)["id"], ownerID(r))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	docs, err := h.readDocuments(w, r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	out, err := h.pipeline.Upload(r.Context(), sess, docs)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if err := h.store.Save(out); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(out))
}

func (h *SessionHandler) readDocuments(w http.ResponseWriter, r *http.Request) ([]domain.SourceDocument, error) {
	limit := h.maxFileSize
	if limit <= 0 {
		limit = 50 << 20
	}
	// Whole request: up to one max-size file per category plus form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, limit*int64(len(domain.Categories))+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &domain.ValidationError{Field: "files", Message: "upload too large"}
		}
		return nil, &domain.ValidationError{Field: "files", Message: "multipart form expected"}
	}
	defer r.MultipartForm.RemoveAll()

	var docs []domain.SourceDocument
	for field, headers := range r.MultipartForm.File {
		category, err := domain.ParseCategory(field)
		if err != nil {
			return nil, err
		}
		for _, header := range headers {
			name := strings.TrimSpace(filepath.Base(header.Filename))
			if strings.ToLower(filepath.Ext(name)) != ".pdf" {
				return nil, &domain.ValidationError{Field: field, Message: fmt.Sprintf("unsupported file type %q, only PDF is accepted", name)}
			}
			if header.Size > limit {
				return nil, &domain.ValidationError{Field: field, Message: fmt.Sprintf("%s exceeds the maximum size of %d MB", name, limit>>20)}
			}
			f, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("open upload %s: %w", name, err)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("read upload %s: %w", name, err)
			}
			docs = append(docs, domain.SourceDocument{Category: category, Filename: name, Data: data})
		}
	}
	if len(docs) == 0 {
		return nil, &domain.ValidationError{Field: "files", Message: "no files uploaded"}
	}
	return docs, nil
}

type runRequest struct {
	Model string `json:"model"`
}

// RunAudit generates the validation report.
func (h *SessionHandler) RunAudit(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.pipeline.RunAudit, domain.ReportAudit)
}

// RunDecision generates the decision draft.
func (h *SessionHandler) RunDecision(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.pipeline.RunDecision, domain.ReportDecision)
}

// RunAll generates both reports, audit first.
func (h *SessionHandler) RunAll(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.pipeline.RunAll, domain.ReportAudit, domain.ReportDecision)
}

type runFunc func(ctx context.Context, sess session.Session, model string) (session.Session, error)

func (h *SessionHandler) run(w http.ResponseWriter, r *http.Request, fn runFunc, kinds ...domain.ReportKind) {
	sess, err := h.store.Get(mux.Vars(r)["id"], ownerID(r))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	var req runRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	out, runErr := fn(r.Context(), sess, strings.TrimSpace(req.Model))
	// Failures are part of the session state, so save before reporting them.
	if err := h.store.SaveResults(out, kinds...); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if runErr != nil {
		writeAppError(w, h.logger, runErr)
		return
	}
	current, err := h.store.Get(out.ID, out.OwnerID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(current))
}

// DownloadReport streams a rendered document.
func (h *SessionHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := domain.ParseReportKind(vars["kind"])
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	sess, err := h.store.Get(vars["id"], ownerID(r))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	data := sess.Reports[kind]
	if len(data) == 0 {
		writeAppError(w, h.logger, fmt.Errorf("%w: %s", domain.ErrReportNotReady, kind))
		return
	}

	w.Header().Set("Content-Type", domain.DocxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, kind.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
