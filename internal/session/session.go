// Package session keeps per-user pipeline state between HTTP requests.
package session

import (
	"time"

	"eia-drafter/internal/domain"
)

// Session is the state of one user's submission: uploaded corpora, the last
// model output per report kind and the rendered documents.
type Session struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id,omitempty"`

	// UploadGeneration identifies the current set of file inputs. Uploads and
	// Reset bump it so clients drop stale file selections.
	UploadGeneration int `json:"upload_generation"`

	Files    map[domain.Category][]string `json:"files"`
	Corpora  domain.Corpora               `json:"-"`
	Warnings []string                     `json:"warnings,omitempty"`

	Model             string                       `json:"model,omitempty"`
	AuditText         string                       `json:"audit_text,omitempty"`
	AuditInconsistent bool                         `json:"audit_inconsistent"`
	DecisionText      string                       `json:"-"`
	DecisionFields    domain.FieldMap              `json:"-"`
	Failures          map[domain.ReportKind]string `json:"failures,omitempty"`
	Reports           map[domain.ReportKind][]byte `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty session.
func New(id, ownerID string, now time.Time) Session {
	return Session{
		ID:        id,
		OwnerID:   ownerID,
		Files:     make(map[domain.Category][]string),
		Corpora:   make(domain.Corpora),
		Failures:  make(map[domain.ReportKind]string),
		Reports:   make(map[domain.ReportKind][]byte),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset returns a fresh session with the same identity and a new upload
// generation. s itself is not modified.
func Reset(s Session, now time.Time) Session {
	fresh := New(s.ID, s.OwnerID, now)
	fresh.CreatedAt = s.CreatedAt
	fresh.UploadGeneration = s.UploadGeneration + 1
	return fresh
}

// Uploaded counts files per category.
func (s Session) Uploaded() map[domain.Category]int {
	counts := make(map[domain.Category]int, len(s.Files))
	for c, names := range s.Files {
		counts[c] = len(names)
	}
	return counts
}

// Available lists the report kinds that have a rendered document.
func (s Session) Available() []domain.ReportKind {
	var out []domain.ReportKind
	for _, k := range []domain.ReportKind{domain.ReportAudit, domain.ReportDecision} {
		if len(s.Reports[k]) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// Clone deep-copies the maps so callers cannot mutate stored state.
func (s Session) Clone() Session {
	c := s
	c.Files = make(map[domain.Category][]string, len(s.Files))
	for k, v := range s.Files {
		c.Files[k] = append([]string(nil), v...)
	}
	c.Corpora = make(domain.Corpora, len(s.Corpora))
	for k, v := range s.Corpora {
		c.Corpora[k] = v
	}
	c.Warnings = append([]string(nil), s.Warnings...)
	c.Failures = make(map[domain.ReportKind]string, len(s.Failures))
	for k, v := range s.Failures {
		c.Failures[k] = v
	}
	c.Reports = make(map[domain.ReportKind][]byte, len(s.Reports))
	for k, v := range s.Reports {
		c.Reports[k] = append([]byte(nil), v...)
	}
	fields := domain.NewFieldMap()
	for _, k := range s.DecisionFields.Keys() {
		fields.Set(k, s.DecisionFields.Get(k))
	}
	c.DecisionFields = fields
	return c
}

// mergeResults returns a copy of s carrying the output from for each kind.
// Everything else, including the other kind's results, is kept from s.
func (s Session) mergeResults(from Session, kinds []domain.ReportKind) Session {
	out := s.Clone()
	src := from.Clone()
	for _, kind := range kinds {
		if data, ok := src.Reports[kind]; ok {
			out.Reports[kind] = data
		} else {
			delete(out.Reports, kind)
		}
		if failure, ok := src.Failures[kind]; ok {
			out.Failures[kind] = failure
		} else {
			delete(out.Failures, kind)
		}
		switch kind {
		case domain.ReportAudit:
			out.AuditText = src.AuditText
			out.AuditInconsistent = src.AuditInconsistent
		case domain.ReportDecision:
			out.DecisionText = src.DecisionText
			out.DecisionFields = src.DecisionFields
		}
	}
	if src.Model != "" {
		out.Model = src.Model
	}
	return out
}
