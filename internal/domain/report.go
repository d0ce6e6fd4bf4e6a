package domain

import (
	"context"
	"time"
)

// DocxContentType is the MIME type of rendered reports.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Layout selects how a report is rendered.
type Layout string

const (
	LayoutAudit    Layout = "audit"
	LayoutDecision Layout = "decision"
)

// ReportKind identifies one of the downloadable artifacts of a session.
type ReportKind string

const (
	ReportAudit    ReportKind = "audit"
	ReportDecision ReportKind = "decision"
)

// Filename is the fixed download name offered for the report.
func (k ReportKind) Filename() string {
	switch k {
	case ReportAudit:
		return "Relatorio_Validacao.docx"
	case ReportDecision:
		return "Minuta_Decisao.docx"
	default:
		return string(k) + ".docx"
	}
}

// Layout returns the document layout used for this kind.
func (k ReportKind) Layout() Layout {
	if k == ReportDecision {
		return LayoutDecision
	}
	return LayoutAudit
}

// ParseReportKind validates a path or flag value.
func ParseReportKind(s string) (ReportKind, error) {
	switch ReportKind(s) {
	case ReportAudit, ReportDecision:
		return ReportKind(s), nil
	}
	return "", &ValidationError{Field: "kind", Message: "unknown report kind " + s}
}

// RunRecord is the history entry written for every generation run.
type RunRecord struct {
	ID           string     `json:"id,omitempty"`
	SessionID    string     `json:"session_id"`
	OwnerID      string     `json:"owner_id,omitempty"`
	Kind         ReportKind `json:"kind"`
	Model        string     `json:"model"`
	Attempts     int        `json:"attempts"`
	Succeeded    bool       `json:"succeeded"`
	Inconsistent bool       `json:"inconsistent"`
	Placeholders int        `json:"placeholders"`
	ArchivePath  string     `json:"archive_path,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RunRepository persists run history.
type RunRepository interface {
	Record(ctx context.Context, run *RunRecord) error
	List(ctx context.Context, ownerID string, limit int) ([]*RunRecord, error)
}

// ReportArchive stores rendered reports outside the session.
type ReportArchive interface {
	// Store saves data and returns the path it was stored under.
	Store(ctx context.Context, path string, data []byte) (string, error)
}
