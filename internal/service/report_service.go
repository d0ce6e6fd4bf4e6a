package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eia-drafter/internal/domain"
	"eia-drafter/internal/prompt"
	"eia-drafter/internal/report"
	"eia-drafter/internal/session"
	"eia-drafter/internal/tagparse"
	"eia-drafter/internal/templates"
)

// ReportService runs the extraction → prompt → generation → rendering pipeline
// over a session.
type ReportService struct {
	extractor *Extractor
	generator *Generator
	runs      domain.RunRepository
	archive   domain.ReportArchive
	logger    domain.Logger
	now       func() time.Time
}

// NewReportService wires the pipeline. runs and archive may be nil.
func NewReportService(
	extractor *Extractor,
	generator *Generator,
	runs domain.RunRepository,
	archive domain.ReportArchive,
	logger domain.Logger,
) *ReportService {
	return &ReportService{
		extractor: extractor,
		generator: generator,
		runs:      runs,
		archive:   archive,
		logger:    logger,
		now:       time.Now,
	}
}

// GenerationFailedError reports a sentinel result for one report kind.
type GenerationFailedError struct {
	Kind     domain.ReportKind
	Sentinel string
	Err      error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("%s generation failed: %s", e.Kind, e.Sentinel)
}

func (e *GenerationFailedError) Unwrap() error { return e.Err }

// Upload extracts docs into the session. Categories present in docs replace
// what the session held for them; others are kept. Previously generated
// reports are dropped since their inputs changed, and the upload generation
// moves forward so runs started on the old inputs cannot be saved over it.
func (s *ReportService) Upload(ctx context.Context, sess session.Session, docs []domain.SourceDocument) (session.Session, error) {
	if len(docs) == 0 {
		return sess, &domain.ValidationError{Field: "files", Message: "no files uploaded"}
	}

	start := time.Now()
	corpora, warnings, err := s.extractor.ExtractAll(ctx, docs)
	if err != nil {
		return sess, fmt.Errorf("extract documents: %w", err)
	}

	out := sess.Clone()
	for c, files := range domain.GroupByCategory(docs) {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Filename)
		}
		out.Files[c] = names
		out.Corpora[c] = corpora.Get(c)
	}
	out.Warnings = warnings
	out.UploadGeneration++
	out.AuditText, out.AuditInconsistent = "", false
	out.DecisionText, out.DecisionFields = "", domain.NewFieldMap()
	out.Reports = make(map[domain.ReportKind][]byte)
	out.Failures = make(map[domain.ReportKind]string)

	s.logger.Info("Documents extracted",
		"session_id", sess.ID,
		"files", len(docs),
		"warnings", len(warnings),
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// Preflight checks that a run can start: required categories uploaded and
// generator credentials present.
func (s *ReportService) Preflight(ctx context.Context, sess session.Session) error {
	if missing := domain.Missing(sess.Uploaded()); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = string(c)
		}
		return fmt.Errorf("%w: %w", domain.ErrMissingCategory, &domain.ValidationError{
			Field:   "files",
			Message: "missing required documents: " + strings.Join(names, ", "),
		})
	}
	if err := s.generator.Ready(ctx); err != nil {
		return err
	}
	return nil
}

// RunAudit produces the validation report.
func (s *ReportService) RunAudit(ctx context.Context, sess session.Session, model string) (session.Session, error) {
	return s.Run(ctx, sess, domain.ReportAudit, model)
}

// RunDecision produces the decision draft.
func (s *ReportService) RunDecision(ctx context.Context, sess session.Session, model string) (session.Session, error) {
	return s.Run(ctx, sess, domain.ReportDecision, model)
}

// RunAll runs the audit and then the decision draft, one after the other.
// A failed audit does not prevent the decision run. Preflight runs once.
func (s *ReportService) RunAll(ctx context.Context, sess session.Session, model string) (session.Session, error) {
	if err := s.Preflight(ctx, sess); err != nil {
		return sess, err
	}
	out, auditErr := s.run(ctx, sess, domain.ReportAudit, model)
	if err := ctx.Err(); err != nil {
		return out, err
	}
	out, decisionErr := s.run(ctx, out, domain.ReportDecision, model)
	return out, errors.Join(auditErr, decisionErr)
}

// Run executes one pipeline pass for kind.
func (s *ReportService) Run(ctx context.Context, sess session.Session, kind domain.ReportKind, model string) (session.Session, error) {
	if err := s.Preflight(ctx, sess); err != nil {
		return sess, err
	}
	return s.run(ctx, sess, kind, model)
}

func (s *ReportService) run(ctx context.Context, sess session.Session, kind domain.ReportKind, model string) (session.Session, error) {
	d, err := templates.ForKind(kind)
	if err != nil {
		return sess, err
	}
	if model == "" {
		model = firstNonEmpty(d.ModelHint, s.generator.DefaultModel())
	}

	text, err := prompt.Build(d, sess.Corpora)
	if err != nil {
		return sess, fmt.Errorf("build %s prompt: %w", kind, err)
	}

	s.logger.Info("Generation started", "session_id", sess.ID, "kind", kind, "model", model, "prompt_chars", len(text))
	result := s.generator.Generate(ctx, domain.GenerationRequest{Prompt: text, Model: model})

	out := sess.Clone()
	out.Model = result.Model
	run := &domain.RunRecord{
		SessionID: sess.ID,
		OwnerID:   sess.OwnerID,
		Kind:      kind,
		Model:     result.Model,
		Attempts:  result.Attempts,
		CreatedAt: s.now().UTC(),
	}

	if result.Err != nil || result.Failed() {
		delete(out.Reports, kind)
		out.Failures[kind] = result.Text
		s.record(ctx, run)
		return out, &GenerationFailedError{Kind: kind, Sentinel: result.Text, Err: result.Err}
	}
	delete(out.Failures, kind)

	data, err := report.Render(d, result.Text, report.Options{Now: s.now(), Model: result.Model})
	if err != nil {
		return out, fmt.Errorf("render %s: %w", kind, err)
	}
	out.Reports[kind] = data
	run.Succeeded = true

	switch kind {
	case domain.ReportAudit:
		out.AuditText = result.Text
		out.AuditInconsistent = tagparse.IsInconsistent(result.Text)
		run.Inconsistent = out.AuditInconsistent
		s.checkStatusLine(sess.ID, result.Text, out.AuditInconsistent)
	case domain.ReportDecision:
		out.DecisionText = result.Text
		out.DecisionFields = tagparse.Parse(result.Text, d.Tags())
		if missing := out.DecisionFields.Placeholders(); len(missing) > 0 {
			s.logger.Warn("Decision fields missing from model output", "session_id", sess.ID, "tags", strings.Join(missing, ","))
		}
		run.Placeholders = len(out.DecisionFields.Placeholders())
	}

	if s.archive != nil {
		path := fmt.Sprintf("%s/%s/%d/%s", firstNonEmpty(sess.OwnerID, "anonymous"), sess.ID, sess.UploadGeneration, kind.Filename())
		stored, err := s.archive.Store(ctx, path, data)
		if err != nil {
			s.logger.Error("Failed to archive report", err, "session_id", sess.ID, "kind", kind)
		} else {
			run.ArchivePath = stored
		}
	}
	s.record(ctx, run)

	s.logger.Info("Report generated", "session_id", sess.ID, "kind", kind, "model", result.Model,
		"attempts", result.Attempts, "bytes", len(data))
	return out, nil
}

// Models lists the models the generation service offers.
func (s *ReportService) Models(ctx context.Context) ([]domain.ModelInfo, error) {
	return s.generator.Models(ctx)
}

// Runs returns the run history of ownerID.
func (s *ReportService) Runs(ctx context.Context, ownerID string, limit int) ([]*domain.RunRecord, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.List(ctx, ownerID, limit)
}

func (s *ReportService) record(ctx context.Context, run *domain.RunRecord) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Record(ctx, run); err != nil {
		s.logger.Error("Failed to record run", err, "session_id", run.SessionID, "kind", run.Kind)
	}
}

// checkStatusLine logs when the keyword scan and the STATUS line disagree.
func (s *ReportService) checkStatusLine(sessionID, text string, inconsistent bool) {
	status, ok := tagparse.StatusLine(text)
	if !ok {
		s.logger.Warn("Audit response has no STATUS line", "session_id", sessionID)
		return
	}
	statusSaysInconsistent := strings.Contains(strings.ToUpper(status), tagparse.InconsistentKeyword)
	if statusSaysInconsistent != inconsistent {
		s.logger.Warn("Audit STATUS line disagrees with keyword scan",
			"session_id", sessionID, "status", status, "inconsistent", inconsistent)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
