package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"eia-drafter/internal/domain"
	"eia-drafter/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuns struct {
	mu   sync.Mutex
	runs []domain.RunRecord
}

func (f *fakeRuns) Record(ctx context.Context, run *domain.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeRuns) List(ctx context.Context, ownerID string, limit int) ([]*domain.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.RunRecord
	for i := range f.runs {
		if f.runs[i].OwnerID == ownerID {
			r := f.runs[i]
			out = append(out, &r)
		}
	}
	return out, nil
}

type fakeArchive struct {
	paths []string
	err   error
}

func (f *fakeArchive) Store(ctx context.Context, path string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.paths = append(f.paths, path)
	return "reports/" + path, nil
}

type serviceFixture struct {
	svc     *ReportService
	backend *fakeBackend
	runs    *fakeRuns
	archive *fakeArchive
	clock   *fakeClock
}

func newServiceFixture(t *testing.T, responses ...string) *serviceFixture {
	t.Helper()
	backend := &fakeBackend{}
	if len(responses) > 0 {
		backend.text = responses[0]
	}
	clock := &fakeClock{}
	extractor := NewExtractor(NewMockLogger(), time.Second)
	extractor.open = func(data []byte) (pdfDocument, error) {
		if string(data) == "corrupt" {
			return nil, errors.New("cannot open")
		}
		return &fakePDF{pages: []string{string(data)}}, nil
	}
	gen := NewGenerator(backend, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Sleep: clock.Sleep}, 0, "gemini-2.5-pro", NewMockLogger())
	runs := &fakeRuns{}
	archive := &fakeArchive{}
	svc := NewReportService(extractor, gen, runs, archive, NewMockLogger())
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC) }
	return &serviceFixture{svc: svc, backend: backend, runs: runs, archive: archive, clock: clock}
}

func uploadAll(t *testing.T, f *serviceFixture) session.Session {
	t.Helper()
	sess := session.New("s-1", "user-1", time.Now())
	sess, err := f.svc.Upload(context.Background(), sess, []domain.SourceDocument{
		{Category: domain.CategorySimulation, Filename: "sim.pdf", Data: []byte(strings.Repeat("simulação ", 10))},
		{Category: domain.CategoryForm, Filename: "form.pdf", Data: []byte(strings.Repeat("formulário ", 10))},
		{Category: domain.CategoryProject, Filename: "mem.pdf", Data: []byte(strings.Repeat("memória ", 10))},
	})
	require.NoError(t, err)
	return sess
}

func TestReportService_UploadStoresCorpora(t *testing.T) {
	f := newServiceFixture(t)
	sess := uploadAll(t, f)

	assert.Equal(t, []string{"sim.pdf"}, sess.Files[domain.CategorySimulation])
	assert.True(t, strings.HasPrefix(sess.Corpora.Get(domain.CategoryProject), "--- MEMÓRIA DESCRITIVA: mem.pdf ---"))
	assert.Equal(t, "", sess.Corpora.Get(domain.CategoryRegulation))
	assert.Empty(t, sess.Warnings)
	assert.Equal(t, 1, sess.UploadGeneration)
}

func TestReportService_UploadReplacesCategoryAndDropsReports(t *testing.T) {
	f := newServiceFixture(t, "STATUS: VALIDADO\n## 1. Resumo Executivo")
	sess := uploadAll(t, f)
	sess, err := f.svc.RunAudit(context.Background(), sess, "")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Reports[domain.ReportAudit])

	sess, err = f.svc.Upload(context.Background(), sess, []domain.SourceDocument{
		{Category: domain.CategoryForm, Filename: "broken.pdf", Data: []byte("corrupt")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"broken.pdf"}, sess.Files[domain.CategoryForm])
	assert.Equal(t, []string{"sim.pdf"}, sess.Files[domain.CategorySimulation])
	assert.Contains(t, sess.Corpora.Get(domain.CategoryForm), "[ERRO: não foi possível ler broken.pdf: cannot open]")
	assert.Len(t, sess.Warnings, 1)
	assert.Empty(t, sess.Reports)
}

func TestReportService_UploadRequiresFiles(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.svc.Upload(context.Background(), session.New("s", "", time.Now()), nil)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReportService_PreflightMissingCategories(t *testing.T) {
	f := newServiceFixture(t, "unused")
	sess := session.New("s-1", "", time.Now())
	sess.Files[domain.CategorySimulation] = []string{"sim.pdf"}

	_, err := f.svc.RunAudit(context.Background(), sess, "")

	require.ErrorIs(t, err, domain.ErrMissingCategory)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "form, project")
	assert.Equal(t, 0, f.backend.calls)
}

func TestReportService_PreflightGeneratorNotReady(t *testing.T) {
	f := newServiceFixture(t, "unused")
	f.backend.readyErr = domain.ErrGeneratorUnavailable
	sess := uploadAll(t, f)

	_, err := f.svc.RunDecision(context.Background(), sess, "")

	assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
	assert.Equal(t, 0, f.backend.calls)
}

func TestReportService_RunAudit(t *testing.T) {
	f := newServiceFixture(t, "STATUS: INCONSISTENTE\n## 1. Resumo Executivo\nÁrea divergente.")
	sess := uploadAll(t, f)

	out, err := f.svc.RunAudit(context.Background(), sess, "gemini-2.5-flash")

	require.NoError(t, err)
	assert.True(t, out.AuditInconsistent)
	assert.NotEmpty(t, out.Reports[domain.ReportAudit])
	assert.Equal(t, "gemini-2.5-flash", f.backend.models[0])
	assert.Contains(t, f.backend.prompts[0], "--- SIMULAÇÃO: sim.pdf ---")
	assert.Equal(t, []string{"user-1/s-1/1/Relatorio_Validacao.docx"}, f.archive.paths)

	require.Len(t, f.runs.runs, 1)
	run := f.runs.runs[0]
	assert.True(t, run.Succeeded)
	assert.True(t, run.Inconsistent)
	assert.Equal(t, "reports/user-1/s-1/1/Relatorio_Validacao.docx", run.ArchivePath)

	// The input session is not modified.
	assert.Empty(t, sess.Reports)
}

func TestReportService_RunDecisionParsesFields(t *testing.T) {
	f := newServiceFixture(t, "### CAMPO_DESIGNACAO\nAcme Plant\n### CAMPO_DECISAO\nNOT SUBJECT\n### CAMPO_CONDICIONANTES\nMonitor quarterly.")
	sess := uploadAll(t, f)

	out, err := f.svc.RunDecision(context.Background(), sess, "")

	require.NoError(t, err)
	assert.Equal(t, "Acme Plant", out.DecisionFields.Get("CAMPO_DESIGNACAO"))
	assert.Equal(t, "NOT SUBJECT", out.DecisionFields.Get("CAMPO_DECISAO"))
	assert.Equal(t, domain.Placeholder, out.DecisionFields.Get("CAMPO_PROPONENTE"))
	assert.NotEmpty(t, out.Reports[domain.ReportDecision])
	assert.Equal(t, "gemini-2.5-pro", f.backend.models[0])
	assert.Contains(t, f.backend.prompts[0], "### CAMPO_ENTIDADE_LICENCIADORA")
	assert.Equal(t, 8, f.runs.runs[0].Placeholders)
}

func TestReportService_FailedGenerationStoresSentinel(t *testing.T) {
	f := newServiceFixture(t, "never")
	f.backend.errs = []error{rateLimited(), rateLimited(), rateLimited()}
	sess := uploadAll(t, f)

	out, err := f.svc.RunAudit(context.Background(), sess, "")

	var genErr *GenerationFailedError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Empty(t, out.Reports[domain.ReportAudit])
	assert.True(t, strings.HasPrefix(out.Failures[domain.ReportAudit], domain.ErrorMarker))
	assert.Equal(t, 3, f.backend.calls)
	assert.Empty(t, f.archive.paths)
	require.Len(t, f.runs.runs, 1)
	assert.False(t, f.runs.runs[0].Succeeded)
	assert.Equal(t, 3, f.runs.runs[0].Attempts)
}

func TestReportService_RunAllSequential(t *testing.T) {
	f := newServiceFixture(t, "STATUS: VALIDADO\n### CAMPO_DECISAO\nNÃO SUJEITO A AIA")
	sess := uploadAll(t, f)

	out, err := f.svc.RunAll(context.Background(), sess, "")

	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.calls)
	assert.Contains(t, f.backend.prompts[0], "PERITO AUDITOR")
	assert.Contains(t, f.backend.prompts[1], "minuta de decisão")
	assert.ElementsMatch(t, []domain.ReportKind{domain.ReportAudit, domain.ReportDecision}, out.Available())
	assert.False(t, out.AuditInconsistent)
}

func TestReportService_RunAllContinuesAfterAuditFailure(t *testing.T) {
	f := newServiceFixture(t, "### CAMPO_DECISAO\nSUJEITO A AIA")
	f.backend.errs = []error{errors.New("permission denied")}
	sess := uploadAll(t, f)

	out, err := f.svc.RunAll(context.Background(), sess, "")

	require.Error(t, err)
	assert.Contains(t, out.Failures[domain.ReportAudit], "permission denied")
	assert.NotEmpty(t, out.Reports[domain.ReportDecision])
}

func TestReportService_ArchiveFailureIsNotFatal(t *testing.T) {
	f := newServiceFixture(t, "STATUS: VALIDADO")
	f.archive.err = errors.New("bucket missing")
	sess := uploadAll(t, f)

	out, err := f.svc.RunAudit(context.Background(), sess, "")

	require.NoError(t, err)
	assert.NotEmpty(t, out.Reports[domain.ReportAudit])
	assert.Empty(t, f.runs.runs[0].ArchivePath)
}

func TestReportService_LongBackendErrorIsNotRendered(t *testing.T) {
	f := newServiceFixture(t, "never")
	f.backend.errs = []error{errors.New("GenAI generate failed: Error 400, Message: " + strings.Repeat("x", 700))}
	sess := uploadAll(t, f)

	out, err := f.svc.RunAudit(context.Background(), sess, "")

	var genErr *GenerationFailedError
	require.ErrorAs(t, err, &genErr)
	assert.Empty(t, out.Reports[domain.ReportAudit])
	assert.False(t, out.AuditInconsistent)
	assert.Empty(t, out.AuditText)
	assert.Less(t, utf8.RuneCountInString(out.Failures[domain.ReportAudit]), domain.SentinelMaxLen)
	assert.Empty(t, f.archive.paths)
	require.Len(t, f.runs.runs, 1)
	assert.False(t, f.runs.runs[0].Succeeded)
}

func TestReportService_RunAllChecksReadinessOnce(t *testing.T) {
	f := newServiceFixture(t, "STATUS: VALIDADO\n### CAMPO_DECISAO\nNÃO SUJEITO A AIA")
	sess := uploadAll(t, f)

	_, err := f.svc.RunAll(context.Background(), sess, "")

	require.NoError(t, err)
	assert.Equal(t, 1, f.backend.readyCalls)
	assert.Equal(t, 2, f.backend.calls)
}
