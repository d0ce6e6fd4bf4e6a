package session

import (
	"testing"
	"time"

	"eia-drafter/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populated(now time.Time) Session {
	s := New("s-1", "user-1", now)
	s.Files[domain.CategoryProject] = []string{"memoria.pdf"}
	s.Corpora[domain.CategoryProject] = "text"
	s.AuditText = "STATUS: VALIDADO"
	s.Reports[domain.ReportAudit] = []byte("docx")
	s.Failures[domain.ReportDecision] = domain.Sentinel("quota")
	s.DecisionFields.Set("CAMPO_DECISAO", "NÃO SUJEITO")
	return s
}

func TestReset_IsPureAndBumpsGeneration(t *testing.T) {
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s := populated(created)
	s.UploadGeneration = 4

	fresh := Reset(s, created.Add(time.Hour))

	assert.Equal(t, "s-1", fresh.ID)
	assert.Equal(t, "user-1", fresh.OwnerID)
	assert.Equal(t, 5, fresh.UploadGeneration)
	assert.Equal(t, created, fresh.CreatedAt)
	assert.Empty(t, fresh.Files)
	assert.Empty(t, fresh.Corpora)
	assert.Empty(t, fresh.Reports)
	assert.Empty(t, fresh.AuditText)
	assert.Equal(t, 0, fresh.DecisionFields.Len())

	// The input is untouched.
	assert.Equal(t, 4, s.UploadGeneration)
	assert.Equal(t, "STATUS: VALIDADO", s.AuditText)
	assert.Len(t, s.Reports, 1)
}

func TestClone_IsDeep(t *testing.T) {
	s := populated(time.Now())
	c := s.Clone()

	c.Files[domain.CategoryProject][0] = "other.pdf"
	c.Reports[domain.ReportAudit][0] = 'X'
	c.Corpora[domain.CategoryForm] = "new"
	c.DecisionFields.Set("CAMPO_DECISAO", "SUJEITO")

	assert.Equal(t, "memoria.pdf", s.Files[domain.CategoryProject][0])
	assert.Equal(t, byte('d'), s.Reports[domain.ReportAudit][0])
	assert.Equal(t, "", s.Corpora.Get(domain.CategoryForm))
	assert.Equal(t, "NÃO SUJEITO", s.DecisionFields.Get("CAMPO_DECISAO"))
}

func TestUploadedAndAvailable(t *testing.T) {
	s := populated(time.Now())
	assert.Equal(t, map[domain.Category]int{domain.CategoryProject: 1}, s.Uploaded())
	assert.Equal(t, []domain.ReportKind{domain.ReportAudit}, s.Available())
}

func TestStore_OwnerIsolation(t *testing.T) {
	store := NewStore(time.Hour)
	a := store.Create("alice")

	_, err := store.Get(a.ID, "bob")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(a.ID, "bob"), domain.ErrSessionNotFound)

	got, err := store.Get(a.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestStore_SaveAndStale(t *testing.T) {
	store := NewStore(0)
	s := store.Create("")

	running := s
	running.AuditText = "from a run started before reset"

	reset := Reset(s, time.Now())
	require.NoError(t, store.Save(reset))

	assert.ErrorIs(t, store.Save(running), ErrStale)

	got, err := store.Get(s.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, got.UploadGeneration)
	assert.Empty(t, got.AuditText)
}

func TestStore_SaveResultsKeepsConcurrentRuns(t *testing.T) {
	store := NewStore(0)
	s := store.Create("u")

	auditRun, err := store.Get(s.ID, "u")
	require.NoError(t, err)
	decisionRun, err := store.Get(s.ID, "u")
	require.NoError(t, err)

	auditRun.Reports[domain.ReportAudit] = []byte("audit-docx")
	auditRun.AuditText = "STATUS: VALIDADO"
	decisionRun.Reports[domain.ReportDecision] = []byte("decision-docx")
	decisionRun.DecisionFields.Set("CAMPO_DECISAO", "SUJEITO A AIA")

	require.NoError(t, store.SaveResults(auditRun, domain.ReportAudit))
	require.NoError(t, store.SaveResults(decisionRun, domain.ReportDecision))

	got, err := store.Get(s.ID, "u")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.ReportKind{domain.ReportAudit, domain.ReportDecision}, got.Available())
	assert.Equal(t, "STATUS: VALIDADO", got.AuditText)
	assert.Equal(t, "SUJEITO A AIA", got.DecisionFields.Get("CAMPO_DECISAO"))
}

func TestStore_SaveResultsReplacesOnlyItsKind(t *testing.T) {
	store := NewStore(0)
	s := store.Create("u")
	s.Reports[domain.ReportAudit] = []byte("old-audit")
	s.Reports[domain.ReportDecision] = []byte("decision")
	require.NoError(t, store.Save(s))

	failed, _ := store.Get(s.ID, "u")
	delete(failed.Reports, domain.ReportAudit)
	delete(failed.Reports, domain.ReportDecision)
	failed.Failures[domain.ReportAudit] = domain.Sentinel("quota")

	require.NoError(t, store.SaveResults(failed, domain.ReportAudit))

	got, _ := store.Get(s.ID, "u")
	assert.Equal(t, []domain.ReportKind{domain.ReportDecision}, got.Available())
	assert.Equal(t, domain.Sentinel("quota"), got.Failures[domain.ReportAudit])
}

func TestStore_SaveResultsRejectsRunFromOldUpload(t *testing.T) {
	store := NewStore(0)
	s := store.Create("u")
	running, _ := store.Get(s.ID, "u")

	uploaded := s
	uploaded.UploadGeneration++
	require.NoError(t, store.Save(uploaded))

	running.Reports[domain.ReportAudit] = []byte("audit")
	assert.ErrorIs(t, store.SaveResults(running, domain.ReportAudit), ErrStale)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := NewStore(0)
	s := store.Create("u")
	s.Files[domain.CategoryForm] = []string{"f.pdf"}
	require.NoError(t, store.Save(s))

	got, _ := store.Get(s.ID, "u")
	got.Files[domain.CategoryForm][0] = "mutated.pdf"

	again, _ := store.Get(s.ID, "u")
	assert.Equal(t, "f.pdf", again.Files[domain.CategoryForm][0])
}

func TestStore_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(30 * time.Minute)
	store.now = func() time.Time { return now }

	old := store.Create("u")
	now = now.Add(20 * time.Minute)
	fresh := store.Create("u")
	now = now.Add(20 * time.Minute)

	_, err := store.Get(old.ID, "u")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
	_, err = store.Get(fresh.ID, "u")
	assert.NoError(t, err)
}
