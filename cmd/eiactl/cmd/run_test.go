package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"eia-drafter/internal/domain"
	"eia-drafter/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	sim := filepath.Join(dir, "sim.pdf")
	form := filepath.Join(dir, "form.pdf")
	require.NoError(t, os.WriteFile(sim, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(form, []byte("b"), 0o644))

	files := map[domain.Category]*[]string{}
	for _, c := range domain.Categories {
		files[c] = new([]string)
	}
	*files[domain.CategoryForm] = []string{form}
	*files[domain.CategorySimulation] = []string{sim}

	docs, err := readDocuments(files)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, domain.CategorySimulation, docs[0].Category)
	assert.Equal(t, "sim.pdf", docs[0].Filename)
	assert.Equal(t, domain.CategoryForm, docs[1].Category)
}

func TestReadDocuments_Empty(t *testing.T) {
	files := map[domain.Category]*[]string{}
	for _, c := range domain.Categories {
		files[c] = new([]string)
	}
	_, err := readDocuments(files)
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	s := session.New("s", "", time.Now())
	s.Reports[domain.ReportAudit] = []byte("docx")
	s.AuditInconsistent = true
	s.Reports[domain.ReportDecision] = []byte("docx")
	s.DecisionFields.Set("CAMPO_DECISAO", domain.Placeholder)
	s.Model = "gemini-2.5-pro"

	var buf bytes.Buffer
	printSummary(&buf, s)

	assert.Contains(t, buf.String(), "audit: INCONSISTÊNCIAS DETETADAS")
	assert.Contains(t, buf.String(), "decision: 1 field(s) left as")
	assert.Contains(t, buf.String(), "model: gemini-2.5-pro")
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"models", "audit", "decision", "run"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
