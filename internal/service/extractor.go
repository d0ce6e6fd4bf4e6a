package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"eia-drafter/internal/domain"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"
)

// MinUsableChars is the amount of text below which a file is flagged as a
// probable scanned image.
const MinUsableChars = 50

// pdfDocument is the subset of *fitz.Document the extractor uses.
type pdfDocument interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	Close() error
}

type openFunc func(data []byte) (pdfDocument, error)

func openFitz(data []byte) (pdfDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ExtractResult is the labeled text of one category plus anything the user
// should be told about unreadable input.
type ExtractResult struct {
	Text     string
	Warnings []string
}

// Extractor turns uploaded PDFs into labeled plain text.
type Extractor struct {
	logger      domain.Logger
	pageTimeout time.Duration
	open        openFunc
}

// NewExtractor creates a new extractor
func NewExtractor(logger domain.Logger, pageTimeout time.Duration) *Extractor {
	if pageTimeout <= 0 {
		pageTimeout = 90 * time.Second
	}
	return &Extractor{
		logger:      logger,
		pageTimeout: pageTimeout,
		open:        openFitz,
	}
}

// Extract concatenates the text of files under a per-file marker. It never
// fails: unreadable files become inline error markers so the prompt records
// the gap, and the batch continues.
func (e *Extractor) Extract(ctx context.Context, files []domain.SourceDocument, label string) ExtractResult {
	var res ExtractResult
	if len(files) == 0 {
		return res
	}

	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "--- %s: %s ---\n", label, f.Filename)

		text, err := e.extractFile(ctx, f)
		if err != nil {
			e.logger.Warn("Failed to read PDF", "file", f.Filename, "category", f.Category, "error", err)
			fmt.Fprintf(&b, "[ERRO: não foi possível ler %s: %s]\n", f.Filename, readReason(err))
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", f.Filename, readReason(err)))
			continue
		}

		b.WriteString(text)
		if usable := utf8.RuneCountInString(strings.TrimSpace(stripPageMarkers(text))); usable < MinUsableChars {
			e.logger.Warn("PDF has little extractable text", "file", f.Filename, "chars", usable)
			fmt.Fprintf(&b, "[AVISO: %s contém pouco texto extraível, possivelmente digitalizado]\n", f.Filename)
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: pouco texto extraível (%d caracteres), possivelmente digitalizado", f.Filename, usable))
		}
	}
	res.Text = b.String()
	return res
}

func (e *Extractor) extractFile(ctx context.Context, f domain.SourceDocument) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := e.open(f.Data)
	if err != nil {
		return "", err
	}
	// A timed-out page keeps running in the background; Close waits for it.
	var pending sync.WaitGroup
	defer func() {
		go func() {
			pending.Wait()
			doc.Close()
		}()
	}()

	type pageResult struct {
		text string
		err  error
	}

	var b strings.Builder
	numPages := doc.NumPage()
	for pageNum := 0; pageNum < numPages; pageNum++ {
		e.logger.Debug("PDF processing page", "file", f.Filename, "page", pageNum+1, "total", numPages)
		resultCh := make(chan pageResult, 1)
		pending.Add(1)
		go func(idx int) {
			defer pending.Done()
			t, err := doc.Text(idx)
			resultCh <- pageResult{text: t, err: err}
		}(pageNum)

		var text string
		var err error
		timer := time.NewTimer(e.pageTimeout)
		select {
		case res := <-resultCh:
			text, err = res.text, res.err
		case <-timer.C:
			err = fmt.Errorf("timeout after %v", e.pageTimeout)
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		}
		timer.Stop()
		if err != nil {
			e.logger.Warn("Failed to extract text from page", "file", f.Filename, "page", pageNum+1, "total", numPages, "error", err)
			continue
		}

		fmt.Fprintf(&b, "[Página %d]\n%s\n", pageNum+1, strings.TrimSpace(sanitizeText(text)))
	}
	return b.String(), nil
}

// ExtractAll extracts every category concurrently into its own slot.
func (e *Extractor) ExtractAll(ctx context.Context, docs []domain.SourceDocument) (domain.Corpora, []string, error) {
	grouped := domain.GroupByCategory(docs)
	results := make([]ExtractResult, len(domain.Categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range domain.Categories {
		files := grouped[c]
		if len(files) == 0 {
			continue
		}
		g.Go(func() error {
			results[i] = e.Extract(gctx, files, c.Label())
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	corpora := make(domain.Corpora, len(domain.Categories))
	var warnings []string
	for i, c := range domain.Categories {
		corpora[c] = results[i].Text
		warnings = append(warnings, results[i].Warnings...)
	}
	return corpora, warnings, nil
}

func readReason(err error) string {
	switch {
	case errors.Is(err, fitz.ErrNeedsPassword):
		return "documento protegido por palavra-passe"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "extração cancelada"
	default:
		return err.Error()
	}
}

func stripPageMarkers(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "[Página ") && strings.HasSuffix(line, "]") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// sanitizeText removes NUL and other control characters that break JSON
// encoding of the corpus, keeping tab and line breaks.
func sanitizeText(text string) string {
	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0x09 || r == 0x0A || r == 0x0D:
			result.WriteRune(r)
		case r < 0x20 || r == 0x7F:
			continue
		case r == utf8.RuneError:
			continue
		case r >= 0xD800 && r <= 0xDFFF:
			continue
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
