package domain

import (
	"context"
	"strings"
	"unicode/utf8"
)

// ErrorMarker prefixes the sentinel text returned when generation fails.
const ErrorMarker = "❌ ERRO IA:"

// SentinelMaxLen bounds the length of a sentinel; a real report is always longer.
const SentinelMaxLen = 600

// GenerationRequest is an assembled prompt addressed to one model.
type GenerationRequest struct {
	Prompt string
	Model  string
}

// GenerationResult is the raw text returned by the generation service, or a sentinel.
type GenerationResult struct {
	Text     string
	Model    string
	Attempts int
	Err      error
}

// Failed reports a result carrying an error, or text matching the marker plus
// short-length heuristic callers use to detect a sentinel.
func (r GenerationResult) Failed() bool {
	if r.Err != nil {
		return true
	}
	return strings.HasPrefix(strings.TrimSpace(r.Text), ErrorMarker) &&
		utf8.RuneCountInString(r.Text) < SentinelMaxLen
}

// Sentinel builds the failure text for msg. msg is cut so the result always
// stays below SentinelMaxLen runes.
func Sentinel(msg string) string {
	prefix := ErrorMarker + " "
	limit := SentinelMaxLen - 1 - utf8.RuneCountInString(prefix)
	if r := []rune(msg); len(r) > limit {
		msg = string(r[:limit-1]) + "…"
	}
	return prefix + msg
}

// ModelInfo describes a model the generation service can use for text generation.
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// TextGenerator is the narrow port to the remote text-generation service.
// Implementations return an error wrapping ErrRateLimited when the service
// reports resource exhaustion.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, model string) (string, error)
	Models(ctx context.Context) ([]ModelInfo, error)
	// Ready reports whether credentials are present for this backend.
	Ready(ctx context.Context) error
	Close() error
}
