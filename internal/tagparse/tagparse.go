// Package tagparse extracts named fields from model output delimited by
// "### TAG" markers.
//
// Grammar:
//
//	marker := "###" " "* TAG
//	body   := <any text up to the next "###" or end of input>
//	value  := TrimSpace(body)
//
// TAG must be followed by a rune that cannot be part of a tag name (or by the
// end of input), so CAMPO_DECISAO never matches CAMPO_DECISAO_FUNDAMENTO.
package tagparse

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"eia-drafter/internal/domain"
)

// MarkerPrefix is the generic sequence that opens a tag and terminates a body.
const MarkerPrefix = "###"

// Policy decides which occurrence wins when a tag appears more than once.
type Policy int

const (
	// FirstOccurrence treats the first answer as authoritative.
	FirstOccurrence Policy = iota
	// LastOccurrence keeps the final answer the model gave for a tag.
	LastOccurrence
)

// Parser extracts fields under an explicit duplicate-tag policy.
type Parser struct {
	Policy Policy
}

// Default uses FirstOccurrence.
var Default = Parser{Policy: FirstOccurrence}

// ExtractField returns the trimmed body following tag, or domain.Placeholder.
func ExtractField(response, tag string) string {
	return Default.ExtractField(response, tag)
}

// ExtractField returns the trimmed body following tag, or domain.Placeholder.
func (p Parser) ExtractField(response, tag string) string {
	v, ok := p.Lookup(response, tag)
	if !ok {
		return domain.Placeholder
	}
	return v
}

// Lookup returns the trimmed body following tag and whether the tag was present.
func (p Parser) Lookup(response, tag string) (string, bool) {
	starts := markerEnds(response, tag)
	if len(starts) == 0 {
		return "", false
	}
	start := starts[0]
	if p.Policy == LastOccurrence {
		start = starts[len(starts)-1]
	}
	body := response[start:]
	if next := strings.Index(body, MarkerPrefix); next >= 0 {
		body = body[:next]
	}
	return strings.TrimSpace(body), true
}

// Parse builds a FieldMap for tags in the given order.
func (p Parser) Parse(response string, tags []string) domain.FieldMap {
	fields := domain.NewFieldMap()
	for _, tag := range tags {
		fields.Set(tag, p.ExtractField(response, tag))
	}
	return fields
}

// Parse builds a FieldMap with the default policy.
func Parse(response string, tags []string) domain.FieldMap {
	return Default.Parse(response, tags)
}

// Occurrences counts how many times tag is opened in response.
func Occurrences(response, tag string) int {
	return len(markerEnds(response, tag))
}

// markerEnds returns, for each "### TAG" occurrence, the byte offset just past TAG.
func markerEnds(response, tag string) []int {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}
	var ends []int
	offset := 0
	for {
		i := strings.Index(response[offset:], MarkerPrefix)
		if i < 0 {
			return ends
		}
		pos := offset + i + len(MarkerPrefix)
		// Runs of '#' longer than three are not a different marker.
		for pos < len(response) && response[pos] == '#' {
			pos++
		}
		for pos < len(response) && (response[pos] == ' ' || response[pos] == '\t') {
			pos++
		}
		if strings.HasPrefix(response[pos:], tag) && boundaryAt(response, pos+len(tag)) {
			ends = append(ends, pos+len(tag))
		}
		offset = pos
	}
}

func boundaryAt(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}
