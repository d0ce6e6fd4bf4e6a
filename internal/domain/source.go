package domain

import (
	"fmt"
	"strings"
)

// Category identifies which slot of the submission an uploaded file belongs to.
type Category string

const (
	CategorySimulation Category = "simulation"
	CategoryForm       Category = "form"
	CategoryProject    Category = "project"
	CategoryRegulation Category = "regulation"
)

// Categories lists every category in the order they are presented to the model.
var Categories = []Category{
	CategorySimulation,
	CategoryForm,
	CategoryProject,
	CategoryRegulation,
}

// Required reports whether a run cannot proceed without this category.
func (c Category) Required() bool {
	return c != CategoryRegulation
}

// Label is the human-readable name used in source markers inside a corpus.
func (c Category) Label() string {
	switch c {
	case CategorySimulation:
		return "SIMULAÇÃO"
	case CategoryForm:
		return "FORMULÁRIO"
	case CategoryProject:
		return "MEMÓRIA DESCRITIVA"
	case CategoryRegulation:
		return "LEGISLAÇÃO LOCAL"
	default:
		return strings.ToUpper(string(c))
	}
}

// ParseCategory maps a form field name to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", s)}
}

// SourceDocument is one uploaded file. It is read once and discarded after extraction.
type SourceDocument struct {
	Category Category
	Filename string
	Data     []byte
}

// Corpora holds the extracted text per category.
type Corpora map[Category]string

// Get returns the corpus for c, or "" when nothing was extracted.
func (c Corpora) Get(cat Category) string {
	if c == nil {
		return ""
	}
	return c[cat]
}

// Missing returns the required categories with no uploaded file.
func Missing(uploaded map[Category]int) []Category {
	var missing []Category
	for _, c := range Categories {
		if c.Required() && uploaded[c] == 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

// GroupByCategory splits docs into per-category slices, preserving upload order.
func GroupByCategory(docs []SourceDocument) map[Category][]SourceDocument {
	grouped := make(map[Category][]SourceDocument, len(Categories))
	for _, d := range docs {
		grouped[d.Category] = append(grouped[d.Category], d)
	}
	return grouped
}
