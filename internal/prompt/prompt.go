// Package prompt assembles the text sent to the generation service from a
// descriptor and the extracted corpora.
package prompt

import (
	"strings"
	"unicode/utf8"

	"eia-drafter/internal/domain"
	"eia-drafter/internal/templates"
)

// Data is the value the descriptor prompt templates are executed with.
type Data struct {
	Simulation  string
	Form        string
	Project     string
	Regulation  string
	Legislation string
	Tags        []string
}

// Truncate cuts s to at most n characters. Strings already within the budget,
// and non-positive budgets, leave s untouched.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// NewData truncates each corpus to the descriptor's budget.
func NewData(d *templates.Descriptor, corpora domain.Corpora) Data {
	cut := func(c domain.Category) string {
		return Truncate(corpora.Get(c), d.Budget(c))
	}
	return Data{
		Simulation:  cut(domain.CategorySimulation),
		Form:        cut(domain.CategoryForm),
		Project:     cut(domain.CategoryProject),
		Regulation:  cut(domain.CategoryRegulation),
		Legislation: strings.Join(d.Legislation, ", "),
		Tags:        d.Tags(),
	}
}

// Build renders the descriptor prompt. Corpus text is interpolated verbatim.
func Build(d *templates.Descriptor, corpora domain.Corpora) (string, error) {
	var b strings.Builder
	if err := d.Execute(&b, NewData(d, corpora)); err != nil {
		return "", err
	}
	return b.String(), nil
}
