// Package templates holds the report descriptors: the prompt body, the corpus
// budgets and, for table layouts, the sections the model fields are placed in.
package templates

import (
	"embed"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"eia-drafter/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var builtin embed.FS

// FieldKind controls how a field is laid out in a table report.
type FieldKind string

const (
	FieldShort   FieldKind = "short"
	FieldLong    FieldKind = "long"
	FieldOutcome FieldKind = "outcome"
)

// Field binds a response tag to its label in the rendered document.
type Field struct {
	Tag   string    `yaml:"tag"`
	Label string    `yaml:"label"`
	Kind  FieldKind `yaml:"kind"`
}

// Section is a titled group of fields.
type Section struct {
	Title  string  `yaml:"title"`
	Fields []Field `yaml:"fields"`
}

// Descriptor configures one run of the report pipeline.
type Descriptor struct {
	ID          string                  `yaml:"id"`
	Layout      domain.Layout           `yaml:"layout"`
	Title       string                  `yaml:"title"`
	Subtitle    string                  `yaml:"subtitle"`
	ModelHint   string                  `yaml:"model_hint"`
	Budgets     map[domain.Category]int `yaml:"budgets"`
	Legislation []string                `yaml:"legislation"`
	Sections    []Section               `yaml:"sections"`
	Prompt      string                  `yaml:"prompt"`

	tmpl *template.Template
}

// Parse decodes and validates a YAML descriptor.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	tmpl, err := template.New(d.ID).Option("missingkey=zero").Parse(d.Prompt)
	if err != nil {
		return nil, fmt.Errorf("parse prompt of %s: %w", d.ID, err)
	}
	d.tmpl = tmpl
	return &d, nil
}

func (d *Descriptor) validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return &domain.ValidationError{Field: "id", Message: "descriptor id is required"}
	}
	switch d.Layout {
	case domain.LayoutAudit:
	case domain.LayoutDecision:
		if len(d.Tags()) == 0 {
			return &domain.ValidationError{Field: "sections", Message: d.ID + ": decision layout needs at least one field"}
		}
	default:
		return &domain.ValidationError{Field: "layout", Message: fmt.Sprintf("%s: unknown layout %q", d.ID, d.Layout)}
	}
	for c, n := range d.Budgets {
		if _, err := domain.ParseCategory(string(c)); err != nil {
			return err
		}
		if n <= 0 {
			return &domain.ValidationError{Field: "budgets", Message: fmt.Sprintf("%s: budget for %s must be positive", d.ID, c)}
		}
	}
	seen := make(map[string]bool)
	for _, s := range d.Sections {
		for _, f := range s.Fields {
			if f.Tag == "" {
				return &domain.ValidationError{Field: "sections", Message: d.ID + ": field without tag"}
			}
			if seen[f.Tag] {
				return &domain.ValidationError{Field: "sections", Message: d.ID + ": duplicate tag " + f.Tag}
			}
			seen[f.Tag] = true
		}
	}
	return nil
}

// Tags lists the field tags in section order.
func (d *Descriptor) Tags() []string {
	var tags []string
	for _, s := range d.Sections {
		for _, f := range s.Fields {
			tags = append(tags, f.Tag)
		}
	}
	return tags
}

// Budget returns the character budget for c; zero means unbounded.
func (d *Descriptor) Budget(c domain.Category) int {
	return d.Budgets[c]
}

// Execute renders the prompt body with data.
func (d *Descriptor) Execute(w io.Writer, data any) error {
	if d.tmpl == nil {
		return fmt.Errorf("descriptor %s was not parsed", d.ID)
	}
	return d.tmpl.Execute(w, data)
}

var (
	loadOnce sync.Once
	registry map[string]*Descriptor
	loadErr  error
)

func loadBuiltin() {
	registry = make(map[string]*Descriptor)
	entries, err := builtin.ReadDir(".")
	if err != nil {
		loadErr = err
		return
	}
	for _, e := range entries {
		data, err := builtin.ReadFile(path.Join(".", e.Name()))
		if err != nil {
			loadErr = err
			return
		}
		d, err := Parse(data)
		if err != nil {
			loadErr = fmt.Errorf("%s: %w", e.Name(), err)
			return
		}
		registry[d.ID] = d
	}
}

// Get returns the built-in descriptor with the given id.
func Get(id string) (*Descriptor, error) {
	loadOnce.Do(loadBuiltin)
	if loadErr != nil {
		return nil, loadErr
	}
	d, ok := registry[id]
	if !ok {
		return nil, &domain.ValidationError{Field: "template", Message: "unknown template " + id}
	}
	return d, nil
}

// ForKind returns the descriptor used to produce a report kind.
func ForKind(kind domain.ReportKind) (*Descriptor, error) {
	return Get(string(kind))
}

// IDs lists the built-in descriptor ids.
func IDs() []string {
	loadOnce.Do(loadBuiltin)
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
