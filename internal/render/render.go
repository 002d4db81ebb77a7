// Package render turns denormalized records into legacy-format text.
package render

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrMissingData marks a record that lacks a field the template needs.
// It is a data-completeness failure, distinct from transport errors.
var ErrMissingData = errors.New("render: record is missing data")

// Renderer renders one record at a time through a fixed template.
type Renderer struct {
	tmpl *template.Template
}

// New parses a template. Missing map keys fail the render instead of
// printing "<no value>".
func New(name, text string) (*Renderer, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustNew is New for templates compiled into the binary.
func MustNew(name, text string) *Renderer {
	r, err := New(name, text)
	if err != nil {
		panic(err)
	}
	return r
}

// Render produces the legacy text for one record.
func (r *Renderer) Render(rec map[string]any) (string, error) {
	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, rec); err != nil {
		if strings.Contains(err.Error(), "map has no entry for key") {
			return "", fmt.Errorf("%w: %v", ErrMissingData, err)
		}
		return "", fmt.Errorf("render %s: %w", r.tmpl.Name(), err)
	}
	return sb.String(), nil
}

// RenderList renders a batch of records, joined with newlines.
func (r *Renderer) RenderList(recs []map[string]any) (string, error) {
	parts := make([]string, 0, len(recs))
	for _, rec := range recs {
		s, err := r.Render(rec)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n"), nil
}
