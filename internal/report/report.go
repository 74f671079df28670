// Package report persists the structured outcome of a plan or apply run.
// The engine's change details are written as-is; rendering them for
// humans is the CLI's concern.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/accord-io/accord/internal/model"
)

// Report is the artifact of one run.
type Report struct {
	RunID     string                         `yaml:"run_id"`
	Command   string                         `yaml:"command"`
	EvalOnly  bool                           `yaml:"eval_only"`
	CreatedAt time.Time                      `yaml:"created_at"`
	Templates []*model.TemplateChangeDetails `yaml:"templates"`
}

// New starts a report for one run.
func New(execCtx model.ExecutionContext) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Command:   execCtx.Command,
		EvalOnly:  execCtx.EvalOnly,
		CreatedAt: time.Now().UTC(),
	}
}

// Add records one template's outcome.
func (r *Report) Add(details *model.TemplateChangeDetails) {
	r.Templates = append(r.Templates, details)
}

// ByTemplate returns the outcome for the template at path, or nil.
func (r *Report) ByTemplate(path string) *model.TemplateChangeDetails {
	for _, t := range r.Templates {
		if t.TemplatePath == path {
			return t
		}
	}
	return nil
}

// Exceptions returns every exception across all templates.
func (r *Report) Exceptions() []string {
	var out []string
	for _, t := range r.Templates {
		out = append(out, t.ExceptionsSeen...)
	}
	return out
}

// Sink writes a finished report somewhere and returns its location.
type Sink interface {
	Write(ctx context.Context, r *Report) (string, error)
}
