// Package template loads, validates, and writes the YAML template files
// the engine reconciles. The properties block of each file decodes into
// the typed struct registered for its template_type.
package template

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/accord-io/accord/internal/logging"
	"github.com/accord-io/accord/internal/model"
)

var (
	mu        sync.RWMutex
	factories = make(map[string]func() model.Properties)
)

// Register associates a template type with its property struct factory.
// Provider packages call this from init.
func Register(templateType string, factory func() model.Properties) {
	mu.Lock()
	defer mu.Unlock()
	factories[templateType] = factory
}

// RegisteredTypes returns all known template types, sorted.
func RegisteredTypes() []string {
	mu.RLock()
	defer mu.RUnlock()
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func factoryFor(templateType string) (func() model.Properties, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[templateType]
	return f, ok
}

// ParseError means the file is malformed or does not match the schema;
// the file cannot be processed further.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error: %s", e.Err)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError means the template parsed but violates a semantic
// constraint. Raised before any remote call is attempted.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("validation error: %s", e.Err)
	}
	return fmt.Sprintf("validation error in %s: %s", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// raw mirrors the file layout with the properties block left undecoded
// until the template type is known.
type raw struct {
	TemplateType      string            `yaml:"template_type"`
	Identifier        string            `yaml:"identifier"`
	Managed           model.ManagedMode `yaml:"managed,omitempty"`
	Deleted           bool              `yaml:"deleted,omitempty"`
	model.AccessScope `yaml:",inline"`
	model.ExpiryModel `yaml:",inline"`
	Properties        yaml.Node `yaml:"properties"`
}

// FromYAML deserializes one template document.
func FromYAML(data []byte) (*model.Template, error) {
	var r raw
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, &ParseError{Err: err}
	}
	if r.TemplateType == "" {
		return nil, &ParseError{Err: fmt.Errorf("missing template_type")}
	}
	factory, ok := factoryFor(r.TemplateType)
	if !ok {
		return nil, &ParseError{Err: fmt.Errorf("unknown template type %q", r.TemplateType)}
	}
	switch r.Managed {
	case model.ManagedUndefined, model.ManagedReadWrite, model.ManagedImportOnly:
	default:
		return nil, &ParseError{Err: fmt.Errorf("invalid managed mode %q", r.Managed)}
	}

	props := factory()
	if !r.Properties.IsZero() {
		if err := r.Properties.Decode(props); err != nil {
			return nil, &ParseError{Err: fmt.Errorf("properties: %w", err)}
		}
	}

	t := &model.Template{
		TemplateType: r.TemplateType,
		Identifier:   r.Identifier,
		Managed:      r.Managed,
		Deleted:      r.Deleted,
		AccessScope:  r.AccessScope,
		ExpiryModel:  r.ExpiryModel,
		Properties:   props,
	}
	if t.Identifier == "" {
		t.Identifier = props.ResourceID()
	}

	if v, ok := props.(model.Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &ValidationError{Err: err}
		}
	}
	return t, nil
}

// Load reads one template file.
func Load(path string) (*model.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := FromYAML(data)
	if err != nil {
		switch e := err.(type) {
		case *ParseError:
			e.Path = path
		case *ValidationError:
			e.Path = path
		}
		return nil, err
	}
	t.FilePath = path
	return t, nil
}

// outShape controls serialization field order; unset and default fields
// are omitted so file diffs stay minimal.
type outShape struct {
	TemplateType      string            `yaml:"template_type"`
	Identifier        string            `yaml:"identifier"`
	Managed           model.ManagedMode `yaml:"managed,omitempty"`
	Deleted           bool              `yaml:"deleted,omitempty"`
	model.AccessScope `yaml:",inline"`
	model.ExpiryModel `yaml:",inline"`
	Properties        model.Properties `yaml:"properties"`
}

// Marshal serializes a template in file layout.
func Marshal(t *model.Template) ([]byte, error) {
	out := outShape{
		TemplateType: t.TemplateType,
		Identifier:   t.Identifier,
		Managed:      t.Managed,
		Deleted:      t.Deleted,
		AccessScope:  t.AccessScope,
		ExpiryModel:  t.ExpiryModel,
		Properties:   t.Properties,
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write persists the template back to its file, only touching disk when
// the content actually changed.
func Write(t *model.Template) error {
	if t.FilePath == "" {
		return fmt.Errorf("template %s has no file path", t.Identifier)
	}
	data, err := Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal template %s: %w", t.Identifier, err)
	}
	if current, err := os.ReadFile(t.FilePath); err == nil && bytes.Equal(current, data) {
		return nil
	}
	return os.WriteFile(t.FilePath, data, 0644)
}

// Finalize persists the post-apply fate of a template: the file is
// removed after a fully successful delete apply, otherwise rewritten so
// provider-assigned identifiers discovered during create survive.
func Finalize(t *model.Template, details *model.TemplateChangeDetails) error {
	if t.Deleted && (details == nil || len(details.ExceptionsSeen) == 0) {
		if err := os.Remove(t.FilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove template file %s: %w", t.FilePath, err)
		}
		logging.Info("template file removed after delete",
			"resource_id", t.Identifier, "path", t.FilePath)
		return nil
	}
	return Write(t)
}
