package model

// ChangeType identifies one kind of atomic difference between declared
// and remote state.
type ChangeType string

const (
	ChangeCreate ChangeType = "CREATE"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
	ChangeAttach ChangeType = "ATTACH"
	ChangeDetach ChangeType = "DETACH"
)

// ProposedChange is one atomic, typed description of a difference between
// declared and remote state. A change with a non-empty ExceptionsSeen is
// a failed attempt, not a success, and is still surfaced.
type ProposedChange struct {
	ChangeType     ChangeType     `yaml:"change_type" json:"change_type"`
	ResourceID     string         `yaml:"resource_id" json:"resource_id"`
	ResourceType   string         `yaml:"resource_type" json:"resource_type"`
	Attribute      string         `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	CurrentValue   any            `yaml:"current_value,omitempty" json:"current_value,omitempty"`
	NewValue       any            `yaml:"new_value,omitempty" json:"new_value,omitempty"`
	ChangeSummary  map[string]any `yaml:"change_summary,omitempty" json:"change_summary,omitempty"`
	ExceptionsSeen []string       `yaml:"exceptions_seen,omitempty" json:"exceptions_seen,omitempty"`
}

// RecordError attaches err to the change instead of raising it.
func (c *ProposedChange) RecordError(err error) {
	if err != nil {
		c.ExceptionsSeen = append(c.ExceptionsSeen, err.Error())
	}
}

// AccountChangeDetails is the per-account result of planning and
// optionally applying one template.
type AccountChangeDetails struct {
	Account         string           `yaml:"account" json:"account"`
	ResourceID      string           `yaml:"resource_id" json:"resource_id"`
	ResourceType    string           `yaml:"resource_type" json:"resource_type"`
	CurrentValue    any              `yaml:"current_value,omitempty" json:"current_value,omitempty"`
	NewValue        any              `yaml:"new_value,omitempty" json:"new_value,omitempty"`
	ProposedChanges []ProposedChange `yaml:"proposed_changes,omitempty" json:"proposed_changes,omitempty"`
	ExceptionsSeen  []string         `yaml:"exceptions_seen,omitempty" json:"exceptions_seen,omitempty"`
}

// RecordError attaches err to this account's outcome.
func (d *AccountChangeDetails) RecordError(err error) {
	if err != nil {
		d.ExceptionsSeen = append(d.ExceptionsSeen, err.Error())
	}
}

// AddChange appends a proposed change and lifts its exceptions into the
// account-level list.
func (d *AccountChangeDetails) AddChange(c ProposedChange) {
	d.ProposedChanges = append(d.ProposedChanges, c)
	d.ExceptionsSeen = append(d.ExceptionsSeen, c.ExceptionsSeen...)
}

// TemplateChangeDetails is the aggregate result of one plan or apply
// invocation for one template across all applicable accounts. It is not
// mutated after the coordinator finishes merging.
type TemplateChangeDetails struct {
	ResourceID      string                 `yaml:"resource_id" json:"resource_id"`
	ResourceType    string                 `yaml:"resource_type" json:"resource_type"`
	TemplatePath    string                 `yaml:"template_path" json:"template_path"`
	ProposedChanges []AccountChangeDetails `yaml:"proposed_changes,omitempty" json:"proposed_changes,omitempty"`
	ExceptionsSeen  []string               `yaml:"exceptions_seen,omitempty" json:"exceptions_seen,omitempty"`
}

// Merge folds one account outcome into the aggregate.
func (t *TemplateChangeDetails) Merge(d AccountChangeDetails) {
	t.ProposedChanges = append(t.ProposedChanges, d)
	t.ExceptionsSeen = append(t.ExceptionsSeen, d.ExceptionsSeen...)
}

// HasChanges reports whether any account has at least one proposed change.
func (t *TemplateChangeDetails) HasChanges() bool {
	for _, d := range t.ProposedChanges {
		if len(d.ProposedChanges) > 0 {
			return true
		}
	}
	return false
}
