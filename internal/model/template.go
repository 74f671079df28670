package model

// ManagedMode controls whether the engine may write to a resource or only
// observe it.
type ManagedMode string

const (
	ManagedUndefined  ManagedMode = ""
	ManagedReadWrite  ManagedMode = "read_and_write"
	ManagedImportOnly ManagedMode = "import_only"
)

// Properties is the provider-specific payload of a template. Each
// registered template type supplies a concrete struct implementing it.
type Properties interface {
	// ResourceType is the stable discriminator, e.g. "aws:iam:role".
	ResourceType() string
	// ResourceID is the declared identifier, possibly containing
	// {{ variable }} placeholders resolved per account.
	ResourceID() string
	// DiffableView returns the normalized attribute map the change
	// planner diffs against remote state for one account. Values are
	// scalars, []string sets, or map[string]string key/value sets.
	// Sub-resources that do not apply to the account are excluded.
	DiffableView(acct Account) map[string]any
}

// Validator is implemented by property types with semantic constraints
// beyond YAML shape. Violations surface as hard failures at load time.
type Validator interface {
	Validate() error
}

// ProviderIDRecorder is implemented by property types whose resources get
// a provider-assigned identifier written back after a successful create.
type ProviderIDRecorder interface {
	ProviderID() string
	RecordProviderID(id string)
}

// Template is the declarative root entity for one managed resource.
type Template struct {
	TemplateType string      `yaml:"template_type"`
	Identifier   string      `yaml:"identifier"`
	Managed      ManagedMode `yaml:"managed,omitempty"`
	Deleted      bool        `yaml:"deleted,omitempty"`
	AccessScope  `yaml:",inline"`
	ExpiryModel  `yaml:",inline"`
	Properties   Properties `yaml:"-"`

	// FilePath is where the template was loaded from. Not serialized.
	FilePath string `yaml:"-"`
}

// RemoteResource is the normalized cloud-side representation of one
// resource on one account, produced by a provider's Fetch. Attribute
// values use the same domain as Properties.DiffableView.
type RemoteResource struct {
	ResourceID string
	Attributes map[string]any
}

// Collections returns the collection-valued attributes of the resource,
// the ones that must be detached before a delete.
func (r *RemoteResource) Collections() map[string]any {
	out := make(map[string]any)
	for k, v := range r.Attributes {
		switch v.(type) {
		case []string, map[string]string:
			out[k] = v
		}
	}
	return out
}
