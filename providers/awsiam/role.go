package awsiam

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/internal/scope"
	"github.com/accord-io/accord/internal/template"
)

// RoleType is the template type of an IAM role.
const RoleType = "aws:iam:role"

func init() {
	template.Register(RoleType, func() model.Properties { return &RoleProperties{} })
}

// PolicyAttachment is one managed-policy attachment, optionally scoped
// and time-boxed.
type PolicyAttachment struct {
	model.AccessScope `yaml:",inline"`
	model.ExpiryModel `yaml:",inline"`
	PolicyArn         string `yaml:"policy_arn"`
}

// InlinePolicy is one inline policy document on the role.
type InlinePolicy struct {
	model.AccessScope `yaml:",inline"`
	model.ExpiryModel `yaml:",inline"`
	PolicyName        string `yaml:"policy_name"`
	PolicyDocument    string `yaml:"policy_document"`
}

// RoleTag is one tag, optionally scoped and time-boxed.
type RoleTag struct {
	model.AccessScope `yaml:",inline"`
	model.ExpiryModel `yaml:",inline"`
	Key               string `yaml:"key"`
	Value             string `yaml:"value"`
}

// RoleProperties is the declarative payload of an IAM role template.
type RoleProperties struct {
	RoleName                 string             `yaml:"role_name"`
	Path                     string             `yaml:"path,omitempty"`
	Description              string             `yaml:"description,omitempty"`
	MaxSessionDuration       int32              `yaml:"max_session_duration,omitempty"`
	AssumeRolePolicyDocument string             `yaml:"assume_role_policy_document,omitempty"`
	ManagedPolicies          []PolicyAttachment `yaml:"managed_policies,omitempty"`
	InlinePolicies           []InlinePolicy     `yaml:"inline_policies,omitempty"`
	Tags                     []RoleTag          `yaml:"tags,omitempty"`

	// Arn is assigned by AWS on create and written back to the file.
	Arn string `yaml:"arn,omitempty"`
}

func (r *RoleProperties) ResourceType() string { return RoleType }
func (r *RoleProperties) ResourceID() string   { return r.RoleName }

func (r *RoleProperties) ProviderID() string         { return r.Arn }
func (r *RoleProperties) RecordProviderID(id string) { r.Arn = id }

func (r *RoleProperties) Validate() error {
	if r.RoleName == "" {
		return fmt.Errorf("role_name is required")
	}
	if r.AssumeRolePolicyDocument != "" && !containsVariable(r.AssumeRolePolicyDocument) {
		if !json.Valid([]byte(r.AssumeRolePolicyDocument)) {
			return fmt.Errorf("assume_role_policy_document is not valid JSON")
		}
	}
	for _, p := range r.InlinePolicies {
		if p.PolicyName == "" {
			return fmt.Errorf("inline policy is missing policy_name")
		}
		if containsVariable(p.PolicyDocument) {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(p.PolicyDocument), &doc); err != nil {
			return fmt.Errorf("inline policy %s is not valid JSON: %w", p.PolicyName, err)
		}
		if err := checkPolicyElements(doc); err != nil {
			return fmt.Errorf("inline policy %s: %w", p.PolicyName, err)
		}
	}
	return nil
}

// checkPolicyElements rejects policy elements IAM does not allow on an
// inline role policy, such as Principal.
func checkPolicyElements(doc map[string]any) error {
	statements, _ := doc["Statement"].([]any)
	if s, ok := doc["Statement"].(map[string]any); ok {
		statements = []any{s}
	}
	for _, raw := range statements {
		st, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, found := st["Principal"]; found {
			return fmt.Errorf("unsupported policy element Principal")
		}
		if _, found := st["NotPrincipal"]; found {
			return fmt.Errorf("unsupported policy element NotPrincipal")
		}
	}
	return nil
}

func containsVariable(s string) bool {
	return strings.Contains(s, "{{")
}

// DiffableView resolves account variables and scoped sub-resources into
// the attribute map the planner diffs.
func (r *RoleProperties) DiffableView(acct model.Account) map[string]any {
	var managed []string
	for i := range r.ManagedPolicies {
		a := &r.ManagedPolicies[i]
		if scope.AppliesEnabled(&a.ExpiryModel, a.AccessScope, acct) {
			managed = append(managed, acct.Resolve(a.PolicyArn))
		}
	}
	sort.Strings(managed)

	inline := make(map[string]string)
	for i := range r.InlinePolicies {
		p := &r.InlinePolicies[i]
		if scope.AppliesEnabled(&p.ExpiryModel, p.AccessScope, acct) {
			inline[acct.Resolve(p.PolicyName)] = normalizePolicy(acct.Resolve(p.PolicyDocument))
		}
	}

	tags := make(map[string]string)
	for i := range r.Tags {
		t := &r.Tags[i]
		if scope.AppliesEnabled(&t.ExpiryModel, t.AccessScope, acct) {
			tags[acct.Resolve(t.Key)] = acct.Resolve(t.Value)
		}
	}

	path := r.Path
	if path == "" {
		path = "/"
	}
	maxSession := r.MaxSessionDuration
	if maxSession == 0 {
		maxSession = 3600
	}

	return map[string]any{
		"description":                 acct.Resolve(r.Description),
		"path":                        path,
		"max_session_duration":        int(maxSession),
		"assume_role_policy_document": normalizePolicy(acct.Resolve(r.AssumeRolePolicyDocument)),
		"managed_policies":            managed,
		"inline_policies":             inline,
		"tags":                        tags,
	}
}

// normalizePolicy re-marshals a policy document into canonical form
// (sorted keys, no insignificant whitespace) so equal policies never
// churn on representation.
func normalizePolicy(doc string) string {
	if doc == "" {
		return ""
	}
	var v any
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return doc
	}
	out, err := json.Marshal(v)
	if err != nil {
		return doc
	}
	return string(out)
}
