package model

// AccessScope is embedded in any entity that can be selectively present
// on a subset of accounts or organizations. An empty IncludedAccounts is
// equivalent to ["*"]. Exclusion always wins over inclusion.
type AccessScope struct {
	IncludedAccounts []string `yaml:"included_accounts,omitempty"`
	ExcludedAccounts []string `yaml:"excluded_accounts,omitempty"`
	IncludedOrgs     []string `yaml:"included_orgs,omitempty"`
	ExcludedOrgs     []string `yaml:"excluded_orgs,omitempty"`
}

// GetAccessScope allows capability-style access from generic code.
func (s AccessScope) GetAccessScope() AccessScope { return s }

// HasAccessScope is implemented by anything carrying an AccessScope,
// typically by embedding it.
type HasAccessScope interface {
	GetAccessScope() AccessScope
}
