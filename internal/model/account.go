package model

import (
	"fmt"
	"regexp"
)

// Account is one reconciliation target: a cloud account, a directory
// tenant, or an organization member, depending on the provider.
type Account struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name,omitempty"`
	Org       string            `yaml:"org,omitempty"`
	Variables map[string]string `yaml:"variables,omitempty"`
}

// Label returns the human-readable form used in change reports.
func (a Account) Label() string {
	if a.Name != "" {
		return fmt.Sprintf("%s (%s)", a.Name, a.ID)
	}
	return a.ID
}

var variablePattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Resolve substitutes {{ variable }} placeholders in s against this
// account's variable map. account_id, account_name and org_id are always
// defined; unknown variables are left in place so they surface in diffs
// instead of silently becoming empty strings.
func (a Account) Resolve(s string) string {
	return variablePattern.ReplaceAllStringFunc(s, func(m string) string {
		name := variablePattern.FindStringSubmatch(m)[1]
		switch name {
		case "account_id":
			return a.ID
		case "account_name":
			return a.Name
		case "org_id":
			return a.Org
		}
		if v, ok := a.Variables[name]; ok {
			return v
		}
		return m
	})
}

// ResolveAll applies Resolve to every element of items.
func (a Account) ResolveAll(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = a.Resolve(s)
	}
	return out
}
