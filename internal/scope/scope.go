// Package scope decides whether a resource or sub-resource applies to a
// given account. It is pure: no I/O, no side effects.
package scope

import (
	"regexp"
	"strings"

	"github.com/accord-io/accord/internal/model"
)

// Wildcard matches any account or org.
const Wildcard = "*"

// Matches reports whether pattern matches candidate. Patterns are
// case-insensitive and anchored; "*" inside a pattern matches any run of
// characters, so "prod*" matches "prod-east". A pattern that fails to
// compile falls back to case-insensitive literal equality.
func Matches(pattern, candidate string) bool {
	if pattern == Wildcard {
		return true
	}
	if pattern == "" || candidate == "" {
		return false
	}
	expr := "(?i)^" + strings.ReplaceAll(pattern, "*", ".*") + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return strings.EqualFold(pattern, candidate)
	}
	return re.MatchString(candidate)
}

// Specificity scores how closely pattern matches target. The wildcard
// scores 0; an exact literal match scores its full length; a matching
// glob scores the length of its literal portion. Non-matching patterns
// score -1.
func Specificity(pattern, target string) int {
	if pattern == Wildcard {
		return 0
	}
	if !Matches(pattern, target) {
		return -1
	}
	if strings.EqualFold(pattern, target) {
		return len(pattern)
	}
	return len(strings.ReplaceAll(pattern, "*", ""))
}

func matchesAny(patterns []string, candidates ...string) bool {
	for _, p := range patterns {
		for _, c := range candidates {
			if Matches(p, c) {
				return true
			}
		}
	}
	return false
}

// bestSpecificity returns the highest specificity any pattern achieves
// against any candidate, or -1 if nothing matches.
func bestSpecificity(patterns []string, candidates ...string) int {
	best := -1
	for _, p := range patterns {
		for _, c := range candidates {
			if s := Specificity(p, c); s > best {
				best = s
			}
		}
	}
	return best
}

// Applies reports whether an access scope includes the target account.
// Exclusion always wins; an empty inclusion list is treated as ["*"].
func Applies(s model.AccessScope, acct model.Account) bool {
	if matchesAny(s.ExcludedAccounts, acct.ID, acct.Name) {
		return false
	}
	if acct.Org != "" && matchesAny(s.ExcludedOrgs, acct.Org) {
		return false
	}
	if len(s.IncludedOrgs) > 0 && acct.Org != "" && matchesAny(s.IncludedOrgs, acct.Org) {
		return true
	}
	included := s.IncludedAccounts
	if len(included) == 0 && len(s.IncludedOrgs) == 0 {
		included = []string{Wildcard}
	}
	return matchesAny(included, acct.ID, acct.Name)
}

// IsEnabled resolves an Enabled value for one account. For the scoped
// form, the entry whose inclusion pattern matches the account most
// specifically wins; ties go to the first entry in declaration order.
// An account matched by no entry, or an unset value, is enabled.
func IsEnabled(e model.Enabled, acct model.Account) bool {
	if len(e.Scoped) == 0 {
		return e.Flag == nil || *e.Flag
	}
	enabled := true
	best := -1
	for _, entry := range e.Scoped {
		if !Applies(entry.AccessScope, acct) {
			continue
		}
		patterns := append(append([]string{}, entry.IncludedAccounts...), entry.IncludedOrgs...)
		s := 0 // implicit wildcard when the entry names no inclusion
		if len(patterns) > 0 {
			s = bestSpecificity(patterns, acct.ID, acct.Name, acct.Org)
		}
		if s > best {
			best = s
			enabled = entry.Enabled
		}
	}
	return enabled
}

// AppliesEnabled is the full applicability check for one entity: the
// enabled flag is consulted first, then the access scope.
func AppliesEnabled(expiry *model.ExpiryModel, s model.AccessScope, acct model.Account) bool {
	if expiry != nil && !IsEnabled(expiry.Enabled, acct) {
		return false
	}
	return Applies(s, acct)
}
