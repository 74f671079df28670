package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/accord-io/accord/internal/model"
)

func TestMatches(t *testing.T) {
	assert.True(t, Matches("*", "anything"))
	assert.True(t, Matches("prod*", "prod-east"))
	assert.True(t, Matches("PROD-EAST", "prod-east"))
	assert.True(t, Matches("123456789012", "123456789012"))
	assert.False(t, Matches("prod*", "staging"))
	assert.False(t, Matches("", "prod"))
	assert.False(t, Matches("prod", ""))
}

func TestSpecificity(t *testing.T) {
	assert.Equal(t, 0, Specificity("*", "prod-east"))
	assert.Equal(t, 9, Specificity("prod-east", "prod-east"))
	assert.Equal(t, 4, Specificity("prod*", "prod-east"))
	assert.Equal(t, -1, Specificity("staging", "prod-east"))
}

func TestApplies(t *testing.T) {
	prod := model.Account{ID: "111111111111", Name: "prod-east", Org: "o-corp"}

	// Empty scope includes everything.
	assert.True(t, Applies(model.AccessScope{}, prod))

	// Inclusion by id, name and glob.
	assert.True(t, Applies(model.AccessScope{IncludedAccounts: []string{"111111111111"}}, prod))
	assert.True(t, Applies(model.AccessScope{IncludedAccounts: []string{"prod-east"}}, prod))
	assert.True(t, Applies(model.AccessScope{IncludedAccounts: []string{"prod*"}}, prod))
	assert.False(t, Applies(model.AccessScope{IncludedAccounts: []string{"staging*"}}, prod))

	// Org inclusion.
	assert.True(t, Applies(model.AccessScope{IncludedOrgs: []string{"o-corp"}}, prod))
	assert.False(t, Applies(model.AccessScope{IncludedOrgs: []string{"o-other"}}, prod))

	// Exclusion always wins over inclusion.
	assert.False(t, Applies(model.AccessScope{
		IncludedAccounts: []string{"*"},
		ExcludedAccounts: []string{"prod*"},
	}, prod))
	assert.False(t, Applies(model.AccessScope{
		IncludedOrgs: []string{"o-corp"},
		ExcludedOrgs: []string{"o-corp"},
	}, prod))
}

func TestIsEnabled_Flag(t *testing.T) {
	acct := model.Account{ID: "1", Name: "dev"}
	on := true
	off := false

	assert.True(t, IsEnabled(model.Enabled{}, acct))
	assert.True(t, IsEnabled(model.Enabled{Flag: &on}, acct))
	assert.False(t, IsEnabled(model.Enabled{Flag: &off}, acct))
}

func TestIsEnabled_ClosestMatchWins(t *testing.T) {
	prod := model.Account{ID: "111111111111", Name: "prod-east"}
	dev := model.Account{ID: "222222222222", Name: "dev"}

	e := model.Enabled{Scoped: []model.ScopedEnabled{
		{AccessScope: model.AccessScope{IncludedAccounts: []string{"*"}}, Enabled: true},
		{AccessScope: model.AccessScope{IncludedAccounts: []string{"prod*"}}, Enabled: false},
		{AccessScope: model.AccessScope{IncludedAccounts: []string{"prod-east"}}, Enabled: true},
	}}

	// Exact match beats glob beats wildcard regardless of order.
	assert.True(t, IsEnabled(e, prod))
	assert.True(t, IsEnabled(e, dev))

	e = model.Enabled{Scoped: []model.ScopedEnabled{
		{AccessScope: model.AccessScope{IncludedAccounts: []string{"*"}}, Enabled: true},
		{AccessScope: model.AccessScope{IncludedAccounts: []string{"prod*"}}, Enabled: false},
	}}
	assert.False(t, IsEnabled(e, prod))
	assert.True(t, IsEnabled(e, dev))
}

func TestIsEnabled_FirstDeclaredBreaksTies(t *testing.T) {
	acct := model.Account{ID: "111111111111", Name: "prod-east"}

	e := model.Enabled{Scoped: []model.ScopedEnabled{
		{AccessScope: model.AccessScope{IncludedAccounts: []string{"prod-east"}}, Enabled: false},
		{AccessScope: model.AccessScope{IncludedAccounts: []string{"prod-east"}}, Enabled: true},
	}}
	assert.False(t, IsEnabled(e, acct))
}

func TestIsEnabled_UnmatchedAccountDefaultsEnabled(t *testing.T) {
	acct := model.Account{ID: "333333333333", Name: "sandbox"}

	e := model.Enabled{Scoped: []model.ScopedEnabled{
		{AccessScope: model.AccessScope{IncludedAccounts: []string{"prod*"}}, Enabled: false},
	}}
	assert.True(t, IsEnabled(e, acct))
}

func TestAppliesEnabled(t *testing.T) {
	acct := model.Account{ID: "1", Name: "prod"}
	off := false

	expiry := &model.ExpiryModel{Enabled: model.Enabled{Flag: &off}}
	assert.False(t, AppliesEnabled(expiry, model.AccessScope{}, acct))
	assert.True(t, AppliesEnabled(nil, model.AccessScope{}, acct))
	assert.False(t, AppliesEnabled(nil, model.AccessScope{IncludedAccounts: []string{"dev"}}, acct))
}
