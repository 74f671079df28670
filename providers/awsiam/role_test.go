package awsiam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accord-io/accord/internal/model"
)

const assumeDoc = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"Service":"ec2.amazonaws.com"},"Action":"sts:AssumeRole"}]}`

func TestRoleProperties_Validate(t *testing.T) {
	assert.Error(t, (&RoleProperties{}).Validate())

	ok := &RoleProperties{RoleName: "deploy", AssumeRolePolicyDocument: assumeDoc}
	assert.NoError(t, ok.Validate())

	bad := &RoleProperties{RoleName: "deploy", AssumeRolePolicyDocument: "{not json"}
	assert.Error(t, bad.Validate())

	// Documents with unresolved variables cannot be checked yet.
	deferred := &RoleProperties{RoleName: "deploy", AssumeRolePolicyDocument: `{"acct": "{{ account_id }}"`}
	assert.NoError(t, deferred.Validate())
}

func TestRoleProperties_ValidateInlinePolicies(t *testing.T) {
	r := &RoleProperties{
		RoleName: "deploy",
		InlinePolicies: []InlinePolicy{{
			PolicyName:     "s3",
			PolicyDocument: `{"Statement":[{"Effect":"Allow","Action":"s3:GetObject","Resource":"*"}]}`,
		}},
	}
	assert.NoError(t, r.Validate())

	r.InlinePolicies[0].PolicyDocument = `{"Statement":[{"Effect":"Allow","Principal":{"AWS":"*"},"Action":"s3:*"}]}`
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Principal")

	r.InlinePolicies[0].PolicyDocument = `{"ok": true}`
	r.InlinePolicies[0].PolicyName = ""
	assert.Error(t, r.Validate())
}

func TestRoleProperties_DiffableViewDefaults(t *testing.T) {
	r := &RoleProperties{RoleName: "deploy"}
	view := r.DiffableView(model.Account{ID: "1"})

	assert.Equal(t, "/", view["path"])
	assert.Equal(t, 3600, view["max_session_duration"])
	assert.Equal(t, "", view["assume_role_policy_document"])
	assert.Empty(t, view["managed_policies"])
	assert.Equal(t, map[string]string{}, view["inline_policies"])
	assert.Equal(t, map[string]string{}, view["tags"])
}

func TestRoleProperties_DiffableViewScoping(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	r := &RoleProperties{
		RoleName: "deploy",
		ManagedPolicies: []PolicyAttachment{
			{PolicyArn: "arn:aws:iam::aws:policy/ReadOnlyAccess"},
			{
				AccessScope: model.AccessScope{IncludedAccounts: []string{"prod"}},
				PolicyArn:   "arn:aws:iam::aws:policy/AdministratorAccess",
			},
			{
				ExpiryModel: model.ExpiryModel{ExpiresAt: &past, Enabled: model.EnabledValue(false)},
				PolicyArn:   "arn:aws:iam::aws:policy/ExpiredAccess",
			},
		},
		Tags: []RoleTag{{Key: "env", Value: "{{ account_name }}"}},
	}

	view := r.DiffableView(model.Account{ID: "2", Name: "dev"})
	assert.Equal(t, []string{"arn:aws:iam::aws:policy/ReadOnlyAccess"}, view["managed_policies"])
	assert.Equal(t, map[string]string{"env": "dev"}, view["tags"])

	view = r.DiffableView(model.Account{ID: "3", Name: "prod"})
	assert.Equal(t, []string{
		"arn:aws:iam::aws:policy/AdministratorAccess",
		"arn:aws:iam::aws:policy/ReadOnlyAccess",
	}, view["managed_policies"])
}

func TestNormalizePolicy(t *testing.T) {
	a := `{"Version": "2012-10-17",  "Statement": []}`
	b := `{"Statement":[],"Version":"2012-10-17"}`
	assert.Equal(t, normalizePolicy(a), normalizePolicy(b))

	// Non-JSON passes through untouched.
	assert.Equal(t, "not json", normalizePolicy("not json"))
	assert.Equal(t, "", normalizePolicy(""))
}

func TestClassify(t *testing.T) {
	assert.Nil(t, classifyNil("op", nil))
}
