package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/providers/memory"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestSweepTemplate_ExpiredTemplateMarkedDeleted(t *testing.T) {
	now := time.Now().UTC()
	tmpl := &model.Template{
		TemplateType: memory.GroupType,
		Identifier:   "engineers",
		ExpiryModel:  model.ExpiryModel{ExpiresAt: timePtr(now.Add(-time.Hour))},
		Properties:   &memory.GroupProperties{Name: "engineers"},
	}

	changed := SweepTemplate(tmpl, now)
	assert.True(t, changed)
	assert.True(t, tmpl.Deleted)

	// Second sweep finds nothing left to do.
	assert.False(t, SweepTemplate(tmpl, now))
}

func TestSweepTemplate_FutureExpiryUntouched(t *testing.T) {
	now := time.Now().UTC()
	tmpl := &model.Template{
		TemplateType: memory.GroupType,
		Identifier:   "engineers",
		ExpiryModel:  model.ExpiryModel{ExpiresAt: timePtr(now.Add(time.Hour))},
		Properties:   &memory.GroupProperties{Name: "engineers"},
	}

	assert.False(t, SweepTemplate(tmpl, now))
	assert.False(t, tmpl.Deleted)
}

func TestSweep_DisablesExpiredMembers(t *testing.T) {
	now := time.Now().UTC()
	props := &memory.GroupProperties{
		Name: "engineers",
		Members: []memory.GroupMember{
			{Email: "alice@example.com"},
			{Email: "bob@example.com", ExpiryModel: model.ExpiryModel{ExpiresAt: timePtr(now.Add(-time.Minute))}},
			{Email: "carol@example.com", ExpiryModel: model.ExpiryModel{ExpiresAt: timePtr(now.Add(time.Minute))}},
		},
	}

	changed := Sweep(props, memory.GroupType, "engineers", now)
	require.True(t, changed)

	assert.True(t, props.Members[0].Enabled.IsZero())
	assert.True(t, props.Members[1].DisabledEverywhere())
	assert.False(t, props.Members[2].DisabledEverywhere())
}

func TestSweep_Idempotent(t *testing.T) {
	now := time.Now().UTC()
	props := &memory.GroupProperties{
		Name: "engineers",
		Members: []memory.GroupMember{
			{Email: "bob@example.com", ExpiryModel: model.ExpiryModel{ExpiresAt: timePtr(now.Add(-time.Minute))}},
		},
	}

	require.True(t, Sweep(props, memory.GroupType, "engineers", now))
	assert.False(t, Sweep(props, memory.GroupType, "engineers", now))

	// Sweeping later still reports no change.
	assert.False(t, Sweep(props, memory.GroupType, "engineers", now.Add(time.Hour)))
}

func TestSweep_ScopedEntriesDiscardedOnExpiry(t *testing.T) {
	now := time.Now().UTC()
	member := memory.GroupMember{
		Email: "bob@example.com",
		ExpiryModel: model.ExpiryModel{
			ExpiresAt: timePtr(now.Add(-time.Minute)),
			Enabled: model.Enabled{Scoped: []model.ScopedEnabled{
				{AccessScope: model.AccessScope{IncludedAccounts: []string{"prod"}}, Enabled: true},
			}},
		},
	}
	props := &memory.GroupProperties{Name: "g", Members: []memory.GroupMember{member}}

	require.True(t, Sweep(props, memory.GroupType, "g", now))
	assert.True(t, props.Members[0].DisabledEverywhere())
	assert.Empty(t, props.Members[0].Enabled.Scoped)
}

func TestSweep_NilAndScalars(t *testing.T) {
	now := time.Now().UTC()
	assert.False(t, Sweep(nil, "t", "id", now))

	s := "plain"
	assert.False(t, Sweep(&s, "t", "id", now))
}
