package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/internal/provider"
)

var acct = model.Account{ID: "1", Name: "dev"}

func TestFetch_NotFound(t *testing.T) {
	p := New()
	_, err := p.Fetch(context.Background(), acct, GroupType, "nosuch")
	assert.True(t, provider.IsNotFound(err))
}

func TestFetch_ReturnsClone(t *testing.T) {
	p := New()
	p.Seed("1", GroupType, &model.RemoteResource{
		ResourceID: "engineers",
		Attributes: map[string]any{"members": []string{"alice@example.com"}},
	})

	res, err := p.Fetch(context.Background(), acct, GroupType, "engineers")
	require.NoError(t, err)

	// Mutating the fetched copy never leaks into the store.
	res.Attributes["members"].([]string)[0] = "evil@example.com"
	again, err := p.Fetch(context.Background(), acct, GroupType, "engineers")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, again.Attributes["members"])
}

func TestFetch_InjectedFailure(t *testing.T) {
	p := New()
	p.FailFetch("1", fmt.Errorf("injected"))
	_, err := p.Fetch(context.Background(), acct, GroupType, "engineers")
	require.Error(t, err)
	assert.False(t, provider.IsNotFound(err))
}

func TestCreateUpdateDelete(t *testing.T) {
	p := New()
	ctx := context.Background()
	props := &GroupProperties{Name: "engineers", Description: "eng"}

	id, err := p.Create(ctx, acct, props)
	require.NoError(t, err)
	assert.Equal(t, "memory:1:engineers", id)
	require.NotNil(t, p.Get("1", GroupType, "engineers"))

	require.NoError(t, p.Update(ctx, acct, GroupType, "engineers", "description", "platform"))
	assert.Equal(t, "platform", p.Get("1", GroupType, "engineers").Attributes["description"])

	require.NoError(t, p.Delete(ctx, acct, GroupType, "engineers"))
	assert.Nil(t, p.Get("1", GroupType, "engineers"))
	assert.True(t, provider.IsNotFound(p.Delete(ctx, acct, GroupType, "engineers")))
}

func TestAttachDetach_SetAndMap(t *testing.T) {
	p := New()
	ctx := context.Background()
	p.Seed("1", GroupType, &model.RemoteResource{
		ResourceID: "engineers",
		Attributes: map[string]any{
			"members": []string{"alice@example.com"},
			"tags":    map[string]string{"team": "eng"},
		},
	})

	require.NoError(t, p.Attach(ctx, acct, GroupType, "engineers", "members", "bob@example.com", nil))
	require.NoError(t, p.Attach(ctx, acct, GroupType, "engineers", "tags", "env", "prod"))
	require.NoError(t, p.Detach(ctx, acct, GroupType, "engineers", "members", "alice@example.com"))
	require.NoError(t, p.Detach(ctx, acct, GroupType, "engineers", "tags", "team"))

	res := p.Get("1", GroupType, "engineers")
	assert.Equal(t, []string{"bob@example.com"}, res.Attributes["members"])
	assert.Equal(t, map[string]string{"env": "prod"}, res.Attributes["tags"])
}

func TestMutationsRecorded(t *testing.T) {
	p := New()
	ctx := context.Background()
	props := &GroupProperties{Name: "engineers"}

	_, err := p.Create(ctx, acct, props)
	require.NoError(t, err)
	require.NoError(t, p.Delete(ctx, acct, GroupType, "engineers"))

	muts := p.Mutations()
	require.Len(t, muts, 2)
	assert.Equal(t, "create", muts[0].Verb)
	assert.Equal(t, "delete", muts[1].Verb)
	assert.Equal(t, "engineers", muts[0].ResourceID)
}

func TestImportResource(t *testing.T) {
	p := New()
	ctx := context.Background()
	p.Seed("1", GroupType, &model.RemoteResource{
		ResourceID: "engineers",
		Attributes: map[string]any{
			"description": "eng",
			"members":     []string{"alice@example.com"},
			"tags":        map[string]string{"team": "eng"},
		},
	})

	props, err := p.ImportResource(ctx, acct, GroupType, "engineers")
	require.NoError(t, err)
	g := props.(*GroupProperties)
	assert.Equal(t, "engineers", g.Name)
	assert.Equal(t, "eng", g.Description)
	require.Len(t, g.Members, 1)
	assert.Equal(t, "alice@example.com", g.Members[0].Email)

	_, err = p.ImportResource(ctx, acct, "memory:other", "engineers")
	assert.Error(t, err)
}

func TestGroupProperties_Validate(t *testing.T) {
	assert.Error(t, (&GroupProperties{}).Validate())
	assert.Error(t, (&GroupProperties{Name: "g", Members: []GroupMember{{Email: "nope"}}}).Validate())
	assert.NoError(t, (&GroupProperties{Name: "g", Members: []GroupMember{{Email: "a@b.c"}}}).Validate())
}

func TestGroupProperties_DiffableViewResolvesVariables(t *testing.T) {
	withVars := model.Account{ID: "1", Name: "dev", Variables: map[string]string{"domain": "example.com"}}
	g := &GroupProperties{
		Name:        "engineers",
		Description: "Team for {{ account_name }}",
		Members:     []GroupMember{{Email: "alice@{{ domain }}"}},
	}

	view := g.DiffableView(withVars)
	assert.Equal(t, "Team for dev", view["description"])
	assert.Equal(t, []string{"alice@example.com"}, view["members"])
	assert.Equal(t, map[string]string{}, view["tags"])
}
