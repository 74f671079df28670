package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/internal/scope"
	"github.com/accord-io/accord/internal/template"
)

// GroupType is the template type, and resource type, of a memory group.
const GroupType = "memory:group"

func init() {
	template.Register(GroupType, func() model.Properties { return &GroupProperties{} })
}

// GroupMember is one membership grant. Members can be scoped to a subset
// of accounts and can expire.
type GroupMember struct {
	model.AccessScope `yaml:",inline"`
	model.ExpiryModel `yaml:",inline"`
	Email             string `yaml:"email"`
}

// GroupProperties is the declarative payload of a memory group.
type GroupProperties struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Members     []GroupMember     `yaml:"members,omitempty"`
	Tags        map[string]string `yaml:"tags,omitempty"`
	ID          string            `yaml:"id,omitempty"`
}

func (g *GroupProperties) ResourceType() string { return GroupType }
func (g *GroupProperties) ResourceID() string   { return g.Name }

func (g *GroupProperties) ProviderID() string         { return g.ID }
func (g *GroupProperties) RecordProviderID(id string) { g.ID = id }

func (g *GroupProperties) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("group name is required")
	}
	for _, m := range g.Members {
		if !strings.Contains(m.Email, "@") {
			return fmt.Errorf("member %q is not an email address", m.Email)
		}
	}
	return nil
}

// DiffableView includes only the members that apply to, and are enabled
// on, the given account.
func (g *GroupProperties) DiffableView(acct model.Account) map[string]any {
	var members []string
	for i := range g.Members {
		m := &g.Members[i]
		if scope.AppliesEnabled(&m.ExpiryModel, m.AccessScope, acct) {
			members = append(members, acct.Resolve(m.Email))
		}
	}
	sort.Strings(members)

	view := map[string]any{
		"description": acct.Resolve(g.Description),
		"members":     members,
	}
	if len(g.Tags) > 0 {
		tags := make(map[string]string, len(g.Tags))
		for k, v := range g.Tags {
			tags[k] = acct.Resolve(v)
		}
		view["tags"] = tags
	} else {
		view["tags"] = map[string]string{}
	}
	return view
}

// groupFromRemote rebuilds declared properties from remote state for the
// import direction.
func groupFromRemote(res *model.RemoteResource) *GroupProperties {
	g := &GroupProperties{Name: res.ResourceID}
	if desc, ok := res.Attributes["description"].(string); ok {
		g.Description = desc
	}
	if members, ok := res.Attributes["members"].([]string); ok {
		for _, email := range members {
			g.Members = append(g.Members, GroupMember{Email: email})
		}
	}
	if tags, ok := res.Attributes["tags"].(map[string]string); ok && len(tags) > 0 {
		g.Tags = tags
	}
	return g
}
