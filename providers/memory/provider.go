// Package memory is an in-process provider backed by a map. It exists to
// exercise the engine without cloud credentials and to serve as the test
// double for the dry-run and partial-failure contracts: every mutation
// call is recorded.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/internal/provider"
)

// Name is the registry key and template type prefix.
const Name = "memory"

// Mutation is one recorded mutation call.
type Mutation struct {
	Verb         string // "create", "update", "attach", "detach", "delete"
	Account      string
	ResourceType string
	ResourceID   string
	Attribute    string
	Item         string
}

type Provider struct {
	mu    sync.Mutex
	store map[string]*model.RemoteResource // key: account/type/id

	mutations []Mutation

	// fetchErr injects per-account fetch failures for tests.
	fetchErr map[string]error
}

func New() *Provider {
	return &Provider{
		store:    make(map[string]*model.RemoteResource),
		fetchErr: make(map[string]error),
	}
}

func (p *Provider) Name() string { return Name }

func key(acctID, resourceType, resourceID string) string {
	return fmt.Sprintf("%s/%s/%s", acctID, resourceType, resourceID)
}

// Seed places a remote resource into an account's store, bypassing the
// mutation recorder.
func (p *Provider) Seed(acctID string, resourceType string, res *model.RemoteResource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store[key(acctID, resourceType, res.ResourceID)] = res
}

// Get returns the stored resource, or nil.
func (p *Provider) Get(acctID, resourceType, resourceID string) *model.RemoteResource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store[key(acctID, resourceType, resourceID)]
}

// FailFetch makes every Fetch on the given account return err.
func (p *Provider) FailFetch(acctID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchErr[acctID] = err
}

// Mutations returns every recorded mutation call in order.
func (p *Provider) Mutations() []Mutation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Mutation{}, p.mutations...)
}

func (p *Provider) record(m Mutation) {
	p.mutations = append(p.mutations, m)
}

func (p *Provider) Fetch(ctx context.Context, acct model.Account, resourceType, resourceID string) (*model.RemoteResource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fetchErr[acct.ID]; err != nil {
		return nil, provider.Failure("fetch "+resourceID, err)
	}
	res, ok := p.store[key(acct.ID, resourceType, resourceID)]
	if !ok {
		return nil, provider.NotFound("fetch " + resourceID)
	}
	return cloneResource(res), nil
}

func (p *Provider) Create(ctx context.Context, acct model.Account, props model.Properties) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	resourceType := props.ResourceType()
	resourceID := acct.Resolve(props.ResourceID())
	p.record(Mutation{Verb: "create", Account: acct.ID, ResourceType: resourceType, ResourceID: resourceID})

	p.store[key(acct.ID, resourceType, resourceID)] = &model.RemoteResource{
		ResourceID: resourceID,
		Attributes: props.DiffableView(acct),
	}
	return fmt.Sprintf("memory:%s:%s", acct.ID, resourceID), nil
}

func (p *Provider) Update(ctx context.Context, acct model.Account, resourceType, resourceID, attribute string, newValue any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(Mutation{Verb: "update", Account: acct.ID, ResourceType: resourceType, ResourceID: resourceID, Attribute: attribute})

	res, ok := p.store[key(acct.ID, resourceType, resourceID)]
	if !ok {
		return provider.NotFound("update " + resourceID)
	}
	res.Attributes[attribute] = newValue
	return nil
}

func (p *Provider) Attach(ctx context.Context, acct model.Account, resourceType, resourceID, attribute, item string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(Mutation{Verb: "attach", Account: acct.ID, ResourceType: resourceType, ResourceID: resourceID, Attribute: attribute, Item: item})

	res, ok := p.store[key(acct.ID, resourceType, resourceID)]
	if !ok {
		return provider.NotFound("attach " + resourceID)
	}
	switch existing := res.Attributes[attribute].(type) {
	case map[string]string:
		existing[item] = fmt.Sprintf("%v", value)
	case []string:
		res.Attributes[attribute] = append(existing, item)
	case nil:
		if value != nil {
			res.Attributes[attribute] = map[string]string{item: fmt.Sprintf("%v", value)}
		} else {
			res.Attributes[attribute] = []string{item}
		}
	default:
		return provider.Failure("attach "+resourceID, fmt.Errorf("attribute %s is not a collection", attribute))
	}
	return nil
}

func (p *Provider) Detach(ctx context.Context, acct model.Account, resourceType, resourceID, attribute, item string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(Mutation{Verb: "detach", Account: acct.ID, ResourceType: resourceType, ResourceID: resourceID, Attribute: attribute, Item: item})

	res, ok := p.store[key(acct.ID, resourceType, resourceID)]
	if !ok {
		return provider.NotFound("detach " + resourceID)
	}
	switch existing := res.Attributes[attribute].(type) {
	case map[string]string:
		delete(existing, item)
	case []string:
		out := existing[:0]
		for _, v := range existing {
			if v != item {
				out = append(out, v)
			}
		}
		res.Attributes[attribute] = out
	}
	return nil
}

func (p *Provider) Delete(ctx context.Context, acct model.Account, resourceType, resourceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(Mutation{Verb: "delete", Account: acct.ID, ResourceType: resourceType, ResourceID: resourceID})

	k := key(acct.ID, resourceType, resourceID)
	if _, ok := p.store[k]; !ok {
		return provider.NotFound("delete " + resourceID)
	}
	delete(p.store, k)
	return nil
}

// ImportResource materializes group properties from stored state.
func (p *Provider) ImportResource(ctx context.Context, acct model.Account, resourceType, resourceID string) (model.Properties, error) {
	res, err := p.Fetch(ctx, acct, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	if resourceType != GroupType {
		return nil, provider.Failure("import "+resourceID, fmt.Errorf("unsupported resource type %s", resourceType))
	}
	return groupFromRemote(res), nil
}

func cloneResource(res *model.RemoteResource) *model.RemoteResource {
	out := &model.RemoteResource{
		ResourceID: res.ResourceID,
		Attributes: make(map[string]any, len(res.Attributes)),
	}
	for k, v := range res.Attributes {
		switch tv := v.(type) {
		case []string:
			out.Attributes[k] = append([]string{}, tv...)
		case map[string]string:
			m := make(map[string]string, len(tv))
			for mk, mv := range tv {
				m[mk] = mv
			}
			out.Attributes[k] = m
		default:
			out.Attributes[k] = v
		}
	}
	return out
}
