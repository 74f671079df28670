// Package provider defines the boundary between the reconciliation
// engine and concrete cloud backends. The engine only ever talks to a
// Client; SDK glue lives under providers/.
package provider

import (
	"context"

	"github.com/accord-io/accord/internal/model"
)

// Client is one provider backend. Fetch must be idempotent and
// side-effect free; it returns a NotFound-kind error (never a nil, nil
// pair) when the resource does not exist, and a Throttled-kind error for
// transient conditions so the retry controller can act on them.
//
// Mutation verbs are only invoked in execute mode: a Client is never
// asked to mutate during a plan.
type Client interface {
	// Name is the registry key, matching the template type prefix
	// ("aws" for "aws:iam:role").
	Name() string

	Fetch(ctx context.Context, acct model.Account, resourceType, resourceID string) (*model.RemoteResource, error)

	// Create provisions the resource and returns any provider-assigned
	// identifier (ARN, object id), empty if the declared identifier is
	// authoritative.
	Create(ctx context.Context, acct model.Account, props model.Properties) (string, error)

	// Update replaces one scalar attribute.
	Update(ctx context.Context, acct model.Account, resourceType, resourceID, attribute string, newValue any) error

	// Attach adds one item to a collection attribute. For map-valued
	// attributes item is the key and value its new value; for sets value
	// is nil.
	Attach(ctx context.Context, acct model.Account, resourceType, resourceID, attribute, item string, value any) error

	// Detach removes one item from a collection attribute.
	Detach(ctx context.Context, acct model.Account, resourceType, resourceID, attribute, item string) error

	// Delete removes the resource itself. Dependent collections have
	// already been detached by the engine. An already-gone resource is
	// success, not failure.
	Delete(ctx context.Context, acct model.Account, resourceType, resourceID string) error
}

// Importer is implemented by clients that can materialize a declared
// template from remote state.
type Importer interface {
	ImportResource(ctx context.Context, acct model.Account, resourceType, resourceID string) (model.Properties, error)
}
