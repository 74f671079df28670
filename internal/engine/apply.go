package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/accord-io/accord/internal/logging"
	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/internal/provider"
	"github.com/accord-io/accord/internal/scope"
)

// accountResult carries one account's outcome plus any provider-assigned
// identifier discovered during create.
type accountResult struct {
	details    *model.AccountChangeDetails
	providerID string
}

// ApplyTemplate fans one template out across every applicable account
// concurrently and merges the outcomes. One account's failure never
// cancels or affects another's; failures are captured in the result, not
// raised. The returned error covers only structural problems (unknown
// provider, missing properties) that prevent the operation entirely.
//
// The template's in-memory fields are mutated (provider ID write-back)
// only after all per-account tasks have completed.
func (e *Engine) ApplyTemplate(ctx context.Context, execCtx model.ExecutionContext, tmpl *model.Template, accounts []model.Account) (*model.TemplateChangeDetails, error) {
	if tmpl.Properties == nil {
		return nil, fmt.Errorf("template %s has no properties", tmpl.Identifier)
	}
	client, err := e.registry.ClientFor(tmpl.TemplateType)
	if err != nil {
		return nil, err
	}

	if execCtx.EffectiveManaged(tmpl) == model.ManagedImportOnly && execCtx.Execute() {
		logging.Warn("template is import-only, planning without executing",
			"template_type", tmpl.TemplateType, "resource_id", tmpl.Identifier)
		execCtx.EvalOnly = true
	}

	details := &model.TemplateChangeDetails{
		ResourceID:   tmpl.Identifier,
		ResourceType: tmpl.Properties.ResourceType(),
		TemplatePath: tmpl.FilePath,
	}

	// Accounts out of scope produce no task at all.
	var applicable []model.Account
	for _, acct := range accounts {
		if scope.AppliesEnabled(&tmpl.ExpiryModel, tmpl.AccessScope, acct) {
			applicable = append(applicable, acct)
		}
	}

	results := Process(ctx, e.Parallelism, applicable, func(ctx context.Context, acct model.Account) accountResult {
		return e.reconcileAccount(ctx, execCtx, client, tmpl, acct)
	})

	providerID := ""
	for _, r := range results {
		if r.details == nil {
			continue // skipped before start on cancellation
		}
		details.Merge(*r.details)
		if providerID == "" {
			providerID = r.providerID
		}
	}

	// Safe to touch the template now: every account task is done.
	if execCtx.Execute() && providerID != "" {
		if rec, ok := tmpl.Properties.(model.ProviderIDRecorder); ok && rec.ProviderID() == "" {
			rec.RecordProviderID(providerID)
		}
	}

	return details, nil
}

// reconcileAccount plans, and in execute mode applies, one template on
// one account. It never returns an error: every failure is captured in
// the AccountChangeDetails.
func (e *Engine) reconcileAccount(ctx context.Context, execCtx model.ExecutionContext, client provider.Client, tmpl *model.Template, acct model.Account) accountResult {
	props := tmpl.Properties
	resourceType := props.ResourceType()
	resourceID := acct.Resolve(props.ResourceID())

	acd := &model.AccountChangeDetails{
		Account:      acct.Label(),
		ResourceID:   resourceID,
		ResourceType: resourceType,
	}
	res := accountResult{details: acd}

	log := logging.With("template", tmpl.Identifier, "account", acct.Label())
	start := time.Now()
	e.emit(ApplyEvent{Template: tmpl.Identifier, Account: acct.Label(), Status: "started"})
	defer func() {
		status := "completed"
		if len(acd.ExceptionsSeen) > 0 {
			status = "failed"
		}
		log.Debug("reconcile finished",
			"status", status,
			"changes", len(acd.ProposedChanges),
			"duration", time.Since(start))
		e.emit(ApplyEvent{
			Template: tmpl.Identifier,
			Account:  acct.Label(),
			Status:   status,
			Changes:  len(acd.ProposedChanges),
			Duration: time.Since(start),
		})
	}()

	var remote *model.RemoteResource
	err := e.retryCall(ctx, func() error {
		var ferr error
		remote, ferr = client.Fetch(ctx, acct, resourceType, resourceID)
		return ferr
	})
	if err != nil {
		if !provider.IsNotFound(err) {
			// Could not determine whether changes are needed; this must
			// never look like "no changes needed".
			acd.RecordError(fmt.Errorf("fetch %s on %s: %w", resourceID, acct.Label(), err))
			return res
		}
		remote = nil
	}

	switch {
	case remote == nil && tmpl.Deleted:
		// Already gone: deleting a nonexistent resource is success.

	case remote == nil:
		res.providerID = e.createResource(ctx, execCtx, client, acct, tmpl, acd)

	case tmpl.Deleted:
		e.deleteResource(ctx, execCtx, client, acct, remote, acd)

	default:
		declared := props.DiffableView(acct)
		acd.CurrentValue = remote.Attributes
		acd.NewValue = declared
		changes := DiffResource(declared, remote.Attributes, resourceID, resourceType)
		for i := range changes {
			if execCtx.Execute() {
				e.executeChange(ctx, client, acct, declared, &changes[i])
			}
			acd.AddChange(changes[i])
		}
	}

	return res
}

// createResource emits the single CREATE change. When not in execute
// mode nothing else can be computed against a nonexistent resource, so
// planning stops after that one change.
func (e *Engine) createResource(ctx context.Context, execCtx model.ExecutionContext, client provider.Client, acct model.Account, tmpl *model.Template, acd *model.AccountChangeDetails) string {
	declared := tmpl.Properties.DiffableView(acct)
	change := model.ProposedChange{
		ChangeType:    model.ChangeCreate,
		ResourceID:    acd.ResourceID,
		ResourceType:  acd.ResourceType,
		ChangeSummary: declared,
	}
	acd.NewValue = declared

	providerID := ""
	if execCtx.Execute() {
		err := e.retryCall(ctx, func() error {
			var cerr error
			providerID, cerr = client.Create(ctx, acct, tmpl.Properties)
			return cerr
		})
		if err != nil {
			change.RecordError(fmt.Errorf("create %s: %w", acd.ResourceID, err))
		}
	}

	acd.AddChange(change)
	return providerID
}

// deleteResource detaches every dependent collection in deterministic
// order, then deletes. Not-found during delete is success.
func (e *Engine) deleteResource(ctx context.Context, execCtx model.ExecutionContext, client provider.Client, acct model.Account, remote *model.RemoteResource, acd *model.AccountChangeDetails) {
	change := model.ProposedChange{
		ChangeType:   model.ChangeDelete,
		ResourceID:   acd.ResourceID,
		ResourceType: acd.ResourceType,
		CurrentValue: remote.Attributes,
	}
	acd.CurrentValue = remote.Attributes

	if execCtx.Execute() {
		collections := remote.Collections()
		attrs := make([]string, 0, len(collections))
		for attr := range collections {
			attrs = append(attrs, attr)
		}
		sort.Strings(attrs)

		for _, attr := range attrs {
			for _, item := range collectionItems(collections[attr]) {
				if err := e.retryCall(ctx, func() error {
					return client.Detach(ctx, acct, acd.ResourceType, acd.ResourceID, attr, item)
				}); err != nil && !provider.IsNotFound(err) {
					change.RecordError(fmt.Errorf("detach %s %q: %w", attr, item, err))
				}
			}
		}

		// Only attempt the final delete with a clean detach pass; a
		// half-detached resource would fail the delete anyway.
		if len(change.ExceptionsSeen) == 0 {
			err := e.retryCall(ctx, func() error {
				return client.Delete(ctx, acct, acd.ResourceType, acd.ResourceID)
			})
			if err != nil && !provider.IsNotFound(err) {
				change.RecordError(fmt.Errorf("delete %s: %w", acd.ResourceID, err))
			}
		}
	}

	acd.AddChange(change)
}

// executeChange performs one planned mutation, attaching any failure to
// the change itself.
func (e *Engine) executeChange(ctx context.Context, client provider.Client, acct model.Account, declared map[string]any, change *model.ProposedChange) {
	var err error
	switch change.ChangeType {
	case model.ChangeUpdate:
		err = e.retryCall(ctx, func() error {
			return client.Update(ctx, acct, change.ResourceType, change.ResourceID, change.Attribute, change.NewValue)
		})
	case model.ChangeAttach:
		item := fmt.Sprintf("%v", change.NewValue)
		var value any
		if m, ok := declared[change.Attribute].(map[string]string); ok {
			key := mapItemKey(item)
			item, value = key, m[key]
		}
		err = e.retryCall(ctx, func() error {
			return client.Attach(ctx, acct, change.ResourceType, change.ResourceID, change.Attribute, item, value)
		})
	case model.ChangeDetach:
		item := fmt.Sprintf("%v", change.CurrentValue)
		if _, ok := declared[change.Attribute].(map[string]string); ok {
			item = mapItemKey(item)
		}
		err = e.retryCall(ctx, func() error {
			return client.Detach(ctx, acct, change.ResourceType, change.ResourceID, change.Attribute, item)
		})
	}
	if err != nil && !provider.IsNotFound(err) {
		change.RecordError(fmt.Errorf("%s %s: %w", change.ChangeType, change.Attribute, err))
	}
}

func collectionItems(v any) []string {
	switch items := v.(type) {
	case []string:
		out := append([]string{}, items...)
		sort.Strings(out)
		return out
	case map[string]string:
		return sortedMapKeys(items)
	}
	return nil
}
