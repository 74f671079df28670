package engine

import (
	"fmt"
	"sort"

	"github.com/accord-io/accord/internal/model"
)

// DiffResource computes the ordered list of proposed changes between a
// declared attribute view and the remote representation of one resource.
// Collection attributes ([]string, map[string]string) diff as sets on
// their identifying key; scalars that differ become a single UPDATE.
// Attributes absent from the declared view are unmanaged and never
// diffed. The output order is deterministic: attributes sorted by name,
// items sorted within each attribute.
func DiffResource(declared, remote map[string]any, resourceID, resourceType string) []model.ProposedChange {
	var changes []model.ProposedChange

	attrs := make([]string, 0, len(declared))
	for k := range declared {
		attrs = append(attrs, k)
	}
	sort.Strings(attrs)

	for _, attr := range attrs {
		dv := declared[attr]
		rv := remote[attr]

		switch want := dv.(type) {
		case []string:
			have, _ := rv.([]string)
			changes = append(changes, diffSet(attr, want, have, resourceID, resourceType)...)
		case map[string]string:
			have, _ := rv.(map[string]string)
			changes = append(changes, diffMap(attr, want, have, resourceID, resourceType)...)
		default:
			if scalar(dv) != scalar(rv) {
				changes = append(changes, model.ProposedChange{
					ChangeType:   model.ChangeUpdate,
					ResourceID:   resourceID,
					ResourceType: resourceType,
					Attribute:    attr,
					CurrentValue: rv,
					NewValue:     dv,
				})
			}
		}
	}

	return changes
}

// diffSet diffs a set-valued attribute: declared-but-not-remote items
// become ATTACH, remote-but-not-declared become DETACH. Matching is
// case-sensitive exact-match.
func diffSet(attr string, want, have []string, resourceID, resourceType string) []model.ProposedChange {
	wantSet := make(map[string]bool, len(want))
	for _, item := range want {
		wantSet[item] = true
	}
	haveSet := make(map[string]bool, len(have))
	for _, item := range have {
		haveSet[item] = true
	}

	var changes []model.ProposedChange
	for _, item := range sortedKeys(wantSet) {
		if !haveSet[item] {
			changes = append(changes, model.ProposedChange{
				ChangeType:   model.ChangeAttach,
				ResourceID:   resourceID,
				ResourceType: resourceType,
				Attribute:    attr,
				NewValue:     item,
			})
		}
	}
	for _, item := range sortedKeys(haveSet) {
		if !wantSet[item] {
			changes = append(changes, model.ProposedChange{
				ChangeType:   model.ChangeDetach,
				ResourceID:   resourceID,
				ResourceType: resourceType,
				Attribute:    attr,
				CurrentValue: item,
			})
		}
	}
	return changes
}

// diffMap diffs a key/value attribute (tags). A key with a changed value
// becomes an ATTACH carrying both values: cloud tag APIs overwrite on
// attach, so no separate detach is emitted.
func diffMap(attr string, want, have map[string]string, resourceID, resourceType string) []model.ProposedChange {
	var changes []model.ProposedChange
	for _, k := range sortedMapKeys(want) {
		if haveV, ok := have[k]; !ok || haveV != want[k] {
			change := model.ProposedChange{
				ChangeType:   model.ChangeAttach,
				ResourceID:   resourceID,
				ResourceType: resourceType,
				Attribute:    attr,
				NewValue:     fmt.Sprintf("%s=%s", k, want[k]),
			}
			if ok {
				change.CurrentValue = fmt.Sprintf("%s=%s", k, haveV)
			}
			changes = append(changes, change)
		}
	}
	for _, k := range sortedMapKeys(have) {
		if _, ok := want[k]; !ok {
			changes = append(changes, model.ProposedChange{
				ChangeType:   model.ChangeDetach,
				ResourceID:   resourceID,
				ResourceType: resourceType,
				Attribute:    attr,
				CurrentValue: fmt.Sprintf("%s=%s", k, have[k]),
			})
		}
	}
	return changes
}

// mapItemKey extracts the map key from an ATTACH/DETACH item rendered as
// "key=value".
func mapItemKey(item string) string {
	for i := 0; i < len(item); i++ {
		if item[i] == '=' {
			return item[:i]
		}
	}
	return item
}

func scalar(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
