// Package expiry walks template trees and disables sub-resources whose
// expires_at is in the past. Sweeping is idempotent: an already-disabled,
// already-expired entity is left untouched and not re-logged.
package expiry

import (
	"reflect"
	"time"

	"github.com/accord-io/accord/internal/logging"
	"github.com/accord-io/accord/internal/model"
)

var expiryModelType = reflect.TypeOf(model.ExpiryModel{})

// SweepTemplate sweeps one template and its whole property tree. An
// expired template is marked deleted (the delete flows through the normal
// apply path); expired sub-resources are disabled in place. Reports
// whether anything changed, so callers know to rewrite the file.
func SweepTemplate(t *model.Template, now time.Time) bool {
	changed := false
	if t.Expired(now) && !t.Deleted {
		t.Deleted = true
		changed = true
		logging.Info("expired template marked deleted",
			"template_type", t.TemplateType,
			"resource_id", t.Identifier,
			"expires_at", t.ExpiresAt)
	}
	if t.Properties != nil {
		changed = Sweep(t.Properties, t.TemplateType, t.Identifier, now) || changed
	}
	return changed
}

// Sweep recursively walks every exported field of node, disabling expired
// entities. Template graphs are trees, so the recursion terminates on the
// static shape of the entity graph. node must be a pointer for changes to
// take effect.
func Sweep(node any, owningType, owningID string, now time.Time) bool {
	if node == nil {
		return false
	}
	return sweepValue(reflect.ValueOf(node), owningType, owningID, now)
}

func sweepValue(v reflect.Value, owningType, owningID string, now time.Time) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return false
		}
		return sweepValue(v.Elem(), owningType, owningID, now)
	case reflect.Slice, reflect.Array:
		changed := false
		for i := 0; i < v.Len(); i++ {
			if sweepValue(v.Index(i), owningType, owningID, now) {
				changed = true
			}
		}
		return changed
	case reflect.Struct:
		changed := false
		if v.CanAddr() {
			if he, ok := v.Addr().Interface().(model.HasExpiry); ok {
				if sweepExpiry(he.GetExpiry(), describe(v), owningType, owningID, now) {
					changed = true
				}
			}
		}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" || f.Type == expiryModelType {
				continue
			}
			if sweepValue(v.Field(i), owningType, owningID, now) {
				changed = true
			}
		}
		return changed
	default:
		return false
	}
}

func sweepExpiry(em *model.ExpiryModel, target, owningType, owningID string, now time.Time) bool {
	if em == nil || !em.Expired(now) || em.DisabledEverywhere() {
		return false
	}
	em.Disable()
	logging.Info("expired resource disabled",
		"resource", target,
		"owning_resource_type", owningType,
		"owning_resource_id", owningID,
		"expires_at", em.ExpiresAt)
	return true
}

var nameFields = []string{"Name", "Key", "ID", "Email", "PolicyName", "PolicyArn"}

// describe names a swept node for the log line, preferring an identifying
// string field over the bare type name.
func describe(v reflect.Value) string {
	for _, name := range nameFields {
		f := v.FieldByName(name)
		if f.IsValid() && f.Kind() == reflect.String && f.String() != "" {
			return v.Type().Name() + ":" + f.String()
		}
	}
	return v.Type().Name()
}
