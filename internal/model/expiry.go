package model

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ScopedEnabled is one per-account enablement entry. When several entries
// could match the same account, the closest-match rule in internal/scope
// decides which one wins.
type ScopedEnabled struct {
	AccessScope `yaml:",inline"`
	Enabled     bool `yaml:"enabled"`
}

// Enabled is either a single flag or a list of per-account flags. The
// zero value means "enabled everywhere".
type Enabled struct {
	Flag   *bool
	Scoped []ScopedEnabled
}

// EnabledValue returns a plain single-flag Enabled.
func EnabledValue(v bool) Enabled {
	return Enabled{Flag: &v}
}

// IsZero reports whether the value is unset, so yaml omitempty drops it.
func (e Enabled) IsZero() bool {
	return e.Flag == nil && len(e.Scoped) == 0
}

func (e *Enabled) UnmarshalYAML(node *yaml.Node) error {
	var flag bool
	if err := node.Decode(&flag); err == nil {
		e.Flag = &flag
		e.Scoped = nil
		return nil
	}
	var scoped []ScopedEnabled
	if err := node.Decode(&scoped); err != nil {
		return fmt.Errorf("enabled must be a bool or a list of scoped entries: %w", err)
	}
	e.Flag = nil
	e.Scoped = scoped
	return nil
}

func (e Enabled) MarshalYAML() (any, error) {
	if len(e.Scoped) > 0 {
		return e.Scoped, nil
	}
	if e.Flag != nil {
		return *e.Flag, nil
	}
	return nil, nil
}

// ExpiryModel is embedded in any entity with a time-boxed existence.
type ExpiryModel struct {
	ExpiresAt *time.Time `yaml:"expires_at,omitempty"`
	Enabled   Enabled    `yaml:"enabled,omitempty"`
}

// GetExpiry allows capability-style access from generic code.
func (m *ExpiryModel) GetExpiry() *ExpiryModel { return m }

// HasExpiry is implemented by anything embedding an ExpiryModel.
type HasExpiry interface {
	GetExpiry() *ExpiryModel
}

// Expired reports whether expires_at is set and in the past.
func (m *ExpiryModel) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && m.ExpiresAt.Before(now)
}

// DisabledEverywhere reports whether the entity is flatly disabled, with
// no per-account entries left to consult.
func (m *ExpiryModel) DisabledEverywhere() bool {
	return m.Enabled.Flag != nil && !*m.Enabled.Flag
}

// Disable flips the entity to flatly disabled, discarding any scoped
// entries. Used by the expiry sweeper.
func (m *ExpiryModel) Disable() {
	m.Enabled = EnabledValue(false)
}
