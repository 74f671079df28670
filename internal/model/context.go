package model

// ExecutionContext carries the dry-run flag and command kind through
// every engine call. It is a value, created once per invocation and never
// shared mutable state, so concurrent invocations cannot interfere.
type ExecutionContext struct {
	// EvalOnly true means changes are computed but never executed.
	EvalOnly bool
	// Command is the invoking command kind ("plan", "apply", "import",
	// "expire"), used only for logging and reports.
	Command string
	// ManagedPreference, when set, overrides each template's own Managed
	// mode.
	ManagedPreference ManagedMode
}

// Execute reports whether provider mutations are allowed.
func (c ExecutionContext) Execute() bool { return !c.EvalOnly }

// EffectiveManaged resolves the template's managed mode against the
// context preference.
func (c ExecutionContext) EffectiveManaged(t *Template) ManagedMode {
	if c.ManagedPreference != ManagedUndefined {
		return c.ManagedPreference
	}
	return t.Managed
}

// PlanContext returns the context for a never-mutating plan run.
func PlanContext() ExecutionContext {
	return ExecutionContext{EvalOnly: true, Command: "plan"}
}

// ApplyContext returns the context for an execute-mode apply run.
func ApplyContext() ExecutionContext {
	return ExecutionContext{EvalOnly: false, Command: "apply"}
}
