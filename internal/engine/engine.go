// Package engine implements the reconciliation core: per-account change
// planning, concurrent fan-out across accounts, retries, and partial
// failure aggregation. It talks to cloud backends only through
// provider.Client.
package engine

import (
	"time"

	"github.com/accord-io/accord/internal/provider"
)

// Engine orchestrates planning and applying templates.
type Engine struct {
	registry *provider.Registry

	// Parallelism bounds concurrent per-account tasks.
	Parallelism int
	// Retry governs every remote call.
	Retry *RetryPolicy
	// Callback, if set, receives progress events during a run.
	Callback ApplyCallback
}

func NewEngine(registry *provider.Registry) *Engine {
	return &Engine{
		registry:    registry,
		Parallelism: DefaultParallelism,
		Retry:       DefaultRetryPolicy(),
	}
}

// ApplyEvent reports progress for one account of one template.
type ApplyEvent struct {
	Template string
	Account  string
	Status   string // "started", "completed", "failed"
	Changes  int
	Duration time.Duration
}

// ApplyCallback is called for each apply event if set.
type ApplyCallback func(event ApplyEvent)

func (e *Engine) emit(event ApplyEvent) {
	if e.Callback != nil {
		e.Callback(event)
	}
}
