package provider

import (
	"fmt"
	"strings"
	"sync"
)

// Registry manages the configured provider clients.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]Client),
	}
}

// Register adds a client under its Name. Re-registering a name replaces
// the previous client.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.Name()] = c
}

// Get returns a registered client.
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("provider not configured: %s", name)
	}
	return c, nil
}

// ClientFor resolves the client for a template type. The provider name is
// the segment before the first colon: "aws:iam:role" belongs to "aws".
func (r *Registry) ClientFor(templateType string) (Client, error) {
	name, _, ok := strings.Cut(templateType, ":")
	if !ok || name == "" {
		return nil, fmt.Errorf("template type %q has no provider prefix", templateType)
	}
	return r.Get(name)
}
