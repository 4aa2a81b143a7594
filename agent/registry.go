package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentlab/core"
)

// Registry is the ordered, read-only set of agents participating in every
// conversation. Its order is the order in which outcomes are emitted.
type Registry struct {
	providers []core.Provider
	index     map[string]int
}

// NewRegistry validates providers and freezes their order.
func NewRegistry(providers ...core.Provider) (*Registry, error) {
	r := &Registry{
		providers: make([]core.Provider, 0, len(providers)),
		index:     make(map[string]int, len(providers)),
	}
	for i, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("agent at position %d is nil", i)
		}
		id := p.Identity()
		if strings.TrimSpace(id.ID) == "" {
			return nil, fmt.Errorf("agent at position %d has an empty id", i)
		}
		if !id.Personality.Valid() {
			return nil, fmt.Errorf("agent %s: unknown personality %q", id.ID, id.Personality)
		}
		key := strings.ToLower(id.ID)
		if _, dup := r.index[key]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", id.ID)
		}
		r.index[key] = len(r.providers)
		r.providers = append(r.providers, p)
	}
	return r, nil
}

// Providers returns the agents in emission order.
func (r *Registry) Providers() []core.Provider {
	out := make([]core.Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Identities returns the identities in emission order.
func (r *Registry) Identities() []core.Identity {
	out := make([]core.Identity, len(r.providers))
	for i, p := range r.providers {
		out[i] = p.Identity()
	}
	return out
}

// Lookup finds an agent by id, ignoring case.
func (r *Registry) Lookup(id string) (core.Provider, bool) {
	i, ok := r.index[strings.ToLower(id)]
	if !ok {
		return nil, false
	}
	return r.providers[i], true
}

// ImageGenerator returns the first agent able to produce images.
func (r *Registry) ImageGenerator() (core.Provider, bool) {
	for _, p := range r.providers {
		if _, ok := p.(core.ImageGenerator); ok {
			return p, true
		}
	}
	return nil, false
}

// Len returns the number of registered agents.
func (r *Registry) Len() int { return len(r.providers) }

// Availability is implemented by providers that can report they are not
// usable, e.g. because a credential is missing.
type Availability interface {
	Available() bool
}

// IsAvailable reports whether p can serve requests. Providers that do not
// implement Availability are assumed ready.
func IsAvailable(p core.Provider) bool {
	if a, ok := p.(Availability); ok {
		return a.Available()
	}
	return true
}
