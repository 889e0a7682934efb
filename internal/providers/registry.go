// Package providers holds the AI provider adapters and their lookup
// table. Adding a provider means registering one adapter; dispatch
// logic never branches on provider identity.
package providers

import (
	"fmt"
	"sort"

	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
)

// SystemPrompt is the shared system instruction sent by every adapter.
const SystemPrompt = "You are a financial analyst AI assistant. Analyze the provided portfolio information and respond with valid JSON according to the requested format."

// Registry maps provider IDs to their adapters.
type Registry struct {
	adapters map[models.ProviderID]interfaces.AIProvider
}

// NewRegistry creates a registry from the given adapters. Nil adapters
// are skipped so callers can pass conditionally-constructed clients.
func NewRegistry(adapters ...interfaces.AIProvider) *Registry {
	r := &Registry{adapters: make(map[models.ProviderID]interfaces.AIProvider)}
	for _, a := range adapters {
		if a != nil {
			r.adapters[a.ID()] = a
		}
	}
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a interfaces.AIProvider) {
	r.adapters[a.ID()] = a
}

// Get returns the adapter for id.
func (r *Registry) Get(id models.ProviderID) (interfaces.AIProvider, error) {
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", id)
	}
	return a, nil
}

// IDs returns the registered provider IDs in stable order.
func (r *Registry) IDs() []models.ProviderID {
	ids := make([]models.ProviderID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
