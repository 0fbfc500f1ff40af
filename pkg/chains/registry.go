package chains

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/DFXswiss/services-sub002/pkg/types"
)

// Registry manages family adapters (one per chain family)
type Registry struct {
	adapters map[types.Family]FamilyAdapter
	mu       sync.RWMutex
}

// NewRegistry creates a registry with the given adapters
func NewRegistry(adapters ...FamilyAdapter) (*Registry, error) {
	r := &Registry{
		adapters: make(map[types.Family]FamilyAdapter),
	}
	for _, adapter := range adapters {
		if err := r.Register(adapter); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register registers a family adapter (uses adapter.Family() as key)
// If an adapter already exists for the family, it will be replaced (idempotent)
func (r *Registry) Register(adapter FamilyAdapter) error {
	if adapter == nil {
		return errors.New("cannot register nil adapter")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters[adapter.Family()] = adapter
	return nil
}

// Get retrieves a family adapter
func (r *Registry) Get(family types.Family) (FamilyAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[family]
	if !exists {
		return nil, fmt.Errorf("no adapter registered for family: %s", family)
	}

	return adapter, nil
}

// ForChain retrieves the adapter serving chain
func (r *Registry) ForChain(chain types.Chain) (FamilyAdapter, error) {
	family, ok := FamilyOf(chain)
	if !ok {
		return nil, &UnsupportedChainError{Chain: chain}
	}
	return r.Get(family)
}

// SupportedFamilies returns a sorted list of all registered families
func (r *Registry) SupportedFamilies() []types.Family {
	r.mu.RLock()
	defer r.mu.RUnlock()

	families := make([]types.Family, 0, len(r.adapters))
	for family := range r.adapters {
		families = append(families, family)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	return families
}

// IsSupported checks if a family is supported
func (r *Registry) IsSupported(family types.Family) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.adapters[family]
	return exists
}

// Unregister removes a family adapter (useful for testing)
func (r *Registry) Unregister(family types.Family) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.adapters, family)
}
