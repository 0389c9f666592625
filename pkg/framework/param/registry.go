package param

import (
	"fmt"
)

// Registry manages plugin parameters. Parameters are registered while the
// plugin is constructed; after that the registry is only read, so lookups
// from the audio thread take no locks. Values live in the parameters
// themselves and are accessed atomically.
type Registry struct {
	params   map[uint32]*Parameter
	bySymbol map[string]*Parameter
	order    []uint32 // Maintain order for indexed access
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params:   make(map[uint32]*Parameter),
		bySymbol: make(map[string]*Parameter),
		order:    make([]uint32, 0),
	}
}

// Add registers new parameters. Duplicate IDs or symbols are rejected.
func (r *Registry) Add(params ...*Parameter) error {
	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			return fmt.Errorf("parameter ID %d already exists", p.ID)
		}
		if p.Symbol != "" {
			if existing, exists := r.bySymbol[p.Symbol]; exists {
				return fmt.Errorf("parameter symbol %q already used by '%s'", p.Symbol, existing.Name)
			}
			r.bySymbol[p.Symbol] = p
		}
		r.params[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return nil
}

// Get retrieves a parameter by ID
func (r *Registry) Get(id uint32) *Parameter {
	return r.params[id]
}

// GetBySymbol retrieves a parameter by its symbol
func (r *Registry) GetBySymbol(symbol string) *Parameter {
	return r.bySymbol[symbol]
}

// GetByIndex retrieves a parameter by index
func (r *Registry) GetByIndex(index int32) *Parameter {
	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}
	return r.params[r.order[index]]
}

// Count returns the number of parameters
func (r *Registry) Count() int32 {
	return int32(len(r.order))
}

// All returns all parameters in registration order
func (r *Registry) All() []*Parameter {
	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}
	return result
}

// SetPlain sets a parameter's plain value by ID. Unknown IDs are ignored.
func (r *Registry) SetPlain(id uint32, plain float64) bool {
	p := r.params[id]
	if p == nil {
		return false
	}
	p.SetPlainValue(plain)
	return true
}

// ResetAll restores every parameter to its default
func (r *Registry) ResetAll() {
	for _, id := range r.order {
		r.params[id].Reset()
	}
}
