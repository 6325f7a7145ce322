// Package material holds the constitutive-model handles assigned to
// particles. The stress-update laws themselves live with the solver; the
// mesh only needs identity, density and named properties.
package material

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a material id the registry does not know.
	ErrNotFound = errors.New("material: material id not found")

	// ErrDuplicate indicates a material id registered twice.
	ErrDuplicate = errors.New("material: duplicate material id")
)

// Material is a constitutive-model handle.
type Material struct {
	ID         uint32
	Name       string
	Density    float64
	Properties map[string]float64
}

// Property returns a named property, or ok=false when absent.
func (m *Material) Property(name string) (float64, bool) {
	v, ok := m.Properties[name]
	return v, ok
}

// Registry maps material ids to materials.
type Registry struct {
	materials map[uint32]*Material
}

func NewRegistry() *Registry {
	return &Registry{materials: make(map[uint32]*Material)}
}

// Add registers a material; a repeated id fails.
func (r *Registry) Add(m *Material) error {
	if m == nil {
		return fmt.Errorf("material: nil material")
	}
	if _, exists := r.materials[m.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicate, m.ID)
	}
	r.materials[m.ID] = m
	return nil
}

// Get resolves a material id. A lookup miss is a hard failure.
func (r *Registry) Get(id uint32) (*Material, error) {
	m, ok := r.materials[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return m, nil
}

// Len returns the number of registered materials.
func (r *Registry) Len() int { return len(r.materials) }
