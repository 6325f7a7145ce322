package mesh

import "github.com/notargets/gompm/types"

// Entity is anything addressable by a mesh-local id.
type Entity interface {
	ID() types.Index
}

// Container is an insertion-ordered collection of entities owned by
// reference. Reads (Size, At, Each) are safe for concurrent use as long as
// no Add/Remove runs; structural mutation belongs to single-threaded phases
// between parallel passes.
type Container[T Entity] struct {
	items []T
	pos   map[types.Index]int
}

func NewContainer[T Entity]() *Container[T] {
	return &Container[T]{pos: make(map[types.Index]int)}
}

// Add appends an entity. With checkDuplicates set it fails when an entity
// with the same id is already present; without it, a duplicate id replaces
// the existing entry in place so the container and its paired map never
// disagree on size.
func (c *Container[T]) Add(e T, checkDuplicates bool) bool {
	if i, exists := c.pos[e.ID()]; exists {
		if checkDuplicates {
			return false
		}
		c.items[i] = e
		return true
	}
	c.pos[e.ID()] = len(c.items)
	c.items = append(c.items, e)
	return true
}

// Remove deletes an entity, preserving insertion order of the remainder.
// Removing an absent entity returns false and changes nothing.
func (c *Container[T]) Remove(e T) bool {
	return c.RemoveByID(e.ID())
}

// RemoveByID deletes the entity with the given id if present.
func (c *Container[T]) RemoveByID(id types.Index) bool {
	i, exists := c.pos[id]
	if !exists {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.pos, id)
	for j := i; j < len(c.items); j++ {
		c.pos[c.items[j].ID()] = j
	}
	return true
}

// RemoveIf deletes every entity the predicate selects, in one pass.
func (c *Container[T]) RemoveIf(pred func(T) bool) int {
	kept := c.items[:0]
	removed := 0
	for _, e := range c.items {
		if pred(e) {
			delete(c.pos, e.ID())
			removed++
			continue
		}
		c.pos[e.ID()] = len(kept)
		kept = append(kept, e)
	}
	// Release references past the new end.
	var zero T
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = zero
	}
	c.items = kept
	return removed
}

func (c *Container[T]) Size() int { return len(c.items) }

// At returns the i-th entity in insertion order.
func (c *Container[T]) At(i int) T { return c.items[i] }

func (c *Container[T]) Contains(id types.Index) bool {
	_, exists := c.pos[id]
	return exists
}

// Each applies f sequentially in insertion order.
func (c *Container[T]) Each(f func(T)) {
	for _, e := range c.items {
		f(e)
	}
}

// Clear drops every entity.
func (c *Container[T]) Clear() {
	c.items = nil
	c.pos = make(map[types.Index]int)
}

// Map is the fast id lookup paired with a Container. It indexes entities,
// it never owns them; every insert/remove on the container must be mirrored
// here as one logical operation.
type Map[T Entity] map[types.Index]T

func NewMap[T Entity]() Map[T] { return make(Map[T]) }

func (m Map[T]) Add(e T, checkDuplicates bool) bool {
	if checkDuplicates {
		if _, exists := m[e.ID()]; exists {
			return false
		}
	}
	m[e.ID()] = e
	return true
}

func (m Map[T]) Remove(id types.Index) bool {
	if _, exists := m[id]; !exists {
		return false
	}
	delete(m, id)
	return true
}

func (m Map[T]) Get(id types.Index) (T, bool) {
	e, ok := m[id]
	return e, ok
}

func (m Map[T]) Size() int { return len(m) }
