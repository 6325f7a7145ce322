package mesh

import (
	"fmt"
	"sort"
	"sync"

	"github.com/notargets/gompm/element"
	"github.com/notargets/gompm/types"
)

// Cell is one element of the background mesh. It references its nodes (non
// owning), knows its topological neighbours, tracks the particles currently
// inside it, and delegates geometry to its element.
type Cell struct {
	id    types.Index
	elem  element.Element
	nodes []*Node

	rank  int
	ghost bool

	neighbours map[types.Index]struct{}

	mu        sync.Mutex
	particles map[types.Index]struct{}
}

// NewCell builds a cell over the given nodes. A node count that does not
// match the element's declared arity is rejected; such a cell never enters
// the mesh.
func NewCell(id types.Index, elem element.Element, nodes []*Node) (*Cell, error) {
	if elem == nil {
		return nil, fmt.Errorf("cell %d: nil element", id)
	}
	if len(nodes) != elem.NNodes() {
		return nil, fmt.Errorf("cell %d: %d nodes for a %d-node %s element",
			id, len(nodes), elem.NNodes(), elem.Type())
	}
	return &Cell{
		id:         id,
		elem:       elem,
		nodes:      nodes,
		neighbours: make(map[types.Index]struct{}),
		particles:  make(map[types.Index]struct{}),
	}, nil
}

func (c *Cell) ID() types.Index          { return c.id }
func (c *Cell) Element() element.Element { return c.elem }
func (c *Cell) NNodes() int              { return len(c.nodes) }
func (c *Cell) Rank() int                { return c.rank }
func (c *Cell) SetRank(rank int)         { c.rank = rank }
func (c *Cell) Ghost() bool              { return c.ghost }
func (c *Cell) SetGhost(ghost bool)      { c.ghost = ghost }

// Nodes returns the cell's nodes in connectivity order.
func (c *Cell) Nodes() []*Node { return c.nodes }

// NodeIDs returns the ordered node ids of the cell.
func (c *Cell) NodeIDs() []types.Index {
	ids := make([]types.Index, len(c.nodes))
	for i, n := range c.nodes {
		ids[i] = n.ID()
	}
	return ids
}

// AddNeighbour records an adjacent cell (one sharing at least one node).
func (c *Cell) AddNeighbour(id types.Index) {
	if id != c.id {
		c.neighbours[id] = struct{}{}
	}
}

// Neighbours returns adjacent cell ids in ascending order.
func (c *Cell) Neighbours() []types.Index {
	out := make([]types.Index, 0, len(c.neighbours))
	for id := range c.neighbours {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddParticleID registers a particle as resident in this cell.
func (c *Cell) AddParticleID(id types.Index) {
	c.mu.Lock()
	c.particles[id] = struct{}{}
	c.mu.Unlock()
}

// RemoveParticleID deregisters a resident particle.
func (c *Cell) RemoveParticleID(id types.Index) {
	c.mu.Lock()
	delete(c.particles, id)
	c.mu.Unlock()
}

// NParticles returns the number of resident particles.
func (c *Cell) NParticles() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.particles)
}

// ParticleIDs returns resident particle ids in ascending order.
func (c *Cell) ParticleIDs() []types.Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Index, 0, len(c.particles))
	for id := range c.particles {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Status reports whether the cell hosts any particles.
func (c *Cell) Status() bool { return c.NParticles() > 0 }

func (c *Cell) nodeCoords() [][]float64 {
	coords := make([][]float64, len(c.nodes))
	for i, n := range c.nodes {
		coords[i] = n.Coordinates()
	}
	return coords
}

// ComputeReferenceLocation maps a physical point into the cell's natural
// coordinates. ok is true only when the point lies inside the cell.
func (c *Cell) ComputeReferenceLocation(pt []float64) (xi []float64, ok bool) {
	xi, converged := c.elem.NaturalCoordinates(c.nodeCoords(), pt)
	if !converged {
		return nil, false
	}
	return xi, c.elem.InReferenceRange(xi)
}

// IsPointInCell reports geometric containment of pt.
func (c *Cell) IsPointInCell(pt []float64) bool {
	_, ok := c.ComputeReferenceLocation(pt)
	return ok
}

// Centroid returns the arithmetic mean of the cell's node coordinates.
func (c *Cell) Centroid() []float64 {
	dim := c.elem.Dim()
	ctr := make([]float64, dim)
	for _, n := range c.nodes {
		for d := 0; d < dim; d++ {
			ctr[d] += n.Coordinates()[d]
		}
	}
	for d := 0; d < dim; d++ {
		ctr[d] /= float64(len(c.nodes))
	}
	return ctr
}

// ActivateNodes flips the cell's nodes to active. Called from the active
// node pass for every cell hosting particles.
func (c *Cell) ActivateNodes() {
	for _, n := range c.nodes {
		n.SetActive(true)
	}
}
