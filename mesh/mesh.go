// Package mesh implements the spatial core of the material point method:
// the background mesh of nodes and cells, the particle population moving
// through it, particle-to-cell localization, domain decomposition with
// ghost/halo bookkeeping across ranks, and parallel iteration over entity
// collections.
package mesh

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/notargets/gompm/comm"
	"github.com/notargets/gompm/element"
	"github.com/notargets/gompm/material"
	"github.com/notargets/gompm/types"
	"github.com/notargets/gompm/utils"
)

var (
	// ErrEmptyInput indicates a bulk operation given nothing to do.
	ErrEmptyInput = errors.New("mesh: empty input")

	// ErrDuplicate indicates an entity id that already exists.
	ErrDuplicate = errors.New("mesh: duplicate entity id")

	// ErrNotFound indicates an id absent from the lookup map.
	ErrNotFound = errors.New("mesh: entity id not found")

	// ErrInvalidDirection indicates a constraint direction >= the mesh
	// dimension.
	ErrInvalidDirection = errors.New("mesh: invalid constraint direction")

	// ErrCountMismatch indicates a bulk assignment whose input length does
	// not match the entity count.
	ErrCountMismatch = errors.New("mesh: input count does not match entity count")
)

// DefaultGrainSize is the target block size for parallel fan-out.
const DefaultGrainSize = 100

// Mesh owns one container of each entity kind plus derived, recomputable
// views. A mesh is bound to at most one communicator rank; without one it
// behaves as a single-rank mesh.
type Mesh struct {
	id  uint32
	dim int
	log *slog.Logger

	grainSize int

	nodes    *Container[*Node]
	mapNodes Map[*Node]

	cells    *Container[*Cell]
	mapCells Map[*Cell]

	particles    *Container[*Particle]
	mapParticles Map[*Particle]

	activeNodes       *Container[*Node]
	domainSharedNodes *Container[*Node]

	boundaryNodes     *Container[*Node]
	boundaryParticles *Container[*Particle]
	boundarySegments  *Container[*BoundarySegment]
	// Cells owning at least one boundary face.
	boundaryCells map[types.Index]struct{}

	ghostCells      *Container[*Cell]
	localGhostCells *Container[*Cell]
	// Distinct neighbouring ranks per local ghost cell.
	ghostCellNeighbourRanks map[types.Index][]int

	nodeSets     map[int][]types.Index
	cellSets     map[int][]types.Index
	particleSets map[int][]types.Index

	particleTractions           []*Traction
	particleVelocityConstraints []*VelocityConstraint
	nodalVelocityConstraints    []*VelocityConstraint
	nodalFrictionConstraints    []*FrictionConstraint
	nodalConcentratedForces     []*ConcentratedForce

	materials *material.Registry

	comm *comm.Communicator
	// Number of dense halo slots after the last FindDomainSharedNodes pass.
	nhaloNodes int
}

// NewMesh constructs an empty mesh of the given dimension. The logger is
// the mesh's diagnostics sink; nil discards.
func NewMesh(id uint32, dim int, log *slog.Logger) (*Mesh, error) {
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("mesh %d: unsupported dimension %d", id, dim)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Mesh{
		id:                      id,
		dim:                     dim,
		log:                     log.With("mesh", id),
		grainSize:               DefaultGrainSize,
		nodes:                   NewContainer[*Node](),
		mapNodes:                NewMap[*Node](),
		cells:                   NewContainer[*Cell](),
		mapCells:                NewMap[*Cell](),
		particles:               NewContainer[*Particle](),
		mapParticles:            NewMap[*Particle](),
		activeNodes:             NewContainer[*Node](),
		domainSharedNodes:       NewContainer[*Node](),
		boundaryNodes:           NewContainer[*Node](),
		boundaryParticles:       NewContainer[*Particle](),
		boundarySegments:        NewContainer[*BoundarySegment](),
		boundaryCells:           make(map[types.Index]struct{}),
		ghostCells:              NewContainer[*Cell](),
		localGhostCells:         NewContainer[*Cell](),
		ghostCellNeighbourRanks: make(map[types.Index][]int),
		nodeSets:                make(map[int][]types.Index),
		cellSets:                make(map[int][]types.Index),
		particleSets:            make(map[int][]types.Index),
		materials:               material.NewRegistry(),
	}, nil
}

func (m *Mesh) ID() uint32 { return m.id }
func (m *Mesh) Dim() int   { return m.dim }

// SetGrainSize tunes the parallel fan-out block size.
func (m *Mesh) SetGrainSize(grain int) {
	if grain > 0 {
		m.grainSize = grain
	}
}

// AttachCommunicator binds the mesh to its rank endpoint.
func (m *Mesh) AttachCommunicator(c *comm.Communicator) { m.comm = c }

// Rank returns the local MPI rank (0 without a communicator).
func (m *Mesh) Rank() int {
	if m.comm == nil {
		return 0
	}
	return m.comm.Rank()
}

// CommSize returns the number of ranks (1 without a communicator).
func (m *Mesh) CommSize() int {
	if m.comm == nil {
		return 1
	}
	return m.comm.Size()
}

// Materials exposes the material registry.
func (m *Mesh) Materials() *material.Registry { return m.materials }

// InitialiseMaterials registers the given materials with the mesh.
func (m *Mesh) InitialiseMaterials(mats []*material.Material) error {
	for _, mat := range mats {
		if err := m.materials.Add(mat); err != nil {
			return err
		}
	}
	return nil
}

// Status reports whether the mesh is active: at least one particle present.
func (m *Mesh) Status() bool { return m.particles.Size() > 0 }

// ---- Nodes ----

// CreateNodes builds nodes from coordinates with ids starting at gnid.
// Entities inserted before a failing element stay in the mesh.
func (m *Mesh) CreateNodes(gnid types.Index, coordinates [][]float64, checkDuplicates bool) error {
	if len(coordinates) == 0 {
		m.log.Error("create nodes failed", "reason", "empty coordinate list")
		return ErrEmptyInput
	}
	for i, coords := range coordinates {
		if len(coords) != m.dim {
			m.log.Error("create nodes failed", "node", i, "ncoords", len(coords))
			return fmt.Errorf("mesh: node coordinate dimension %d, mesh dimension %d", len(coords), m.dim)
		}
		node := NewNode(gnid+types.Index(i), coords)
		if !m.AddNode(node, checkDuplicates) {
			m.log.Error("create nodes failed", "reason", "duplicate id", "id", node.ID())
			return fmt.Errorf("%w: node %d", ErrDuplicate, node.ID())
		}
	}
	return nil
}

// AddNode inserts a node into the container and the lookup map as one
// logical operation.
func (m *Mesh) AddNode(node *Node, checkDuplicates bool) bool {
	if !m.nodes.Add(node, checkDuplicates) {
		return false
	}
	m.mapNodes.Add(node, false)
	return true
}

// RemoveNode deletes a node from the container and the map; false if absent.
func (m *Mesh) RemoveNode(node *Node) bool {
	if !m.nodes.Remove(node) {
		return false
	}
	m.mapNodes.Remove(node.ID())
	return true
}

// NNodes returns the number of nodes.
func (m *Mesh) NNodes() int { return m.nodes.Size() }

// GetNode resolves a node id through the lookup map.
func (m *Mesh) GetNode(id types.Index) (*Node, bool) { return m.mapNodes.Get(id) }

// ---- Cells ----

// CreateCells builds cells from node-id connectivity with ids starting at
// gcid, all sharing the given element. A cell whose arity fails validation
// is rejected; earlier cells stay.
func (m *Mesh) CreateCells(gcid types.Index, elem element.Element, connectivity [][]types.Index, checkDuplicates bool) error {
	if len(connectivity) == 0 {
		m.log.Error("create cells failed", "reason", "empty connectivity list")
		return ErrEmptyInput
	}
	for i, nodeIDs := range connectivity {
		nodes := make([]*Node, 0, len(nodeIDs))
		for _, nid := range nodeIDs {
			node, ok := m.mapNodes.Get(nid)
			if !ok {
				m.log.Error("create cells failed", "cell", i, "missing_node", nid)
				return fmt.Errorf("%w: node %d", ErrNotFound, nid)
			}
			nodes = append(nodes, node)
		}
		cell, err := NewCell(gcid+types.Index(i), elem, nodes)
		if err != nil {
			m.log.Error("create cells failed", "err", err)
			return err
		}
		if !m.AddCell(cell, checkDuplicates) {
			m.log.Error("create cells failed", "reason", "duplicate id", "id", cell.ID())
			return fmt.Errorf("%w: cell %d", ErrDuplicate, cell.ID())
		}
	}
	return nil
}

// AddCell inserts a cell into the container and the lookup map.
func (m *Mesh) AddCell(cell *Cell, checkDuplicates bool) bool {
	if !m.cells.Add(cell, checkDuplicates) {
		return false
	}
	m.mapCells.Add(cell, false)
	return true
}

// RemoveCell deletes a cell from the container and the map; false if absent.
func (m *Mesh) RemoveCell(cell *Cell) bool {
	if !m.cells.Remove(cell) {
		return false
	}
	m.mapCells.Remove(cell.ID())
	return true
}

// NCells returns the number of cells.
func (m *Mesh) NCells() int { return m.cells.Size() }

// GetCell resolves a cell id through the lookup map.
func (m *Mesh) GetCell(id types.Index) (*Cell, bool) { return m.mapCells.Get(id) }

// ---- Particles ----

// CreateParticles builds particles of the named type at the given
// coordinates, assigns their material, and localizes them.
func (m *Mesh) CreateParticles(ptype string, coordinates [][]float64, materialID uint32, checkDuplicates bool) error {
	if len(coordinates) == 0 {
		m.log.Error("create particles failed", "reason", "empty coordinate list")
		return ErrEmptyInput
	}
	mat, err := m.materials.Get(materialID)
	if err != nil {
		m.log.Error("create particles failed", "err", err)
		return err
	}
	pid := m.nextParticleID()
	for i, coords := range coordinates {
		p, err := NewParticleByType(ptype, pid+types.Index(i), coords)
		if err != nil {
			m.log.Error("create particles failed", "err", err)
			return err
		}
		p.SetMaterialID(mat.ID)
		if !m.AddParticle(p, checkDuplicates) {
			m.log.Error("create particles failed", "reason", "duplicate id", "id", p.ID())
			return fmt.Errorf("%w: particle %d", ErrDuplicate, p.ID())
		}
	}
	return nil
}

func (m *Mesh) nextParticleID() types.Index {
	var next types.Index
	m.particles.Each(func(p *Particle) {
		if p.ID() >= next {
			next = p.ID() + 1
		}
	})
	return next
}

// AddParticle inserts a particle into the container and the lookup map, and
// attempts to localize it.
func (m *Mesh) AddParticle(p *Particle, checkDuplicates bool) bool {
	if !m.particles.Add(p, checkDuplicates) {
		return false
	}
	m.mapParticles.Add(p, false)
	m.LocateParticleCells(p)
	return true
}

// RemoveParticle deletes a particle from the container, the map, and its
// cell's membership; false if absent.
func (m *Mesh) RemoveParticle(p *Particle) bool {
	if !m.particles.Remove(p) {
		return false
	}
	m.mapParticles.Remove(p.ID())
	p.RemoveCell()
	return true
}

// RemoveParticlesByID bulk-removes particles, skipping absent ids.
func (m *Mesh) RemoveParticlesByID(pids []types.Index) {
	if len(pids) == 0 {
		return
	}
	drop := make(map[types.Index]struct{}, len(pids))
	for _, id := range pids {
		if p, ok := m.mapParticles.Get(id); ok {
			drop[id] = struct{}{}
			p.RemoveCell()
			m.mapParticles.Remove(id)
		}
	}
	m.particles.RemoveIf(func(p *Particle) bool {
		_, gone := drop[p.ID()]
		return gone
	})
}

// NParticles returns the number of particles.
func (m *Mesh) NParticles() int { return m.particles.Size() }

// GetParticle resolves a particle id through the lookup map.
func (m *Mesh) GetParticle(id types.Index) (*Particle, bool) { return m.mapParticles.Get(id) }

// ---- Iteration ----

// IterateOverNodes applies oper to every node in a parallel fan-out.
func (m *Mesh) IterateOverNodes(oper func(*Node)) {
	utils.ParallelFor(m.nodes.Size(), m.grainSize, func(k int) {
		oper(m.nodes.At(k))
	})
}

// IterateOverNodesPredicate applies oper to nodes satisfying pred.
func (m *Mesh) IterateOverNodesPredicate(oper func(*Node), pred func(*Node) bool) {
	utils.ParallelFor(m.nodes.Size(), m.grainSize, func(k int) {
		if n := m.nodes.At(k); pred(n) {
			oper(n)
		}
	})
}

// IterateOverActiveNodes applies oper to the active-node view.
func (m *Mesh) IterateOverActiveNodes(oper func(*Node)) {
	utils.ParallelFor(m.activeNodes.Size(), m.grainSize, func(k int) {
		oper(m.activeNodes.At(k))
	})
}

// IterateOverCells applies oper to every cell in a parallel fan-out.
func (m *Mesh) IterateOverCells(oper func(*Cell)) {
	utils.ParallelFor(m.cells.Size(), m.grainSize, func(k int) {
		oper(m.cells.At(k))
	})
}

// IterateOverParticles applies oper to every particle in a parallel fan-out.
func (m *Mesh) IterateOverParticles(oper func(*Particle)) {
	utils.ParallelFor(m.particles.Size(), m.grainSize, func(k int) {
		oper(m.particles.At(k))
	})
}

// FindActiveNodes rebuilds the active-node view: a node is active when any
// cell referencing it hosts particles.
func (m *Mesh) FindActiveNodes() {
	m.nodes.Each(func(n *Node) { n.SetActive(false) })
	m.cells.Each(func(c *Cell) {
		if c.Status() {
			c.ActivateNodes()
		}
	})
	m.activeNodes.Clear()
	m.nodes.Each(func(n *Node) {
		if n.Active() {
			m.activeNodes.Add(n, false)
		}
	})
}

// ---- Introspection used by writers ----

// ParticleCoordinates returns particle positions in iteration order.
func (m *Mesh) ParticleCoordinates() [][]float64 {
	out := make([][]float64, 0, m.particles.Size())
	m.particles.Each(func(p *Particle) {
		out = append(out, append([]float64(nil), p.Coordinates()...))
	})
	return out
}

// NodalCoordinates returns node positions in iteration order.
func (m *Mesh) NodalCoordinates() [][]float64 {
	out := make([][]float64, 0, m.nodes.Size())
	m.nodes.Each(func(n *Node) {
		out = append(out, append([]float64(nil), n.Coordinates()...))
	})
	return out
}

// NodePairs returns the unique node-id edges of every cell, for wireframe
// style output.
func (m *Mesh) NodePairs() [][2]types.Index {
	seen := make(map[types.EdgeKey]struct{})
	var pairs [][2]types.Index
	m.cells.Each(func(c *Cell) {
		ids := c.NodeIDs()
		for _, e := range c.Element().Edges() {
			key := types.NewEdgeKey([2]types.Index{ids[e[0]], ids[e[1]]})
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			pairs = append(pairs, key.GetNodes())
		}
	})
	return pairs
}

// ParticlesCells returns the particle-id to cell-id pairs for all located
// particles, in iteration order.
func (m *Mesh) ParticlesCells() [][2]types.Index {
	out := make([][2]types.Index, 0, m.particles.Size())
	m.particles.Each(func(p *Particle) {
		if p.HasCell() {
			out = append(out, [2]types.Index{p.ID(), p.CellID()})
		}
	})
	return out
}

// AssignParticlesCells restores particle-to-cell assignments, e.g. from a
// checkpoint. Unknown particle or cell ids fail the operation.
func (m *Mesh) AssignParticlesCells(pairs [][2]types.Index) error {
	if len(pairs) == 0 {
		return ErrEmptyInput
	}
	for _, pair := range pairs {
		p, ok := m.mapParticles.Get(pair[0])
		if !ok {
			m.log.Error("assign particles cells failed", "particle", pair[0])
			return fmt.Errorf("%w: particle %d", ErrNotFound, pair[0])
		}
		c, ok := m.mapCells.Get(pair[1])
		if !ok {
			m.log.Error("assign particles cells failed", "cell", pair[1])
			return fmt.Errorf("%w: cell %d", ErrNotFound, pair[1])
		}
		if ref, inside := c.ComputeReferenceLocation(p.Coordinates()); inside {
			p.AssignCell(c, ref)
		}
	}
	return nil
}

// ParticleVolume pairs a particle id with its volume.
type ParticleVolume struct {
	ID     types.Index
	Volume float64
}

// AssignParticlesVolumes assigns volumes by particle id.
func (m *Mesh) AssignParticlesVolumes(volumes []ParticleVolume) error {
	if len(volumes) == 0 {
		return ErrEmptyInput
	}
	for _, v := range volumes {
		p, ok := m.mapParticles.Get(v.ID)
		if !ok {
			m.log.Error("assign particle volumes failed", "particle", v.ID)
			return fmt.Errorf("%w: particle %d", ErrNotFound, v.ID)
		}
		p.SetVolume(v.Volume)
	}
	return nil
}

// AssignParticlesStresses assigns initial stresses in iteration order; the
// input length must equal the particle count.
func (m *Mesh) AssignParticlesStresses(stresses [][6]float64) error {
	if len(stresses) == 0 {
		return ErrEmptyInput
	}
	if len(stresses) != m.particles.Size() {
		m.log.Error("assign particle stresses failed",
			"nstresses", len(stresses), "nparticles", m.particles.Size())
		return ErrCountMismatch
	}
	for i := 0; i < m.particles.Size(); i++ {
		m.particles.At(i).SetStress(stresses[i])
	}
	return nil
}
