package mesh

import (
	"sort"

	"github.com/notargets/gompm/types"
	"github.com/notargets/gompm/utils"
)

// BoundarySegment is one edge of the mesh boundary: a node pair on a face
// referenced by exactly one cell, tagged with that cell's id.
type BoundarySegment struct {
	id    types.Index
	nodes [2]types.Index
	cell  types.Index
}

func (s *BoundarySegment) ID() types.Index         { return s.id }
func (s *BoundarySegment) NodeIDs() [2]types.Index { return s.nodes }
func (s *BoundarySegment) CellID() types.Index     { return s.cell }

// faceKey is the order-independent identity of a cell face, padded with the
// invalid sentinel so faces of different arity never collide.
type faceKey [4]types.Index

func newFaceKey(ids []types.Index) faceKey {
	key := faceKey{types.InvalidIndex, types.InvalidIndex, types.InvalidIndex, types.InvalidIndex}
	copy(key[:], ids)
	sort.Slice(key[:], func(i, j int) bool { return key[i] < key[j] })
	return key
}

// faceNodeIDs resolves a face's local node indices to node ids.
func faceNodeIDs(ids []types.Index, face []int) []types.Index {
	fids := make([]types.Index, len(face))
	for k, li := range face {
		fids[k] = ids[li]
	}
	return fids
}

// FindBoundaryEntities recomputes the boundary views: a face referenced by
// exactly one cell lies on the mesh boundary; its nodes become boundary
// nodes, its edges become boundary segments, and particles resident in a
// cell owning such a face become boundary particles. Rerun after any
// topology change, and after particle relocation when the boundary-particle
// view is read.
func (m *Mesh) FindBoundaryEntities() {
	faceCount := make(map[faceKey]int)
	m.cells.Each(func(c *Cell) {
		ids := c.NodeIDs()
		for _, face := range c.Element().Faces() {
			faceCount[newFaceKey(faceNodeIDs(ids, face))]++
		}
	})

	m.boundaryNodes.Clear()
	m.boundarySegments.Clear()
	m.boundaryCells = make(map[types.Index]struct{})

	// Second pass in cell insertion order keeps segment ids deterministic.
	seen := make(map[types.EdgeKey]struct{})
	var sid types.Index
	m.cells.Each(func(c *Cell) {
		ids := c.NodeIDs()
		for _, face := range c.Element().Faces() {
			fids := faceNodeIDs(ids, face)
			if faceCount[newFaceKey(fids)] != 1 {
				continue
			}
			m.boundaryCells[c.ID()] = struct{}{}
			for _, nid := range fids {
				if n, ok := m.mapNodes.Get(nid); ok {
					m.boundaryNodes.Add(n, false)
				}
			}
			for _, e := range faceEdges(fids) {
				key := types.NewEdgeKey(e)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				m.boundarySegments.Add(&BoundarySegment{
					id:    sid,
					nodes: e,
					cell:  c.ID(),
				}, false)
				sid++
			}
		}
	})

	m.findBoundaryParticles()
	m.log.Debug("boundary entities found",
		"nodes", m.boundaryNodes.Size(),
		"segments", m.boundarySegments.Size(),
		"particles", m.boundaryParticles.Size())
}

// faceEdges splits a face into its node-pair edges: a 2-node face is one
// segment, a larger face contributes its perimeter.
func faceEdges(fids []types.Index) [][2]types.Index {
	if len(fids) == 2 {
		return [][2]types.Index{{fids[0], fids[1]}}
	}
	edges := make([][2]types.Index, len(fids))
	for k := range fids {
		edges[k] = [2]types.Index{fids[k], fids[(k+1)%len(fids)]}
	}
	return edges
}

// findBoundaryParticles rebuilds the boundary-particle view from the current
// particle-to-cell residency.
func (m *Mesh) findBoundaryParticles() {
	m.boundaryParticles.Clear()
	m.particles.Each(func(p *Particle) {
		if !p.HasCell() {
			return
		}
		if _, ok := m.boundaryCells[p.CellID()]; ok {
			m.boundaryParticles.Add(p, false)
		}
	})
}

// NBoundaryNodes returns the number of nodes on the mesh boundary.
func (m *Mesh) NBoundaryNodes() int { return m.boundaryNodes.Size() }

// NBoundarySegments returns the number of boundary segments.
func (m *Mesh) NBoundarySegments() int { return m.boundarySegments.Size() }

// NBoundaryParticles returns the number of particles in boundary cells.
func (m *Mesh) NBoundaryParticles() int { return m.boundaryParticles.Size() }

// IsBoundaryNode reports whether the node id lies on the mesh boundary.
func (m *Mesh) IsBoundaryNode(id types.Index) bool { return m.boundaryNodes.Contains(id) }

// IterateOverBoundaryParticles applies oper to the boundary-particle view in
// a parallel fan-out.
func (m *Mesh) IterateOverBoundaryParticles(oper func(*Particle)) {
	utils.ParallelFor(m.boundaryParticles.Size(), m.grainSize, func(k int) {
		oper(m.boundaryParticles.At(k))
	})
}

// IterateOverBoundarySegments applies oper to every boundary segment in a
// parallel fan-out.
func (m *Mesh) IterateOverBoundarySegments(oper func(*BoundarySegment)) {
	utils.ParallelFor(m.boundarySegments.Size(), m.grainSize, func(k int) {
		oper(m.boundarySegments.At(k))
	})
}
