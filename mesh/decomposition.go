package mesh

import (
	"sort"

	"github.com/notargets/gompm/pod"
	"github.com/notargets/gompm/types"
)

// FindDomainSharedNodes recomputes rank membership for every node from cell
// ownership. A node touched by cells of more than one rank is shared: it
// receives a dense ghost id (its slot in halo-exchange buffers) and, when
// the local rank is among its owners, joins the domain-shared view. Run
// whenever topology or ownership may have changed; with unchanged input the
// result is identical (ghost ids follow ascending node id).
func (m *Mesh) FindDomainSharedNodes() {
	m.nodes.Each(func(n *Node) { n.ClearRanks() })
	m.cells.Each(func(c *Cell) {
		for _, n := range c.Nodes() {
			n.AddRank(c.Rank())
		}
	})

	shared := make([]*Node, 0)
	m.nodes.Each(func(n *Node) {
		if n.NRanks() > 1 {
			shared = append(shared, n)
		}
	})
	// Ghost ids must agree across ranks: every rank sees the full topology,
	// so ordering by node id makes the assignment reproducible everywhere.
	sort.Slice(shared, func(i, j int) bool { return shared[i].ID() < shared[j].ID() })

	localRank := m.Rank()
	m.domainSharedNodes.Clear()
	for gid, n := range shared {
		n.SetGhostID(gid)
		if n.SharedByRank(localRank) {
			m.domainSharedNodes.Add(n, false)
		}
	}
	m.nhaloNodes = len(shared)
	m.log.Debug("domain shared nodes found",
		"nshared", m.nhaloNodes, "local", m.domainSharedNodes.Size())
}

// NHaloNodes returns the dense halo-buffer slot count from the last
// FindDomainSharedNodes pass.
func (m *Mesh) NHaloNodes() int { return m.nhaloNodes }

// NodalHaloExchange reconciles a nodal quantity accumulated independently
// by each rank. The getter gathers nprops values per domain-shared node
// into a dense per-ghost-id buffer, an all-reduce sums the buffer across
// ranks, and the setter writes the globally consistent value back. Must run
// after every nodal accumulation and before any nodal read; the call blocks
// until every rank participates.
func (m *Mesh) NodalHaloExchange(nprops int, getter func(*Node) []float64, setter func(*Node, []float64)) {
	if m.comm == nil || m.comm.Size() < 2 || m.nhaloNodes == 0 {
		return
	}
	buf := make([]float64, m.nhaloNodes*nprops)
	m.domainSharedNodes.Each(func(n *Node) {
		vals := getter(n)
		copy(buf[n.GhostID()*nprops:], vals[:nprops])
	})
	m.comm.AllReduceSum(buf)
	m.domainSharedNodes.Each(func(n *Node) {
		setter(n, buf[n.GhostID()*nprops:(n.GhostID()+1)*nprops])
	})
}

// FindGhostBoundaryCells classifies the rank boundary: remote cells
// adjacent to a local cell become ghost cells (the local rank's read-only
// awareness of the boundary), and local cells adjacent to a ghost become
// local ghost cells, each recording its distinct neighbouring ranks.
// Requires ComputeCellNeighbours to have run.
func (m *Mesh) FindGhostBoundaryCells() {
	localRank := m.Rank()
	m.ghostCells.Clear()
	m.localGhostCells.Clear()
	m.ghostCellNeighbourRanks = make(map[types.Index][]int)
	m.cells.Each(func(c *Cell) { c.SetGhost(false) })

	m.cells.Each(func(c *Cell) {
		if c.Rank() == localRank {
			return
		}
		for _, nid := range c.Neighbours() {
			neighbour, ok := m.mapCells.Get(nid)
			if ok && neighbour.Rank() == localRank {
				c.SetGhost(true)
				m.ghostCells.Add(c, false)
				break
			}
		}
	})

	m.cells.Each(func(c *Cell) {
		if c.Rank() != localRank {
			return
		}
		rankSet := make(map[int]struct{})
		for _, nid := range c.Neighbours() {
			neighbour, ok := m.mapCells.Get(nid)
			if ok && neighbour.Rank() != localRank {
				rankSet[neighbour.Rank()] = struct{}{}
			}
		}
		if len(rankSet) == 0 {
			return
		}
		m.localGhostCells.Add(c, false)
		ranks := make([]int, 0, len(rankSet))
		for r := range rankSet {
			ranks = append(ranks, r)
		}
		sort.Ints(ranks)
		m.ghostCellNeighbourRanks[c.ID()] = ranks
	})
	m.log.Debug("ghost boundary cells found",
		"ghost", m.ghostCells.Size(), "local_ghost", m.localGhostCells.Size())
}

// NGhostCells returns the number of ghost cells.
func (m *Mesh) NGhostCells() int { return m.ghostCells.Size() }

// NLocalGhostCells returns the number of local ghost cells.
func (m *Mesh) NLocalGhostCells() int { return m.localGhostCells.Size() }

// GhostCellNeighbourRanks returns the distinct remote ranks adjacent to a
// local ghost cell.
func (m *Mesh) GhostCellNeighbourRanks(cid types.Index) []int {
	return m.ghostCellNeighbourRanks[cid]
}

// TransferNonRankParticles moves particles whose owning cell belongs to a
// remote rank over to that rank. Each peer is first notified of the batch
// size, zero included, so receives always match sends; the record batch
// follows. Outgoing particles are removed from the local containers only
// after every send for the batch has been issued.
func (m *Mesh) TransferNonRankParticles() {
	if m.comm == nil || m.comm.Size() < 2 {
		return
	}
	localRank := m.Rank()
	size := m.comm.Size()

	outgoing := make(map[int][]pod.Record)
	var sentIDs []types.Index
	m.particles.Each(func(p *Particle) {
		if !p.HasCell() || p.Cell() == nil {
			return
		}
		owner := p.Cell().Rank()
		if owner == localRank {
			return
		}
		outgoing[owner] = append(outgoing[owner], p.Record())
		sentIDs = append(sentIDs, p.ID())
	})

	for r := 0; r < size; r++ {
		if r == localRank {
			continue
		}
		batch := outgoing[r]
		m.comm.SendCount(r, len(batch))
		if len(batch) > 0 {
			m.comm.SendRecords(r, batch)
		}
	}

	// All sends for the outgoing batch are posted; the local copies may go.
	m.RemoveParticlesByID(sentIDs)

	for r := 0; r < size; r++ {
		if r == localRank {
			continue
		}
		n := m.comm.RecvCount(r)
		if n == 0 {
			continue
		}
		recs := m.comm.RecvRecords(r)
		for _, rec := range recs {
			p, err := ParticleFromRecord(rec)
			if err != nil {
				m.log.Error("transfer: bad particle record", "from", r, "err", err)
				continue
			}
			if _, err = m.materials.Get(p.MaterialID()); err != nil {
				m.log.Error("transfer: unknown material on incoming particle",
					"particle", p.ID(), "material", p.MaterialID())
				continue
			}
			if !m.AddParticle(p, true) {
				m.log.Error("transfer: duplicate incoming particle", "particle", p.ID())
			}
		}
	}
	if len(sentIDs) > 0 {
		m.log.Debug("transferred nonrank particles", "sent", len(sentIDs))
	}
}

// RemoveAllNonRankParticles drops every particle whose owning cell is not
// on the local rank, without transferring it.
func (m *Mesh) RemoveAllNonRankParticles() {
	localRank := m.Rank()
	var drop []types.Index
	m.particles.Each(func(p *Particle) {
		if p.HasCell() && p.Cell() != nil && p.Cell().Rank() != localRank {
			drop = append(drop, p.ID())
		}
	})
	m.RemoveParticlesByID(drop)
}
