package mesh

import (
	"github.com/james-bowman/sparse"
	"github.com/notargets/gompm/types"
)

// ComputeCellNeighbours runs the global adjacency pass: two cells are
// neighbours when they share at least one node. Built once after mesh
// setup from a node-by-cell incidence matrix.
func (m *Mesh) ComputeCellNeighbours() {
	nnodes := m.nodes.Size()
	ncells := m.cells.Size()
	if nnodes == 0 || ncells == 0 {
		return
	}

	// Dense local numbering for the incidence matrix rows/columns.
	nodeRow := make(map[types.Index]int, nnodes)
	for i := 0; i < nnodes; i++ {
		nodeRow[m.nodes.At(i).ID()] = i
	}

	dok := sparse.NewDOK(nnodes, ncells)
	for j := 0; j < ncells; j++ {
		for _, nid := range m.cells.At(j).NodeIDs() {
			dok.Set(nodeRow[nid], j, 1)
		}
	}

	csr := dok.ToCSR()
	touching := make([]int, 0, 8)
	for i := 0; i < nnodes; i++ {
		touching = touching[:0]
		csr.DoRowNonZero(i, func(_, j int, _ float64) {
			touching = append(touching, j)
		})
		for a := 0; a < len(touching); a++ {
			ca := m.cells.At(touching[a])
			for b := a + 1; b < len(touching); b++ {
				cb := m.cells.At(touching[b])
				ca.AddNeighbour(cb.ID())
				cb.AddNeighbour(ca.ID())
			}
		}
	}
	m.log.Debug("cell neighbours computed", "ncells", ncells)
}
