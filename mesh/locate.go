package mesh

import (
	"sync"

	"github.com/notargets/gompm/utils"
)

// LocateParticleCells finds the cell geometrically containing the particle
// and updates the owning-cell reference and cached reference coordinates.
// Tests run in increasing cost order: the particle's current cell, then its
// topological neighbours, then an exhaustive parallel scan. Returns false
// when no cell on this rank's owned+ghost region contains the particle; the
// caller decides between cross-rank relocation and removal.
func (m *Mesh) LocateParticleCells(p *Particle) bool {
	// Common case: the particle stayed in its cell since last step.
	if p.HasCell() {
		if cell, ok := m.mapCells.Get(p.CellID()); ok {
			if ref, inside := cell.ComputeReferenceLocation(p.Coordinates()); inside {
				p.AssignCell(cell, ref)
				return true
			}
			// Next cheapest: the cell's immediate neighbours.
			for _, nid := range cell.Neighbours() {
				neighbour, found := m.mapCells.Get(nid)
				if !found {
					continue
				}
				if ref, inside := neighbour.ComputeReferenceLocation(p.Coordinates()); inside {
					p.AssignCell(neighbour, ref)
					return true
				}
			}
		}
	}

	// Fall back to scanning every cell in parallel. Cells are geometrically
	// non-overlapping, so at most one can contain an interior point and
	// first-match-wins is safe under concurrency.
	var (
		mu    sync.Mutex
		found bool
	)
	utils.ParallelFor(m.cells.Size(), m.grainSize, func(k int) {
		mu.Lock()
		done := found
		mu.Unlock()
		if done {
			return
		}
		cell := m.cells.At(k)
		if ref, inside := cell.ComputeReferenceLocation(p.Coordinates()); inside {
			mu.Lock()
			if !found {
				found = true
				p.AssignCell(cell, ref)
			}
			mu.Unlock()
		}
	})
	return found
}

// LocateParticlesMesh batches localization over all particles and returns
// the ones that could not be located anywhere in the mesh. Unlocatable is
// not fatal; such particles have left this rank's region.
func (m *Mesh) LocateParticlesMesh() []*Particle {
	var (
		mu        sync.Mutex
		unlocated []*Particle
	)
	utils.ParallelFor(m.particles.Size(), m.grainSize, func(k int) {
		p := m.particles.At(k)
		if !m.locateSerial(p) {
			mu.Lock()
			unlocated = append(unlocated, p)
			mu.Unlock()
		}
	})
	if len(unlocated) > 0 {
		m.log.Debug("particles left the local mesh region", "count", len(unlocated))
	}
	return unlocated
}

// locateSerial is LocateParticleCells without the nested parallel scan; the
// batch path is already fanned out over particles.
func (m *Mesh) locateSerial(p *Particle) bool {
	if p.HasCell() {
		if cell, ok := m.mapCells.Get(p.CellID()); ok {
			if ref, inside := cell.ComputeReferenceLocation(p.Coordinates()); inside {
				p.AssignCell(cell, ref)
				return true
			}
			for _, nid := range cell.Neighbours() {
				neighbour, found := m.mapCells.Get(nid)
				if !found {
					continue
				}
				if ref, inside := neighbour.ComputeReferenceLocation(p.Coordinates()); inside {
					p.AssignCell(neighbour, ref)
					return true
				}
			}
		}
	}
	for k := 0; k < m.cells.Size(); k++ {
		cell := m.cells.At(k)
		if ref, inside := cell.ComputeReferenceLocation(p.Coordinates()); inside {
			p.AssignCell(cell, ref)
			return true
		}
	}
	return false
}
