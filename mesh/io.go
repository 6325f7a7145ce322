package mesh

import (
	"fmt"

	"github.com/notargets/gompm/element"
	"github.com/notargets/gompm/pod"
	"github.com/notargets/gompm/readfiles"
)

// ParticlesPOD flattens every particle into interchange records, in
// iteration order.
func (m *Mesh) ParticlesPOD() []pod.Record {
	recs := make([]pod.Record, 0, m.particles.Size())
	m.particles.Each(func(p *Particle) {
		recs = append(recs, p.Record())
	})
	return recs
}

// WriteParticles writes all particle interchange records to a table file.
func (m *Mesh) WriteParticles(filename string) error {
	if err := pod.Write(filename, m.ParticlesPOD()); err != nil {
		m.log.Error("write particles failed", "file", filename, "err", err)
		return err
	}
	m.log.Info("particles written", "file", filename, "count", m.particles.Size())
	return nil
}

// ReadParticles re-hydrates live particles from a table file in iteration
// order: record i overwrites particle i. The record count must equal the
// particle count. A missing file aborts the operation.
func (m *Mesh) ReadParticles(filename string) error {
	recs, err := pod.Read(filename)
	if err != nil {
		m.log.Error("read particles failed", "file", filename, "err", err)
		return err
	}
	if len(recs) != m.particles.Size() {
		m.log.Error("read particles failed", "file", filename,
			"records", len(recs), "particles", m.particles.Size())
		return fmt.Errorf("%w: %d records, %d particles", ErrCountMismatch,
			len(recs), m.particles.Size())
	}
	for i, rec := range recs {
		p := m.particles.At(i)
		p.applyRecordState(rec)
		p.RemoveCell()
	}
	// Positions may have changed; re-establish the particle-cell mapping.
	m.LocateParticlesMesh()
	return nil
}

// ReadParticlesFile seeds particles from a text coordinate file through the
// point-source reader.
func (m *Mesh) ReadParticlesFile(filename, ptype string, materialID uint32) error {
	coords, err := readfiles.ReadPoints(filename, m.dim)
	if err != nil {
		m.log.Error("addition of particles to mesh failed", "file", filename, "err", err)
		return fmt.Errorf("mesh: addition of particles to mesh failed: %w", err)
	}
	return m.CreateParticles(ptype, coords, materialID, true)
}

// GenerateMaterialPoints seeds nquadratures^Tdim particles per cell of the
// given cell set (-1 for every cell), placed at uniformly subdivided
// interior points, and assigns them the given material.
func (m *Mesh) GenerateMaterialPoints(nquadratures int, ptype string, materialID uint32, csetID int) error {
	if nquadratures < 1 {
		return fmt.Errorf("mesh: invalid quadrature count %d", nquadratures)
	}
	if _, err := m.materials.Get(materialID); err != nil {
		m.log.Error("generate material points failed", "err", err)
		return err
	}
	if !m.hasCellSet(csetID) {
		m.log.Error("generate material points failed", "set", csetID)
		return fmt.Errorf("%w: cell set %d", ErrNotFound, csetID)
	}

	var coords [][]float64
	collect := func(c *Cell) {
		elem := c.Element()
		dim := elem.Dim()
		var lattice [][]float64
		if elem.Type() == element.Tri3 {
			lattice = triLattice(nquadratures)
		} else {
			lattice = tensorLattice(dim, nquadratures)
		}
		for _, xi := range lattice {
			shape := elem.Shapefn(xi)
			pt := make([]float64, dim)
			for n, node := range c.Nodes() {
				for d := 0; d < dim; d++ {
					pt[d] += shape[n] * node.Coordinates()[d]
				}
			}
			coords = append(coords, pt)
		}
	}
	// Generation mutates the particle containers afterwards, so gather
	// sequentially rather than through the parallel fan-out.
	if csetID == -1 {
		m.cells.Each(collect)
	} else {
		for _, cid := range m.cellSets[csetID] {
			if c, ok := m.mapCells.Get(cid); ok {
				collect(c)
			}
		}
	}
	if len(coords) == 0 {
		return ErrEmptyInput
	}
	return m.CreateParticles(ptype, coords, materialID, true)
}

// tensorLattice returns the nq^dim cell-centred natural coordinates of a
// uniform subdivision of the biunit reference element.
func tensorLattice(dim, nq int) [][]float64 {
	var pts [][]float64
	steps := make([]int, dim)
	for {
		xi := make([]float64, dim)
		for d := 0; d < dim; d++ {
			xi[d] = -1 + (2*float64(steps[d])+1)/float64(nq)
		}
		pts = append(pts, xi)

		// Advance the mixed-radix lattice counter.
		d := 0
		for ; d < dim; d++ {
			steps[d]++
			if steps[d] < nq {
				break
			}
			steps[d] = 0
		}
		if d == dim {
			break
		}
	}
	return pts
}

// triLattice returns the centroids of the nq-fold edge subdivision of the
// unit reference triangle: nq*nq interior points spread uniformly over the
// whole triangle, corners included.
func triLattice(nq int) [][]float64 {
	h := 1 / float64(nq)
	var pts [][]float64
	for j := 0; j < nq; j++ {
		for i := 0; i+j < nq; i++ {
			// Upward sub-triangle (i,j)-(i+1,j)-(i,j+1).
			pts = append(pts, []float64{h * (float64(i) + 1.0/3), h * (float64(j) + 1.0/3)})
			if i+j < nq-1 {
				// Downward sub-triangle (i+1,j)-(i+1,j+1)-(i,j+1).
				pts = append(pts, []float64{h * (float64(i) + 2.0/3), h * (float64(j) + 2.0/3)})
			}
		}
	}
	return pts
}
