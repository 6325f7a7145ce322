package mesh

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gompm/element"
	"github.com/notargets/gompm/material"
	"github.com/notargets/gompm/types"
)

func testMaterials() []*material.Material {
	return []*material.Material{{ID: 1, Name: "steel", Density: 7850}}
}

func mustElement(t *testing.T, name string) element.Element {
	t.Helper()
	elem, err := element.New(name)
	require.NoError(t, err)
	return elem
}

// grid2x2 builds a unit-spaced 2x2 Quad4 grid (9 nodes, 4 cells, row major
// from the origin) with one material registered, the shared fixture for the
// mesh tests.
func grid2x2(t *testing.T) *Mesh {
	t.Helper()
	m, err := NewMesh(0, 2, nil)
	require.NoError(t, err)
	require.NoError(t, m.InitialiseMaterials(testMaterials()))

	coords := make([][]float64, 0, 9)
	for j := 0; j <= 2; j++ {
		for i := 0; i <= 2; i++ {
			coords = append(coords, []float64{float64(i), float64(j)})
		}
	}
	require.NoError(t, m.CreateNodes(0, coords, true))

	elem, err := element.New("ED2Q4")
	require.NoError(t, err)
	nid := func(i, j int) types.Index { return types.Index(j*3 + i) }
	var conn [][]types.Index
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			conn = append(conn, []types.Index{
				nid(i, j), nid(i+1, j), nid(i+1, j+1), nid(i, j+1),
			})
		}
	}
	require.NoError(t, m.CreateCells(0, elem, conn, true))
	m.ComputeCellNeighbours()
	return m
}

// centroids seeds one particle at the centroid of every cell.
func centroids(t *testing.T, m *Mesh) {
	t.Helper()
	var pts [][]float64
	for cid := 0; cid < m.NCells(); cid++ {
		c, ok := m.GetCell(types.Index(cid))
		require.True(t, ok)
		pts = append(pts, c.Centroid())
	}
	require.NoError(t, m.CreateParticles("P2D", pts, 1, true))
}

func TestNewMeshDimension(t *testing.T) {
	for _, dim := range []int{1, 2, 3} {
		_, err := NewMesh(0, dim, nil)
		assert.NoError(t, err, "dim %d", dim)
	}
	for _, dim := range []int{0, 4, -1} {
		_, err := NewMesh(0, dim, nil)
		assert.Error(t, err, "dim %d", dim)
	}
}

func TestCreateNodesAndCells(t *testing.T) {
	m := grid2x2(t)
	assert.Equal(t, 9, m.NNodes())
	assert.Equal(t, 4, m.NCells())

	// Duplicate insert is refused and leaves counts unchanged.
	n, ok := m.GetNode(4)
	require.True(t, ok)
	assert.False(t, m.AddNode(n, true))
	assert.Equal(t, 9, m.NNodes())

	// Remove-then-remove: second attempt reports absence.
	assert.True(t, m.RemoveNode(n))
	assert.False(t, m.RemoveNode(n))
	assert.Equal(t, 8, m.NNodes())
	_, ok = m.GetNode(4)
	assert.False(t, ok)
}

func TestCreateNodesValidation(t *testing.T) {
	m, err := NewMesh(0, 2, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, m.CreateNodes(0, nil, true), ErrEmptyInput)
	assert.Error(t, m.CreateNodes(0, [][]float64{{1, 2, 3}}, true))
}

func TestCreateCellsUnknownNode(t *testing.T) {
	m, err := NewMesh(0, 2, nil)
	require.NoError(t, err)
	require.NoError(t, m.CreateNodes(0, [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, true))
	elem, err := element.New("ED2Q4")
	require.NoError(t, err)
	err = m.CreateCells(0, elem, [][]types.Index{{0, 1, 2, 99}}, true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.NCells())
}

func TestCellArityRejected(t *testing.T) {
	m, err := NewMesh(0, 2, nil)
	require.NoError(t, err)
	require.NoError(t, m.CreateNodes(0, [][]float64{{0, 0}, {1, 0}, {1, 1}}, true))
	elem, err := element.New("ED2Q4")
	require.NoError(t, err)
	// Three nodes for a four-node element: the cell never enters the mesh.
	err = m.CreateCells(0, elem, [][]types.Index{{0, 1, 2}}, true)
	assert.Error(t, err)
	assert.Equal(t, 0, m.NCells())
}

func TestCreateParticles(t *testing.T) {
	m := grid2x2(t)
	assert.False(t, m.Status())

	centroids(t, m)
	assert.Equal(t, 4, m.NParticles())
	assert.True(t, m.Status())

	// Every centroid particle is located in its own cell.
	seen := make(map[types.Index]bool)
	for pid := 0; pid < 4; pid++ {
		p, ok := m.GetParticle(types.Index(pid))
		require.True(t, ok)
		require.True(t, p.HasCell())
		seen[p.CellID()] = true
	}
	assert.Len(t, seen, 4)

	// Fresh ids continue past the existing population.
	require.NoError(t, m.CreateParticles("P2D", [][]float64{{0.1, 0.1}}, 1, true))
	_, ok := m.GetParticle(4)
	assert.True(t, ok)
}

func TestCreateParticlesUnknownMaterial(t *testing.T) {
	m := grid2x2(t)
	err := m.CreateParticles("P2D", [][]float64{{0.5, 0.5}}, 42, true)
	assert.ErrorIs(t, err, material.ErrNotFound)
	assert.Equal(t, 0, m.NParticles())
}

func TestCreateParticlesBadType(t *testing.T) {
	m := grid2x2(t)
	assert.Error(t, m.CreateParticles("P3D", [][]float64{{0.5, 0.5}}, 1, true))
	assert.Error(t, m.CreateParticles("fluid", [][]float64{{0.5, 0.5}}, 1, true))
}

func TestRemoveParticlesByID(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)

	c0, _ := m.GetCell(0)
	require.Equal(t, 1, c0.NParticles())

	m.RemoveParticlesByID([]types.Index{0, 2, 77})
	assert.Equal(t, 2, m.NParticles())
	_, ok := m.GetParticle(0)
	assert.False(t, ok)
	_, ok = m.GetParticle(1)
	assert.True(t, ok)
	// Cell membership follows the particle out.
	assert.Equal(t, 0, c0.NParticles())
}

func TestIterateOverParticles(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)
	m.SetGrainSize(1)

	var visits int64
	m.IterateOverParticles(func(p *Particle) {
		atomic.AddInt64(&visits, 1)
	})
	assert.Equal(t, int64(4), visits)
}

func TestIterateOverNodesPredicate(t *testing.T) {
	m := grid2x2(t)
	var visits int64
	m.IterateOverNodesPredicate(
		func(n *Node) { atomic.AddInt64(&visits, 1) },
		func(n *Node) bool { return n.Coordinates()[0] == 0 },
	)
	assert.Equal(t, int64(3), visits)
}

func TestFindActiveNodes(t *testing.T) {
	m := grid2x2(t)
	m.FindActiveNodes()
	var active int64
	m.IterateOverActiveNodes(func(n *Node) { atomic.AddInt64(&active, 1) })
	assert.Zero(t, active)

	// One particle in cell 0 activates exactly its four corner nodes.
	require.NoError(t, m.CreateParticles("P2D", [][]float64{{0.5, 0.5}}, 1, true))
	m.FindActiveNodes()
	m.IterateOverActiveNodes(func(n *Node) { atomic.AddInt64(&active, 1) })
	assert.Equal(t, int64(4), active)

	n4, _ := m.GetNode(4)
	assert.True(t, n4.Active())
	n8, _ := m.GetNode(8)
	assert.False(t, n8.Active())
}

func TestNodePairs(t *testing.T) {
	m := grid2x2(t)
	// 2x2 quad grid: 12 distinct edges, shared edges reported once.
	assert.Len(t, m.NodePairs(), 12)
}

func TestNodePairsHex(t *testing.T) {
	m, err := NewMesh(0, 3, nil)
	require.NoError(t, err)
	require.NoError(t, m.CreateNodes(0, [][]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}, true))
	elem := mustElement(t, "ED3H8")
	require.NoError(t, m.CreateCells(0, elem, [][]types.Index{{0, 1, 2, 3, 4, 5, 6, 7}}, true))

	pairs := m.NodePairs()
	require.Len(t, pairs, 12)
	edges := make(map[[2]types.Index]struct{}, len(pairs))
	for _, pair := range pairs {
		edges[pair] = struct{}{}
	}
	// The vertical edges of the hexahedron are present.
	for _, want := range [][2]types.Index{{0, 4}, {1, 5}, {2, 6}, {3, 7}} {
		assert.Contains(t, edges, want)
	}
	// Bottom-to-top ring wraparounds are not edges.
	assert.NotContains(t, edges, [2]types.Index{3, 4})
	assert.NotContains(t, edges, [2]types.Index{0, 7})
}

func TestParticlesCellsRoundTrip(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)

	pairs := m.ParticlesCells()
	require.Len(t, pairs, 4)

	// Drop the assignments, then restore them from the saved pairs.
	m.IterateOverParticles(func(p *Particle) { p.RemoveCell() })
	for _, pair := range pairs {
		p, _ := m.GetParticle(pair[0])
		assert.False(t, p.HasCell())
	}
	require.NoError(t, m.AssignParticlesCells(pairs))
	for _, pair := range pairs {
		p, _ := m.GetParticle(pair[0])
		assert.Equal(t, pair[1], p.CellID())
	}

	assert.ErrorIs(t, m.AssignParticlesCells([][2]types.Index{{99, 0}}), ErrNotFound)
	assert.ErrorIs(t, m.AssignParticlesCells([][2]types.Index{{0, 99}}), ErrNotFound)
}

func TestAssignParticlesVolumes(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)

	require.NoError(t, m.AssignParticlesVolumes([]ParticleVolume{
		{ID: 0, Volume: 0.25},
		{ID: 3, Volume: 0.5},
	}))
	p0, _ := m.GetParticle(0)
	assert.Equal(t, 0.25, p0.Volume())
	p3, _ := m.GetParticle(3)
	assert.Equal(t, 0.5, p3.Volume())

	assert.ErrorIs(t, m.AssignParticlesVolumes([]ParticleVolume{{ID: 99, Volume: 1}}), ErrNotFound)
	assert.ErrorIs(t, m.AssignParticlesVolumes(nil), ErrEmptyInput)
}

func TestAssignParticlesStresses(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)

	stresses := make([][6]float64, 4)
	for i := range stresses {
		stresses[i][0] = float64(i + 1)
	}
	require.NoError(t, m.AssignParticlesStresses(stresses))
	for i := 0; i < 4; i++ {
		assert.Equal(t, float64(i+1), m.particles.At(i).Stress()[0])
	}

	assert.ErrorIs(t, m.AssignParticlesStresses(stresses[:2]), ErrCountMismatch)
	assert.ErrorIs(t, m.AssignParticlesStresses(nil), ErrEmptyInput)
}

func TestCoordinates(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)

	nc := m.NodalCoordinates()
	require.Len(t, nc, 9)
	assert.Equal(t, []float64{2, 2}, nc[8])

	pc := m.ParticleCoordinates()
	require.Len(t, pc, 4)
	assert.Equal(t, []float64{0.5, 0.5}, pc[0])

	// Returned coordinates are copies.
	pc[0][0] = 99
	p0, _ := m.GetParticle(0)
	assert.Equal(t, 0.5, p0.Coordinates()[0])
}
