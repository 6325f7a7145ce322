package mesh

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gompm/types"
)

func TestFindBoundaryEntities(t *testing.T) {
	m := grid2x2(t)
	m.FindBoundaryEntities()

	// Every node of the 2x2 grid lies on the boundary except the centre.
	assert.Equal(t, 8, m.NBoundaryNodes())
	assert.False(t, m.IsBoundaryNode(4))
	for _, nid := range []types.Index{0, 1, 2, 3, 5, 6, 7, 8} {
		assert.True(t, m.IsBoundaryNode(nid), "node %d", nid)
	}

	// The 8 perimeter edges, none through the centre node.
	require.Equal(t, 8, m.NBoundarySegments())
	m.IterateOverBoundarySegments(func(s *BoundarySegment) {
		ids := s.NodeIDs()
		assert.NotEqual(t, types.Index(4), ids[0])
		assert.NotEqual(t, types.Index(4), ids[1])
	})

	// Every cell of the 2x2 grid touches the boundary, so every centroid
	// particle is a boundary particle.
	centroids(t, m)
	m.FindBoundaryEntities()
	assert.Equal(t, 4, m.NBoundaryParticles())
	var visited int64
	m.IterateOverBoundaryParticles(func(p *Particle) {
		atomic.AddInt64(&visited, 1)
	})
	assert.Equal(t, int64(4), visited)
}

func TestFindBoundaryEntitiesIdempotent(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)
	m.FindBoundaryEntities()

	nodes, segs, parts := m.NBoundaryNodes(), m.NBoundarySegments(), m.NBoundaryParticles()
	firstIDs := make([]types.Index, 0, segs)
	m.boundarySegments.Each(func(s *BoundarySegment) { firstIDs = append(firstIDs, s.ID()) })

	m.FindBoundaryEntities()
	assert.Equal(t, nodes, m.NBoundaryNodes())
	assert.Equal(t, segs, m.NBoundarySegments())
	assert.Equal(t, parts, m.NBoundaryParticles())
	secondIDs := make([]types.Index, 0, segs)
	m.boundarySegments.Each(func(s *BoundarySegment) { secondIDs = append(secondIDs, s.ID()) })
	assert.Equal(t, firstIDs, secondIDs)
}

func TestFindBoundaryEntitiesHex(t *testing.T) {
	m, err := NewMesh(0, 3, nil)
	require.NoError(t, err)
	require.NoError(t, m.CreateNodes(0, [][]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}, true))
	elem := mustElement(t, "ED3H8")
	require.NoError(t, m.CreateCells(0, elem, [][]types.Index{{0, 1, 2, 3, 4, 5, 6, 7}}, true))

	m.FindBoundaryEntities()
	// A lone hexahedron is all boundary: 8 nodes, 12 edges.
	assert.Equal(t, 8, m.NBoundaryNodes())
	assert.Equal(t, 12, m.NBoundarySegments())
}

func TestBoundaryParticlesFollowResidency(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)
	m.FindBoundaryEntities()
	require.Equal(t, 4, m.NBoundaryParticles())

	m.RemoveParticlesByID([]types.Index{0, 1})
	m.FindBoundaryEntities()
	assert.Equal(t, 2, m.NBoundaryParticles())
}
