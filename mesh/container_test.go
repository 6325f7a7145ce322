package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gompm/types"
)

func newNodes(ids ...types.Index) []*Node {
	nodes := make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = NewNode(id, []float64{float64(id), 0})
	}
	return nodes
}

func TestContainerAddRemove(t *testing.T) {
	c := NewContainer[*Node]()
	nodes := newNodes(10, 20, 30)
	for _, n := range nodes {
		require.True(t, c.Add(n, true))
	}
	assert.Equal(t, 3, c.Size())
	assert.True(t, c.Contains(20))

	// Duplicate id refused with checking on.
	dup := NewNode(20, []float64{9, 9})
	assert.False(t, c.Add(dup, true))
	assert.Equal(t, 3, c.Size())

	// Removal preserves insertion order of the remainder and reindexes.
	assert.True(t, c.RemoveByID(20))
	assert.Equal(t, 2, c.Size())
	assert.Equal(t, types.Index(10), c.At(0).ID())
	assert.Equal(t, types.Index(30), c.At(1).ID())

	// Removing an absent entity reports false and changes nothing.
	assert.False(t, c.RemoveByID(20))
	assert.False(t, c.Remove(dup))
	assert.Equal(t, 2, c.Size())
}

func TestContainerUncheckedAddReplaces(t *testing.T) {
	c := NewContainer[*Node]()
	for _, n := range newNodes(10, 20, 30) {
		require.True(t, c.Add(n, true))
	}

	// An unchecked add of an existing id replaces the entry in place; the
	// container never grows past its position index.
	dup := NewNode(20, []float64{9, 9})
	require.True(t, c.Add(dup, false))
	assert.Equal(t, 3, c.Size())
	assert.Same(t, dup, c.At(1))

	// The replaced slot still removes cleanly.
	assert.True(t, c.Remove(dup))
	assert.Equal(t, 2, c.Size())
	assert.False(t, c.Contains(20))
	assert.Equal(t, types.Index(30), c.At(1).ID())
}

func TestContainerRemoveIf(t *testing.T) {
	c := NewContainer[*Node]()
	for _, n := range newNodes(0, 1, 2, 3, 4, 5) {
		c.Add(n, true)
	}
	removed := c.RemoveIf(func(n *Node) bool { return n.ID()%2 == 0 })
	assert.Equal(t, 3, removed)
	assert.Equal(t, 3, c.Size())
	assert.Equal(t, types.Index(1), c.At(0).ID())
	assert.Equal(t, types.Index(3), c.At(1).ID())
	assert.Equal(t, types.Index(5), c.At(2).ID())
	assert.False(t, c.Contains(0))

	// Position index survives the compaction.
	assert.True(t, c.RemoveByID(3))
	assert.Equal(t, types.Index(5), c.At(1).ID())
}

func TestContainerEachOrder(t *testing.T) {
	c := NewContainer[*Node]()
	for _, n := range newNodes(5, 1, 9) {
		c.Add(n, true)
	}
	var order []types.Index
	c.Each(func(n *Node) { order = append(order, n.ID()) })
	assert.Equal(t, []types.Index{5, 1, 9}, order)

	c.Clear()
	assert.Equal(t, 0, c.Size())
	assert.False(t, c.Contains(5))
}

func TestMap(t *testing.T) {
	m := NewMap[*Node]()
	nodes := newNodes(1, 2)
	assert.True(t, m.Add(nodes[0], true))
	assert.True(t, m.Add(nodes[1], true))
	assert.False(t, m.Add(NewNode(1, []float64{0, 0}), true))
	assert.Equal(t, 2, m.Size())

	got, ok := m.Get(2)
	require.True(t, ok)
	assert.Same(t, nodes[1], got)

	assert.True(t, m.Remove(1))
	assert.False(t, m.Remove(1))
	_, ok = m.Get(1)
	assert.False(t, ok)
}

// The container and its paired lookup map must stay the same size through
// every insert and remove path on the mesh.
func TestContainerMapSync(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)
	check := func() {
		assert.Equal(t, m.nodes.Size(), m.mapNodes.Size())
		assert.Equal(t, m.cells.Size(), m.mapCells.Size())
		assert.Equal(t, m.particles.Size(), m.mapParticles.Size())
	}
	check()

	p, _ := m.GetParticle(1)
	m.RemoveParticle(p)
	check()

	m.RemoveParticlesByID([]types.Index{0, 3})
	check()

	n, _ := m.GetNode(8)
	m.RemoveNode(n)
	c, _ := m.GetCell(3)
	m.RemoveCell(c)
	check()

	// An unchecked re-add of a live id replaces rather than appends.
	require.True(t, m.AddNode(NewNode(0, []float64{0, 0}), false))
	check()
}
