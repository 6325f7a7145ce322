package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gompm/types"
)

func TestAssignNodalVelocityConstraint(t *testing.T) {
	m := grid2x2(t)
	require.NoError(t, m.CreateNodeSets(map[int][]types.Index{1: {0, 1, 2}}, true))

	require.NoError(t, m.AssignNodalVelocityConstraint(1, 1, -1.5))
	assert.Equal(t, 1, m.NNodalVelocityConstraints())

	// A direction outside [0, Tdim) fails and leaves the list unchanged.
	assert.ErrorIs(t, m.AssignNodalVelocityConstraint(1, 2, 0), ErrInvalidDirection)
	assert.ErrorIs(t, m.AssignNodalVelocityConstraint(1, -1, 0), ErrInvalidDirection)
	assert.ErrorIs(t, m.AssignNodalVelocityConstraint(7, 0, 0), ErrNotFound)
	assert.Equal(t, 1, m.NNodalVelocityConstraints())

	m.ApplyNodalVelocityConstraints()
	for _, nid := range []types.Index{0, 1, 2} {
		n, _ := m.GetNode(nid)
		assert.Equal(t, -1.5, n.Velocity()[1], "node %d", nid)
		assert.Zero(t, n.Velocity()[0])
	}
	n4, _ := m.GetNode(4)
	assert.Zero(t, n4.Velocity()[1])
}

func TestNodalVelocityConstraintLateBinding(t *testing.T) {
	m := grid2x2(t)
	// Constraints on the whole collection resolve at application time, so
	// nodes created later are still covered.
	require.NoError(t, m.AssignNodalVelocityConstraint(types.SetAll, 0, 2.0))
	require.NoError(t, m.CreateNodes(100, [][]float64{{5, 5}}, true))

	m.ApplyNodalVelocityConstraints()
	late, _ := m.GetNode(100)
	assert.Equal(t, 2.0, late.Velocity()[0])
}

func TestAssignNodalFrictionConstraint(t *testing.T) {
	m := grid2x2(t)
	require.NoError(t, m.CreateNodeSets(map[int][]types.Index{1: {0}}, true))

	require.NoError(t, m.AssignNodalFrictionConstraint(1, 1, -1, 0.3))
	n0, _ := m.GetNode(0)
	dir, sign, friction, ok := n0.FrictionConstraint()
	require.True(t, ok)
	assert.Equal(t, 1, dir)
	assert.Equal(t, -1, sign)
	assert.Equal(t, 0.3, friction)

	n1, _ := m.GetNode(1)
	_, _, _, ok = n1.FrictionConstraint()
	assert.False(t, ok)

	assert.ErrorIs(t, m.AssignNodalFrictionConstraint(1, 5, 1, 0.3), ErrInvalidDirection)
	assert.ErrorIs(t, m.AssignNodalFrictionConstraint(8, 0, 1, 0.3), ErrNotFound)
}

func TestParticleVelocityConstraints(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)
	require.NoError(t, m.CreateParticleSets(map[int][]types.Index{1: {0, 2}}, true))

	require.NoError(t, m.AssignParticleVelocityConstraint(1, 0, 3.0))
	assert.Equal(t, 1, m.NParticleVelocityConstraints())
	assert.ErrorIs(t, m.AssignParticleVelocityConstraint(1, 9, 0), ErrInvalidDirection)
	assert.ErrorIs(t, m.AssignParticleVelocityConstraint(9, 0, 0), ErrNotFound)

	m.ApplyParticleVelocityConstraints()
	for pid := 0; pid < 4; pid++ {
		p, _ := m.GetParticle(types.Index(pid))
		want := 0.0
		if pid == 0 || pid == 2 {
			want = 3.0
		}
		assert.Equal(t, want, p.Velocity()[0], "particle %d", pid)
	}
}

func TestParticleTractions(t *testing.T) {
	m := grid2x2(t)
	centroids(t, m)
	require.NoError(t, m.CreateParticleSets(map[int][]types.Index{1: {1, 3}}, true))

	// Ramp from 0 to 1 over the first second.
	fn, err := NewLinearFunction([]float64{0, 1}, []float64{0, 1})
	require.NoError(t, err)
	require.NoError(t, m.CreateParticlesTractions(fn, 1, 1, 10.0))
	assert.Equal(t, 1, m.NParticleTractions())

	assert.ErrorIs(t, m.CreateParticlesTractions(nil, 1, 4, 1), ErrInvalidDirection)
	assert.ErrorIs(t, m.CreateParticlesTractions(nil, 6, 0, 1), ErrNotFound)

	m.ApplyTractionOnParticles(0.5)
	p1, _ := m.GetParticle(1)
	assert.InDelta(t, 5.0, p1.Traction()[1], 1e-12)
	p0, _ := m.GetParticle(0)
	assert.Zero(t, p0.Traction()[1])

	// A nil function applies the full traction.
	require.NoError(t, m.CreateParticlesTractions(nil, 1, 0, 2.0))
	m.ApplyTractionOnParticles(99)
	assert.Equal(t, 2.0, p1.Traction()[0])
}

func TestNodalConcentratedForces(t *testing.T) {
	m := grid2x2(t)
	require.NoError(t, m.CreateNodeSets(map[int][]types.Index{1: {4}}, true))

	fn, err := NewLinearFunction([]float64{0, 2}, []float64{0, 1})
	require.NoError(t, err)
	require.NoError(t, m.AssignNodalConcentratedForces(fn, 1, 1, -100))

	assert.ErrorIs(t, m.AssignNodalConcentratedForces(nil, 1, 3, 0), ErrInvalidDirection)
	assert.ErrorIs(t, m.AssignNodalConcentratedForces(nil, 9, 0, 0), ErrNotFound)

	m.ApplyNodalConcentratedForces(1.0)
	n4, _ := m.GetNode(4)
	assert.InDelta(t, -50.0, n4.ExternalForce()[1], 1e-12)

	// Force application accumulates.
	m.ApplyNodalConcentratedForces(2.0)
	assert.InDelta(t, -150.0, n4.ExternalForce()[1], 1e-12)
}

func TestLinearFunction(t *testing.T) {
	_, err := NewLinearFunction([]float64{0}, []float64{1})
	assert.Error(t, err, "too few samples")
	_, err = NewLinearFunction([]float64{0, 1}, []float64{1})
	assert.Error(t, err, "length mismatch")
	_, err = NewLinearFunction([]float64{0, 1, 1}, []float64{0, 1, 2})
	assert.Error(t, err, "non-ascending")

	fn, err := NewLinearFunction([]float64{0, 1, 3}, []float64{0, 10, 10})
	require.NoError(t, err)
	assert.Equal(t, 0.0, fn.Value(-5), "clamped below")
	assert.Equal(t, 10.0, fn.Value(7), "clamped above")
	assert.InDelta(t, 5.0, fn.Value(0.5), 1e-12)
	assert.InDelta(t, 10.0, fn.Value(2), 1e-12)
}
