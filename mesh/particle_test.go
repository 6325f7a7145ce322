package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gompm/types"
)

func TestNewParticleByType(t *testing.T) {
	p, err := NewParticleByType("P2D", 5, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, types.Index(5), p.ID())
	assert.Equal(t, 2, p.Dim())
	assert.False(t, p.HasCell())

	_, err = NewParticleByType("P3D", 0, []float64{1, 2})
	assert.Error(t, err, "coordinate arity mismatch")
	_, err = NewParticleByType("rigid", 0, []float64{1, 2})
	assert.Error(t, err, "unknown type")
}

func TestParticleCellMembershipSync(t *testing.T) {
	m := grid2x2(t)
	c0, _ := m.GetCell(0)
	c1, _ := m.GetCell(1)

	p := NewParticle(0, []float64{0.5, 0.5})
	ref, inside := c0.ComputeReferenceLocation(p.Coordinates())
	require.True(t, inside)
	p.AssignCell(c0, ref)
	assert.Equal(t, 1, c0.NParticles())
	assert.Equal(t, types.Index(0), p.CellID())

	// Reassignment moves the membership with the particle.
	p.SetCoordinates([]float64{1.5, 0.5})
	ref, inside = c1.ComputeReferenceLocation(p.Coordinates())
	require.True(t, inside)
	p.AssignCell(c1, ref)
	assert.Equal(t, 0, c0.NParticles())
	assert.Equal(t, 1, c1.NParticles())

	p.RemoveCell()
	assert.Equal(t, 0, c1.NParticles())
	assert.False(t, p.HasCell())
	assert.Empty(t, p.ReferenceLocation())
}

func TestParticleRecordRoundTrip(t *testing.T) {
	p, err := NewParticleByType("P2D", 11, []float64{0.5, 1.5})
	require.NoError(t, err)
	p.SetMaterialID(3)
	p.SetMass(2.25)
	p.SetVolume(0.5)
	p.SetVelocity([]float64{-1, 4})
	p.SetStress([6]float64{1, 2, 3, 4, 5, 6})
	p.SetStrain([6]float64{6, 5, 4, 3, 2, 1})
	p.SetStateVar(0, 0.75)
	p.SetStateVar(4, -2)

	r := p.Record()
	assert.Equal(t, uint64(11), r.ID)
	assert.Equal(t, uint32(2), r.Type)
	assert.Equal(t, uint32(5), r.NSVars)

	got, err := ParticleFromRecord(r)
	require.NoError(t, err)
	assert.Equal(t, p.ID(), got.ID())
	assert.Equal(t, p.Coordinates(), got.Coordinates())
	assert.Equal(t, p.Velocity(), got.Velocity())
	assert.Equal(t, p.Mass(), got.Mass())
	assert.Equal(t, p.Volume(), got.Volume())
	assert.Equal(t, p.Stress(), got.Stress())
	assert.Equal(t, p.Strain(), got.Strain())
	assert.Equal(t, p.MaterialID(), got.MaterialID())
	assert.Equal(t, 0.75, got.StateVar(0))
	assert.Equal(t, -2.0, got.StateVar(4))
	// Cell references never cross the interchange boundary.
	assert.False(t, got.HasCell())
}

func TestParticleFromRecordUnknownTag(t *testing.T) {
	p, err := NewParticleByType("P2D", 0, []float64{0, 0})
	require.NoError(t, err)
	r := p.Record()
	r.Type = 9
	_, err = ParticleFromRecord(r)
	assert.Error(t, err)
}
