package mesh

import (
	"fmt"

	"github.com/notargets/gompm/pod"
	"github.com/notargets/gompm/types"
)

// Particle type names accepted by the particle factory, mapped to the
// discriminant stored in interchange records.
var particleTypeTags = map[string]uint32{
	"P2D": 2,
	"P3D": 3,
}

func particleTypeName(tag uint32) (string, bool) {
	for name, t := range particleTypeTags {
		if t == tag {
			return name, true
		}
	}
	return "", false
}

// NewParticleByType constructs a particle through the type registry.
func NewParticleByType(ptype string, id types.Index, coords []float64) (*Particle, error) {
	tag, ok := particleTypeTags[ptype]
	if !ok {
		return nil, fmt.Errorf("mesh: unknown particle type %q", ptype)
	}
	if int(tag) != len(coords) {
		return nil, fmt.Errorf("mesh: particle type %q expects %d coordinates, got %d",
			ptype, tag, len(coords))
	}
	p := NewParticle(id, coords)
	p.typeTag = tag
	return p, nil
}

// Particle is a Lagrangian material point moving through the mesh.
type Particle struct {
	id      types.Index
	typeTag uint32
	coords  []float64

	// Natural coordinates within the owning cell; valid only while cellID
	// is not the invalid sentinel.
	ref    []float64
	cellID types.Index
	cell   *Cell

	materialID uint32
	mass       float64
	volume     float64
	velocity   []float64
	traction   []float64
	stress     [6]float64
	strain     [6]float64
	nSVars     uint32
	svars      [pod.NStateVars]float64
}

func NewParticle(id types.Index, coords []float64) *Particle {
	dim := len(coords)
	return &Particle{
		id:       id,
		typeTag:  uint32(dim),
		coords:   append([]float64(nil), coords...),
		velocity: make([]float64, dim),
		traction: make([]float64, dim),
		cellID:   types.InvalidIndex,
	}
}

func (p *Particle) ID() types.Index        { return p.id }
func (p *Particle) Dim() int               { return len(p.coords) }
func (p *Particle) Coordinates() []float64 { return p.coords }
func (p *Particle) CellID() types.Index    { return p.cellID }
func (p *Particle) Cell() *Cell            { return p.cell }
func (p *Particle) MaterialID() uint32     { return p.materialID }
func (p *Particle) Mass() float64          { return p.mass }
func (p *Particle) Volume() float64        { return p.volume }
func (p *Particle) Velocity() []float64    { return p.velocity }

// ReferenceLocation returns the cached natural coordinates within the
// owning cell.
func (p *Particle) ReferenceLocation() []float64 { return p.ref }

func (p *Particle) SetMaterialID(id uint32)   { p.materialID = id }
func (p *Particle) SetMass(mass float64)      { p.mass = mass }
func (p *Particle) SetVolume(volume float64)  { p.volume = volume }
func (p *Particle) SetStress(s [6]float64)    { p.stress = s }
func (p *Particle) Stress() [6]float64        { return p.stress }
func (p *Particle) SetStrain(s [6]float64)    { p.strain = s }
func (p *Particle) Strain() [6]float64        { return p.strain }

func (p *Particle) SetVelocity(v []float64) {
	copy(p.velocity, v)
}

// SetCoordinates moves the particle; the cached cell assignment becomes
// stale and must be refreshed by localization.
func (p *Particle) SetCoordinates(coords []float64) {
	copy(p.coords, coords)
}

// AssignTraction sets the surface traction along dir.
func (p *Particle) AssignTraction(dir int, value float64) {
	p.traction[dir] = value
}

// Traction returns the per-direction surface traction.
func (p *Particle) Traction() []float64 { return p.traction }

// StateVar returns state variable i.
func (p *Particle) StateVar(i int) float64 { return p.svars[i] }

// SetStateVar assigns state variable i, growing the active count.
func (p *Particle) SetStateVar(i int, v float64) {
	p.svars[i] = v
	if uint32(i+1) > p.nSVars {
		p.nSVars = uint32(i + 1)
	}
}

// AssignCell points the particle at its geometrically containing cell and
// caches the reference location. Membership on the cell is kept in sync.
func (p *Particle) AssignCell(c *Cell, ref []float64) {
	if p.cell != nil && p.cell != c {
		p.cell.RemoveParticleID(p.id)
	}
	p.cell = c
	p.cellID = c.ID()
	p.ref = append(p.ref[:0], ref...)
	c.AddParticleID(p.id)
}

// RemoveCell detaches the particle from its cell, leaving it unlocated.
func (p *Particle) RemoveCell() {
	if p.cell != nil {
		p.cell.RemoveParticleID(p.id)
	}
	p.cell = nil
	p.cellID = types.InvalidIndex
	p.ref = p.ref[:0]
}

// HasCell reports whether the particle holds a (possibly stale) cell
// reference.
func (p *Particle) HasCell() bool { return p.cellID != types.InvalidIndex }

// Record flattens the particle into interchange form.
func (p *Particle) Record() pod.Record {
	r := pod.Record{
		ID:         uint64(p.id),
		Type:       p.typeTag,
		Dim:        uint32(len(p.coords)),
		Mass:       p.mass,
		Volume:     p.volume,
		Stress:     p.stress,
		Strain:     p.strain,
		CellID:     uint64(p.cellID),
		MaterialID: p.materialID,
		NSVars:     p.nSVars,
		SVars:      p.svars,
	}
	coord3 := [3]*float64{&r.CoordX, &r.CoordY, &r.CoordZ}
	vel3 := [3]*float64{&r.VelocityX, &r.VelocityY, &r.VelocityZ}
	for d := range p.coords {
		*coord3[d] = p.coords[d]
		*vel3[d] = p.velocity[d]
	}
	return r
}

// ParticleFromRecord rebuilds a particle from interchange form. The cell
// reference is not resolved here; localization re-establishes it.
func ParticleFromRecord(r pod.Record) (*Particle, error) {
	name, ok := particleTypeName(r.Type)
	if !ok {
		return nil, fmt.Errorf("mesh: record %d has unknown particle type tag %d", r.ID, r.Type)
	}
	dim := int(r.Dim)
	coords := []float64{r.CoordX, r.CoordY, r.CoordZ}[:dim]
	p, err := NewParticleByType(name, types.Index(r.ID), coords)
	if err != nil {
		return nil, err
	}
	p.mass = r.Mass
	p.volume = r.Volume
	copy(p.velocity, []float64{r.VelocityX, r.VelocityY, r.VelocityZ}[:dim])
	p.stress = r.Stress
	p.strain = r.Strain
	p.materialID = r.MaterialID
	p.nSVars = r.NSVars
	p.svars = r.SVars
	return p, nil
}

// applyRecordState overwrites the particle's physical state from a record,
// used by bulk import onto existing particles.
func (p *Particle) applyRecordState(r pod.Record) {
	dim := len(p.coords)
	copy(p.coords, []float64{r.CoordX, r.CoordY, r.CoordZ}[:dim])
	copy(p.velocity, []float64{r.VelocityX, r.VelocityY, r.VelocityZ}[:dim])
	p.mass = r.Mass
	p.volume = r.Volume
	p.stress = r.Stress
	p.strain = r.Strain
	p.materialID = r.MaterialID
	p.nSVars = r.NSVars
	p.svars = r.SVars
}
