package mesh

import "fmt"

// VelocityConstraint prescribes a velocity component on a node or particle
// set. SetID -1 applies to the whole collection, resolved at application
// time.
type VelocityConstraint struct {
	SetID    int
	Dir      int
	Velocity float64
}

// FrictionConstraint is a Coulomb friction condition on a node set.
type FrictionConstraint struct {
	SetID    int
	Dir      int
	Sign     int
	Friction float64
}

// Traction is a surface load on a particle set along one direction,
// optionally scaled by a time function.
type Traction struct {
	SetID    int
	Dir      int
	Traction float64
	Fn       FunctionBase
}

// ConcentratedForce is a point load on a node set along one direction.
type ConcentratedForce struct {
	SetID int
	Dir   int
	Force float64
	Fn    FunctionBase
}

func (m *Mesh) checkDirection(dir int) error {
	if dir < 0 || dir >= m.dim {
		return fmt.Errorf("%w: %d for dimension %d", ErrInvalidDirection, dir, m.dim)
	}
	return nil
}

// AssignNodalVelocityConstraint stores a velocity constraint on a node set.
// A direction outside [0, Tdim) or an unknown set id fails and leaves the
// constraint list unchanged.
func (m *Mesh) AssignNodalVelocityConstraint(setID int, dir int, velocity float64) error {
	if err := m.checkDirection(dir); err != nil {
		m.log.Error("assign nodal velocity constraint failed", "err", err)
		return err
	}
	if !m.hasNodeSet(setID) {
		m.log.Error("assign nodal velocity constraint failed", "set", setID)
		return fmt.Errorf("%w: node set %d", ErrNotFound, setID)
	}
	m.nodalVelocityConstraints = append(m.nodalVelocityConstraints,
		&VelocityConstraint{SetID: setID, Dir: dir, Velocity: velocity})
	return nil
}

// ApplyNodalVelocityConstraints enforces every stored nodal velocity
// constraint, fanning out over each constraint's set.
func (m *Mesh) ApplyNodalVelocityConstraints() {
	for _, vc := range m.nodalVelocityConstraints {
		c := vc
		m.IterateOverNodeSet(c.SetID, func(n *Node) {
			n.SetVelocityConstraint(c.Dir, c.Velocity)
			n.ApplyVelocityConstraints()
		})
	}
}

// NNodalVelocityConstraints returns the stored constraint count.
func (m *Mesh) NNodalVelocityConstraints() int { return len(m.nodalVelocityConstraints) }

// AssignNodalFrictionConstraint stores a friction constraint on a node set.
func (m *Mesh) AssignNodalFrictionConstraint(setID int, dir, sign int, friction float64) error {
	if err := m.checkDirection(dir); err != nil {
		m.log.Error("assign nodal friction constraint failed", "err", err)
		return err
	}
	if !m.hasNodeSet(setID) {
		m.log.Error("assign nodal friction constraint failed", "set", setID)
		return fmt.Errorf("%w: node set %d", ErrNotFound, setID)
	}
	fc := &FrictionConstraint{SetID: setID, Dir: dir, Sign: sign, Friction: friction}
	m.nodalFrictionConstraints = append(m.nodalFrictionConstraints, fc)
	m.IterateOverNodeSet(setID, func(n *Node) {
		n.SetFrictionConstraint(dir, sign, friction)
	})
	return nil
}

// AssignParticleVelocityConstraint stores a velocity constraint on a
// particle set.
func (m *Mesh) AssignParticleVelocityConstraint(setID int, dir int, velocity float64) error {
	if err := m.checkDirection(dir); err != nil {
		m.log.Error("assign particle velocity constraint failed", "err", err)
		return err
	}
	if !m.hasParticleSet(setID) {
		m.log.Error("assign particle velocity constraint failed", "set", setID)
		return fmt.Errorf("%w: particle set %d", ErrNotFound, setID)
	}
	m.particleVelocityConstraints = append(m.particleVelocityConstraints,
		&VelocityConstraint{SetID: setID, Dir: dir, Velocity: velocity})
	return nil
}

// ApplyParticleVelocityConstraints enforces stored particle velocity
// constraints over their (late-bound) sets.
func (m *Mesh) ApplyParticleVelocityConstraints() {
	for _, vc := range m.particleVelocityConstraints {
		c := vc
		m.IterateOverParticleSet(c.SetID, func(p *Particle) {
			p.velocity[c.Dir] = c.Velocity
		})
	}
}

// NParticleVelocityConstraints returns the stored constraint count.
func (m *Mesh) NParticleVelocityConstraints() int { return len(m.particleVelocityConstraints) }

// CreateParticlesTractions stores a traction load on a particle set.
func (m *Mesh) CreateParticlesTractions(fn FunctionBase, setID int, dir int, traction float64) error {
	if err := m.checkDirection(dir); err != nil {
		m.log.Error("create particle tractions failed", "err", err)
		return err
	}
	if !m.hasParticleSet(setID) {
		m.log.Error("create particle tractions failed", "set", setID)
		return fmt.Errorf("%w: particle set %d", ErrNotFound, setID)
	}
	m.particleTractions = append(m.particleTractions,
		&Traction{SetID: setID, Dir: dir, Traction: traction, Fn: fn})
	return nil
}

// ApplyTractionOnParticles evaluates every stored traction at the current
// time and assigns it on each set member; the solver folds particle
// tractions into nodal forces.
func (m *Mesh) ApplyTractionOnParticles(currentTime float64) {
	for _, tr := range m.particleTractions {
		t := tr
		scale := 1.0
		if t.Fn != nil {
			scale = t.Fn.Value(currentTime)
		}
		m.IterateOverParticleSet(t.SetID, func(p *Particle) {
			p.AssignTraction(t.Dir, t.Traction*scale)
		})
	}
}

// NParticleTractions returns the stored traction count.
func (m *Mesh) NParticleTractions() int { return len(m.particleTractions) }

// AssignNodalConcentratedForces stores a concentrated force on a node set
// and applies it to the nodes' external force.
func (m *Mesh) AssignNodalConcentratedForces(fn FunctionBase, setID int, dir int, force float64) error {
	if err := m.checkDirection(dir); err != nil {
		m.log.Error("assign nodal concentrated forces failed", "err", err)
		return err
	}
	if !m.hasNodeSet(setID) {
		m.log.Error("assign nodal concentrated forces failed", "set", setID)
		return fmt.Errorf("%w: node set %d", ErrNotFound, setID)
	}
	m.nodalConcentratedForces = append(m.nodalConcentratedForces,
		&ConcentratedForce{SetID: setID, Dir: dir, Force: force, Fn: fn})
	return nil
}

// ApplyNodalConcentratedForces adds every stored concentrated force,
// scaled to the current time, into the nodes' external force.
func (m *Mesh) ApplyNodalConcentratedForces(currentTime float64) {
	for _, cf := range m.nodalConcentratedForces {
		f := cf
		scale := 1.0
		if f.Fn != nil {
			scale = f.Fn.Value(currentTime)
		}
		m.IterateOverNodeSet(f.SetID, func(n *Node) {
			force := make([]float64, m.dim)
			force[f.Dir] = f.Force * scale
			n.UpdateExternalForce(true, force)
		})
	}
}
