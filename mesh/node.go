package mesh

import (
	"sort"
	"sync"

	"github.com/notargets/gompm/types"
)

// GhostUnset marks a node that has no dense halo-buffer slot.
const GhostUnset = -1

// Node is a point of the background mesh. Nodal quantities are accumulated
// from particles every step; the update methods lock so parallel particle
// passes can scatter to shared nodes.
type Node struct {
	id     types.Index
	coords []float64

	mu       sync.Mutex
	mass     float64
	momentum []float64
	velocity []float64
	extForce []float64
	active   bool

	// MPI ranks referencing this node; empty when purely local.
	ranks map[int]struct{}
	// Dense index into halo-exchange buffers, GhostUnset unless the node is
	// shared across at least two ranks.
	ghostID int

	velocityConstraints map[int]float64 // direction -> prescribed velocity
	frictionDir         int
	frictionSign        int
	friction            float64
	hasFriction         bool
}

func NewNode(id types.Index, coords []float64) *Node {
	dim := len(coords)
	return &Node{
		id:                  id,
		coords:              append([]float64(nil), coords...),
		momentum:            make([]float64, dim),
		velocity:            make([]float64, dim),
		extForce:            make([]float64, dim),
		ranks:               make(map[int]struct{}),
		ghostID:             GhostUnset,
		velocityConstraints: make(map[int]float64),
	}
}

func (n *Node) ID() types.Index         { return n.id }
func (n *Node) Coordinates() []float64  { return n.coords }
func (n *Node) Dim() int                { return len(n.coords) }
func (n *Node) Active() bool            { return n.active }
func (n *Node) SetActive(active bool)   { n.active = active }
func (n *Node) GhostID() int            { return n.ghostID }
func (n *Node) SetGhostID(gid int)      { n.ghostID = gid }
func (n *Node) Mass() float64           { return n.mass }
func (n *Node) SetMass(mass float64)    { n.mass = mass }
func (n *Node) Momentum() []float64     { return n.momentum }
func (n *Node) Velocity() []float64     { return n.velocity }
func (n *Node) ExternalForce() []float64 { return n.extForce }

// UpdateMass adds (or assigns) a mass contribution under the node lock.
func (n *Node) UpdateMass(update bool, mass float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if update {
		n.mass += mass
	} else {
		n.mass = mass
	}
}

// UpdateMomentum adds (or assigns) a momentum contribution under the node lock.
func (n *Node) UpdateMomentum(update bool, momentum []float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for d := range n.momentum {
		if update {
			n.momentum[d] += momentum[d]
		} else {
			n.momentum[d] = momentum[d]
		}
	}
}

// UpdateExternalForce adds (or assigns) a force contribution under the node lock.
func (n *Node) UpdateExternalForce(update bool, force []float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for d := range n.extForce {
		if update {
			n.extForce[d] += force[d]
		} else {
			n.extForce[d] = force[d]
		}
	}
}

// ComputeVelocity derives velocity from momentum and mass, then enforces any
// prescribed velocity components.
func (n *Node) ComputeVelocity() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.mass > 0 {
		for d := range n.velocity {
			n.velocity[d] = n.momentum[d] / n.mass
		}
	}
	for dir, v := range n.velocityConstraints {
		n.velocity[dir] = v
		n.momentum[dir] = v * n.mass
	}
}

// AddRank records that rank references this node.
func (n *Node) AddRank(rank int) { n.ranks[rank] = struct{}{} }

// ClearRanks resets rank membership ahead of a decomposition pass.
func (n *Node) ClearRanks() {
	n.ranks = make(map[int]struct{})
	n.ghostID = GhostUnset
}

// Ranks returns the referencing ranks in ascending order.
func (n *Node) Ranks() []int {
	out := make([]int, 0, len(n.ranks))
	for r := range n.ranks {
		out = append(out, r)
	}
	sort.Ints(out)
	return out
}

// SharedByRank reports whether rank is among the node's referencing ranks.
func (n *Node) SharedByRank(rank int) bool {
	_, ok := n.ranks[rank]
	return ok
}

// NRanks returns the number of referencing ranks.
func (n *Node) NRanks() int { return len(n.ranks) }

// SetVelocityConstraint prescribes the velocity component along dir.
func (n *Node) SetVelocityConstraint(dir int, velocity float64) {
	n.velocityConstraints[dir] = velocity
}

// ApplyVelocityConstraints enforces prescribed components on the current
// velocity and momentum.
func (n *Node) ApplyVelocityConstraints() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for dir, v := range n.velocityConstraints {
		n.velocity[dir] = v
		n.momentum[dir] = v * n.mass
	}
}

// SetFrictionConstraint stores a Coulomb friction constraint (direction,
// sign of the outward normal, friction coefficient).
func (n *Node) SetFrictionConstraint(dir, sign int, friction float64) {
	n.frictionDir = dir
	n.frictionSign = sign
	n.friction = friction
	n.hasFriction = true
}

// FrictionConstraint returns the stored friction constraint, ok=false if none.
func (n *Node) FrictionConstraint() (dir, sign int, friction float64, ok bool) {
	return n.frictionDir, n.frictionSign, n.friction, n.hasFriction
}
