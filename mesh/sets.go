package mesh

import (
	"fmt"

	"github.com/notargets/gompm/types"
	"github.com/notargets/gompm/utils"
)

// createSets validates and copies an id->members mapping against a lookup
// map. Set membership is immutable once created; stale members are
// tolerated at iteration time instead.
func createSets[T Entity](dst map[int][]types.Index, lookup Map[T], sets map[int][]types.Index, checkDuplicates bool) error {
	if len(sets) == 0 {
		return ErrEmptyInput
	}
	for sid, members := range sets {
		if sid == types.SetAll {
			return fmt.Errorf("mesh: set id %d is reserved", types.SetAll)
		}
		out := make([]types.Index, 0, len(members))
		seen := make(map[types.Index]struct{}, len(members))
		for _, id := range members {
			if _, ok := lookup.Get(id); !ok {
				return fmt.Errorf("%w: set %d member %d", ErrNotFound, sid, id)
			}
			if _, dup := seen[id]; dup {
				if checkDuplicates {
					return fmt.Errorf("%w: set %d member %d", ErrDuplicate, sid, id)
				}
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
		dst[sid] = out
	}
	return nil
}

// CreateParticleSets registers named particle sets from an external
// id->member mapping.
func (m *Mesh) CreateParticleSets(sets map[int][]types.Index, checkDuplicates bool) error {
	if err := createSets(m.particleSets, m.mapParticles, sets, checkDuplicates); err != nil {
		m.log.Error("create particle sets failed", "err", err)
		return err
	}
	return nil
}

// CreateNodeSets registers named node sets.
func (m *Mesh) CreateNodeSets(sets map[int][]types.Index, checkDuplicates bool) error {
	if err := createSets(m.nodeSets, m.mapNodes, sets, checkDuplicates); err != nil {
		m.log.Error("create node sets failed", "err", err)
		return err
	}
	return nil
}

// CreateCellSets registers named cell sets.
func (m *Mesh) CreateCellSets(sets map[int][]types.Index, checkDuplicates bool) error {
	if err := createSets(m.cellSets, m.mapCells, sets, checkDuplicates); err != nil {
		m.log.Error("create cell sets failed", "err", err)
		return err
	}
	return nil
}

// IterateOverParticleSet applies oper to every member of a particle set in
// a parallel fan-out. Set id -1 resolves to all particles; members removed
// since set creation are silently skipped.
func (m *Mesh) IterateOverParticleSet(setID int, oper func(*Particle)) {
	if setID == types.SetAll {
		m.IterateOverParticles(oper)
		return
	}
	members, ok := m.particleSets[setID]
	if !ok {
		return
	}
	utils.ParallelFor(len(members), m.grainSize, func(k int) {
		if p, present := m.mapParticles.Get(members[k]); present {
			oper(p)
		}
	})
}

// IterateOverNodeSet applies oper to every member of a node set; -1 means
// every node.
func (m *Mesh) IterateOverNodeSet(setID int, oper func(*Node)) {
	if setID == types.SetAll {
		m.IterateOverNodes(oper)
		return
	}
	members, ok := m.nodeSets[setID]
	if !ok {
		return
	}
	utils.ParallelFor(len(members), m.grainSize, func(k int) {
		if n, present := m.mapNodes.Get(members[k]); present {
			oper(n)
		}
	})
}

// IterateOverCellSet applies oper to every member of a cell set; -1 means
// every cell.
func (m *Mesh) IterateOverCellSet(setID int, oper func(*Cell)) {
	if setID == types.SetAll {
		m.IterateOverCells(oper)
		return
	}
	members, ok := m.cellSets[setID]
	if !ok {
		return
	}
	utils.ParallelFor(len(members), m.grainSize, func(k int) {
		if c, present := m.mapCells.Get(members[k]); present {
			oper(c)
		}
	})
}

// hasNodeSet reports whether a node set id is valid for constraint
// creation; -1 always is.
func (m *Mesh) hasNodeSet(setID int) bool {
	if setID == types.SetAll {
		return true
	}
	_, ok := m.nodeSets[setID]
	return ok
}

func (m *Mesh) hasParticleSet(setID int) bool {
	if setID == types.SetAll {
		return true
	}
	_, ok := m.particleSets[setID]
	return ok
}

func (m *Mesh) hasCellSet(setID int) bool {
	if setID == types.SetAll {
		return true
	}
	_, ok := m.cellSets[setID]
	return ok
}
