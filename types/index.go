package types

import "math"

// Index identifies a mesh entity (node, cell or particle). Ids are unique
// within one entity kind of one mesh instance, not across MPI ranks.
type Index uint64

// InvalidIndex marks an unassigned reference, e.g. a particle that has not
// been located in any cell.
const InvalidIndex Index = math.MaxUint64

// SetAll is the reserved set id meaning "every entity currently in the
// collection". It is resolved late, at application time.
const SetAll = -1
