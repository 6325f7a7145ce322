// Package comm provides the cross-rank coordination primitives the mesh
// engine needs: a blocking sum all-reduce over dense halo buffers and
// matched point-to-point particle-record exchange. Ranks are goroutines
// sharing one Group; channel sends/receives stand in for MPI messages and
// block with no timeout, so an absent peer stalls the collective.
package comm

import (
	"fmt"
	"sync"

	"github.com/notargets/gompm/pod"
)

// pairDepth is the channel capacity per ordered rank pair. The transfer
// protocol keeps at most one count and one batch in flight per pair, so a
// small buffer lets every rank post its sends before draining receives.
const pairDepth = 4

// Group is the shared state of a fixed set of ranks within one process.
type Group struct {
	size int

	// counts[to][from] and batches[to][from] carry the count-then-batch
	// particle transfer protocol.
	counts  [][]chan int
	batches [][]chan []pod.Record

	mu      sync.Mutex
	cond    *sync.Cond
	accum   []float64
	result  []float64
	arrived int
	gen     int
}

// NewGroup creates the shared state for size ranks.
func NewGroup(size int) *Group {
	if size < 1 {
		panic(fmt.Sprintf("comm: invalid group size %d", size))
	}
	g := &Group{size: size}
	g.cond = sync.NewCond(&g.mu)
	g.counts = make([][]chan int, size)
	g.batches = make([][]chan []pod.Record, size)
	for to := 0; to < size; to++ {
		g.counts[to] = make([]chan int, size)
		g.batches[to] = make([]chan []pod.Record, size)
		for from := 0; from < size; from++ {
			g.counts[to][from] = make(chan int, pairDepth)
			g.batches[to][from] = make(chan []pod.Record, pairDepth)
		}
	}
	return g
}

// Rank returns the communicator endpoint for rank r.
func (g *Group) Rank(r int) *Communicator {
	if r < 0 || r >= g.size {
		panic(fmt.Sprintf("comm: rank %d out of range [0,%d)", r, g.size))
	}
	return &Communicator{rank: r, g: g}
}

// Communicator is one rank's endpoint into its Group.
type Communicator struct {
	rank int
	g    *Group
}

func (c *Communicator) Rank() int { return c.rank }

func (c *Communicator) Size() int { return c.g.size }

// SendCount notifies rank to of an incoming batch size. A zero count must
// still be sent, otherwise the receiver blocks forever.
func (c *Communicator) SendCount(to, n int) {
	c.g.counts[to][c.rank] <- n
}

// SendRecords sends a particle record batch to rank to. The slice is handed
// over; the sender must not reuse it.
func (c *Communicator) SendRecords(to int, recs []pod.Record) {
	c.g.batches[to][c.rank] <- recs
}

// RecvCount blocks until rank from announces its batch size.
func (c *Communicator) RecvCount(from int) int {
	return <-c.g.counts[c.rank][from]
}

// RecvRecords blocks until the record batch from rank from arrives.
func (c *Communicator) RecvRecords(from int) []pod.Record {
	return <-c.g.batches[c.rank][from]
}

// AllReduceSum performs an element-wise global sum of buf across all ranks
// and writes the reduced values back into buf. Every rank must pass a buffer
// of the same length; the call blocks until all ranks have contributed.
func (c *Communicator) AllReduceSum(buf []float64) {
	g := c.g
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.arrived == 0 {
		g.accum = make([]float64, len(buf))
	}
	if len(g.accum) != len(buf) {
		panic(fmt.Sprintf("comm: all-reduce length mismatch: rank %d has %d, group has %d",
			c.rank, len(buf), len(g.accum)))
	}
	for i, v := range buf {
		g.accum[i] += v
	}
	g.arrived++

	gen := g.gen
	if g.arrived == g.size {
		g.result = g.accum
		g.arrived = 0
		g.gen++
		g.cond.Broadcast()
	} else {
		for gen == g.gen {
			g.cond.Wait()
		}
	}
	copy(buf, g.result)
}

// Barrier blocks until every rank in the group has entered it.
func (c *Communicator) Barrier() {
	g := c.g
	g.mu.Lock()
	defer g.mu.Unlock()
	g.arrived++
	gen := g.gen
	if g.arrived == g.size {
		g.arrived = 0
		g.gen++
		g.cond.Broadcast()
		return
	}
	for gen == g.gen {
		g.cond.Wait()
	}
}
