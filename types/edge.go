package types

import (
	"fmt"
	"math"
)

/*
EdgeKey is an always positive number that stores an edge's node ids in a way that can be compared
An edge between nodes [4] and [0] will always be stored as [0,4], in the ascending order of the id values
*/
type EdgeKey uint64

func NewEdgeKey(nodes [2]Index) (packed EdgeKey) {
	// This packs two node ids into two 32 bit unsigned integers to act as a hash and an indirect access method
	var (
		limit = Index(math.MaxUint32)
	)
	for _, node := range nodes {
		if node > limit {
			panic(fmt.Errorf("unable to pack two ids into a uint64, have %d and %d as inputs",
				nodes[0], nodes[1]))
		}
	}
	var i1, i2 Index
	if nodes[0] <= nodes[1] {
		i1, i2 = nodes[0], nodes[1]
	} else {
		i1, i2 = nodes[1], nodes[0]
	}
	packed = EdgeKey(i1 + i2<<32)
	return
}

func (ek EdgeKey) GetNodes() (nodes [2]Index) {
	var (
		enTmp EdgeKey
	)
	enTmp = ek >> 32
	nodes[1] = Index(enTmp)
	nodes[0] = Index(ek - enTmp*(1<<32))
	return
}
