// dbghmm: de Bruijn graph hidden Markov models for long-read separation.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package dbghmm

import (
	"errors"
	"log"
	"math/bits"

	"github.com/bits-and-blooms/bitset"

	"github.com/exascience/dbghmm/internal"
	"github.com/exascience/dbghmm/utils/kmer"
)

// ErrNoComponents is returned when simplification leaves no nodes at all.
var ErrNoComponents = errors.New("graph has no components left")

const unassigned = -1

// maxTableK is the largest k for which the (k+1)-mer edge table can be
// indexed by an int.
const maxTableK = (bits.UintSize-2)/2 - 1

type entry struct {
	weight float64
	index  int
}

// dfsFrame is a suspended call of the lowlink traversal.
type dfsFrame struct {
	node, parentEdge, next int
}

// Factory builds models. Its scratch tables are allocated once and reused
// by subsequent calls. A Factory must not be used concurrently.
type Factory struct {
	params Params

	inner     []entry
	edgeTable []float64
	isSafe    []uint8
	tempIndex []int
	edges     adjacency
	fu        findUnion
	dfsStack  []int
	dfsFlag   []uint8
	frames    []dfsFrame
	order     []int
	lowlink   []int
	bridges   [][4]bool
	stats     []float64
	word      []byte
	visited   *bitset.BitSet
	buffer    []Kmer

	backEdges int
}

// NewFactory returns a Factory that builds with the given parameters.
func NewFactory(params Params) *Factory {
	if err := params.Validate(); err != nil {
		log.Panic(err)
	}
	return &Factory{
		params:  params,
		visited: bitset.New(0),
	}
}

// Params returns the parameters of the Factory.
func (f *Factory) Params() Params {
	return f.params
}

// IsEmpty reports whether all scratch tables are empty.
func (f *Factory) IsEmpty() bool {
	return len(f.inner) == 0 &&
		len(f.edgeTable) == 0 &&
		len(f.isSafe) == 0 &&
		len(f.tempIndex) == 0 &&
		f.edges.isEmpty() &&
		f.fu.isEmpty() &&
		len(f.dfsStack) == 0 &&
		len(f.dfsFlag) == 0 &&
		len(f.frames) == 0 &&
		len(f.order) == 0 &&
		len(f.lowlink) == 0 &&
		len(f.bridges) == 0 &&
		len(f.stats) == 0 &&
		len(f.word) == 0 &&
		f.visited.None() &&
		len(f.buffer) == 0
}

// Clear empties all scratch tables, keeping their storage.
func (f *Factory) Clear() {
	f.inner = f.inner[:0]
	f.edgeTable = f.edgeTable[:0]
	f.isSafe = f.isSafe[:0]
	f.tempIndex = f.tempIndex[:0]
	f.edges.clear()
	f.fu.clear()
	f.dfsStack = f.dfsStack[:0]
	f.dfsFlag = f.dfsFlag[:0]
	f.frames = f.frames[:0]
	f.order = f.order[:0]
	f.lowlink = f.lowlink[:0]
	f.bridges = f.bridges[:0]
	f.stats = f.stats[:0]
	f.word = f.word[:0]
	f.visited.ClearAll()
	f.buffer = f.buffer[:0]
	f.backEdges = 0
}

func (f *Factory) checkEmpty(where string) {
	if internal.PedanticMode {
		internal.Check(f.IsEmpty(), "%v: factory scratch tables are not empty", where)
	}
}

// checkGraph verifies edge targets, and the cardinality of the edge
// slots, in pedantic mode.
func checkGraph(nodes []Kmer, where string) {
	if !internal.PedanticMode {
		return
	}
	for i := range nodes {
		node := &nodes[i]
		internal.Check(node.EdgeNum() <= 4, "%v: node %v has more than four edges", where, i)
		for _, to := range node.Edges {
			internal.Check(to == noEdge || (to >= 0 && to < len(nodes)),
				"%v: node %v has an edge to %v, outside of %v nodes", where, i, to, len(nodes))
		}
	}
}

func checkInput(dataset [][]byte, weights []float64, k int) {
	switch {
	case k <= 0:
		log.Panicf("invalid k-mer length %v", k)
	case k > kmer.MaxK:
		log.Panicf("k-mer length %v exceeds maximum of %v", k, kmer.MaxK)
	case k > maxTableK:
		log.Panicf("k-mer length %v exceeds maximum of %v for dense k-mer and edge tables", k, maxTableK)
	case weights != nil && len(weights) != len(dataset):
		log.Panicf("%v weights given for %v sequences", len(weights), len(dataset))
	}
	for i, w := range weights {
		if w < 0 {
			log.Panicf("negative weight %v for sequence %v", w, i)
		}
	}
}

// compact keeps the nodes in keep, drops edges into removed nodes, and
// renumbers the remaining ones densely. The result reuses the storage of
// the factory buffer, which takes over the storage of nodes.
func (f *Factory) compact(nodes []Kmer, keep *bitset.BitSet) []Kmer {
	f.tempIndex = f.tempIndex[:0]
	index := 0
	for i := range nodes {
		f.tempIndex = append(f.tempIndex, index)
		if keep.Test(uint(i)) {
			index++
		}
	}
	result := f.buffer[:0]
	for i := range nodes {
		if keep.Test(uint(i)) {
			node := nodes[i]
			node.removeIfNotSupported(keep)
			node.renameBy(f.tempIndex)
			result = append(result, node)
		}
	}
	f.tempIndex = f.tempIndex[:0]
	f.buffer = nodes[:0]
	return result
}

// permute moves every node i to position f.tempIndex[i], which must be a
// permutation, and renames the edges accordingly.
func (f *Factory) permute(nodes []Kmer) []Kmer {
	if cap(f.buffer) < len(nodes) {
		f.buffer = make([]Kmer, 0, len(nodes))
	}
	result := f.buffer[:len(nodes)]
	for i := range nodes {
		node := nodes[i]
		node.renameBy(f.tempIndex)
		result[f.tempIndex[i]] = node
	}
	f.tempIndex = f.tempIndex[:0]
	f.buffer = nodes[:0]
	return result
}

func (f *Factory) resetFlags(n int) []uint8 {
	f.dfsFlag = f.dfsFlag[:0]
	for i := 0; i < n; i++ {
		f.dfsFlag = append(f.dfsFlag, 0)
	}
	return f.dfsFlag
}

func (f *Factory) resetSafe(n int, value uint8) []uint8 {
	f.isSafe = f.isSafe[:0]
	for i := 0; i < n; i++ {
		f.isSafe = append(f.isSafe, value)
	}
	return f.isSafe
}

func (f *Factory) resetIndex(n int, value int) []int {
	f.tempIndex = f.tempIndex[:0]
	for i := 0; i < n; i++ {
		f.tempIndex = append(f.tempIndex, value)
	}
	return f.tempIndex
}
