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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/dbghmm/utils/kmer"
)

type arc struct {
	from, to int
	base     byte
	weight   float64
}

func handGraph(n int, heads, tails []int, arcs ...arc) []Kmer {
	nodes := make([]Kmer, n)
	for i := range nodes {
		nodes[i] = newKmer(kmer.Decode(uint64(i), 4), 10)
	}
	for _, h := range heads {
		nodes[h].IsHead = true
	}
	for _, t := range tails {
		nodes[t].IsTail = true
	}
	for _, a := range arcs {
		nodes[a.from].pushEdgeWithWeight(a.base, a.to, a.weight)
	}
	return nodes
}

func words(nodes []Kmer) (result []string) {
	for i := range nodes {
		result = append(result, string(nodes[i].Kmer))
	}
	return result
}

// successors maps every word to the words of its successors per slot.
func successors(nodes []Kmer) map[string][4]string {
	result := make(map[string][4]string, len(nodes))
	for i := range nodes {
		var next [4]string
		for slot, to := range nodes[i].Edges {
			if to != noEdge {
				next[slot] = string(nodes[to].Kmer)
			}
		}
		result[string(nodes[i].Kmer)] = next
	}
	return result
}

func requireValidGraph(t *testing.T, nodes []Kmer) {
	t.Helper()
	for i := range nodes {
		require.LessOrEqual(t, nodes[i].EdgeNum(), 4)
		for _, to := range nodes[i].Edges {
			if to != noEdge {
				require.True(t, to >= 0 && to < len(nodes), "node %v has an edge to %v of %v", i, to, len(nodes))
			}
		}
	}
}

func TestFactoryStartsAndEndsEmpty(t *testing.T) {
	f := NewFactory(DefaultParams())
	assert.True(t, f.IsEmpty())
	f.inner = append(f.inner, entry{})
	f.visited.Set(3)
	assert.False(t, f.IsEmpty())
	f.Clear()
	assert.True(t, f.IsEmpty())
}

func TestNewFactoryRejectsInvalidParams(t *testing.T) {
	params := DefaultParams()
	params.BoundaryDivisor = 0
	assert.Panics(t, func() { NewFactory(params) })
}

func TestTrimUnreachable(t *testing.T) {
	f := NewFactory(DefaultParams())
	nodes := handGraph(8, []int{0}, []int{2},
		arc{0, 1, 'A', 5},
		arc{1, 2, 'A', 5},
		arc{3, 1, 'A', 5},
		arc{1, 4, 'C', 1},
		arc{6, 7, 'A', 5},
		arc{7, 6, 'A', 5},
	)
	all := words(nodes)

	forward := f.trimUnreachable(nodes)
	requireValidGraph(t, forward)
	assert.Equal(t, []string{all[0], all[1], all[2], all[4]}, words(forward))
	assert.True(t, f.IsEmpty())

	both := f.trimUnreachableReverse(forward)
	requireValidGraph(t, both)
	assert.Equal(t, []string{all[0], all[1], all[2]}, words(both))
	assert.Equal(t, 1, both[1].EdgeNum())
	assert.Equal(t, 2, both[1].Edges[0])
	assert.Equal(t, 5.0, both[1].Tot)
	assert.True(t, both[0].IsHead)
	assert.True(t, both[2].IsTail)
	assert.True(t, f.IsEmpty())
}

func TestTrimWithoutHeadsOrTails(t *testing.T) {
	f := NewFactory(DefaultParams())
	nodes := handGraph(4, nil, nil,
		arc{0, 1, 'A', 1},
		arc{2, 1, 'A', 1},
		arc{3, 3, 'A', 1},
	)
	trimmed := f.trim(nodes)
	assert.Len(t, trimmed, 3, "the self loop is neither a source nor reaches a sink")

	cycle := handGraph(2, nil, nil, arc{0, 1, 'A', 1}, arc{1, 0, 'A', 1})
	assert.Len(t, f.trim(cycle), 2, "a graph without sources or sinks is left alone")
	assert.True(t, f.IsEmpty())
}

func bridgeGraph() []Kmer {
	return handGraph(5, []int{0}, []int{4},
		arc{0, 1, 'A', 10},
		arc{1, 2, 'A', 10},
		arc{1, 3, 'C', 0.5},
		arc{1, 4, 'G', 0.1},
		arc{2, 3, 'A', 10},
		arc{3, 1, 'A', 10},
	)
}

func TestFindBridges(t *testing.T) {
	f := NewFactory(DefaultParams())
	isBridge := f.findBridges(bridgeGraph())
	assert.Equal(t, [][4]bool{
		{true, false, false, false},
		{false, false, true, false},
		{},
		{},
		{},
	}, isBridge)
	assert.True(t, f.IsEmpty())

	again := f.findBridges(handGraph(5, nil, nil))
	assert.Equal(t, make([][4]bool, 5), again)
	assert.Same(t, &isBridge[0], &again[0], "bridge marks reuse the factory buffer")
	assert.True(t, f.IsEmpty())
}

func TestBridgePruningKeepsBridges(t *testing.T) {
	f := NewFactory(DefaultParams())
	nodes := f.bridgePruning(bridgeGraph())
	requireValidGraph(t, nodes)
	assert.Equal(t, noEdge, nodes[1].Edges[1], "the light non-bridge edge is removed")
	assert.Equal(t, 4, nodes[1].Edges[2], "the lighter bridge is kept")
	assert.Equal(t, 2, nodes[1].Edges[0])
	assert.Equal(t, 1, nodes[0].Edges[0])

	nodes = f.bridgePruning(nodes)
	assert.Equal(t, 2, nodes[1].EdgeNum())
	assert.Equal(t, 1, nodes[3].EdgeNum())
	assert.True(t, f.IsEmpty())
}

func TestBridgeBound(t *testing.T) {
	f := NewFactory(DefaultParams())
	f.stats = append(f.stats, 10, 10, 0.5, 0.1, 10, 10)
	ave := 40.6 / 6
	factor := 1/(1+math.Exp(-ave/30)) - 0.5
	assert.InDelta(t, ave*(0.4+0.2*factor), f.bridgeBound(), 1e-12)
	assert.Empty(t, f.stats)
}

func TestMedianMAD(t *testing.T) {
	median, mad := medianMAD([]float64{100, 4, 1, 3, 2})
	assert.Equal(t, 3.0, median)
	assert.Equal(t, 1.0, mad)

	params := DefaultParams()
	params.Strategy = MedianMAD
	f := NewFactory(params)
	f.stats = append(f.stats, 100, 4, 1, 3, 2)
	assert.Equal(t, 1.0, f.lowerBound(2, 1))
	assert.Equal(t, math.Inf(-1), f.lowerBound(2, 1), "bound of nothing")

	f.stats = append(f.stats, 5, 1, 4, 2, 3)
	assert.Equal(t, 4.0, f.nthLargest(2))
	assert.True(t, f.IsEmpty())
}

func TestRejection(t *testing.T) {
	assert.Equal(t, 0.5, rejection(0, 10))
	assert.Less(t, rejection(1, 10), 1e-4)
	assert.Greater(t, rejection(-1, 10), 1-1e-4)
}

func TestPickLargestComponent(t *testing.T) {
	f := NewFactory(DefaultParams())
	nodes := handGraph(5, nil, nil,
		arc{3, 4, 'A', 1},
		arc{0, 1, 'A', 1},
		arc{2, 1, 'A', 1},
	)
	all := words(nodes)
	largest, err := f.pickLargestComponent(nodes)
	require.NoError(t, err)
	requireValidGraph(t, largest)
	assert.Equal(t, all[:3], words(largest))

	tie := handGraph(4, nil, nil, arc{2, 3, 'A', 1}, arc{0, 1, 'A', 1})
	all = words(tie)
	largest, err = f.pickLargestComponent(tie)
	require.NoError(t, err)
	assert.Equal(t, all[:2], words(largest))

	_, err = f.pickLargestComponent(nil)
	assert.ErrorIs(t, err, ErrNoComponents)
	assert.True(t, f.IsEmpty())
}

func TestRenameNodes(t *testing.T) {
	f := NewFactory(DefaultParams())
	chain := handGraph(4, nil, nil,
		arc{3, 2, 'A', 1},
		arc{2, 1, 'A', 1},
		arc{1, 0, 'A', 1},
	)
	before := successors(chain)
	all := words(chain)
	ordered := f.renameNodes(chain)
	requireValidGraph(t, ordered)
	assert.Equal(t, before, successors(ordered))
	assert.Equal(t, []string{all[3], all[2], all[1], all[0]}, words(ordered))
	assert.Equal(t, 0, f.backEdges)
	f.Clear()

	cyclic := handGraph(4, nil, nil,
		arc{0, 1, 'A', 1},
		arc{1, 2, 'A', 1},
		arc{2, 0, 'C', 1},
		arc{2, 3, 'A', 1},
	)
	before = successors(cyclic)
	ordered = f.renameNodes(cyclic)
	assert.Equal(t, before, successors(ordered))
	assert.Equal(t, 1, f.backEdges)
	forward := 0
	for from := range ordered {
		for _, to := range ordered[from].Edges {
			if to != noEdge && to > from {
				forward++
			}
		}
	}
	assert.Equal(t, 3, forward)
	f.Clear()
	assert.True(t, f.IsEmpty())
}

func TestSortNodes(t *testing.T) {
	f := NewFactory(DefaultParams())
	nodes := handGraph(5, []int{1, 3}, nil,
		arc{0, 1, 'A', 1},
		arc{1, 2, 'A', 1},
		arc{3, 4, 'A', 1},
	)
	all := words(nodes)
	before := successors(nodes)
	sorted := f.sortNodes(nodes)
	assert.Equal(t, []string{all[1], all[3], all[0], all[2], all[4]}, words(sorted))
	assert.Equal(t, before, successors(sorted))
	assert.True(t, f.IsEmpty())
}

func bubbleGraph() []Kmer {
	return handGraph(5, []int{0}, []int{4},
		arc{0, 1, 'A', 10},
		arc{1, 2, 'A', 10},
		arc{1, 3, 'C', 0.5},
		arc{2, 4, 'A', 10},
		arc{3, 4, 'A', 0.5},
	)
}

func TestSimplifyFallsBackBelowFloor(t *testing.T) {
	f := NewFactory(DefaultParams())
	nodes, err := f.simplify(bubbleGraph(), 100, 4)
	require.NoError(t, err)
	requireValidGraph(t, nodes)
	assert.Len(t, nodes, 5, "below the floor nothing is pruned")
	assert.True(t, f.IsEmpty())

	params := DefaultParams()
	params.MinViableNodes = 0
	f = NewFactory(params)
	all := words(bubbleGraph())
	nodes, err = f.simplify(bubbleGraph(), 100, 4)
	require.NoError(t, err)
	requireValidGraph(t, nodes)
	assert.Equal(t, []string{all[0], all[1], all[2], all[4]}, words(nodes))
	for from := range nodes {
		for _, to := range nodes[from].Edges {
			if to != noEdge {
				assert.Greater(t, to, from)
			}
		}
	}
	assert.True(t, f.IsEmpty())
}

func TestSimplifyRollsBackBridgePruning(t *testing.T) {
	params := DefaultParams()
	params.MinViableNodes = 5
	f := NewFactory(params)
	all := words(bubbleGraph())
	before := successors(bubbleGraph())
	nodes, err := f.simplify(bubbleGraph(), 100, 4)
	require.NoError(t, err)
	requireValidGraph(t, nodes)
	assert.ElementsMatch(t, all, words(nodes), "pruning the light branch leaves 4 of 5 nodes")
	assert.Equal(t, before, successors(nodes))
	assert.Equal(t, all[0], string(nodes[0].Kmer))
	assert.Equal(t, all[4], string(nodes[4].Kmer))
	assert.True(t, f.IsEmpty())
}

func TestSimplifyRollsBackLightweightPruning(t *testing.T) {
	chain := func() []Kmer {
		return handGraph(5, []int{0}, []int{4},
			arc{0, 1, 'A', 10},
			arc{1, 2, 'A', 10},
			arc{2, 3, 'A', 0.1},
			arc{3, 4, 'A', 10},
		)
	}
	params := DefaultParams()
	params.MinViableNodes = 5
	f := NewFactory(params)
	nodes, err := f.simplify(chain(), 100, 4)
	require.NoError(t, err)
	requireValidGraph(t, nodes)
	assert.Equal(t, words(chain()), words(nodes), "filtering the light node splits the chain")
	assert.InDelta(t, 0.1, nodes[2].Tot, 1e-12)
	assert.True(t, f.IsEmpty())

	params.MinViableNodes = 2
	f = NewFactory(params)
	nodes, err = f.simplify(chain(), 100, 4)
	require.NoError(t, err)
	all := words(chain())
	assert.Equal(t, []string{all[0], all[1]}, words(nodes))
}

func TestSimplifyEmptyGraph(t *testing.T) {
	f := NewFactory(DefaultParams())
	_, err := f.simplify(nil, 0, 4)
	assert.ErrorIs(t, err, ErrNoComponents)
	assert.True(t, f.IsEmpty())
}

func TestSelectHeadAndTailDemotes(t *testing.T) {
	f := NewFactory(DefaultParams())
	nodes := handGraph(4, []int{0, 1}, []int{3}, arc{0, 2, 'A', 1}, arc{1, 2, 'C', 1}, arc{2, 3, 'A', 1})
	nodes[1].KmerWeight = 1
	nodes = f.selectHeadAndTail(nodes)
	assert.Len(t, nodes, 4)
	assert.True(t, nodes[0].IsHead)
	assert.False(t, nodes[1].IsHead)
	assert.True(t, nodes[3].IsTail)
	assert.True(t, f.IsEmpty())
}

func TestCutLightweightLoop(t *testing.T) {
	f := NewFactory(DefaultParams())
	// 1 -> 2 -> 3 is the heavy path, 1 -> 4 -> 1 a light short loop.
	nodes := handGraph(5, []int{0}, []int{3},
		arc{0, 1, 'A', 10},
		arc{1, 2, 'A', 10},
		arc{2, 3, 'A', 10},
		arc{1, 4, 'C', 1},
		arc{4, 1, 'A', 1},
	)
	nodes = f.cutLightweightLoop(nodes)
	requireValidGraph(t, nodes)
	assert.Equal(t, noEdge, nodes[1].Edges[1])
	assert.Equal(t, 2, nodes[1].Edges[0])
	assert.Equal(t, 1, nodes[4].Edges[0])
	assert.True(t, f.IsEmpty())
}

func TestFilterLightweight(t *testing.T) {
	f := NewFactory(DefaultParams())
	nodes := handGraph(4, []int{0}, []int{2, 3},
		arc{0, 1, 'A', 10},
		arc{1, 2, 'A', 10},
		arc{1, 3, 'C', 10},
	)
	nodes[3].KmerWeight = 1
	all := words(nodes)
	nodes = f.filterLightweight(nodes)
	requireValidGraph(t, nodes)
	assert.Equal(t, all[:3], words(nodes))
	assert.Equal(t, 1, nodes[1].EdgeNum())
	assert.True(t, f.IsEmpty())
}

func TestTrimHeadTailEdges(t *testing.T) {
	f := NewFactory(DefaultParams())
	nodes := handGraph(4, []int{0}, []int{2, 3},
		arc{0, 1, 'A', 10},
		arc{1, 2, 'A', 10},
		arc{1, 3, 'C', 1},
	)
	nodes[3].KmerWeight = 1
	nodes = f.trimHeadTailEdges(nodes)
	requireValidGraph(t, nodes)
	assert.Len(t, nodes, 4)
	assert.Equal(t, noEdge, nodes[1].Edges[1])
	assert.Equal(t, 2, nodes[1].Edges[0])
	assert.True(t, f.IsEmpty())
}
