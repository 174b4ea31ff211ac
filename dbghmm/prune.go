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
	"log"

	"github.com/exascience/dbghmm/internal"
)

// simplify runs the simplification pipeline. Whenever a stage leaves fewer
// nodes than the viability floor, the last viable snapshot is used
// instead. The result is the largest weakly connected component in
// topological order.
func (f *Factory) simplify(nodes []Kmer, maxLen, k int) ([]Kmer, error) {
	floor := f.params.viabilityFloor(maxLen, k)

	nodes = f.trim(nodes)
	if len(nodes) < floor {
		return f.largestInOrder(nodes)
	}
	save := cloneNodes(nodes)

	nodes = f.bridgePruning(nodes)
	nodes = f.bridgePruning(nodes)
	nodes = f.trim(nodes)
	if len(nodes) < floor {
		return f.rollback(save, "bridge pruning", len(nodes))
	}
	save = cloneNodes(nodes)

	nodes = f.trimHeadTailEdges(nodes)
	nodes = f.filterLightweight(nodes)
	nodes = f.selectHeadAndTail(nodes)
	nodes = f.cutLightweightLoop(nodes)
	nodes = f.trim(nodes)
	if len(nodes) < floor {
		return f.rollback(save, "lightweight pruning", len(nodes))
	}
	return f.largestInOrder(nodes)
}

func (f *Factory) rollback(save []Kmer, stage string, left int) ([]Kmer, error) {
	if internal.PedanticMode {
		log.Printf("%v left %v of %v nodes, falling back", stage, left, len(save))
	}
	return f.largestInOrder(save)
}

func (f *Factory) largestInOrder(nodes []Kmer) ([]Kmer, error) {
	nodes, err := f.pickLargestComponent(nodes)
	if err != nil {
		return nil, err
	}
	return f.renameNodes(nodes), nil
}

// trimHeadTailEdges removes edges into light heads, judged by their total
// outgoing weight, and into light tails, judged by their k-mer weight. A
// node never loses its last edge this way.
func (f *Factory) trimHeadTailEdges(nodes []Kmer) []Kmer {
	for i := range nodes {
		f.stats = append(f.stats, nodes[i].Tot)
	}
	totBound := f.lowerBound(f.params.HeadTotMAD, f.params.Thr)
	for i := range nodes {
		f.stats = append(f.stats, nodes[i].KmerWeight)
	}
	kmerBound := f.lowerBound(f.params.TailKmerMAD, f.params.Thr)

	for i := range nodes {
		node := &nodes[i]
		for slot, to := range node.Edges {
			if to == noEdge || node.EdgeNum() <= 1 {
				continue
			}
			target := &nodes[to]
			if (target.IsHead && target.Tot < totBound) || (target.IsTail && target.KmerWeight < kmerBound) {
				node.remove(slot)
			}
		}
	}
	checkGraph(nodes, "trimHeadTailEdges")
	return nodes
}

// filterLightweight removes nodes below the lightweight bound. Tails are
// judged by their k-mer weight, other nodes by their total outgoing weight.
func (f *Factory) filterLightweight(nodes []Kmer) []Kmer {
	for i := range nodes {
		if nodes[i].IsTail {
			f.stats = append(f.stats, nodes[i].KmerWeight)
		}
	}
	tailBound := f.lowerBound(f.params.LightweightMAD, f.params.Thr)
	for i := range nodes {
		if !nodes[i].IsTail {
			f.stats = append(f.stats, nodes[i].Tot)
		}
	}
	innerBound := f.lowerBound(f.params.LightweightMAD, f.params.Thr)

	for i := range nodes {
		node := &nodes[i]
		if (node.IsTail && node.KmerWeight >= tailBound) || (!node.IsTail && node.Tot >= innerBound) {
			f.visited.Set(uint(i))
		}
	}
	result := f.compact(nodes, f.visited)
	f.visited.ClearAll()
	checkGraph(result, "filterLightweight")
	return result
}

// selectHeadAndTail demotes heads and tails with a light k-mer weight to
// interior nodes.
func (f *Factory) selectHeadAndTail(nodes []Kmer) []Kmer {
	for i := range nodes {
		f.stats = append(f.stats, nodes[i].KmerWeight)
	}
	bound := f.lowerBound(f.params.BoundaryMAD, f.params.BoundaryDivisor)
	for i := range nodes {
		node := &nodes[i]
		if (node.IsHead || node.IsTail) && node.KmerWeight < bound {
			node.IsHead, node.IsTail = false, false
		}
	}
	return nodes
}

// cutLightweightLoop removes light edges into short simple paths that do
// not end in a tail. A simple path runs through nodes with at most one
// incoming and one outgoing edge.
func (f *Factory) cutLightweightLoop(nodes []Kmer) []Kmer {
	indegree := f.resetSafe(len(nodes), 0)
	for i := range nodes {
		for _, to := range nodes[i].Edges {
			if to != noEdge {
				indegree[to]++
			}
		}
	}
	onSimplePath := func(i int) bool {
		return indegree[i] < 2 && nodes[i].EdgeNum() < 2
	}
	for i := range nodes {
		switch in, out := indegree[i], nodes[i].EdgeNum(); {
		case in == 0 && out == 1:
			f.dfsStack = append(f.dfsStack, i)
		case in > 1 || out > 1:
			for _, to := range nodes[i].Edges {
				if to != noEdge && onSimplePath(to) {
					f.dfsStack = append(f.dfsStack, to)
				}
			}
		}
	}

	pathLength := f.resetIndex(len(nodes), 0)
	path := f.order[:0]
	for len(f.dfsStack) > 0 {
		start := f.dfsStack[len(f.dfsStack)-1]
		f.dfsStack = f.dfsStack[:len(f.dfsStack)-1]
		path = path[:0]
		for node := start; node != noEdge && pathLength[node] == 0 && onSimplePath(node); {
			pathLength[node] = -1
			path = append(path, node)
			next := noEdge
			for _, to := range nodes[node].Edges {
				if to != noEdge {
					next = to
				}
			}
			node = next
		}
		for _, node := range path {
			pathLength[node] = len(path)
		}
	}
	f.order = path[:0]

	for i := range nodes {
		node := &nodes[i]
		var heaviest float64
		for slot, to := range node.Edges {
			if to != noEdge && node.Weights[slot] > heaviest {
				heaviest = node.Weights[slot]
			}
		}
		bound := heaviest / f.params.Thr
		for slot, to := range node.Edges {
			if to == noEdge || nodes[to].IsTail {
				continue
			}
			if l := pathLength[to]; l > 0 && l <= f.params.LoopPathLength && node.Weights[slot] < bound {
				node.remove(slot)
			}
		}
	}
	f.isSafe = f.isSafe[:0]
	f.tempIndex = f.tempIndex[:0]
	checkGraph(nodes, "cutLightweightLoop")
	return nodes
}
