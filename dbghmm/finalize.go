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
	"math/bits"

	"github.com/exascience/pargo/parallel"
)

// finalize turns the weights of all nodes into distributions. With
// Params.MarginalizeEdges, edges that lead into indistinguishable
// continuations share their transition mass evenly.
func (f *Factory) finalize(nodes []Kmer, k int) {
	if len(nodes) == 0 {
		return
	}
	if !f.params.MarginalizeEdges {
		parallel.Range(0, len(nodes), 0, func(low, high int) {
			for i := low; i < high; i++ {
				nodes[i].Finalize()
			}
		})
		return
	}
	f.edges.reset(len(nodes))
	for from := range nodes {
		for _, to := range nodes[from].Edges {
			if to != noEdge {
				f.edges.addArc(from, to)
			}
		}
	}
	for i := range nodes {
		node := &nodes[i]
		if node.EdgeNum() <= 1 {
			node.Finalize()
			continue
		}
		node.FinalizeGlobal(f.selectMarginalizableEdges(node, k-1, len(nodes)))
	}
	f.edges.clear()
}

// selectMarginalizableEdges marks the edges of node whose continuations
// within depth steps overlap with those of another edge of the node.
func (f *Factory) selectMarginalizableEdges(node *Kmer, depth, n int) (which [4]bool) {
	safe := f.resetSafe(n, 0)
	for slot, to := range node.Edges {
		if to != noEdge {
			f.depthLimitedDFS(to, depth, uint8(1)<<uint(slot))
		}
	}
	var shared uint8
	for _, s := range safe {
		if bits.OnesCount8(s) > 1 {
			shared |= s
		}
	}
	for slot := range which {
		which[slot] = shared&(1<<uint(slot)) != 0
	}
	f.isSafe = safe[:0]
	return which
}

// depthLimitedDFS marks every node within limit steps of start with bit.
func (f *Factory) depthLimitedDFS(start, limit int, bit uint8) {
	flags := f.resetFlags(len(f.isSafe))
	depth := f.order[:0]
	f.dfsStack = append(f.dfsStack, start)
	depth = append(depth, 0)
	for len(f.dfsStack) > 0 {
		node := f.dfsStack[len(f.dfsStack)-1]
		d := depth[len(depth)-1]
		f.dfsStack = f.dfsStack[:len(f.dfsStack)-1]
		depth = depth[:len(depth)-1]
		if flags[node] != 0 {
			continue
		}
		flags[node] = 1
		f.isSafe[node] |= bit
		if d >= limit {
			continue
		}
		for _, to := range f.edges[node] {
			if flags[to] == 0 {
				f.dfsStack = append(f.dfsStack, to)
				depth = append(depth, d+1)
			}
		}
	}
	f.order = depth[:0]
	f.dfsFlag = flags[:0]
}
