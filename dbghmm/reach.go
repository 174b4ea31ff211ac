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

// trimUnreachable removes the nodes that cannot be reached from a head.
// Without heads, nodes without incoming edges are used as starting
// points. When there are none either, the graph is returned unchanged.
func (f *Factory) trimUnreachable(nodes []Kmer) []Kmer {
	for i := range nodes {
		if nodes[i].IsHead {
			f.dfsStack = append(f.dfsStack, i)
		}
	}
	if len(f.dfsStack) == 0 {
		indegreeFree := f.resetSafe(len(nodes), 1)
		for i := range nodes {
			for _, to := range nodes[i].Edges {
				if to != noEdge {
					indegreeFree[to] = 0
				}
			}
		}
		for i, free := range indegreeFree {
			if free == 1 {
				f.dfsStack = append(f.dfsStack, i)
			}
		}
		f.isSafe = f.isSafe[:0]
	}
	if len(f.dfsStack) == 0 {
		return nodes
	}
	for len(f.dfsStack) > 0 {
		node := f.dfsStack[len(f.dfsStack)-1]
		f.dfsStack = f.dfsStack[:len(f.dfsStack)-1]
		if f.visited.Test(uint(node)) {
			continue
		}
		f.visited.Set(uint(node))
		for _, to := range nodes[node].Edges {
			if to != noEdge && !f.visited.Test(uint(to)) {
				f.dfsStack = append(f.dfsStack, to)
			}
		}
	}
	result := f.compact(nodes, f.visited)
	f.visited.ClearAll()
	checkGraph(result, "trimUnreachable")
	return result
}

// trimUnreachableReverse removes the nodes from which no tail can be
// reached. Without tails, nodes without outgoing edges are used instead.
func (f *Factory) trimUnreachableReverse(nodes []Kmer) []Kmer {
	f.edges.reset(len(nodes))
	for from := range nodes {
		for _, to := range nodes[from].Edges {
			if to != noEdge {
				f.edges.addArc(to, from)
			}
		}
	}
	for i := range nodes {
		if nodes[i].IsTail {
			f.dfsStack = append(f.dfsStack, i)
		}
	}
	if len(f.dfsStack) == 0 {
		for i := range nodes {
			if !nodes[i].HasEdge() {
				f.dfsStack = append(f.dfsStack, i)
			}
		}
	}
	if len(f.dfsStack) == 0 {
		f.edges.clear()
		return nodes
	}
	for len(f.dfsStack) > 0 {
		node := f.dfsStack[len(f.dfsStack)-1]
		f.dfsStack = f.dfsStack[:len(f.dfsStack)-1]
		if f.visited.Test(uint(node)) {
			continue
		}
		f.visited.Set(uint(node))
		for _, from := range f.edges[node] {
			if !f.visited.Test(uint(from)) {
				f.dfsStack = append(f.dfsStack, from)
			}
		}
	}
	f.edges.clear()
	result := f.compact(nodes, f.visited)
	f.visited.ClearAll()
	checkGraph(result, "trimUnreachableReverse")
	return result
}

func (f *Factory) trim(nodes []Kmer) []Kmer {
	return f.trimUnreachableReverse(f.trimUnreachable(nodes))
}
