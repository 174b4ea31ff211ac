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

const (
	unvisited = iota
	onStack
	finished
)

// topologicalOrder stores in f.tempIndex the position of every node in a
// topological order of the graph, by reversing a depth-first post-order.
// Edges that close a cycle cannot be ordered; their number is returned.
func (f *Factory) topologicalOrder(nodes []Kmer) (backEdges int) {
	flags := f.resetFlags(len(nodes))
	postOrder := f.order[:0]
	for root := range nodes {
		if flags[root] != unvisited {
			continue
		}
		f.dfsStack = append(f.dfsStack, root)
		for len(f.dfsStack) > 0 {
			node := f.dfsStack[len(f.dfsStack)-1]
			flags[node] = onStack
			descended := false
			for _, to := range nodes[node].Edges {
				if to != noEdge && flags[to] == unvisited {
					f.dfsStack = append(f.dfsStack, to)
					descended = true
					break
				}
			}
			if descended {
				continue
			}
			f.dfsStack = f.dfsStack[:len(f.dfsStack)-1]
			flags[node] = finished
			postOrder = append(postOrder, node)
		}
	}
	f.dfsFlag = flags[:0]
	position := f.resetIndex(len(nodes), 0)
	for i, node := range postOrder {
		position[node] = len(postOrder) - 1 - i
	}
	f.order = postOrder[:0]
	for from := range nodes {
		for _, to := range nodes[from].Edges {
			if to != noEdge && position[to] <= position[from] {
				backEdges++
			}
		}
	}
	return backEdges
}

// renameNodes puts the nodes in topological order.
func (f *Factory) renameNodes(nodes []Kmer) []Kmer {
	f.backEdges = f.topologicalOrder(nodes)
	result := f.permute(nodes)
	checkGraph(result, "renameNodes")
	return result
}

// sortNodes moves the heads to the front, keeping the relative order of
// heads and of the other nodes.
func (f *Factory) sortNodes(nodes []Kmer) []Kmer {
	position := f.resetIndex(len(nodes), 0)
	next := 0
	for i := range nodes {
		if nodes[i].IsHead {
			position[i] = next
			next++
		}
	}
	for i := range nodes {
		if !nodes[i].IsHead {
			position[i] = next
			next++
		}
	}
	result := f.permute(nodes)
	checkGraph(result, "sortNodes")
	return result
}
