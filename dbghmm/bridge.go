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

// Bridges are edges whose removal disconnects the undirected view of the
// graph. Pruning them would split a model in two, so bridge pruning only
// ever removes non-bridge edges.

// findBridges marks, per node and edge slot, which outgoing edges are
// bridges. Edges are identified by from*4+slot, so that parallel edges
// in the undirected multigraph are told apart. The result shares storage
// with the next call.
func (f *Factory) findBridges(nodes []Kmer) [][4]bool {
	n := len(nodes)
	f.edges.reset(n)
	for from := range nodes {
		for slot, to := range nodes[from].Edges {
			if to == noEdge || to == from {
				continue
			}
			id := from*4 + slot
			f.edges.addArc(from, id)
			f.edges.addArc(to, id)
		}
	}
	order := f.order[:0]
	lowlink := f.lowlink[:0]
	for i := 0; i < n; i++ {
		order = append(order, -1)
		lowlink = append(lowlink, -1)
	}
	isBridge := f.bridges[:0]
	for i := 0; i < n; i++ {
		isBridge = append(isBridge, [4]bool{})
	}
	counter := 0
	for root := 0; root < n; root++ {
		if order[root] != -1 {
			continue
		}
		order[root], lowlink[root] = counter, counter
		counter++
		f.frames = append(f.frames, dfsFrame{node: root, parentEdge: -1})
		for len(f.frames) > 0 {
			top := &f.frames[len(f.frames)-1]
			if arcs := f.edges[top.node]; top.next < len(arcs) {
				id := arcs[top.next]
				top.next++
				if id == top.parentEdge {
					continue
				}
				node := top.node
				neighbor := id / 4
				if neighbor == node {
					neighbor = nodes[node].Edges[id%4]
				}
				if order[neighbor] == -1 {
					order[neighbor], lowlink[neighbor] = counter, counter
					counter++
					f.frames = append(f.frames, dfsFrame{node: neighbor, parentEdge: id})
				} else if order[neighbor] < lowlink[node] {
					lowlink[node] = order[neighbor]
				}
				continue
			}
			done := *top
			f.frames = f.frames[:len(f.frames)-1]
			if done.parentEdge == -1 {
				continue
			}
			parent := f.frames[len(f.frames)-1].node
			if lowlink[done.node] < lowlink[parent] {
				lowlink[parent] = lowlink[done.node]
			}
			if lowlink[done.node] > order[parent] {
				isBridge[done.parentEdge/4][done.parentEdge%4] = true
			}
		}
	}
	f.order = order[:0]
	f.lowlink = lowlink[:0]
	f.bridges = isBridge[:0]
	f.edges.clear()
	return isBridge
}

// bridgePruning removes, at every node with more than one non-bridge
// outgoing edge, the lightest of those if it is below the bridge bound.
func (f *Factory) bridgePruning(nodes []Kmer) []Kmer {
	isBridge := f.findBridges(nodes)
	for i := range nodes {
		for slot, to := range nodes[i].Edges {
			if to != noEdge {
				f.stats = append(f.stats, nodes[i].Weights[slot])
			}
		}
	}
	bound := f.bridgeBound()
	for i := range nodes {
		node := &nodes[i]
		lightest, candidates := -1, 0
		for slot, to := range node.Edges {
			if to == noEdge || isBridge[i][slot] {
				continue
			}
			candidates++
			if lightest == -1 || node.Weights[slot] < node.Weights[lightest] {
				lightest = slot
			}
		}
		if candidates > 1 && node.Weights[lightest] < bound {
			node.remove(lightest)
		}
	}
	checkGraph(nodes, "bridgePruning")
	return nodes
}
