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

// Scratch graph structures for the traversals of the simplification
// pipeline.

// adjacency lists, reused between calls
type adjacency [][]int

func (g *adjacency) reset(size int) {
	if cap(*g) < size {
		*g = append((*g)[:cap(*g)], make([][]int, size-cap(*g))...)
	}
	*g = (*g)[:size]
	for i := range *g {
		(*g)[i] = (*g)[i][:0]
	}
}

func (g adjacency) addArc(from, value int) {
	g[from] = append(g[from], value)
}

func (g *adjacency) clear() {
	g.reset(0)
}

func (g adjacency) isEmpty() bool {
	return len(g) == 0
}

// findUnion tracks weakly connected components.
type findUnion struct {
	parents []int
	sizes   []int
}

func (fu *findUnion) refresh(size int) {
	fu.parents = fu.parents[:0]
	fu.sizes = fu.sizes[:0]
	for i := 0; i < size; i++ {
		fu.parents = append(fu.parents, i)
		fu.sizes = append(fu.sizes, 1)
	}
}

func (fu *findUnion) find(x int) int {
	root := x
	for root != fu.parents[root] {
		root = fu.parents[root]
	}
	for x != root {
		next := fu.parents[x]
		fu.parents[x] = root
		x = next
	}
	return root
}

func (fu *findUnion) unite(x, y int) {
	x, y = fu.find(x), fu.find(y)
	if x == y {
		return
	}
	if fu.sizes[x] < fu.sizes[y] {
		x, y = y, x
	}
	fu.parents[y] = x
	fu.sizes[x] += fu.sizes[y]
}

func (fu *findUnion) size(x int) int {
	return fu.sizes[fu.find(x)]
}

func (fu *findUnion) clear() {
	fu.parents = fu.parents[:0]
	fu.sizes = fu.sizes[:0]
}

func (fu *findUnion) isEmpty() bool {
	return len(fu.parents) == 0 && len(fu.sizes) == 0
}
