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

// pickLargestComponent keeps the largest weakly connected component.
// Among components of equal size, the one holding the lowest-numbered
// node wins.
func (f *Factory) pickLargestComponent(nodes []Kmer) ([]Kmer, error) {
	if len(nodes) == 0 {
		return nil, ErrNoComponents
	}
	f.fu.refresh(len(nodes))
	for from := range nodes {
		for _, to := range nodes[from].Edges {
			if to != noEdge {
				f.fu.unite(from, to)
			}
		}
	}
	best, bestSize := -1, 0
	for i := range nodes {
		if size := f.fu.size(i); size > bestSize {
			best, bestSize = f.fu.find(i), size
		}
	}
	for i := range nodes {
		if f.fu.find(i) == best {
			f.visited.Set(uint(i))
		}
	}
	f.fu.clear()
	result := f.compact(nodes, f.visited)
	f.visited.ClearAll()
	checkGraph(result, "pickLargestComponent")
	return result, nil
}
