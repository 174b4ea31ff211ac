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
	"fmt"
	"strings"
)

// Model is a simplified, finalized graph in topological order. Models are
// immutable and may be shared between goroutines.
type Model struct {
	nodes     []Kmer
	k         int
	weight    float64
	broken    bool
	backEdges int
}

func newModel(nodes []Kmer, k int, weight float64, broken bool, backEdges int) *Model {
	return &Model{
		nodes:     nodes,
		k:         k,
		weight:    weight,
		broken:    broken,
		backEdges: backEdges,
	}
}

// NumNodes returns the number of nodes.
func (m *Model) NumNodes() int { return len(m.nodes) }

// K returns the k-mer length.
func (m *Model) K() int { return m.k }

// Weight returns the total weight of the sequences the model was built
// from.
func (m *Model) Weight() float64 { return m.weight }

// IsBroken reports whether the coverage was too low for a reliable model.
func (m *Model) IsBroken() bool { return m.broken }

// BackEdges returns the number of edges against the topological order,
// which close cycles.
func (m *Model) BackEdges() int { return m.backEdges }

// Nodes returns the nodes of the model. They must not be modified.
func (m *Model) Nodes() []Kmer { return m.nodes }

// NumEdges returns the number of edges.
func (m *Model) NumEdges() (n int) {
	for i := range m.nodes {
		n += m.nodes[i].EdgeNum()
	}
	return n
}

func (m *Model) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "K:%v\tNodes:%v\tEdges:%v\tWeight:%.3f", m.k, len(m.nodes), m.NumEdges(), m.weight)
	if m.broken {
		sb.WriteString("\tbroken")
	}
	for i := range m.nodes {
		fmt.Fprintf(&sb, "\n%v\t%v", i, &m.nodes[i])
	}
	return sb.String()
}
