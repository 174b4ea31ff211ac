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
	"math"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/floats"

	"github.com/exascience/dbghmm/utils/kmer"
)

const noEdge = -1

// Kmer is a node of the graph.
//
// Edges is indexed by the code of the next base: the successor in slot i
// is the k-mer that extends this one by base i.
type Kmer struct {
	Kmer       []byte
	KmerWeight float64
	// Tot is the total weight of the outgoing edges.
	Tot       float64
	Edges     [4]int
	Weights   [4]float64
	IsHead    bool
	IsTail    bool
	BaseCount [4]float64
}

func newKmer(word []byte, weight float64) Kmer {
	w := make([]byte, len(word))
	copy(w, word)
	return Kmer{
		Kmer:       w,
		KmerWeight: weight,
		Edges:      [4]int{noEdge, noEdge, noEdge, noEdge},
	}
}

// Last returns the last base of the k-mer.
func (node *Kmer) Last() byte {
	return node.Kmer[len(node.Kmer)-1]
}

// EdgeNum returns the number of outgoing edges.
func (node *Kmer) EdgeNum() (n int) {
	for _, to := range node.Edges {
		if to != noEdge {
			n++
		}
	}
	return n
}

// HasEdge reports whether the node has an outgoing edge.
func (node *Kmer) HasEdge() bool {
	for _, to := range node.Edges {
		if to != noEdge {
			return true
		}
	}
	return false
}

func (node *Kmer) pushEdgeWithWeight(base byte, to int, w float64) {
	slot := kmer.Code(base)
	node.Edges[slot] = to
	node.Weights[slot] += w
	node.BaseCount[slot] += w
	node.Tot += w
}

func (node *Kmer) remove(slot int) {
	node.Tot -= node.Weights[slot]
	node.Edges[slot] = noEdge
	node.Weights[slot] = 0
}

func (node *Kmer) removeIfNotSupported(keep *bitset.BitSet) {
	for slot, to := range node.Edges {
		if to != noEdge && !keep.Test(uint(to)) {
			node.remove(slot)
		}
	}
}

func (node *Kmer) renameBy(index []int) {
	for slot, to := range node.Edges {
		if to != noEdge {
			node.Edges[slot] = index[to]
		}
	}
}

func normalize(xs []float64) {
	tot := floats.Sum(xs)
	if tot > 0 && math.Abs(tot-1) > 1e-12 {
		floats.Scale(1/tot, xs)
	}
}

// Finalize turns edge weights and base counts into distributions. Base
// counts with a total of at most 0.001 become uniform. Calling it again
// has no effect.
func (node *Kmer) Finalize() {
	if floats.Sum(node.BaseCount[:]) <= 0.001 {
		node.BaseCount = [4]float64{0.25, 0.25, 0.25, 0.25}
	} else {
		normalize(node.BaseCount[:])
	}
	normalize(node.Weights[:])
}

// FinalizeGlobal finalizes the node, then spreads the transition mass of
// the edges in which evenly over them.
func (node *Kmer) FinalizeGlobal(which [4]bool) {
	node.Finalize()
	var mass float64
	n := 0
	for slot, to := range node.Edges {
		if which[slot] && to != noEdge {
			mass += node.Weights[slot]
			n++
		}
	}
	if n < 2 {
		return
	}
	share := mass / float64(n)
	for slot, to := range node.Edges {
		if which[slot] && to != noEdge {
			node.Weights[slot] = share
		}
	}
}

// Prob returns the emission probability of base in the match state.
func (node *Kmer) Prob(base byte, config *Config) float64 {
	if kmer.Code(base) == kmer.Code(node.Last()) {
		return 1 - config.Mismatch
	}
	return config.Mismatch / 3
}

// Insertion returns the emission probability of base in the insertion
// state. Nodes with at most one successor mix in their observed next-base
// distribution.
func (node *Kmer) Insertion(base byte, config *Config) float64 {
	code := kmer.Code(base)
	q := config.BaseFreq[code]
	if node.EdgeNum() > 1 {
		return q
	}
	return lambda*node.BaseCount[code] + (1-lambda)*q
}

func (node *Kmer) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\t%.3f\t%.3f", node.Kmer, node.KmerWeight, node.Tot)
	if node.IsHead {
		sb.WriteString("\thead")
	}
	if node.IsTail {
		sb.WriteString("\ttail")
	}
	for slot, to := range node.Edges {
		if to != noEdge {
			fmt.Fprintf(&sb, "\t%c->%v(%.3f)", kmer.Base(uint64(slot)), to, node.Weights[slot])
		}
	}
	return sb.String()
}

func cloneNodes(nodes []Kmer) []Kmer {
	return append([]Kmer(nil), nodes...)
}
