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
	"sync"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/dbghmm/utils/kmer"
)

type float64Matrix struct {
	cols  int
	array []float64
}

func (m *float64Matrix) ensureSize(rows, cols int) {
	m.cols = cols
	totalSize := rows * cols
	if totalSize <= cap(m.array) {
		m.array = m.array[:totalSize]
		for i := range m.array {
			m.array[i] = 0
		}
	} else {
		m.array = make([]float64, totalSize)
	}
}

func (m *float64Matrix) rowView(row int) []float64 {
	offset := row * m.cols
	return m.array[offset : offset+m.cols]
}

// Two rows per state: the current position and the next one.
type forwardMatrices struct {
	match, insertion, deletion float64Matrix
}

var forwardMatricesPool = sync.Pool{New: func() interface{} { return new(forwardMatrices) }}

func getForwardMatrices() *forwardMatrices {
	return forwardMatricesPool.Get().(*forwardMatrices)
}

func putForwardMatrices(p *forwardMatrices) {
	forwardMatricesPool.Put(p)
}

func (p *forwardMatrices) ensureSize(nodes int) {
	p.match.ensureSize(2, nodes)
	p.insertion.ensureSize(2, nodes)
	p.deletion.ensureSize(2, nodes)
}

func clear64(xs []float64) {
	for i := range xs {
		xs[i] = 0
	}
}

// propagateDeletions moves mass into the silent deletion states, along
// edges that go forward in the topological order. Edges that close a
// cycle are skipped.
func (m *Model) propagateDeletions(match, del []float64, config *Config) {
	for v := range m.nodes {
		out := match[v]*config.PDel + del[v]*config.PExtendDel
		if out == 0 {
			continue
		}
		node := &m.nodes[v]
		for slot, to := range node.Edges {
			if to > v {
				del[to] += node.Weights[slot] * out
			}
		}
	}
}

// rescale divides the row by its total and returns the log of the total.
func rescale(match, ins, del []float64) float64 {
	var sum float64
	for i := range match {
		sum += match[i] + ins[i] + del[i]
	}
	if sum <= 0 {
		return math.Inf(-1)
	}
	inv := 1 / sum
	for i := range match {
		match[i] *= inv
		ins[i] *= inv
		del[i] *= inv
	}
	return math.Log(sum)
}

// backgroundLikelihood is the log-likelihood of query under the base
// frequencies alone.
func backgroundLikelihood(query []byte, config *Config) (lk float64) {
	for _, b := range query {
		lk += math.Log(config.BaseFreq[kmer.Code(b)])
	}
	return lk
}

// Forward returns the natural log-likelihood of query under the model,
// using the forward algorithm over match, insertion and deletion states
// per node. An empty model scores the background likelihood.
func (m *Model) Forward(query []byte, config *Config) float64 {
	if len(query) == 0 {
		return 0
	}
	n := len(m.nodes)
	if n == 0 {
		return backgroundLikelihood(query, config)
	}
	p := getForwardMatrices()
	defer putForwardMatrices(p)
	p.ensureSize(n)

	cur, next := 0, 1
	match, ins, del := p.match.rowView(cur), p.insertion.rowView(cur), p.deletion.rowView(cur)
	start := 1 / float64(n)
	for v := range m.nodes {
		match[v] = start * m.nodes[v].Prob(query[0], config)
	}
	m.propagateDeletions(match, del, config)
	lk := rescale(match, ins, del)

	stayMatch := config.PMatch
	leaveDel := 1 - config.PExtendDel - config.PDelToIns
	leaveIns := 1 - config.PExtendIns
	for _, x := range query[1:] {
		if math.IsInf(lk, -1) {
			return lk
		}
		nextMatch, nextIns, nextDel := p.match.rowView(next), p.insertion.rowView(next), p.deletion.rowView(next)
		clear64(nextMatch)
		clear64(nextDel)
		for v := range m.nodes {
			node := &m.nodes[v]
			from := match[v]*stayMatch + del[v]*leaveDel + ins[v]*leaveIns
			if from != 0 {
				for slot, to := range node.Edges {
					if to != noEdge {
						nextMatch[to] += node.Weights[slot] * from
					}
				}
			}
			nextIns[v] = node.Insertion(x, config) *
				(match[v]*config.PIns + ins[v]*config.PExtendIns + del[v]*config.PDelToIns)
		}
		for w := range nextMatch {
			nextMatch[w] *= m.nodes[w].Prob(x, config)
		}
		m.propagateDeletions(nextMatch, nextDel, config)
		lk += rescale(nextMatch, nextIns, nextDel)
		cur, next = next, cur
		match, ins, del = nextMatch, nextIns, nextDel
	}
	return lk
}

// ForwardAll scores every query against the model in parallel.
func ForwardAll(m *Model, queries [][]byte, config *Config) []float64 {
	result := make([]float64, len(queries))
	if len(queries) == 0 {
		return result
	}
	parallel.Range(0, len(queries), 0, func(low, high int) {
		for i := low; i < high; i++ {
			result[i] = m.Forward(queries[i], config)
		}
	})
	return result
}
