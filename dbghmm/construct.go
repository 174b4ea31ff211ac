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

	"gonum.org/v1/gonum/floats"

	"github.com/exascience/dbghmm/internal"
	"github.com/exascience/dbghmm/utils/kmer"
)

// Generate builds a model from unweighted sequences.
func (f *Factory) Generate(dataset [][]byte, k int) (*Model, error) {
	weights := make([]float64, len(dataset))
	for i := range weights {
		weights[i] = 1
	}
	return f.GenerateWithWeightPrior(dataset, weights, k)
}

// GenerateWithWeightPrior builds a model from weighted sequences. Every
// possible k-mer and (k+1)-mer starts out with a small prior weight
// proportional to the coverage, which is the sum of the weights. When the
// coverage is below Params.MinCoverage, the simple weighted path is used
// instead, and the model is flagged as broken.
func (f *Factory) GenerateWithWeightPrior(dataset [][]byte, weights []float64, k int) (*Model, error) {
	checkInput(dataset, weights, k)
	coverage := floats.Sum(weights)
	if coverage < f.params.MinCoverage {
		return f.GenerateWithWeight(dataset, weights, k)
	}
	f.checkEmpty("GenerateWithWeightPrior")
	defer f.Clear()

	prior := f.params.PriorFactor * coverage
	for i := 0; i < 1<<(2*uint(k)); i++ {
		f.inner = append(f.inner, entry{weight: prior, index: unassigned})
	}
	for i := 0; i < 1<<(2*uint(k+1)); i++ {
		f.edgeTable = append(f.edgeTable, prior)
	}

	mask, edgeMask := kmer.Mask(k), kmer.Mask(k+1)
	maxLen := 0
	for i, seq := range dataset {
		if len(seq) <= k {
			continue
		}
		if len(seq) > maxLen {
			maxLen = len(seq)
		}
		w := weights[i]
		node := kmer.Encode(seq[:k])
		edge := node
		f.inner[node].weight += 2 * w
		for _, b := range seq[k:] {
			node = kmer.Roll(node, b, mask)
			edge = kmer.Roll(edge, b, edgeMask)
			f.inner[node].weight += w
			f.edgeTable[edge] += w
		}
		f.inner[node].weight += w
	}

	thr := f.priorThreshold(prior, maxLen, k)
	scale := f.params.Scale * math.Log(coverage)
	rng := internal.NewRand(int64(math.Floor(coverage)) + int64(len(dataset)))

	nodes := make([]Kmer, 0, 2*maxLen)
	for e, w := range f.edgeTable {
		if w <= priorEpsilon {
			continue
		}
		f.word = kmer.DecodeTo(uint64(e), k+1, f.word)
		from, ok := f.admit(&nodes, f.word[:k], uint64(e)>>2, thr, scale, rng)
		if !ok {
			continue
		}
		to, ok := f.admit(&nodes, f.word[1:], uint64(e)&mask, thr, scale, rng)
		if !ok {
			continue
		}
		nodes[from].pushEdgeWithWeight(f.word[k], to, w)
	}
	f.markHeadsAndTails(nodes, dataset, weights, k, priorEpsilon)
	nodes = f.sortNodes(nodes)

	nodes, err := f.simplify(nodes, maxLen, k)
	if err != nil {
		return nil, fmt.Errorf("building %v-mer model from %v sequences: %w", k, len(dataset), err)
	}
	f.finalize(nodes, k)
	return newModel(nodes, k, coverage, false, f.backEdges), nil
}

// GenerateWithWeight builds a model from the k-mers of the sequences that
// carry a weight above 1e-4, without priors. A total weight below 1 yields
// an empty model.
func (f *Factory) GenerateWithWeight(dataset [][]byte, weights []float64, k int) (*Model, error) {
	checkInput(dataset, weights, k)
	f.checkEmpty("GenerateWithWeight")
	defer f.Clear()

	coverage := floats.Sum(weights)
	broken := coverage < f.params.MinCoverage
	if coverage < 1 {
		return newModel(nil, k, coverage, true, 0), nil
	}

	for i := 0; i < 1<<(2*uint(k)); i++ {
		f.inner = append(f.inner, entry{index: unassigned})
	}
	mask := kmer.Mask(k)
	maxLen := 0
	for i, seq := range dataset {
		w := weights[i]
		if w <= weightEpsilon || len(seq) < k {
			continue
		}
		if len(seq) > maxLen {
			maxLen = len(seq)
		}
		key := kmer.Encode(seq[:k])
		f.inner[key].weight += w
		for _, b := range seq[k:] {
			key = kmer.Roll(key, b, mask)
			f.inner[key].weight += w
		}
	}

	thr := f.weightThreshold(maxLen, k)
	scale := f.params.Scale * math.Log(coverage)
	rng := internal.NewRand(int64(len(dataset)))

	nodes := make([]Kmer, 0, 2*maxLen)
	for i, seq := range dataset {
		w := weights[i]
		if w <= weightEpsilon || len(seq) <= k {
			continue
		}
		fromKey := kmer.Encode(seq[:k])
		for j := k; j < len(seq); j++ {
			toKey := kmer.Roll(fromKey, seq[j], mask)
			from, ok := f.admit(&nodes, seq[j-k:j], fromKey, thr, scale, rng)
			if ok {
				var to int
				if to, ok = f.admit(&nodes, seq[j-k+1:j+1], toKey, thr, scale, rng); ok {
					nodes[from].pushEdgeWithWeight(seq[j], to, w)
				}
			}
			fromKey = toKey
		}
	}
	f.markHeadsAndTails(nodes, dataset, weights, k, weightEpsilon)
	nodes = f.sortNodes(nodes)

	nodes, err := f.simplify(nodes, maxLen, k)
	if err != nil {
		return nil, fmt.Errorf("building %v-mer model from %v sequences: %w", k, len(dataset), err)
	}
	f.finalize(nodes, k)
	return newModel(nodes, k, coverage, broken, f.backEdges), nil
}

// GenerateFromRef builds a model of reference sequences: every k-mer is
// admitted, nothing is pruned, and nodes are only put in topological
// order.
func (f *Factory) GenerateFromRef(dataset [][]byte, k int) (*Model, error) {
	checkInput(dataset, nil, k)
	f.checkEmpty("GenerateFromRef")
	defer f.Clear()

	for i := 0; i < 1<<(2*uint(k)); i++ {
		f.inner = append(f.inner, entry{index: unassigned})
	}
	mask := kmer.Mask(k)
	for _, seq := range dataset {
		if len(seq) < k {
			continue
		}
		key := kmer.Encode(seq[:k])
		f.inner[key].weight++
		for _, b := range seq[k:] {
			key = kmer.Roll(key, b, mask)
			f.inner[key].weight++
		}
	}
	nodes := make([]Kmer, 0, 256)
	for _, seq := range dataset {
		if len(seq) <= k {
			continue
		}
		fromKey := kmer.Encode(seq[:k])
		for j := k; j < len(seq); j++ {
			toKey := kmer.Roll(fromKey, seq[j], mask)
			from, _ := f.admit(&nodes, seq[j-k:j], fromKey, 0, 0, nil)
			to, _ := f.admit(&nodes, seq[j-k+1:j+1], toKey, 0, 0, nil)
			nodes[from].pushEdgeWithWeight(seq[j], to, 1)
			fromKey = toKey
		}
	}
	f.markHeadsAndTails(nodes, dataset, nil, k, 0)
	nodes = f.sortNodes(nodes)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("building %v-mer reference model from %v sequences: %w", k, len(dataset), ErrNoComponents)
	}
	nodes = f.renameNodes(nodes)
	f.finalize(nodes, k)
	return newModel(nodes, k, float64(len(dataset)), false, f.backEdges), nil
}

// admit returns the node index of the k-mer with the given key, creating
// the node on first use. K-mers lighter than thr are rejected at random,
// more likely the lighter they are.
func (f *Factory) admit(nodes *[]Kmer, word []byte, key uint64, thr, scale float64, rng *internal.Rand) (int, bool) {
	e := &f.inner[key]
	if e.weight < thr && rng.Float64() < rejection(e.weight-thr, scale) {
		return 0, false
	}
	if e.index != unassigned {
		return e.index, true
	}
	e.index = len(*nodes)
	*nodes = append(*nodes, newKmer(word, e.weight))
	return e.index, true
}

// markHeadsAndTails flags the first and last k-mers of all sequences that
// are longer than k and carry more than ep weight, if they became nodes.
func (f *Factory) markHeadsAndTails(nodes []Kmer, dataset [][]byte, weights []float64, k int, ep float64) {
	for i, seq := range dataset {
		if len(seq) <= k || (weights != nil && weights[i] <= ep) {
			continue
		}
		if index := f.inner[kmer.Encode(seq[:k])].index; index != unassigned {
			nodes[index].IsHead = true
		}
		if index := f.inner[kmer.Encode(seq[len(seq)-k:])].index; index != unassigned {
			nodes[index].IsTail = true
		}
	}
}
