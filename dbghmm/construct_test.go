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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exascience/dbghmm/gensample"
	"github.com/exascience/dbghmm/internal"
	"github.com/exascience/dbghmm/utils/kmer"
)

var lowNoise = gensample.Profile{Sub: 0.005, Del: 0.005, Ins: 0.005}

func noisyReads(rng gensample.Source, template []byte, n int, profile *gensample.Profile) [][]byte {
	reads := make([][]byte, n)
	for i := range reads {
		reads[i] = gensample.IntroduceRandomness(template, rng, profile)
	}
	return reads
}

// requireDeBruijn checks that edges connect overlapping k-mers, and that
// the slot of every edge is the last base of its target.
func requireDeBruijn(t *testing.T, m *Model) {
	t.Helper()
	nodes := m.Nodes()
	requireValidGraph(t, nodes)
	for i := range nodes {
		require.Len(t, nodes[i].Kmer, m.K())
		for slot, to := range nodes[i].Edges {
			if to == noEdge {
				continue
			}
			require.Equal(t, kmer.Base(uint64(slot)), nodes[to].Last())
			require.True(t, bytes.Equal(nodes[i].Kmer[1:], nodes[to].Kmer[:m.K()-1]))
		}
	}
}

func TestGenerate(t *testing.T) {
	rng := internal.NewRand(1)
	template := gensample.GenerateSeq(rng, 150)
	reads := noisyReads(rng, template, 20, &lowNoise)
	f := NewFactory(DefaultParams())
	m, err := f.Generate(reads, 6)
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
	assert.False(t, m.IsBroken())
	assert.Equal(t, 6, m.K())
	assert.Equal(t, 20.0, m.Weight())
	assert.Greater(t, m.NumNodes(), 100)
	assert.LessOrEqual(t, m.NumNodes(), 200)
	requireDeBruijn(t, m)

	for i := range m.Nodes() {
		node := m.Nodes()[i]
		if node.HasEdge() {
			assert.InDelta(t, 1, node.Weights[0]+node.Weights[1]+node.Weights[2]+node.Weights[3], 1e-9)
		}
		once := node
		node.Finalize()
		assert.Equal(t, once, node)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	rng := internal.NewRand(2)
	template := gensample.GenerateSeq(rng, 120)
	reads := noisyReads(rng, template, 15, &gensample.DefaultProfile)
	f := NewFactory(DefaultParams())
	m1, err := f.Generate(reads, 5)
	require.NoError(t, err)
	m2, err := f.Generate(reads, 5)
	require.NoError(t, err)
	assert.Equal(t, m1.String(), m2.String())
}

func TestGenerateStrategies(t *testing.T) {
	rng := internal.NewRand(3)
	template := gensample.GenerateSeq(rng, 200)
	reads := noisyReads(rng, template, 25, &lowNoise)
	for _, s := range []Strategy{FixedOffset, RankStatistic, MedianMAD} {
		params := DefaultParams()
		params.Strategy = s
		params.MinViableNodes = 0
		f := NewFactory(params)
		m, err := f.Generate(reads, 6)
		require.NoError(t, err, s.String())
		assert.Greater(t, m.NumNodes(), 0, s.String())
		requireDeBruijn(t, m)
		assert.True(t, f.IsEmpty(), s.String())
	}
}

func TestGenerateMarginalized(t *testing.T) {
	rng := internal.NewRand(4)
	template := gensample.GenerateSeq(rng, 150)
	reads := noisyReads(rng, template, 20, &lowNoise)
	params := DefaultParams()
	params.MarginalizeEdges = true
	f := NewFactory(params)
	m, err := f.Generate(reads, 6)
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
	for _, node := range m.Nodes() {
		if node.HasEdge() {
			assert.InDelta(t, 1, node.Weights[0]+node.Weights[1]+node.Weights[2]+node.Weights[3], 1e-9)
		}
	}
}

func TestDegenerateCoverage(t *testing.T) {
	rng := internal.NewRand(5)
	seq := gensample.GenerateSeq(rng, 60)
	f := NewFactory(DefaultParams())

	m, err := f.GenerateWithWeightPrior([][]byte{seq}, []float64{1}, 6)
	require.NoError(t, err)
	assert.True(t, m.IsBroken())
	assert.Greater(t, m.NumNodes(), 0)
	assert.True(t, f.IsEmpty())
	requireDeBruijn(t, m)

	m, err = f.GenerateWithWeightPrior([][]byte{seq}, []float64{0.5}, 6)
	require.NoError(t, err)
	assert.True(t, m.IsBroken())
	assert.Equal(t, 0, m.NumNodes())
	assert.True(t, f.IsEmpty())
}

func TestGenerateShortSequences(t *testing.T) {
	f := NewFactory(DefaultParams())
	_, err := f.GenerateWithWeight([][]byte{[]byte("ACG"), []byte("TTA")}, []float64{1, 1}, 4)
	assert.ErrorIs(t, err, ErrNoComponents)
	assert.True(t, f.IsEmpty())
}

func TestGeneratePreconditions(t *testing.T) {
	f := NewFactory(DefaultParams())
	reads := [][]byte{[]byte("ACGTACGT")}
	assert.Panics(t, func() { _, _ = f.Generate(reads, 0) })
	assert.Panics(t, func() { _, _ = f.Generate(reads, 33) })
	assert.Panics(t, func() { _, _ = f.Generate(reads, 31) })
	assert.Panics(t, func() { _, _ = f.GenerateWithWeight(reads, []float64{3}, 32) })
	assert.Panics(t, func() { _, _ = f.GenerateFromRef(reads, 31) })
	assert.Panics(t, func() { _, _ = f.GenerateWithWeightPrior(reads, []float64{1, 2}, 4) })
	assert.Panics(t, func() { _, _ = f.GenerateWithWeightPrior(reads, []float64{-1}, 4) })
}

func TestGenerateFromRef(t *testing.T) {
	f := NewFactory(DefaultParams())
	m, err := f.GenerateFromRef([][]byte{[]byte("ACGGTCAT")}, 3)
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
	assert.Equal(t, 6, m.NumNodes())
	assert.Equal(t, 5, m.NumEdges())
	assert.Equal(t, 0, m.BackEdges())
	assert.Equal(t, "ACG", string(m.Nodes()[0].Kmer))
	assert.True(t, m.Nodes()[0].IsHead)
	assert.True(t, m.Nodes()[5].IsTail)
	requireDeBruijn(t, m)
	for from, node := range m.Nodes() {
		for _, to := range node.Edges {
			if to != noEdge {
				assert.Equal(t, from+1, to)
			}
		}
	}

	_, err = f.GenerateFromRef([][]byte{[]byte("AC")}, 3)
	assert.ErrorIs(t, err, ErrNoComponents)
	assert.True(t, f.IsEmpty())
}

func TestGenerateOrdersCycleFromHead(t *testing.T) {
	// TTC TCG CGA GAC ACG CGA GAC: the cycle CGA GAC ACG is entered at CGA
	read := []byte("TTCGACGAC")
	reads := [][]byte{read, read, read, read}
	f := NewFactory(DefaultParams())
	m, err := f.GenerateWithWeightPrior(reads, []float64{10, 10, 10, 10}, 3)
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
	requireDeBruijn(t, m)
	assert.Equal(t, []string{"TTC", "TCG", "CGA", "GAC", "ACG"}, words(m.Nodes()))
	assert.True(t, m.Nodes()[0].IsHead)
	assert.Equal(t, 1, m.BackEdges())
	assert.Equal(t, 2, m.Nodes()[4].Edges[kmer.Code('A')], "ACG closes the cycle")
}

func TestGenerateFallsBackOnOverPruning(t *testing.T) {
	// the second template differs at position 10, which makes a light
	// bubble of six 6-mers that bridge pruning removes
	template := []byte("GGATCACAGTCTACACTGCT")
	variant := []byte("GGATCACAGTGTACACTGCT")
	reads := [][]byte{template, template, template, template, variant}

	params := DefaultParams()
	params.Scale = 40
	params.MinViableNodes = 18
	f := NewFactory(params)
	m, err := f.Generate(reads, 6)
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
	requireDeBruijn(t, m)
	var expected []string
	for i := 0; i+6 <= len(template); i++ {
		expected = append(expected, string(template[i:i+6]))
	}
	for i := 5; i <= 10; i++ {
		expected = append(expected, string(variant[i:i+6]))
	}
	assert.ElementsMatch(t, expected, words(m.Nodes()), "the bubble survives in the snapshot")
	assert.Equal(t, 21, m.NumEdges())
	assert.Equal(t, 0, m.BackEdges())
	assert.False(t, m.IsBroken())

	params.MinViableNodes = 15
	f = NewFactory(params)
	m, err = f.Generate(reads, 6)
	require.NoError(t, err)
	assert.Equal(t, expected[:15], words(m.Nodes()), "without the floor the bubble is pruned")
	assert.Equal(t, 14, m.NumEdges())
}

func TestGenerateFromRefIgnoresReadsOfLengthK(t *testing.T) {
	f := NewFactory(DefaultParams())
	m, err := f.GenerateFromRef([][]byte{[]byte("ACGGTCAT"), []byte("GGT")}, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, m.NumNodes())
	heads, tails := 0, 0
	for _, node := range m.Nodes() {
		if node.IsHead {
			heads++
		}
		if node.IsTail {
			tails++
		}
	}
	assert.Equal(t, 1, heads)
	assert.Equal(t, 1, tails)
	assert.Equal(t, "ACG", string(m.Nodes()[0].Kmer))
}
