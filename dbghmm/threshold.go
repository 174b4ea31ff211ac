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
	"sort"

	"gonum.org/v1/gonum/stat"
)

// medianMAD returns the median of xs and the median absolute deviation
// from it. It reorders xs.
func medianMAD(xs []float64) (median, mad float64) {
	if len(xs) == 0 {
		return math.NaN(), math.NaN()
	}
	sort.Float64s(xs)
	median = stat.Quantile(0.5, stat.Empirical, xs, nil)
	for i, x := range xs {
		xs[i] = math.Abs(x - median)
	}
	sort.Float64s(xs)
	mad = stat.Quantile(0.5, stat.Empirical, xs, nil)
	return median, mad
}

// lowerBound derives a pruning bound from the weights collected in
// f.stats, and empties f.stats. The fixed strategy uses mean/divisor, the
// others median - m*MAD.
func (f *Factory) lowerBound(m, divisor float64) float64 {
	defer func() { f.stats = f.stats[:0] }()
	if len(f.stats) == 0 {
		return math.Inf(-1)
	}
	if f.params.Strategy == FixedOffset {
		return stat.Mean(f.stats, nil) / divisor
	}
	median, mad := medianMAD(f.stats)
	return median - m*mad
}

// nthLargest returns the n-th largest of the weights collected in f.stats,
// and empties f.stats.
func (f *Factory) nthLargest(n int) float64 {
	defer func() { f.stats = f.stats[:0] }()
	if len(f.stats) == 0 {
		return 0
	}
	if n < 1 {
		n = 1
	} else if n > len(f.stats) {
		n = len(f.stats)
	}
	sort.Float64s(f.stats)
	return f.stats[len(f.stats)-n]
}

// priorThreshold is the node admission threshold of the prior path.
func (f *Factory) priorThreshold(prior float64, maxLen, k int) float64 {
	switch f.params.Strategy {
	case RankStatistic:
		for _, e := range f.inner {
			f.stats = append(f.stats, e.weight)
		}
		return math.Max(f.nthLargest(maxLen+k), f.params.Thr*prior)
	case MedianMAD:
		for _, e := range f.inner {
			if e.weight > prior+priorEpsilon {
				f.stats = append(f.stats, e.weight)
			}
		}
		if len(f.stats) == 0 {
			return f.params.Thr * prior
		}
		median, mad := medianMAD(f.stats)
		f.stats = f.stats[:0]
		return math.Max(f.params.Thr*prior, median-f.params.AdmissionMAD*mad)
	default:
		var sum float64
		for _, e := range f.inner {
			sum += e.weight
		}
		return f.params.Thr * sum / float64(len(f.inner))
	}
}

// weightThreshold is the node admission threshold of the simple path.
func (f *Factory) weightThreshold(maxLen, k int) float64 {
	switch f.params.Strategy {
	case RankStatistic:
		for _, e := range f.inner {
			if e.weight > 0 {
				f.stats = append(f.stats, e.weight)
			}
		}
		return f.nthLargest(maxLen + k)
	case MedianMAD:
		for _, e := range f.inner {
			if e.weight > 0 {
				f.stats = append(f.stats, e.weight)
			}
		}
		if len(f.stats) == 0 {
			return 0
		}
		median, mad := medianMAD(f.stats)
		f.stats = f.stats[:0]
		return median - f.params.AdmissionMAD*mad
	default:
		var sum float64
		n := 0
		for _, e := range f.inner {
			if e.weight >= 1 {
				sum += e.weight
				n++
			}
		}
		if n == 0 {
			return 0
		}
		return sum/float64(n) - f.params.Thr
	}
}

// bridgeBound is the weight under which the lightest non-bridge edge of a
// node is removed. Edge weights must be collected in f.stats.
func (f *Factory) bridgeBound() float64 {
	if f.params.Strategy == FixedOffset {
		defer func() { f.stats = f.stats[:0] }()
		if len(f.stats) == 0 {
			return math.Inf(-1)
		}
		ave := stat.Mean(f.stats, nil)
		factor := 1/(1+math.Exp(-ave/30)) - 0.5
		return ave * (0.4 + 0.2*factor)
	}
	return f.lowerBound(f.params.BridgeMAD, 1)
}

// rejection is the probability that a node of the given excess weight
// over the threshold is not admitted.
func rejection(excess, scale float64) float64 {
	return 1 / (math.Exp(scale*excess) + 1)
}
