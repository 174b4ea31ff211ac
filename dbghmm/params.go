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
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Strategy selects how thresholds are derived from weight distributions.
type Strategy int

const (
	// FixedOffset uses mean-based thresholds with fixed factors.
	FixedOffset Strategy = iota
	// RankStatistic admits nodes by the rank of their weight and prunes by
	// median absolute deviation.
	RankStatistic
	// MedianMAD derives every threshold as median - m * MAD.
	MedianMAD
)

var strategyNames = [...]string{"fixed-offset", "rank-statistic", "median-mad"}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// ParseStrategy parses the name of a strategy.
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if strings.EqualFold(n, name) {
			return Strategy(i), nil
		}
	}
	return FixedOffset, fmt.Errorf("unknown threshold strategy %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStrategy(string(text))
	return err
}

// Params holds the tunable constants of construction and simplification.
type Params struct {
	Strategy Strategy `yaml:"strategy"`

	// Thr is the admission factor of the prior path, the offset of the
	// simple path, and the divisor of mean-based pruning bounds.
	Thr         float64 `yaml:"thr"`
	PriorFactor float64 `yaml:"prior-factor"`
	Scale       float64 `yaml:"scale"`
	MinCoverage float64 `yaml:"min-coverage"`

	// MinViableNodes is the viability floor, unless FloorLengthFraction is
	// positive, in which case the floor is that fraction of the number of
	// k-mers in the longest input sequence.
	MinViableNodes      int     `yaml:"min-viable-nodes"`
	FloorLengthFraction float64 `yaml:"floor-length-fraction"`

	AdmissionMAD    float64 `yaml:"admission-mad"`
	BridgeMAD       float64 `yaml:"bridge-mad"`
	HeadTotMAD      float64 `yaml:"head-tot-mad"`
	TailKmerMAD     float64 `yaml:"tail-kmer-mad"`
	LightweightMAD  float64 `yaml:"lightweight-mad"`
	BoundaryMAD     float64 `yaml:"boundary-mad"`
	BoundaryDivisor float64 `yaml:"boundary-divisor"`

	LoopPathLength   int  `yaml:"loop-path-length"`
	MarginalizeEdges bool `yaml:"marginalize-edges"`
}

const (
	priorEpsilon  = 1e-9
	weightEpsilon = 1e-4
)

// DefaultParams returns the constants the pipeline was tuned with.
func DefaultParams() Params {
	return Params{
		Strategy:        FixedOffset,
		Thr:             2.0,
		PriorFactor:     0.1,
		Scale:           3.0,
		MinCoverage:     2.0,
		MinViableNodes:  130,
		AdmissionMAD:    3.0,
		BridgeMAD:       4.5,
		HeadTotMAD:      3.0,
		TailKmerMAD:     6.0,
		LightweightMAD:  7.5,
		BoundaryMAD:     6.0,
		BoundaryDivisor: 2.5,
		LoopPathLength:  2,
	}
}

// ReadParams reads parameters from a yaml file. Fields missing from the
// file keep their default values.
func ReadParams(filename string) (Params, error) {
	params := DefaultParams()
	data, err := os.ReadFile(filename)
	if err != nil {
		return params, err
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("parsing parameters in %v: %w", filename, err)
	}
	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("parameters in %v: %w", filename, err)
	}
	return params, nil
}

// Validate reports parameters the pipeline cannot work with.
func (p *Params) Validate() error {
	switch {
	case p.Strategy < FixedOffset || p.Strategy > MedianMAD:
		return fmt.Errorf("invalid strategy %v", p.Strategy)
	case p.Thr <= 0:
		return fmt.Errorf("thr must be positive, got %v", p.Thr)
	case p.BoundaryDivisor <= 0:
		return fmt.Errorf("boundary-divisor must be positive, got %v", p.BoundaryDivisor)
	case p.PriorFactor < 0:
		return fmt.Errorf("prior-factor must not be negative, got %v", p.PriorFactor)
	case p.MinViableNodes < 0:
		return fmt.Errorf("min-viable-nodes must not be negative, got %v", p.MinViableNodes)
	case p.FloorLengthFraction < 0 || p.FloorLengthFraction > 1:
		return fmt.Errorf("floor-length-fraction must be in [0,1], got %v", p.FloorLengthFraction)
	}
	return nil
}

func (p *Params) viabilityFloor(maxLen, k int) int {
	if p.FloorLengthFraction > 0 {
		return int(p.FloorLengthFraction * float64(maxLen-k+1))
	}
	return p.MinViableNodes
}
