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

// Config holds the emission and transition probabilities used for scoring.
type Config struct {
	// Mismatch is the probability that a match state emits another base
	// than the last base of its k-mer.
	Mismatch float64
	// BaseFreq is the background distribution of A, C, G and T.
	BaseFreq [4]float64

	PMatch     float64
	PIns       float64
	PDel       float64
	PExtendIns float64
	PExtendDel float64
	PDelToIns  float64
}

// Mixing weight of observed next-base counts in insertion emissions.
const lambda = 0.1

// DefaultConfig is tuned for low error rates.
var DefaultConfig = Config{
	Mismatch:   0.03,
	BaseFreq:   [4]float64{0.25, 0.25, 0.25, 0.25},
	PMatch:     0.89,
	PIns:       0.06,
	PDel:       0.05,
	PExtendIns: 0.06,
	PExtendDel: 0.10,
	PDelToIns:  0,
}

// PacBioConfig is tuned for the indel-heavy profile of PacBio reads.
var PacBioConfig = Config{
	Mismatch:   0.03,
	BaseFreq:   [4]float64{0.25, 0.25, 0.25, 0.25},
	PMatch:     0.86,
	PIns:       0.07,
	PDel:       0.07,
	PExtendIns: 0.12,
	PExtendDel: 0.10,
	PDelToIns:  0,
}
