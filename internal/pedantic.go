//go:build pedantic
// +build pedantic

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

package internal

import "log"

const (
	// PedanticMode is a Boolean flag for conditional compilation
	PedanticMode = true

	// PedanticMessage can be added to the overall program message
	PedanticMessage = "pedantic mode "
)

// Check panics with the formatted message when cond is false.
func Check(cond bool, format string, v ...interface{}) {
	if !cond {
		log.Panicf(format, v...)
	}
}

// Rand produces random numbers,
// mimicking the behavior of the Java standard library.
type Rand struct {
	seed int64
}

const (
	multiplier = 0x5DEECE66D
	addend     = 0xB
	bits       = 31
	mask       = (1 << 48) - 1
)

// NewRand returns a Java-style random number generator.
func NewRand(seed int64) *Rand {
	return &Rand{seed: (seed ^ multiplier) & mask}
}

func (r *Rand) next(n uint) int64 {
	r.seed = (r.seed*multiplier + addend) & mask
	return r.seed >> (48 - n)
}

// Int31 produces the next int32.
func (r *Rand) Int31() int32 {
	return int32(r.next(bits))
}

// Int31n produces the next int32 bounded by n.
func (r *Rand) Int31n(n int32) int32 {
	if n <= 0 {
		log.Panic("invalid argument to Int31n")
	}
	l := r.Int31()
	m := n - 1
	if (n & m) == 0 {
		l = int32((int64(n) * int64(l)) >> 31)
	} else {
		u := l
		for {
			l = u % n
			if u-l+m >= 0 {
				break
			}
			u = r.Int31()
		}
	}
	return l
}

// Intn produces the next int bounded by n.
func (r *Rand) Intn(n int) int {
	return int(r.Int31n(int32(n)))
}

// Float64 produces the next float64 in [0, 1), like Java's nextDouble.
func (r *Rand) Float64() float64 {
	return float64(r.next(26)<<27+r.next(27)) / (1 << 53)
}
