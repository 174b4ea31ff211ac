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

// Package gensample generates random templates and noisy reads of them.
package gensample

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is the random number generator used for sampling. Both
// *math/rand.Rand and the pedantic generator satisfy it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

var bases = [4]byte{'A', 'C', 'G', 'T'}

// Profile holds per-base error rates.
type Profile struct {
	Sub float64 `yaml:"sub"`
	Del float64 `yaml:"del"`
	Ins float64 `yaml:"ins"`
}

var (
	// DefaultProfile is a low error rate profile.
	DefaultProfile = Profile{Sub: 0.02, Del: 0.02, Ins: 0.02}
	// PacBioProfile is an indel-heavy profile.
	PacBioProfile = Profile{Sub: 0.03, Del: 0.05, Ins: 0.07}
)

// Sum returns the total error rate per base.
func (p Profile) Sum() float64 {
	return p.Sub + p.Del + p.Ins
}

// Scale returns the profile with all rates multiplied by x.
func (p Profile) Scale(x float64) Profile {
	return Profile{Sub: p.Sub * x, Del: p.Del * x, Ins: p.Ins * x}
}

// Validate reports rates that do not form a distribution over the error
// kinds of a single base.
func (p Profile) Validate() error {
	switch {
	case p.Sub < 0 || p.Del < 0 || p.Ins < 0:
		return fmt.Errorf("error rates must not be negative, got %+v", p)
	case p.Sum() > 1:
		return fmt.Errorf("error rates add up to %v, more than 1", p.Sum())
	}
	return nil
}

// ReadProfile reads an error profile from a yaml file. Rates missing from
// the file are 0.
func ReadProfile(filename string) (Profile, error) {
	var p Profile
	data, err := os.ReadFile(filename)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing error profile in %v: %w", filename, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("error profile in %v: %w", filename, err)
	}
	return p, nil
}

// GenerateSeq returns a uniformly random sequence of the given length.
func GenerateSeq(rng Source, length int) []byte {
	seq := make([]byte, length)
	for i := range seq {
		seq[i] = bases[rng.Intn(4)]
	}
	return seq
}

func substitute(base byte, rng Source) byte {
	for {
		if b := bases[rng.Intn(4)]; b != base {
			return b
		}
	}
}

// IntroduceErrors returns a copy of seq with exactly sub substitutions at
// distinct positions, followed by del deletions and ins insertions at
// random positions.
func IntroduceErrors(seq []byte, rng Source, sub, del, ins int) []byte {
	if sub > len(seq) {
		log.Panicf("cannot introduce %v substitutions in a sequence of length %v", sub, len(seq))
	}
	if del > len(seq) {
		log.Panicf("cannot introduce %v deletions in a sequence of length %v", del, len(seq))
	}
	result := append([]byte(nil), seq...)
	substituted := make(map[int]bool, sub)
	for len(substituted) < sub {
		pos := rng.Intn(len(result))
		if substituted[pos] {
			continue
		}
		substituted[pos] = true
		result[pos] = substitute(result[pos], rng)
	}
	for i := 0; i < del; i++ {
		pos := rng.Intn(len(result))
		result = append(result[:pos], result[pos+1:]...)
	}
	for i := 0; i < ins; i++ {
		pos := rng.Intn(len(result) + 1)
		result = append(result, 0)
		copy(result[pos+1:], result[pos:])
		result[pos] = bases[rng.Intn(4)]
	}
	return result
}

// IntroduceRandomness returns a read of seq where every base is
// independently substituted, deleted, or preceded by a random insertion
// according to profile.
func IntroduceRandomness(seq []byte, rng Source, profile *Profile) []byte {
	result := make([]byte, 0, len(seq)+len(seq)/10)
	for _, base := range seq {
		r := rng.Float64()
		switch {
		case r < profile.Sub:
			result = append(result, substitute(base, rng))
		case r < profile.Sub+profile.Del:
		case r < profile.Sum():
			result = append(result, bases[rng.Intn(4)], base)
		default:
			result = append(result, base)
		}
	}
	return result
}
