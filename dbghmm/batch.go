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
	"errors"
	"fmt"
	"log"

	"github.com/exascience/pargo/parallel"
	"github.com/google/uuid"
)

// ErrUnitPanicked wraps the panic value of a failed unit build.
var ErrUnitPanicked = errors.New("unit build panicked")

// A Unit is a named set of weighted sequences to build one model from.
// Nil weights count every sequence once.
type Unit struct {
	Name      string
	Sequences [][]byte
	Weights   []float64
}

// UnitResult holds either the model of a unit or the reason it failed.
type UnitResult struct {
	Name  string
	Model *Model
	Err   error
}

// BuildUnits builds one model per unit in parallel. Every worker owns a
// Factory that it reuses for consecutive units. A failing unit does not
// affect the others.
func BuildUnits(units []Unit, k int, params Params) []UnitResult {
	results := make([]UnitResult, len(units))
	if len(units) == 0 {
		return results
	}
	run := uuid.New()
	parallel.Range(0, len(units), 0, func(low, high int) {
		f := NewFactory(params)
		for i := low; i < high; i++ {
			results[i] = f.buildUnit(&units[i], k)
			if err := results[i].Err; err != nil {
				log.Printf("run %v: unit %v failed: %v", run, units[i].Name, err)
			}
		}
	})
	return results
}

func (f *Factory) buildUnit(unit *Unit, k int) (result UnitResult) {
	result.Name = unit.Name
	defer func() {
		if r := recover(); r != nil {
			f.Clear()
			result.Model = nil
			result.Err = fmt.Errorf("%w: %v", ErrUnitPanicked, r)
		}
	}()
	weights := unit.Weights
	if weights == nil {
		weights = make([]float64, len(unit.Sequences))
		for i := range weights {
			weights[i] = 1
		}
	}
	result.Model, result.Err = f.GenerateWithWeightPrior(unit.Sequences, weights, k)
	return result
}
