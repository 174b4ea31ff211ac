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

package cmd

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/dbghmm/dbghmm"
	"github.com/exascience/dbghmm/gensample"
	"github.com/exascience/dbghmm/internal"
)

// BenchHelp is the help string for this command.
const BenchHelp = "\nbench parameters:\n" +
	"dbghmm bench\n" +
	"[--k n]\n" +
	"[--len n]\n" +
	"[--reads n]\n" +
	"[--tests n]\n" +
	"[--trials n]\n" +
	"[--sub n] [--del n] [--ins n]\n" +
	"[--errors default | pacbio | yaml-file]\n" +
	"[--error-scale x]\n" +
	"[--scoring default | pacbio]\n" +
	"[--seed n]\n" +
	"[--params yaml-file]\n" +
	"[--strategy fixed-offset | rank-statistic | median-mad]\n" +
	"[--output file]\n" +
	"[--nr-of-threads n]\n" +
	"[--timed]\n" +
	"[--log-path path]\n"

type benchSetup struct {
	k, length, reads, tests int
	sub, del, ins           int
	errors                  gensample.Profile
	scoring                 *dbghmm.Config
}

// Bench implements the dbghmm bench command. Every trial generates two
// templates at the given edit distance, builds a model for each from
// noisy reads, and classifies fresh noisy reads by their likelihoods.
func Bench() error {
	var (
		setup                                 benchSetup
		trials                                int
		errorScale                            float64
		seed                                  int64
		errors, scoring, paramsFile, strategy string
		output, logPath                       string
		nrOfThreads                           int
		timed                                 bool
	)

	var flags flag.FlagSet

	flags.IntVar(&setup.k, "k", 6, "k-mer length")
	flags.IntVar(&setup.length, "len", 100, "template length")
	flags.IntVar(&setup.reads, "reads", 30, "number of reads per template")
	flags.IntVar(&setup.tests, "tests", 100, "number of reads to classify per trial")
	flags.IntVar(&trials, "trials", 10, "number of trials")
	flags.IntVar(&setup.sub, "sub", 1, "substitutions between the templates")
	flags.IntVar(&setup.del, "del", 0, "deletions between the templates")
	flags.IntVar(&setup.ins, "ins", 0, "insertions between the templates")
	flags.StringVar(&errors, "errors", "default", "error profile of the reads, or a yaml file with sub, del and ins rates")
	flags.Float64Var(&errorScale, "error-scale", 1, "multiply all error rates of the profile")
	flags.StringVar(&scoring, "scoring", "default", "scoring configuration")
	flags.Int64Var(&seed, "seed", 12218993, "random seed")
	flags.StringVar(&paramsFile, "params", "", "read pipeline parameters from a yaml file")
	flags.StringVar(&strategy, "strategy", "", "threshold strategy")
	flags.StringVar(&output, "output", "", "write the results to the specified file instead of stdout")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(&flags, 2, BenchHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkK(setup.k) || !checkNrOfThreads(nrOfThreads) {
		sanityChecksFailed = true
	}
	if setup.length <= setup.k || setup.reads < 1 || setup.tests < 1 || trials < 1 {
		log.Println("Error: len must exceed k, and reads, tests and trials must be positive.")
		sanityChecksFailed = true
	}
	if setup.sub < 0 || setup.del < 0 || setup.ins < 0 || setup.sub+setup.del > setup.length {
		log.Println("Error: Invalid edit distance between the templates.")
		sanityChecksFailed = true
	}
	switch strings.ToLower(errors) {
	case "default":
		setup.errors = gensample.DefaultProfile
	case "pacbio":
		setup.errors = gensample.PacBioProfile
	default:
		if !checkExist("--errors", errors) {
			sanityChecksFailed = true
		} else if profile, err := gensample.ReadProfile(errors); err != nil {
			log.Printf("Error: %v.\n", err)
			sanityChecksFailed = true
		} else {
			setup.errors = profile
		}
	}
	if errorScale < 0 {
		log.Println("Error: --error-scale must not be negative.")
		sanityChecksFailed = true
	} else if setup.errors = setup.errors.Scale(errorScale); setup.errors.Validate() != nil {
		log.Printf("Error: Scaled error rates %+v add up to more than 1.\n", setup.errors)
		sanityChecksFailed = true
	}
	var ok bool
	if setup.scoring, ok = scoringConfig(scoring); !ok {
		sanityChecksFailed = true
	}
	params, ok := loadParams(paramsFile, strategy)
	if !ok {
		sanityChecksFailed = true
	}
	if output != "" && !checkCreate("--output", output) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, BenchHelp)
		os.Exit(1)
	}

	setNrOfThreads(nrOfThreads)

	correct := make([]int, trials)
	var total int
	_ = timedRun(timed, "", "Running trials.", 1, func() error {
		total = parallel.RangeReduceInt(0, trials, 0, func(low, high int) (sum int) {
			f := dbghmm.NewFactory(params)
			for i := low; i < high; i++ {
				correct[i] = setup.trial(f, internal.NewRand(seed+int64(i)))
				sum += correct[i]
			}
			return sum
		}, func(x, y int) int { return x + y })
		return nil
	})

	out, err := createOutput(output)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	setup.writeResults(w, correct, total)
	if err := w.Flush(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// trial returns the number of correctly classified test reads.
func (setup *benchSetup) trial(f *dbghmm.Factory, rng *internal.Rand) int {
	template1 := gensample.GenerateSeq(rng, setup.length)
	template2 := gensample.IntroduceErrors(template1, rng, setup.sub, setup.del, setup.ins)
	dataset := make([][]byte, 0, 2*setup.reads)
	for i := 0; i < setup.reads; i++ {
		dataset = append(dataset, gensample.IntroduceRandomness(template1, rng, &setup.errors))
	}
	for i := 0; i < setup.reads; i++ {
		dataset = append(dataset, gensample.IntroduceRandomness(template2, rng, &setup.errors))
	}
	w1 := make([]float64, len(dataset))
	w2 := make([]float64, len(dataset))
	for i := range dataset {
		if i < setup.reads {
			w1[i] = 1
		} else {
			w2[i] = 1
		}
	}
	model1, err := f.GenerateWithWeightPrior(dataset, w1, setup.k)
	if err != nil {
		log.Printf("Warning: %v.\n", err)
		return 0
	}
	model2, err := f.GenerateWithWeightPrior(dataset, w2, setup.k)
	if err != nil {
		log.Printf("Warning: %v.\n", err)
		return 0
	}
	correct := 0
	for i := 0; i < setup.tests; i++ {
		if rng.Intn(2) == 0 {
			query := gensample.IntroduceRandomness(template1, rng, &setup.errors)
			if model1.Forward(query, setup.scoring) > model2.Forward(query, setup.scoring) {
				correct++
			}
		} else {
			query := gensample.IntroduceRandomness(template2, rng, &setup.errors)
			if model2.Forward(query, setup.scoring) > model1.Forward(query, setup.scoring) {
				correct++
			}
		}
	}
	return correct
}

func (setup *benchSetup) writeResults(w io.Writer, correct []int, total int) {
	fmt.Fprintln(w, "trial\tlength\tdist\taccuracy")
	dist := setup.sub + setup.del + setup.ins
	for i, c := range correct {
		fmt.Fprintf(w, "%v\t%v\t%v\t%.3f\n", i, setup.length, dist, float64(c)/float64(setup.tests))
	}
	fmt.Fprintf(w, "total\t%v\t%v\t%.3f\n", setup.length, dist, float64(total)/float64(setup.tests*len(correct)))
}
