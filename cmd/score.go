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
	"log"
	"math"
	"os"

	"github.com/exascience/dbghmm/dbghmm"
)

// ScoreHelp is the help string for this command.
const ScoreHelp = "\nscore parameters:\n" +
	"dbghmm score reads-file [reads-file ...] --query query-file\n" +
	"[--k n]\n" +
	"[--params yaml-file]\n" +
	"[--strategy fixed-offset | rank-statistic | median-mad]\n" +
	"[--scoring default | pacbio]\n" +
	"[--output file]\n" +
	"[--nr-of-threads n]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Score implements the dbghmm score command. It builds one model per
// reads file, and writes the log-likelihood of every query sequence
// under every model, together with the best scoring model.
func Score() error {
	var (
		k                                    int
		query, paramsFile, strategy, scoring string
		output, profile, logPath             string
		nrOfThreads                          int
		timed                                bool
	)

	var flags flag.FlagSet

	flags.StringVar(&query, "query", "", "sequences to score")
	flags.IntVar(&k, "k", 6, "k-mer length")
	flags.StringVar(&paramsFile, "params", "", "read pipeline parameters from a yaml file")
	flags.StringVar(&strategy, "strategy", "", "threshold strategy")
	flags.StringVar(&scoring, "scoring", "default", "scoring configuration")
	flags.StringVar(&output, "output", "", "write the scores to the specified file instead of stdout")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file(s)")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	inputs := getFilenames(ScoreHelp)
	parseFlags(&flags, 2+len(inputs), ScoreHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if len(inputs) == 0 {
		log.Println("Error: No reads files given.")
		sanityChecksFailed = true
	}
	for _, input := range inputs {
		if !checkExist("", input) {
			sanityChecksFailed = true
		}
	}
	if !checkExist("--query", query) {
		sanityChecksFailed = true
	}
	if output != "" && !checkCreate("--output", output) {
		sanityChecksFailed = true
	}
	if profile != "" && !checkCreate("--profile", profile) {
		sanityChecksFailed = true
	}
	if !checkK(k) || !checkNrOfThreads(nrOfThreads) {
		sanityChecksFailed = true
	}
	params, ok := loadParams(paramsFile, strategy)
	if !ok {
		sanityChecksFailed = true
	}
	config, ok := scoringConfig(scoring)
	if !ok {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, ScoreHelp)
		os.Exit(1)
	}

	setNrOfThreads(nrOfThreads)

	var (
		units   []dbghmm.Unit
		names   []string
		queries [][]byte
	)
	if err := timedRun(timed, profile, "Reading sequences.", 1, func() (err error) {
		if units, err = readUnits(inputs); err != nil {
			return err
		}
		names, queries, _, err = readSequences(query)
		return err
	}); err != nil {
		return err
	}

	var results []dbghmm.UnitResult
	_ = timedRun(timed, profile, "Building models.", 2, func() error {
		results = dbghmm.BuildUnits(units, k, params)
		return nil
	})
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("model %v: %w", r.Name, r.Err)
		}
		if r.Model.IsBroken() {
			log.Printf("Warning: Model %v is built from too few sequences.\n", r.Name)
		}
	}

	scores := make([][]float64, len(results))
	_ = timedRun(timed, profile, "Scoring queries.", 3, func() error {
		for i, r := range results {
			scores[i] = dbghmm.ForwardAll(r.Model, queries, config)
		}
		return nil
	})

	out, err := createOutput(output)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	fmt.Fprint(w, "query")
	for _, r := range results {
		fmt.Fprintf(w, "\t%v", r.Name)
	}
	fmt.Fprintln(w, "\tbest")
	for j, name := range names {
		fmt.Fprint(w, name)
		best, bestScore := "", math.Inf(-1)
		for i, r := range results {
			fmt.Fprintf(w, "\t%.4f", scores[i][j])
			if scores[i][j] > bestScore {
				best, bestScore = r.Name, scores[i][j]
			}
		}
		fmt.Fprintf(w, "\t%v\n", best)
	}
	if err := w.Flush(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
