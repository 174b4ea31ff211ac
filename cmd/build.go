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

	"github.com/exascience/dbghmm/dbghmm"
)

// BuildHelp is the help string for this command.
const BuildHelp = "\nbuild parameters:\n" +
	"dbghmm build reads-file [reads-file ...]\n" +
	"[--k n]\n" +
	"[--params yaml-file]\n" +
	"[--strategy fixed-offset | rank-statistic | median-mad]\n" +
	"[--output file]\n" +
	"[--dump]\n" +
	"[--nr-of-threads n]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Build implements the dbghmm build command. Every reads file is one
// unit, for which a model is built and summarized.
func Build() error {
	var (
		k                            int
		paramsFile, strategy, output string
		profile, logPath             string
		nrOfThreads                  int
		dump, timed                  bool
	)

	var flags flag.FlagSet

	flags.IntVar(&k, "k", 6, "k-mer length")
	flags.StringVar(&paramsFile, "params", "", "read pipeline parameters from a yaml file")
	flags.StringVar(&strategy, "strategy", "", "threshold strategy")
	flags.StringVar(&output, "output", "", "write the summary to the specified file instead of stdout")
	flags.BoolVar(&dump, "dump", false, "write all nodes and edges of every model")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file(s)")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	inputs := getFilenames(BuildHelp)
	parseFlags(&flags, 2+len(inputs), BuildHelp)

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

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, BuildHelp)
		os.Exit(1)
	}

	setNrOfThreads(nrOfThreads)

	var units []dbghmm.Unit
	if err := timedRun(timed, profile, "Reading sequences.", 1, func() (err error) {
		units, err = readUnits(inputs)
		return err
	}); err != nil {
		return err
	}

	var results []dbghmm.UnitResult
	_ = timedRun(timed, profile, "Building models.", 2, func() error {
		results = dbghmm.BuildUnits(units, k, params)
		return nil
	})

	out, err := createOutput(output)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	writeSummary(w, results, dump)
	if err := w.Flush(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func writeSummary(w io.Writer, results []dbghmm.UnitResult, dump bool) {
	fmt.Fprintln(w, "unit\tnodes\tedges\tweight\tback-edges\tstatus")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%v\t0\t0\t0\t0\tfailed: %v\n", r.Name, r.Err)
			continue
		}
		status := "ok"
		if r.Model.IsBroken() {
			status = "broken"
		}
		fmt.Fprintf(w, "%v\t%v\t%v\t%.3f\t%v\t%v\n",
			r.Name, r.Model.NumNodes(), r.Model.NumEdges(), r.Model.Weight(), r.Model.BackEdges(), status)
	}
	if !dump {
		return
	}
	for _, r := range results {
		if r.Err == nil {
			fmt.Fprintf(w, "\n# %v\n%v\n", r.Name, r.Model)
		}
	}
}
