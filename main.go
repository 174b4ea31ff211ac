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

// dbghmm builds hidden Markov models over weighted de Bruijn graphs of
// noisy long reads, and scores sequences against them.
//
// Please see https://github.com/exascience/dbghmm for a documentation
// of the tool, and the dbghmm package for the API documentation.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/dbghmm/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: build, score, bench")
	fmt.Fprint(os.Stderr, "\n", cmd.BuildHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.ScoreHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.BenchHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprintln(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = cmd.Build()
	case "score":
		err = cmd.Score()
	case "bench":
		err = cmd.Bench()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Printf("Unknown command %v.\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
