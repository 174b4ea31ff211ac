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
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/exascience/dbghmm/dbghmm"
	"github.com/exascience/dbghmm/internal"
	"github.com/exascience/dbghmm/utils"
	"github.com/exascience/dbghmm/utils/kmer"
)

// ProgramMessage is the first line printed when the dbghmm binary is
// called.
var ProgramMessage string

func init() {
	ProgramMessage = fmt.Sprint(
		"\n", utils.ProgramName, " version ", utils.ProgramVersion,
		" compiled with ", runtime.Version(), " ", internal.PedanticMessage,
		"- see ", utils.ProgramURL, " for more information.\n",
	)
}

// HelpMessage is printed to show the --help flag
const HelpMessage = "Print command details:\n" +
	"[--help]\n"

func getFilename(s, help string) string {
	switch s {
	case "-h", "--h", "-help", "--help":
		fmt.Fprint(os.Stderr, help)
		os.Exit(0)
	default:
		if strings.HasPrefix(s, "-") {
			log.Println("Filename(s) in command line missing.")
			fmt.Fprint(os.Stderr, help)
			os.Exit(1)
		}
	}
	return s
}

// getFilenames collects the leading non-flag arguments after the command.
func getFilenames(help string) (filenames []string) {
	for _, arg := range os.Args[2:] {
		if strings.HasPrefix(arg, "-") {
			if len(filenames) == 0 {
				getFilename(arg, help)
			}
			break
		}
		filenames = append(filenames, arg)
	}
	return filenames
}

func parseFlags(flags *flag.FlagSet, requiredArgs int, help string) {
	if len(os.Args) < requiredArgs {
		fmt.Fprintln(os.Stderr, "Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
	flags.SetOutput(io.Discard)
	if err := flags.Parse(os.Args[requiredArgs:]); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, help)
		os.Exit(x)
	}
	if flags.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
}

func logCheckFile(parameter, format string, v ...interface{}) {
	if parameter != "" {
		log.Printf(format+" for command line parameter %v.\n", append(v, parameter)...)
	} else {
		log.Printf(format+".\n", v...)
	}
}

func checkExist(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(parameter, "Error: Missing filename before %v", filename)
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	} else if os.IsNotExist(err) {
		logCheckFile(parameter, "Error: File %v does not exist", filename)
		return false
	} else if os.IsPermission(err) {
		logCheckFile(parameter, "Error: No permission to read file %v", filename)
		return false
	} else {
		logCheckFile(parameter, "Error %v when trying to access file %v", err, filename)
		return false
	}
}

func checkCreate(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if filename[0] == '-' {
		logCheckFile(parameter, "Error: Missing filename before %v", filename)
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		// Assume that the file has been written by previous dbghmm runs, and can be overwritten.
		return true
	}
	err := os.MkdirAll(filepath.Dir(filename), 0700)
	if err == nil {
		err = os.WriteFile(filename, nil, 0666)
	}
	if err != nil {
		if os.IsPermission(err) {
			logCheckFile(parameter, "Error: No permission to create file %v", filename)
		} else {
			logCheckFile(parameter, "Error %v when trying to create file %v", err, filename)
		}
		return false
	}
	_ = os.Remove(filename)
	return true
}

func checkK(k int) bool {
	if k < 1 || k > kmer.MaxK {
		log.Printf("Error: Invalid k-mer length %v, must be between 1 and %v.\n", k, kmer.MaxK)
		return false
	}
	if k > 12 {
		log.Printf("Warning: k-mer length %v needs a frequency table of 4^%v entries.\n", k, k+1)
	}
	return true
}

func checkNrOfThreads(nrOfThreads int) bool {
	if nrOfThreads < 0 {
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
		return false
	}
	return true
}

func setNrOfThreads(nrOfThreads int) {
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
	}
}

// loadParams reads the parameter file, if any, and applies the strategy
// given on the command line on top of it.
func loadParams(paramsFile, strategy string) (dbghmm.Params, bool) {
	params := dbghmm.DefaultParams()
	if paramsFile != "" {
		if !checkExist("--params", paramsFile) {
			return params, false
		}
		var err error
		if params, err = dbghmm.ReadParams(paramsFile); err != nil {
			log.Printf("Error: %v.\n", err)
			return params, false
		}
	}
	if strategy != "" {
		s, err := dbghmm.ParseStrategy(strategy)
		if err != nil {
			log.Printf("Error: %v.\n", err)
			return params, false
		}
		params.Strategy = s
	}
	return params, true
}

func scoringConfig(name string) (*dbghmm.Config, bool) {
	switch strings.ToLower(name) {
	case "", "default":
		return &dbghmm.DefaultConfig, true
	case "pacbio":
		return &dbghmm.PacBioConfig, true
	default:
		log.Printf("Error: Invalid scoring configuration %v.\n", name)
		return nil, false
	}
}

func createLogFilename() string {
	t := time.Now()
	zone, _ := t.Zone()
	return fmt.Sprintf("logs/dbghmm/dbghmm-%d-%02d-%02d-%02d-%02d-%02d-%09d-%v.log", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), zone)
}

func setLogOutput(path string) {
	logPath := createLogFilename()
	var fullPath string
	if path == "" {
		fullPath = filepath.Join(os.Getenv("HOME"), logPath)
	} else {
		fullPath = filepath.Join(path, logPath)
	}
	internal.MkdirAll(filepath.Dir(fullPath), 0700)
	f := internal.FileCreate(fullPath)
	fmt.Fprintln(f, ProgramMessage)

	orgStderr, err := unix.Dup(2)
	if err != nil {
		log.Panic(err)
	}
	ferr := os.NewFile(uintptr(orgStderr), "/dev/stderr")
	if err := unix.Dup2(int(f.Fd()), 2); err != nil {
		log.Panic(err)
	}

	multi := io.MultiWriter(f, ferr)

	log.SetOutput(multi)
	log.Println("Created log file at", fullPath)
	log.Println("Command line:", os.Args)
}

func timedRun(timed bool, profile, msg string, phase int64, f func() error) error {
	if profile != "" {
		filename := profile + strconv.FormatInt(phase, 10) + ".prof"
		file := internal.FileCreate(filename)
		defer internal.Close(file)
		if err := pprof.StartCPUProfile(file); err != nil {
			log.Panic(err)
		}
		defer pprof.StopCPUProfile()
	}
	if timed {
		log.Println(msg)
		start := time.Now()
		defer func() {
			end := time.Now()
			log.Println("Elapsed time: ", end.Sub(start))
		}()
	}
	return f()
}

// createOutput returns stdout for an empty filename.
func createOutput(filename string) (io.WriteCloser, error) {
	if filename == "" || filename == "/dev/stdout" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(filename)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
