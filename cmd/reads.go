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
	"bytes"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"

	"github.com/exascience/dbghmm/dbghmm"
	"github.com/exascience/dbghmm/utils/kmer"
)

func init() {
	// sequences are filtered for ACGT after reading
	seq.ValidateSeq = false
}

// readSequences reads a FASTA or FASTQ file, optionally gzipped. A
// "weight=x" token in a record header sets the weight of that record,
// which is 1 otherwise. Sequences with bases other than ACGT are skipped.
func readSequences(filename string) (names []string, seqs [][]byte, weights []float64, err error) {
	reader, err := fastx.NewReader(nil, filename, "")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening %v: %w", filename, err)
	}
	defer reader.Close()
	skipped := 0
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, nil, fmt.Errorf("reading record %v in %v: %w", i, filename, err)
		}
		bases := bytes.ToUpper(record.Seq.Seq)
		if !kmer.IsACGT(bases) {
			skipped++
			continue
		}
		weight, err := recordWeight(record.Name)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("record %s in %v: %w", record.ID, filename, err)
		}
		names = append(names, string(record.ID))
		seqs = append(seqs, bases)
		weights = append(weights, weight)
	}
	if skipped > 0 {
		log.Printf("Warning: Skipped %v sequences with bases other than ACGT in %v.\n", skipped, filename)
	}
	return names, seqs, weights, nil
}

func recordWeight(header []byte) (float64, error) {
	for _, field := range strings.Fields(string(header)) {
		if value := strings.TrimPrefix(field, "weight="); value != field {
			w, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return 0, err
			}
			if w < 0 {
				return 0, fmt.Errorf("negative weight %v", w)
			}
			return w, nil
		}
	}
	return 1, nil
}

// readUnits turns every file into a unit named after the file.
func readUnits(filenames []string) ([]dbghmm.Unit, error) {
	units := make([]dbghmm.Unit, 0, len(filenames))
	for _, filename := range filenames {
		_, seqs, weights, err := readSequences(filename)
		if err != nil {
			return nil, err
		}
		units = append(units, dbghmm.Unit{
			Name:      unitName(filename),
			Sequences: seqs,
			Weights:   weights,
		})
	}
	return units, nil
}

func unitName(filename string) string {
	base := filepath.Base(filename)
	for {
		ext := filepath.Ext(base)
		switch strings.ToLower(ext) {
		case ".gz", ".xz", ".zst", ".bz2", ".fa", ".fasta", ".fq", ".fastq", ".fna":
			base = strings.TrimSuffix(base, ext)
		default:
			return base
		}
	}
}
