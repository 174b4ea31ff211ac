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
	"os"
	"path/filepath"
	"testing"
)

func TestRecordWeight(t *testing.T) {
	if w, err := recordWeight([]byte("read1 weight=0.25 len=100")); err != nil || w != 0.25 {
		t.Error("recordWeight with weight token failed")
	}
	if w, err := recordWeight([]byte("read1 len=100")); err != nil || w != 1 {
		t.Error("recordWeight without weight token failed")
	}
	if _, err := recordWeight([]byte("read1 weight=-1")); err == nil {
		t.Error("recordWeight with negative weight failed")
	}
	if _, err := recordWeight([]byte("read1 weight=abc")); err == nil {
		t.Error("recordWeight with malformed weight failed")
	}
}

func TestUnitName(t *testing.T) {
	for input, expected := range map[string]string{
		"/data/cluster1.fa":     "cluster1",
		"cluster2.fastq.gz":     "cluster2",
		"reads/sample.v2.fasta": "sample.v2",
		"noext":                 "noext",
	} {
		if unitName(input) != expected {
			t.Errorf("unitName(%v) failed", input)
		}
	}
}

func TestReadSequences(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "reads.fa")
	content := ">r1 weight=2\nacgtacgtac\n>r2\nACGTNACGTA\n>r3\nGGGTTTCCCA\n"
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	names, seqs, weights, err := readSequences(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(seqs) != 2 || names[0] != "r1" || names[1] != "r3" {
		t.Fatal("readSequences did not skip the sequence with N")
	}
	if string(seqs[0]) != "ACGTACGTAC" {
		t.Error("readSequences did not uppercase")
	}
	if weights[0] != 2 || weights[1] != 1 {
		t.Error("readSequences weights failed")
	}
}
