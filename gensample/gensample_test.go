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

package gensample

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/exascience/dbghmm/internal"
)

func hamming(x, y []byte) (d int) {
	for i := range x {
		if x[i] != y[i] {
			d++
		}
	}
	return d
}

func TestGenerateSeq(t *testing.T) {
	seq := GenerateSeq(internal.NewRand(1), 200)
	if len(seq) != 200 {
		t.Fatal("GenerateSeq length failed")
	}
	for _, b := range seq {
		if bytes.IndexByte([]byte("ACGT"), b) < 0 {
			t.Fatalf("GenerateSeq produced %c", b)
		}
	}
	if !bytes.Equal(seq, GenerateSeq(internal.NewRand(1), 200)) {
		t.Error("GenerateSeq is not deterministic for a fixed seed")
	}
}

func TestIntroduceErrors(t *testing.T) {
	rng := internal.NewRand(42)
	template := GenerateSeq(rng, 150)
	for sub := 0; sub < 5; sub++ {
		seq := IntroduceErrors(template, rng, sub, 0, 0)
		if len(seq) != len(template) {
			t.Fatal("IntroduceErrors with substitutions only changed the length")
		}
		if d := hamming(seq, template); d != sub {
			t.Errorf("IntroduceErrors with %v substitutions gave distance %v", sub, d)
		}
	}
	if seq := IntroduceErrors(template, rng, 1, 3, 2); len(seq) != len(template)-1 {
		t.Errorf("IntroduceErrors length %v, expected %v", len(seq), len(template)-1)
	}
}

func TestIntroduceRandomness(t *testing.T) {
	rng := internal.NewRand(7)
	template := GenerateSeq(rng, 500)
	if seq := IntroduceRandomness(template, rng, &Profile{}); !bytes.Equal(seq, template) {
		t.Error("IntroduceRandomness without errors changed the sequence")
	}
	subs := IntroduceRandomness(template, rng, &Profile{Sub: 1})
	if len(subs) != len(template) || hamming(subs, template) != len(template) {
		t.Error("IntroduceRandomness with certain substitution failed")
	}
	if dels := IntroduceRandomness(template, rng, &Profile{Del: 1}); len(dels) != 0 {
		t.Error("IntroduceRandomness with certain deletion failed")
	}
	if ins := IntroduceRandomness(template, rng, &Profile{Ins: 1}); len(ins) != 2*len(template) {
		t.Error("IntroduceRandomness with certain insertion failed")
	}
}

func TestProfile(t *testing.T) {
	p := DefaultProfile.Scale(0.5)
	if p.Sum() != DefaultProfile.Sum()/2 {
		t.Error("Profile.Scale failed")
	}
}

func TestReadProfile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "profile.yaml")
	if err := os.WriteFile(filename, []byte("sub: 0.01\nins: 0.04\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := ReadProfile(filename)
	if err != nil {
		t.Fatal(err)
	}
	if p != (Profile{Sub: 0.01, Ins: 0.04}) {
		t.Errorf("ReadProfile returned %+v", p)
	}

	for _, content := range []string{"sub: 0.5\ndel: 0.4\nins: 0.2\n", "del: -0.1\n", "sub: [1]\n"} {
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadProfile(filename); err == nil {
			t.Errorf("ReadProfile accepted %q", content)
		}
	}
	if _, err := ReadProfile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("ReadProfile accepted a missing file")
	}
}

func TestProfileValidate(t *testing.T) {
	if err := PacBioProfile.Validate(); err != nil {
		t.Error(err)
	}
	if err := PacBioProfile.Scale(10).Validate(); err == nil {
		t.Error("Validate accepted rates adding up to more than 1")
	}
}
