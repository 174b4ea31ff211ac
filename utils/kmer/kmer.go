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

// Package kmer packs nucleotide words into 2-bit keys.
//
// Bases are coded A=0, C=1, G=2, T=3, with the first base in the most
// significant position, so that a key can be extended on the right with
// Roll while streaming over a sequence.
package kmer

import (
	"log"

	"github.com/shenwei356/kmers"
)

// MaxK is the longest word that fits in a key.
const MaxK = 32

var (
	codes = [256]uint64{
		'A': 0, 'C': 1, 'G': 2, 'T': 3, 'U': 3,
		'a': 0, 'c': 1, 'g': 2, 't': 3, 'u': 3,
	}
	bases = [4]byte{'A', 'C', 'G', 'T'}
)

// Code returns the 2-bit code of a base. Bases outside ACGT(U) map to 0.
func Code(base byte) uint64 {
	return codes[base]
}

// Base returns the base for the lowest two bits of code.
func Base(code uint64) byte {
	return bases[code&3]
}

// IsACGT reports whether every base is one of ACGT, in either case.
func IsACGT(seq []byte) bool {
	for _, b := range seq {
		switch b {
		case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		default:
			return false
		}
	}
	return true
}

// Mask returns the key mask for words of length k.
func Mask(k int) uint64 {
	if k >= MaxK {
		return ^uint64(0)
	}
	return 1<<(2*uint(k)) - 1
}

// Roll appends base to key and drops the first base of the window.
func Roll(key uint64, base byte, mask uint64) uint64 {
	return (key<<2 | codes[base]) & mask
}

// Encode packs a word of at most MaxK bases into a key.
func Encode(word []byte) uint64 {
	if len(word) > MaxK {
		log.Panicf("k-mer of length %v exceeds maximum of %v", len(word), MaxK)
	}
	if key, err := kmers.Encode(word); err == nil {
		return key
	}
	var key uint64
	for _, b := range word {
		key = key<<2 | codes[b]
	}
	return key
}

// Decode unpacks a key into a freshly allocated word of length k.
func Decode(key uint64, k int) []byte {
	if k > MaxK {
		log.Panicf("k-mer of length %v exceeds maximum of %v", k, MaxK)
	}
	if k == 0 {
		return []byte{}
	}
	return kmers.MustDecode(key, k)
}

// DecodeTo unpacks a key into buf, reusing its storage.
func DecodeTo(key uint64, k int, buf []byte) []byte {
	if k > MaxK {
		log.Panicf("k-mer of length %v exceeds maximum of %v", k, MaxK)
	}
	buf = buf[:0]
	for i := k - 1; i >= 0; i-- {
		buf = append(buf, bases[(key>>(2*uint(i)))&3])
	}
	return buf
}
