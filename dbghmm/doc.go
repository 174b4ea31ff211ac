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

/*
Package dbghmm builds compact hidden Markov models over weighted de Bruijn
graphs of k-mers, and scores sequences against them.

A Factory turns a weighted set of noisy reads into a Model. Construction
counts k-mers and (k+1)-mers into dense tables indexed by their 2-bit keys,
admits nodes whose weight clears a threshold, and links them by their
next base. The resulting graph is then simplified: nodes unreachable from
heads or unable to reach tails are trimmed, light non-bridge edges are
pruned, light nodes and short loops are cut, and only the largest weakly
connected component is kept, renumbered in topological order.

Whenever a simplification stage leaves fewer nodes than the viability
floor, the Factory falls back to the last snapshot that was still viable.

A Factory owns its scratch tables and reuses them across calls, so it
must not be used from more than one goroutine at a time. BuildUnits
builds many independent models in parallel with one Factory per worker.
*/
package dbghmm
