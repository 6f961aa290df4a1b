// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package genomics

// Contig is a contiguous, non-ambiguous piece of a chromosome.  Contigs of one
// chromosome never overlap.
type Contig struct {
	ID     string
	Range  Range
	Length int
}

// Feature is an annotated range located inside a contig.
type Feature struct {
	ID     string
	Range  Range
	Length int
	Tag    string
}

// RangeRecord is a stored range used for overlap counting.
type RangeRecord struct {
	ID    string
	Range Range
}

// Peak is a flagged range together with the wave it forms with its
// neighbors on the same contig.  Signal is 1 for a crest and -1 for a trough.
type Peak struct {
	ID     string
	Range  Range
	Length int
	GC     float64
	Signal int

	LeftWaveLength  int
	LeftAmplitude   float64
	LeftSignal      int
	RightWaveLength int
	RightAmplitude  float64
	RightSignal     int
}
