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

// Package gc computes and caches the GC content of genomic ranges.
//
// Two caches are provided.  Local serves the windows of a single contig from
// its decompressed sequence and is owned by one worker for one contig.
// Bucket persists results in the store, grouped per kilobase of chromosome,
// and lets entries expire.
package gc

import (
	"gonum.org/v1/gonum/stat"
)

// Content returns the fraction of G and C bases (in either case) in seq.  An
// empty seq has no GC content.
func Content(seq []byte) float64 {
	if len(seq) == 0 {
		return 0
	}
	var n int
	for _, b := range seq {
		switch b {
		case 'G', 'C', 'g', 'c':
			n++
		}
	}
	return float64(n) / float64(len(seq))
}

// Stat returns the mean, the sample standard deviation and the coefficient
// of variation of values.  The coefficient is measured against the distance
// of the mean from the nearest bound (0 or 1) and is 0 when the mean is at a
// bound.  Fewer than two values have no deviation.
func Stat(values []float64) (mean, stddev, cv float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		stddev = stat.StdDev(values, nil)
	}

	switch {
	case mean == 0 || mean == 1:
		cv = 0
	case mean <= 0.5:
		cv = stddev / mean
	default:
		cv = stddev / (1 - mean)
	}
	return mean, stddev, cv
}
