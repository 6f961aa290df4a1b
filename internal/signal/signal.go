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

// Package signal implements smoothed z-score peak detection over a series.
package signal

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Thresholding classifies every point of data as a crest (1), a trough (-1)
// or neither (0).  A point is flagged when it lies more than threshold
// standard deviations away from the mean of the lag preceding filtered
// points.  Flagged points enter the filtered series damped by influence, a
// value in [0, 1].
//
// The first lag points are always 0.  The caller must ensure len(data) > lag.
func Thresholding(data []float64, lag int, threshold, influence float64) []int {
	signals := make([]int, len(data))
	filtered := append([]float64(nil), data...)
	avg := make([]float64, len(data))
	std := make([]float64, len(data))

	avg[lag-1] = stat.Mean(data[:lag], nil)
	std[lag-1] = stat.StdDev(data[:lag], nil)

	for i := lag; i < len(data); i++ {
		if math.Abs(data[i]-avg[i-1]) > threshold*std[i-1] {
			if data[i] > avg[i-1] {
				signals[i] = 1
			} else {
				signals[i] = -1
			}
			filtered[i] = influence*data[i] + (1-influence)*filtered[i-1]
		} else {
			filtered[i] = data[i]
		}

		// The window ends before i.
		avg[i] = stat.Mean(filtered[i-lag:i], nil)
		std[i] = stat.StdDev(filtered[i-lag:i], nil)
	}
	return signals
}
