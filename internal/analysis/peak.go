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

package analysis

import (
	"math"
	"sort"

	"github.com/googlegenomics/gams/internal/genomics"
)

func sortPeaks(peaks []*genomics.Peak) {
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].Range.Start < peaks[j].Range.Start
	})
}

// neighbors fills the left and right fields of peaks, which must be sorted
// by start and lie inside [start, end].
func neighbors(peaks []*genomics.Peak, start, end int) {
	prev := peaks[0]
	prevEnd := start
	for _, cur := range peaks {
		cur.LeftWaveLength = cur.Range.Start - prevEnd + 1
		cur.LeftAmplitude = math.Abs(cur.GC - prev.GC)
		cur.LeftSignal = prev.Signal
		prev, prevEnd = cur, cur.Range.End
	}

	next := peaks[len(peaks)-1]
	nextStart := end
	for i := len(peaks) - 1; i >= 0; i-- {
		cur := peaks[i]
		cur.RightWaveLength = nextStart - cur.Range.End + 1
		cur.RightAmplitude = math.Abs(cur.GC - next.GC)
		cur.RightSignal = next.Signal
		next, nextStart = cur, cur.Range.Start
	}
}
