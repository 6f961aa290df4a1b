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

// Package window generates tiling and center anchored windows over a span.
// All sizes and offsets are expressed as ranks inside the parent span, so
// windows over a span with holes skip the holes.
package window

import "github.com/googlegenomics/gams/internal/intspan"

// Type identifies the position of a window relative to the center window.
type Type string

const (
	Main  Type = "M"
	Left  Type = "L"
	Right Type = "R"
)

// Window is a span produced by CenterSW.  Distance is 0 for the Main window
// and counts outward from it (1..max) for Left and Right windows.
type Window struct {
	Span     *intspan.Span
	Type     Type
	Distance int
}

// Sliding returns consecutive windows of size positions over span, starting
// at rank 1 and advancing by step.  No short trailing window is returned.
func Sliding(span *intspan.Span, size, step int) []*intspan.Span {
	if size < 1 || step < 1 {
		return nil
	}
	var windows []*intspan.Span
	total := span.Size()
	for start := 1; start+size-1 <= total; start += step {
		windows = append(windows, span.Slice(start, start+size-1))
	}
	return windows
}

// CenterResize returns the window of parent centered on span and holding
// (about) resize positions.  For an even sized span the window is anchored on
// its two middle positions, so the result is resize-1 or resize wide before
// clipping to parent.
func CenterResize(parent, span *intspan.Span, resize int) *intspan.Span {
	half := span.Size() / 2
	midLeft, midRight := 1, 1
	if half > 0 {
		midLeft, midRight = half, half+1
	}
	left, _ := span.At(midLeft)
	right, _ := span.At(midRight)

	halfResize := resize / 2
	leftIdx := parent.Index(left) - halfResize + 1
	if leftIdx < 1 {
		leftIdx = 1
	}
	rightIdx := parent.Index(right) + halfResize - 1
	if size := parent.Size(); rightIdx > size {
		rightIdx = size
	}
	return parent.Slice(leftIdx, rightIdx)
}

// CenterSW returns the Main window centered on [start, end] followed by up to
// max adjacent windows of exactly size positions on each side, Left windows
// first.  A side stops early when the next window would leave parent.
func CenterSW(parent *intspan.Span, start, end, size, max int) []Window {
	main := CenterResize(parent, intspan.FromPair(start, end), size)
	windows := []Window{{main, Main, 0}}
	if main.IsEmpty() {
		return windows
	}

	for _, typ := range []Type{Left, Right} {
		var swStart, swEnd int
		if typ == Right {
			swStart = parent.Index(main.Max()) + 1
			swEnd = swStart + size - 1
		} else {
			swEnd = parent.Index(main.Min()) - 1
			swStart = swEnd - size + 1
		}

		for distance := 1; distance <= max; distance++ {
			if swStart < 1 || swEnd > parent.Size() {
				break
			}
			sw := parent.Slice(swStart, swEnd)
			if sw.Size() < size {
				break
			}
			windows = append(windows, Window{sw, typ, distance})

			if typ == Right {
				swStart = swEnd + 1
				swEnd = swStart + size - 1
			} else {
				swEnd = swStart - 1
				swStart = swEnd - size + 1
			}
		}
	}
	return windows
}
