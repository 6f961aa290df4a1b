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

import "testing"

func TestParseRange(t *testing.T) {
	testCases := []struct {
		input string
		want  Range
	}{
		{"I:1-100", Range{Chr: "I", Start: 1, End: 100}},
		{"I(+):1-100", Range{Chr: "I", Strand: "+", Start: 1, End: 100}},
		{"Mt(-):5", Range{Chr: "Mt", Strand: "-", Start: 5, End: 5}},
		{"chr1:1,000-2,000", Range{Chr: "chr1", Start: 1000, End: 2000}},
		{"HLA-A*01:01:1-10", Range{Chr: "HLA-A*01:01", Start: 1, End: 10}},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseRange(tc.input)
			if err != nil {
				t.Fatalf("ParseRange(%q) failed: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("Wrong range: got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseRange_InvalidInputs(t *testing.T) {
	for _, input := range []string{"", "I", "I:", ":1-2", "I:a-b", "I(x):1-2", "I(+:1-2"} {
		if _, err := ParseRange(input); err == nil {
			t.Errorf("ParseRange(%q): unexpected success", input)
		}
	}
}

func TestRangeIsValid(t *testing.T) {
	testCases := []struct {
		r    Range
		want bool
	}{
		{NewRange("I", 1, 1), true},
		{NewRange("I", 10, 9), false},
		{NewRange("I", 0, 9), false},
		{NewRange("", 1, 9), false},
	}
	for _, tc := range testCases {
		if got := tc.r.IsValid(); got != tc.want {
			t.Errorf("%+v: got %v, want %v", tc.r, got, tc.want)
		}
	}
}

func TestRangeString(t *testing.T) {
	testCases := []struct {
		r    Range
		want string
	}{
		{NewRange("I", 1, 100), "I:1-100"},
		{NewRange("I", 7, 7), "I:7"},
		{Range{Chr: "II", Strand: "-", Start: 3, End: 9}, "II(-):3-9"},
	}
	for _, tc := range testCases {
		if got := tc.r.String(); got != tc.want {
			t.Errorf("Wrong string: got %q, want %q", got, tc.want)
		}
		back, err := ParseRange(tc.r.String())
		if err != nil || back != tc.r {
			t.Errorf("ParseRange(%q) = %+v, %v", tc.r.String(), back, err)
		}
	}
	if got, want := NewRange("I", 3, 9).Span().String(), "3-9"; got != want {
		t.Errorf("Wrong span: got %q, want %q", got, want)
	}
}
