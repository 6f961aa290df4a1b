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

package intspan

import "testing"

func TestParse(t *testing.T) {
	testCases := []struct {
		name, input, want string
		size              int
	}{
		{"empty", "", "-", 0},
		{"dash", "-", "-", 0},
		{"single", "201", "201", 1},
		{"pair", "1-500", "1-500", 500},
		{"adjacent runs join", "1-5,6-10", "1-10", 10},
		{"unsorted", "20-30,1-5", "1-5,20-30", 16},
		{"overlapping", "1-10,5-20,30", "1-20,30", 21},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tc.input, err)
			}
			if got, want := s.String(), tc.want; got != want {
				t.Errorf("Wrong runlist: got %q, want %q", got, want)
			}
			if got, want := s.Size(), tc.size; got != want {
				t.Errorf("Wrong size: got %d, want %d", got, want)
			}
		})
	}
}

func TestParse_InvalidInputs(t *testing.T) {
	for _, input := range []string{"a", "1-b", "10-1"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q): unexpected success", input)
		}
	}
}

func TestAtIndex(t *testing.T) {
	s := MustParse("1-10,21-30")
	testCases := []struct {
		rank, pos int
	}{
		{1, 1}, {10, 10}, {11, 21}, {20, 30},
	}
	for _, tc := range testCases {
		if got, ok := s.At(tc.rank); !ok || got != tc.pos {
			t.Errorf("At(%d): got %d (%v), want %d", tc.rank, got, ok, tc.pos)
		}
		if got := s.Index(tc.pos); got != tc.rank {
			t.Errorf("Index(%d): got %d, want %d", tc.pos, got, tc.rank)
		}
	}
	if _, ok := s.At(21); ok {
		t.Error("At(21) should be out of range")
	}
	if got := s.Index(15); got != 0 {
		t.Errorf("Index(15) of a hole: got %d, want 0", got)
	}
}

func TestSlice(t *testing.T) {
	s := MustParse("1-10,21-30")
	testCases := []struct {
		from, to int
		want     string
	}{
		{1, 5, "1-5"},
		{8, 13, "8-10,21-23"},
		{11, 20, "21-30"},
		{15, 100, "25-30"},
		{0, 1, "1"},
		{5, 4, "-"},
	}
	for _, tc := range testCases {
		if got := s.Slice(tc.from, tc.to).String(); got != tc.want {
			t.Errorf("Slice(%d, %d): got %q, want %q", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSetOperations(t *testing.T) {
	a, b := MustParse("1-10,20-30"), MustParse("5-25")
	if got, want := a.Intersect(b).String(), "5-10,20-25"; got != want {
		t.Errorf("Intersect: got %q, want %q", got, want)
	}
	if got, want := a.Union(b).String(), "1-30"; got != want {
		t.Errorf("Union: got %q, want %q", got, want)
	}
	if got, want := a.Subtract(b).String(), "1-4,26-30"; got != want {
		t.Errorf("Subtract: got %q, want %q", got, want)
	}
	if got, want := MustParse("1-10").Subtract(MustParse("3,5,7")).String(), "1-2,4,6,8-10"; got != want {
		t.Errorf("Subtract points: got %q, want %q", got, want)
	}
}

func TestFillExcise(t *testing.T) {
	s := MustParse("1-10,13-20,40-42,100-200")
	if got, want := s.Fill(2).String(), "1-20,40-42,100-200"; got != want {
		t.Errorf("Fill(2): got %q, want %q", got, want)
	}
	if got, want := s.Excise(5).String(), "1-10,13-20,100-200"; got != want {
		t.Errorf("Excise(5): got %q, want %q", got, want)
	}
}

func TestAddPair_Middle(t *testing.T) {
	s := MustParse("1-5,20-25,40-45")
	s.AddPair(6, 19)
	if got, want := s.String(), "1-25,40-45"; got != want {
		t.Errorf("AddPair: got %q, want %q", got, want)
	}
	if !s.Contains(22) || s.Contains(30) {
		t.Error("Contains gave wrong membership")
	}
}
