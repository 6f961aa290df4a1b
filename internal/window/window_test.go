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

package window

import (
	"fmt"
	"testing"

	"github.com/googlegenomics/gams/internal/intspan"
)

func TestSliding(t *testing.T) {
	testCases := []struct {
		parent     string
		size, step int
	}{
		{"1-100", 10, 10},
		{"1-100", 10, 5},
		{"1-100", 100, 1},
		{"1-100", 7, 3},
		{"1-10,21-30,41-45", 4, 2},
		{"1-500", 1, 1},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s/%d/%d", tc.parent, tc.size, tc.step), func(t *testing.T) {
			parent := intspan.MustParse(tc.parent)
			windows := Sliding(parent, tc.size, tc.step)
			if got, want := len(windows), (parent.Size()-tc.size)/tc.step+1; got != want {
				t.Errorf("Wrong window count: got %d, want %d", got, want)
			}
			for _, w := range windows {
				if got, want := w.Size(), tc.size; got != want {
					t.Errorf("Wrong size for %s: got %d, want %d", w, got, want)
				}
				if got := w.Subtract(parent); !got.IsEmpty() {
					t.Errorf("Window %s leaves parent: %s", w, got)
				}
			}
		})
	}
}

func TestSliding_Values(t *testing.T) {
	var got []string
	for _, w := range Sliding(intspan.MustParse("1-10,21-30"), 6, 5) {
		got = append(got, w.String())
	}
	want := []string{"1-6", "6-10,21", "21-26"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Wrong windows: got %v, want %v", got, want)
	}
	if windows := Sliding(intspan.MustParse("1-5"), 6, 1); len(windows) != 0 {
		t.Errorf("Expected no windows, got %v", windows)
	}
}

func TestCenterResize(t *testing.T) {
	testCases := []struct {
		parent, span string
		resize       int
		want         string
	}{
		{"1-500", "201", 100, "152-250"},
		{"1-500", "200", 100, "151-249"},
		{"1-500", "200-201", 100, "151-250"},
		{"1-500", "199-201", 100, "150-249"},
		{"1-500", "199-202", 100, "151-250"},
		{"1-500", "100-301", 100, "151-250"},
		{"1-500", "1", 100, "1-50"},
		{"1-500", "500", 100, "451-500"},
		{"1001-1500", "1200-1201", 100, "1151-1250"},
	}
	for _, tc := range testCases {
		t.Run(tc.parent+"/"+tc.span, func(t *testing.T) {
			got := CenterResize(intspan.MustParse(tc.parent), intspan.MustParse(tc.span), tc.resize)
			if got.String() != tc.want {
				t.Errorf("Wrong window: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCenterSW(t *testing.T) {
	testCases := []struct {
		parent     string
		start, end int
		main       string
		count      int
	}{
		{"1-9999", 500, 500, "451-549", 3},
		{"1-9999", 500, 800, "600-699", 3},
		{"1-9999", 101, 101, "52-150", 2},
		{"10001-19999", 10101, 10101, "10052-10150", 2},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s/%d-%d", tc.parent, tc.start, tc.end), func(t *testing.T) {
			windows := CenterSW(intspan.MustParse(tc.parent), tc.start, tc.end, 100, 1)
			if got, want := len(windows), tc.count; got != want {
				t.Fatalf("Wrong window count: got %d, want %d", got, want)
			}
			m := windows[0]
			if m.Span.String() != tc.main || m.Type != Main || m.Distance != 0 {
				t.Errorf("Wrong main window: got %s %s %d, want %s M 0", m.Span, m.Type, m.Distance, tc.main)
			}
		})
	}
}

func TestCenterSW_Neighbors(t *testing.T) {
	windows := CenterSW(intspan.MustParse("1-9999"), 500, 500, 100, 3)
	want := []string{
		"451-549 M 0",
		"351-450 L 1", "251-350 L 2", "151-250 L 3",
		"550-649 R 1", "650-749 R 2", "750-849 R 3",
	}
	if got := len(windows); got != len(want) {
		t.Fatalf("Wrong window count: got %d, want %d", got, len(want))
	}
	for i, w := range windows {
		if got := fmt.Sprintf("%s %s %d", w.Span, w.Type, w.Distance); got != want[i] {
			t.Errorf("Window %d: got %q, want %q", i, got, want[i])
		}
	}
}

func TestCenterSW_StopsAtParentBounds(t *testing.T) {
	windows := CenterSW(intspan.MustParse("1-700"), 500, 500, 100, 5)
	var right int
	for _, w := range windows {
		if w.Type == Right {
			right++
		}
	}
	// 550-649 fits, 650-749 does not.
	if got, want := right, 1; got != want {
		t.Errorf("Wrong right window count: got %d, want %d", got, want)
	}
}
