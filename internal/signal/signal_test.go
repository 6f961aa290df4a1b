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

package signal

import "testing"

func TestThresholding(t *testing.T) {
	input := []float64{
		1.0, 1.0, 1.1, 1.0, 0.9, 1.0, 1.0, 1.1, 1.0, 0.9,
		1.0, 1.1, 1.0, 1.0, 0.9, 1.0, 1.0, 1.1, 1.0, 1.0,
		1.0, 1.0, 1.1, 0.9, 1.0, 1.1, 1.0, 1.0, 0.9, 1.0,
		1.1, 1.0, 1.0, 1.1, 1.0, 0.8, 0.9, 1.0, 1.2, 0.9,
		1.0, 1.0, 1.1, 1.2, 1.0, 1.5, 1.0, 3.0, 2.0, 5.0,
		3.0, 2.0, 1.0, 1.0, 1.0, 0.9, 1.0, 1.0, 3.0, 2.6,
		4.0, 3.0, 3.2, 2.0, 1.0, 1.0, 0.8, 4.0, 4.0, 2.0,
		2.5, 1.0, 1.0, 1.0,
	}
	want := []int{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 1, 0, 1, 1, 1,
		1, 1, 0, 0, 0, 0, 0, 0, 1, 1,
		1, 1, 1, 1, 0, 0, 0, 1, 1, 1,
		1, 0, 0, 0,
	}

	got := Thresholding(input, 30, 5, 0)
	if len(got) != len(want) {
		t.Fatalf("Wrong length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Wrong signal at %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestThresholding_Trough(t *testing.T) {
	input := []float64{0.5, 0.51, 0.49, 0.5, 0.5, 0.51, 0.49, 0.5, 0.1, 0.5}
	got := Thresholding(input, 5, 3, 0)
	for i, s := range got {
		want := 0
		if i == 8 {
			want = -1
		}
		if s != want {
			t.Errorf("Wrong signal at %d: got %d, want %d", i, s, want)
		}
	}
}
