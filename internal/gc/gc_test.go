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

package gc

import (
	"context"
	"math"
	"testing"

	"github.com/googlegenomics/gams/internal/db"
	"github.com/googlegenomics/gams/internal/genomics"
	"github.com/googlegenomics/gams/internal/index"
	"github.com/googlegenomics/gams/store"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-4
}

func TestContent(t *testing.T) {
	testCases := []struct {
		seq  string
		want float64
	}{
		{"", 0},
		{"AAAA", 0},
		{"GCgc", 1},
		{"ACGT", 0.5},
		{"NNGC", 0.5},
	}
	for _, tc := range testCases {
		if got := Content([]byte(tc.seq)); got != tc.want {
			t.Errorf("Content(%q) = %v, want %v", tc.seq, got, tc.want)
		}
	}
}

func TestStat(t *testing.T) {
	testCases := []struct {
		name             string
		values           []float64
		mean, stddev, cv float64
	}{
		{"constant", []float64{0.5, 0.5}, 0.5, 0, 0},
		{"spread", []float64{0.4, 0.5, 0.5, 0.6}, 0.5, 0.0816, 0.1633},
		{"low mean", []float64{0.1, 0.3}, 0.2, 0.1414, 0.7071},
		{"high mean", []float64{0.7, 0.9}, 0.8, 0.1414, 0.7071},
		{"all zero", []float64{0, 0, 0}, 0, 0, 0},
		{"all one", []float64{1, 1}, 1, 0, 0},
		{"single", []float64{0.3}, 0.3, 0, 0},
		{"empty", nil, 0, 0, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mean, stddev, cv := Stat(tc.values)
			if !near(mean, tc.mean) || !near(stddev, tc.stddev) || !near(cv, tc.cv) {
				t.Errorf("Stat(%v) = (%.4f, %.4f, %.4f), want (%.4f, %.4f, %.4f)",
					tc.values, mean, stddev, cv, tc.mean, tc.stddev, tc.cv)
			}
		})
	}
}

func testContig() (*genomics.Contig, []byte) {
	seq := []byte("GGGGGAAAAACCCCCTTTTT")
	return &genomics.Contig{
		ID:     "ctg:I:1",
		Range:  genomics.NewRange("I", 1001, 1020),
		Length: len(seq),
	}, seq
}

func TestLocal(t *testing.T) {
	ctg, seq := testContig()
	l := NewLocal(ctg, seq)

	testCases := []struct {
		r    genomics.Range
		want float64
	}{
		{genomics.NewRange("I", 1001, 1005), 1},
		{genomics.NewRange("I", 1001, 1010), 0.5},
		{genomics.NewRange("I", 1006, 1010), 0},
		{genomics.NewRange("I", 1011, 1020), 0.5},
		{genomics.NewRange("I", 1015, 1025), 0},
	}
	for _, tc := range testCases {
		if got := l.Content(tc.r); got != tc.want {
			t.Errorf("Content(%s) = %v, want %v", tc.r, got, tc.want)
		}
	}
	l.Content(genomics.NewRange("I", 1001, 1005))
	if got, want := l.Len(), len(testCases); got != want {
		t.Errorf("Wrong cache size: got %d, want %d", got, want)
	}

	mean, stddev, _ := l.Stat(genomics.NewRange("I", 1001, 1020), 5, 5)
	if !near(mean, 0.5) || !near(stddev, 0.5774) {
		t.Errorf("Stat = (%.4f, %.4f), want (0.5000, 0.5774)", mean, stddev)
	}
}

func TestBucket(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	ctg, seq := testContig()
	if err := db.PutContig(ctx, s, ctg); err != nil {
		t.Fatalf("PutContig failed: %v", err)
	}
	if err := db.PutSequence(ctx, s, ctg.ID, seq); err != nil {
		t.Fatalf("PutSequence failed: %v", err)
	}
	if err := index.Build(ctx, s, "I", index.BuildOptions{}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	b := NewBucket(s, index.NewTreeIndex(s), 0)

	testCases := []struct {
		r    genomics.Range
		want float64
	}{
		{genomics.NewRange("I", 1001, 1010), 0.5},
		{genomics.NewRange("I", 1001, 1010), 0.5},
		{genomics.NewRange("I", 1003, 1012), 0.5},
		{genomics.NewRange("I", 1006, 1010), 0},
		{genomics.NewRange("I", 1015, 1025), 0},
		{genomics.NewRange("II", 1, 10), 0},
	}
	for _, tc := range testCases {
		got, err := b.Content(ctx, tc.r)
		if err != nil {
			t.Fatalf("Content(%s) failed: %v", tc.r, err)
		}
		if got != tc.want {
			t.Errorf("Content(%s) = %v, want %v", tc.r, got, tc.want)
		}
	}

	value, err := s.HGet(ctx, "cache:I:1", "I:1001-1010")
	if err != nil {
		t.Fatalf("Cached field missing: %v", err)
	}
	if got, want := string(value), "0.5"; got != want {
		t.Errorf("Wrong cached value: got %q, want %q", got, want)
	}

	// A cached value wins over the sequence.
	if err := s.HSet(ctx, "cache:I:1", "I:1006-1010", []byte("0.25")); err != nil {
		t.Fatalf("HSet failed: %v", err)
	}
	if got, err := b.Content(ctx, genomics.NewRange("I", 1006, 1010)); err != nil || got != 0.25 {
		t.Errorf("Content from cache = %v, %v; want 0.25", got, err)
	}
}
