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

// Package merge joins flagged windows that overlap each other into single
// spans.
package merge

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/googlegenomics/gams/internal/intspan"
)

// Merge groups windows whose mutual coverage is at least coverage and maps
// the runlist of every grouped window to the union of its group.  The
// coverage of a pair is the size of the intersection divided by the size of
// each window; both ratios must reach the threshold.  Windows without such a
// partner are left out of the mapping.
func Merge(windows []*intspan.Span, coverage float64) map[string]string {
	var (
		nodes []*intspan.Span
		seen  = make(map[string]bool)
	)
	for _, w := range windows {
		if w.IsEmpty() || seen[w.String()] {
			continue
		}
		seen[w.String()] = true
		nodes = append(nodes, w)
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Min() < nodes[j].Min() })

	g := simple.NewUndirectedGraph()
	for i := range nodes {
		g.AddNode(simple.Node(i))
	}
	for i, a := range nodes {
		for j := i + 1; j < len(nodes) && nodes[j].Min() <= a.Max(); j++ {
			if covered(a, nodes[j], coverage) {
				g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}

	mapping := make(map[string]string)
	for _, component := range topo.ConnectedComponents(g) {
		if len(component) < 2 {
			continue
		}
		union := &intspan.Span{}
		for _, n := range component {
			union = union.Union(nodes[n.ID()])
		}
		for _, n := range component {
			mapping[nodes[n.ID()].String()] = union.String()
		}
	}
	return mapping
}

func covered(a, b *intspan.Span, coverage float64) bool {
	n := float64(a.Intersect(b).Size())
	if n == 0 {
		return false
	}
	return n/float64(a.Size()) >= coverage && n/float64(b.Size()) >= coverage
}

// Peaks merges crests and troughs independently of each other and returns
// the combined mapping.
func Peaks(crests, troughs []*intspan.Span, coverage float64) map[string]string {
	mapping := Merge(crests, coverage)
	for k, v := range Merge(troughs, coverage) {
		mapping[k] = v
	}
	return mapping
}

// Row is a flagged window with its GC content and signal.
type Row struct {
	Span   *intspan.Span
	GC     float64
	Signal int
}

// Dedup replaces the span of every mapped row by its merged span and keeps
// only the first row of each merged span.  Unmapped rows pass through.
// Order is preserved.
func Dedup(rows []Row, mapping map[string]string) []Row {
	var (
		out     []Row
		emitted = make(map[string]bool)
	)
	for _, row := range rows {
		merged, ok := mapping[row.Span.String()]
		if !ok {
			out = append(out, row)
			continue
		}
		if emitted[merged] {
			continue
		}
		emitted[merged] = true
		row.Span = intspan.MustParse(merged)
		out = append(out, row)
	}
	return out
}
