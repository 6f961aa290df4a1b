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

// Package intspan provides an ordered set of integer positions stored as a
// list of disjoint inclusive runs.
package intspan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Empty is the runlist representation of a span without positions.
const Empty = "-"

// Run is an inclusive interval of positions.
type Run struct {
	Lo, Hi int
}

// Span is an ordered set of integer positions.  The zero value is an empty
// span ready to use.
type Span struct {
	runs []Run
}

// FromPair returns the span covering lo through hi (inclusive).  An empty span
// is returned if lo > hi.
func FromPair(lo, hi int) *Span {
	s := &Span{}
	s.AddPair(lo, hi)
	return s
}

// Parse parses a runlist such as "1-5,9,12-20".  Negative numbers are not
// supported.
func Parse(runlist string) (*Span, error) {
	s := &Span{}
	runlist = strings.TrimSpace(runlist)
	if runlist == "" || runlist == Empty {
		return s, nil
	}
	for _, part := range strings.Split(runlist, ",") {
		bounds := strings.SplitN(part, "-", 2)
		lo, err := strconv.Atoi(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("parsing run %q: %v", part, err)
		}
		hi := lo
		if len(bounds) == 2 {
			if hi, err = strconv.Atoi(bounds[1]); err != nil {
				return nil, fmt.Errorf("parsing run %q: %v", part, err)
			}
		}
		if lo > hi {
			return nil, fmt.Errorf("run %q is reversed", part)
		}
		s.AddPair(lo, hi)
	}
	return s, nil
}

// MustParse is like Parse but panics on malformed input.  It is intended for
// literals in tests and tables.
func MustParse(runlist string) *Span {
	s, err := Parse(runlist)
	if err != nil {
		panic(err)
	}
	return s
}

// Runs returns a copy of the runs of s in ascending order.
func (s *Span) Runs() []Run {
	return append([]Run(nil), s.runs...)
}

// IsEmpty reports whether s holds no positions.
func (s *Span) IsEmpty() bool {
	return len(s.runs) == 0
}

// Size returns the number of positions in s.
func (s *Span) Size() int {
	var n int
	for _, r := range s.runs {
		n += r.Hi - r.Lo + 1
	}
	return n
}

// Min returns the smallest position.  It panics on an empty span.
func (s *Span) Min() int {
	return s.runs[0].Lo
}

// Max returns the largest position.  It panics on an empty span.
func (s *Span) Max() int {
	return s.runs[len(s.runs)-1].Hi
}

// Contains reports whether pos is a member of s.
func (s *Span) Contains(pos int) bool {
	i := sort.Search(len(s.runs), func(i int) bool { return s.runs[i].Hi >= pos })
	return i < len(s.runs) && s.runs[i].Lo <= pos
}

// AddPair adds the positions lo through hi.  Adding in ascending order is
// amortized constant time.
func (s *Span) AddPair(lo, hi int) {
	if lo > hi {
		return
	}
	n := len(s.runs)
	if n == 0 || s.runs[n-1].Hi+1 < lo {
		s.runs = append(s.runs, Run{lo, hi})
		return
	}
	if s.runs[n-1].Lo <= lo {
		if hi > s.runs[n-1].Hi {
			s.runs[n-1].Hi = hi
		}
		return
	}

	// General case: merge every run touching [lo-1, hi+1].
	first := sort.Search(n, func(i int) bool { return s.runs[i].Hi+1 >= lo })
	last := first
	for last < n && s.runs[last].Lo <= hi+1 {
		if s.runs[last].Lo < lo {
			lo = s.runs[last].Lo
		}
		if s.runs[last].Hi > hi {
			hi = s.runs[last].Hi
		}
		last++
	}
	merged := make([]Run, 0, n-(last-first)+1)
	merged = append(merged, s.runs[:first]...)
	merged = append(merged, Run{lo, hi})
	merged = append(merged, s.runs[last:]...)
	s.runs = merged
}

// Add adds a single position.
func (s *Span) Add(pos int) {
	s.AddPair(pos, pos)
}

// Union returns the positions present in s or other.
func (s *Span) Union(other *Span) *Span {
	u := &Span{runs: s.Runs()}
	for _, r := range other.runs {
		u.AddPair(r.Lo, r.Hi)
	}
	return u
}

// Intersect returns the positions present in both s and other.
func (s *Span) Intersect(other *Span) *Span {
	out := &Span{}
	i, j := 0, 0
	for i < len(s.runs) && j < len(other.runs) {
		a, b := s.runs[i], other.runs[j]
		lo, hi := a.Lo, a.Hi
		if b.Lo > lo {
			lo = b.Lo
		}
		if b.Hi < hi {
			hi = b.Hi
		}
		if lo <= hi {
			out.runs = append(out.runs, Run{lo, hi})
		}
		if a.Hi < b.Hi {
			i++
		} else {
			j++
		}
	}
	return out
}

// Subtract returns the positions of s that are not in other.
func (s *Span) Subtract(other *Span) *Span {
	out := &Span{}
	j := 0
	for _, r := range s.runs {
		lo := r.Lo
		for j < len(other.runs) && other.runs[j].Hi < lo {
			j++
		}
		for k := j; k < len(other.runs) && other.runs[k].Lo <= r.Hi; k++ {
			if other.runs[k].Lo > lo {
				out.runs = append(out.runs, Run{lo, other.runs[k].Lo - 1})
			}
			lo = other.runs[k].Hi + 1
		}
		if lo <= r.Hi {
			out.runs = append(out.runs, Run{lo, r.Hi})
		}
	}
	return out
}

// Fill returns a copy of s with every hole of at most maxHole positions
// filled in.
func (s *Span) Fill(maxHole int) *Span {
	out := &Span{}
	for _, r := range s.runs {
		n := len(out.runs)
		if n > 0 && r.Lo-out.runs[n-1].Hi-1 <= maxHole {
			out.runs[n-1].Hi = r.Hi
			continue
		}
		out.runs = append(out.runs, r)
	}
	return out
}

// Excise returns a copy of s without the runs shorter than minLength.
func (s *Span) Excise(minLength int) *Span {
	out := &Span{}
	for _, r := range s.runs {
		if r.Hi-r.Lo+1 >= minLength {
			out.runs = append(out.runs, r)
		}
	}
	return out
}

// At returns the position with the given 1-based rank.  Ranks outside
// [1, Size()] return 0 and false.
func (s *Span) At(rank int) (int, bool) {
	if rank < 1 {
		return 0, false
	}
	for _, r := range s.runs {
		size := r.Hi - r.Lo + 1
		if rank <= size {
			return r.Lo + rank - 1, true
		}
		rank -= size
	}
	return 0, false
}

// Index returns the 1-based rank of pos inside s, or 0 if pos is not a
// member.
func (s *Span) Index(pos int) int {
	var rank int
	for _, r := range s.runs {
		if pos < r.Lo {
			return 0
		}
		if pos <= r.Hi {
			return rank + pos - r.Lo + 1
		}
		rank += r.Hi - r.Lo + 1
	}
	return 0
}

// Slice returns the positions with ranks from through to (inclusive).  The
// bounds are clipped to [1, Size()].
func (s *Span) Slice(from, to int) *Span {
	if from < 1 {
		from = 1
	}
	out := &Span{}
	var rank int
	for _, r := range s.runs {
		size := r.Hi - r.Lo + 1
		lo, hi := rank+1, rank+size
		rank += size
		if hi < from {
			continue
		}
		if lo > to {
			break
		}
		a, b := r.Lo, r.Hi
		if from > lo {
			a += from - lo
		}
		if to < hi {
			b -= hi - to
		}
		if a <= b {
			out.runs = append(out.runs, Run{a, b})
		}
	}
	return out
}

// Equal reports whether s and other hold the same positions.
func (s *Span) Equal(other *Span) bool {
	if len(s.runs) != len(other.runs) {
		return false
	}
	for i := range s.runs {
		if s.runs[i] != other.runs[i] {
			return false
		}
	}
	return true
}

// String returns the runlist of s, "-" when empty.
func (s *Span) String() string {
	if len(s.runs) == 0 {
		return Empty
	}
	var b strings.Builder
	for i, r := range s.runs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(r.Lo))
		if r.Hi != r.Lo {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(r.Hi))
		}
	}
	return b.String()
}
