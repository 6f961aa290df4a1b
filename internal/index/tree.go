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

package index

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/googlegenomics/gams/internal/binary"
)

// magic identifies a serialized Tree.
var magic = []byte("GIX\x01")

// Entry is an interval [Start, Stop) carrying a value.
type Entry struct {
	Start, Stop int
	Value       string
}

// Tree answers stabbing queries over a fixed set of entries.  Entries are
// kept sorted by start and augmented with the running maximum of stops, so a
// query visits O(log n + k) entries.
type Tree struct {
	entries []Entry
	maxStop []int
}

// NewTree returns a tree over a copy of entries.
func NewTree(entries []Entry) *Tree {
	t := &Tree{entries: append([]Entry(nil), entries...)}
	sort.Slice(t.entries, func(i, j int) bool {
		a, b := t.entries[i], t.entries[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Stop != b.Stop {
			return a.Stop < b.Stop
		}
		return a.Value < b.Value
	})
	t.maxStop = make([]int, len(t.entries))
	for i, e := range t.entries {
		t.maxStop[i] = e.Stop
		if i > 0 && t.maxStop[i-1] > e.Stop {
			t.maxStop[i] = t.maxStop[i-1]
		}
	}
	return t
}

// Len returns the number of entries.
func (t *Tree) Len() int {
	return len(t.entries)
}

// Entries returns the entries sorted by start.
func (t *Tree) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// visit calls fn for the entries starting at or before pos whose stop may
// exceed min, from the last such entry backwards.
func (t *Tree) visit(pos, min int, fn func(Entry)) {
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Start > pos }) - 1
	for ; i >= 0 && t.maxStop[i] > min; i-- {
		fn(t.entries[i])
	}
}

// Contain returns the value of the entry holding every position of
// [start, end].  If several entries qualify the one with the lowest start is
// returned.
func (t *Tree) Contain(start, end int) (string, bool) {
	var (
		found bool
		best  Entry
	)
	t.visit(start, end, func(e Entry) {
		if e.Stop > end {
			found, best = true, e
		}
	})
	return best.Value, found
}

// Count returns the number of entries sharing at least one position with
// [start, end].
func (t *Tree) Count(start, end int) int {
	var n int
	t.visit(end, start, func(e Entry) {
		if e.Stop > start {
			n++
		}
	})
	return n
}

// overlap returns the first pair of entries sharing a position.
func (t *Tree) overlap() (Entry, Entry, bool) {
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i].Start < t.maxStop[i-1] {
			for j := i - 1; j >= 0; j-- {
				if t.entries[j].Stop > t.entries[i].Start {
					return t.entries[j], t.entries[i], true
				}
			}
		}
	}
	return Entry{}, Entry{}, false
}

// MarshalBinary returns the framed gob encoding of the entries.
func (t *Tree) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t.entries); err != nil {
		return nil, fmt.Errorf("encoding entries: %v", err)
	}
	return binary.Frame(magic, buf.Bytes()), nil
}

// UnmarshalTree decodes a tree written by MarshalBinary.  Malformed input
// returns an error wrapping ErrCorruptIndex.
func UnmarshalTree(data []byte) (*Tree, error) {
	payload, err := binary.Unframe(magic, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	var entries []Entry
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decoding entries: %v", ErrCorruptIndex, err)
	}
	return NewTree(entries), nil
}
