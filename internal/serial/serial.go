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

// Package serial reserves blocks of record serials from the counters kept in
// a store.
package serial

import (
	"context"
	"fmt"

	"github.com/googlegenomics/gams/internal/db"
	"github.com/googlegenomics/gams/store"
)

// Block is a contiguous range of reserved serials.
type Block struct {
	First, Last int64
	used        int64
}

// Len returns the number of serials in b.
func (b *Block) Len() int64 {
	return b.Last - b.First + 1
}

// Next returns the next unused serial of b and false once b is exhausted.
func (b *Block) Next() (int64, bool) {
	n := b.First + b.used
	if n > b.Last {
		return 0, false
	}
	b.used++
	return n, true
}

// Allocator reserves serials of one record kind.
type Allocator struct {
	store store.Store
	kind  string
}

// NewAllocator returns an Allocator for records of kind.
func NewAllocator(s store.Store, kind string) *Allocator {
	return &Allocator{s, kind}
}

// Reserve atomically reserves n serials under parent.  Serials start at 1 and
// are never handed out twice, even across processes sharing the store.
func (a *Allocator) Reserve(ctx context.Context, parent string, n int) (*Block, error) {
	if n < 1 {
		return nil, fmt.Errorf("reserving %d serials", n)
	}
	key := db.CounterKey(a.kind, parent)
	last, err := a.store.Incr(ctx, key, int64(n))
	if err != nil {
		return nil, fmt.Errorf("incrementing %s: %v", key, err)
	}
	return &Block{First: last - int64(n) + 1, Last: last}, nil
}

// Batcher groups records by parent so that each parent reserves its serials
// with a single counter update.
type Batcher struct {
	alloc  *Allocator
	order  []string
	counts map[string]int
}

// NewBatcher returns an empty Batcher for records of kind.
func NewBatcher(s store.Store, kind string) *Batcher {
	return &Batcher{alloc: NewAllocator(s, kind), counts: make(map[string]int)}
}

// Add registers one more record under parent.
func (b *Batcher) Add(parent string) {
	if b.counts[parent] == 0 {
		b.order = append(b.order, parent)
	}
	b.counts[parent]++
}

// IDs reserves the serials of every registered record and returns their ids
// ("{kind}:{parent}:{serial}") by parent, in the order the records were
// added.
func (b *Batcher) IDs(ctx context.Context) (map[string][]string, error) {
	ids := make(map[string][]string, len(b.order))
	for _, parent := range b.order {
		block, err := b.alloc.Reserve(ctx, parent, b.counts[parent])
		if err != nil {
			return nil, err
		}
		for n, ok := block.Next(); ok; n, ok = block.Next() {
			ids[parent] = append(ids[parent], db.RecordKey(b.alloc.kind, parent, n))
		}
	}
	return ids, nil
}
