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
	"context"
	"errors"
	"fmt"

	"github.com/googlegenomics/gams/internal/db"
	"github.com/googlegenomics/gams/internal/genomics"
	"github.com/googlegenomics/gams/store"
)

// BuildOverlaps rebuilds the overlap index of the range records of a contig.
func BuildOverlaps(ctx context.Context, s store.Store, ctgID string) error {
	ranges, err := db.Ranges(ctx, s, ctgID)
	if err != nil {
		return fmt.Errorf("reading ranges of %s: %v", ctgID, err)
	}
	entries := make([]Entry, 0, len(ranges))
	for _, r := range ranges {
		entries = append(entries, Entry{r.Range.Start, r.Range.End + 1, r.ID})
	}
	blob, err := NewTree(entries).MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.Set(ctx, db.RangeIndexKey(ctgID), blob); err != nil {
		return fmt.Errorf("storing overlap index of %s: %v", ctgID, err)
	}
	return nil
}

// OverlapIndex counts the stored ranges of a contig overlapping a query.
// Trees are loaded on first use.  An OverlapIndex is not safe for concurrent
// use.
type OverlapIndex struct {
	store store.Store
	trees map[string]*Tree
}

// NewOverlapIndex returns an empty OverlapIndex reading from s.
func NewOverlapIndex(s store.Store) *OverlapIndex {
	return &OverlapIndex{s, make(map[string]*Tree)}
}

// Count returns the number of ranges of ctgID sharing a position with r.  A
// contig without an overlap index has no ranges.
func (x *OverlapIndex) Count(ctx context.Context, ctgID string, r genomics.Range) (int, error) {
	tree, ok := x.trees[ctgID]
	if !ok {
		blob, err := x.store.Get(ctx, db.RangeIndexKey(ctgID))
		switch {
		case errors.Is(err, store.ErrNotFound):
			tree = NewTree(nil)
		case err != nil:
			return 0, fmt.Errorf("reading overlap index of %s: %v", ctgID, err)
		default:
			if tree, err = UnmarshalTree(blob); err != nil {
				return 0, fmt.Errorf("loading overlap index of %s: %w", ctgID, err)
			}
		}
		x.trees[ctgID] = tree
	}
	return tree.Count(r.Start, r.End), nil
}
