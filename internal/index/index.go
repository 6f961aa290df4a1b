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

// Package index maps genomic ranges to the contigs that contain them and
// counts the stored ranges overlapping a query.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/gams/internal/db"
	"github.com/googlegenomics/gams/internal/genomics"
	"github.com/googlegenomics/gams/internal/metrics"
	"github.com/googlegenomics/gams/store"
)

var (
	// ErrCorruptIndex is returned when a persisted index cannot be decoded.
	// The index must be rebuilt.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrOverlap is returned by a validating build when two contigs of a
	// chromosome share positions.
	ErrOverlap = errors.New("overlapping contigs")

	errNoSortedSets = errors.New("store does not support sorted sets")
)

// ContainmentIndex finds the contig containing a range.  A range that is
// not inside any single contig is reported with ok == false and a nil error.
type ContainmentIndex interface {
	Locate(ctx context.Context, r genomics.Range) (ctgID string, ok bool, err error)
}

// BuildOptions controls Build.
type BuildOptions struct {
	// ValidateTiling rejects chromosomes with overlapping contigs.
	ValidateTiling bool
}

// Build rebuilds the containment index of chr from its contig records.  The
// tree blob is always written; the sorted sets used by StoreIndex are
// refreshed when s supports them.  Building twice yields the same index.
func Build(ctx context.Context, s store.Store, chr string, opts BuildOptions) error {
	ctgs, err := db.Contigs(ctx, s, chr)
	if err != nil {
		return fmt.Errorf("reading contigs of %s: %v", chr, err)
	}

	entries := make([]Entry, 0, len(ctgs))
	for _, ctg := range ctgs {
		entries = append(entries, Entry{ctg.Range.Start, ctg.Range.End + 1, ctg.ID})
	}
	tree := NewTree(entries)
	if opts.ValidateTiling {
		if a, b, ok := tree.overlap(); ok {
			return fmt.Errorf("%w: %s and %s on %s", ErrOverlap, a.Value, b.Value, chr)
		}
	}

	blob, err := tree.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.Set(ctx, db.ContigIndexKey(chr), blob); err != nil {
		return fmt.Errorf("storing index of %s: %v", chr, err)
	}

	if z, ok := s.(store.SortedSets); ok {
		if err := s.Del(ctx, db.ContigStartsKey(chr), db.ContigEndsKey(chr)); err != nil {
			return fmt.Errorf("clearing sorted sets of %s: %v", chr, err)
		}
		for _, ctg := range ctgs {
			if err := z.ZAdd(ctx, db.ContigStartsKey(chr), store.Member{Name: ctg.ID, Score: float64(ctg.Range.Start)}); err != nil {
				return fmt.Errorf("adding %s: %v", ctg.ID, err)
			}
			if err := z.ZAdd(ctx, db.ContigEndsKey(chr), store.Member{Name: ctg.ID, Score: float64(ctg.Range.End)}); err != nil {
				return fmt.Errorf("adding %s: %v", ctg.ID, err)
			}
		}
	}

	log.WithFields(log.Fields{"chr": chr, "contigs": len(ctgs)}).Debug("Built contig index")
	return nil
}

// BuildAll rebuilds the containment index of every chromosome.
func BuildAll(ctx context.Context, s store.Store, opts BuildOptions) error {
	chrs, err := db.Chromosomes(ctx, s)
	if err != nil {
		return fmt.Errorf("reading chromosomes: %v", err)
	}
	for _, chr := range chrs {
		if err := Build(ctx, s, chr, opts); err != nil {
			return err
		}
	}
	return nil
}

// TreeIndex answers queries from the persisted trees, loading the tree of a
// chromosome on first use.  A TreeIndex is not safe for concurrent use.
type TreeIndex struct {
	store store.Store
	trees map[string]*Tree
}

// NewTreeIndex returns an empty TreeIndex reading from s.
func NewTreeIndex(s store.Store) *TreeIndex {
	return &TreeIndex{s, make(map[string]*Tree)}
}

// Load (re)reads the tree of chr from the store.  A chromosome without a
// persisted index loads as empty.
func (x *TreeIndex) Load(ctx context.Context, chr string) error {
	blob, err := x.store.Get(ctx, db.ContigIndexKey(chr))
	if errors.Is(err, store.ErrNotFound) {
		x.trees[chr] = NewTree(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading index of %s: %v", chr, err)
	}
	tree, err := UnmarshalTree(blob)
	if err != nil {
		return fmt.Errorf("loading index of %s: %w", chr, err)
	}
	x.trees[chr] = tree
	return nil
}

// Locate implements ContainmentIndex.
func (x *TreeIndex) Locate(ctx context.Context, r genomics.Range) (string, bool, error) {
	tree, ok := x.trees[r.Chr]
	if !ok {
		if err := x.Load(ctx, r.Chr); err != nil {
			return "", false, err
		}
		tree = x.trees[r.Chr]
	}
	id, found := tree.Contain(r.Start, r.End)
	metrics.Lookup("tree", found)
	return id, found, nil
}

// StoreIndex answers queries with sorted set operations inside the store,
// without reading a whole index.
type StoreIndex struct {
	store store.Store
	z     store.SortedSets
}

// NewStoreIndex returns a StoreIndex over s, which must implement
// store.SortedSets.
func NewStoreIndex(s store.Store) (*StoreIndex, error) {
	z, ok := s.(store.SortedSets)
	if !ok {
		return nil, errNoSortedSets
	}
	return &StoreIndex{s, z}, nil
}

// Locate implements ContainmentIndex.  Temporary keys are unique per call.
func (x *StoreIndex) Locate(ctx context.Context, r genomics.Range) (string, bool, error) {
	tmp := "tmp:" + uuid.New().String()
	starts, ends, both := tmp+":s", tmp+":e", tmp+":i"
	defer x.store.Del(context.Background(), starts, ends, both)

	if err := x.z.ZRangeStore(ctx, starts, db.ContigStartsKey(r.Chr), math.Inf(-1), float64(r.Start)); err != nil {
		return "", false, fmt.Errorf("selecting starts: %v", err)
	}
	if err := x.z.ZRangeStore(ctx, ends, db.ContigEndsKey(r.Chr), float64(r.End), math.Inf(1)); err != nil {
		return "", false, fmt.Errorf("selecting ends: %v", err)
	}
	if err := x.z.ZInterStoreMin(ctx, both, starts, ends); err != nil {
		return "", false, fmt.Errorf("intersecting: %v", err)
	}
	members, err := x.z.ZRange(ctx, both)
	if err != nil {
		return "", false, fmt.Errorf("reading intersection: %v", err)
	}
	metrics.Lookup("store", len(members) > 0)
	if len(members) == 0 {
		return "", false, nil
	}
	return members[0].Name, true, nil
}
