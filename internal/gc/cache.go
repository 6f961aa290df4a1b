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
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/googlegenomics/gams/internal/db"
	"github.com/googlegenomics/gams/internal/genomics"
	"github.com/googlegenomics/gams/internal/index"
	"github.com/googlegenomics/gams/internal/intspan"
	"github.com/googlegenomics/gams/internal/metrics"
	"github.com/googlegenomics/gams/internal/window"
	"github.com/googlegenomics/gams/store"
)

// DefaultTTL is the time a bucket survives after its last use.
const DefaultTTL = 180 * time.Second

// Local memoizes the GC content of ranges of one contig.  It must not be
// shared between goroutines.
type Local struct {
	chr    string
	parent *intspan.Span
	seq    []byte
	cache  map[string]float64
}

// NewLocal returns an empty cache over the decompressed sequence of ctg.
func NewLocal(ctg *genomics.Contig, seq []byte) *Local {
	return &Local{
		chr:    ctg.Range.Chr,
		parent: ctg.Range.Span(),
		seq:    seq,
		cache:  make(map[string]float64),
	}
}

// Parent returns the positions of the contig.
func (l *Local) Parent() *intspan.Span {
	return l.parent
}

// Len returns the number of cached ranges.
func (l *Local) Len() int {
	return len(l.cache)
}

// Content returns the GC content of r.  Ranges reaching outside the contig
// have no GC content.
func (l *Local) Content(r genomics.Range) float64 {
	field := genomics.NewRange(l.chr, r.Start, r.End).String()
	if gc, ok := l.cache[field]; ok {
		metrics.Cache("local", true)
		return gc
	}
	metrics.Cache("local", false)

	var gc float64
	from, to := l.parent.Index(r.Start), l.parent.Index(r.End)
	if from > 0 && to >= from && to <= len(l.seq) {
		gc = Content(l.seq[from-1 : to])
	}
	l.cache[field] = gc
	return gc
}

// Window returns the GC content of the range spanned by w.
func (l *Local) Window(w *intspan.Span) float64 {
	if w.IsEmpty() {
		return 0
	}
	return l.Content(genomics.NewRange(l.chr, w.Min(), w.Max()))
}

// Stat returns Stat of the GC content of the sliding windows of r.
func (l *Local) Stat(r genomics.Range, size, step int) (mean, stddev, cv float64) {
	windows := window.Sliding(r.Span(), size, step)
	values := make([]float64, 0, len(windows))
	for _, w := range windows {
		values = append(values, l.Window(w))
	}
	return Stat(values)
}

// Bucket caches GC content in the store under "cache:{chr}:{start/1000}",
// one hash field per range.  Every hit refreshes the expiration of the
// bucket.
type Bucket struct {
	store store.Store
	index index.ContainmentIndex
	ttl   time.Duration
}

// NewBucket returns a Bucket resolving misses through x.  A zero ttl selects
// DefaultTTL.
func NewBucket(s store.Store, x index.ContainmentIndex, ttl time.Duration) *Bucket {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Bucket{s, x, ttl}
}

// Content returns the GC content of r.  A range outside every contig has no
// GC content.
func (b *Bucket) Content(ctx context.Context, r genomics.Range) (float64, error) {
	r = r.Unstranded()
	key, field := db.CacheKey(r.Chr, r.Start), r.String()

	value, err := b.store.HGet(ctx, key, field)
	switch {
	case err == nil:
		gc, err := strconv.ParseFloat(string(value), 64)
		if err == nil {
			metrics.Cache("bucket", true)
			if err := b.store.Expire(ctx, key, b.ttl); err != nil {
				return 0, fmt.Errorf("refreshing %s: %v", key, err)
			}
			return gc, nil
		}
		// Unreadable entries are recomputed.
	case !errors.Is(err, store.ErrNotFound):
		return 0, fmt.Errorf("reading %s: %v", key, err)
	}
	metrics.Cache("bucket", false)

	gc, err := b.compute(ctx, r)
	if err != nil {
		return 0, err
	}
	if err := b.store.HSet(ctx, key, field, []byte(strconv.FormatFloat(gc, 'g', -1, 64))); err != nil {
		return 0, fmt.Errorf("caching %s: %v", field, err)
	}
	if err := b.store.Expire(ctx, key, b.ttl); err != nil {
		return 0, fmt.Errorf("expiring %s: %v", key, err)
	}
	return gc, nil
}

func (b *Bucket) compute(ctx context.Context, r genomics.Range) (float64, error) {
	ctgID, ok, err := b.index.Locate(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("locating %s: %w", r, err)
	}
	if !ok {
		return 0, nil
	}
	ctg, err := db.Contig(ctx, b.store, ctgID)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %v", ctgID, err)
	}
	seq, err := db.SequenceRange(ctx, b.store, ctg, r)
	if err != nil {
		return 0, err
	}
	return Content(seq), nil
}
