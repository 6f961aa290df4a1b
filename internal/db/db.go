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

// Package db reads and writes the genome records kept in a store.  Every
// record is encoded with encoding/gob.
package db

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"sort"

	"github.com/googlegenomics/gams/bgzf"
	"github.com/googlegenomics/gams/internal/genomics"
	"github.com/googlegenomics/gams/store"
)

// Encode returns the gob encoding of v.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob: %v", err)
	}
	return buf.Bytes(), nil
}

// Decode decodes the gob encoded data into v.
func Decode(data []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("gob: %v", err)
	}
	return nil
}

func put(ctx context.Context, s store.Store, key string, v interface{}) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %v", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("storing %s: %v", key, err)
	}
	return nil
}

func get(ctx context.Context, s store.Store, key string, v interface{}) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("reading %s: %v", key, err)
	}
	if err := Decode(data, v); err != nil {
		return fmt.Errorf("decoding %s: %v", key, err)
	}
	return nil
}

// each decodes every record of kind under parent in serial order.
func each(ctx context.Context, s store.Store, kind, parent string, fn func(data []byte) error) error {
	keys, err := s.Scan(ctx, RecordPrefix(kind, parent))
	if err != nil {
		return err
	}
	SortBySerial(keys)
	for _, key := range keys {
		data, err := s.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %v", key, err)
		}
		if err := fn(data); err != nil {
			return fmt.Errorf("decoding %s: %v", key, err)
		}
	}
	return nil
}

// PutGenome stores the genome name and the chromosome lengths.
func PutGenome(ctx context.Context, s store.Store, name string, lengths map[string]int) error {
	if err := s.Set(ctx, NameKey, []byte(name)); err != nil {
		return fmt.Errorf("storing name: %v", err)
	}
	chrs := make([]string, 0, len(lengths))
	for chr := range lengths {
		chrs = append(chrs, chr)
	}
	sort.Strings(chrs)
	if err := put(ctx, s, ChrsKey, chrs); err != nil {
		return err
	}
	return put(ctx, s, ChrLengthKey, lengths)
}

// Chromosomes returns the chromosome ids of the genome.
func Chromosomes(ctx context.Context, s store.Store) ([]string, error) {
	var chrs []string
	if err := get(ctx, s, ChrsKey, &chrs); err != nil {
		return nil, err
	}
	return chrs, nil
}

// ChromosomeLengths returns the length of every chromosome.
func ChromosomeLengths(ctx context.Context, s store.Store) (map[string]int, error) {
	var lengths map[string]int
	if err := get(ctx, s, ChrLengthKey, &lengths); err != nil {
		return nil, err
	}
	return lengths, nil
}

// PutContig stores ctg.
func PutContig(ctx context.Context, s store.Store, ctg *genomics.Contig) error {
	return put(ctx, s, ctg.ID, ctg)
}

// Contig returns the contig with the given id.
func Contig(ctx context.Context, s store.Store, id string) (*genomics.Contig, error) {
	var ctg genomics.Contig
	if err := get(ctx, s, id, &ctg); err != nil {
		return nil, err
	}
	return &ctg, nil
}

// Contigs returns the contigs of chr in serial order.
func Contigs(ctx context.Context, s store.Store, chr string) ([]*genomics.Contig, error) {
	var ctgs []*genomics.Contig
	err := each(ctx, s, KindContig, chr, func(data []byte) error {
		var ctg genomics.Contig
		if err := Decode(data, &ctg); err != nil {
			return err
		}
		ctgs = append(ctgs, &ctg)
		return nil
	})
	return ctgs, err
}

// ContigIDs returns the ids of the contigs matching prefix, which may name a
// chromosome ("ctg:I:") or a single contig.
func ContigIDs(ctx context.Context, s store.Store, prefix string) ([]string, error) {
	if prefix == "" {
		prefix = KindContig + ":"
	}
	keys, err := s.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scanning contigs: %v", err)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ci, _ := ContigChr(keys[i])
		cj, _ := ContigChr(keys[j])
		if ci != cj {
			return ci < cj
		}
		return Serial(keys[i]) < Serial(keys[j])
	})
	return keys, nil
}

// PutBundle stores all contigs of chr under a single key.
func PutBundle(ctx context.Context, s store.Store, chr string, ctgs []*genomics.Contig) error {
	bundle := make(map[string]genomics.Contig, len(ctgs))
	for _, ctg := range ctgs {
		bundle[ctg.ID] = *ctg
	}
	return put(ctx, s, BundleKey(chr), bundle)
}

// Bundle returns all contigs of chr keyed by id.
func Bundle(ctx context.Context, s store.Store, chr string) (map[string]genomics.Contig, error) {
	var bundle map[string]genomics.Contig
	if err := get(ctx, s, BundleKey(chr), &bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// PutSequence stores the BGZF compressed sequence of a contig.
func PutSequence(ctx context.Context, s store.Store, ctgID string, seq []byte) error {
	archive, err := bgzf.Compress(seq)
	if err != nil {
		return fmt.Errorf("compressing %s: %v", ctgID, err)
	}
	if err := s.Set(ctx, SequenceKey(ctgID), archive); err != nil {
		return fmt.Errorf("storing sequence of %s: %v", ctgID, err)
	}
	return nil
}

// Sequence returns the whole sequence of a contig.
func Sequence(ctx context.Context, s store.Store, ctgID string) ([]byte, error) {
	archive, err := s.Get(ctx, SequenceKey(ctgID))
	if err != nil {
		return nil, fmt.Errorf("reading sequence of %s: %v", ctgID, err)
	}
	return bgzf.Decompress(archive)
}

// SequenceRange returns the bases of r, which must lie inside ctg.
func SequenceRange(ctx context.Context, s store.Store, ctg *genomics.Contig, r genomics.Range) ([]byte, error) {
	if r.Start < ctg.Range.Start || r.End > ctg.Range.End {
		return nil, fmt.Errorf("%s is not inside %s", r, ctg.ID)
	}
	archive, err := s.Get(ctx, SequenceKey(ctg.ID))
	if err != nil {
		return nil, fmt.Errorf("reading sequence of %s: %v", ctg.ID, err)
	}
	from := r.Start - ctg.Range.Start
	return bgzf.Slice(archive, from, from+r.Length())
}

// PutFeature stores a feature.
func PutFeature(ctx context.Context, s store.Store, f *genomics.Feature) error {
	return put(ctx, s, f.ID, f)
}

// Features returns the features of a contig in serial order.
func Features(ctx context.Context, s store.Store, ctgID string) ([]*genomics.Feature, error) {
	var features []*genomics.Feature
	err := each(ctx, s, KindFeature, ctgID, func(data []byte) error {
		var f genomics.Feature
		if err := Decode(data, &f); err != nil {
			return err
		}
		features = append(features, &f)
		return nil
	})
	return features, err
}

// PutRange stores a range record.
func PutRange(ctx context.Context, s store.Store, r *genomics.RangeRecord) error {
	return put(ctx, s, r.ID, r)
}

// Ranges returns the range records of a contig in serial order.
func Ranges(ctx context.Context, s store.Store, ctgID string) ([]*genomics.RangeRecord, error) {
	var ranges []*genomics.RangeRecord
	err := each(ctx, s, KindRange, ctgID, func(data []byte) error {
		var r genomics.RangeRecord
		if err := Decode(data, &r); err != nil {
			return err
		}
		ranges = append(ranges, &r)
		return nil
	})
	return ranges, err
}

// PutPeak stores a peak.
func PutPeak(ctx context.Context, s store.Store, p *genomics.Peak) error {
	return put(ctx, s, p.ID, p)
}

// Peaks returns the peaks of a contig in serial order.
func Peaks(ctx context.Context, s store.Store, ctgID string) ([]*genomics.Peak, error) {
	var peaks []*genomics.Peak
	err := each(ctx, s, KindPeak, ctgID, func(data []byte) error {
		var p genomics.Peak
		if err := Decode(data, &p); err != nil {
			return err
		}
		peaks = append(peaks, &p)
		return nil
	})
	return peaks, err
}
