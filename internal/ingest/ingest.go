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

// Package ingest loads sequences and range rows into a store.
package ingest

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/gams/internal/db"
	"github.com/googlegenomics/gams/internal/genomics"
	"github.com/googlegenomics/gams/internal/index"
	"github.com/googlegenomics/gams/internal/intspan"
	"github.com/googlegenomics/gams/internal/serial"
	"github.com/googlegenomics/gams/store"
)

// Options controls how sequences are cut into contigs.
type Options struct {
	// Piece is the target contig length.
	Piece int
	// Fill is the length of the ambiguous gaps that are bridged.
	Fill int
	// Min is the minimal length of a valid region.
	Min int
	// Index is passed to index.Build.
	Index index.BuildOptions
}

// DefaultOptions holds the defaults of the gen command.
var DefaultOptions = Options{Piece: 500000, Fill: 50, Min: 5000}

// Sequence is a named chromosome sequence.
type Sequence struct {
	ID  string
	Seq []byte
}

// Regions returns the contig regions of seq.  Only unambiguous bases
// (ACGT in either case) are valid; gaps shorter than fill are bridged and
// valid regions shorter than min dropped.  Each region is then cut into
// pieces of piece bases, the remainder being added to the last piece.
func Regions(seq []byte, piece, fill, min int) []intspan.Run {
	valid := &intspan.Span{}
	for i, b := range seq {
		switch b {
		case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
			valid.Add(i + 1)
		}
	}
	valid = valid.Fill(fill - 1).Excise(min)

	var regions []intspan.Run
	for _, run := range valid.Runs() {
		pos := run.Lo
		n := len(regions)
		for piece > 0 && run.Hi-pos+1 > piece {
			regions = append(regions, intspan.Run{Lo: pos, Hi: pos + piece - 1})
			pos += piece
		}
		if len(regions) == n {
			regions = append(regions, intspan.Run{Lo: pos, Hi: run.Hi})
		} else {
			regions[len(regions)-1].Hi = run.Hi
		}
	}
	return regions
}

// Contigs cuts a chromosome into contigs and stores them with their
// compressed sequences and the bundle of the chromosome.  The containment
// index is not rebuilt.
func Contigs(ctx context.Context, s store.Store, chr string, seq []byte, opts Options) ([]*genomics.Contig, error) {
	regions := Regions(seq, opts.Piece, opts.Fill, opts.Min)
	logger := log.WithField("chr", chr)
	logger.WithField("regions", len(regions)).Info("Valid regions")
	if len(regions) == 0 {
		return nil, nil
	}

	block, err := serial.NewAllocator(s, db.KindContig).Reserve(ctx, chr, len(regions))
	if err != nil {
		return nil, err
	}
	ctgs := make([]*genomics.Contig, 0, len(regions))
	for _, region := range regions {
		n, _ := block.Next()
		ctg := &genomics.Contig{
			ID:     db.ContigKey(chr, n),
			Range:  genomics.Range{Chr: chr, Strand: "+", Start: region.Lo, End: region.Hi},
			Length: region.Hi - region.Lo + 1,
		}
		if err := db.PutContig(ctx, s, ctg); err != nil {
			return nil, err
		}
		if err := db.PutSequence(ctx, s, ctg.ID, seq[region.Lo-1:region.Hi]); err != nil {
			return nil, err
		}
		ctgs = append(ctgs, ctg)
	}
	if err := db.PutBundle(ctx, s, chr, ctgs); err != nil {
		return nil, err
	}
	return ctgs, nil
}

// Genome stores every chromosome of a genome and builds the containment
// indexes.
func Genome(ctx context.Context, s store.Store, name string, chrs []Sequence, opts Options) error {
	lengths := make(map[string]int, len(chrs))
	var total int
	for _, chr := range chrs {
		lengths[chr.ID] = len(chr.Seq)
		ctgs, err := Contigs(ctx, s, chr.ID, chr.Seq, opts)
		if err != nil {
			return fmt.Errorf("storing %s: %v", chr.ID, err)
		}
		total += len(ctgs)
	}
	if err := db.PutGenome(ctx, s, name, lengths); err != nil {
		return err
	}
	log.WithFields(log.Fields{"chromosomes": len(chrs), "contigs": total}).Info("Building the index of contigs")
	return index.BuildAll(ctx, s, opts.Index)
}
