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

// Package analysis contains the per-contig computations run by the pipeline.
// Each one returns the tab separated rows of a contig.
package analysis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/gams/internal/db"
	"github.com/googlegenomics/gams/internal/gc"
	"github.com/googlegenomics/gams/internal/genomics"
	"github.com/googlegenomics/gams/internal/intspan"
	"github.com/googlegenomics/gams/internal/merge"
	"github.com/googlegenomics/gams/internal/pipeline"
	"github.com/googlegenomics/gams/internal/signal"
	"github.com/googlegenomics/gams/internal/window"
	"github.com/googlegenomics/gams/store"
)

// Output headers.
const (
	WaveHeader           = "#range\tgc_content\tsignal\n"
	FeatureWindowsHeader = "id\trange\ttype\tdistance\ttag\tgc_content\tgc_mean\tgc_stddev\tgc_cv\n"
	PeakHeader           = "id\trange\tlength\tgc\tsignal\t" +
		"left_wave_length\tleft_amplitude\tleft_signal\t" +
		"right_wave_length\tright_amplitude\tright_signal\n"
)

// load returns a contig and a fresh local GC cache over its sequence.
func load(ctx context.Context, s store.Store, ctgID string) (*genomics.Contig, *gc.Local, error) {
	ctg, err := db.Contig(ctx, s, ctgID)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %v", ctgID, err)
	}
	seq, err := db.Sequence(ctx, s, ctgID)
	if err != nil {
		return nil, nil, err
	}
	return ctg, gc.NewLocal(ctg, seq), nil
}

// WaveOptions controls Wave and WaveMerged.
type WaveOptions struct {
	Size, Step int
	Lag        int
	Threshold  float64
	Influence  float64
	// All emits unflagged windows too.
	All bool
	// Coverage is the mutual coverage needed to merge two flagged windows.
	Coverage float64
}

// DefaultWaveOptions holds the defaults of the wave command.
var DefaultWaveOptions = WaveOptions{
	Size:      100,
	Step:      50,
	Lag:       1000,
	Threshold: 3,
	Influence: 1,
	Coverage:  0.5,
}

func formatGC(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func waveRows(ctx context.Context, s store.Store, ctgID string, opts WaveOptions) (string, []merge.Row, error) {
	ctg, local, err := load(ctx, s, ctgID)
	if err != nil {
		return "", nil, err
	}
	windows := window.Sliding(local.Parent(), opts.Size, opts.Step)
	if len(windows) <= opts.Lag {
		log.WithFields(log.Fields{"ctg": ctgID, "windows": len(windows)}).Debug("Too few windows")
		return ctg.Range.Chr, nil, nil
	}

	gcs := make([]float64, len(windows))
	for i, w := range windows {
		gcs[i] = local.Window(w)
	}
	signals := signal.Thresholding(gcs, opts.Lag, opts.Threshold, opts.Influence)

	var rows []merge.Row
	for i, w := range windows {
		if signals[i] == 0 && !opts.All {
			continue
		}
		rows = append(rows, merge.Row{Span: w, GC: gcs[i], Signal: signals[i]})
	}
	return ctg.Range.Chr, rows, nil
}

func writeWaveRows(b *strings.Builder, chr string, rows []merge.Row) {
	for _, row := range rows {
		fmt.Fprintf(b, "%s:%s\t%s\t%d\n", chr, row.Span, formatGC(row.GC), row.Signal)
	}
}

// Wave computes the GC content of sliding windows along a contig and flags
// the windows standing out from the preceding ones.  Contigs with no more
// windows than opts.Lag produce no rows.
func Wave(opts WaveOptions) pipeline.Processor {
	return func(ctx context.Context, s store.Store, ctgID string) (string, error) {
		chr, rows, err := waveRows(ctx, s, ctgID, opts)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		writeWaveRows(&b, chr, rows)
		return b.String(), nil
	}
}

// WaveMerged is Wave followed by merging overlapping crests and overlapping
// troughs.  Every merged span is reported once with the values of its first
// window.
func WaveMerged(opts WaveOptions) pipeline.Processor {
	return func(ctx context.Context, s store.Store, ctgID string) (string, error) {
		chr, rows, err := waveRows(ctx, s, ctgID, opts)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		writeWaveRows(&b, chr, mergeRows(rows, opts.Coverage))
		return b.String(), nil
	}
}

func mergeRows(rows []merge.Row, coverage float64) []merge.Row {
	var crests, troughs []*intspan.Span
	for _, row := range rows {
		switch row.Signal {
		case 1:
			crests = append(crests, row.Span)
		case -1:
			troughs = append(troughs, row.Span)
		}
	}
	return merge.Dedup(rows, merge.Peaks(crests, troughs, coverage))
}

// FeatureWindowOptions controls FeatureWindows.
type FeatureWindowOptions struct {
	Size, Max, Resize int
}

// DefaultFeatureWindowOptions holds the defaults of the sw command.
var DefaultFeatureWindowOptions = FeatureWindowOptions{Size: 100, Max: 20, Resize: 500}

// FeatureWindows reports, for every feature of a contig, the GC content of
// the windows centered on and around it together with the GC statistics of
// the neighborhood of each window.
func FeatureWindows(opts FeatureWindowOptions) pipeline.Processor {
	return func(ctx context.Context, s store.Store, ctgID string) (string, error) {
		ctg, local, err := load(ctx, s, ctgID)
		if err != nil {
			return "", err
		}
		features, err := db.Features(ctx, s, ctgID)
		if err != nil {
			return "", fmt.Errorf("reading features of %s: %v", ctgID, err)
		}
		log.WithFields(log.Fields{"ctg": ctgID, "features": len(features)}).Debug("Sliding windows around features")

		var b strings.Builder
		for _, f := range features {
			windows := window.CenterSW(local.Parent(), f.Range.Start, f.Range.End, opts.Size, opts.Max)
			for serial, w := range windows {
				if w.Span.IsEmpty() {
					continue
				}
				r := genomics.NewRange(ctg.Range.Chr, w.Span.Min(), w.Span.Max())
				resized := window.CenterResize(local.Parent(), w.Span, opts.Resize)
				mean, stddev, cv := local.Stat(genomics.NewRange(ctg.Range.Chr, resized.Min(), resized.Max()), opts.Size, opts.Size)

				fmt.Fprintf(&b, "sw:%s:%d\t%s\t%s\t%d\t%s\t%.4f\t%.4f\t%.4f\t%.4f\n",
					f.ID, serial+1, r, w.Type, w.Distance, f.Tag,
					local.Content(r), mean, stddev, cv)
			}
		}
		return b.String(), nil
	}
}

// PeakNeighbors computes the GC content of every peak of a contig and its
// relation to the previous and next peak: the distance between them, the
// absolute GC difference and the signal of the neighbor.  The first and last
// peaks measure their distance to the contig bounds and compare with
// themselves.  Updated peaks are written back to the store.
func PeakNeighbors(ctx context.Context, s store.Store, ctgID string) (string, error) {
	ctg, local, err := load(ctx, s, ctgID)
	if err != nil {
		return "", err
	}
	peaks, err := db.Peaks(ctx, s, ctgID)
	if err != nil {
		return "", fmt.Errorf("reading peaks of %s: %v", ctgID, err)
	}
	if len(peaks) == 0 {
		return "", nil
	}
	for _, p := range peaks {
		p.GC = local.Content(p.Range)
	}
	sortPeaks(peaks)
	neighbors(peaks, ctg.Range.Start, ctg.Range.End)

	var b strings.Builder
	for _, p := range peaks {
		if err := db.PutPeak(ctx, s, p); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s\t%s\t%d\t%.4f\t%d\t%d\t%.4f\t%d\t%d\t%.4f\t%d\n",
			p.ID, p.Range, p.Length, p.GC, p.Signal,
			p.LeftWaveLength, p.LeftAmplitude, p.LeftSignal,
			p.RightWaveLength, p.RightAmplitude, p.RightSignal)
	}
	return b.String(), nil
}
